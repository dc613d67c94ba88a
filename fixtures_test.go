package jsonodm

import (
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testAddress struct {
	Street string
	City   string
}

type testCompany struct {
	Name    string
	Address *testAddress
}

type testPerson struct {
	Name   string
	Age    int
	Home   *testAddress
	Tags   []string
	Scores map[string]int
	Born   time.Time
}

// testPet holds its companion behind an interface so the runtime type is
// the only thing telling a dog from a cat.
type testPet struct {
	Companion any
}

type testDog struct{ Name string }
type testCat struct{ Name string }

type testAccount struct {
	Login    string
	password string
}

type testLevelA struct{ B *testLevelB }
type testLevelB struct{ C *testLevelC }
type testLevelC struct{ Value string }

type testRenamed struct {
	ID      string `odm:"id"`
	Ignored string `odm:"-"`
	Label   string `odm:"label,omitempty"`
}

type testNode struct {
	Name string
	Next *testNode
}

type testPoint struct {
	X, Y int
}

type testCounter struct {
	ID    int64
	Min   int64
	Total uint64
}

type testShape interface{ Area() float64 }

type testSquare struct{ Side float64 }

func (s testSquare) Area() float64 { return s.Side * s.Side }

type testCircle struct{ Radius float64 }

func (c *testCircle) Area() float64 { return 3 * c.Radius * c.Radius }

type testDrawing struct {
	One    testShape
	Shapes []testShape
}

type testHost struct {
	Name string
	Addr netip.Addr
	Net  *netip.Prefix
}

type testOwner struct{ City string }

// testBadge embeds an unexported type; its promoted City field is not
// written.
type testBadge struct {
	testOwner
	Label string
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	r.MustRegister(
		testAddress{}, testCompany{}, testPerson{}, testPet{}, testDog{}, testCat{},
		testAccount{}, testLevelA{}, testLevelB{}, testLevelC{}, testRenamed{}, testNode{},
		testCounter{}, testDrawing{}, testSquare{}, testCircle{}, testHost{}, testBadge{},
	)
	return r
}

func newTestSerializer(t *testing.T, cfg Config) *Serializer {
	t.Helper()
	if cfg.Registry == nil {
		cfg.Registry = newTestRegistry(t)
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "error"
	}
	s, err := New(cfg)
	require.NoError(t, err)
	return s
}

func samplePerson() *testPerson {
	return &testPerson{
		Name:   "Ada",
		Age:    36,
		Home:   &testAddress{Street: "12 St James's Square", City: "London"},
		Tags:   []string{"math", "engines"},
		Scores: map[string]int{"analysis": 10, "poetry": 7},
		Born:   time.Date(1815, 12, 10, 8, 30, 0, 0, time.UTC),
	}
}
