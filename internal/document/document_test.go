package document

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jsonodm "github.com/kenfreee/doctrine-json-odm"
)

type Note struct {
	Title string
	Body  string
}

func newSerializer(t *testing.T) *jsonodm.Serializer {
	t.Helper()
	registry := jsonodm.NewRegistry()
	registry.MustRegister(Note{})
	s, err := jsonodm.New(jsonodm.Config{Registry: registry, LogLevel: "error"})
	require.NoError(t, err)
	return s
}

func TestDigestIgnoresFormatting(t *testing.T) {
	a, err := Digest([]byte(`{"b": 1, "a": [true, null]}`))
	require.NoError(t, err)
	b, err := Digest([]byte(`{"a":[true,null],"b":1.0}`))
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	c, err := Digest([]byte(`{"a":[true,null],"b":2}`))
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestDigestInvalidJSON(t *testing.T) {
	_, err := Digest([]byte(`{"a":`))
	assert.Error(t, err)
}

func TestEncodeDecode(t *testing.T) {
	ctx := context.Background()
	s := newSerializer(t)
	note := &Note{Title: "hello", Body: "world"}

	doc, err := Encode(ctx, s, "n1", jsonodm.TypeNameOf(note), note)
	require.NoError(t, err)
	assert.Equal(t, "n1", doc.ID)
	assert.Equal(t, jsonodm.TypeNameOf(Note{}), doc.Type)
	assert.Contains(t, string(doc.Body), `"#type":"`+doc.Type+`"`)
	require.NoError(t, Verify(doc))

	v, err := Decode(ctx, s, doc)
	require.NoError(t, err)
	assert.Equal(t, note, v)

	var into Note
	require.NoError(t, DecodeInto(ctx, s, doc, &into))
	assert.Equal(t, *note, into)
}

func TestVerify(t *testing.T) {
	t.Run("no digest", func(t *testing.T) {
		assert.NoError(t, Verify(Document{ID: "x", Body: []byte(`{}`)}))
	})

	t.Run("mismatch", func(t *testing.T) {
		digest, err := Digest([]byte(`{"a":1}`))
		require.NoError(t, err)
		err = Verify(Document{ID: "x", Body: []byte(`{"a":2}`), Digest: digest})
		assert.ErrorIs(t, err, ErrDigestMismatch)
	})

	t.Run("decode refuses mismatch", func(t *testing.T) {
		_, err := Decode(context.Background(), newSerializer(t), Document{ID: "x", Body: []byte(`{}`), Digest: "00"})
		assert.ErrorIs(t, err, ErrDigestMismatch)
	})
}
