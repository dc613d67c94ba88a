package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const modelsSource = `package models

//odm:register
type User struct {
	ID   int    ` + "`odm:\"id\"`" + `
	Name string
}

//odm:register
type Group struct {
	Members []User
}
`

func newTestGenerator(t *testing.T, config *Config) (*Generator, *bytes.Buffer) {
	t.Helper()
	require.NoError(t, config.Validate())
	var out bytes.Buffer
	return &Generator{config: config, out: &out}, &out
}

func TestGenerate(t *testing.T) {
	pkgDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(pkgDir, "models.go"), []byte(modelsSource), 0644))

	g, out := newTestGenerator(t, DefaultConfig())
	require.NoError(t, g.Generate([]string{pkgDir}, false))
	assert.Contains(t, out.String(), "Code generation complete!")

	code, err := os.ReadFile(filepath.Join(pkgDir, "models_odm.go"))
	require.NoError(t, err)
	src := string(code)
	assert.Contains(t, src, "// Source: models.go")
	assert.Contains(t, src, "return new(Group)")
	assert.Contains(t, src, "return new(User)")
	assert.Contains(t, src, `"id"`)

	// Generated files carry no directive and are not picked up again.
	require.NoError(t, g.Generate([]string{pkgDir}, false))
	entries, err := os.ReadDir(pkgDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestGenerateDryRun(t *testing.T) {
	pkgDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(pkgDir, "models.go"), []byte(modelsSource), 0644))

	g, out := newTestGenerator(t, DefaultConfig())
	require.NoError(t, g.Generate([]string{pkgDir}, true))

	assert.Contains(t, out.String(), "Would generate: "+filepath.Join(pkgDir, "models_odm.go"))
	_, err := os.Stat(filepath.Join(pkgDir, "models_odm.go"))
	assert.True(t, os.IsNotExist(err))
}

func TestGenerateOutputDirAndSuffix(t *testing.T) {
	pkgDir := t.TempDir()
	outDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(pkgDir, "models.go"), []byte(modelsSource), 0644))

	config := DefaultConfig()
	config.Generation.OutputSuffix = "_types"
	g, _ := newTestGenerator(t, config)
	g.outputDir = outDir

	require.NoError(t, g.Generate([]string{pkgDir}, false))
	_, err := os.Stat(filepath.Join(outDir, "models_types.go"))
	assert.NoError(t, err)
}

func TestGenerateSkipsPackage(t *testing.T) {
	pkgDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(pkgDir, "models.go"), []byte(modelsSource), 0644))

	config := DefaultConfig()
	config.Packages[pkgDir] = PackageConfig{Skip: true}
	g, _ := newTestGenerator(t, config)

	require.NoError(t, g.Generate([]string{pkgDir}, false))
	_, err := os.Stat(filepath.Join(pkgDir, "models_odm.go"))
	assert.True(t, os.IsNotExist(err))
}

func TestGenerateRejectsInvalidTags(t *testing.T) {
	pkgDir := t.TempDir()
	source := "package models\n\n//odm:register\ntype Bad struct {\n\tKind string `odm:\"#type\"`\n}\n"
	require.NoError(t, os.WriteFile(filepath.Join(pkgDir, "bad.go"), []byte(source), 0644))

	g, _ := newTestGenerator(t, DefaultConfig())
	err := g.Generate([]string{pkgDir}, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Bad")

	var out bytes.Buffer
	assert.False(t, validatePackages(&out, DefaultConfig(), []string{pkgDir}, false))
	assert.Contains(t, out.String(), "reserved for the type name")
}

func TestValidatePackages(t *testing.T) {
	pkgDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(pkgDir, "models.go"), []byte(modelsSource), 0644))

	var out bytes.Buffer
	assert.True(t, validatePackages(&out, DefaultConfig(), []string{pkgDir}, true))
	assert.Contains(t, out.String(), "Found 2 registered structs")
	assert.Contains(t, out.String(), `User.ID -> "id"`)
}

func TestOutputPath(t *testing.T) {
	g, _ := newTestGenerator(t, DefaultConfig())
	assert.Equal(t, filepath.Join("pkg", "user_odm.go"), g.outputPath("pkg", "user.go"))
	assert.Empty(t, groupBySourceFile(nil))
}
