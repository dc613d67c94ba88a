package codegen

import (
	"go/parser"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTemplateEngine(t *testing.T) {
	engine, err := NewTemplateEngine()
	require.NoError(t, err)
	assert.NotNil(t, engine)
}

func userStruct() StructInfo {
	return StructInfo{
		PackageName: "models",
		StructName:  "User",
		SourceFile:  "user.go",
		Aliases:     []string{"legacy.User"},
		Fields: []FieldInfo{
			{Name: "ID", Key: "id", Exported: true, IsValid: true},
			{Name: "secret", Key: "secret", Exported: false, IsValid: true},
			{Name: "Cache", Key: "Cache", Exported: true, Skip: true, IsValid: true},
		},
	}
}

func TestBuildTemplateData(t *testing.T) {
	data := BuildTemplateData("user.go", []StructInfo{userStruct()}, GenerationConfig{GeneratorVersion: "1.0.0"})

	assert.Equal(t, "models", data.PackageName)
	assert.Equal(t, "user.go", data.SourceFile)
	assert.Equal(t, DefaultImportPath, data.ImportPath)
	assert.Equal(t, "jsonodm.DefaultRegistry", data.Registry)
	require.Len(t, data.Types, 1)

	fields := data.Types[0].Fields
	require.Len(t, fields, 2)
	assert.Equal(t, TemplateField{Name: "ID", Key: "id", Readable: true}, fields[0])
	assert.Equal(t, TemplateField{Name: "secret", Key: "secret", Readable: false}, fields[1])
}

func TestGenerateCode(t *testing.T) {
	engine, err := NewTemplateEngine()
	require.NoError(t, err)

	data := BuildTemplateData("user.go", []StructInfo{userStruct()}, GenerationConfig{GeneratorVersion: "1.0.0"})
	code, err := engine.GenerateCode(data)
	require.NoError(t, err)

	src := string(code)
	assert.Contains(t, src, "// Code generated by jsonodm-gen 1.0.0. DO NOT EDIT.")
	assert.Contains(t, src, "package models")
	assert.Contains(t, src, `jsonodm "github.com/kenfreee/doctrine-json-odm"`)
	assert.Contains(t, src, "jsonodm.DefaultRegistry.MustRegisterTypeInfo(jsonodm.TypeInfo{")
	assert.Contains(t, src, "New:  func() any { return new(User) },")
	assert.Contains(t, src, `Key:      "id",`)
	assert.Contains(t, src, "return obj.(*User).ID")
	assert.Contains(t, src, "jsonodm.Assign(&obj.(*User).secret, value)")
	assert.NotContains(t, src, "return obj.(*User).secret")
	assert.NotContains(t, src, "Cache")
	assert.Contains(t, src, `}, "legacy.User")`)

	fset := token.NewFileSet()
	_, err = parser.ParseFile(fset, "user_odm.go", code, 0)
	assert.NoError(t, err, "generated code must parse")
}

func TestGenerateCodeMultipleTypes(t *testing.T) {
	engine, err := NewTemplateEngine()
	require.NoError(t, err)

	tag := StructInfo{
		PackageName: "models",
		StructName:  "Tag",
		Fields:      []FieldInfo{{Name: "Label", Key: "label", Exported: true, IsValid: true}},
	}
	data := BuildTemplateData("user.go", []StructInfo{userStruct(), tag}, GenerationConfig{Registry: "Registry"})
	code, err := engine.GenerateCode(data)
	require.NoError(t, err)

	src := string(code)
	assert.Contains(t, src, "// Code generated by jsonodm-gen. DO NOT EDIT.")
	assert.Contains(t, src, "Registry.MustRegisterTypeInfo")
	assert.NotContains(t, src, "jsonodm.DefaultRegistry")
	assert.Contains(t, src, "return new(Tag)")
	assert.Contains(t, src, "return new(User)")
}

func TestGenerateCodeErrors(t *testing.T) {
	engine, err := NewTemplateEngine()
	require.NoError(t, err)

	t.Run("missing package", func(t *testing.T) {
		_, err := engine.GenerateCode(TemplateData{Types: []TemplateType{{StructName: "X"}}})
		assert.Error(t, err)
	})

	t.Run("no types", func(t *testing.T) {
		_, err := engine.GenerateCode(TemplateData{PackageName: "p", SourceFile: "x.go"})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "x.go")
	})
}
