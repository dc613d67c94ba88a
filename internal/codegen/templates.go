package codegen

import (
	"bytes"
	"fmt"
	"go/format"
	"strconv"
	"text/template"
)

// DefaultImportPath is the import path of the runtime package referenced by
// generated code.
const DefaultImportPath = "github.com/kenfreee/doctrine-json-odm"

// GenerationConfig holds the settings shared by every generated file
type GenerationConfig struct {
	OutputSuffix     string
	Registry         string
	ImportPath       string
	GeneratorVersion string
}

// TemplateData is the input of the file template: every registered struct of
// one source file.
type TemplateData struct {
	PackageName      string
	SourceFile       string
	GeneratorVersion string
	ImportPath       string
	Registry         string
	Types            []TemplateType
}

// TemplateType describes one struct registration
type TemplateType struct {
	StructName string
	Aliases    []string
	Fields     []TemplateField
}

// TemplateField describes the accessors of one field
type TemplateField struct {
	Name     string
	Key      string
	Readable bool
}

// BuildTemplateData groups the structs of one source file into template data.
// Skipped fields are left out.
func BuildTemplateData(sourceFile string, structs []StructInfo, config GenerationConfig) TemplateData {
	data := TemplateData{
		SourceFile:       sourceFile,
		GeneratorVersion: config.GeneratorVersion,
		ImportPath:       config.ImportPath,
		Registry:         config.Registry,
	}
	if data.ImportPath == "" {
		data.ImportPath = DefaultImportPath
	}
	if data.Registry == "" {
		data.Registry = "jsonodm.DefaultRegistry"
	}

	for _, s := range structs {
		data.PackageName = s.PackageName
		tt := TemplateType{StructName: s.StructName, Aliases: s.Aliases}
		for _, f := range s.Fields {
			if f.Skip {
				continue
			}
			tt.Fields = append(tt.Fields, TemplateField{
				Name:     f.Name,
				Key:      f.Key,
				Readable: f.Exported,
			})
		}
		data.Types = append(data.Types, tt)
	}
	return data
}

const fileTemplate = `// Code generated by jsonodm-gen{{if .GeneratorVersion}} {{.GeneratorVersion}}{{end}}. DO NOT EDIT.
// Source: {{.SourceFile}}

package {{.PackageName}}

import (
	jsonodm "{{.ImportPath}}"
)

func init() {
{{- range .Types}}
{{- $struct := .StructName}}
	{{$.Registry}}.MustRegisterTypeInfo(jsonodm.TypeInfo{
		Name: jsonodm.TypeNameOf({{$struct}}{}),
		New:  func() any { return new({{$struct}}) },
		Fields: []jsonodm.Field{
		{{- range .Fields}}
			{
				Key:      {{quote .Key}},
				Readable: {{.Readable}},
				{{- if .Readable}}
				Get: func(obj any) any { return obj.(*{{$struct}}).{{.Name}} },
				{{- end}}
				Set: func(obj any, value any) error { return jsonodm.Assign(&obj.(*{{$struct}}).{{.Name}}, value) },
			},
		{{- end}}
		},
	}{{range .Aliases}}, {{quote .}}{{end}})
{{- end}}
}
`

// TemplateEngine renders registration code
type TemplateEngine struct {
	tmpl *template.Template
}

// NewTemplateEngine parses the file template
func NewTemplateEngine() (*TemplateEngine, error) {
	tmpl, err := template.New("odm").Funcs(template.FuncMap{
		"quote": strconv.Quote,
	}).Parse(fileTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	return &TemplateEngine{tmpl: tmpl}, nil
}

// GenerateCode renders data and formats the result with gofmt rules
func (e *TemplateEngine) GenerateCode(data TemplateData) ([]byte, error) {
	if data.PackageName == "" {
		return nil, fmt.Errorf("package name is required")
	}
	if len(data.Types) == 0 {
		return nil, fmt.Errorf("no types to register in %s", data.SourceFile)
	}

	var buf bytes.Buffer
	if err := e.tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}
	code, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to format generated code: %w\n%s", err, buf.String())
	}
	return code, nil
}
