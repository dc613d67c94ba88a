package codegen

import (
	"go/ast"
	"go/parser"
	"go/token"
	"path/filepath"
	"reflect"
	"slices"
	"strings"

	"github.com/kenfreee/doctrine-json-odm/internal/fields"
)

// RegisterDirective marks a struct for registration. Words following it on
// the same comment line are registered as aliases.
const RegisterDirective = "//odm:register"

// StructInfo contains information about a struct annotated for registration
type StructInfo struct {
	PackageName string
	StructName  string
	SourceFile  string
	Aliases     []string
	Fields      []FieldInfo
	IsGeneric   bool
}

// FieldInfo contains information about one field of a registered struct
type FieldInfo struct {
	Name             string
	Type             string
	Key              string
	Exported         bool
	Skip             bool
	IsValid          bool
	ValidationErrors []string
}

// IsValid reports whether every field of the struct passed validation.
func (s StructInfo) IsValid() bool {
	if s.IsGeneric {
		return false
	}
	for _, f := range s.Fields {
		if !f.IsValid {
			return false
		}
	}
	return true
}

// DiscoveryConfig holds configuration for struct discovery
type DiscoveryConfig struct {
	SkipFiles []string
}

// DiscoverStructs discovers annotated structs in the given package directory.
// Test files and files listed in config.SkipFiles are ignored.
func DiscoverStructs(packagePath string, config *DiscoveryConfig) ([]StructInfo, error) {
	if config == nil {
		config = &DiscoveryConfig{}
	}
	var structs []StructInfo

	fset := token.NewFileSet()
	pkgs, err := parser.ParseDir(fset, packagePath, nil, parser.ParseComments)
	if err != nil {
		return nil, err
	}

	for pkgName, pkg := range pkgs {
		if strings.HasSuffix(pkgName, "_test") {
			continue
		}
		for fileName, file := range pkg.Files {
			base := filepath.Base(fileName)
			if strings.HasSuffix(base, "_test.go") || slices.Contains(config.SkipFiles, base) {
				continue
			}
			structs = append(structs, discoverStructsInFile(base, file, pkgName)...)
		}
	}

	slices.SortFunc(structs, func(a, b StructInfo) int {
		if c := strings.Compare(a.SourceFile, b.SourceFile); c != 0 {
			return c
		}
		return strings.Compare(a.StructName, b.StructName)
	})
	return structs, nil
}

// discoverStructsInFile discovers annotated structs in a single file
func discoverStructsInFile(fileName string, file *ast.File, pkgName string) []StructInfo {
	var structs []StructInfo

	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.TYPE {
			continue
		}
		for _, spec := range gen.Specs {
			ts := spec.(*ast.TypeSpec)
			st, ok := ts.Type.(*ast.StructType)
			if !ok {
				continue
			}
			// A lone type declaration keeps its comment on the GenDecl.
			doc := ts.Doc
			if doc == nil && len(gen.Specs) == 1 {
				doc = gen.Doc
			}
			aliases, ok := registerDirective(doc)
			if !ok {
				continue
			}

			info := analyzeStruct(fileName, pkgName, ts.Name.Name, st)
			info.Aliases = aliases
			info.IsGeneric = ts.TypeParams != nil && len(ts.TypeParams.List) > 0
			NewTagValidator().ValidateStruct(&info)
			structs = append(structs, info)
		}
	}
	return structs
}

// registerDirective reports whether doc carries the register directive and
// returns its aliases.
func registerDirective(doc *ast.CommentGroup) ([]string, bool) {
	if doc == nil {
		return nil, false
	}
	for _, c := range doc.List {
		rest, ok := strings.CutPrefix(c.Text, RegisterDirective)
		if !ok {
			continue
		}
		if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
			continue
		}
		aliases := strings.Fields(rest)
		if len(aliases) == 0 {
			return nil, true
		}
		return aliases, true
	}
	return nil, false
}

// analyzeStruct reads the fields of a struct type
func analyzeStruct(fileName, pkgName, structName string, structType *ast.StructType) StructInfo {
	info := StructInfo{
		PackageName: pkgName,
		StructName:  structName,
		SourceFile:  fileName,
		Fields:      []FieldInfo{},
	}

	for _, field := range structType.Fields.List {
		var tag string
		if field.Tag != nil {
			tag = strings.Trim(field.Tag.Value, "`")
		}
		names := field.Names
		if len(names) == 0 {
			// Embedded fields are named after their type.
			names = []*ast.Ident{ast.NewIdent(embeddedName(field.Type))}
		}
		for _, name := range names {
			if name.Name == "_" {
				continue
			}
			info.Fields = append(info.Fields, analyzeField(name.Name, getTypeString(field.Type), tag))
		}
	}

	return info
}

// analyzeField derives the data key of a field from its odm tag
func analyzeField(fieldName, typeName, tag string) FieldInfo {
	info := FieldInfo{
		Name:             fieldName,
		Type:             typeName,
		Key:              fieldName,
		Exported:         ast.IsExported(fieldName),
		IsValid:          true,
		ValidationErrors: []string{},
	}
	if value, ok := reflect.StructTag(tag).Lookup(fields.TagName); ok {
		name, _, _ := strings.Cut(value, ",")
		switch name {
		case "-":
			info.Skip = true
		case "":
		default:
			info.Key = name
		}
	}
	return info
}

// embeddedName returns the field name of an embedded type expression
func embeddedName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return embeddedName(t.X)
	case *ast.SelectorExpr:
		return t.Sel.Name
	case *ast.IndexExpr:
		return embeddedName(t.X)
	case *ast.IndexListExpr:
		return embeddedName(t.X)
	default:
		return "_"
	}
}

// getTypeString converts an ast.Expr to its string representation
func getTypeString(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.ArrayType:
		if t.Len == nil {
			return "[]" + getTypeString(t.Elt)
		}
		if lit, ok := t.Len.(*ast.BasicLit); ok {
			return "[" + lit.Value + "]" + getTypeString(t.Elt)
		}
		return "[...]" + getTypeString(t.Elt)
	case *ast.StarExpr:
		return "*" + getTypeString(t.X)
	case *ast.SelectorExpr:
		return getTypeString(t.X) + "." + t.Sel.Name
	case *ast.MapType:
		return "map[" + getTypeString(t.Key) + "]" + getTypeString(t.Value)
	case *ast.InterfaceType:
		if t.Methods == nil || len(t.Methods.List) == 0 {
			return "interface{}"
		}
		return "interface{...}"
	case *ast.IndexExpr:
		return getTypeString(t.X) + "[" + getTypeString(t.Index) + "]"
	case *ast.ChanType:
		return "chan " + getTypeString(t.Value)
	case *ast.FuncType:
		return "func(...)"
	default:
		return "unknown"
	}
}
