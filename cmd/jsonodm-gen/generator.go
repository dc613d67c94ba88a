package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kenfreee/doctrine-json-odm/internal/codegen"
)

// Generator handles the code generation process
type Generator struct {
	config    *Config
	outputDir string
	verbose   bool
	out       io.Writer
}

// NewGenerator creates a new Generator instance. A missing or invalid
// configuration file falls back to the defaults.
func NewGenerator(configPath, outputDir string, verbose bool) *Generator {
	config, err := LoadConfig(configPath)
	if err != nil {
		if verbose {
			fmt.Fprintf(os.Stderr, "Using default config: %v\n", err)
		}
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Config validation failed: %v\n", err)
		config = DefaultConfig()
	}

	return &Generator{
		config:    config,
		outputDir: outputDir,
		verbose:   verbose,
		out:       os.Stdout,
	}
}

// Generate writes one registration file per source file holding annotated
// structs, for every package directory given.
func (g *Generator) Generate(packages []string, dryRun bool) error {
	if g.verbose {
		fmt.Fprintf(g.out, "Starting code generation for packages: %v\n", packages)
		if dryRun {
			fmt.Fprintln(g.out, "Running in dry-run mode")
		}
	}

	templateEngine, err := codegen.NewTemplateEngine()
	if err != nil {
		return fmt.Errorf("failed to create template engine: %w", err)
	}
	genConfig := g.config.Generation.ToCodegenConfig(Version)

	for _, packagePath := range packages {
		pkgConfig := g.config.Packages[packagePath]
		if pkgConfig.Skip {
			if g.verbose {
				fmt.Fprintf(g.out, "Skipping package %s (marked as skip)\n", packagePath)
			}
			continue
		}

		structs, err := codegen.DiscoverStructs(packagePath, &codegen.DiscoveryConfig{
			SkipFiles: pkgConfig.SkipFiles,
		})
		if err != nil {
			return fmt.Errorf("failed to discover structs in package %s: %w", packagePath, err)
		}
		if g.verbose {
			fmt.Fprintf(g.out, "Found %d registered structs in %s\n", len(structs), packagePath)
		}

		for _, file := range groupBySourceFile(structs) {
			for _, s := range file {
				if !s.IsValid() {
					return fmt.Errorf("struct %s in %s has invalid odm tags; run validate for details", s.StructName, s.SourceFile)
				}
			}

			source := file[0].SourceFile
			code, err := templateEngine.GenerateCode(codegen.BuildTemplateData(source, file, genConfig))
			if err != nil {
				return fmt.Errorf("failed to generate code for %s: %w", source, err)
			}

			outputFile := g.outputPath(packagePath, source)
			if dryRun {
				fmt.Fprintf(g.out, "Would generate: %s\n", outputFile)
				if g.verbose {
					fmt.Fprintf(g.out, "Generated code:\n%s\n", code)
				}
				continue
			}
			if err := os.WriteFile(outputFile, code, 0644); err != nil {
				return fmt.Errorf("failed to write generated file %s: %w", outputFile, err)
			}
			if g.verbose {
				fmt.Fprintf(g.out, "Generated: %s\n", outputFile)
			}
		}
	}

	fmt.Fprintln(g.out, "Code generation complete!")
	return nil
}

// outputPath returns <dir>/<source><suffix>.go
func (g *Generator) outputPath(packagePath, source string) string {
	dir := packagePath
	if g.outputDir != "" {
		dir = g.outputDir
	}
	name := strings.TrimSuffix(source, ".go") + g.config.Generation.OutputSuffix + ".go"
	return filepath.Join(dir, name)
}

// groupBySourceFile splits structs, sorted by file, into one group per file.
func groupBySourceFile(structs []codegen.StructInfo) [][]codegen.StructInfo {
	var groups [][]codegen.StructInfo
	for i, s := range structs {
		if i == 0 || structs[i-1].SourceFile != s.SourceFile {
			groups = append(groups, nil)
		}
		groups[len(groups)-1] = append(groups[len(groups)-1], s)
	}
	return groups
}
