// Command jsonodm-gen generates reflection-free type registrations for
// structs annotated with //odm:register.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	jsonodm "github.com/kenfreee/doctrine-json-odm"
	"github.com/kenfreee/doctrine-json-odm/internal/codegen"
)

// Version of the generator, written into generated file headers.
const Version = jsonodm.Version

const defaultConfigPath = "jsonodm.yaml"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	switch command {
	case "generate":
		generateCommand(os.Args[2:])
	case "validate":
		validateCommand(os.Args[2:])
	case "init":
		initCommand(os.Args[2:])
	case "version":
		versionCommand()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "\nCommands:\n")
	fmt.Fprintf(os.Stderr, "  generate  Generate type registrations for annotated structs\n")
	fmt.Fprintf(os.Stderr, "  validate  Validate configuration and odm tags\n")
	fmt.Fprintf(os.Stderr, "  init      Initialize configuration file\n")
	fmt.Fprintf(os.Stderr, "  version   Show version information\n")
	fmt.Fprintf(os.Stderr, "\nRun '%s <command> -h' for help on a specific command.\n", os.Args[0])
}

func generateCommand(args []string) {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Path to configuration file")
	outputDir := fs.String("output", "", "Override output directory")
	verbose := fs.Bool("v", false, "Verbose output")
	dryRun := fs.Bool("dry-run", false, "Show what would be generated without writing files")

	fs.Parse(args)

	packages := fs.Args()
	if len(packages) == 0 {
		packages = []string{"."}
	}

	generator := NewGenerator(*configPath, *outputDir, *verbose)
	if err := generator.Generate(packages, *dryRun); err != nil {
		fmt.Fprintf(os.Stderr, "Generation failed: %v\n", err)
		os.Exit(1)
	}
}

func validateCommand(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "Path to configuration file")
	verbose := fs.Bool("v", false, "Verbose output")

	fs.Parse(args)

	packages := fs.Args()
	if len(packages) == 0 {
		packages = []string{"."}
	}

	fmt.Printf("Validating configuration at %s...\n", *configPath)

	config, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := config.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration validation failed: %v\n", err)
		os.Exit(1)
	}
	if *verbose {
		fmt.Println("✓ Configuration file is valid")
	}

	if !validatePackages(os.Stdout, config, packages, *verbose) {
		fmt.Fprintf(os.Stderr, "\nValidation failed with errors.\n")
		os.Exit(1)
	}
	fmt.Println("\n✓ All validations passed!")
}

// validatePackages reports the odm tag problems of every package and returns
// false when any was found.
func validatePackages(w io.Writer, config *Config, packages []string, verbose bool) bool {
	ok := true
	for _, pkg := range packages {
		if verbose {
			fmt.Fprintf(w, "Validating package: %s\n", pkg)
		}

		structs, err := codegen.DiscoverStructs(pkg, &codegen.DiscoveryConfig{
			SkipFiles: config.Packages[pkg].SkipFiles,
		})
		if err != nil {
			fmt.Fprintf(w, "Failed to discover structs in %s: %v\n", pkg, err)
			ok = false
			continue
		}
		if len(structs) == 0 {
			if verbose {
				fmt.Fprintf(w, "  No registered structs found in %s\n", pkg)
			}
			continue
		}

		fmt.Fprintf(w, "Found %d registered structs in %s:\n", len(structs), pkg)
		for _, s := range structs {
			fmt.Fprintf(w, "  %s (%s)\n", s.StructName, s.SourceFile)
			if s.IsGeneric {
				fmt.Fprintf(w, "    ✗ %s: generic types cannot be registered\n", s.StructName)
			}
			for _, field := range s.Fields {
				for _, msg := range field.ValidationErrors {
					fmt.Fprintf(w, "    ✗ %s.%s: %s\n", s.StructName, field.Name, msg)
				}
				if field.IsValid && verbose && !field.Skip {
					fmt.Fprintf(w, "    ✓ %s.%s -> %q\n", s.StructName, field.Name, field.Key)
				}
			}
			if s.IsValid() {
				fmt.Fprintf(w, "    ✓ All fields valid\n")
			} else {
				ok = false
			}
		}
	}
	return ok
}

func initCommand(args []string) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	force := fs.Bool("force", false, "Overwrite existing configuration file")

	fs.Parse(args)

	configPath := defaultConfigPath
	if !*force {
		if _, err := os.Stat(configPath); err == nil {
			fmt.Fprintf(os.Stderr, "Configuration file %s already exists. Use -force to overwrite.\n", configPath)
			os.Exit(1)
		}
	}

	fmt.Printf("Creating configuration file at %s...\n", configPath)
	if err := SaveConfig(DefaultConfig(), configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create config file: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Configuration file created!")
}

func versionCommand() {
	fmt.Printf("jsonodm-gen version %s (%s)\n", Version, jsonodm.VersionInfo())
	fmt.Println("Code generator for jsonodm type registrations")
	fmt.Println("")
	fmt.Println("Features:")
	fmt.Println("  - AST-based struct discovery (//odm:register)")
	fmt.Println("  - odm tag validation")
	fmt.Println("  - Reflection-free field accessors")
}
