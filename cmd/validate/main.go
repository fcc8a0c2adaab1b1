// SPDX-License-Identifier: MIT

// validate is a CLI tool to validate experiment YAML configuration files.
//
// Usage:
//
//	validate -f experiment.yaml
//	validate --file experiment.yaml --lenient
//
// Exit codes:
//   - 0: Configuration is valid
//   - 1: Configuration is invalid (parse, reference or schema error)
//   - 2: Usage error (missing required flag)
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/confplane/expconf/internal/config"
	"github.com/confplane/expconf/internal/experiment"
	"github.com/confplane/expconf/internal/schema"
)

var Version = "dev"

func main() {
	var file string
	var lenient bool
	var showVersion bool

	flag.StringVar(&file, "file", "", "path to YAML configuration file")
	flag.StringVar(&file, "f", "", "path to YAML configuration file (shorthand)")
	flag.BoolVar(&lenient, "lenient", false, "allow unknown configuration sections")
	flag.BoolVar(&showVersion, "version", false, "print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Println(Version)
		os.Exit(0)
	}

	if file == "" {
		fmt.Fprintln(os.Stderr, "Error: --file is required")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Usage:")
		fmt.Fprintln(os.Stderr, "  validate -f experiment.yaml")
		fmt.Fprintln(os.Stderr, "  validate --file experiment.yaml --lenient")
		os.Exit(2)
	}

	mode := schema.Strict
	if lenient {
		mode = schema.Lenient
	}

	loader := config.NewLoader(file, experiment.Schema(), mode)
	if _, err := loader.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error in %s:\n", file)
		printErr(err)
		os.Exit(1)
	}

	fmt.Printf("✓ %s is valid\n", file)
}

// printErr lists schema violations one per line so CI logs stay readable.
func printErr(err error) {
	var verr *schema.ValidationError
	if errors.As(err, &verr) {
		for _, e := range verr.Errors() {
			fmt.Fprintf(os.Stderr, "  %s\n", e.Error())
		}
		return
	}
	fmt.Fprintf(os.Stderr, "  %v\n", err)
}
