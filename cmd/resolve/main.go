// SPDX-License-Identifier: MIT

// resolve expands all anchors and references in an experiment YAML file,
// applies the schema and writes the fully resolved document.
//
// Usage:
//
//	resolve -f experiment.yaml                    # resolved YAML to stdout
//	resolve -f experiment.yaml -o resolved.yaml   # atomic write to file
//	resolve -f experiment.yaml --format json
//
// Exit codes:
//   - 0: Resolved successfully
//   - 1: Configuration is invalid or output could not be written
//   - 2: Usage error
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/renameio/v2"

	"github.com/confplane/expconf/internal/config"
	"github.com/confplane/expconf/internal/document"
	"github.com/confplane/expconf/internal/experiment"
	"github.com/confplane/expconf/internal/schema"
)

var Version = "dev"

func main() {
	var file, out, format string
	var lenient bool
	var showVersion bool

	flag.StringVar(&file, "file", "", "path to YAML configuration file")
	flag.StringVar(&file, "f", "", "path to YAML configuration file (shorthand)")
	flag.StringVar(&out, "o", "", "output path (default: stdout)")
	flag.StringVar(&format, "format", "yaml", "output format: yaml or json")
	flag.BoolVar(&lenient, "lenient", false, "allow unknown configuration sections")
	flag.BoolVar(&showVersion, "version", false, "print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Println(Version)
		os.Exit(0)
	}

	if file == "" {
		fmt.Fprintln(os.Stderr, "Error: --file is required")
		os.Exit(2)
	}
	if format != "yaml" && format != "json" {
		fmt.Fprintf(os.Stderr, "Error: unsupported format %q (want yaml or json)\n", format)
		os.Exit(2)
	}

	mode := schema.Strict
	if lenient {
		mode = schema.Lenient
	}

	loader := config.NewLoader(file, experiment.Schema(), mode)
	doc, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error in %s:\n  %v\n", file, err)
		os.Exit(1)
	}

	data, err := encode(doc, format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: encode resolved config: %v\n", err)
		os.Exit(1)
	}

	if out == "" {
		_, _ = os.Stdout.Write(data)
		return
	}
	// Atomic write: the output never exists half-written, even if a
	// training job reads it concurrently.
	if err := renameio.WriteFile(out, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error: write %s: %v\n", out, err)
		os.Exit(1)
	}
}

func encode(doc *document.Document, format string) ([]byte, error) {
	if format == "json" {
		return json.MarshalIndent(doc.Root(), "", "  ")
	}
	return doc.Bytes()
}
