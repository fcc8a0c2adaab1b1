// SPDX-License-Identifier: MIT

// Package config loads experiment configuration files: it reads a YAML
// document, resolves anchors and aliases, validates against a schema and
// hands the frozen result to consumers. It also provides hot reloading of
// a watched file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/confplane/expconf/internal/document"
	"github.com/confplane/expconf/internal/metrics"
	"github.com/confplane/expconf/internal/schema"
)

// Loader loads and validates one configuration file. Each Load call is
// independent; the loader keeps no state between calls, so a single Loader
// is safe to share.
type Loader struct {
	path   string
	schema *schema.Schema
	mode   schema.Mode
}

// NewLoader creates a loader for the given file, schema and validation mode.
func NewLoader(path string, s *schema.Schema, mode schema.Mode) *Loader {
	return &Loader{path: path, schema: s, mode: mode}
}

// Path returns the configured file path.
func (l *Loader) Path() string { return l.path }

// Load reads, resolves and validates the configuration file.
// Resolution is all-or-nothing: any error leaves no partial result.
func (l *Loader) Load() (*document.Document, error) {
	start := time.Now()
	doc, err := l.load()
	metrics.ResolveDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LoadTotal.WithLabelValues("error").Inc()
		metrics.LoadErrorTotal.WithLabelValues(ErrorKind(err)).Inc()
		return nil, err
	}
	metrics.LoadTotal.WithLabelValues("ok").Inc()
	return doc, nil
}

func (l *Loader) load() (*document.Document, error) {
	path := filepath.Clean(l.path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return Resolve(data, l.schema, l.mode)
}

// Resolve parses raw YAML bytes, expands anchors and validates against the
// schema. It is the in-memory core of Load, shared with the HTTP surface.
func Resolve(data []byte, s *schema.Schema, mode schema.Mode) (*document.Document, error) {
	doc, err := document.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if s == nil {
		return doc, nil
	}
	out, err := s.Apply(doc, mode)
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return out, nil
}
