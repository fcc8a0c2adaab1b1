// SPDX-License-Identifier: MIT

// Package schema validates resolved configuration documents against a
// recognized-keys schema and fills in documented defaults. Silent typos in
// experiment configs waste whole training runs, so strict mode (undeclared
// keys are rejected) is the default; lenient mode passes them through.
package schema

import (
	"github.com/confplane/expconf/internal/document"
)

// Kind is the expected type of a configuration value.
type Kind int

const (
	Any Kind = iota
	String
	Int
	Float // accepts integer scalars and widens them
	Bool
	Mapping
	Sequence
)

func (k Kind) String() string {
	switch k {
	case Any:
		return "any"
	case String:
		return "string"
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case Mapping:
		return "mapping"
	case Sequence:
		return "sequence"
	}
	return "unknown"
}

// Mode selects how undeclared keys are treated.
type Mode int

const (
	// Strict rejects keys that the schema does not declare, unless the
	// enclosing mapping is marked Open.
	Strict Mode = iota
	// Lenient passes undeclared keys through unchanged.
	Lenient
)

// FieldSpec describes one expected value in the document tree.
type FieldSpec struct {
	Kind     Kind
	Required bool
	// Default is inserted when the key is absent. Only meaningful for
	// scalar kinds; it never overrides a present value.
	Default any
	// Keys declares the recognized children of a Mapping.
	Keys map[string]*FieldSpec
	// Open marks a Mapping as accepting undeclared keys even in strict
	// mode. Sections whose key set is framework-defined use this.
	Open bool
	// Elem describes each element of a Sequence.
	Elem *FieldSpec
}

// Schema is a recognized-keys schema for a whole document.
type Schema struct {
	Root *FieldSpec
}

// New builds a schema from the root mapping's declared keys.
func New(keys map[string]*FieldSpec) *Schema {
	return &Schema{Root: &FieldSpec{Kind: Mapping, Keys: keys}}
}

// Apply validates doc against the schema and returns a new document with
// documented defaults filled in for absent keys. Validation is
// all-or-nothing: on any violation the original document is discarded and
// a ValidationError listing every violation is returned.
func (s *Schema) Apply(doc *document.Document, mode Mode) (*document.Document, error) {
	root := doc.Root()
	v := &validator{mode: mode}
	v.mapping("", root, s.Root)
	if err := v.Err(); err != nil {
		return nil, err
	}
	return document.New(root), nil
}
