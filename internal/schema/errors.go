// SPDX-License-Identifier: MIT

package schema

import (
	"fmt"
	"strings"
)

// SchemaError is a single schema violation: a missing required key, an
// unknown key, or a type mismatch. Path is the full key path, e.g.
// "model.lora.config[2].params.r".
type SchemaError struct {
	Path  string
	Msg   string
	Value any
}

func (e SchemaError) Error() string {
	return fmt.Sprintf("schema violation at %s: %s", e.Path, e.Msg)
}

// ValidationError bundles every violation found in one validation pass.
type ValidationError struct {
	errors []SchemaError
}

// Errors returns the individual violations.
func (e *ValidationError) Errors() []SchemaError {
	return e.errors
}

func (e *ValidationError) Error() string {
	if len(e.errors) == 0 {
		return ""
	}
	if len(e.errors) == 1 {
		return e.errors[0].Error()
	}
	msgs := make([]string, len(e.errors))
	for i, err := range e.errors {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}
