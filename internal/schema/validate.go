// SPDX-License-Identifier: MIT

package schema

import (
	"fmt"
	"sort"

	"github.com/confplane/expconf/internal/document"
)

// validator accumulates schema violations during a tree walk so a single
// pass reports every problem at once.
type validator struct {
	mode   Mode
	errors []SchemaError
}

func (v *validator) add(path, msg string, value any) {
	v.errors = append(v.errors, SchemaError{Path: path, Msg: msg, Value: value})
}

// Err converts accumulated violations into a ValidationError, or nil.
func (v *validator) Err() error {
	if len(v.errors) == 0 {
		return nil
	}
	copied := make([]SchemaError, len(v.errors))
	copy(copied, v.errors)
	return &ValidationError{errors: copied}
}

func (v *validator) value(path string, val any, spec *FieldSpec) {
	if spec == nil || spec.Kind == Any {
		return
	}
	if val == nil {
		v.add(path, fmt.Sprintf("expected %s, got null", spec.Kind), nil)
		return
	}

	switch spec.Kind {
	case String:
		if _, ok := val.(string); !ok {
			v.mismatch(path, spec, val)
		}
	case Bool:
		if _, ok := val.(bool); !ok {
			v.mismatch(path, spec, val)
		}
	case Int:
		if !isInt(val) {
			v.mismatch(path, spec, val)
		}
	case Float:
		if !isInt(val) {
			if _, ok := val.(float64); !ok {
				v.mismatch(path, spec, val)
			}
		}
	case Mapping:
		m, ok := val.(map[string]any)
		if !ok {
			v.mismatch(path, spec, val)
			return
		}
		v.mapping(path, m, spec)
	case Sequence:
		seq, ok := val.([]any)
		if !ok {
			v.mismatch(path, spec, val)
			return
		}
		for i, elem := range seq {
			v.value(document.IndexPath(path, i), elem, spec.Elem)
		}
	}
}

// mapping checks declared keys, fills defaults for absent ones and, in
// strict mode, rejects undeclared keys of closed mappings.
func (v *validator) mapping(path string, m map[string]any, spec *FieldSpec) {
	for _, key := range sortedKeys(spec.Keys) {
		child := spec.Keys[key]
		childPath := document.JoinPath(path, key)
		val, present := m[key]
		if !present {
			switch {
			case child.Required:
				v.add(childPath, "missing required key", nil)
			case child.Default != nil:
				m[key] = child.Default
			}
			continue
		}
		v.value(childPath, val, child)
	}

	if spec.Open || v.mode == Lenient {
		return
	}
	for _, key := range sortedAnyKeys(m) {
		if _, declared := spec.Keys[key]; !declared {
			v.add(document.JoinPath(path, key), "unknown key", m[key])
		}
	}
}

func (v *validator) mismatch(path string, spec *FieldSpec, val any) {
	v.add(path, fmt.Sprintf("expected %s, got %s", spec.Kind, kindOf(val)), val)
}

func isInt(val any) bool {
	switch val.(type) {
	case int, int64, uint64:
		return true
	}
	return false
}

func kindOf(val any) string {
	switch val.(type) {
	case string:
		return "string"
	case bool:
		return "bool"
	case int, int64, uint64:
		return "int"
	case float64:
		return "float"
	case map[string]any:
		return "mapping"
	case []any:
		return "sequence"
	case nil:
		return "null"
	}
	return fmt.Sprintf("%T", val)
}

func sortedKeys(m map[string]*FieldSpec) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedAnyKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
