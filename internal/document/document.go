// SPDX-License-Identifier: MIT

package document

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Document is a fully-resolved configuration document. The tree is private
// and never mutated after construction; accessors hand out deep copies of
// composite values so callers cannot reach back into the original.
type Document struct {
	root map[string]any
}

// Parse parses YAML bytes and resolves all anchors and aliases.
// The root of the document must be a mapping (or empty).
func Parse(data []byte) (*Document, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, classifyYAMLError(err)
	}
	if len(node.Content) == 0 {
		return &Document{root: map[string]any{}}, nil
	}
	root := node.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, &ParseError{Line: root.Line, Msg: "top-level value must be a mapping"}
	}
	m, err := newResolver().mapping(root, "")
	if err != nil {
		return nil, err
	}
	return &Document{root: m}, nil
}

// Load reads all of r and parses the result.
func Load(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return Parse(data)
}

// New builds a Document from an already-resolved value tree. The tree is
// deep-copied so later mutation of the input cannot leak in.
func New(root map[string]any) *Document {
	return &Document{root: deepCopyRoot(root)}
}

// Root returns a deep copy of the whole resolved tree.
func (d *Document) Root() map[string]any {
	return deepCopyRoot(d.root)
}

// Get looks up a dotted key path such as "model.lora.config[2].params.r".
// Composite values are returned as deep copies.
func (d *Document) Get(path string) (any, bool) {
	steps, err := splitPath(path)
	if err != nil {
		return nil, false
	}
	var cur any = d.root
	for _, step := range steps {
		switch s := step.(type) {
		case string:
			m, ok := cur.(map[string]any)
			if !ok {
				return nil, false
			}
			cur, ok = m[s]
			if !ok {
				return nil, false
			}
		case int:
			seq, ok := cur.([]any)
			if !ok || s < 0 || s >= len(seq) {
				return nil, false
			}
			cur = seq[s]
		}
	}
	return deepCopy(cur), true
}

// Has reports whether a key path is present.
func (d *Document) Has(path string) bool {
	_, ok := d.Get(path)
	return ok
}

// StringAt returns the string value at path, or def when absent.
func (d *Document) StringAt(path, def string) string {
	if v, ok := d.Get(path); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// IntAt returns the integer value at path, or def when absent.
func (d *Document) IntAt(path string, def int) int {
	if v, ok := d.Get(path); ok {
		switch n := v.(type) {
		case int:
			return n
		case int64:
			return int(n)
		case uint64:
			return int(n)
		}
	}
	return def
}

// FloatAt returns the numeric value at path, or def when absent.
// Integer scalars are widened to float64.
func (d *Document) FloatAt(path string, def float64) float64 {
	if v, ok := d.Get(path); ok {
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		case int64:
			return float64(n)
		case uint64:
			return float64(n)
		}
	}
	return def
}

// BoolAt returns the boolean value at path, or def when absent.
func (d *Document) BoolAt(path string, def bool) bool {
	if v, ok := d.Get(path); ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Section returns the mapping at path as a deep copy, or nil when the path
// is absent or not a mapping.
func (d *Document) Section(path string) map[string]any {
	v, ok := d.Get(path)
	if !ok {
		return nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return m
}

// Encode writes the resolved document as YAML with all aliases expanded.
// Mapping keys are emitted in sorted order, so output is deterministic.
func (d *Document) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(d.root); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return enc.Close()
}

// Bytes returns the canonical YAML encoding of the resolved document.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Fingerprint returns the hex SHA-256 of the canonical encoding. Two
// documents that resolve to the same tree share a fingerprint regardless of
// anchor layout in the source.
func (d *Document) Fingerprint() (string, error) {
	data, err := d.Bytes()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
