// SPDX-License-Identifier: MIT

package document

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// maxExpandedNodes bounds the total number of values produced by alias
// expansion so a small document cannot balloon into an enormous tree.
const maxExpandedNodes = 1 << 20

// resolver converts a parsed yaml.Node tree into plain Go values
// (map[string]any, []any, scalars), expanding every alias into an
// independent copy of its anchor's value.
type resolver struct {
	// expanding tracks anchor nodes currently being expanded, to reject
	// cyclic aliases such as "&a [*a]".
	expanding map[*yaml.Node]struct{}
	produced  int
}

func newResolver() *resolver {
	return &resolver{expanding: make(map[*yaml.Node]struct{})}
}

func (r *resolver) value(n *yaml.Node, path string) (any, error) {
	r.produced++
	if r.produced > maxExpandedNodes {
		return nil, &ParseError{Path: path, Line: n.Line, Msg: "alias expansion exceeds node budget"}
	}

	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return r.value(n.Content[0], path)

	case yaml.AliasNode:
		target := n.Alias
		if target == nil {
			// The composer normally rejects dangling aliases before we
			// get here; kept as a second line of defense.
			return nil, &ReferenceError{Anchor: n.Value, Line: n.Line}
		}
		if _, busy := r.expanding[target]; busy {
			return nil, &ParseError{Path: path, Line: n.Line, Msg: fmt.Sprintf("cyclic alias *%s", n.Value)}
		}
		r.expanding[target] = struct{}{}
		v, err := r.value(target, path)
		delete(r.expanding, target)
		return v, err

	case yaml.MappingNode:
		return r.mapping(n, path)

	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for i, elem := range n.Content {
			v, err := r.value(elem, IndexPath(path, i))
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil

	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, &ParseError{Path: path, Line: n.Line, Column: n.Column, Msg: err.Error(), Err: err}
		}
		return v, nil

	default:
		return nil, &ParseError{Path: path, Line: n.Line, Msg: fmt.Sprintf("unsupported node kind %d", n.Kind)}
	}
}

func (r *resolver) mapping(n *yaml.Node, path string) (map[string]any, error) {
	out := make(map[string]any, len(n.Content)/2)
	for i := 0; i < len(n.Content)-1; i += 2 {
		keyNode := n.Content[i]
		key, err := r.mappingKey(keyNode, path)
		if err != nil {
			return nil, err
		}
		childPath := JoinPath(path, key)
		if _, dup := out[key]; dup {
			return nil, &ParseError{Path: childPath, Line: keyNode.Line, Msg: fmt.Sprintf("duplicate key %q", key)}
		}
		v, err := r.value(n.Content[i+1], childPath)
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
	return out, nil
}

// mappingKey returns the string form of a mapping key. Keys must be
// scalars; an alias key is followed if it anchors a scalar.
func (r *resolver) mappingKey(n *yaml.Node, path string) (string, error) {
	if n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	if n.Kind != yaml.ScalarNode {
		return "", &ParseError{Path: path, Line: n.Line, Msg: "mapping key must be a scalar"}
	}
	return n.Value, nil
}
