// SPDX-License-Identifier: MIT

package document

import (
	"fmt"
	"regexp"
	"strconv"
)

// ParseError reports a structurally malformed document: invalid YAML,
// a non-mapping root, a duplicate key, a cyclic alias.
type ParseError struct {
	Path   string // key path of the offending node, when known
	Line   int
	Column int
	Msg    string
	Err    error
}

func (e *ParseError) Error() string {
	switch {
	case e.Path != "" && e.Line > 0:
		return fmt.Sprintf("parse error at %s (line %d): %s", e.Path, e.Line, e.Msg)
	case e.Path != "":
		return fmt.Sprintf("parse error at %s: %s", e.Path, e.Msg)
	case e.Line > 0:
		return fmt.Sprintf("parse error at line %d: %s", e.Line, e.Msg)
	default:
		return fmt.Sprintf("parse error: %s", e.Msg)
	}
}

func (e *ParseError) Unwrap() error { return e.Err }

// ReferenceError reports an alias that names an anchor which was never
// declared before the use site.
type ReferenceError struct {
	Anchor string
	Line   int
}

func (e *ReferenceError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("reference error: unknown anchor %q (line %d)", e.Anchor, e.Line)
	}
	return fmt.Sprintf("reference error: unknown anchor %q", e.Anchor)
}

// yaml.v3 composes alias targets during parsing, so a dangling alias
// surfaces as a parser error before we ever see the node tree. The message
// is stable enough to classify; same approach the strict loader takes for
// unknown-field errors.
var unknownAnchorRe = regexp.MustCompile(`(?:line (\d+): )?unknown anchor '([^']+)' referenced`)

func classifyYAMLError(err error) error {
	if err == nil {
		return nil
	}
	if m := unknownAnchorRe.FindStringSubmatch(err.Error()); m != nil {
		line, _ := strconv.Atoi(m[1])
		return &ReferenceError{Anchor: m[2], Line: line}
	}
	return &ParseError{Msg: err.Error(), Err: err}
}
