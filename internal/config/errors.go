// SPDX-License-Identifier: MIT

package config

import (
	"errors"

	"github.com/confplane/expconf/internal/document"
	"github.com/confplane/expconf/internal/schema"
)

// ErrorKind classifies a load error for metrics and API responses:
// "parse", "reference", "schema" or "io".
func ErrorKind(err error) string {
	var refErr *document.ReferenceError
	if errors.As(err, &refErr) {
		return "reference"
	}
	var parseErr *document.ParseError
	if errors.As(err, &parseErr) {
		return "parse"
	}
	var valErr *schema.ValidationError
	if errors.As(err, &valErr) {
		return "schema"
	}
	return "io"
}
