// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confplane/expconf/internal/document"
	"github.com/confplane/expconf/internal/schema"
)

func testSchema() *schema.Schema {
	return schema.New(map[string]*schema.FieldSpec{
		"dataset": {
			Kind:     schema.Mapping,
			Required: true,
			Open:     true,
			Keys: map[string]*schema.FieldSpec{
				"name":     {Kind: schema.String, Required: true},
				"category": {Kind: schema.String, Required: true},
			},
		},
		"model": {
			Kind:     schema.Mapping,
			Required: true,
			Open:     true,
		},
		"optim":     {Kind: schema.Mapping, Open: true},
		"scheduler": {Kind: schema.Mapping, Open: true},
	})
}

func TestLoader_Load_Valid(t *testing.T) {
	loader := NewLoader(filepath.Join("testdata", "valid.yaml"), testSchema(), schema.Strict)
	doc, err := loader.Load()
	require.NoError(t, err)

	assert.Equal(t, "imagenet", doc.StringAt("dataset.name", ""))
	// Anchored weight decay is copied into the scheduler section.
	assert.InDelta(t, 1.0e-4, doc.FloatAt("scheduler.weight_decay", 0), 1e-12)
}

func TestLoader_Load_DanglingReference(t *testing.T) {
	loader := NewLoader(filepath.Join("testdata", "dangling-reference.yaml"), testSchema(), schema.Strict)
	_, err := loader.Load()
	require.Error(t, err)

	var refErr *document.ReferenceError
	require.True(t, errors.As(err, &refErr), "want ReferenceError, got %v", err)
	assert.Equal(t, "wd", refErr.Anchor)
	assert.Equal(t, "reference", ErrorKind(err))
}

func TestLoader_Load_UnsupportedExtension(t *testing.T) {
	loader := NewLoader(filepath.Join("testdata", "config.json"), testSchema(), schema.Strict)
	_, err := loader.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported config format")
}

func TestLoader_Load_MissingFile(t *testing.T) {
	loader := NewLoader(filepath.Join(t.TempDir(), "nope.yaml"), testSchema(), schema.Strict)
	_, err := loader.Load()
	require.Error(t, err)
	assert.Equal(t, "io", ErrorKind(err))
}

func TestResolve_SchemaViolation(t *testing.T) {
	_, err := Resolve([]byte("model:\n  name: x\n"), testSchema(), schema.Strict)
	require.Error(t, err)

	var verr *schema.ValidationError
	require.True(t, errors.As(err, &verr), "want ValidationError, got %v", err)
	assert.Equal(t, "schema", ErrorKind(err))
}

func TestResolve_NilSchemaSkipsValidation(t *testing.T) {
	doc, err := Resolve([]byte("anything:\n  goes: true\n"), nil, schema.Strict)
	require.NoError(t, err)
	assert.True(t, doc.BoolAt("anything.goes", false))
}

func TestErrorKind_Parse(t *testing.T) {
	_, err := Resolve([]byte("a:\n  b: 1\n  b: 2\n"), nil, schema.Strict)
	require.Error(t, err)
	assert.Equal(t, "parse", ErrorKind(err))
}

func TestDiff(t *testing.T) {
	old, err := document.Parse([]byte(`
optim:
  name: sgd
  weight_decay: 1.0e-4
ema:
  enable: true
stats:
  val: [loss, top1]
`))
	require.NoError(t, err)
	next, err := document.Parse([]byte(`
optim:
  name: adamw
  weight_decay: 1.0e-4
scheduler:
  max_epochs: 10
stats:
  val: [loss, top1, top5]
`))
	require.NoError(t, err)

	assert.Equal(t, []string{"ema", "optim.name", "scheduler", "stats.val"}, Diff(old, next))
	assert.Empty(t, Diff(old, old))
}
