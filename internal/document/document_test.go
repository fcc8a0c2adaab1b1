// SPDX-License-Identifier: MIT

package document

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_NoReferences_PlainStructure(t *testing.T) {
	doc, err := Parse([]byte(`
common:
  run_label: train
  log_freq: 500
dataset:
  workers: 8
  pin_memory: true
`))
	require.NoError(t, err)

	want := map[string]any{
		"common": map[string]any{
			"run_label": "train",
			"log_freq":  500,
		},
		"dataset": map[string]any{
			"workers":    8,
			"pin_memory": true,
		},
	}
	assert.Equal(t, want, doc.Root())
}

func TestParse_AnchorReference_ScalarReuse(t *testing.T) {
	doc, err := Parse([]byte(`
defaults:
  r: &r 32
adapter:
  r: *r
`))
	require.NoError(t, err)

	assert.Equal(t, 32, doc.IntAt("defaults.r", -1))
	assert.Equal(t, 32, doc.IntAt("adapter.r", -1))
}

func TestParse_AnchorReference_DeepCopyIndependence(t *testing.T) {
	doc, err := Parse([]byte(`
base: &params
  r: 32
  lora_dropout: 0.1
first:
  params: *params
second:
  params: *params
`))
	require.NoError(t, err)

	root := doc.Root()
	first := root["first"].(map[string]any)["params"].(map[string]any)
	second := root["second"].(map[string]any)["params"].(map[string]any)
	assert.True(t, cmp.Equal(first, second))

	// Mutating one expansion must not leak into the other or the anchor.
	first["r"] = 64
	assert.Equal(t, 32, second["r"])
	assert.Equal(t, 32, doc.IntAt("base.r", -1))
	assert.Equal(t, 32, doc.IntAt("second.params.r", -1))
}

func TestParse_LoRAEntries_AllReferencesExpand(t *testing.T) {
	doc, err := Parse([]byte(`
model:
  lora:
    use_lora: true
    config:
      - regex: .*qkv_proj.*
        params:
          r: &r 32
          lora_alpha: &alpha 32
          lora_dropout: &dropout 0.1
          init_lora_weights: &ilw true
          use_rslora: &ur false
          use_dora: &ud false
      - regex: .*out_proj.*
        params:
          r: *r
          lora_alpha: *alpha
          lora_dropout: *dropout
          init_lora_weights: *ilw
          use_rslora: *ur
          use_dora: *ud
      - regex: .*proj_1.*
        params:
          r: *r
          lora_alpha: *alpha
          lora_dropout: *dropout
          init_lora_weights: *ilw
          use_rslora: *ur
          use_dora: *ud
      - regex: .*proj_2.*
        params:
          r: *r
          lora_alpha: *alpha
          lora_dropout: *dropout
          init_lora_weights: *ilw
          use_rslora: *ur
          use_dora: *ud
`))
	require.NoError(t, err)

	cfg, ok := doc.Get("model.lora.config")
	require.True(t, ok)
	entries := cfg.([]any)
	require.Len(t, entries, 4)

	for i := range entries {
		params := entries[i].(map[string]any)["params"].(map[string]any)
		assert.Equal(t, 32, params["r"], "entry %d", i)
		assert.Equal(t, 32, params["lora_alpha"], "entry %d", i)
		assert.Equal(t, 0.1, params["lora_dropout"], "entry %d", i)
		assert.Equal(t, true, params["init_lora_weights"], "entry %d", i)
		assert.Equal(t, false, params["use_rslora"], "entry %d", i)
		assert.Equal(t, false, params["use_dora"], "entry %d", i)
	}

	// Entries are independent mappings, not shared views.
	first := entries[0].(map[string]any)["params"].(map[string]any)
	first["r"] = 8
	assert.Equal(t, 32, doc.IntAt("model.lora.config[1].params.r", -1))
}

func TestParse_UndeclaredAnchor_ReferenceError(t *testing.T) {
	_, err := Parse([]byte("adapter:\n  r: *rank\n"))
	require.Error(t, err)

	var refErr *ReferenceError
	require.True(t, errors.As(err, &refErr), "want ReferenceError, got %v", err)
	assert.Equal(t, "rank", refErr.Anchor)
}

func TestParse_AnchorDeclaredAfterUse_ReferenceError(t *testing.T) {
	_, err := Parse([]byte(`
adapter:
  r: *rank
defaults:
  r: &rank 32
`))
	var refErr *ReferenceError
	require.True(t, errors.As(err, &refErr), "want ReferenceError, got %v", err)
	assert.Equal(t, "rank", refErr.Anchor)
}

func TestParse_AnchorRedeclaration_LastWins(t *testing.T) {
	doc, err := Parse([]byte(`
a: &x 1
b: *x
c: &x 2
d: *x
`))
	require.NoError(t, err)
	assert.Equal(t, 1, doc.IntAt("b", -1))
	assert.Equal(t, 2, doc.IntAt("d", -1))
}

func TestParse_DuplicateKey_ParseErrorWithPath(t *testing.T) {
	_, err := Parse([]byte(`
optim:
  lr: 0.4
  lr: 0.1
`))
	require.Error(t, err)

	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr), "want ParseError, got %v", err)
	assert.Equal(t, "optim.lr", parseErr.Path)
	assert.Contains(t, parseErr.Error(), "duplicate key")
}

func TestParse_CyclicAlias_Fails(t *testing.T) {
	_, err := Parse([]byte("a: &a\n  self: *a\n"))
	require.Error(t, err)
}

func TestParse_MalformedYAML_ParseError(t *testing.T) {
	_, err := Parse([]byte("model:\n  name: x\n badindent: y\n"))
	require.Error(t, err)

	var parseErr *ParseError
	assert.True(t, errors.As(err, &parseErr), "want ParseError, got %v", err)
}

func TestParse_TopLevelSequence_ParseError(t *testing.T) {
	_, err := Parse([]byte("- a\n- b\n"))
	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr), "want ParseError, got %v", err)
	assert.Contains(t, parseErr.Error(), "mapping")
}

func TestParse_EmptyDocument(t *testing.T) {
	doc, err := Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, doc.Root())
}

func TestParse_Deterministic(t *testing.T) {
	src := []byte(`
scheduler:
  cosine:
    max_lr: &lr 0.4
    warmup_init_lr: *lr
ema:
  enable: true
  momentum: 0.0005
`)
	a, err := Parse(src)
	require.NoError(t, err)
	b, err := Parse(src)
	require.NoError(t, err)

	assert.True(t, cmp.Equal(a.Root(), b.Root()), cmp.Diff(a.Root(), b.Root()))

	fpA, err := a.Fingerprint()
	require.NoError(t, err)
	fpB, err := b.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, fpA, fpB)
}

func TestFingerprint_IgnoresAnchorLayout(t *testing.T) {
	withAnchors, err := Parse([]byte("a: &v 7\nb: *v\n"))
	require.NoError(t, err)
	literal, err := Parse([]byte("a: 7\nb: 7\n"))
	require.NoError(t, err)

	fpA, err := withAnchors.Fingerprint()
	require.NoError(t, err)
	fpB, err := literal.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, fpA, fpB)
}

func TestDocument_Accessors(t *testing.T) {
	doc, err := Parse([]byte(`
model:
  name: resnet
  classification:
    n_classes: 1000
optim:
  weight_decay: 1.0e-4
common:
  mixed_precision: true
stats:
  val: [loss, top1, top5]
`))
	require.NoError(t, err)

	assert.Equal(t, "resnet", doc.StringAt("model.name", ""))
	assert.Equal(t, 1000, doc.IntAt("model.classification.n_classes", 0))
	assert.InDelta(t, 1.0e-4, doc.FloatAt("optim.weight_decay", 0), 1e-12)
	assert.True(t, doc.BoolAt("common.mixed_precision", false))
	assert.Equal(t, "top5", doc.StringAt("stats.val[2]", ""))

	assert.False(t, doc.Has("model.lora"))
	assert.Equal(t, 42, doc.IntAt("model.missing", 42))
	assert.Nil(t, doc.Section("optim.weight_decay"))
	require.NotNil(t, doc.Section("model"))
}

func TestDocument_RootIsACopy(t *testing.T) {
	doc, err := Parse([]byte("model:\n  name: vit\n"))
	require.NoError(t, err)

	root := doc.Root()
	root["model"].(map[string]any)["name"] = "tampered"
	assert.Equal(t, "vit", doc.StringAt("model.name", ""))
}

func TestDocument_EncodeExpandsAliases(t *testing.T) {
	doc, err := Parse([]byte("a: &v 7\nb: *v\n"))
	require.NoError(t, err)

	out, err := doc.Bytes()
	require.NoError(t, err)
	text := string(out)
	assert.NotContains(t, text, "&")
	assert.NotContains(t, text, "*")
	assert.Equal(t, 2, strings.Count(text, "7"))
}

func TestLoad_Reader(t *testing.T) {
	doc, err := Load(strings.NewReader("model:\n  name: vit\n"))
	require.NoError(t, err)
	assert.Equal(t, "vit", doc.StringAt("model.name", ""))
}
