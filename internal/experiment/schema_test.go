// SPDX-License-Identifier: MIT

package experiment

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/confplane/expconf/internal/document"
	"github.com/confplane/expconf/internal/schema"
)

func loadFixture(t *testing.T, name string) *document.Document {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	doc, err := document.Parse(data)
	require.NoError(t, err)
	return doc
}

func TestSchema_LMLoRAEval(t *testing.T) {
	doc := loadFixture(t, "lm-lora-eval.yaml")
	out, err := Schema().Apply(doc, schema.Strict)
	require.NoError(t, err)

	// Anchored values land at every reference site.
	assert.Equal(t, 2048, out.IntAt("dataset.language_modeling.sequence_length", 0))
	assert.Equal(t, 2048, out.IntAt("model.language_modeling.context_length", 0))
	assert.Equal(t, 32128, out.IntAt("model.language_modeling.vocab_size", 0))

	entries, ok := out.Get("model.lora.config")
	require.True(t, ok)
	require.Len(t, entries.([]any), 4)
	for i := 0; i < 4; i++ {
		prefix := document.IndexPath("model.lora.config", i) + ".params"
		assert.Equal(t, 32, out.IntAt(prefix+".r", 0))
		assert.InDelta(t, 32, out.FloatAt(prefix+".lora_alpha", 0), 0)
		assert.InDelta(t, 0.1, out.FloatAt(prefix+".lora_dropout", 0), 1e-12)
		assert.True(t, out.BoolAt(prefix+".init_lora_weights", false))
		assert.False(t, out.BoolAt(prefix+".use_rslora", true))
		assert.False(t, out.BoolAt(prefix+".use_dora", true))
	}

	// Documented dataset defaults are filled in.
	assert.Equal(t, 0, out.IntAt("dataset.language_modeling.min_tokens_per_text", -1))
	assert.Equal(t, 0, out.IntAt("dataset.language_modeling.random_seed", -1))
}

func TestSchema_ImageNetTrain(t *testing.T) {
	doc := loadFixture(t, "imagenet-train.yaml")
	out, err := Schema().Apply(doc, schema.Strict)
	require.NoError(t, err)

	assert.Equal(t, "imagenet", out.StringAt("dataset.name", ""))
	assert.Equal(t, 224, out.IntAt("sampler.bs.crop_size_width", 0))
	assert.Equal(t, 224, out.IntAt("sampler.bs.crop_size_height", 0))
	assert.InDelta(t, 1.0e-4, out.FloatAt("optim.weight_decay", 0), 1e-12)
	assert.True(t, out.BoolAt("ema.enable", false))
	assert.Equal(t, "top1", out.StringAt("stats.checkpoint_metric", ""))
}

func TestSchema_MissingModelSection(t *testing.T) {
	doc, err := document.Parse([]byte(`
dataset:
  category: classification
  name: imagenet
`))
	require.NoError(t, err)

	_, err = Schema().Apply(doc, schema.Strict)
	var verr *schema.ValidationError
	require.True(t, errors.As(err, &verr), "want ValidationError, got %v", err)

	require.Len(t, verr.Errors(), 1)
	assert.Equal(t, "model", verr.Errors()[0].Path)
}

func TestSchema_MisspelledSectionRejectedInStrictMode(t *testing.T) {
	doc, err := document.Parse([]byte(`
dataset:
  category: classification
  name: imagenet
model:
  name: resnet
shedular:
  max_epochs: 10
`))
	require.NoError(t, err)

	_, err = Schema().Apply(doc, schema.Strict)
	var verr *schema.ValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Errors(), 1)
	assert.Equal(t, "shedular", verr.Errors()[0].Path)

	_, err = Schema().Apply(doc, schema.Lenient)
	require.NoError(t, err)
}

func TestSchema_LoRAEntryPathInError(t *testing.T) {
	doc, err := document.Parse([]byte(`
dataset:
  category: language_modeling
  name: general_lm
model:
  name: gpt
  lora:
    use_lora: true
    config:
      - regex: .*qkv.*
        params:
          r: 32
      - regex: .*out.*
        params:
          r: 16
      - regex: .*proj.*
        params:
          r: thirty-two
`))
	require.NoError(t, err)

	_, err = Schema().Apply(doc, schema.Strict)
	var verr *schema.ValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Errors(), 1)
	assert.Equal(t, "model.lora.config[2].params.r", verr.Errors()[0].Path)
}
