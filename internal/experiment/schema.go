// SPDX-License-Identifier: MIT

// Package experiment declares the recognized-keys schema for training and
// evaluation configuration documents. The key set follows the sections the
// training framework consumes: common, dataset, model, loss, optim,
// scheduler, sampler, augmentation, EMA and stats.
package experiment

import (
	"github.com/confplane/expconf/internal/schema"
)

// Schema returns the schema for experiment documents.
//
// Sections whose key set is owned by pluggable framework components
// (optimizers, augmentations, model variants) are open mappings: only the
// keys declared here are type-checked. Top-level sections themselves are a
// closed set, so a misspelled section fails fast in strict mode.
func Schema() *schema.Schema {
	return schema.New(map[string]*schema.FieldSpec{
		"common": {
			Kind: schema.Mapping,
			Open: true,
			Keys: map[string]*schema.FieldSpec{
				"run_label":       {Kind: schema.String, Default: "run_1"},
				"log_freq":        {Kind: schema.Int, Default: 500},
				"auto_resume":     {Kind: schema.Bool, Default: false},
				"mixed_precision": {Kind: schema.Bool, Default: false},
				"seed":            {Kind: schema.Int},
			},
		},
		"dataset": {
			Kind:     schema.Mapping,
			Required: true,
			Open:     true,
			Keys: map[string]*schema.FieldSpec{
				"category":           {Kind: schema.String, Required: true},
				"name":               {Kind: schema.String, Required: true},
				"root_train":         {Kind: schema.String},
				"root_val":           {Kind: schema.String},
				"train_batch_size0":  {Kind: schema.Int},
				"val_batch_size0":    {Kind: schema.Int},
				"eval_batch_size0":   {Kind: schema.Int},
				"workers":            {Kind: schema.Int},
				"persistent_workers": {Kind: schema.Bool},
				"pin_memory":         {Kind: schema.Bool},
				"language_modeling": {
					Kind: schema.Mapping,
					Open: true,
					Keys: map[string]*schema.FieldSpec{
						// Defaults follow the language-modeling dataset
						// options of the consuming framework.
						"sequence_length":         {Kind: schema.Int, Default: 2048},
						"min_tokens_per_text":     {Kind: schema.Int, Default: 0},
						"min_characters_per_text": {Kind: schema.Int, Default: 0},
						"shuffle_data":            {Kind: schema.Bool, Default: false},
						"random_seed":             {Kind: schema.Int, Default: 0},
					},
				},
			},
		},
		"text_tokenizer": {
			Kind: schema.Mapping,
			Open: true,
			Keys: map[string]*schema.FieldSpec{
				"name": {Kind: schema.String},
			},
		},
		"image_augmentation": {
			Kind: schema.Mapping,
			Open: true,
			Keys: map[string]*schema.FieldSpec{
				"random_resized_crop":    augmentationSpec(),
				"random_horizontal_flip": augmentationSpec(),
				"resize":                 augmentationSpec(),
				"center_crop":            augmentationSpec(),
			},
		},
		"sampler": {
			Kind: schema.Mapping,
			Open: true,
			Keys: map[string]*schema.FieldSpec{
				"name": {Kind: schema.String},
				"bs": {
					Kind: schema.Mapping,
					Open: true,
					Keys: map[string]*schema.FieldSpec{
						"crop_size_width":  {Kind: schema.Int},
						"crop_size_height": {Kind: schema.Int},
					},
				},
			},
		},
		"model": {
			Kind:     schema.Mapping,
			Required: true,
			Open:     true,
			Keys: map[string]*schema.FieldSpec{
				"name":                     {Kind: schema.String},
				"activation_checkpointing": {Kind: schema.Bool},
				"classification": {
					Kind: schema.Mapping,
					Open: true,
					Keys: map[string]*schema.FieldSpec{
						"name":      {Kind: schema.String},
						"n_classes": {Kind: schema.Int},
					},
				},
				"language_modeling": {
					Kind: schema.Mapping,
					Open: true,
					Keys: map[string]*schema.FieldSpec{
						"name":           {Kind: schema.String},
						"vocab_size":     {Kind: schema.Int},
						"context_length": {Kind: schema.Int},
					},
				},
				"lora": {
					Kind: schema.Mapping,
					Keys: map[string]*schema.FieldSpec{
						"use_lora": {Kind: schema.Bool, Default: false},
						"config": {
							Kind: schema.Sequence,
							Elem: loraEntrySpec(),
						},
					},
				},
			},
		},
		"loss": {
			Kind: schema.Mapping,
			Open: true,
			Keys: map[string]*schema.FieldSpec{
				"category": {Kind: schema.String},
			},
		},
		"optim": {
			Kind: schema.Mapping,
			Open: true,
			Keys: map[string]*schema.FieldSpec{
				"name":                    {Kind: schema.String},
				"weight_decay":            {Kind: schema.Float},
				"no_decay_bn_filter_bias": {Kind: schema.Bool},
			},
		},
		"scheduler": {
			Kind: schema.Mapping,
			Open: true,
			Keys: map[string]*schema.FieldSpec{
				"name":           {Kind: schema.String},
				"max_epochs":     {Kind: schema.Int},
				"max_iterations": {Kind: schema.Int},
				"is_iteration_based": {
					Kind: schema.Bool,
				},
			},
		},
		"ema": {
			Kind: schema.Mapping,
			Keys: map[string]*schema.FieldSpec{
				"enable":   {Kind: schema.Bool, Default: false},
				"momentum": {Kind: schema.Float},
			},
		},
		"stats": {
			Kind: schema.Mapping,
			Open: true,
			Keys: map[string]*schema.FieldSpec{
				"train":                 {Kind: schema.Sequence, Elem: &schema.FieldSpec{Kind: schema.String}},
				"val":                   {Kind: schema.Sequence, Elem: &schema.FieldSpec{Kind: schema.String}},
				"checkpoint_metric":     {Kind: schema.String},
				"checkpoint_metric_max": {Kind: schema.Bool},
			},
		},
	})
}

// augmentationSpec describes one toggleable augmentation block.
func augmentationSpec() *schema.FieldSpec {
	return &schema.FieldSpec{
		Kind: schema.Mapping,
		Open: true,
		Keys: map[string]*schema.FieldSpec{
			"enable": {Kind: schema.Bool, Default: false},
		},
	}
}

// loraEntrySpec describes one regex-matched adapter entry in
// model.lora.config.
func loraEntrySpec() *schema.FieldSpec {
	return &schema.FieldSpec{
		Kind: schema.Mapping,
		Keys: map[string]*schema.FieldSpec{
			"regex": {Kind: schema.String, Required: true},
			"params": {
				Kind:     schema.Mapping,
				Required: true,
				Keys: map[string]*schema.FieldSpec{
					"r":                 {Kind: schema.Int, Required: true},
					"lora_alpha":        {Kind: schema.Float},
					"lora_dropout":      {Kind: schema.Float},
					"init_lora_weights": {Kind: schema.Bool, Default: true},
					"use_rslora":        {Kind: schema.Bool, Default: false},
					"use_dora":          {Kind: schema.Bool, Default: false},
				},
			},
		},
	}
}
