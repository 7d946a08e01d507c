package shgat

import (
	"github.com/toolgraph/shgat/params"
	"github.com/toolgraph/shgat/train"
)

// engineConfig collects every knob New resolves before allocating an Engine.
type engineConfig struct {
	params params.Config
	train  train.Config
	seed   int64
}

// Option mutates an engineConfig being built by New.
type Option func(*engineConfig)

// WithParamsConfig overrides the default model dimensions (embedding size,
// hidden size, head and layer counts, dropout rate).
func WithParamsConfig(cfg params.Config) Option {
	return func(c *engineConfig) { c.params = cfg }
}

// WithTrainConfig overrides the default optimizer hyperparameters.
func WithTrainConfig(cfg train.Config) Option {
	return func(c *engineConfig) { c.train = cfg }
}

// WithSeed fixes the PRNG seed used for parameter initialization and
// training-mode dropout. Two Engines built with the same seed and fed the
// same calls in the same order produce identical parameters.
func WithSeed(seed int64) Option {
	return func(c *engineConfig) { c.seed = seed }
}

func defaultEngineConfig() engineConfig {
	return engineConfig{
		params: params.DefaultConfig(),
		train:  train.NewConfig(),
		seed:   1,
	}
}
