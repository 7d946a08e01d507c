package train

// Config fixes the optimizer hyperparameters applied at the end of a batch.
type Config struct {
	LearningRate float32
	L2           float32
}

// Option mutates a Config being built by NewConfig.
type Option func(*Config)

// WithLearningRate overrides the default learning rate.
func WithLearningRate(lr float32) Option {
	return func(c *Config) { c.LearningRate = lr }
}

// WithL2 overrides the default L2 regularization coefficient.
func WithL2(l2 float32) Option {
	return func(c *Config) { c.L2 = l2 }
}

// NewConfig returns the default optimizer hyperparameters (lr=1e-3, l2=1e-4)
// with opts applied on top.
func NewConfig(opts ...Option) Config {
	c := Config{LearningRate: 1e-3, L2: 1e-4}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
