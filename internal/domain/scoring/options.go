package scoring

import "time"

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithWeights replaces the category weight table.
func WithWeights(w Weights) Option {
	return func(e *Engine) {
		if len(w) > 0 {
			e.weights = make(Weights, len(w))
			copy(e.weights, w)
		}
	}
}

// WithWeightsFromConfig sets the weight table from a configuration map.
// An empty map keeps the default table.
func WithWeightsFromConfig(weights map[string]int) Option {
	return func(e *Engine) {
		if len(weights) > 0 {
			e.weights = WeightsFromMap(weights)
		}
	}
}

// WithClock sets the time source stamped on results.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}
