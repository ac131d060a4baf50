package worker

import (
	"github.com/okian/sitescore/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithReleaser sets the hook told when a site's job has finished.
func WithReleaser(r Releaser) Option {
	return func(w *InMemoryWorker) {
		if r != nil {
			w.releaser = r
		}
	}
}
