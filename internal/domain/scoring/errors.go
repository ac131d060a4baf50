package scoring

import "errors"

// Sentinel kinds for scoring errors.
var (
	// ErrConfig marks an engine that must refuse to initialize.
	ErrConfig = errors.New("invalid scoring configuration")
)
