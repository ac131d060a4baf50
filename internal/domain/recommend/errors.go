package recommend

import "errors"

// Sentinel kinds for recommendation errors.
var (
	ErrInvalidRule = errors.New("invalid recommendation rule")
)
