package cache

import "errors"

// Sentinel errors for cache backends.
var (
	ErrBackend = errors.New("cache backend")
	ErrDecode  = errors.New("cache decode")
)
