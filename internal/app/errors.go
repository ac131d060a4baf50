package service

import "errors"

// Sentinel errors returned by the Service.
var (
	ErrNotStarted    = errors.New("service not started")
	ErrInvalidInput  = errors.New("invalid input")
	ErrNoMetricsRepo = errors.New("no metrics repository configured")
)
