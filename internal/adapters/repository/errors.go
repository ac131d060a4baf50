package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound     = errors.New("site not found")
	ErrInvalidLimit = errors.New("invalid leaderboard limit")
	ErrSnapshot     = errors.New("snapshot store")
)
