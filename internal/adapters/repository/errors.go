package repository

import "errors"

// Sentinel kinds for standings errors.
var (
	ErrNotFound     = errors.New("pitcher not found")
	ErrInvalidLimit = errors.New("invalid leaderboard limit")
	ErrUnknownStat  = errors.New("unknown decision stat")
)
