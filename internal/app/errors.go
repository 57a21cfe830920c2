package service

import "errors"

// Sentinel errors returned by the service.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrNotFound     = errors.New("not found")
	ErrEmptyGame    = errors.New("game has no plate appearances")
	ErrBackpressure = errors.New("game queue is full")
)
