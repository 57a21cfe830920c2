package config

import "errors"

// Errors returned by Load, LoadFile and Validate.
var (
	ErrLoadConfig    = errors.New("load config failed")
	ErrInvalidConfig = errors.New("invalid config")
)
