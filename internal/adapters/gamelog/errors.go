package gamelog

import "errors"

// Sentinel kinds for game log errors.
var (
	ErrMissingColumn = errors.New("missing required column")
	ErrManifest      = errors.New("invalid season manifest")
)
