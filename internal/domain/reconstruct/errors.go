package reconstruct

import "errors"

// Sentinel kinds for reconstruction errors.
var (
	ErrMalformedInning = errors.New("malformed inning label")
	ErrEmptyGame       = errors.New("game has no plays")
	ErrMissingStarter  = errors.New("team never pitched")
	ErrUnknownTeam     = errors.New("pitcher team matches neither side")
)
