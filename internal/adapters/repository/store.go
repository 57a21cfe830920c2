// Package repository holds the pitching decision standings.
package repository

import (
	"context"

	"github.com/okian/pitchrecord/internal/domain/types"
)

// Store provides read/write access to the standings.
type Store interface {
	// Add moves a pitcher's count for one season and stat by delta and
	// returns the new count. Rows that reach zero are removed.
	Add(ctx context.Context, season, stat, pitcherID string, delta int) (int, error)

	// Rank returns the pitcher's rank and count on a board.
	// Returns ErrNotFound if the pitcher has no row there.
	Rank(ctx context.Context, season, stat, pitcherID string) (types.Entry, error)

	// TopN returns the top-N entries ordered by count desc, pitcher id asc.
	TopN(ctx context.Context, season, stat string, n int) ([]types.Entry, error)

	// Line returns the pitcher's W-L-SV-HLD line for a season.
	Line(ctx context.Context, season, pitcherID string) (types.Line, error)

	// Seasons lists the seasons that have at least one row.
	Seasons(ctx context.Context) []string

	// Count returns the number of rows across all boards.
	Count(ctx context.Context) int
}
