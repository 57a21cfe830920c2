package repository

import "time"

// Option applies a configuration option to the TreapStore.
type Option func(*TreapStore)

// WithSnapshotInterval sets how often the season snapshot is rebuilt in the background.
// Zero disables the background rebuild; Publish still works.
func WithSnapshotInterval(interval time.Duration) Option {
	return func(s *TreapStore) {
		if interval >= 0 {
			s.snapshotInterval = interval
		}
	}
}
