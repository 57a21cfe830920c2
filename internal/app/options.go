package service

import (
	"github.com/okian/pitchrecord/internal/domain/corrections"
	"github.com/okian/pitchrecord/internal/domain/decision"
	"github.com/okian/pitchrecord/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the game queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many game keys the deduper remembers.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithIncludePlayoffs counts postseason games in the standings.
func WithIncludePlayoffs(include bool) Option {
	return func(s *Service) {
		s.includePlayoffs = include
	}
}

// WithCorrections sets the log corrections applied before reconstruction. nil disables them.
func WithCorrections(r *corrections.Registry) Option {
	return func(s *Service) {
		s.corrections = r
	}
}

// WithAttributor replaces the default decision attributor.
func WithAttributor(a *decision.Attributor) Option {
	return func(s *Service) {
		if a != nil {
			s.attributor = a
		}
	}
}

// WithLedgerPath records every processed game in a SQLite ledger at path.
func WithLedgerPath(path string) Option {
	return func(s *Service) {
		s.ledgerPath = path
	}
}
