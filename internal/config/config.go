// Package config defines process configuration and how it is loaded.
package config

import (
	"context"
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Manifest is the season manifest YAML.
	Manifest string `koanf:"manifest"`

	// DataDir is where manifest-relative game logs live. Empty means the manifest's directory.
	DataDir string `koanf:"data_dir"`

	// DBPath is the SQLite ledger file. Empty disables the ledger.
	DBPath string `koanf:"db_path"`

	// WorkerCount sets the number of decision workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the in-memory game queue.
	QueueSize int `koanf:"queue_size"`

	// DedupeSize sets how many game keys are remembered for deduplication.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// IncludePlayoffs feeds postseason games into the standings.
	IncludePlayoffs bool `koanf:"include_playoffs"`

	// ApplyCorrections applies the built-in log corrections before reconstruction.
	ApplyCorrections bool `koanf:"apply_corrections"`
}

// New creates a Config with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		Manifest:            "seasons.yaml",
		WorkerCount:         runtime.NumCPU(),
		QueueSize:           4096,
		DedupeSize:          100_000,
		MaxLeaderboardLimit: 100,
		ApplyCorrections:    true,
	}
}
