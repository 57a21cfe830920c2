package cli

import (
	"context"
	"fmt"
	"slices"

	service "github.com/okian/pitchrecord/internal/app"
	"github.com/okian/pitchrecord/internal/adapters/gamelog"
	"github.com/okian/pitchrecord/internal/config"
	"github.com/okian/pitchrecord/pkg/logger"
)

func loadConfig(ctx context.Context, opts *RootOptions) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.Config != "" {
		cfg, err = config.LoadFile(ctx, opts.Config)
	} else {
		cfg, err = config.Load(ctx)
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load config", err)
	}
	return cfg, nil
}

func newService(cfg *config.Config) *service.Service {
	opts := []service.Option{
		service.WithLogger(logger.Get().Named("service")),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.QueueSize),
		service.WithDedupeSize(cfg.DedupeSize),
		service.WithIncludePlayoffs(cfg.IncludePlayoffs),
		service.WithLedgerPath(cfg.DBPath),
	}
	if !cfg.ApplyCorrections {
		opts = append(opts, service.WithCorrections(nil))
	}
	return service.New(opts...)
}

// loadManifest reads the configured manifest, keeping only the named seasons when any are given.
func loadManifest(cfg *config.Config, seasons []string) (*gamelog.Manifest, error) {
	m, err := gamelog.LoadManifest(cfg.Manifest, cfg.DataDir)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load manifest", err)
	}
	if len(seasons) == 0 {
		return m, nil
	}
	for _, s := range seasons {
		if _, ok := m.Find(s); !ok {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("season %s is not in %s", s, cfg.Manifest))
		}
	}
	m.Seasons = slices.DeleteFunc(m.Seasons, func(s gamelog.Season) bool { return !slices.Contains(seasons, s.Season) })
	return m, nil
}

// runBatch decides every game in the manifest. The caller stops the returned service.
func runBatch(ctx context.Context, opts *RootOptions, seasons []string) (*service.Service, []service.Summary, error) {
	cfg, err := loadConfig(ctx, opts)
	if err != nil {
		return nil, nil, err
	}
	m, err := loadManifest(cfg, seasons)
	if err != nil {
		return nil, nil, err
	}

	svc := newService(cfg)
	if err := svc.Start(ctx); err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "start service", err)
	}
	sums, err := svc.ProcessManifest(ctx, m)
	if err != nil {
		svc.Stop()
		return nil, nil, WrapExitError(ExitCommandError, "process games", err)
	}
	return svc, sums, nil
}
