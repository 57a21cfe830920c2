package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/pitchrecord/internal/adapters/http/api"
	"github.com/okian/pitchrecord/internal/adapters/http/swagger"
	service "github.com/okian/pitchrecord/internal/app"
	"github.com/okian/pitchrecord/internal/config"
	"github.com/okian/pitchrecord/pkg/logger"
)

// HTTP server timeouts.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
	statsInterval     = 10 * time.Second
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve standings and accept games over HTTP",
		Long: `Start the HTTP API. Seasons listed in the manifest are decided in the
background once the server is listening; further games can be posted to
/games.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := loadConfig(ctx, rootOpts)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			return serve(ctx, rootOpts, cfg)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}

func serve(ctx context.Context, rootOpts *RootOptions, cfg *config.Config) error {
	if !rootOpts.Verbose {
		if err := logger.SetLevelString(cfg.LogLevel); err != nil {
			return WrapExitError(ExitCommandError, "configure logging", err)
		}
	}
	log := logger.Get()

	svc := newService(cfg)
	if err := svc.Start(ctx); err != nil {
		return WrapExitError(ExitCommandError, "start service", err)
	}
	defer svc.Stop()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go refreshStats(ctx, svc)
	go loadSeasons(ctx, cfg, svc)

	mux := http.NewServeMux()
	swagger.Register(mux)
	api.NewServer(svc, svc, cfg.MaxLeaderboardLimit).Register(mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return WrapExitError(ExitFailure, "http server", err)
		}
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// loadSeasons decides the manifest's seasons. A missing manifest leaves the
// server running with whatever is posted.
func loadSeasons(ctx context.Context, cfg *config.Config, svc *service.Service) {
	log := logger.Get().Named("batch")
	if _, err := os.Stat(cfg.Manifest); errors.Is(err, os.ErrNotExist) {
		log.Warn(ctx, "manifest not found; serving posted games only", logger.String("manifest", cfg.Manifest))
		return
	}
	m, err := loadManifest(cfg, nil)
	if err != nil {
		log.Error(ctx, "manifest unreadable", logger.Error(err))
		return
	}
	sums, err := svc.ProcessManifest(ctx, m)
	if err != nil {
		log.Error(ctx, "batch failed", logger.Error(err))
		return
	}
	log.Info(ctx, "manifest decided", logger.Int("seasons", len(sums)))
}

// refreshStats keeps the queue and runtime gauges current between requests.
func refreshStats(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			svc.GetStats()
		}
	}
}
