package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/kampuskuevent/server/internal/api"
	"github.com/kampuskuevent/server/internal/config"
	"github.com/kampuskuevent/server/internal/metrics"
	"github.com/kampuskuevent/server/internal/storage"
	"github.com/kampuskuevent/server/internal/telemetry"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

const dbStatsInterval = 15 * time.Second

// serveOptions override config/env.
type serveOptions struct {
	host string
	port int
}

func (o serveOptions) apply(cfg *config.Config) {
	if o.host != "" {
		cfg.Server.Host = o.host
	}
	if o.port != 0 {
		cfg.Server.Port = o.port
	}
}

func newServeCommand(global *globalOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the KampusKuEvent HTTP server",
		Long: `Start the KampusKuEvent HTTP server and begin accepting API requests.

The server will:
- Load configuration from environment variables (and --config env file if provided)
- Refuse to start without ADMIN_TOKEN or ADMIN_TOKEN_BCRYPT
- Apply pending schema migrations when DATABASE_AUTO_MIGRATE is true
- Handle graceful shutdown on SIGINT/SIGTERM

Examples:
  # Start with default configuration (from env vars)
  server serve

  # Start on a specific host and port
  server serve --host 127.0.0.1 --port 9090

  # Start with debug logging
  server serve --log-level debug --log-format console`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(global)
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			opts.apply(&cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&opts.host, "host", "", "server host address (default: 0.0.0.0)")
	cmd.Flags().IntVar(&opts.port, "port", 0, "server port (default: 8080)")

	return cmd
}

// runServer serves until ctx is cancelled, then shuts down gracefully.
func runServer(ctx context.Context, cfg config.Config) error {
	if !cfg.Auth.Configured() {
		return errors.New("ADMIN_TOKEN or ADMIN_TOKEN_BCRYPT must be set")
	}

	logger := config.NewLogger(cfg.Logging)
	logger.Info().
		Str("version", Version).
		Str("environment", cfg.Environment).
		Str("db_driver", cfg.Database.Driver).
		Msg("starting KampusKuEvent server")

	metrics.Init(Version, GitCommit, BuildDate, cfg.Database.Driver)

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.Tracing, Version, attribute.String("db.system", cfg.Database.Driver))
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("tracing shutdown error")
		}
	}()

	openCtx, openCancel := context.WithTimeout(ctx, 10*time.Second)
	store, err := storage.Open(openCtx, cfg.Database)
	openCancel()
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("close storage")
		}
	}()

	if cfg.Database.AutoMigrate {
		if err := store.MigrateUp(); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
		version, dirty, err := store.MigrationVersion()
		if err != nil {
			return fmt.Errorf("read schema version: %w", err)
		}
		logger.Info().Uint("schema_version", version).Bool("dirty", dirty).Msg("migrations applied")
	}

	dbCollector := metrics.NewDBCollector(store)
	collectorCtx, collectorCancel := context.WithCancel(ctx)
	go dbCollector.Start(collectorCtx, dbStatsInterval)
	defer collectorCancel()
	defer dbCollector.Stop()

	routerCtx, routerCancel := context.WithCancel(ctx)
	defer routerCancel()

	handler := api.NewRouter(routerCtx, cfg, logger, store, api.BuildInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
	})

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return serveUntilDone(ctx, server, cfg.Server.ShutdownTimeout, logger)
}

// serveUntilDone runs server until it fails or ctx is done.
func serveUntilDone(ctx context.Context, server *http.Server, shutdownTimeout time.Duration, logger zerolog.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", server.Addr).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return gracefulShutdown(server, shutdownTimeout, logger)
	})

	return g.Wait()
}

func gracefulShutdown(server *http.Server, timeout time.Duration, logger zerolog.Logger) error {
	logger.Info().Msg("shutting down")

	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("shutdown error")
		return err
	}

	logger.Info().Msg("server stopped")
	return nil
}
