package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	corecfg "github.com/trunkstore-lab/trunkstore/internal/core/config"
	"github.com/trunkstore-lab/trunkstore/internal/core/storage/postgres"
	"github.com/trunkstore-lab/trunkstore/internal/deadletter"
	"github.com/trunkstore-lab/trunkstore/internal/feed/redisstream"
	"github.com/trunkstore-lab/trunkstore/internal/ingestion"
	"github.com/trunkstore-lab/trunkstore/internal/server"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP ingestion server, the Redis feed and the sequencer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}
}

func runServe(parent context.Context, cfg *corecfg.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := buildStack(cfg)
	if err != nil {
		return err
	}

	checks := map[string]server.HealthCheck{
		"database": st.adapter.DB().PingContext,
	}

	var references ingestion.ReferenceWriter
	if cfg.References.AllowUpdates {
		references = st.adapter
	}
	ingestionSvc := ingestion.NewService(st.sequencer, deadletter.NewService(st.parked), references, cfg.Server.MaxBodySizeMB)

	group, gctx := errgroup.WithContext(ctx)

	if channel := cfg.Database.NotifyChannel; channel != "" {
		listener, err := postgres.NewListener(cfg.Database.DSN, channel, st.sequencer.NotifyCallCommitted)
		if err != nil {
			// Pending entries still find their call on the retry schedule.
			slog.Warn("[Postgres] Running without commit notifications", "error", err)
		} else {
			group.Go(func() error { return listener.Run(gctx) })
		}
	}

	var rdb *redis.Client
	if rc := cfg.Feed.Redis; rc.Enabled {
		rdb = redis.NewClient(&redis.Options{Addr: rc.Addr, Password: rc.Password, DB: rc.DB})
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }

		consumer := redisstream.NewConsumer(rdb, st.sequencer, st.metrics, redisstream.Options{
			Stream:      rc.Stream,
			Group:       rc.Group,
			Consumer:    rc.Consumer,
			BatchSize:   rc.BatchSize,
			Block:       rc.Block,
			Concurrency: rc.Concurrency,
		})
		group.Go(func() error { return consumer.Run(gctx) })
	}

	srv := server.New(server.Options{
		Addr:            fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Mode:            cfg.Server.Mode,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Registry:        st.registry,
		Checks:          checks,
	})
	ingestionSvc.RegisterRoutes(srv.Engine)

	// HTTP server blocks until gctx is cancelled.
	group.Go(func() error { return srv.Run(gctx) })

	runErr := group.Wait()
	if runErr != nil {
		slog.Error("Server stopped with error", "error", runErr)
	} else {
		slog.Info("Signal received, shutting down...")
	}

	// Intake is closed; drain what the workers still hold.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	st.close(shutdownCtx)
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			slog.Warn("[RedisFeed] Close failed", "error", err)
		}
	}

	slog.Info("Shutdown complete")
	return runErr
}
