package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	corecfg "github.com/trunkstore-lab/trunkstore/internal/core/config"
	"github.com/trunkstore-lab/trunkstore/internal/core/storage/postgres"
	"github.com/trunkstore-lab/trunkstore/internal/deadletter"
	"github.com/trunkstore-lab/trunkstore/internal/metrics"
	"github.com/trunkstore-lab/trunkstore/internal/migrations"
	"github.com/trunkstore-lab/trunkstore/internal/reference"
	"github.com/trunkstore-lab/trunkstore/internal/sequencer"
)

// stack is the storage and pipeline core shared by serve and deadletter replay.
type stack struct {
	adapter   *postgres.Adapter
	resolver  *reference.Resolver
	parked    deadletter.Repository
	registry  *prometheus.Registry
	metrics   *metrics.PipelineMetrics
	sequencer *sequencer.Sequencer
}

func postgresOptions(cfg *corecfg.Config) postgres.Options {
	return postgres.Options{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		WriteTimeout:    cfg.Database.WriteTimeout,
		NotifyChannel:   cfg.Database.NotifyChannel,
	}
}

func sequencerOptions(cfg *corecfg.Config) sequencer.Options {
	p := cfg.Pipeline
	o := sequencer.DefaultOptions()
	o.Workers = p.Workers
	o.QueueSize = p.QueueSize
	o.RetryInitialInterval = p.RetryInitialInterval
	o.RetryMaxInterval = p.RetryMaxInterval
	o.RetryBudget = p.RetryBudget
	o.StorageRetryInitialInterval = p.StorageRetryInitialInterval
	o.StorageRetryMaxElapsed = p.StorageRetryMaxElapsed
	o.CommittedTTL = p.CommittedTTL
	o.UpsertFromPayload = cfg.References.UpsertFromPayload
	return o
}

func openDeadLetters(cfg *corecfg.Config) (deadletter.Repository, error) {
	switch cfg.DeadLetter.Backend {
	case "memory":
		slog.Warn("[DeadLetter] Using in-memory store; entries are lost on restart")
		return deadletter.NewMemoryRepository(), nil
	case "filesystem":
		return deadletter.NewFileSystemRepository(cfg.DeadLetter.Path)
	default:
		return nil, fmt.Errorf("unsupported dead-letter backend %q", cfg.DeadLetter.Backend)
	}
}

// buildStack connects to PostgreSQL, applies the schema contract when
// configured and starts the sequencer.
func buildStack(cfg *corecfg.Config) (*stack, error) {
	pgOpts := postgresOptions(cfg)
	db, err := postgres.Connect(pgOpts)
	if err != nil {
		return nil, err
	}

	if err := migrations.RunMigrations(db, cfg.Database.AutoMigrate); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	adapter, err := postgres.NewAdapter(db, pgOpts)
	if err != nil {
		db.Close()
		return nil, err
	}

	parked, err := openDeadLetters(cfg)
	if err != nil {
		adapter.Close()
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := metrics.NewPipelineMetrics(registry)
	if err != nil {
		adapter.Close()
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	resolver := reference.NewResolver(adapter, cfg.References.CacheTTL)
	seq := sequencer.New(adapter, resolver, parked, m, sequencerOptions(cfg))
	seq.Start()

	return &stack{
		adapter:   adapter,
		resolver:  resolver,
		parked:    parked,
		registry:  registry,
		metrics:   m,
		sequencer: seq,
	}, nil
}

// close drains the sequencer within ctx and releases the database.
func (s *stack) close(ctx context.Context) {
	if err := s.sequencer.Shutdown(ctx); err != nil {
		slog.Error("[Sequencer] Shutdown did not finish cleanly", "error", err)
	}
	if err := s.adapter.Close(); err != nil {
		slog.Error("[Postgres] Close failed", "error", err)
	}
}
