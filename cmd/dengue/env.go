package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/couchcryptid/dengue-data-service/internal/adapter/boundary"
	kafkaadapter "github.com/couchcryptid/dengue-data-service/internal/adapter/kafka"
	"github.com/couchcryptid/dengue-data-service/internal/adapter/store/memory"
	"github.com/couchcryptid/dengue-data-service/internal/adapter/store/postgres"
	"github.com/couchcryptid/dengue-data-service/internal/adapter/store/sqlite"
	"github.com/couchcryptid/dengue-data-service/internal/config"
	"github.com/couchcryptid/dengue-data-service/internal/pipeline"
)

var (
	_ pipeline.Pinger = (*sqlite.Store)(nil)
	_ pipeline.Pinger = (*postgres.Store)(nil)
)

// env holds the wired pipeline and everything that must be closed with it.
type env struct {
	pipeline   *pipeline.Pipeline
	boundaries *boundary.Dataset
	closers    []func()
}

// newEnv opens the configured store, change feed, and boundary dataset.
func newEnv(ctx context.Context, log *slog.Logger, withBoundaries bool) (*env, error) {
	e := &env{}

	store, err := e.openStore(ctx)
	if err != nil {
		e.Close()
		return nil, err
	}

	var publisher pipeline.ChangePublisher
	if cfg.ChangeFeedEnabled {
		w := kafkaadapter.NewWriter(cfg, log)
		e.closers = append(e.closers, func() {
			if err := w.Close(); err != nil {
				log.Error("kafka writer close error", "error", err)
			}
		})
		publisher = w
		log.Info("change feed enabled", "topic", cfg.KafkaChangeTopic)
	}

	if withBoundaries && cfg.BoundaryPath != "" {
		client := &http.Client{Timeout: cfg.BoundaryTimeout}
		d, err := boundary.Load(ctx, cfg.BoundaryPath, cfg.BoundaryNameProperty, client)
		if err != nil {
			e.Close()
			return nil, fmt.Errorf("load boundaries: %w", err)
		}
		e.boundaries = d
		log.Info("boundary dataset loaded", "source", cfg.BoundaryPath, "regions", len(d.Regions()))
	}

	e.pipeline = pipeline.New(store, publisher, log, metrics())
	return e, nil
}

func (e *env) openStore(ctx context.Context) (pipeline.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		st, err := sqlite.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		e.closers = append(e.closers, func() { _ = st.Close() })
		if err := st.Migrate(ctx); err != nil {
			return nil, err
		}
		return st, nil
	case config.DriverPostgres:
		st, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		e.closers = append(e.closers, st.Close)
		if err := st.Migrate(ctx); err != nil {
			return nil, err
		}
		return st, nil
	default:
		return memory.New(), nil
	}
}

// Close releases resources in reverse order of acquisition.
func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		e.closers[i]()
	}
	e.closers = nil
}
