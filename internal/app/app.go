// Package app assembles familysync from its configuration: storage, change
// feed, services and the HTTP handler. main builds one App and passes it
// around explicitly.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmynk/familysync/internal/auth"
	"github.com/mmynk/familysync/internal/config"
	"github.com/mmynk/familysync/internal/family"
	"github.com/mmynk/familysync/internal/realtime"
	"github.com/mmynk/familysync/internal/service"
	"github.com/mmynk/familysync/internal/storage"
	"github.com/mmynk/familysync/internal/storage/postgres"
	"github.com/mmynk/familysync/internal/storage/retry"
	"github.com/mmynk/familysync/internal/storage/sqlite"
	"github.com/mmynk/familysync/internal/syncer"
)

// App holds the long-lived components of a familysync process.
type App struct {
	Config   *config.Config
	Store    storage.Store
	Broker   realtime.Broker
	JWT      *auth.JWTManager
	Families *family.Service
	Syncer   *syncer.Syncer

	// backend is the undecorated store, closed last.
	backend storage.Store
}

// New opens storage and the change feed described by cfg.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	backend, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	broker, err := openBroker(ctx, cfg)
	if err != nil {
		backend.Close()
		return nil, err
	}

	store := realtime.NewNotifyingStore(
		retry.New(backend, retry.WithMaxRetries(uint64(cfg.Storage.MaxRetries))),
		broker,
	)

	a := &App{
		Config:   cfg,
		Store:    store,
		Broker:   broker,
		JWT:      auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.GetTokenTTL()),
		Families: family.NewService(store, family.WithCodeAttempts(cfg.Families.CodeMaxAttempts)),
		Syncer:   syncer.New(store, broker, syncer.WithResyncInterval(cfg.GetResyncInterval())),
		backend:  backend,
	}
	return a, nil
}

// OpenStore opens the configured storage backend and applies its schema.
func OpenStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		store, err := postgres.Open(ctx, cfg.Storage.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postgres storage: %w", err)
		}
		slog.Info("Storage initialized", "driver", config.DriverPostgres)
		return store, nil
	default:
		store, err := sqlite.New(cfg.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize sqlite storage: %w", err)
		}
		slog.Info("Storage initialized", "driver", config.DriverSQLite, "database", cfg.Storage.Path)
		return store, nil
	}
}

func openBroker(ctx context.Context, cfg *config.Config) (realtime.Broker, error) {
	if cfg.Realtime.RedisURL == "" {
		slog.Info("Change feed initialized", "broker", "memory")
		return realtime.NewHub(), nil
	}
	broker, err := realtime.DialRedis(ctx, cfg.Realtime.RedisURL,
		realtime.WithChannelPrefix(cfg.Realtime.ChannelPrefix))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redis change feed: %w", err)
	}
	slog.Info("Change feed initialized", "broker", "redis")
	return broker, nil
}

// Handler serves the familysync API, /metrics and /healthz.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	service.Register(mux, service.Services{
		Auth:   service.NewAuthService(a.JWT),
		Family: service.NewFamilyService(a.Families),
		Item:   service.NewItemService(a.Families),
		Sync:   service.NewSyncService(a.Syncer),
	}, a.JWT)

	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := a.Health(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

// Health reports whether the change feed is reachable.
func (a *App) Health(ctx context.Context) error {
	if h, ok := a.Broker.(interface{ Health(context.Context) error }); ok {
		return h.Health(ctx)
	}
	return nil
}

// Close releases the broker and the store.
func (a *App) Close() error {
	return errors.Join(a.Broker.Close(), a.backend.Close())
}
