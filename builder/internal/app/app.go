package app

import (
	"context"
	"fmt"
	"io"

	"github.com/mfestorage/registry-builder/builder/internal/config"
	"github.com/mfestorage/registry-builder/builder/pkg/registry"
	"github.com/mfestorage/registry-builder/common/logger"
	"github.com/mfestorage/registry-builder/common/metrics"
	"github.com/mfestorage/registry-builder/common/objstore"
	"go.uber.org/zap"
)

// App holds the components shared by all commands for the lifetime of one invocation.
type App struct {
	Config  *config.AppConfig
	Log     *logger.Logger
	Store   objstore.Store
	Metrics *metrics.Collector
	Builder *registry.Builder
}

func New(ctx context.Context, cfg *config.AppConfig) (*App, error) {
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize logger: %w", err)
	}
	return newWithLogger(ctx, cfg, log)
}

func newWithLogger(ctx context.Context, cfg *config.AppConfig, log *logger.Logger) (*App, error) {
	store, err := objstore.New(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("unable to initialize %s store: %w", cfg.Store.Backend, err)
	}
	collector := metrics.New()
	builder, err := registry.New(log.Logger, cfg.Registry, store, registry.WithMetrics(collector))
	if err != nil {
		closeStore(store)
		return nil, err
	}
	return &App{
		Config:  cfg,
		Log:     log,
		Store:   store,
		Metrics: collector,
		Builder: builder,
	}, nil
}

// PushMetrics sends the metrics collected so far to the Pushgateway if one is configured. Failures
// are logged but never fail the command.
func (a *App) PushMetrics(ctx context.Context) {
	if err := a.Metrics.Push(ctx, a.Config.Metrics); err != nil {
		a.Log.Warn("unable to push metrics", zap.Error(err))
	}
}

func (a *App) Close() error {
	err := closeStore(a.Store)
	// Syncing stderr/stdout returns EINVAL on some platforms.
	_ = a.Log.Sync()
	return err
}

func closeStore(store objstore.Store) error {
	if c, ok := store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("unable to close store: %w", err)
		}
	}
	return nil
}

// Factory builds an App from the loaded configuration. Commands may adjust the configuration for
// their own invocation before any component is created.
type Factory func(ctx context.Context, modify ...func(*config.AppConfig)) (*App, error)
