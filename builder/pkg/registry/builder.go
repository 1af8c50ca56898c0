package registry

import (
	"context"
	"errors"
	"fmt"
	"path"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mfestorage/registry-builder/common/metrics"
	"github.com/mfestorage/registry-builder/common/objstore"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Builder rebuilds the module registry from the manifests found in an object store.
type Builder struct {
	log     *zap.Logger
	cfg     Config
	store   objstore.Store
	metrics *metrics.Collector
	filter  EntryFilter
}

type Option func(*Builder)

// WithMetrics records builds using the provided collector instead of a private one.
func WithMetrics(c *metrics.Collector) Option {
	return func(b *Builder) {
		b.metrics = c
	}
}

// Result describes a completed run.
type Result struct {
	RunID    string
	Apps     []string
	Entries  []Entry
	Document []byte
	// Published is false for dry runs.
	Published bool
	Duration  time.Duration
}

func New(log *zap.Logger, cfg Config, store objstore.Store, opts ...Option) (*Builder, error) {
	log = log.With(zap.String("component", path.Base(reflect.TypeOf(Builder{}).PkgPath())))
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid registry configuration: %w", err)
	}
	filter, err := CompileFilter(cfg.Filter)
	if err != nil {
		return nil, err
	}
	b := &Builder{
		log:    log,
		cfg:    cfg,
		store:  store,
		filter: filter,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.metrics == nil {
		b.metrics = metrics.New()
	}
	return b, nil
}

func (b *Builder) Config() Config {
	return b.cfg
}

// Run discovers every application, aggregates their manifests and publishes the registry. Any
// error aborts the run before anything is written so the previously published registry stays live.
func (b *Builder) Run(ctx context.Context) (result *Result, err error) {
	runID := uuid.NewString()
	log := b.log.With(zap.String("runID", runID))
	start := time.Now()
	defer func() {
		b.metrics.ObserveRun(time.Since(start), err)
	}()

	if b.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.cfg.Timeout)
		defer cancel()
	}

	log.Info("starting registry build", zap.String("rootPrefix", b.cfg.RootPrefix), zap.Bool("dryRun", b.cfg.DryRun))
	apps, err := b.discover(ctx, log)
	if err != nil {
		log.Error("registry build failed during discovery", zap.Error(err))
		return nil, err
	}
	entries, err := b.aggregate(ctx, log, apps)
	if err != nil {
		log.Error("registry build failed during aggregation", zap.Error(err))
		return nil, err
	}
	document, err := b.publish(ctx, log, entries)
	if err != nil {
		log.Error("registry build failed during publication", zap.Error(err))
		return nil, err
	}

	result = &Result{
		RunID:     runID,
		Apps:      apps,
		Entries:   entries,
		Document:  document,
		Published: !b.cfg.DryRun,
		Duration:  time.Since(start),
	}
	log.Info("finished registry build", zap.Int("entries", len(entries)), zap.Bool("published", result.Published), zap.Duration("duration", result.Duration))
	return result, nil
}

// Discover returns the identifiers of all applications under the root prefix in listing order.
func (b *Builder) Discover(ctx context.Context) ([]string, error) {
	return b.discover(ctx, b.log)
}

func (b *Builder) discover(ctx context.Context, log *zap.Logger) ([]string, error) {
	prefixes, err := b.store.List(ctx, b.cfg.RootPrefix, b.cfg.Delimiter)
	if err != nil {
		return nil, fmt.Errorf("%w under %q: %w", ErrListApps, b.cfg.RootPrefix, err)
	}

	apps := make([]string, 0, len(prefixes))
	for _, prefix := range prefixes {
		app := strings.TrimSuffix(strings.TrimPrefix(prefix, b.cfg.RootPrefix), b.cfg.Delimiter)
		if app == "" {
			continue
		}
		if excluded(b.cfg.Exclude, app) {
			log.Debug("skipping excluded application", zap.String("app", app))
			continue
		}
		apps = append(apps, app)
	}
	b.metrics.SetAppsDiscovered(len(apps))
	log.Debug("discovered applications", zap.Strings("apps", apps))
	return apps, nil
}

// Aggregate reads the manifest of every application concurrently and returns the resulting
// entries in the same order as apps. The first failure cancels all outstanding reads and is
// returned.
func (b *Builder) Aggregate(ctx context.Context, apps []string) ([]Entry, error) {
	return b.aggregate(ctx, b.log, apps)
}

func (b *Builder) aggregate(ctx context.Context, log *zap.Logger, apps []string) ([]Entry, error) {
	entries := make([]Entry, len(apps))
	g, gCtx := errgroup.WithContext(ctx)
	if b.cfg.MaxConcurrentFetches > 0 {
		g.SetLimit(b.cfg.MaxConcurrentFetches)
	}
	for i, app := range apps {
		g.Go(func() error {
			entry, err := b.fetchEntry(gCtx, log, app)
			if err != nil {
				return err
			}
			entries[i] = entry
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	filtered := make([]Entry, 0, len(entries))
	for i, entry := range entries {
		keep, err := b.filter(EntryInfo{App: apps[i], Name: entry.Name, Module: entry.Module, URL: entry.URL})
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidFilter, err)
		}
		if !keep {
			log.Debug("entry rejected by filter", zap.String("app", apps[i]))
			continue
		}
		filtered = append(filtered, entry)
	}
	return filtered, nil
}

func (b *Builder) fetchEntry(ctx context.Context, log *zap.Logger, app string) (Entry, error) {
	key := b.cfg.ManifestKey(app)
	start := time.Now()
	data, err := b.store.Get(ctx, key)
	b.metrics.ObserveFetch(time.Since(start))
	if err != nil {
		return Entry{}, fmt.Errorf("%w for %s: %w", ErrFetchManifest, app, err)
	}

	manifest, err := ParseManifest(data)
	if err != nil {
		return Entry{}, fmt.Errorf("application %s (%s): %w", app, key, err)
	}
	if manifest.MFE.Name != app {
		log.Warn("manifest name does not match the application prefix it was published under",
			zap.String("app", app), zap.String("manifestName", manifest.MFE.Name))
	}
	return NewEntry(b.cfg, manifest), nil
}

// Publish serializes entries and overwrites the registry document with them. The document is
// returned but not written when the builder is configured for a dry run.
func (b *Builder) Publish(ctx context.Context, entries []Entry) ([]byte, error) {
	return b.publish(ctx, b.log, entries)
}

func (b *Builder) publish(ctx context.Context, log *zap.Logger, entries []Entry) ([]byte, error) {
	document, err := MarshalDocument(entries)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPublish, err)
	}
	if b.cfg.DryRun {
		log.Info("dry run, not writing registry", zap.String("key", b.cfg.RegistryKey), zap.Int("bytes", len(document)))
		return document, nil
	}
	if err := b.store.Put(ctx, b.cfg.RegistryKey, document); err != nil {
		return nil, fmt.Errorf("%w to %s: %w", ErrPublish, b.cfg.RegistryKey, err)
	}
	log.Debug("wrote registry", zap.String("key", b.cfg.RegistryKey), zap.Int("bytes", len(document)))
	return document, nil
}

// Current returns the entries of the registry that is currently published.
func (b *Builder) Current(ctx context.Context) ([]Entry, error) {
	data, err := b.store.Get(ctx, b.cfg.RegistryKey)
	if err != nil {
		if errors.Is(err, objstore.ErrNotFound) {
			return nil, fmt.Errorf("%w at %s", ErrNotPublished, b.cfg.RegistryKey)
		}
		return nil, err
	}
	return UnmarshalDocument(data)
}
