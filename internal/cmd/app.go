package cmd

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/romangod6/sitemapgen/config"
	"github.com/romangod6/sitemapgen/internal/content"
	"github.com/romangod6/sitemapgen/internal/hooks"
	"github.com/romangod6/sitemapgen/internal/logger"
	"github.com/romangod6/sitemapgen/internal/metrics"
	"github.com/romangod6/sitemapgen/internal/sitemap"
	"github.com/romangod6/sitemapgen/internal/storage"
)

// app holds everything a command needs to build or serve the sitemap.
type app struct {
	config   *config.Config
	logger   logger.Logger
	repo     content.Repository
	store    storage.Store
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	hooks    *hooks.Registry

	generator *sitemap.Generator
	pages     *sitemap.Pages

	closers []func() error
}

func newApp(cfg *config.Config, runName string) (*app, error) {
	log, err := logger.New(logger.Config{
		Level:   cfg.Log.Level,
		Dir:     cfg.Log.Dir,
		RunName: runName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	a := &app{
		config:   cfg,
		logger:   log,
		registry: prometheus.NewRegistry(),
		hooks:    hooks.NewRegistry(),
	}
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.metrics = metrics.New(a.registry)

	if err := a.openContent(); err != nil {
		a.Close()
		return nil, err
	}

	store, err := storage.Open(cfg.StorageConfig())
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	a.store = store
	a.closers = append(a.closers, store.Close)
	a.pages = sitemap.NewPages(store)

	sink := sitemap.LoggerSink(log)
	builder, err := sitemap.NewBuilder(a.repo, &sitemap.BuilderConfig{
		BatchSize:    cfg.Sitemap.BatchSize,
		FetchTimeout: cfg.GetFetchTimeout(),
		AuthorRoles:  cfg.Sitemap.AuthorRoles,
		Hooks:        a.hooks,
		Sink:         sink,
		Metrics:      a.metrics,
		Relief:       sitemap.NewHeapGuard(cfg.HeapLimit(), cfg.Sitemap.MemoryCheckEvery),
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	a.generator = sitemap.NewGenerator(builder, sitemap.NewWriter(store, sink, a.metrics), sitemap.GeneratorConfig{
		URLsPerPage: cfg.Sitemap.URLsPerPage,
		Hooks:       a.hooks,
		Metrics:     a.metrics,
		Logger:      log,
	})

	log.Debug("Application wired",
		logger.String("content", cfg.Content.Driver),
		logger.String("storage", cfg.Storage.Driver),
		logger.String("log_file", logger.Path(log)),
	)
	return a, nil
}

func (a *app) openContent() error {
	cfg := a.config
	switch cfg.Content.Driver {
	case "fixture":
		repo, err := content.LoadFixture(cfg.Content.Fixture, cfg.Links())
		if err != nil {
			return fmt.Errorf("failed to load content fixture: %w", err)
		}
		a.repo = repo
	case "postgres", "":
		if cfg.Database.URL == "" {
			return errors.New("database.url is required for the postgres content driver")
		}
		repo, err := content.NewPostgresRepository(cfg.Database.URL, cfg.PostgresOptions())
		if err != nil {
			return fmt.Errorf("failed to connect to content database: %w", err)
		}
		a.repo = repo
		a.closers = append(a.closers, repo.Close)
	default:
		return fmt.Errorf("unknown content driver %q", cfg.Content.Driver)
	}
	return nil
}

// Close releases the stores in reverse order and flushes the logger.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	_ = a.logger.Sync()
	return errors.Join(errs...)
}
