package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/KilimcininKorOglu/automember/internal/acl"
	"github.com/KilimcininKorOglu/automember/internal/automember"
	"github.com/KilimcininKorOglu/automember/internal/backend"
	"github.com/KilimcininKorOglu/automember/internal/config"
	"github.com/KilimcininKorOglu/automember/internal/ldif"
	"github.com/KilimcininKorOglu/automember/internal/logging"
	"github.com/KilimcininKorOglu/automember/internal/overlay"
	"github.com/KilimcininKorOglu/automember/internal/schema"
)

// app is one opened directory: store, backend, database and the overlay
// stacked on it.
type app struct {
	cfg      *config.Config
	logger   logging.Logger
	schema   *schema.Schema
	store    backend.Store
	backend  *backend.Backend
	db       *overlay.Database
	overlay  *automember.Overlay
	access   *acl.Evaluator
	registry *prometheus.Registry
}

// appOptions tune openApp for commands that only need part of the stack.
type appOptions struct {
	logWriter io.Writer
	skipSeed  bool
}

// openApp builds the directory described by cfg. The seed LDIF is loaded
// when the store holds no suffix entry yet.
func openApp(ctx context.Context, cfg *config.Config, opts appOptions) (*app, error) {
	logger := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
		Writer: opts.logWriter,
	})

	s, err := loadSchema(cfg.Schema.Files)
	if err != nil {
		return nil, err
	}

	store, err := openStore(cfg.Storage, logger)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		logger:   logger,
		schema:   s,
		store:    store,
		backend:  backend.New(store, s, logger),
		registry: prometheus.NewRegistry(),
	}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	accessCfg, err := cfg.Access.ACL()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.access = acl.NewEvaluator(accessCfg)

	a.db = overlay.NewDatabase(cfg.Directory.Suffix, a.backend,
		overlay.WithLogger(logger),
		overlay.WithAccessChecker(a.access),
	)
	a.overlay = automember.New(a.db,
		automember.WithLogger(logger),
		automember.WithMetrics(automember.NewMetrics(a.registry)),
	)
	if err := a.db.Use(a.overlay); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.applyOverlay(cfg.Automember); err != nil {
		a.Close()
		return nil, err
	}

	if !opts.skipSeed && cfg.Storage.LDIF != "" {
		if err := a.seed(ctx, cfg.Storage.LDIF); err != nil {
			a.Close()
			return nil, err
		}
	}

	return a, nil
}

func loadSchema(files []string) (*schema.Schema, error) {
	s := schema.LoadDefaultSchema()
	for _, path := range files {
		if err := s.LoadSchema(path); err != nil {
			return nil, fmt.Errorf("schema: %w", err)
		}
	}
	if err := automember.Initialize(s); err != nil {
		return nil, err
	}
	return s, nil
}

func openStore(cfg config.StorageConfig, logger logging.Logger) (backend.Store, error) {
	switch cfg.Backend {
	case config.BackendBadger:
		return backend.OpenBadgerStore(backend.BadgerOptions{
			Path:       cfg.Path,
			SyncWrites: cfg.SyncWrites,
			CacheSize:  cfg.CacheSize,
			Logger:     logger,
		})
	default:
		return backend.NewMemoryStore(), nil
	}
}

// applyOverlay installs the overlay section atomically.
func (a *app) applyOverlay(section config.AutomemberConfig) error {
	oc, err := section.OverlayConfig()
	if err != nil {
		return err
	}
	return a.overlay.Apply(oc)
}

// reload applies the reloadable sections of a new configuration.
func (a *app) reload(newCfg *config.Config) error {
	accessCfg, err := newCfg.Access.ACL()
	if err != nil {
		return err
	}
	if err := a.applyOverlay(newCfg.Automember); err != nil {
		return err
	}
	a.access.SetConfig(accessCfg)
	a.cfg = newCfg
	return nil
}

// seed imports path unless the suffix entry already exists.
func (a *app) seed(ctx context.Context, path string) error {
	_, err := a.backend.Get(ctx, a.cfg.Directory.Suffix)
	if err == nil {
		a.logger.Debug("store already populated, seed skipped", "file", path)
		return nil
	}
	if !errors.Is(err, backend.ErrEntryNotFound) {
		return err
	}

	n, err := a.importFile(ctx, path)
	if err != nil {
		return err
	}
	a.logger.Info("seed loaded", "file", path, "entries", n)
	return nil
}

func (a *app) importFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return ldif.Import(ctx, a.backend, f, a.cfg.Directory.RootDN)
}

// Close closes the store.
func (a *app) Close() error {
	return a.backend.Close()
}
