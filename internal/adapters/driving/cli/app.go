package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/custodia-labs/tap-facebook-pages/internal/adapters/driven/auth"
	"github.com/custodia-labs/tap-facebook-pages/internal/adapters/driven/config/file"
	"github.com/custodia-labs/tap-facebook-pages/internal/adapters/driven/schema"
	"github.com/custodia-labs/tap-facebook-pages/internal/adapters/driven/singer"
	"github.com/custodia-labs/tap-facebook-pages/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/tap-facebook-pages/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/tap-facebook-pages/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/tap-facebook-pages/internal/connectors/facebook"
	"github.com/custodia-labs/tap-facebook-pages/internal/core/domain"
	"github.com/custodia-labs/tap-facebook-pages/internal/core/ports/driven"
	"github.com/custodia-labs/tap-facebook-pages/internal/core/services"
	"github.com/custodia-labs/tap-facebook-pages/internal/logger"
)

// app holds the adapters and services wired from one configuration.
type app struct {
	config    *domain.TapConfig
	connector *facebook.Connector
	states    driven.StateStore
	runs      driven.RunStore
	catalog   *services.CatalogService
	state     *services.StateService
	closers   []func() error
}

// openApp loads the configuration from --config and wires the state backend
// and the connector.
func openApp(ctx context.Context) (*app, error) {
	store, err := file.NewConfigStore(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", store.Path(), err)
	}
	logger.Debug("Loaded config from %s (%d pages, state backend %s)",
		store.Path(), len(cfg.PageIDs), cfg.StateBackend)

	fbConfig, err := facebook.ParseConfig(cfg)
	if err != nil {
		return nil, err
	}

	a := &app{
		config:    cfg,
		connector: facebook.New(fbConfig, auth.NewTokenProvider(cfg)),
		catalog:   services.NewCatalogService(facebook.Streams()),
	}
	a.closers = append(a.closers, a.connector.Close)

	if err := a.openStateBackend(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	a.state = services.NewStateService(a.states, a.runs)
	return a, nil
}

func (a *app) openStateBackend(ctx context.Context) error {
	switch a.config.StateBackend {
	case domain.StateBackendSQLite:
		db, err := sqlite.NewStore(a.config.StateDir)
		if err != nil {
			return fmt.Errorf("opening sqlite state: %w", err)
		}
		a.states, a.runs = db.StateStore(), db.RunStore()
		a.closers = append(a.closers, db.Close)
	case domain.StateBackendPostgres:
		db, err := postgres.NewStore(ctx, a.config.StateDSN)
		if err != nil {
			return fmt.Errorf("opening postgres state: %w", err)
		}
		a.states, a.runs = db.StateStore(), db.RunStore()
		a.closers = append(a.closers, db.Close)
	default:
		a.states, a.runs = memory.NewStateStore(), memory.NewRunStore()
	}
	return nil
}

// orchestrator creates a sync orchestrator writing Singer messages to out.
func (a *app) orchestrator(out io.Writer) *services.SyncOrchestrator {
	return services.NewSyncOrchestrator(
		a.connector,
		a.states,
		a.runs,
		singer.NewWriter(out),
		schema.NewValidator(),
		domain.PartitionsFor(a.config.PageIDs),
		a.config.Start(),
	)
}

// Close releases the app resources in reverse order.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
