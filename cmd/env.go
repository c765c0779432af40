package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/dermage/skin-analysis-api/internal/analysis"
	"github.com/dermage/skin-analysis-api/internal/catalog"
	"github.com/dermage/skin-analysis-api/internal/resilience"
	"github.com/dermage/skin-analysis-api/pkg/anthropic"
)

// appEnv holds the wired pipeline shared by the serve and analyze commands.
type appEnv struct {
	Store        catalog.WritableStore
	Resolver     *catalog.Resolver
	Orchestrator *analysis.Orchestrator
}

func (e *appEnv) Close() {
	if err := e.Store.Close(); err != nil {
		zap.L().Warn("store close failed", zap.Error(err))
	}
}

// initStore selects the catalog document store from config. The fs driver is
// the default and needs no external service.
func initStore(ctx context.Context) (catalog.WritableStore, error) {
	switch cfg.Catalog.Driver {
	case "", "fs":
		return catalog.NewFS(cfg.Catalog.Dir), nil
	case "sqlite":
		return catalog.NewSQLite(cfg.Catalog.DatabaseURL)
	case "postgres":
		return catalog.NewPostgres(ctx, cfg.Catalog.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown catalog driver %q (want fs, sqlite, or postgres)", cfg.Catalog.Driver)
	}
}

func initEnv(ctx context.Context) (*appEnv, error) {
	if cfg.Anthropic.Key == "" {
		return nil, eris.New("anthropic api key is required (SKINAPI_ANTHROPIC_KEY)")
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	resolver := catalog.NewResolver(st, catalog.NewCache())

	client := anthropic.NewClient(cfg.Anthropic.Key, cfg.Anthropic.RPS)
	invoker := analysis.NewClaudeInvoker(client, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens)

	policy := resilience.DefaultPolicy()
	if cfg.Retry.MaxAttempts > 0 {
		policy.MaxAttempts = cfg.Retry.MaxAttempts
	}
	if cfg.Retry.QuotaBackoffSecs > 0 {
		policy.QuotaBackoff = time.Duration(cfg.Retry.QuotaBackoffSecs) * time.Second
	}
	if cfg.Retry.BackoffSecs > 0 {
		policy.Backoff = time.Duration(cfg.Retry.BackoffSecs) * time.Second
	}

	return &appEnv{
		Store:        st,
		Resolver:     resolver,
		Orchestrator: analysis.NewOrchestrator(resolver, invoker, policy),
	}, nil
}
