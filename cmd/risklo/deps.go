package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"risklo/internal/config"
	"risklo/internal/observability"
	"risklo/internal/sheets"
	"risklo/internal/storage"
	chstore "risklo/internal/storage/clickhouse"
	"risklo/internal/storage/memory"
	"risklo/internal/storage/migrations"
	pgstore "risklo/internal/storage/postgres"
	sqlitestore "risklo/internal/storage/sqlite"
)

// openStore connects the configured analysis store and runs its migrations.
func openStore(ctx context.Context, cfg config.StorageConfig, m *observability.Metrics) (storage.AnalysisStore, func(), error) {
	var (
		store   storage.AnalysisStore
		cleanup func()
	)

	switch cfg.Driver {
	case config.DriverMemory:
		store, cleanup = memory.NewAnalysisStore(), func() {}

	case config.DriverPostgres:
		pool, err := pgstore.NewPool(ctx, cfg.DSN, cfg.MaxConns)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("postgres migrations: %w", err)
		}
		store, cleanup = pgstore.NewAnalysisStore(pool), pool.Close

	case config.DriverClickhouse:
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		store, cleanup = chstore.NewAnalysisStore(conn), func() { conn.Close() }

	case config.DriverSQLite:
		db, err := sqlitestore.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}
		if err := migrations.RunSQLiteMigrations(ctx, db); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("sqlite migrations: %w", err)
		}
		store, cleanup = sqlitestore.NewAnalysisStore(db), func() { db.Close() }

	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}

	return observability.InstrumentStore(store, cfg.Driver, m), cleanup, nil
}

// newProvider builds the sheet source, cached in Redis when configured.
func newProvider(ctx context.Context, cfg config.Config, logger zerolog.Logger) (sheets.Provider, func(), error) {
	var provider sheets.Provider
	switch cfg.Sheets.Source {
	case config.SourceHTTP:
		provider = sheets.NewHTTPProvider(sheets.HTTPConfig{
			BaseURL:         cfg.Sheets.BaseURL,
			SpreadsheetID:   cfg.Sheets.SpreadsheetID,
			APIKey:          cfg.Sheets.APIKey,
			RatePerSec:      cfg.Sheets.RatePerSec,
			Burst:           cfg.Sheets.Burst,
			BreakerFailures: cfg.Sheets.BreakerFailures,
			BreakerTimeout:  cfg.Sheets.BreakerTimeout,
			Client:          &http.Client{Timeout: cfg.Sheets.RequestTimeout},
		})
	default:
		provider = sheets.NewCSVDirProvider(cfg.Sheets.CSVDir)
	}

	if cfg.Redis.Addr == "" || cfg.Sheets.CacheTTL == 0 {
		return provider, func() {}, nil
	}
	cache, err := sheets.NewRedisCache(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", cfg.Sheets.CacheTTL).Msg("sheet cache enabled")
	return sheets.NewCachedProvider(provider, cache, cfg.Sheets.CacheTTL, logger), func() { cache.Close() }, nil
}
