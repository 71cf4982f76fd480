package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("server.max_body_bytes must be > 0"))
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level)); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}

	switch c.Sheets.Source {
	case SourceCSV:
		if c.Sheets.CSVDir == "" {
			errs = append(errs, errors.New("sheets.csv_dir is required for the csv source"))
		}
	case SourceHTTP:
		if c.Sheets.BaseURL == "" || c.Sheets.SpreadsheetID == "" {
			errs = append(errs, errors.New("sheets.base_url and sheets.spreadsheet_id are required for the http source"))
		}
	default:
		errs = append(errs, fmt.Errorf("sheets.source must be csv or http, got %q", c.Sheets.Source))
	}
	if c.Sheets.CacheTTL < 0 {
		errs = append(errs, errors.New("sheets.cache_ttl must be >= 0"))
	}

	switch c.Storage.Driver {
	case DriverMemory:
	case DriverPostgres, DriverClickhouse, DriverSQLite:
		if c.Storage.DSN == "" {
			errs = append(errs, fmt.Errorf("storage.dsn is required for the %s driver", c.Storage.Driver))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver must be memory, postgres, clickhouse or sqlite, got %q", c.Storage.Driver))
	}

	if c.Bulk.Concurrency <= 0 {
		errs = append(errs, errors.New("bulk.concurrency must be > 0"))
	}
	if c.Schedule.Cron != "" {
		if _, err := cron.ParseStandard(c.Schedule.Cron); err != nil {
			errs = append(errs, fmt.Errorf("schedule.cron: %w", err))
		}
		if c.Schedule.OutputDir == "" {
			errs = append(errs, errors.New("schedule.output_dir is required when schedule.cron is set"))
		}
	}

	return errors.Join(errs...)
}
