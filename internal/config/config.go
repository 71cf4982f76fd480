// Package config loads risklo settings from YAML, .env files and RISKLO_* variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Sheet sources.
const (
	SourceCSV  = "csv"
	SourceHTTP = "http"
)

// Storage drivers.
const (
	DriverMemory     = "memory"
	DriverPostgres   = "postgres"
	DriverClickhouse = "clickhouse"
	DriverSQLite     = "sqlite"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Sheets   SheetsConfig   `yaml:"sheets"`
	Redis    RedisConfig    `yaml:"redis"`
	Storage  StorageConfig  `yaml:"storage"`
	Bulk     BulkConfig     `yaml:"bulk"`
	Schedule ScheduleConfig `yaml:"schedule"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

type SheetsConfig struct {
	Source        string `yaml:"source"`
	CSVDir        string `yaml:"csv_dir"`
	BaseURL       string `yaml:"base_url"`
	SpreadsheetID string `yaml:"spreadsheet_id"`
	APIKey        string `yaml:"api_key"`

	RatePerSec      float64       `yaml:"rate_per_sec"`
	Burst           int           `yaml:"burst"`
	BreakerFailures uint32        `yaml:"breaker_failures"`
	BreakerTimeout  time.Duration `yaml:"breaker_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`

	CacheTTL time.Duration `yaml:"cache_ttl"` // 0 disables caching
}

type RedisConfig struct {
	Addr     string `yaml:"addr"` // empty disables the sheet cache
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type StorageConfig struct {
	Driver   string `yaml:"driver"`
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"max_conns"`
}

type BulkConfig struct {
	Concurrency int `yaml:"concurrency"`
}

type ScheduleConfig struct {
	Cron      string `yaml:"cron"` // empty disables scheduled re-analysis
	OutputDir string `yaml:"output_dir"`
}

func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxBodyBytes:    5 << 20,
		},
		Log: LogConfig{
			Level: "info",
		},
		Sheets: SheetsConfig{
			Source:          SourceCSV,
			CSVDir:          "sheets",
			BaseURL:         "https://sheets.googleapis.com",
			RatePerSec:      5,
			Burst:           10,
			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
			RequestTimeout:  20 * time.Second,
			CacheTTL:        5 * time.Minute,
		},
		Storage: StorageConfig{
			Driver:   DriverMemory,
			MaxConns: 10,
		},
		Bulk: BulkConfig{
			Concurrency: 4,
		},
		Schedule: ScheduleConfig{
			OutputDir: "output",
		},
	}
}

// LoadFile reads path over the defaults.
func LoadFile(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Load reads the optional .env file and config file, then applies the
// environment. An empty path skips the config file.
func Load(path string) (Config, error) {
	LoadEnvFile(".env")

	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = LoadFile(path); err != nil {
			return cfg, err
		}
	}
	cfg.ApplyEnv()
	return cfg, cfg.Validate()
}

func (c *Config) ApplyEnv() {
	setString(&c.Server.Addr, "RISKLO_ADDR")
	setString(&c.Log.Level, "RISKLO_LOG_LEVEL")
	setBool(&c.Log.Pretty, "RISKLO_LOG_PRETTY")

	setString(&c.Sheets.Source, "RISKLO_SHEETS_SOURCE")
	setString(&c.Sheets.CSVDir, "RISKLO_SHEETS_CSV_DIR")
	setString(&c.Sheets.BaseURL, "RISKLO_SHEETS_BASE_URL")
	setString(&c.Sheets.SpreadsheetID, "RISKLO_SPREADSHEET_ID")
	setString(&c.Sheets.APIKey, "RISKLO_SHEETS_API_KEY")
	setDuration(&c.Sheets.CacheTTL, "RISKLO_SHEETS_CACHE_TTL")

	setString(&c.Redis.Addr, "RISKLO_REDIS_ADDR")
	setString(&c.Redis.Password, "RISKLO_REDIS_PASSWORD")
	if v := os.Getenv("RISKLO_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Redis.DB = n
		}
	}

	setString(&c.Storage.Driver, "RISKLO_STORAGE_DRIVER")
	setString(&c.Storage.DSN, "RISKLO_STORAGE_DSN")

	if v := os.Getenv("RISKLO_BULK_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Bulk.Concurrency = n
		}
	}

	setString(&c.Schedule.Cron, "RISKLO_SCHEDULE_CRON")
	setString(&c.Schedule.OutputDir, "RISKLO_OUTPUT_DIR")

	c.Sheets.Source = strings.ToLower(strings.TrimSpace(c.Sheets.Source))
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = strings.EqualFold(v, "true") || v == "1"
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
