// Package config loads service settings from an optional YAML file with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config struct to hold the configuration settings
type Config struct {
	Environment string           `yaml:"environment"`
	LogLevel    string           `yaml:"log_level"`
	Timezone    string           `yaml:"timezone"`
	Server      ServerConfig     `yaml:"server"`
	Database    DatabaseConfig   `yaml:"database"`
	NATS        NATSConfig       `yaml:"nats"`
	ClickHouse  ClickHouseConfig `yaml:"clickhouse"`
	Authentik   AuthentikConfig  `yaml:"authentik"`
	Ingestion   IngestionConfig  `yaml:"ingestion"`
	Scraper     ScraperConfig    `yaml:"scraper"`
}

// ServerConfig holds listener ports.
type ServerConfig struct {
	Port           string   `yaml:"port"`
	GRPCPort       string   `yaml:"grpc_port"`
	AllowedOrigins []string `yaml:"allowed_origins"` // CORS on the ingest endpoints
}

// DatabaseConfig selects and configures the key-value store.
type DatabaseConfig struct {
	Driver     string `yaml:"driver"` // memory|sqlite|postgres
	SQLiteFile string `yaml:"sqlite_file"`
	URL        string `yaml:"url"`
	SeedDir    string `yaml:"seed_dir"`
}

// NATSConfig holds NATS configuration.
type NATSConfig struct {
	URL        string `yaml:"url"`
	Subject    string `yaml:"subject"`
	StreamName string `yaml:"stream_name"`
}

// ClickHouseConfig holds the audit sink connection.
type ClickHouseConfig struct {
	Addr     string `yaml:"addr"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// AuthentikConfig holds the OAuth2 client settings for the admin surface.
type AuthentikConfig struct {
	BaseURL      string `yaml:"base_url"`
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
}

// IngestionConfig holds the kill switch and ingest endpoint limits.
type IngestionConfig struct {
	Enabled   bool    `yaml:"enabled"`
	RateLimit float64 `yaml:"rate_limit"` // requests per second per client IP
	Burst     int     `yaml:"burst"`
}

// ScraperConfig drives the scheduled scrape trigger.
type ScraperConfig struct {
	WebhookURL string        `yaml:"webhook_url"`
	CronSecret string        `yaml:"cron_secret"`
	Schedule   string        `yaml:"schedule"` // cron spec with seconds; empty disables
	Timeout    time.Duration `yaml:"timeout"`
}

// Defaults returns the development configuration.
func Defaults() *Config {
	return &Config{
		Environment: "development",
		LogLevel:    "info",
		Timezone:    "UTC",
		Server:      ServerConfig{Port: "3000", GRPCPort: "50051"},
		Database:    DatabaseConfig{Driver: "memory", SQLiteFile: "dev.sqlite"},
		NATS:        NATSConfig{URL: "nats://localhost:4222", Subject: "scores.events", StreamName: "SCORES_EVENTS"},
		ClickHouse:  ClickHouseConfig{Addr: "localhost:9000", Database: "default", User: "default"},
		Authentik:   AuthentikConfig{RedirectURL: "http://localhost:3000/auth/callback"},
		Ingestion:   IngestionConfig{Enabled: true, RateLimit: 5, Burst: 20},
		Scraper:     ScraperConfig{Timeout: 30 * time.Second},
	}
}

// IsDevelopment reports whether embedded NATS and mock auth should be used.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "" || c.Environment == "development"
}

// Location returns the configured timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Today returns the current calendar date in the configured timezone.
func (c *Config) Today() string {
	return time.Now().In(c.Location()).Format("2006-01-02")
}

// LoadConfig loads the configuration from a YAML file. A missing file is not
// an error; defaults and the environment are used instead.
func LoadConfig(filename string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(filename)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", filename, err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	str := map[string]*string{
		"ENVIRONMENT":             &cfg.Environment,
		"LOG_LEVEL":               &cfg.LogLevel,
		"TIMEZONE":                &cfg.Timezone,
		"PORT":                    &cfg.Server.Port,
		"GRPC_PORT":               &cfg.Server.GRPCPort,
		"DB_DRIVER":               &cfg.Database.Driver,
		"SQLITE_FILE":             &cfg.Database.SQLiteFile,
		"DATABASE_URL":            &cfg.Database.URL,
		"SEED_DIR":                &cfg.Database.SeedDir,
		"NATS_URL":                &cfg.NATS.URL,
		"NATS_SUBJECT":            &cfg.NATS.Subject,
		"CLICKHOUSE_ADDR":         &cfg.ClickHouse.Addr,
		"CLICKHOUSE_DB":           &cfg.ClickHouse.Database,
		"CLICKHOUSE_USER":         &cfg.ClickHouse.User,
		"CLICKHOUSE_PASSWORD":     &cfg.ClickHouse.Password,
		"AUTHENTIK_BASE_URL":      &cfg.Authentik.BaseURL,
		"AUTHENTIK_CLIENT_ID":     &cfg.Authentik.ClientID,
		"AUTHENTIK_CLIENT_SECRET": &cfg.Authentik.ClientSecret,
		"AUTHENTIK_REDIRECT_URL":  &cfg.Authentik.RedirectURL,
		"SCRAPE_WEBHOOK_URL":      &cfg.Scraper.WebhookURL,
		"CRON_SECRET":             &cfg.Scraper.CronSecret,
		"SCRAPE_SCHEDULE":         &cfg.Scraper.Schedule,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		cfg.Server.AllowedOrigins = strings.Split(v, ",")
	}
	if v := os.Getenv("INGESTION_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid INGESTION_ENABLED value: %v", err)
		}
		cfg.Ingestion.Enabled = b
	}
	if v := os.Getenv("INGEST_RATE_LIMIT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid INGEST_RATE_LIMIT value: %v", err)
		}
		cfg.Ingestion.RateLimit = f
	}
	if v := os.Getenv("INGEST_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid INGEST_BURST value: %v", err)
		}
		cfg.Ingestion.Burst = n
	}
	if v := os.Getenv("SCRAPE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid SCRAPE_TIMEOUT value: %v", err)
		}
		cfg.Scraper.Timeout = d
	}
	return nil
}

// Validate checks settings that would otherwise fail later at startup.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Database.Driver) {
	case "memory", "sqlite":
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL environment variable is required for postgres driver")
		}
	default:
		return fmt.Errorf("unknown DB_DRIVER: %s (valid: memory, sqlite, postgres)", c.Database.Driver)
	}

	if !c.IsDevelopment() && (c.Authentik.BaseURL == "" || c.Authentik.ClientID == "" || c.Authentik.ClientSecret == "") {
		return fmt.Errorf("AUTHENTIK_BASE_URL, AUTHENTIK_CLIENT_ID, and AUTHENTIK_CLIENT_SECRET environment variables are required for production")
	}
	if c.Ingestion.RateLimit <= 0 || c.Ingestion.Burst <= 0 {
		return fmt.Errorf("ingest rate limit and burst must be positive")
	}
	return nil
}
