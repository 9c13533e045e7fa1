package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/kiranshivaraju/acrasync/pkg/fingerprint"
)

// Config holds all configuration for acrasync.
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Redmine     RedmineConfig
	Sheets      SheetsConfig
	Sync        SyncConfig
	Description DescriptionConfig
	Fingerprint FingerprintConfig
	Log         LogConfig
}

type ServerConfig struct {
	Port              int
	Env               string
	RequestsPerMinute int
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

type RedmineConfig struct {
	BaseURL            string
	APIKey             string
	ProjectID          int
	TrackerID          int
	FingerprintFieldID int
	// ClosedStatusID is given to duplicate issues; 0 leaves them open.
	ClosedStatusID int
	Timeout        time.Duration
}

type SheetsConfig struct {
	BaseURL       string
	SpreadsheetID string
	Sheet         string
	Token         string
	Timeout       time.Duration
}

type SyncConfig struct {
	// Interval between scheduled runs of the server; 0 disables scheduling.
	Interval time.Duration
	Timeout  time.Duration
}

type DescriptionConfig struct {
	Timezone string
	Location *time.Location
}

type FingerprintConfig struct {
	Algorithm string
	ZeroPad   bool
}

// Hasher returns the configured fingerprint hasher.
func (c FingerprintConfig) Hasher() (fingerprint.Hasher, error) {
	return fingerprint.New(c.Algorithm, c.ZeroPad)
}

type LogConfig struct {
	Level slog.Level
}

// Load reads configuration from environment variables, after loading a .env file
// when one exists, and returns a validated Config.
// The database and cache are only checked by ValidateServer.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:              envInt("ACRASYNC_PORT", 8080),
			Env:               envString("ACRASYNC_ENV", "development"),
			RequestsPerMinute: envInt("ACRASYNC_REQUESTS_PER_MINUTE", 60),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Redmine: RedmineConfig{
			BaseURL:            os.Getenv("REDMINE_BASE_URL"),
			APIKey:             os.Getenv("REDMINE_API_KEY"),
			ProjectID:          envInt("REDMINE_PROJECT_ID", 0),
			TrackerID:          envInt("REDMINE_TRACKER_ID", 0),
			FingerprintFieldID: envInt("REDMINE_FINGERPRINT_FIELD_ID", 0),
			ClosedStatusID:     envInt("REDMINE_CLOSED_STATUS_ID", 5),
			Timeout:            envDuration("REDMINE_TIMEOUT", 30*time.Second),
		},
		Sheets: SheetsConfig{
			BaseURL:       envString("SHEETS_BASE_URL", "https://sheets.googleapis.com"),
			SpreadsheetID: os.Getenv("SHEETS_SPREADSHEET_ID"),
			Sheet:         envString("SHEETS_SHEET", "Sheet1"),
			Token:         os.Getenv("SHEETS_TOKEN"),
			Timeout:       envDuration("SHEETS_TIMEOUT", 30*time.Second),
		},
		Sync: SyncConfig{
			Interval: envDuration("SYNC_INTERVAL", 0),
			Timeout:  envDuration("SYNC_TIMEOUT", 10*time.Minute),
		},
		Description: DescriptionConfig{
			Timezone: envString("DESCRIPTION_TIMEZONE", "UTC"),
		},
		Fingerprint: FingerprintConfig{
			Algorithm: envString("FINGERPRINT_ALGORITHM", "md5"),
			ZeroPad:   envBool("FINGERPRINT_ZERO_PAD", false),
		},
	}

	level, err := parseLevel(envString("LOG_LEVEL", "info"))
	if err != nil {
		return nil, err
	}
	cfg.Log.Level = level

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Redmine.BaseURL == "" {
		return fmt.Errorf("REDMINE_BASE_URL is required")
	}
	if !isHTTPURL(c.Redmine.BaseURL) {
		return fmt.Errorf("REDMINE_BASE_URL must start with http:// or https://, got %q", c.Redmine.BaseURL)
	}
	if c.Redmine.APIKey == "" {
		return fmt.Errorf("REDMINE_API_KEY is required")
	}
	if c.Redmine.ProjectID <= 0 {
		return fmt.Errorf("REDMINE_PROJECT_ID must be a positive issue project id")
	}
	if c.Redmine.TrackerID <= 0 {
		return fmt.Errorf("REDMINE_TRACKER_ID must be a positive tracker id")
	}
	if c.Redmine.FingerprintFieldID <= 0 {
		return fmt.Errorf("REDMINE_FINGERPRINT_FIELD_ID must be a positive custom field id")
	}
	if c.Redmine.ClosedStatusID < 0 {
		return fmt.Errorf("REDMINE_CLOSED_STATUS_ID must not be negative")
	}

	if !isHTTPURL(c.Sheets.BaseURL) {
		return fmt.Errorf("SHEETS_BASE_URL must start with http:// or https://, got %q", c.Sheets.BaseURL)
	}
	if c.Sheets.SpreadsheetID == "" {
		return fmt.Errorf("SHEETS_SPREADSHEET_ID is required")
	}
	if c.Sheets.Token == "" {
		return fmt.Errorf("SHEETS_TOKEN is required")
	}

	if c.Sync.Interval < 0 {
		return fmt.Errorf("SYNC_INTERVAL must not be negative")
	}

	loc, err := time.LoadLocation(c.Description.Timezone)
	if err != nil {
		return fmt.Errorf("DESCRIPTION_TIMEZONE: %w", err)
	}
	c.Description.Location = loc

	if _, err := c.Fingerprint.Hasher(); err != nil {
		return fmt.Errorf("FINGERPRINT_ALGORITHM %q: %w", c.Fingerprint.Algorithm, err)
	}

	return nil
}

// ValidateServer checks the settings only the HTTP server needs.
func (c *Config) ValidateServer() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error; got %q", s)
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
