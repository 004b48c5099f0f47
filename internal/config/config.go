// Package config handles adapter configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables read by LoadFromEnv.
const (
	EnvDatabaseURL        = "DUCK_DATABASE_URL"
	EnvLogLevel           = "LOG_LEVEL"
	EnvLogFormat          = "LOG_FORMAT"
	EnvStatementCacheSize = "STATEMENT_CACHE_SIZE"
	EnvEnv                = "ENV"
)

// DefaultDatabaseURL opens a private in-memory database.
const DefaultDatabaseURL = ":memory:"

// Config holds the connection and logging settings.
type Config struct {
	DatabaseURL        string `yaml:"database_url"`
	LogLevel           string `yaml:"log_level"`            // debug, info, warn, error (default "info")
	LogFormat          string `yaml:"log_format"`           // json or text (default "text")
	StatementCacheSize int    `yaml:"statement_cache_size"` // 0 = unbounded
	Env                string `yaml:"env"`                  // "development" (default) or "production"

	// Warnings collects non-fatal warnings generated during config loading.
	// These are logged by the caller after the logger is initialised.
	Warnings []string `yaml:"-"`
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when running in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// NewLogger builds a logger writing to w in the configured format and level.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg.finish()
}

// LoadFile loads configuration from a YAML file, then lets non-empty
// environment variables override it. A missing file is not an error.
func LoadFile(path string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-controlled
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg.finish()
}

// Override replaces DatabaseURL and LogLevel with the non-empty arguments and
// validates the result again. Warnings are recomputed.
func (c *Config) Override(databaseURL, logLevel string) (*Config, error) {
	if databaseURL != "" {
		c.DatabaseURL = databaseURL
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
	c.Warnings = nil
	return c.finish()
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvDatabaseURL); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv(EnvEnv); v != "" {
		c.Env = v
	}
	if v := os.Getenv(EnvStatementCacheSize); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s must be an integer: %w", EnvStatementCacheSize, err)
		}
		c.StatementCacheSize = n
	}
	return nil
}

func (c *Config) finish() (*Config, error) {
	if c.DatabaseURL == "" {
		c.DatabaseURL = DefaultDatabaseURL
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
	if c.StatementCacheSize < 0 {
		return nil, fmt.Errorf("statement cache size must not be negative, got %d", c.StatementCacheSize)
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		return nil, fmt.Errorf("unsupported log format %q (want json or text)", c.LogFormat)
	}

	if c.DatabaseURL == DefaultDatabaseURL {
		c.Warnings = append(c.Warnings, "no database file configured; data lives in memory and is lost on exit")
		if c.IsProduction() {
			return nil, fmt.Errorf("%s must point to a database file in production (ENV=production)", EnvDatabaseURL)
		}
	}
	return c, nil
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(strings.TrimPrefix(key, "export "))
		value = stripQuotes(strings.TrimSpace(value))
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
