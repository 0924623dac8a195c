// Package config loads application settings from the environment with
// sensible defaults, failing fast on invalid values. A .env file in the
// working directory is honored when present.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application settings. The conversion core itself takes
// these as plain arguments; only the CLI and HTTP layers read them here.
type Config struct {
	// Addr is the listen address for the HTTP server.
	Addr string

	// MaxUploadBytes caps the size of an uploaded file.
	MaxUploadBytes int64

	// DefaultPageSize is the preview page size when the client sends none.
	DefaultPageSize int

	// MaxPageSize caps the client-requested preview page size.
	MaxPageSize int

	// AllowedExtensions is the upload extension allow-list.
	AllowedExtensions []string

	// CORSOrigins lists the origins allowed to call the API.
	CORSOrigins []string

	// LogLevel is the minimum log level: debug, info, warn, error.
	LogLevel string

	// LogFormat is the log output format: text or json.
	LogFormat string
}

// Load reads configuration from the environment, preceded by .env if one
// exists, and validates it.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Addr:              envString("SERVER_ADDR", ":8000"),
		MaxUploadBytes:    envInt64("MAX_UPLOAD_SIZE", 10*1024*1024),
		DefaultPageSize:   envInt("DEFAULT_PAGE_SIZE", 10),
		MaxPageSize:       envInt("MAX_PAGE_SIZE", 500),
		AllowedExtensions: envList("ALLOWED_EXTENSIONS", ".json,.csv,.xlsx,.xls"),
		CORSOrigins:       envList("CORS_ORIGINS", "http://localhost:8000,http://localhost:3000,http://127.0.0.1:8000"),
		LogLevel:          envString("LOG_LEVEL", "info"),
		LogFormat:         envString("LOG_FORMAT", "text"),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("config: MAX_UPLOAD_SIZE must be positive, got %d", c.MaxUploadBytes)
	}
	if c.DefaultPageSize < 1 {
		return fmt.Errorf("config: DEFAULT_PAGE_SIZE must be >= 1, got %d", c.DefaultPageSize)
	}
	if c.MaxPageSize < c.DefaultPageSize {
		return fmt.Errorf("config: MAX_PAGE_SIZE %d is below DEFAULT_PAGE_SIZE %d", c.MaxPageSize, c.DefaultPageSize)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("config: LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	for _, ext := range c.AllowedExtensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("config: extension %q must start with a dot", ext)
		}
	}
	return nil
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envList(key, fallback string) []string {
	raw := envString(key, fallback)
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
