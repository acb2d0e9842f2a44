// Package config loads runtime settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/joho/godotenv"

	"github.com/matsumo0922/TrumpDetection/internal/logging"
)

// Environment keys.
const (
	EnvLogLevel     = "TRUMP_LOG_LEVEL"
	EnvBackend      = "TRUMP_BACKEND"
	EnvWorkers      = "TRUMP_WORKERS"
	EnvExtensions   = "TRUMP_EXTENSIONS"
	EnvOutputDir    = "TRUMP_OUTPUT_DIR"
	EnvOutputSuffix = "TRUMP_OUTPUT_SUFFIX"
	EnvJPEGQuality  = "TRUMP_JPEG_QUALITY"
)

// DefaultEnvFile is read by Load when no file is named.
const DefaultEnvFile = ".env"

// Config holds the settings shared by the CLI and the MCP server.
type Config struct {
	LogLevel string
	// Backend is a vision registry name; empty selects the default.
	Backend string
	Workers int
	// Extensions are lower-case and carry no leading dot.
	Extensions   []string
	OutputDir    string
	OutputSuffix string
	JPEGQuality  int
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		LogLevel:     logging.DefaultLevel,
		Workers:      runtime.NumCPU(),
		Extensions:   []string{"jpg", "png"},
		OutputDir:    "output",
		OutputSuffix: "-output",
		JPEGQuality:  95,
	}
}

// Load reads the named .env files (DefaultEnvFile when none are given),
// then builds the configuration from the environment. Missing files are
// skipped; variables already set in the environment win over file values.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{DefaultEnvFile}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %s: %w", f, err)
		}
	}
	return FromEnv()
}

// FromEnv builds the configuration from the process environment alone.
func FromEnv() (*Config, error) {
	cfg := Defaults()
	cfg.LogLevel = getEnvOrDefault(EnvLogLevel, cfg.LogLevel)
	cfg.Backend = getEnvOrDefault(EnvBackend, cfg.Backend)
	cfg.OutputDir = getEnvOrDefault(EnvOutputDir, cfg.OutputDir)
	cfg.OutputSuffix = getEnvOrDefault(EnvOutputSuffix, cfg.OutputSuffix)

	var err error
	if cfg.Workers, err = getEnvAsIntOrDefault(EnvWorkers, cfg.Workers); err != nil {
		return nil, err
	}
	if cfg.JPEGQuality, err = getEnvAsIntOrDefault(EnvJPEGQuality, cfg.JPEGQuality); err != nil {
		return nil, err
	}
	if v := os.Getenv(EnvExtensions); v != "" {
		cfg.Extensions = ParseExtensions(v)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks every field.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%s: %w", EnvLogLevel, err)
	}
	if c.Workers < 1 || c.Workers > 256 {
		return fmt.Errorf("%s must be between 1 and 256, got %d", EnvWorkers, c.Workers)
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("%s must be between 1 and 100, got %d", EnvJPEGQuality, c.JPEGQuality)
	}
	if len(c.Extensions) == 0 {
		return fmt.Errorf("%s lists no extensions", EnvExtensions)
	}
	for _, ext := range c.Extensions {
		if _, err := imaging.FormatFromExtension(ext); err != nil {
			return fmt.Errorf("%s: cannot write %q files", EnvExtensions, ext)
		}
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		return fmt.Errorf("%s is empty", EnvOutputDir)
	}
	if c.OutputSuffix == "" {
		return fmt.Errorf("%s is empty", EnvOutputSuffix)
	}
	return nil
}

// Supports reports whether ext (with or without its dot, any case) is one
// of the configured extensions.
func (c *Config) Supports(ext string) bool {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, e := range c.Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// ParseExtensions splits a comma-separated list, normalising each entry.
func ParseExtensions(list string) []string {
	var out []string
	for _, e := range strings.Split(list, ",") {
		e = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, value)
	}
	return n, nil
}
