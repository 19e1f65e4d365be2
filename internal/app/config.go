package app

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/specialistvlad/pipegraph/internal/emit"
)

// DefaultConfigFile is read from the working directory when no config file
// is named explicitly.
const DefaultConfigFile = "pipegraph.toml"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// Paths are .hcl files or directories holding the pipeline definition.
	Paths []string

	LogFormat string
	LogLevel  string

	// Format is the description format written by Emit.
	Format emit.Format
	// Output is the file descriptions are written to; empty means stdout.
	Output string
}

// FileConfig is the on-disk configuration file. Every field is optional
// and command-line flags take precedence.
type FileConfig struct {
	Paths     []string `toml:"paths"`
	LogFormat string   `toml:"log_format"`
	LogLevel  string   `toml:"log_level"`
	Format    string   `toml:"format"`
	Output    string   `toml:"output"`
}

// LoadFileConfig reads a TOML configuration file. A missing file is only an
// error when required is set.
func LoadFileConfig(path string, required bool) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return &FileConfig{}, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var fc FileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		var decErr *toml.DecodeError
		if errors.As(err, &decErr) {
			row, col := decErr.Position()
			return nil, fmt.Errorf("invalid config file %s at line %d, column %d: %w", path, row, col, err)
		}
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return &fc, nil
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)

	if _, err := parseLevel(cfg.LogLevel); err != nil {
		return nil, err
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("invalid log-format %q: must be 'text' or 'json'", cfg.LogFormat)
	}

	format, err := emit.ParseFormat(string(cfg.Format))
	if err != nil {
		return nil, err
	}
	cfg.Format = format

	return &cfg, nil
}
