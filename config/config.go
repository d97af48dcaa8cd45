package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/INLOpen/meryl/core"
	"gopkg.in/yaml.v3"
)

// LoggingConfig holds logging-specific configurations.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // e.g., "debug", "info", "warn", "error"
	Output string `yaml:"output"` // e.g., "stdout", "stderr", "file", "none"
	File   string `yaml:"file"`   // Path to the log file, used if output is "file"
}

// TracingConfig holds configuration for distributed tracing.
type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Endpoint    string `yaml:"endpoint"` // e.g., "localhost:4317" for gRPC OTLP collector
	Protocol    string `yaml:"protocol"` // "grpc" or "http"
	ServiceName string `yaml:"service_name"`
}

// WriterConfig holds the defaults used when building a file set.
type WriterConfig struct {
	MerSize uint32 `yaml:"mer_size"`
	// PrefixSize is the number of prefix bits; a negative value picks the
	// smallest encoding for the number of input mers.
	PrefixSize        int    `yaml:"prefix_size"`
	MerCompression    uint32 `yaml:"mer_compression"`
	Canonical         bool   `yaml:"canonical"`
	PositionsEnabled  bool   `yaml:"positions_enabled"`
	PositionsCap      uint32 `yaml:"positions_cap"`
	IndexEncoding     string `yaml:"index_encoding"` // "auto", "packed" or "fixed"
	DataEncoding      string `yaml:"data_encoding"`
	PositionsEncoding string `yaml:"positions_encoding"`
	HistogramLimit    uint64 `yaml:"histogram_limit"`
	LockTimeout       string `yaml:"lock_timeout"`
}

// InputConfig controls how text listings are read.
type InputConfig struct {
	// Compression is "auto" to pick from the file extension, or one of
	// "none", "snappy", "lz4", "zstd".
	Compression string `yaml:"compression"`
}

// OutputConfig controls how the dump tool renders results.
type OutputConfig struct {
	Format      string `yaml:"format"`      // "auto", "table" or "tsv"
	Compression string `yaml:"compression"` // same values as InputConfig.Compression
	Parallelism int    `yaml:"parallelism"` // file sets summarised concurrently
}

// Config is the top-level configuration struct.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Tracing TracingConfig `yaml:"tracing"`
	Writer  WriterConfig  `yaml:"writer"`
	Input   InputConfig   `yaml:"input"`
	Output  OutputConfig  `yaml:"output"`
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	for field, v := range map[string]string{
		"writer.index_encoding":     c.Writer.IndexEncoding,
		"writer.data_encoding":      c.Writer.DataEncoding,
		"writer.positions_encoding": c.Writer.PositionsEncoding,
	} {
		if _, err := core.ParseEncoding(v); err != nil {
			return core.NewValidationError(field, v, "%v", err)
		}
	}
	for field, v := range map[string]string{
		"input.compression":  c.Input.Compression,
		"output.compression": c.Output.Compression,
	} {
		if v == "auto" {
			continue
		}
		if _, err := core.ParseCompressionType(v); err != nil {
			return core.NewValidationError(field, v, "%v", err)
		}
	}
	switch c.Output.Format {
	case "auto", "table", "tsv":
	default:
		return core.NewValidationError("output.format", c.Output.Format, "must be auto, table or tsv")
	}
	switch c.Tracing.Protocol {
	case "grpc", "http":
	default:
		return core.NewValidationError("tracing.protocol", c.Tracing.Protocol, "must be grpc or http")
	}
	return nil
}

// ParseDuration parses a duration string. Returns the default duration if the string is empty or invalid.
// Logs a warning if the string is invalid but not empty.
func ParseDuration(durationStr string, defaultDuration time.Duration, logger *slog.Logger) time.Duration {
	if durationStr == "" || durationStr == "0" {
		return defaultDuration
	}
	d, err := time.ParseDuration(durationStr)
	if err != nil {
		if logger != nil {
			logger.Warn("Invalid duration format, using default", "input", durationStr, "default", defaultDuration.String(), "error", err)
		}
		return defaultDuration
	}
	return d
}

// Load reads configuration from an io.Reader.
// This is the core logic, separated for testability.
func Load(r io.Reader) (*Config, error) {
	// Set default values
	cfg := &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Output: "stderr",
			File:   "meryl.log",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			Endpoint:    "localhost:4317",
			Protocol:    "grpc",
			ServiceName: "meryl",
		},
		Writer: WriterConfig{
			MerSize:           21,
			PrefixSize:        -1,
			PositionsCap:      1024,
			IndexEncoding:     "auto",
			DataEncoding:      "packed",
			PositionsEncoding: "fixed",
			HistogramLimit:    2 * 1024 * 1024,
			LockTimeout:       "10s",
		},
		Input: InputConfig{
			Compression: "auto",
		},
		Output: OutputConfig{
			Format:      "auto",
			Compression: "auto",
			Parallelism: 4,
		},
	}

	// If the reader is nil, it's like an empty file, return defaults.
	if r == nil {
		return cfg, nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config data: %w", err)
	}
	if len(data) == 0 {
		return cfg, nil
	}

	// Unmarshal YAML into the config struct, overwriting defaults
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfig reads configuration from a YAML file by path. An empty path or
// a missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return Load(nil)
	}
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Load(nil)
		}
		return nil, fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer file.Close()

	return Load(file)
}
