package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/INLOpen/meryl/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ValidConfig(t *testing.T) {
	yamlContent := `
writer:
  mer_size: 31
  prefix_size: 10
  positions_enabled: true
  data_encoding: fixed
output:
  format: tsv # never align columns
`
	cfg, err := Load(strings.NewReader(yamlContent))
	require.NoError(t, err)
	require.NotNil(t, cfg)

	// Check overridden values
	assert.Equal(t, uint32(31), cfg.Writer.MerSize)
	assert.Equal(t, 10, cfg.Writer.PrefixSize)
	assert.True(t, cfg.Writer.PositionsEnabled)
	assert.Equal(t, "fixed", cfg.Writer.DataEncoding)
	assert.Equal(t, "tsv", cfg.Output.Format)

	// Check defaults that were not overridden
	assert.Equal(t, uint32(1024), cfg.Writer.PositionsCap)
	assert.Equal(t, "auto", cfg.Writer.IndexEncoding)
	assert.Equal(t, 4, cfg.Output.Parallelism)
	assert.Equal(t, "grpc", cfg.Tracing.Protocol)
}

func TestLoad_PartialConfig(t *testing.T) {
	cfg, err := Load(strings.NewReader("logging:\n  level: debug\n"))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "stderr", cfg.Logging.Output)
	assert.Equal(t, uint32(21), cfg.Writer.MerSize)
	assert.Equal(t, -1, cfg.Writer.PrefixSize)
}

func TestLoad_EmptyReader(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, "auto", cfg.Input.Compression)

	cfg, err = Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, "auto", cfg.Input.Compression)
}

func TestLoad_InvalidYAML(t *testing.T) {
	yamlContent := `
writer:
  mer_size: 21
  this: is: invalid: yaml
`
	_, err := Load(strings.NewReader(yamlContent))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal config yaml")
}

func TestLoad_InvalidValues(t *testing.T) {
	testCases := []struct {
		name  string
		yaml  string
		field string
	}{
		{"encoding", "writer:\n  index_encoding: zigzag\n", "writer.index_encoding"},
		{"input compression", "input:\n  compression: gzip\n", "input.compression"},
		{"output compression", "output:\n  compression: brotli\n", "output.compression"},
		{"output format", "output:\n  format: json\n", "output.format"},
		{"tracing protocol", "tracing:\n  protocol: udp\n", "tracing.protocol"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tc.yaml))
			require.Error(t, err)
			var verr *core.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
		})
	}
}

func TestLoadConfig_FileIntegration(t *testing.T) {
	t.Run("FileExists", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "meryl.yaml")
		require.NoError(t, os.WriteFile(configPath, []byte("writer:\n  mer_size: 17\n"), 0644))

		cfg, err := LoadConfig(configPath)
		require.NoError(t, err)
		assert.Equal(t, uint32(17), cfg.Writer.MerSize)
	})

	t.Run("FileDoesNotExist", func(t *testing.T) {
		cfg, err := LoadConfig(filepath.Join(t.TempDir(), "non_existent_config.yaml"))
		require.NoError(t, err)
		assert.Equal(t, uint32(21), cfg.Writer.MerSize)
	})

	t.Run("EmptyPath", func(t *testing.T) {
		cfg, err := LoadConfig("")
		require.NoError(t, err)
		assert.Equal(t, "10s", cfg.Writer.LockTimeout)
	})
}

func TestParseDuration(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	defaultDuration := 10 * time.Second

	testCases := []struct {
		name     string
		input    string
		expected time.Duration
	}{
		{"ValidSeconds", "5s", 5 * time.Second},
		{"ValidMilliseconds", "500ms", 500 * time.Millisecond},
		{"ValidMinutes", "2m", 2 * time.Minute},
		{"EmptyString", "", defaultDuration},
		{"ZeroString", "0", defaultDuration},
		{"InvalidString", "5x", defaultDuration},
		{"JustNumber", "10", defaultDuration},
		{"NilLogger", "5x", defaultDuration}, // Should not panic with nil logger
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var testLogger *slog.Logger
			if tc.name != "NilLogger" {
				testLogger = logger
			}
			assert.Equal(t, tc.expected, ParseDuration(tc.input, defaultDuration, testLogger))
		})
	}
}
