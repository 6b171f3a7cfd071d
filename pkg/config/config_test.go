package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFileEnvAndFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spfw.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
dataset: /data/sg.spfw
server:
  addr: ":9000"
  request_timeout: 3s
batch:
  max_pairs: 100
log:
  level: debug
  format: json
`), 0o644))

	t.Setenv("SPFW_SERVER_ADDR", ":9100")
	t.Setenv("SPFW_SNAP_MAX_DISTANCE", "250")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("max-pairs", 0, "")
	flags.String("log-level", "info", "")
	require.NoError(t, flags.Parse([]string{"--max-pairs=42"}))

	cfg, err := Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "/data/sg.spfw", cfg.Dataset)
	assert.Equal(t, ":9100", cfg.Server.Addr, "env beats file")
	assert.Equal(t, 3*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 250.0, cfg.Snap.MaxDistance)
	assert.Equal(t, 42, cfg.Batch.MaxPairs, "changed flag beats file")
	assert.Equal(t, "debug", cfg.Log.Level, "unchanged flag leaves file value")
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"max concurrent", func(c *Config) { c.Server.MaxConcurrent = 0 }},
		{"body size", func(c *Config) { c.Server.MaxBodyBytes = 0 }},
		{"max pairs", func(c *Config) { c.Batch.MaxPairs = -1 }},
		{"snap distance", func(c *Config) { c.Snap.MaxDistance = -5 }},
		{"log level", func(c *Config) { c.Log.Level = "loud" }},
		{"log format", func(c *Config) { c.Log.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, Default().Validate())
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Log{Level: "warn", Format: "json"}, &buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", 1)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"k":1`)

	buf.Reset()
	NewLogger(Log{Level: "info", Format: "text"}, &buf).Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}
