// Package config loads service settings from a YAML file, SPFW_* environment
// variables and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. SPFW_SERVER_ADDR.
const EnvPrefix = "SPFW"

// Config is the full service configuration.
type Config struct {
	Dataset string `mapstructure:"dataset"`
	Server  Server `mapstructure:"server"`
	Batch   Batch  `mapstructure:"batch"`
	Snap    Snap   `mapstructure:"snap"`
	Log     Log    `mapstructure:"log"`
}

// Server configures the HTTP listener.
type Server struct {
	Addr           string        `mapstructure:"addr"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxConcurrent  int           `mapstructure:"max_concurrent"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
	CORSOrigin     string        `mapstructure:"cors_origin"`
}

// Batch limits batch execution.
type Batch struct {
	MaxPairs int `mapstructure:"max_pairs"`
}

// Snap configures coordinate snapping.
type Snap struct {
	MaxDistance float64 `mapstructure:"max_distance"`
}

// Log configures the slog handler.
type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text or json
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Dataset: "dataset.spfw",
		Server: Server{
			Addr:           ":8080",
			ReadTimeout:    5 * time.Second,
			WriteTimeout:   30 * time.Second,
			RequestTimeout: 20 * time.Second,
			MaxConcurrent:  runtime.NumCPU() * 2,
			MaxBodyBytes:   8 << 20,
		},
		Batch: Batch{MaxPairs: 10_000_000},
		Snap:  Snap{MaxDistance: 500},
		Log:   Log{Level: "info", Format: "text"},
	}
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"dataset":        "dataset",
	"addr":           "server.addr",
	"max-concurrent": "server.max_concurrent",
	"max-pairs":      "batch.max_pairs",
	"snap-distance":  "snap.max_distance",
	"log-level":      "log.level",
	"log-format":     "log.format",
}

// Load reads the configuration. An empty path skips the file. Flags that the
// set defines and the user changed override file and environment values;
// flags may be nil.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("dataset", d.Dataset)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.request_timeout", d.Server.RequestTimeout)
	v.SetDefault("server.max_concurrent", d.Server.MaxConcurrent)
	v.SetDefault("server.max_body_bytes", d.Server.MaxBodyBytes)
	v.SetDefault("server.cors_origin", d.Server.CORSOrigin)
	v.SetDefault("batch.max_pairs", d.Batch.MaxPairs)
	v.SetDefault("snap.max_distance", d.Snap.MaxDistance)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Validate rejects settings the service cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Server.MaxConcurrent < 1 {
		errs = append(errs, fmt.Errorf("server.max_concurrent must be positive, got %d", c.Server.MaxConcurrent))
	}
	if c.Server.MaxBodyBytes < 1 {
		errs = append(errs, fmt.Errorf("server.max_body_bytes must be positive, got %d", c.Server.MaxBodyBytes))
	}
	if c.Batch.MaxPairs < 0 {
		errs = append(errs, fmt.Errorf("batch.max_pairs must not be negative, got %d", c.Batch.MaxPairs))
	}
	if c.Snap.MaxDistance < 0 {
		errs = append(errs, fmt.Errorf("snap.max_distance must not be negative, got %f", c.Snap.MaxDistance))
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return l, nil
}

// NewLogger builds a slog logger writing to w.
func NewLogger(c Log, w io.Writer) *slog.Logger {
	level, err := parseLevel(c.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
