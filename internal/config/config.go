package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/vango-dev/hookbind/internal/errors"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "hookbind.yaml"

	// DefaultInspectAddr is the default debug inspector address.
	DefaultInspectAddr = "127.0.0.1:7070"

	// DefaultNamespace is the default Prometheus namespace.
	DefaultNamespace = "hookbind"

	// DefaultTracerName is the default OpenTelemetry tracer name.
	DefaultTracerName = "hookbind"
)

// Config represents the complete hookbind.yaml configuration.
type Config struct {
	// Debug enables hook.DebugMode: unbound callback bindings are tracked
	// and skipped emissions are logged.
	Debug bool `yaml:"debug"`

	// Log contains logger configuration.
	Log LogConfig `yaml:"log"`

	// Inspect contains debug inspector configuration.
	Inspect InspectConfig `yaml:"inspect"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains OpenTelemetry configuration.
	Tracing TracingConfig `yaml:"tracing"`

	// Bench contains the defaults of the bench command.
	Bench BenchConfig `yaml:"bench"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// LogConfig contains logger settings.
type LogConfig struct {
	// Level is the minimum level: debug, info, warn or error.
	Level string `yaml:"level"`

	// Format is the handler format: text or json.
	Format string `yaml:"format"`
}

// InspectConfig contains debug inspector settings.
type InspectConfig struct {
	// Addr is the listen address.
	Addr string `yaml:"addr"`

	// AllowedOrigins lists the origins allowed to open watch websockets.
	// Empty allows same-origin requests only.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Namespace is the metrics namespace.
	Namespace string `yaml:"namespace"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	// Enabled turns on one span per store write.
	Enabled bool `yaml:"enabled"`

	// TracerName is the name of the tracer.
	TracerName string `yaml:"tracer_name"`
}

// BenchConfig contains bench command defaults.
type BenchConfig struct {
	Stores   int `yaml:"stores"`
	Bindings int `yaml:"bindings"`
	Writes   int `yaml:"writes"`
}

// New creates a new Config with default values.
func New() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from the specified directory.
// It looks for hookbind.yaml in the directory; a missing file yields the
// defaults.
func Load(dir string) (*Config, error) {
	configPath := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return New(), nil
	}
	return LoadFile(configPath)
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("H090").Wrap(err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("H090").
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
			WithSuggestion("Check that " + filepath.Base(path) + " is valid YAML")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.New("H090").Wrap(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("H090").Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Inspect.Addr == "" {
		c.Inspect.Addr = DefaultInspectAddr
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = DefaultTracerName
	}
	if c.Bench.Stores == 0 {
		c.Bench.Stores = 8
	}
	if c.Bench.Bindings == 0 {
		c.Bench.Bindings = 64
	}
	if c.Bench.Writes == 0 {
		c.Bench.Writes = 10000
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := parseLevel(c.Log.Level); err != nil {
		return errors.New("H091").
			WithDetail(err.Error()).
			WithSuggestion("Use one of: debug, info, warn, error")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.New("H091").
			WithDetail(fmt.Sprintf("unknown log format %q", c.Log.Format)).
			WithSuggestion("Use text or json")
	}
	if c.Bench.Stores < 0 || c.Bench.Bindings < 0 || c.Bench.Writes < 0 {
		return errors.New("H091").
			WithDetail("bench sizes must not be negative")
	}
	return nil
}

// NewLogger builds the slog logger described by the configuration.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}
