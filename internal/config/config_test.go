package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/vango-dev/hookbind/internal/errors"
)

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Inspect.Addr != DefaultInspectAddr {
		t.Errorf("Inspect.Addr = %q, want %q", cfg.Inspect.Addr, DefaultInspectAddr)
	}
	if cfg.Metrics.Namespace != DefaultNamespace {
		t.Errorf("Metrics.Namespace = %q, want %q", cfg.Metrics.Namespace, DefaultNamespace)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("Log = %+v, want info/text", cfg.Log)
	}
	if cfg.Debug {
		t.Error("Debug should default to false")
	}
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if diff := cmp.Diff(New(), cfg, cmpopts.IgnoreUnexported(Config{})); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configYAML := `debug: true
log:
  level: debug
  format: json
inspect:
  addr: 0.0.0.0:9000
  allowed_origins:
    - http://localhost:3000
metrics:
  namespace: player
tracing:
  enabled: true
bench:
  writes: 50
`
	path := filepath.Join(tmpDir, ConfigFileName)
	if err := os.WriteFile(path, []byte(configYAML), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	want := &Config{
		Debug:   true,
		Log:     LogConfig{Level: "debug", Format: "json"},
		Inspect: InspectConfig{Addr: "0.0.0.0:9000", AllowedOrigins: []string{"http://localhost:3000"}},
		Metrics: MetricsConfig{Namespace: "player"},
		Tracing: TracingConfig{Enabled: true, TracerName: DefaultTracerName},
		Bench:   BenchConfig{Stores: 8, Bindings: 64, Writes: 50},
	}
	if diff := cmp.Diff(want, cfg, cmpopts.IgnoreUnexported(Config{})); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
	if cfg.Path() != path {
		t.Errorf("Path() = %q, want %q", cfg.Path(), path)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		code string
	}{
		{"bad yaml", "log: [unclosed", "H090"},
		{"bad level", "log:\n  level: loud\n", "H091"},
		{"bad format", "log:\n  format: xml\n", "H091"},
		{"negative bench", "bench:\n  writes: -1\n", "H091"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(tt.yaml), 0644); err != nil {
				t.Fatal(err)
			}
			_, err := Load(dir)
			if err == nil {
				t.Fatal("Load() should fail")
			}
			if got := errors.CodeOf(err); got != tt.code {
				t.Errorf("CodeOf() = %q, want %q (err: %v)", got, tt.code, err)
			}
		})
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	cfg := New()
	cfg.Debug = true
	cfg.Inspect.AllowedOrigins = []string{"https://example.com"}

	path := filepath.Join(t.TempDir(), ConfigFileName)
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error: %v", err)
	}
	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error: %v", err)
	}
	if diff := cmp.Diff(cfg, loaded, cmpopts.IgnoreUnexported(Config{})); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		format    string
		wantDebug bool
		wantJSON  bool
	}{
		{"text info", "info", "text", false, false},
		{"json debug", "debug", "json", true, true},
		{"warn", "warn", "text", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			cfg.Log = LogConfig{Level: tt.level, Format: tt.format}

			var buf bytes.Buffer
			logger := cfg.NewLogger(&buf)
			logger.Debug("probe")

			if got := strings.Contains(buf.String(), "probe"); got != tt.wantDebug {
				t.Errorf("debug line written = %v, want %v", got, tt.wantDebug)
			}
			if tt.wantJSON && !strings.HasPrefix(buf.String(), "{") {
				t.Errorf("expected JSON output, got %q", buf.String())
			}
		})
	}
}
