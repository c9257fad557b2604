package confloader

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testConfig struct {
	Engine struct {
		Workers   int    `koanf:"workers"`
		QueueSize int    `koanf:"queue_size"`
		Backoff   string `koanf:"backoff"`
	} `koanf:"engine"`
	Log struct {
		Level string `koanf:"level"`
	} `koanf:"log"`
	Retry struct {
		Initial time.Duration `koanf:"initial"`
	} `koanf:"retry"`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stm.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestNewLoader(t *testing.T) {
	l := NewLoader()
	if l.envPrefix != DefaultEnvPrefix {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, DefaultEnvPrefix)
	}

	l = NewLoader(WithEnvPrefix("TEST_"), WithConfigFile("/etc/stm.yaml"))
	if l.envPrefix != "TEST_" {
		t.Errorf("envPrefix = %q, want TEST_", l.envPrefix)
	}
	if l.FilePath() != "/etc/stm.yaml" {
		t.Errorf("FilePath() = %q", l.FilePath())
	}
}

func TestLoader_LoadFile(t *testing.T) {
	path := writeConfig(t, `
engine:
  workers: 6
  queue_size: 32
log:
  level: debug
`)

	l := NewLoader()
	if err := l.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if got := l.Int("engine.workers"); got != 6 {
		t.Errorf("engine.workers = %d, want 6", got)
	}
	if got := l.Int("engine.queue_size"); got != 32 {
		t.Errorf("engine.queue_size = %d, want 32", got)
	}
	if got := l.String("log.level"); got != "debug" {
		t.Errorf("log.level = %q, want debug", got)
	}
}

func TestLoader_LoadFile_Errors(t *testing.T) {
	l := NewLoader()
	if err := l.LoadFile(""); err != nil {
		t.Errorf("LoadFile(\"\") error = %v", err)
	}
	if err := l.LoadFile("/nonexistent/stm.yaml"); err == nil {
		t.Error("LoadFile() on a missing file returned nil")
	}
	bad := writeConfig(t, "engine: [unterminated")
	if err := l.LoadFile(bad); err == nil {
		t.Error("LoadFile() on invalid YAML returned nil")
	}
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"STM_ENGINE_WORKERS", "engine.workers"},
		{"STM_ENGINE_QUEUE_SIZE", "engine.queue_size"},
		{"STM_LOG_LEVEL", "log.level"},
		{"STM_DEBUG", "debug"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := envKey("STM_", tt.name); got != tt.want {
				t.Errorf("envKey(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestLoader_LoadEnv(t *testing.T) {
	t.Setenv("STM_ENGINE_QUEUE_SIZE", "64")
	t.Setenv("OTHER_ENGINE_WORKERS", "99")

	l := NewLoader()
	if err := l.LoadEnv(); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}
	if got := l.Int("engine.queue_size"); got != 64 {
		t.Errorf("engine.queue_size = %d, want 64", got)
	}
	if got := l.Int("engine.workers"); got != 0 {
		t.Errorf("engine.workers = %d, want 0 (foreign prefix)", got)
	}
}

func TestLoader_LoadMap(t *testing.T) {
	l := NewLoader()
	if err := l.LoadMap(map[string]any{"engine.workers": 3, "log.level": "warn"}); err != nil {
		t.Fatalf("LoadMap() error = %v", err)
	}

	var cfg testConfig
	if err := l.Unmarshal(&cfg); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if cfg.Engine.Workers != 3 || cfg.Log.Level != "warn" {
		t.Errorf("cfg = %+v", cfg)
	}
	if len(l.Keys()) != 2 || len(l.All()) != 2 {
		t.Errorf("Keys() = %v", l.Keys())
	}
}

func TestLoader_Load_Priority(t *testing.T) {
	path := writeConfig(t, `
engine:
  workers: 2
  queue_size: 8
  backoff: exponential
log:
  level: info
retry:
  initial: 5ms
`)
	t.Setenv("STM_ENGINE_WORKERS", "4")
	t.Setenv("STM_LOG_LEVEL", "warn")

	l := NewLoader(
		WithConfigFile(path),
		WithOverrides(map[string]any{"engine.workers": 16}),
	)

	var cfg testConfig
	cfg.Engine.Backoff = "none"
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Engine.Workers != 16 {
		t.Errorf("workers = %d, want 16 (flag beats env and file)", cfg.Engine.Workers)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("log.level = %q, want warn (env beats file)", cfg.Log.Level)
	}
	if cfg.Engine.QueueSize != 8 {
		t.Errorf("queue_size = %d, want 8 (from file)", cfg.Engine.QueueSize)
	}
	if cfg.Engine.Backoff != "exponential" {
		t.Errorf("backoff = %q, want exponential", cfg.Engine.Backoff)
	}
	if cfg.Retry.Initial != 5*time.Millisecond {
		t.Errorf("retry.initial = %v, want 5ms", cfg.Retry.Initial)
	}
}

func TestLoader_Load_KeepsDefaults(t *testing.T) {
	var cfg testConfig
	cfg.Engine.Workers = 7
	cfg.Log.Level = "info"

	if err := NewLoader().Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Engine.Workers != 7 || cfg.Log.Level != "info" {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoader_Load_Reloads(t *testing.T) {
	path := writeConfig(t, "log:\n  level: info\n")
	l := NewLoader(WithConfigFile(path))

	var cfg testConfig
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if err := os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("second Load() error = %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log.level = %q after reload, want debug", cfg.Log.Level)
	}
}
