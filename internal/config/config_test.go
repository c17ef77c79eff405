package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func noEnv() envconfig.Lookuper {
	return envconfig.MapLookuper(map[string]string{})
}

func TestLoadDefaultsWhenMissing(t *testing.T) {
	home := t.TempDir()
	c, err := LoadWith(context.Background(), home, noEnv())
	if err != nil {
		t.Fatalf("LoadWith returned error: %v", err)
	}
	if c.File.Version != 1 {
		t.Fatalf("expected default version == 1, got %d", c.File.Version)
	}
	if c.File.API.BaseURL != defaultAPIURL {
		t.Fatalf("expected default api url, got %q", c.File.API.BaseURL)
	}
	if c.File.Storage.Backend != BackendFile {
		t.Fatalf("expected file backend, got %q", c.File.Storage.Backend)
	}
	if c.File.API.Timeout != defaultTimeout {
		t.Fatalf("expected default timeout, got %s", c.File.API.Timeout)
	}
}

func TestInitDirWritesParseableDefaults(t *testing.T) {
	home := t.TempDir()
	if err := InitDir(home); err != nil {
		t.Fatalf("InitDir: %v", err)
	}
	for _, dir := range []string{"logs", "state"} {
		if info, err := os.Stat(filepath.Join(home, dir)); err != nil || !info.IsDir() {
			t.Fatalf("expected %s directory", dir)
		}
	}
	c, err := LoadWith(context.Background(), home, noEnv())
	if err != nil {
		t.Fatalf("default config.yaml does not load: %v", err)
	}
	if c.File.Palette.Burst != 3 || c.File.Palette.Interval != 2*time.Second {
		t.Fatalf("unexpected palette defaults: %+v", c.File.Palette)
	}

	custom := []byte("version: 1\nui:\n  theme: light\n")
	if err := os.WriteFile(c.ConfigPath(), custom, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := InitDir(home); err != nil {
		t.Fatalf("second InitDir: %v", err)
	}
	data, _ := os.ReadFile(c.ConfigPath())
	if string(data) != string(custom) {
		t.Fatalf("InitDir must not overwrite an existing config")
	}
}

func TestLoadParsesYaml(t *testing.T) {
	home := t.TempDir()
	configYAML := strings.TrimSpace(`
version: 1
api:
  base_url: https://rota.example.com/api/
  timeout: 3s
palette:
  base_url: http://localhost:3400
storage:
  backend: Redis
  redis:
    addr: 127.0.0.1:6379
    db: 2
logging:
  level: DEBUG
ui:
  theme: light
`)
	if err := os.WriteFile(filepath.Join(home, "config.yaml"), []byte(configYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := LoadWith(context.Background(), home, noEnv())
	if err != nil {
		t.Fatalf("LoadWith returned error: %v", err)
	}
	if c.File.API.BaseURL != "https://rota.example.com/api" {
		t.Fatalf("expected trailing slash trimmed, got %q", c.File.API.BaseURL)
	}
	if c.File.API.Timeout != 3*time.Second {
		t.Fatalf("wrong timeout: %s", c.File.API.Timeout)
	}
	if c.File.Storage.Backend != BackendRedis || c.File.Storage.Redis.DB != 2 {
		t.Fatalf("wrong storage: %+v", c.File.Storage)
	}
	if c.File.Storage.Redis.Prefix != defaultRedisPrefix {
		t.Fatalf("expected default redis prefix, got %q", c.File.Storage.Redis.Prefix)
	}
	if c.File.Logging.Level != "debug" || c.File.UI.Theme != "light" {
		t.Fatalf("expected normalised level and theme, got %q %q", c.File.Logging.Level, c.File.UI.Theme)
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	home := t.TempDir()
	if err := InitDir(home); err != nil {
		t.Fatal(err)
	}
	env := envconfig.MapLookuper(map[string]string{
		"DUTYFLOW_API_URL":     "http://localhost:8080/api",
		"DUTYFLOW_API_TIMEOUT": "250ms",
		"DUTYFLOW_STORAGE":     "memory",
		"DUTYFLOW_JWT_SECRET":  "s3cret",
		"DUTYFLOW_LOG_LEVEL":   "warn",
	})
	c, err := LoadWith(context.Background(), home, env)
	if err != nil {
		t.Fatalf("LoadWith returned error: %v", err)
	}
	if c.File.API.BaseURL != "http://localhost:8080/api" {
		t.Fatalf("env api url not applied: %q", c.File.API.BaseURL)
	}
	if c.File.API.Timeout != 250*time.Millisecond {
		t.Fatalf("env timeout not applied: %s", c.File.API.Timeout)
	}
	if c.File.Storage.Backend != BackendMemory {
		t.Fatalf("env storage not applied: %q", c.File.Storage.Backend)
	}
	if c.File.Auth.JWTSecret != "s3cret" || c.File.Logging.Level != "warn" {
		t.Fatalf("env auth/logging not applied: %+v %+v", c.File.Auth, c.File.Logging)
	}
	if c.File.Palette.BaseURL != defaultPaletteURL {
		t.Fatalf("unset env must leave the file value, got %q", c.File.Palette.BaseURL)
	}
}

func TestLoadValidation(t *testing.T) {
	cases := map[string]string{
		"bad backend":      "storage:\n  backend: sqlite\n",
		"redis needs addr": "storage:\n  backend: redis\n",
		"bad url":          "api:\n  base_url: ftp://example.com\n",
		"bad level":        "logging:\n  level: loud\n",
		"bad theme":        "ui:\n  theme: sepia\n",
		"bad yaml":         "api: [\n",
	}
	for name, body := range cases {
		home := t.TempDir()
		if err := os.WriteFile(filepath.Join(home, "config.yaml"), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadWith(context.Background(), home, noEnv()); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestDefaultHomeHonoursEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(HomeEnv, dir)
	home, err := DefaultHome()
	if err != nil {
		t.Fatalf("DefaultHome: %v", err)
	}
	if home != filepath.Clean(dir) {
		t.Fatalf("expected %s, got %s", dir, home)
	}
}

func TestPaths(t *testing.T) {
	c := &Config{Home: "/tmp/df"}
	if c.StateDir() != filepath.Join("/tmp/df", "state") {
		t.Fatalf("wrong state dir %s", c.StateDir())
	}
	if c.ActivityLogPath() != filepath.Join("/tmp/df", "logs", "activity.log") {
		t.Fatalf("wrong activity log %s", c.ActivityLogPath())
	}
}

func TestWarningLevelIsNormalised(t *testing.T) {
	home := t.TempDir()
	if err := os.WriteFile(filepath.Join(home, "config.yaml"), []byte("logging:\n  level: Warning\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := LoadWith(context.Background(), home, noEnv())
	if err != nil {
		t.Fatalf("warning should be accepted: %v", err)
	}
	if c.File.Logging.Level != "warn" {
		t.Fatalf("expected warning normalised to warn, got %q", c.File.Logging.Level)
	}
}
