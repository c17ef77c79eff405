// internal/config/config.go
//
// This package handles configuration and the DutyFlow home directory.
// The home holds config.yaml, the logs/ and the state/ used by the file
// storage backend. Environment variables override the file.

package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

const (
	// HomeEnv names the variable that relocates the home directory.
	HomeEnv = "DUTYFLOW_HOME"

	defaultAPIURL      = "https://bin-reminder-app.vercel.app/api"
	defaultPaletteURL  = "http://127.0.0.1:3400"
	defaultTimeout     = 10 * time.Second
	defaultInterval    = 2 * time.Second
	defaultBurst       = 3
	defaultRedisPrefix = "dutyflow:"
)

// Storage backends.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

const defaultConfigYAML = `# dutyflow configuration
version: 1

# Remote duty-rotation API.
api:
  base_url: https://bin-reminder-app.vercel.app/api
  timeout: 10s

# Prompt service hosting the palette flows.
palette:
  base_url: http://127.0.0.1:3400
  interval: 2s
  burst: 3

# Where sessions, saved palettes and the theme are kept: file, memory or redis.
storage:
  backend: file
  # redis:
  #   addr: 127.0.0.1:6379
  #   db: 0
  #   prefix: "dutyflow:"

# Set to verify login tokens (HS256). Leave empty to accept tokens unverified.
auth:
  jwt_secret: ""

logging:
  level: info

ui:
  theme: dark
`

// APIConfig locates the rotation API.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// PaletteConfig locates the prompt service and throttles generation.
type PaletteConfig struct {
	BaseURL  string        `yaml:"base_url"`
	Interval time.Duration `yaml:"interval"`
	Burst    int           `yaml:"burst"`
}

// RedisConfig is used when storage.backend is redis.
type RedisConfig struct {
	Addr   string `yaml:"addr"`
	DB     int    `yaml:"db"`
	Prefix string `yaml:"prefix"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Backend string      `yaml:"backend"`
	Redis   RedisConfig `yaml:"redis,omitempty"`
}

// AuthConfig controls token verification.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// LoggingConfig sets the zerolog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// UIConfig holds terminal preferences.
type UIConfig struct {
	Theme string `yaml:"theme"`
}

// FileConfig models <home>/config.yaml.
type FileConfig struct {
	Version int           `yaml:"version"`
	API     APIConfig     `yaml:"api"`
	Palette PaletteConfig `yaml:"palette"`
	Storage StorageConfig `yaml:"storage"`
	Auth    AuthConfig    `yaml:"auth"`
	Logging LoggingConfig `yaml:"logging"`
	UI      UIConfig      `yaml:"ui"`
}

// envOverrides are read with go-envconfig. Empty values leave the file
// setting alone.
type envOverrides struct {
	APIURL     string        `env:"DUTYFLOW_API_URL"`
	APITimeout time.Duration `env:"DUTYFLOW_API_TIMEOUT"`
	PaletteURL string        `env:"DUTYFLOW_PALETTE_URL"`
	Storage    string        `env:"DUTYFLOW_STORAGE"`
	RedisAddr  string        `env:"DUTYFLOW_REDIS_ADDR"`
	LogLevel   string        `env:"DUTYFLOW_LOG_LEVEL"`
	JWTSecret  string        `env:"DUTYFLOW_JWT_SECRET"`
	Theme      string        `env:"DUTYFLOW_THEME"`
}

// Config holds the runtime configuration for DutyFlow.
type Config struct {
	// Home is the DutyFlow home directory.
	Home string

	File FileConfig
}

// DefaultHome returns $DUTYFLOW_HOME or <user config dir>/dutyflow.
func DefaultHome() (string, error) {
	if home := strings.TrimSpace(os.Getenv(HomeEnv)); home != "" {
		return filepath.Clean(home), nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: locate user config dir: %w", err)
	}
	return filepath.Join(base, "dutyflow"), nil
}

// InitDir creates the home directory structure. This is called when the
// TUI starts up.
//
// Structure created:
// <home>/
// ├── config.yaml  <- written with defaults on first run
// ├── logs/        <- dutyflow.log and activity.log
// └── state/       <- file storage backend
func InitDir(home string) error {
	dirs := []string{
		filepath.Join(home, "logs"),
		filepath.Join(home, "state"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return ensureConfigFile(filepath.Join(home, "config.yaml"))
}

// Load reads <home>/config.yaml and applies environment overrides from the
// process environment.
func Load(ctx context.Context, home string) (*Config, error) {
	return LoadWith(ctx, home, envconfig.OsLookuper())
}

// LoadWith is Load with an explicit environment source.
func LoadWith(ctx context.Context, home string, env envconfig.Lookuper) (*Config, error) {
	cfg := &Config{Home: home, File: defaultFileConfig()}
	if err := cfg.loadFile(); err != nil {
		return nil, err
	}
	if env != nil {
		var ov envOverrides
		if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &ov, Lookuper: env}); err != nil {
			return nil, fmt.Errorf("config: environment: %w", err)
		}
		cfg.File.apply(ov)
	}
	cfg.File.normalize()
	if err := cfg.File.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// ConfigPath returns the on-disk location of config.yaml.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.Home, "config.yaml")
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.Home, "logs")
}

// StateDir returns the path to the state directory
func (c *Config) StateDir() string {
	return filepath.Join(c.Home, "state")
}

// ActivityLogPath is the human-readable activity journal.
func (c *Config) ActivityLogPath() string {
	return filepath.Join(c.LogsDir(), "activity.log")
}

func (c *Config) loadFile() error {
	path := c.ConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	parsed := defaultFileConfig()
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	c.File = parsed
	return nil
}

func defaultFileConfig() FileConfig {
	return FileConfig{
		Version: 1,
		API:     APIConfig{BaseURL: defaultAPIURL, Timeout: defaultTimeout},
		Palette: PaletteConfig{BaseURL: defaultPaletteURL, Interval: defaultInterval, Burst: defaultBurst},
		Storage: StorageConfig{Backend: BackendFile, Redis: RedisConfig{Prefix: defaultRedisPrefix}},
		Logging: LoggingConfig{Level: "info"},
		UI:      UIConfig{Theme: "dark"},
	}
}

func (fc *FileConfig) apply(ov envOverrides) {
	set := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	set(&fc.API.BaseURL, ov.APIURL)
	set(&fc.Palette.BaseURL, ov.PaletteURL)
	set(&fc.Storage.Backend, ov.Storage)
	set(&fc.Storage.Redis.Addr, ov.RedisAddr)
	set(&fc.Logging.Level, ov.LogLevel)
	set(&fc.Auth.JWTSecret, ov.JWTSecret)
	set(&fc.UI.Theme, ov.Theme)
	if ov.APITimeout > 0 {
		fc.API.Timeout = ov.APITimeout
	}
}

func (fc *FileConfig) normalize() {
	if fc.Version == 0 {
		fc.Version = 1
	}
	fc.API.BaseURL = strings.TrimSuffix(strings.TrimSpace(fc.API.BaseURL), "/")
	if fc.API.BaseURL == "" {
		fc.API.BaseURL = defaultAPIURL
	}
	if fc.API.Timeout <= 0 {
		fc.API.Timeout = defaultTimeout
	}
	fc.Palette.BaseURL = strings.TrimSuffix(strings.TrimSpace(fc.Palette.BaseURL), "/")
	if fc.Palette.BaseURL == "" {
		fc.Palette.BaseURL = defaultPaletteURL
	}
	if fc.Palette.Interval <= 0 {
		fc.Palette.Interval = defaultInterval
	}
	if fc.Palette.Burst <= 0 {
		fc.Palette.Burst = defaultBurst
	}
	fc.Storage.Backend = strings.ToLower(strings.TrimSpace(fc.Storage.Backend))
	if fc.Storage.Backend == "" {
		fc.Storage.Backend = BackendFile
	}
	fc.Storage.Redis.Addr = strings.TrimSpace(fc.Storage.Redis.Addr)
	if fc.Storage.Redis.Prefix == "" {
		fc.Storage.Redis.Prefix = defaultRedisPrefix
	}
	fc.Logging.Level = strings.ToLower(strings.TrimSpace(fc.Logging.Level))
	switch fc.Logging.Level {
	case "":
		fc.Logging.Level = "info"
	case "warning":
		fc.Logging.Level = "warn"
	}
	fc.UI.Theme = strings.ToLower(strings.TrimSpace(fc.UI.Theme))
	if fc.UI.Theme == "" {
		fc.UI.Theme = "dark"
	}
}

func (fc *FileConfig) validate() error {
	if fc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	if err := validURL(fc.API.BaseURL); err != nil {
		return fmt.Errorf("api.base_url: %w", err)
	}
	if err := validURL(fc.Palette.BaseURL); err != nil {
		return fmt.Errorf("palette.base_url: %w", err)
	}
	switch fc.Storage.Backend {
	case BackendFile, BackendMemory:
	case BackendRedis:
		if fc.Storage.Redis.Addr == "" {
			return fmt.Errorf("storage.redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("storage.backend must be 'file', 'memory' or 'redis'")
	}
	switch fc.Logging.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of trace, debug, info, warn, error")
	}
	switch fc.UI.Theme {
	case "dark", "light":
	default:
		return fmt.Errorf("ui.theme must be 'dark' or 'light'")
	}
	return nil
}

func validURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https")
	}
	if u.Host == "" {
		return fmt.Errorf("host is required")
	}
	return nil
}

func ensureConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}
