// Package config loads radview settings from YAML files and RADVIEW_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/example/radview/internal/layout"
)

// Viewer holds the interactive defaults.
type Viewer struct {
	Layout         string  `mapstructure:"layout" yaml:"layout"`
	Theme          string  `mapstructure:"theme" yaml:"theme"`
	FontSize       float64 `mapstructure:"font_size" yaml:"font_size"`
	TextColor      string  `mapstructure:"text_color" yaml:"text_color"`
	TextBackground string  `mapstructure:"text_background" yaml:"text_background"`
}

// Store selects and configures the persistence backend.
type Store struct {
	Backend       string        `mapstructure:"backend" yaml:"backend"`
	Dir           string        `mapstructure:"dir" yaml:"dir"`
	RedisAddr     string        `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password" yaml:"redis_password,omitempty"`
	RedisDB       int           `mapstructure:"redis_db" yaml:"redis_db"`
	RedisTTL      time.Duration `mapstructure:"redis_ttl" yaml:"redis_ttl"`
	PostgresURL   string        `mapstructure:"postgres_url" yaml:"postgres_url,omitempty"`
}

// Server configures the HTTP surface.
type Server struct {
	Addr    string `mapstructure:"addr" yaml:"addr"`
	BlobDir string `mapstructure:"blob_dir" yaml:"blob_dir"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// Notify toggles desktop notifications per event. Every event is logged
// regardless.
type Notify struct {
	Refused      bool `mapstructure:"refused" yaml:"refused"`
	LoadFailed   bool `mapstructure:"load_failed" yaml:"load_failed"`
	UploadFailed bool `mapstructure:"upload_failed" yaml:"upload_failed"`
	Skipped      bool `mapstructure:"skipped" yaml:"skipped"`
	Saved        bool `mapstructure:"saved" yaml:"saved"`
	Copied       bool `mapstructure:"copied" yaml:"copied"`
	StoreFailed  bool `mapstructure:"store_failed" yaml:"store_failed"`
}

// Log configures the root logger.
type Log struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Pretty bool   `mapstructure:"pretty" yaml:"pretty"`
}

// Config holds the application configuration.
type Config struct {
	Viewer Viewer `mapstructure:"viewer" yaml:"viewer"`
	Store  Store  `mapstructure:"store" yaml:"store"`
	Server Server `mapstructure:"server" yaml:"server"`
	Notify Notify `mapstructure:"notify" yaml:"notify"`
	Log    Log    `mapstructure:"log" yaml:"log"`
}

// Backends accepted by Store.Backend.
const (
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

// DataDir is where state and blobs live unless configured otherwise.
func DataDir() string {
	if d, err := os.UserCacheDir(); err == nil {
		return filepath.Join(d, "radview")
	}
	return filepath.Join(os.TempDir(), "radview")
}

// New creates a new Config with defaults.
func New() *Config {
	data := DataDir()
	return &Config{
		Viewer: Viewer{
			Layout:         string(layout.Single),
			Theme:          "dark",
			FontSize:       16,
			TextColor:      "#ffff00",
			TextBackground: "rgba(0,0,0,0.5)",
		},
		Store: Store{
			Backend:   BackendFile,
			Dir:       filepath.Join(data, "state"),
			RedisAddr: "localhost:6379",
			RedisTTL:  0,
		},
		Server: Server{
			Addr:    ":8080",
			BlobDir: filepath.Join(data, "blobs"),
			BaseURL: "http://localhost:8080",
		},
		Notify: Notify{
			Refused:      true,
			LoadFailed:   true,
			UploadFailed: true,
			Skipped:      true,
			StoreFailed:  true,
		},
		Log: Log{Level: "info"},
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	var errs []error
	if _, err := layout.Parse(c.Viewer.Layout); err != nil {
		errs = append(errs, fmt.Errorf("viewer.layout: %w", err))
	}
	if c.Viewer.FontSize <= 0 {
		errs = append(errs, fmt.Errorf("viewer.font_size must be positive"))
	}
	switch strings.ToLower(c.Store.Backend) {
	case BackendFile:
		if c.Store.Dir == "" {
			errs = append(errs, fmt.Errorf("store.dir is required for the file backend"))
		}
	case BackendMemory:
	case BackendRedis:
		if c.Store.RedisAddr == "" {
			errs = append(errs, fmt.Errorf("store.redis_addr is required for the redis backend"))
		}
	case BackendPostgres:
		if c.Store.PostgresURL == "" {
			errs = append(errs, fmt.Errorf("store.postgres_url is required for the postgres backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.backend %q is not one of file, memory, redis, postgres", c.Store.Backend))
	}
	if c.Store.RedisTTL < 0 {
		errs = append(errs, fmt.Errorf("store.redis_ttl must not be negative"))
	}
	return errors.Join(errs...)
}

// String implements fmt.Stringer and returns the configuration as YAML.
func (c *Config) String() string {
	out, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Sprintf("# marshal config: %v\n", err)
	}
	return string(out)
}

// Save writes the configuration as YAML to path, creating parent
// directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(path, []byte(c.String()), 0o644)
}
