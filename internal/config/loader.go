package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. RADVIEW_STORE_BACKEND.
const EnvPrefix = "RADVIEW"

// Loader handles loading the configuration.
type Loader struct {
	Version      string // Build version, used to determine dev mode
	OverridePath string // Explicit --config path
}

// NewLoader creates a new Loader.
func NewLoader(version string, overridePath string) *Loader {
	return &Loader{
		Version:      version,
		OverridePath: overridePath,
	}
}

// Load reads the first config file found by GetConfigPath, applies
// environment overrides and validates the result. A missing file yields the
// defaults.
func (l *Loader) Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, New())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := l.GetConfigPath(); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if l.OverridePath != "" {
		return nil, fmt.Errorf("config file %s: %w", l.OverridePath, os.ErrNotExist)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("viewer.layout", d.Viewer.Layout)
	v.SetDefault("viewer.theme", d.Viewer.Theme)
	v.SetDefault("viewer.font_size", d.Viewer.FontSize)
	v.SetDefault("viewer.text_color", d.Viewer.TextColor)
	v.SetDefault("viewer.text_background", d.Viewer.TextBackground)

	v.SetDefault("store.backend", d.Store.Backend)
	v.SetDefault("store.dir", d.Store.Dir)
	v.SetDefault("store.redis_addr", d.Store.RedisAddr)
	v.SetDefault("store.redis_password", d.Store.RedisPassword)
	v.SetDefault("store.redis_db", d.Store.RedisDB)
	v.SetDefault("store.redis_ttl", d.Store.RedisTTL)
	v.SetDefault("store.postgres_url", d.Store.PostgresURL)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.blob_dir", d.Server.BlobDir)
	v.SetDefault("server.base_url", d.Server.BaseURL)

	v.SetDefault("notify.refused", d.Notify.Refused)
	v.SetDefault("notify.load_failed", d.Notify.LoadFailed)
	v.SetDefault("notify.upload_failed", d.Notify.UploadFailed)
	v.SetDefault("notify.skipped", d.Notify.Skipped)
	v.SetDefault("notify.saved", d.Notify.Saved)
	v.SetDefault("notify.copied", d.Notify.Copied)
	v.SetDefault("notify.store_failed", d.Notify.StoreFailed)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.pretty", d.Log.Pretty)
}

// GetConfigPath returns the path to the configuration file, or empty string if not found.
func (l *Loader) GetConfigPath() string {
	// 1. Explicit override path
	if l.OverridePath != "" {
		if _, err := os.Stat(l.OverridePath); err == nil {
			return l.OverridePath
		}
		return ""
	}

	// 2. Local run directory (dev mode)
	if l.Version == "dev" {
		wd, _ := os.Getwd()
		localPath := filepath.Join(wd, ".radview.yaml")
		if _, err := os.Stat(localPath); err == nil {
			return localPath
		}
	}

	// 3. XDG Config Path
	if p := DefaultPath(); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// DefaultPath is where `config save` writes when no path is given.
func DefaultPath() string {
	if x := os.Getenv("XDG_CONFIG_HOME"); x != "" {
		return filepath.Join(x, "radview", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "radview", "config.yaml")
}
