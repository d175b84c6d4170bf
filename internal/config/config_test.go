package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	isolate(t)
	cfg, err := NewLoader("v1.0.0", "").Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Viewer.Layout != "1x1" || cfg.Store.Backend != BackendFile || cfg.Viewer.FontSize != 16 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if !cfg.Notify.LoadFailed || cfg.Notify.Saved {
		t.Fatalf("unexpected notify defaults %+v", cfg.Notify)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "radview.yaml")
	src := `
viewer:
  layout: 2x2
  font_size: 20
store:
  backend: redis
  redis_addr: cache:6379
  redis_ttl: 90m
notify:
  saved: true
`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("RADVIEW_LOG_LEVEL", "debug")
	t.Setenv("RADVIEW_STORE_REDIS_DB", "3")

	cfg, err := NewLoader("v1.0.0", path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Viewer.Layout != "2x2" || cfg.Viewer.FontSize != 20 {
		t.Errorf("viewer = %+v", cfg.Viewer)
	}
	if cfg.Store.Backend != BackendRedis || cfg.Store.RedisAddr != "cache:6379" || cfg.Store.RedisTTL != 90*time.Minute {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.Store.RedisDB != 3 || cfg.Log.Level != "debug" {
		t.Errorf("env overrides not applied: db=%d level=%q", cfg.Store.RedisDB, cfg.Log.Level)
	}
	if !cfg.Notify.Saved || !cfg.Notify.Refused {
		t.Errorf("notify = %+v", cfg.Notify)
	}
}

func TestLoadMissingOverride(t *testing.T) {
	isolate(t)
	if _, err := NewLoader("dev", filepath.Join(t.TempDir(), "nope.yaml")).Load(); err == nil {
		t.Fatalf("expected error for missing explicit config")
	}
}

func TestDevModeReadsWorkingDirectory(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	wd, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(wd) })
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(".radview.yaml", []byte("viewer:\n  layout: 1x2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := NewLoader("dev", "").Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Viewer.Layout != "1x2" {
		t.Fatalf("layout = %q", cfg.Viewer.Layout)
	}
	cfg, err = NewLoader("v2", "").Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Viewer.Layout != "1x1" {
		t.Fatalf("release build read the dev config")
	}
}

func TestValidate(t *testing.T) {
	cfg := New()
	cfg.Viewer.Layout = "3x3"
	cfg.Store.Backend = "postgres"
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !strings.Contains(err.Error(), "viewer.layout") || !strings.Contains(err.Error(), "postgres_url") {
		t.Fatalf("error = %v", err)
	}
}

func TestStringAndSave(t *testing.T) {
	isolate(t)
	cfg := New()
	cfg.Store.Backend = BackendMemory
	cfg.Viewer.Theme = "light"
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.Contains(cfg.String(), "backend: memory") {
		t.Fatalf("String() = %s", cfg.String())
	}
	back, err := NewLoader("v1", path).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if back.Store.Backend != BackendMemory || back.Viewer.Theme != "light" {
		t.Fatalf("round trip lost fields: %+v", back)
	}
}
