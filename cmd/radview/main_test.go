package main

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/example/radview/internal/annotation"
	"github.com/example/radview/internal/config"
	"github.com/example/radview/internal/layout"
	"github.com/example/radview/internal/notify"
	"github.com/example/radview/internal/persist"
	"github.com/example/radview/internal/transform"
	"github.com/example/radview/internal/viewer"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	body := fmt.Sprintf(`viewer:
  layout: 1x1
store:
  backend: file
  dir: %s
server:
  blob_dir: %s
log:
  level: error
`, filepath.Join(dir, "state"), filepath.Join(dir, "blobs"))
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestVersion(t *testing.T) {
	out, _, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "radview version dev") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestConfigPrint(t *testing.T) {
	dir := t.TempDir()
	out, _, err := execute(t, "--config", writeConfig(t, dir), "config", "print")
	if err != nil {
		t.Fatalf("config print: %v", err)
	}
	if !strings.Contains(out, "backend: file") || !strings.Contains(out, filepath.Join(dir, "state")) {
		t.Fatalf("config not reflected in output:\n%s", out)
	}
}

func TestConfigSave(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out", "radview.yaml")
	_, stderr, err := execute(t, "--config", writeConfig(t, dir), "config", "save", "-o", target)
	if err != nil {
		t.Fatalf("config save: %v", err)
	}
	if !strings.Contains(stderr, target) {
		t.Errorf("stderr %q does not name %s", stderr, target)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read saved config: %v", err)
	}
	if !strings.Contains(string(data), "layout: 1x1") {
		t.Fatalf("saved config missing viewer layout:\n%s", data)
	}
}

func TestMissingExplicitConfig(t *testing.T) {
	_, _, err := execute(t, "--config", filepath.Join(t.TempDir(), "nope.yaml"), "config", "print")
	if err == nil {
		t.Fatal("expected an error for a missing --config file")
	}
}

func TestRenderAppliesStoredState(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir)

	src := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			src.Set(x, y, color.White)
		}
	}
	imgPath := filepath.Join(dir, "scan.png")
	f, err := os.Create(imgPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, src); err != nil {
		t.Fatal(err)
	}
	f.Close()

	store, err := persist.NewFileStore(filepath.Join(dir, "state"))
	if err != nil {
		t.Fatal(err)
	}
	settings := transform.Default()
	settings.Invert = true
	snap := &persist.Snapshot{
		Images: []persist.ImageState{{Annotations: annotation.List{}, Settings: settings}},
		Layout: layout.Single,
	}
	if err := store.Save(context.Background(), "ct-1", snap); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "frame.png")
	if _, stderr, err := execute(t, "--config", cfgPath, "render", "--study", "ct-1", "-o", out, "--width", "32", "--height", "32", imgPath); err != nil {
		t.Fatalf("render: %v (%s)", err, stderr)
	}
	rf, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer rf.Close()
	frame, err := png.Decode(rf)
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if b := frame.Bounds(); b.Dx() != 32 || b.Dy() != 32 {
		t.Fatalf("frame bounds %v", b)
	}
	r, g, b, _ := frame.At(16, 16).RGBA()
	if r>>8 > 10 || g>>8 > 10 || b>>8 > 10 {
		t.Fatalf("centre pixel = %d,%d,%d; want inverted white", r>>8, g>>8, b>>8)
	}
}

func TestRenderRejectsBadInput(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir)
	tests := []struct {
		name string
		args []string
	}{
		{"no images", []string{"render", "-o", filepath.Join(dir, "x.png")}},
		{"no output", []string{"render", "scan.png"}},
		{"bad study", []string{"render", "--study", "../etc", "-o", filepath.Join(dir, "x.png"), "scan.png"}},
		{"tiny", []string{"render", "--width", "4", "-o", filepath.Join(dir, "x.png"), "scan.png"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--config", cfgPath}, tt.args...)
			if _, _, err := execute(t, args...); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	tests := map[string]string{
		"/data/scans/chest.dcm":             "chest.dcm",
		"https://pacs.example/img/knee.png": "knee.png",
		"file:///tmp/a/b.webp":              "b.webp",
		"blob:1234":                         "blob:1234",
		"relative.png":                      "relative.png",
	}
	for ref, want := range tests {
		if got := displayName(ref); got != want {
			t.Errorf("displayName(%q) = %q, want %q", ref, got, want)
		}
	}
}

type quietNotifier struct{}

func (quietNotifier) Notify(notify.Event, string) {}

func storedStudy(t *testing.T, store persist.Store, study string) *persist.Snapshot {
	t.Helper()
	snap := &persist.Snapshot{
		Images: []persist.ImageState{
			{Annotations: annotation.List{annotation.Arrow{EndX: 10, EndY: 10}}, Settings: transform.Default()},
			{Annotations: annotation.List{annotation.Circle{Radius: 4}}, Settings: transform.Default()},
		},
		Layout: layout.Single,
	}
	if err := store.Save(context.Background(), study, snap); err != nil {
		t.Fatal(err)
	}
	return snap
}

func TestOpenSessionWithoutImagesKeepsStoredStudy(t *testing.T) {
	ctx := context.Background()
	store := persist.NewMemoryStore()
	storedStudy(t, store, "mr-7")
	a := &app{cfg: config.New(), log: zerolog.Nop()}

	ctl, err := a.openSession(ctx, store, "mr-7", nil, quietNotifier{})
	if err != nil {
		t.Fatalf("openSession: %v", err)
	}
	ctl.Dispatch(viewer.SetLayout{Layout: layout.Split})

	got, err := store.Load(ctx, "mr-7")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Images) != 2 || got.Layout != layout.Single {
		t.Fatalf("stored study changed: %d images, layout %s", len(got.Images), got.Layout)
	}
}

func TestOpenSessionMergesBeforeSaving(t *testing.T) {
	ctx := context.Background()
	store := persist.NewMemoryStore()
	storedStudy(t, store, "mr-8")
	a := &app{cfg: config.New(), log: zerolog.Nop()}

	ctl, err := a.openSession(ctx, store, "mr-8", []string{"/scans/a.dcm"}, quietNotifier{})
	if err != nil {
		t.Fatalf("openSession: %v", err)
	}
	im, ok := ctl.Snapshot().CurrentImage()
	if !ok || len(im.Annotations) != 1 {
		t.Fatalf("saved annotations not merged: %+v", im.Annotations)
	}
	if got, _ := store.Load(ctx, "mr-8"); len(got.Images) != 2 {
		t.Fatalf("opening rewrote the study: %d images", len(got.Images))
	}

	ctl.Dispatch(viewer.SetLayout{Layout: layout.Split})
	got, err := store.Load(ctx, "mr-8")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Images) != 1 || got.Layout != layout.Split || len(got.Images[0].Annotations) != 1 {
		t.Fatalf("saved after change: %+v", got)
	}
}
