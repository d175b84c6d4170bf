package main

import (
	"context"
	"errors"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/example/radview/internal/fonts"
	"github.com/example/radview/internal/imagesource"
	"github.com/example/radview/internal/layout"
	"github.com/example/radview/internal/logging"
	"github.com/example/radview/internal/persist"
	"github.com/example/radview/internal/upload"
	"github.com/example/radview/internal/viewer"
)

const defaultStudy = "default"

// newController builds a controller with the configured layout and text
// style; extra options are applied last.
func (a *app) newController(extra ...viewer.Option) (*viewer.Controller, error) {
	l, err := layout.Parse(a.cfg.Viewer.Layout)
	if err != nil {
		return nil, err
	}
	opts := []viewer.Option{
		viewer.WithLayout(l),
		viewer.WithTextStyle(viewer.TextStyle{
			FontSize:   a.cfg.Viewer.FontSize,
			Color:      a.cfg.Viewer.TextColor,
			Background: a.cfg.Viewer.TextBackground,
		}),
		viewer.WithMeasurer(fonts.Measurer{}),
		viewer.WithLogger(logging.Component(a.log, "viewer")),
	}
	return viewer.New(append(opts, extra...)...), nil
}

// loader returns an image loader that resolves blob: references against the
// local blob directory.
func (a *app) loader() (*imagesource.Loader, *upload.DiskStore, error) {
	blobs, err := upload.NewDiskStore(a.cfg.Server.BlobDir, "")
	if err != nil {
		return nil, nil, err
	}
	l := imagesource.NewLoader(logging.Component(a.log, "loader"))
	l.Resolve = blobs.Resolve
	return l, blobs, nil
}

// loadStored returns the saved snapshot for study, or nil when there is none.
func loadStored(ctx context.Context, store persist.Store, study string) (*persist.Snapshot, error) {
	snap, err := store.Load(ctx, study)
	if errors.Is(err, persist.ErrNotFound) {
		return nil, nil
	}
	return snap, err
}

// openSession builds the controller for an interactive study: refs are
// added and the saved state merged before saver is attached, so opening a
// study never rewrites what is stored.
func (a *app) openSession(ctx context.Context, store persist.Store, study string, refs []string, n viewer.Notifier) (*viewer.Controller, error) {
	stored, err := loadStored(ctx, store, study)
	if err != nil {
		a.log.Warn().Err(err).Str("study", study).Msg("saved state ignored")
		stored = nil
	}
	ctl, err := a.newController(viewer.WithNotifier(n))
	if err != nil {
		return nil, err
	}
	if len(refs) > 0 {
		ctl.Dispatch(viewer.AddImages{Images: imageSpecs(refs)})
		if stored != nil {
			ctl.Dispatch(stored.Restore())
		}
	}
	saver := &persist.Saver{
		Store:    store,
		StudyID:  study,
		Log:      logging.Component(a.log, "store"),
		Notifier: n,
	}
	ctl.OnChange(saver.Hook)
	return ctl, nil
}

func imageSpecs(refs []string) []viewer.ImageSpec {
	specs := make([]viewer.ImageSpec, len(refs))
	for i, ref := range refs {
		specs[i] = viewer.ImageSpec{ID: viewer.NewImageID(), Name: displayName(ref), URL: ref}
	}
	return specs
}

// displayName is the last path element of a URL or file reference.
func displayName(ref string) string {
	if strings.HasPrefix(ref, imagesource.BlobPrefix) {
		return ref
	}
	if u, err := url.Parse(ref); err == nil && u.Scheme != "" && u.Path != "" && len(u.Scheme) > 1 {
		return path.Base(u.Path)
	}
	return filepath.Base(ref)
}

// loadAll decodes every image concurrently and feeds the results to ctl in
// list order.
func loadAll(ctx context.Context, ctl *viewer.Controller, l *imagesource.Loader, specs []viewer.ImageSpec) []viewer.ImageLoaded {
	results := make([]viewer.ImageLoaded, len(specs))
	var wg sync.WaitGroup
	for i, spec := range specs {
		wg.Add(1)
		go func(i int, spec viewer.ImageSpec) {
			defer wg.Done()
			img, err := l.Load(ctx, spec.URL)
			results[i] = viewer.ImageLoaded{ID: spec.ID, Bitmap: img, Err: err}
		}(i, spec)
	}
	wg.Wait()
	for _, r := range results {
		ctl.Dispatch(r)
	}
	return results
}
