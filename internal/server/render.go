package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/example/radview/internal/fonts"
	"github.com/example/radview/internal/persist"
	"github.com/example/radview/internal/render"
	"github.com/example/radview/internal/viewer"
)

const (
	defaultRenderWidth  = 1024
	defaultRenderHeight = 768
	maxRenderSide       = 4096
	maxRenderSources    = 64
)

func sizeParam(c echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 16 || v > maxRenderSide {
		return 0, fmt.Errorf("%s must be an integer between 16 and %d", name, maxRenderSide)
	}
	return v, nil
}

// handleRender loads the given sources, merges stored state for the study into
// them and returns the frame the viewer would show.
func (s *Server) handleRender(c echo.Context) error {
	id, err := s.studyID(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err)
	}
	srcs := c.QueryParams()["src"]
	if len(srcs) == 0 {
		return errorJSON(c, http.StatusBadRequest, errors.New("at least one src is required"))
	}
	if len(srcs) > maxRenderSources {
		return errorJSON(c, http.StatusBadRequest, fmt.Errorf("at most %d sources", maxRenderSources))
	}
	width, err := sizeParam(c, "width", defaultRenderWidth)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err)
	}
	height, err := sizeParam(c, "height", defaultRenderHeight)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err)
	}
	refs := make([]string, len(srcs))
	for i, src := range srcs {
		ref, ok := s.sourceRef(src)
		if !ok {
			return errorJSON(c, http.StatusBadRequest, fmt.Errorf("unsupported src %q", src))
		}
		refs[i] = ref
	}

	ctx := c.Request().Context()
	stored, err := s.opts.Store.Load(ctx, id)
	if err != nil && !errors.Is(err, persist.ErrNotFound) {
		return errorJSON(c, http.StatusInternalServerError, err)
	}

	rid, _ := c.Get("request_id").(string)
	ctl := viewer.New(
		viewer.WithSize(width, height),
		viewer.WithMeasurer(fonts.Measurer{}),
		viewer.WithLogger(s.log.With().Str("request_id", rid).Logger()),
	)
	specs := make([]viewer.ImageSpec, len(refs))
	for i, src := range srcs {
		specs[i] = viewer.ImageSpec{ID: strconv.Itoa(i), Name: src, URL: refs[i]}
	}
	ctl.Dispatch(viewer.AddImages{Images: specs})

	results := make([]viewer.ImageLoaded, len(refs))
	var wg sync.WaitGroup
	for i, ref := range refs {
		wg.Add(1)
		go func(i int, ref string) {
			defer wg.Done()
			img, err := s.opts.Loader.Load(ctx, ref)
			results[i] = viewer.ImageLoaded{ID: specs[i].ID, Bitmap: img, Err: err}
		}(i, ref)
	}
	wg.Wait()
	for _, r := range results {
		ctl.Dispatch(r)
	}
	if stored != nil {
		ctl.Dispatch(stored.Restore())
	}

	frame := render.Frame(ctl.Snapshot(), render.Options{Theme: s.opts.Theme})
	var buf bytes.Buffer
	if err := render.PNG(&buf, frame); err != nil {
		return errorJSON(c, http.StatusInternalServerError, err)
	}
	return c.Blob(http.StatusOK, "image/png", buf.Bytes())
}
