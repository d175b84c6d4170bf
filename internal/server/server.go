// Package server exposes study state, rendered frames and image uploads over
// HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/example/radview/internal/imagesource"
	"github.com/example/radview/internal/persist"
	"github.com/example/radview/internal/theme"
	"github.com/example/radview/internal/upload"
)

// Options wire the server to its collaborators.
type Options struct {
	Store  persist.Store
	Blobs  *upload.DiskStore
	Loader *imagesource.Loader
	Theme  *theme.Theme
	Log    zerolog.Logger
	// MaxBodyBytes bounds state documents; uploads use upload.MaxFileSize per file.
	MaxBodyBytes int64
}

// Server is the HTTP surface.
type Server struct {
	e    *echo.Echo
	opts Options
	log  zerolog.Logger
}

// New builds the echo instance with middleware and routes.
func New(opts Options) *Server {
	if opts.Theme == nil {
		opts.Theme = theme.Default()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 16 << 20
	}
	if opts.Loader == nil {
		opts.Loader = imagesource.NewLoader(opts.Log)
	}
	if opts.Blobs != nil && opts.Loader.Resolve == nil {
		opts.Loader.Resolve = opts.Blobs.Resolve
	}
	s := &Server{opts: opts, log: opts.Log.With().Str("component", "server").Logger()}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(Recovery(s.log))
	e.Use(RequestID())
	e.Use(Logger(s.log))

	e.GET("/healthz", s.handleHealth)
	api := e.Group("/api")
	api.GET("/studies/:id/state", s.handleGetState)
	api.PUT("/studies/:id/state", s.handlePutState)
	api.DELETE("/studies/:id/state", s.handleDeleteState)
	api.GET("/studies/:id/render.png", s.handleRender)
	api.POST("/uploads", s.handleUpload)
	e.GET("/blobs/:id", s.handleBlob)

	s.e = e
	return s
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.e }

// Start listens on addr until Shutdown.
func (s *Server) Start(addr string) error {
	s.log.Info().Str("addr", addr).Msg("listening")
	if err := s.e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error { return s.e.Shutdown(ctx) }

func errorJSON(c echo.Context, status int, err error) error {
	return c.JSON(status, map[string]string{"error": err.Error()})
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// sourceRef maps a render src onto something the loader may fetch. Local
// files are never read on behalf of a client.
func (s *Server) sourceRef(src string) (string, bool) {
	if s.opts.Blobs != nil {
		if prefix := s.opts.Blobs.URL(""); prefix != "" && strings.HasPrefix(src, prefix) {
			return imagesource.BlobPrefix + strings.TrimPrefix(src, prefix), true
		}
	}
	switch {
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		return src, true
	case strings.HasPrefix(src, imagesource.BlobPrefix):
		return src, s.opts.Blobs != nil
	}
	return "", false
}
