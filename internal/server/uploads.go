package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/example/radview/internal/upload"
)

type uploadResult struct {
	Name  string `json:"name"`
	URL   string `json:"url,omitempty"`
	Error string `json:"error,omitempty"`
}

type uploadResponse struct {
	Results []uploadResult `json:"results"`
	Skipped []string       `json:"skipped"`
}

func (s *Server) handleUpload(c echo.Context) error {
	if s.opts.Blobs == nil {
		return errorJSON(c, http.StatusServiceUnavailable, errors.New("uploads are not configured"))
	}
	form, err := c.MultipartForm()
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, fmt.Errorf("multipart form: %w", err))
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		return errorJSON(c, http.StatusBadRequest, errors.New("files are required"))
	}
	files := make([]upload.File, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > upload.MaxFileSize {
			return errorJSON(c, http.StatusRequestEntityTooLarge, fmt.Errorf("%s: %w", fh.Filename, upload.ErrFileTooLarge))
		}
		src, err := fh.Open()
		if err != nil {
			return errorJSON(c, http.StatusBadRequest, err)
		}
		data, err := io.ReadAll(io.LimitReader(src, upload.MaxFileSize+1))
		src.Close()
		if err != nil {
			return errorJSON(c, http.StatusBadRequest, err)
		}
		files = append(files, upload.File{Name: fh.Filename, ContentType: fh.Header.Get("Content-Type"), Data: data})
	}

	rep, err := upload.Run(c.Request().Context(), s.opts.Blobs, files)
	resp := uploadResponse{Results: []uploadResult{}, Skipped: rep.Skipped}
	if resp.Skipped == nil {
		resp.Skipped = []string{}
	}
	if errors.Is(err, upload.ErrNothingSupported) {
		return c.JSON(http.StatusUnsupportedMediaType, map[string]any{"error": err.Error(), "skipped": resp.Skipped})
	}
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, err)
	}
	for _, r := range rep.Results {
		out := uploadResult{Name: r.Name, URL: r.URL}
		if r.Err != nil {
			out.Error = r.Err.Error()
			s.log.Warn().Err(r.Err).Str("file", r.Name).Msg("upload failed")
		}
		resp.Results = append(resp.Results, out)
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleBlob(c echo.Context) error {
	if s.opts.Blobs == nil {
		return errorJSON(c, http.StatusNotFound, upload.ErrBlobNotFound)
	}
	rc, meta, err := s.opts.Blobs.Open(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, upload.ErrBlobNotFound) {
			return errorJSON(c, http.StatusNotFound, err)
		}
		return errorJSON(c, http.StatusInternalServerError, err)
	}
	defer rc.Close()
	c.Response().Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename=%q`, meta.FileName))
	c.Response().Header().Set("ETag", `"`+meta.Hash+`"`)
	return c.Stream(http.StatusOK, meta.ContentType, rc)
}
