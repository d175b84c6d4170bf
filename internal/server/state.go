package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/example/radview/internal/persist"
)

func (s *Server) studyID(c echo.Context) (string, error) {
	id := c.Param("id")
	if err := persist.ValidStudyID(id); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Server) handleGetState(c echo.Context) error {
	id, err := s.studyID(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err)
	}
	snap, err := s.opts.Store.Load(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, persist.ErrNotFound) {
			return errorJSON(c, http.StatusNotFound, err)
		}
		return errorJSON(c, http.StatusInternalServerError, err)
	}
	data, err := persist.Encode(snap)
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, err)
	}
	return c.JSONBlob(http.StatusOK, data)
}

func (s *Server) handlePutState(c echo.Context) error {
	id, err := s.studyID(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err)
	}
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, s.opts.MaxBodyBytes+1))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err)
	}
	if int64(len(body)) > s.opts.MaxBodyBytes {
		return errorJSON(c, http.StatusRequestEntityTooLarge, fmt.Errorf("state exceeds %d bytes", s.opts.MaxBodyBytes))
	}
	snap, err := persist.Decode(body)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err)
	}
	if err := s.opts.Store.Save(c.Request().Context(), id, snap); err != nil {
		return errorJSON(c, http.StatusInternalServerError, err)
	}
	data, err := persist.Encode(snap)
	if err != nil {
		return errorJSON(c, http.StatusInternalServerError, err)
	}
	return c.JSONBlob(http.StatusOK, data)
}

func (s *Server) handleDeleteState(c echo.Context) error {
	id, err := s.studyID(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err)
	}
	if err := s.opts.Store.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, persist.ErrNotFound) {
			return errorJSON(c, http.StatusNotFound, err)
		}
		return errorJSON(c, http.StatusInternalServerError, err)
	}
	return c.NoContent(http.StatusNoContent)
}
