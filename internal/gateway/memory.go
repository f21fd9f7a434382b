package gateway

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/viant/agentspace/service/memory"
)

// StoreMemory upserts a memory entry by its logical identity.
// (POST /api/v1/memory)
func (s *Server) StoreMemory(c echo.Context) error {
	var entry memory.Entry
	if err := c.Bind(&entry); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body: "+err.Error())
	}
	if ws := workspaceID(c); ws != "" {
		entry.WorkspaceID = ws
	}
	if entry.WorkspaceID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "workspace id is required")
	}
	stored, err := s.runtime.Memory().Store(c.Request().Context(), &entry)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, stored)
}

// QueryMemory returns matching unexpired entries ranked by importance.
// (POST /api/v1/memory/query)
func (s *Server) QueryMemory(c echo.Context) error {
	var query memory.Query
	if err := c.Bind(&query); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body: "+err.Error())
	}
	ws := workspaceID(c)
	if ws == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "workspace id is required")
	}
	entries, err := s.runtime.Memory().Query(c.Request().Context(), ws, &query)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, entries)
}

// GetMemory returns an entry by id within the caller's workspace.
// (GET /api/v1/memory/:id)
func (s *Server) GetMemory(c echo.Context) error {
	entry, err := s.runtime.Memory().Get(c.Request().Context(), workspaceID(c), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, entry)
}

// DeleteMemory removes an entry by id within the caller's workspace.
// (DELETE /api/v1/memory/:id)
func (s *Server) DeleteMemory(c echo.Context) error {
	if err := s.runtime.Memory().Delete(c.Request().Context(), workspaceID(c), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
