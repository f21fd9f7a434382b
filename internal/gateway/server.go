// Package gateway exposes the workflow, approval and memory operations over
// HTTP.
package gateway

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/viant/agentspace"
	"github.com/viant/agentspace/service/approval"
	"github.com/viant/agentspace/service/dao"
	"github.com/viant/agentspace/service/engine"
)

// WorkspaceHeader names the header carrying the caller's workspace scope.
const WorkspaceHeader = "X-Workspace-Id"

// Server holds the handler dependencies.
type Server struct {
	runtime *agentspace.Runtime
}

// NewServer creates a gateway over the assembled runtime.
func NewServer(runtime *agentspace.Runtime) *Server {
	return &Server{runtime: runtime}
}

// Router builds the echo instance with all routes registered.
func (s *Server) Router() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	v1 := e.Group("/api/v1")

	v1.POST("/workflows", s.CreateWorkflow)
	v1.GET("/workflows/:id", s.GetWorkflow)
	v1.PATCH("/workflows/:id", s.UpdateWorkflow)
	v1.GET("/workflows/:id/versions", s.ListVersions)
	v1.POST("/workflows/:id/versions/:number/restore", s.RestoreVersion)
	v1.POST("/workflows/:id/executions", s.ExecuteWorkflow)
	v1.GET("/workflows/:id/executions", s.ListExecutions)
	v1.GET("/executions/:id", s.GetExecution)
	v1.POST("/executions/:id/cancel", s.CancelExecution)

	v1.GET("/approvals", s.ListPendingApprovals)
	v1.GET("/approvals/count", s.PendingApprovalCount)
	v1.GET("/approvals/:id", s.GetApproval)
	v1.POST("/approvals/:id/decision", s.DecideApproval)

	v1.POST("/memory", s.StoreMemory)
	v1.POST("/memory/query", s.QueryMemory)
	v1.GET("/memory/:id", s.GetMemory)
	v1.DELETE("/memory/:id", s.DeleteMemory)

	return e
}

func workspaceID(c echo.Context) string {
	if ws := c.Request().Header.Get(WorkspaceHeader); ws != "" {
		return ws
	}
	return c.QueryParam("workspaceId")
}

// httpError maps service errors onto HTTP statuses: unknown ids become 404,
// lost races and state conflicts 409, invalid input 400.
func httpError(err error) error {
	var validation *engine.ValidationError
	switch {
	case errors.Is(err, engine.ErrNotFound),
		errors.Is(err, dao.ErrNotFound),
		errors.Is(err, approval.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, approval.ErrAlreadyResolved),
		errors.Is(err, approval.ErrExpired),
		errors.Is(err, dao.ErrConflict),
		errors.Is(err, engine.ErrNotActive),
		errors.Is(err, engine.ErrFinished):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.As(err, &validation),
		errors.Is(err, dao.ErrInvalidID),
		errors.Is(err, dao.ErrNilEntity):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
