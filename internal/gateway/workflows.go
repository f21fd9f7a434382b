package gateway

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/viant/agentspace/model"
	"github.com/viant/agentspace/service/engine"
)

// CreateWorkflow creates a workflow definition.
// (POST /api/v1/workflows)
func (s *Server) CreateWorkflow(c echo.Context) error {
	ctx := c.Request().Context()
	var definition model.Definition
	if err := c.Bind(&definition); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body: "+err.Error())
	}
	if ws := workspaceID(c); ws != "" {
		definition.WorkspaceID = ws
	}
	created, err := s.runtime.Engine().Create(ctx, &definition)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, created)
}

// GetWorkflow returns the workflow detail view.
// (GET /api/v1/workflows/:id)
func (s *Server) GetWorkflow(c echo.Context) error {
	detail, err := s.runtime.Engine().Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, detail)
}

// UpdateWorkflow applies a partial update, versioning the pre-change state.
// (PATCH /api/v1/workflows/:id)
func (s *Server) UpdateWorkflow(c echo.Context) error {
	ctx := c.Request().Context()
	var update engine.UpdateRequest
	if err := c.Bind(&update); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body: "+err.Error())
	}
	updated, err := s.runtime.Engine().Update(ctx, c.Param("id"), &update)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, updated)
}

// ListVersions returns the workflow's version history, newest first.
// (GET /api/v1/workflows/:id/versions)
func (s *Server) ListVersions(c echo.Context) error {
	versions, err := s.runtime.Engine().ListVersions(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, versions)
}

type restoreRequest struct {
	ActorID string `json:"actorId"`
}

type restoreResponse struct {
	SavedAsVersion int `json:"savedAsVersion"`
}

// RestoreVersion rolls the definition back to a historical version.
// (POST /api/v1/workflows/:id/versions/:number/restore)
func (s *Server) RestoreVersion(c echo.Context) error {
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid version number")
	}
	var req restoreRequest
	_ = c.Bind(&req)
	saved, err := s.runtime.Engine().RestoreVersion(c.Request().Context(), c.Param("id"), number, req.ActorID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, restoreResponse{SavedAsVersion: saved})
}

type executeRequest struct {
	Trigger map[string]interface{} `json:"trigger"`
}

type executeResponse struct {
	ExecutionID string `json:"executionId"`
}

// ExecuteWorkflow starts a run and returns the execution id immediately.
// (POST /api/v1/workflows/:id/executions)
func (s *Server) ExecuteWorkflow(c echo.Context) error {
	var req executeRequest
	_ = c.Bind(&req)
	execID, err := s.runtime.Engine().Execute(c.Request().Context(), c.Param("id"), req.Trigger)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusAccepted, executeResponse{ExecutionID: execID})
}

// ListExecutions returns the workflow's executions, newest first.
// (GET /api/v1/workflows/:id/executions)
func (s *Server) ListExecutions(c echo.Context) error {
	executions, err := s.runtime.Engine().ListExecutions(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, executions)
}

// GetExecution returns a single execution.
// (GET /api/v1/executions/:id)
func (s *Server) GetExecution(c echo.Context) error {
	exec, err := s.runtime.Engine().GetExecution(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, exec)
}

// CancelExecution flags an execution for cancellation.
// (POST /api/v1/executions/:id/cancel)
func (s *Server) CancelExecution(c echo.Context) error {
	if err := s.runtime.Engine().Cancel(c.Request().Context(), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusAccepted)
}
