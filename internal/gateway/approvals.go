package gateway

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/viant/agentspace/service/approval"
)

func pendingFilters(c echo.Context) []approval.PendingFilter {
	var filters []approval.PendingFilter
	if ws := workspaceID(c); ws != "" {
		filters = append(filters, approval.WithWorkspace(ws))
	}
	if team := c.QueryParam("teamId"); team != "" {
		filters = append(filters, approval.WithTeam(team))
	}
	if agentID := c.QueryParam("agentId"); agentID != "" {
		filters = append(filters, approval.WithAgent(agentID))
	}
	if actionType := c.QueryParam("actionType"); actionType != "" {
		filters = append(filters, approval.WithActionType(actionType))
	}
	return filters
}

// ListPendingApprovals returns pending, unexpired actions, oldest first.
// (GET /api/v1/approvals)
func (s *Server) ListPendingApprovals(c echo.Context) error {
	pending, err := s.runtime.Approvals().ListPending(c.Request().Context(), pendingFilters(c)...)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pending)
}

type countResponse struct {
	Count int `json:"count"`
}

// PendingApprovalCount returns the workspace's pending action count.
// (GET /api/v1/approvals/count)
func (s *Server) PendingApprovalCount(c echo.Context) error {
	count, err := s.runtime.Approvals().PendingCount(c.Request().Context(), workspaceID(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, countResponse{Count: count})
}

// GetApproval returns a single action with its effective status.
// (GET /api/v1/approvals/:id)
func (s *Server) GetApproval(c echo.Context) error {
	action, err := s.runtime.Approvals().Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, action)
}

type decisionRequest struct {
	Approved   bool   `json:"approved"`
	ReviewerID string `json:"reviewerId"`
	Notes      string `json:"notes"`
}

// DecideApproval resolves a pending action. A decision that lost the race
// returns 409.
// (POST /api/v1/approvals/:id/decision)
func (s *Server) DecideApproval(c echo.Context) error {
	var req decisionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body: "+err.Error())
	}
	action, err := s.runtime.Approvals().Decide(c.Request().Context(), c.Param("id"), req.Approved, req.ReviewerID, req.Notes)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, action)
}
