package approval

import (
	"time"

	"github.com/viant/agentspace/policy"
)

// PendingAction statuses. Pending is the only non-terminal status.
const (
	StatusPending      = "pending"
	StatusApproved     = "approved"
	StatusRejected     = "rejected"
	StatusExpired      = "expired"
	StatusWithdrawn    = "withdrawn"
	StatusAutoApproved = "auto_approved"
)

// PendingAction represents an agent action awaiting a human decision, or the
// immutable record of how it was decided.
type PendingAction struct {
	ID          string `json:"id"`
	WorkspaceID string `json:"workspaceId"`
	TeamID      string `json:"teamId,omitempty"`
	AgentID     string `json:"agentId,omitempty"`
	ExecutionID string `json:"executionId,omitempty"`
	StepID      string `json:"stepId,omitempty"`

	ActionType  string                 `json:"actionType"`
	ActionData  map[string]interface{} `json:"actionData,omitempty"`
	Description string                 `json:"description,omitempty"`
	Risk        policy.RiskLevel       `json:"risk"`

	Status      string     `json:"status"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty"`
	ReviewerID  string     `json:"reviewerId,omitempty"`
	ReviewNotes string     `json:"reviewNotes,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	ResolvedAt  *time.Time `json:"resolvedAt,omitempty"`
}

// EffectiveStatus reports the status as of now: a pending action past its
// deadline reads as expired even before any write normalizes it.
func (a *PendingAction) EffectiveStatus(now time.Time) string {
	if a.Status == StatusPending && a.ExpiresAt != nil && now.After(*a.ExpiresAt) {
		return StatusExpired
	}
	return a.Status
}

// IsResolved reports whether the action left the pending state.
func (a *PendingAction) IsResolved() bool {
	return a.Status != StatusPending
}

// Decision captures the outcome of a resolution for event listeners.
type Decision struct {
	ID        string    `json:"id"` // same as the action ID
	Status    string    `json:"status"`
	Reviewer  string    `json:"reviewer,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	DecidedAt time.Time `json:"decidedAt"`
}

// Event envelope published on the approval queue.
type Event struct {
	Topic   string            // see topic constants below
	Data    interface{}       // *PendingAction | *Decision
	Headers map[string]string `json:"headers,omitempty"` // optional: tenant, correlation-id etc.
}

// Standard event topics.
const (
	TopicRequestCreated   = "request.created"
	TopicRequestExpired   = "request.expired"
	TopicRequestWithdrawn = "request.withdrawn"
	TopicDecisionCreated  = "decision.created"
)
