// Package event carries execution and approval lifecycle notifications to
// in-process listeners.
package event

import "time"

// Event types published by the engine and the approval service.
const (
	TypeExecutionStarted   = "execution.started"
	TypeExecutionCompleted = "execution.completed"
	TypeExecutionFailed    = "execution.failed"
	TypeExecutionCancelled = "execution.cancelled"
	TypeExecutionParked    = "execution.parked"
	TypeApprovalRequested  = "approval.requested"
	TypeApprovalDecided    = "approval.decided"
)

// Context identifies the entity an event relates to.
type Context struct {
	EventType   string `json:"eventType"`
	WorkspaceID string `json:"workspaceId,omitempty"`
	WorkflowID  string `json:"workflowId,omitempty"`
	ExecutionID string `json:"executionId,omitempty"`
	StepID      string `json:"stepId,omitempty"`
	ApprovalID  string `json:"approvalId,omitempty"`
}

// Event is the envelope delivered to listeners.
type Event[T any] struct {
	Context   *Context               `json:"context"`
	CreatedAt time.Time              `json:"createdAt"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Data      T                      `json:"data"`
}

// NewEvent creates an envelope stamped with the current time.
func NewEvent[T any](context *Context, data T) *Event[T] {
	return &Event[T]{
		Context:   context,
		CreatedAt: time.Now(),
		Data:      data,
	}
}
