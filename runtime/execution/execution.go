package execution

import (
	"sync"
	"time"
)

// Execution states.
const (
	StatePending   = "pending"
	StateRunning   = "running"
	StateCompleted = "completed"
	StateFailed    = "failed"
	StateCancelled = "cancelled"
)

// Execution represents a single run of a workflow. Context accumulates the
// trigger payload plus each completed step's output keyed by step id.
type Execution struct {
	ID               string                 `json:"id"`
	WorkflowID       string                 `json:"workflowId"`
	WorkspaceID      string                 `json:"workspaceId"`
	Status           string                 `json:"status"`
	CurrentStepIndex int                    `json:"currentStepIndex"`
	CompletedSteps   int                    `json:"completedSteps"`
	TotalSteps       int                    `json:"totalSteps"`
	DurationMs       int64                  `json:"durationMs,omitempty"`
	StartedAt        *time.Time             `json:"startedAt,omitempty"`
	CompletedAt      *time.Time             `json:"completedAt,omitempty"`
	Error            string                 `json:"error,omitempty"`
	Context          map[string]interface{} `json:"context,omitempty"`

	// WaitingApprovalID is set while the execution is parked on a pending
	// approval; the status stays running but no step advances.
	WaitingApprovalID string `json:"waitingApprovalId,omitempty"`
	// ApprovedSteps marks steps whose autonomy gate was already satisfied,
	// so resumption does not re-queue an approval.
	ApprovedSteps map[string]bool `json:"approvedSteps,omitempty"`
	// RejectedSteps maps a step id to the rejection reason recorded while the
	// execution was parked; the runner consumes it as a step failure.
	RejectedSteps   map[string]string `json:"rejectedSteps,omitempty"`
	CancelRequested bool              `json:"cancelRequested,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`

	mux sync.RWMutex
}

// New creates a pending execution seeded with the trigger payload.
func New(id, workflowID, workspaceID string, totalSteps int, trigger map[string]interface{}) *Execution {
	ctx := make(map[string]interface{})
	for k, v := range trigger {
		ctx[k] = v
	}
	return &Execution{
		ID:          id,
		WorkflowID:  workflowID,
		WorkspaceID: workspaceID,
		Status:      StatePending,
		TotalSteps:  totalSteps,
		Context:     ctx,
		CreatedAt:   time.Now(),
	}
}

// Start marks the execution as running.
func (e *Execution) Start() {
	e.mux.Lock()
	defer e.mux.Unlock()
	now := time.Now()
	e.StartedAt = &now
	e.Status = StateRunning
}

// Complete marks the execution as completed and freezes its duration.
func (e *Execution) Complete() {
	e.mux.Lock()
	defer e.mux.Unlock()
	e.finish(StateCompleted)
}

// Fail marks the execution as failed.
func (e *Execution) Fail(err error) {
	e.mux.Lock()
	defer e.mux.Unlock()
	if err != nil {
		e.Error = err.Error()
	}
	e.finish(StateFailed)
}

// Cancel marks the execution as cancelled.
func (e *Execution) Cancel() {
	e.mux.Lock()
	defer e.mux.Unlock()
	e.finish(StateCancelled)
}

func (e *Execution) finish(status string) {
	now := time.Now()
	e.CompletedAt = &now
	e.Status = status
	if e.StartedAt != nil {
		e.DurationMs = now.Sub(*e.StartedAt).Milliseconds()
	}
}

// Park records the pending approval blocking this execution. The status
// stays running; no worker is held while parked.
func (e *Execution) Park(approvalID string) {
	e.mux.Lock()
	defer e.mux.Unlock()
	e.WaitingApprovalID = approvalID
}

// Unpark clears the approval block and marks the gated step approved.
func (e *Execution) Unpark(stepID string) {
	e.mux.Lock()
	defer e.mux.Unlock()
	e.WaitingApprovalID = ""
	if e.ApprovedSteps == nil {
		e.ApprovedSteps = make(map[string]bool)
	}
	e.ApprovedSteps[stepID] = true
}

// UnparkRejected clears the approval block recording a rejection for the
// gated step.
func (e *Execution) UnparkRejected(stepID, reason string) {
	e.mux.Lock()
	defer e.mux.Unlock()
	e.WaitingApprovalID = ""
	if e.RejectedSteps == nil {
		e.RejectedSteps = make(map[string]string)
	}
	e.RejectedSteps[stepID] = reason
}

// TakeRejection consumes a recorded rejection for the step, if any.
func (e *Execution) TakeRejection(stepID string) (string, bool) {
	e.mux.Lock()
	defer e.mux.Unlock()
	reason, ok := e.RejectedSteps[stepID]
	if ok {
		delete(e.RejectedSteps, stepID)
	}
	return reason, ok
}

// IsParked reports whether the execution waits on an approval.
func (e *Execution) IsParked() bool {
	e.mux.RLock()
	defer e.mux.RUnlock()
	return e.WaitingApprovalID != ""
}

// IsFinished reports whether the execution reached a terminal state.
func (e *Execution) IsFinished() bool {
	e.mux.RLock()
	defer e.mux.RUnlock()
	switch e.Status {
	case StateCompleted, StateFailed, StateCancelled:
		return true
	}
	return false
}

// RequestCancel flags the execution for cancellation; the runner honours the
// flag at the next step boundary.
func (e *Execution) RequestCancel() {
	e.mux.Lock()
	defer e.mux.Unlock()
	e.CancelRequested = true
}

// IsCancelRequested reports whether cancellation was requested.
func (e *Execution) IsCancelRequested() bool {
	e.mux.RLock()
	defer e.mux.RUnlock()
	return e.CancelRequested
}

// State returns the current status.
func (e *Execution) State() string {
	e.mux.RLock()
	defer e.mux.RUnlock()
	return e.Status
}

// StepCursor returns the index of the step due to run next.
func (e *Execution) StepCursor() int {
	e.mux.RLock()
	defer e.mux.RUnlock()
	return e.CurrentStepIndex
}

// AdvanceTo moves the step cursor.
func (e *Execution) AdvanceTo(index int) {
	e.mux.Lock()
	defer e.mux.Unlock()
	e.CurrentStepIndex = index
}

// SetContextValue stores a single value in the execution context.
func (e *Execution) SetContextValue(key string, value interface{}) {
	e.mux.Lock()
	defer e.mux.Unlock()
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
}

// IsStepApproved reports whether the step's autonomy gate was already
// satisfied by a recorded approval.
func (e *Execution) IsStepApproved(stepID string) bool {
	e.mux.RLock()
	defer e.mux.RUnlock()
	return e.ApprovedSteps[stepID]
}

// PendingApprovalID returns the approval id the execution waits on, if any.
func (e *Execution) PendingApprovalID() string {
	e.mux.RLock()
	defer e.mux.RUnlock()
	return e.WaitingApprovalID
}

// ClearPark drops the pending-approval link without deciding the gated step
// and returns the approval id that was blocking the execution.
func (e *Execution) ClearPark() string {
	e.mux.Lock()
	defer e.mux.Unlock()
	id := e.WaitingApprovalID
	e.WaitingApprovalID = ""
	return id
}

// RecordStepOutput stores a completed step output and advances counters.
func (e *Execution) RecordStepOutput(stepID string, output map[string]interface{}) {
	e.mux.Lock()
	defer e.mux.Unlock()
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	if output != nil {
		e.Context[stepID] = output
	}
	e.CompletedSteps++
}

// ContextSnapshot returns a shallow copy of the execution context for
// condition evaluation.
func (e *Execution) ContextSnapshot() map[string]interface{} {
	e.mux.RLock()
	defer e.mux.RUnlock()
	snapshot := make(map[string]interface{}, len(e.Context))
	for k, v := range e.Context {
		snapshot[k] = v
	}
	return snapshot
}

// Clone creates a copy safe to hand across goroutines.
func (e *Execution) Clone() *Execution {
	if e == nil {
		return nil
	}
	e.mux.RLock()
	defer e.mux.RUnlock()
	clone := &Execution{
		ID:                e.ID,
		WorkflowID:        e.WorkflowID,
		WorkspaceID:       e.WorkspaceID,
		Status:            e.Status,
		CurrentStepIndex:  e.CurrentStepIndex,
		CompletedSteps:    e.CompletedSteps,
		TotalSteps:        e.TotalSteps,
		DurationMs:        e.DurationMs,
		Error:             e.Error,
		WaitingApprovalID: e.WaitingApprovalID,
		CancelRequested:   e.CancelRequested,
		CreatedAt:         e.CreatedAt,
	}
	if e.StartedAt != nil {
		t := *e.StartedAt
		clone.StartedAt = &t
	}
	if e.CompletedAt != nil {
		t := *e.CompletedAt
		clone.CompletedAt = &t
	}
	if e.Context != nil {
		clone.Context = make(map[string]interface{}, len(e.Context))
		for k, v := range e.Context {
			clone.Context[k] = v
		}
	}
	if e.ApprovedSteps != nil {
		clone.ApprovedSteps = make(map[string]bool, len(e.ApprovedSteps))
		for k, v := range e.ApprovedSteps {
			clone.ApprovedSteps[k] = v
		}
	}
	if e.RejectedSteps != nil {
		clone.RejectedSteps = make(map[string]string, len(e.RejectedSteps))
		for k, v := range e.RejectedSteps {
			clone.RejectedSteps[k] = v
		}
	}
	return clone
}
