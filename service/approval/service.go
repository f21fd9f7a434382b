package approval

import (
	"context"
	"errors"
	"time"

	"github.com/viant/agentspace/service/messaging"
)

var (
	// ErrAlreadyResolved is returned when resolving an action that already
	// left the pending state.
	ErrAlreadyResolved = errors.New("approval: already resolved")

	// ErrExpired is returned when resolving an action past its deadline.
	ErrExpired = errors.New("approval: expired")

	// ErrNotFound is returned for unknown action ids.
	ErrNotFound = errors.New("approval: not found")
)

// Service defines the approval lifecycle operations.
type Service interface {
	// Queue registers a pending action. Zero TTL takes the team default;
	// TTLs above the team cap are clamped.
	Queue(ctx context.Context, action *PendingAction, ttl time.Duration) error

	// ListPending returns pending actions matching the filters, oldest
	// first. Actions past their deadline are excluded.
	ListPending(ctx context.Context, filters ...PendingFilter) ([]*PendingAction, error)

	// PendingCount returns the number of pending, unexpired actions in a
	// workspace.
	PendingCount(ctx context.Context, workspaceID string) (int, error)

	// Get returns a single action with its effective status.
	Get(ctx context.Context, id string) (*PendingAction, error)

	// Decide resolves a pending action. Exactly one Decide per action
	// succeeds; later calls return ErrAlreadyResolved, and calls past the
	// deadline return ErrExpired after persisting the expired status.
	Decide(ctx context.Context, id string, approved bool, reviewerID, notes string) (*PendingAction, error)

	// Withdraw resolves a pending action without a decision, e.g. when the
	// execution it gates is cancelled before review. Resolved actions return
	// ErrAlreadyResolved.
	Withdraw(ctx context.Context, id string) error

	// ExpireOverdue persists the expired status on every pending action
	// past its deadline and returns how many were expired. Expiry otherwise
	// happens lazily on read.
	ExpireOverdue(ctx context.Context) (int, error)

	// Events exposes the lifecycle event queue.
	Events() messaging.Queue[Event]
}

// Resumer continues a parked execution once its gating approval resolves.
// The engine implements it; the approval service only needs the contract.
type Resumer interface {
	ResumeApproved(ctx context.Context, executionID, stepID string) error
	ResumeRejected(ctx context.Context, executionID, stepID, reason string) error
}

// PendingFilter narrows ListPending results.
type PendingFilter func(*PendingAction) bool

// WithWorkspace filters by workspace id.
func WithWorkspace(workspaceID string) PendingFilter {
	return func(a *PendingAction) bool { return a.WorkspaceID == workspaceID }
}

// WithTeam filters by team id.
func WithTeam(teamID string) PendingFilter {
	return func(a *PendingAction) bool { return a.TeamID == teamID }
}

// WithAgent filters by agent id.
func WithAgent(agentID string) PendingFilter {
	return func(a *PendingAction) bool { return a.AgentID == agentID }
}

// WithExecution filters by execution id.
func WithExecution(executionID string) PendingFilter {
	return func(a *PendingAction) bool { return a.ExecutionID == executionID }
}

// WithActionType filters by action type.
func WithActionType(actionType string) PendingFilter {
	return func(a *PendingAction) bool { return a.ActionType == actionType }
}
