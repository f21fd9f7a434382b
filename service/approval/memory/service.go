package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/viant/agentspace/internal/clock"
	"github.com/viant/agentspace/internal/idgen"
	"github.com/viant/agentspace/policy"
	"github.com/viant/agentspace/service/approval"
	"github.com/viant/agentspace/service/dao"
	"github.com/viant/agentspace/service/dao/store"
	"github.com/viant/agentspace/service/messaging"
	qmem "github.com/viant/agentspace/service/messaging/memory"
)

type service struct {
	actions  dao.Service[string, approval.PendingAction]
	events   messaging.Queue[approval.Event]
	policies policy.Provider
	resumer  approval.Resumer

	// mux serializes resolution so that exactly one of two concurrent
	// decisions on the same action wins.
	mux sync.Mutex
}

func actionKey(a *approval.PendingAction) string { return a.ID }

// New creates an in-memory approval service.
func New(options ...Option) approval.Service {
	ret := &service{
		actions: store.NewMemoryStore[string, approval.PendingAction](actionKey),
		events:  qmem.NewQueue[approval.Event](qmem.DefaultConfig()),
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

func (s *service) Queue(ctx context.Context, action *approval.PendingAction, ttl time.Duration) error {
	if action == nil {
		return fmt.Errorf("approval: nil action")
	}
	if action.WorkspaceID == "" {
		return fmt.Errorf("approval: workspaceId is required")
	}
	if action.ActionType == "" {
		return fmt.Errorf("approval: actionType is required")
	}
	if !action.Risk.Valid() {
		action.Risk = policy.RiskMedium
	}
	if action.ID == "" {
		action.ID = idgen.New()
	}

	var cfg *policy.AutonomyConfig
	if s.policies != nil && action.TeamID != "" {
		cfg, _ = s.policies.AutonomyConfig(ctx, action.TeamID)
	}
	now := clock.Now()
	deadline := now.Add(cfg.ApprovalTTL(ttl))

	action.Status = approval.StatusPending
	action.CreatedAt = now
	action.ExpiresAt = &deadline
	action.ResolvedAt = nil
	action.ReviewerID = ""
	action.ReviewNotes = ""

	if err := s.actions.Save(ctx, action); err != nil {
		return err
	}
	_ = s.events.Publish(ctx, &approval.Event{Topic: approval.TopicRequestCreated, Data: action})
	return nil
}

func (s *service) ListPending(ctx context.Context, filters ...approval.PendingFilter) ([]*approval.PendingAction, error) {
	all, err := s.actions.List(ctx)
	if err != nil {
		return nil, err
	}
	now := clock.Now()
	pending := make([]*approval.PendingAction, 0, len(all))
outer:
	for _, a := range all {
		if a.EffectiveStatus(now) != approval.StatusPending {
			continue
		}
		for _, filter := range filters {
			if !filter(a) {
				continue outer
			}
		}
		pending = append(pending, a)
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	return pending, nil
}

func (s *service) PendingCount(ctx context.Context, workspaceID string) (int, error) {
	pending, err := s.ListPending(ctx, approval.WithWorkspace(workspaceID))
	if err != nil {
		return 0, err
	}
	return len(pending), nil
}

func (s *service) Get(ctx context.Context, id string) (*approval.PendingAction, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	action, err := s.actions.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if action == nil {
		return nil, approval.ErrNotFound
	}
	// Lazy expiry: persist the transition the first time an overdue action
	// is observed.
	if action.Status == approval.StatusPending && action.EffectiveStatus(clock.Now()) == approval.StatusExpired {
		s.mux.Lock()
		if action.Status == approval.StatusPending {
			s.expireLocked(ctx, action)
		}
		s.mux.Unlock()
	}
	return action, nil
}

func (s *service) Decide(ctx context.Context, id string, approved bool, reviewerID, notes string) (*approval.PendingAction, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}

	s.mux.Lock()
	action, err := s.actions.Load(ctx, id)
	if err != nil {
		s.mux.Unlock()
		return nil, err
	}
	if action == nil {
		s.mux.Unlock()
		return nil, approval.ErrNotFound
	}
	if action.IsResolved() {
		s.mux.Unlock()
		return nil, approval.ErrAlreadyResolved
	}
	now := clock.Now()
	if action.EffectiveStatus(now) == approval.StatusExpired {
		s.expireLocked(ctx, action)
		s.mux.Unlock()
		return nil, approval.ErrExpired
	}

	if approved {
		action.Status = approval.StatusApproved
	} else {
		action.Status = approval.StatusRejected
	}
	action.ReviewerID = reviewerID
	action.ReviewNotes = notes
	action.ResolvedAt = &now
	if err = s.actions.Save(ctx, action); err != nil {
		s.mux.Unlock()
		return nil, err
	}
	s.mux.Unlock()

	_ = s.events.Publish(ctx, &approval.Event{Topic: approval.TopicDecisionCreated, Data: &approval.Decision{
		ID:        action.ID,
		Status:    action.Status,
		Reviewer:  reviewerID,
		Notes:     notes,
		DecidedAt: now,
	}})

	// Resume the parked execution outside the lock; resumption re-runs the
	// gated step which may queue further approvals.
	if s.resumer != nil && action.ExecutionID != "" {
		if approved {
			err = s.resumer.ResumeApproved(ctx, action.ExecutionID, action.StepID)
		} else {
			err = s.resumer.ResumeRejected(ctx, action.ExecutionID, action.StepID, notes)
		}
		if err != nil {
			return action, fmt.Errorf("approval: resume execution %s: %w", action.ExecutionID, err)
		}
	}
	return action, nil
}

func (s *service) Withdraw(ctx context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}
	s.mux.Lock()
	action, err := s.actions.Load(ctx, id)
	if err != nil {
		s.mux.Unlock()
		return err
	}
	if action == nil {
		s.mux.Unlock()
		return approval.ErrNotFound
	}
	if action.IsResolved() {
		s.mux.Unlock()
		return approval.ErrAlreadyResolved
	}
	now := clock.Now()
	action.Status = approval.StatusWithdrawn
	action.ResolvedAt = &now
	if err = s.actions.Save(ctx, action); err != nil {
		s.mux.Unlock()
		return err
	}
	s.mux.Unlock()
	_ = s.events.Publish(ctx, &approval.Event{Topic: approval.TopicRequestWithdrawn, Data: action})
	return nil
}

func (s *service) ExpireOverdue(ctx context.Context) (int, error) {
	all, err := s.actions.List(ctx)
	if err != nil {
		return 0, err
	}
	now := clock.Now()
	expired := 0
	s.mux.Lock()
	defer s.mux.Unlock()
	for _, a := range all {
		if a.Status != approval.StatusPending || a.EffectiveStatus(now) != approval.StatusExpired {
			continue
		}
		s.expireLocked(ctx, a)
		expired++
	}
	return expired, nil
}

// expireLocked persists the expired status; caller holds s.mux.
func (s *service) expireLocked(ctx context.Context, action *approval.PendingAction) {
	now := clock.Now()
	action.Status = approval.StatusExpired
	action.ResolvedAt = &now
	_ = s.actions.Save(ctx, action)
	_ = s.events.Publish(ctx, &approval.Event{Topic: approval.TopicRequestExpired, Data: action})
}

func (s *service) Events() messaging.Queue[approval.Event] {
	return s.events
}
