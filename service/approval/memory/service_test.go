package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/agentspace/internal/clock"
	"github.com/viant/agentspace/policy"
	"github.com/viant/agentspace/service/approval"
)

func freezeClock(t *testing.T) time.Time {
	t.Helper()
	base := time.Now()
	clock.NowFunc = func() time.Time { return base }
	t.Cleanup(func() { clock.NowFunc = time.Now })
	return base
}

func advanceClock(base time.Time, by time.Duration) {
	clock.NowFunc = func() time.Time { return base.Add(by) }
}

func newAction() *approval.PendingAction {
	return &approval.PendingAction{
		WorkspaceID: "ws-1",
		TeamID:      "team-1",
		ActionType:  "payment.transfer",
		Risk:        policy.RiskCritical,
	}
}

func TestQueueAssignsIdentityAndDeadline(t *testing.T) {
	base := freezeClock(t)
	svc := New()
	ctx := context.Background()

	action := newAction()
	require.NoError(t, svc.Queue(ctx, action, 2*time.Hour))
	assert.NotEmpty(t, action.ID)
	assert.Equal(t, approval.StatusPending, action.Status)
	require.NotNil(t, action.ExpiresAt)
	assert.Equal(t, base.Add(2*time.Hour), *action.ExpiresAt)
}

func TestQueueAppliesTeamTTLBounds(t *testing.T) {
	base := freezeClock(t)
	policies := &policy.StaticProvider{Configs: map[string]*policy.AutonomyConfig{
		"team-1": {TeamID: "team-1", DefaultTTL: time.Hour, MaxTTL: 2 * time.Hour},
	}}
	svc := New(WithPolicyProvider(policies))
	ctx := context.Background()

	action := newAction()
	require.NoError(t, svc.Queue(ctx, action, 0))
	assert.Equal(t, base.Add(time.Hour), *action.ExpiresAt)

	clamped := newAction()
	require.NoError(t, svc.Queue(ctx, clamped, 10*time.Hour))
	assert.Equal(t, base.Add(2*time.Hour), *clamped.ExpiresAt)
}

func TestQueueRejectsIncompleteActions(t *testing.T) {
	svc := New()
	ctx := context.Background()
	assert.Error(t, svc.Queue(ctx, nil, 0))
	assert.Error(t, svc.Queue(ctx, &approval.PendingAction{ActionType: "x"}, 0))
	assert.Error(t, svc.Queue(ctx, &approval.PendingAction{WorkspaceID: "ws-1"}, 0))
}

func TestDecideResolvesExactlyOnce(t *testing.T) {
	freezeClock(t)
	svc := New()
	ctx := context.Background()

	action := newAction()
	require.NoError(t, svc.Queue(ctx, action, time.Hour))

	resolved, err := svc.Decide(ctx, action.ID, true, "reviewer-1", "ok")
	require.NoError(t, err)
	assert.Equal(t, approval.StatusApproved, resolved.Status)
	assert.Equal(t, "reviewer-1", resolved.ReviewerID)
	require.NotNil(t, resolved.ResolvedAt)

	_, err = svc.Decide(ctx, action.ID, false, "reviewer-2", "no")
	assert.ErrorIs(t, err, approval.ErrAlreadyResolved)
}

func TestDecideConcurrentExactlyOneWinner(t *testing.T) {
	svc := New()
	ctx := context.Background()

	action := newAction()
	require.NoError(t, svc.Queue(ctx, action, time.Hour))

	const contenders = 8
	var wg sync.WaitGroup
	errs := make([]error, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Decide(ctx, action.ID, i%2 == 0, fmt.Sprintf("reviewer-%d", i), "")
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, approval.ErrAlreadyResolved)
		}
	}
	assert.Equal(t, 1, winners)
}

func TestDecideUnknownAction(t *testing.T) {
	svc := New()
	_, err := svc.Decide(context.Background(), "absent", true, "r", "")
	assert.ErrorIs(t, err, approval.ErrNotFound)
}

func TestLazyExpiry(t *testing.T) {
	base := freezeClock(t)
	svc := New()
	ctx := context.Background()

	action := newAction()
	require.NoError(t, svc.Queue(ctx, action, time.Hour))

	advanceClock(base, 61*time.Minute)

	pending, err := svc.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	_, err = svc.Decide(ctx, action.ID, true, "reviewer-1", "")
	assert.ErrorIs(t, err, approval.ErrExpired)

	stored, err := svc.Get(ctx, action.ID)
	require.NoError(t, err)
	assert.Equal(t, approval.StatusExpired, stored.Status)
	require.NotNil(t, stored.ResolvedAt)
}

func TestGetNormalizesOverdueActions(t *testing.T) {
	base := freezeClock(t)
	svc := New()
	ctx := context.Background()

	action := newAction()
	require.NoError(t, svc.Queue(ctx, action, time.Hour))

	advanceClock(base, 2*time.Hour)

	stored, err := svc.Get(ctx, action.ID)
	require.NoError(t, err)
	assert.Equal(t, approval.StatusExpired, stored.Status)
}

func TestWithdrawClosesPendingAction(t *testing.T) {
	freezeClock(t)
	svc := New()
	ctx := context.Background()

	action := newAction()
	require.NoError(t, svc.Queue(ctx, action, time.Hour))

	require.NoError(t, svc.Withdraw(ctx, action.ID))

	stored, err := svc.Get(ctx, action.ID)
	require.NoError(t, err)
	assert.Equal(t, approval.StatusWithdrawn, stored.Status)
	require.NotNil(t, stored.ResolvedAt)

	// a withdrawn action cannot be decided any more
	_, err = svc.Decide(ctx, action.ID, true, "reviewer-1", "")
	assert.ErrorIs(t, err, approval.ErrAlreadyResolved)

	assert.ErrorIs(t, svc.Withdraw(ctx, action.ID), approval.ErrAlreadyResolved)
	assert.ErrorIs(t, svc.Withdraw(ctx, "absent"), approval.ErrNotFound)
}

func TestExpireOverdueSweep(t *testing.T) {
	base := freezeClock(t)
	svc := New()
	ctx := context.Background()

	overdue := newAction()
	require.NoError(t, svc.Queue(ctx, overdue, time.Hour))
	fresh := newAction()
	require.NoError(t, svc.Queue(ctx, fresh, 6*time.Hour))

	advanceClock(base, 2*time.Hour)

	expired, err := svc.ExpireOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	pending, err := svc.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, fresh.ID, pending[0].ID)
}

func TestListPendingFiltersAndOrder(t *testing.T) {
	base := freezeClock(t)
	svc := New()
	ctx := context.Background()

	second := newAction()
	clock.NowFunc = func() time.Time { return base.Add(time.Minute) }
	require.NoError(t, svc.Queue(ctx, second, time.Hour))

	first := newAction()
	clock.NowFunc = func() time.Time { return base }
	require.NoError(t, svc.Queue(ctx, first, time.Hour))

	other := newAction()
	other.WorkspaceID = "ws-2"
	require.NoError(t, svc.Queue(ctx, other, time.Hour))

	pending, err := svc.ListPending(ctx, approval.WithWorkspace("ws-1"))
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first.ID, pending[0].ID)
	assert.Equal(t, second.ID, pending[1].ID)

	count, err := svc.PendingCount(ctx, "ws-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

type recordingResumer struct {
	mux      sync.Mutex
	approved []string
	rejected []string
}

func (r *recordingResumer) ResumeApproved(_ context.Context, executionID, stepID string) error {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.approved = append(r.approved, executionID+"/"+stepID)
	return nil
}

func (r *recordingResumer) ResumeRejected(_ context.Context, executionID, stepID, reason string) error {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.rejected = append(r.rejected, executionID+"/"+stepID+"/"+reason)
	return nil
}

func TestDecideInvokesResumer(t *testing.T) {
	resumer := &recordingResumer{}
	svc := New(WithResumer(resumer))
	ctx := context.Background()

	approved := newAction()
	approved.ExecutionID = "exec-1"
	approved.StepID = "step-1"
	require.NoError(t, svc.Queue(ctx, approved, time.Hour))
	_, err := svc.Decide(ctx, approved.ID, true, "reviewer-1", "")
	require.NoError(t, err)

	rejected := newAction()
	rejected.ExecutionID = "exec-2"
	rejected.StepID = "step-2"
	require.NoError(t, svc.Queue(ctx, rejected, time.Hour))
	_, err = svc.Decide(ctx, rejected.ID, false, "reviewer-1", "too risky")
	require.NoError(t, err)

	assert.Equal(t, []string{"exec-1/step-1"}, resumer.approved)
	assert.Equal(t, []string{"exec-2/step-2/too risky"}, resumer.rejected)
}
