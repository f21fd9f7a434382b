package autonomy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/agentspace/policy"
	"github.com/viant/agentspace/service/approval"
	"github.com/viant/agentspace/service/dao/store"
)

func TestClassifyIsPureAndDeterministic(t *testing.T) {
	data := map[string]interface{}{"amount": 100}
	first := Classify("payment.transfer", data, nil)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Classify("payment.transfer", data, nil))
	}
}

func TestClassifyKeywordHeuristics(t *testing.T) {
	testCases := []struct {
		actionType string
		actionData map[string]interface{}
		expect     policy.RiskLevel
	}{
		{"payment.transfer", nil, policy.RiskCritical},
		{"rotate_credentials", nil, policy.RiskCritical},
		{"delete_record", nil, policy.RiskHigh},
		{"purge_cache", nil, policy.RiskHigh},
		{"send_email", nil, policy.RiskMedium},
		{"publish_post", nil, policy.RiskMedium},
		{"get_ticket", nil, policy.RiskLow},
		{"search_docs", nil, policy.RiskLow},
		// no keyword match defaults to medium
		{"frobnicate", nil, policy.RiskMedium},
		// data keys participate in the scan
		{"frobnicate", map[string]interface{}{"secret": "x"}, policy.RiskCritical},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expect, Classify(tc.actionType, tc.actionData, nil), tc.actionType)
	}
}

func TestClassifyConfigRulesTakePrecedence(t *testing.T) {
	cfg := &policy.AutonomyConfig{Rules: []*policy.RiskRule{
		{Pattern: "get_*", Risk: policy.RiskCritical},
	}}
	assert.Equal(t, policy.RiskCritical, Classify("get_ticket", nil, cfg))
	// non-matching actions fall through to the heuristics
	assert.Equal(t, policy.RiskLow, Classify("list_tickets", nil, cfg))
}

func TestCanAutoExecutePrecedence(t *testing.T) {
	ctx := context.Background()
	provider := &policy.StaticProvider{Configs: map[string]*policy.AutonomyConfig{
		"team-1": {
			TeamID:      "team-1",
			MaxAutoRisk: policy.RiskHigh,
			AllowList:   []string{"payment.refund"},
			BlockList:   []string{"payment.refund", "delete_*"},
		},
	}}
	svc := New(provider, nil)

	// blocklist beats allowlist
	decision, err := svc.CanAutoExecute(ctx, "team-1", "payment.refund", nil)
	require.NoError(t, err)
	assert.False(t, decision.CanExecute)

	// blocklist beats risk ceiling
	decision, err = svc.CanAutoExecute(ctx, "team-1", "delete_record", nil)
	require.NoError(t, err)
	assert.False(t, decision.CanExecute)

	// within ceiling
	decision, err = svc.CanAutoExecute(ctx, "team-1", "purge_cache", nil)
	require.NoError(t, err)
	assert.True(t, decision.CanExecute)
	assert.Equal(t, policy.RiskHigh, decision.Risk)

	// above ceiling
	decision, err = svc.CanAutoExecute(ctx, "team-1", "payment.transfer", nil)
	require.NoError(t, err)
	assert.False(t, decision.CanExecute)
	assert.Equal(t, policy.RiskCritical, decision.Risk)
}

func TestCanAutoExecuteAllowlistBypassesCeiling(t *testing.T) {
	ctx := context.Background()
	provider := &policy.StaticProvider{Configs: map[string]*policy.AutonomyConfig{
		"team-1": {TeamID: "team-1", MaxAutoRisk: policy.RiskLow, AllowList: []string{"deploy.*"}},
	}}
	svc := New(provider, nil)

	decision, err := svc.CanAutoExecute(ctx, "team-1", "deploy.service", nil)
	require.NoError(t, err)
	assert.True(t, decision.CanExecute)
	assert.Equal(t, policy.RiskCritical, decision.Risk)
}

func TestCanAutoExecuteDefaultCeiling(t *testing.T) {
	ctx := context.Background()
	svc := New(nil, nil)

	decision, err := svc.CanAutoExecute(ctx, "any-team", "send_email", nil)
	require.NoError(t, err)
	assert.True(t, decision.CanExecute)

	decision, err = svc.CanAutoExecute(ctx, "any-team", "delete_record", nil)
	require.NoError(t, err)
	assert.False(t, decision.CanExecute)
}

func TestRecordAutoExecution(t *testing.T) {
	ctx := context.Background()
	audit := store.NewMemoryStore[string, approval.PendingAction](func(a *approval.PendingAction) string { return a.ID })
	svc := New(nil, audit)

	action := &approval.PendingAction{
		WorkspaceID: "ws-1",
		ActionType:  "send_email",
		Risk:        policy.RiskMedium,
	}
	require.NoError(t, svc.RecordAutoExecution(ctx, action))
	require.NotEmpty(t, action.ID)

	stored, err := audit.Load(ctx, action.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, approval.StatusAutoApproved, stored.Status)
	require.NotNil(t, stored.ResolvedAt)
}
