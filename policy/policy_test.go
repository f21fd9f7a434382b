package policy

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRiskOrdering(t *testing.T) {
	assert.True(t, RiskLow.AtMost(RiskMedium))
	assert.True(t, RiskMedium.AtMost(RiskMedium))
	assert.False(t, RiskHigh.AtMost(RiskMedium))
	assert.False(t, RiskCritical.AtMost(RiskHigh))

	// unknown levels rank above critical so they never auto-execute
	unknown := RiskLevel("catastrophic")
	assert.False(t, unknown.Valid())
	assert.False(t, unknown.AtMost(RiskCritical))
}

func TestCeilingDefaultsToMedium(t *testing.T) {
	var nilConfig *AutonomyConfig
	assert.Equal(t, RiskMedium, nilConfig.Ceiling())
	assert.Equal(t, RiskMedium, (&AutonomyConfig{}).Ceiling())
	assert.Equal(t, RiskMedium, (&AutonomyConfig{MaxAutoRisk: "bogus"}).Ceiling())
	assert.Equal(t, RiskHigh, (&AutonomyConfig{MaxAutoRisk: RiskHigh}).Ceiling())
}

func TestApprovalTTLBounds(t *testing.T) {
	var nilConfig *AutonomyConfig
	assert.Equal(t, DefaultApprovalTTL, nilConfig.ApprovalTTL(0))
	assert.Equal(t, time.Hour, nilConfig.ApprovalTTL(time.Hour))
	assert.Equal(t, MaxApprovalTTL, nilConfig.ApprovalTTL(30*24*time.Hour))

	cfg := &AutonomyConfig{DefaultTTL: 2 * time.Hour, MaxTTL: 4 * time.Hour}
	assert.Equal(t, 2*time.Hour, cfg.ApprovalTTL(0))
	assert.Equal(t, 3*time.Hour, cfg.ApprovalTTL(3*time.Hour))
	assert.Equal(t, 4*time.Hour, cfg.ApprovalTTL(24*time.Hour))
}

func TestListGlobMatching(t *testing.T) {
	cfg := &AutonomyConfig{
		AllowList: []string{"slack.*", "jira.read"},
		BlockList: []string{"payment.*"},
	}
	assert.True(t, cfg.IsAllowed("slack.post"))
	assert.True(t, cfg.IsAllowed("SLACK.POST"))
	assert.True(t, cfg.IsAllowed("jira.read"))
	assert.False(t, cfg.IsAllowed("jira.write"))
	assert.True(t, cfg.IsBlocked("payment.transfer"))
	assert.False(t, cfg.IsBlocked("slack.post"))

	var nilConfig *AutonomyConfig
	assert.False(t, nilConfig.IsAllowed("slack.post"))
	assert.False(t, nilConfig.IsBlocked("payment.transfer"))
}

func TestRuleRisk(t *testing.T) {
	cfg := &AutonomyConfig{Rules: []*RiskRule{
		{Pattern: "db.*", Risk: RiskCritical},
		{Pattern: "report.generate", Risk: RiskLow},
		{Pattern: "broken.*", Risk: "bogus"},
	}}

	risk, ok := cfg.RuleRisk("db.drop")
	require.True(t, ok)
	assert.Equal(t, RiskCritical, risk)

	risk, ok = cfg.RuleRisk("Report.Generate")
	require.True(t, ok)
	assert.Equal(t, RiskLow, risk)

	_, ok = cfg.RuleRisk("broken.thing")
	assert.False(t, ok)

	_, ok = cfg.RuleRisk("unmatched")
	assert.False(t, ok)
}

func TestStaticProvider(t *testing.T) {
	ctx := context.Background()
	provider := &StaticProvider{
		Configs:  map[string]*AutonomyConfig{"team-1": {TeamID: "team-1", MaxAutoRisk: RiskHigh}},
		Fallback: &AutonomyConfig{MaxAutoRisk: RiskLow},
	}

	cfg, err := provider.AutonomyConfig(ctx, "team-1")
	require.NoError(t, err)
	assert.Equal(t, RiskHigh, cfg.Ceiling())

	cfg, err = provider.AutonomyConfig(ctx, "unknown")
	require.NoError(t, err)
	assert.Equal(t, RiskLow, cfg.Ceiling())
}

func TestConfigContextRoundTrip(t *testing.T) {
	cfg := &AutonomyConfig{TeamID: "team-1"}
	ctx := WithConfig(context.Background(), cfg)
	assert.Same(t, cfg, FromContext(ctx))
	assert.Nil(t, FromContext(context.Background()))
}
