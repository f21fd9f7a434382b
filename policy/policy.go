// Package policy holds the per-team autonomy configuration consulted before
// an agent action executes without a human in the loop. It is deliberately
// decoupled from the rest of the engine so that using it is entirely opt-in;
// executions without a config in their context fall back to the defaults.

package policy

import (
	"context"
	"path"
	"strings"
	"time"
)

// RiskLevel classifies how dangerous an agent action is.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

var riskRank = map[RiskLevel]int{
	RiskLow:      0,
	RiskMedium:   1,
	RiskHigh:     2,
	RiskCritical: 3,
}

// Rank returns the ordinal of the risk level; unknown levels rank above
// critical so they never auto-execute.
func (r RiskLevel) Rank() int {
	if rank, ok := riskRank[r]; ok {
		return rank
	}
	return len(riskRank)
}

// Valid reports whether the level is one of the four known values.
func (r RiskLevel) Valid() bool {
	_, ok := riskRank[r]
	return ok
}

// AtMost reports whether r does not exceed the ceiling.
func (r RiskLevel) AtMost(ceiling RiskLevel) bool {
	return r.Rank() <= ceiling.Rank()
}

// RiskRule maps an action-type glob pattern to an explicit risk level,
// taking precedence over the built-in keyword heuristics.
type RiskRule struct {
	Pattern string    `json:"pattern" yaml:"pattern"`
	Risk    RiskLevel `json:"risk" yaml:"risk"`
}

// AutonomyConfig represents a team's autonomy settings.
//
//   - MaxAutoRisk is the highest risk level that may execute without human
//     approval.
//   - AllowList / BlockList filter by action type regardless of risk:
//     block always queues for approval, allow always auto-executes.
//     BlockList has priority.
//   - DefaultTTL / MaxTTL bound the lifetime of queued approvals.
//
// A nil *AutonomyConfig means "medium ceiling, no lists, default TTLs".
type AutonomyConfig struct {
	TeamID      string        `json:"teamId,omitempty" yaml:"teamId,omitempty"`
	MaxAutoRisk RiskLevel     `json:"maxAutoRisk,omitempty" yaml:"maxAutoRisk,omitempty"`
	AllowList   []string      `json:"allow,omitempty" yaml:"allow,omitempty"`
	BlockList   []string      `json:"block,omitempty" yaml:"block,omitempty"`
	Rules       []*RiskRule   `json:"rules,omitempty" yaml:"rules,omitempty"`
	DefaultTTL  time.Duration `json:"defaultTTL,omitempty" yaml:"defaultTTL,omitempty"`
	MaxTTL      time.Duration `json:"maxTTL,omitempty" yaml:"maxTTL,omitempty"`
}

// Approval TTL bounds applied when a config leaves them unset.
const (
	DefaultApprovalTTL = 24 * time.Hour
	MaxApprovalTTL     = 7 * 24 * time.Hour
)

// Ceiling returns the effective auto-execution risk ceiling.
func (c *AutonomyConfig) Ceiling() RiskLevel {
	if c == nil || !c.MaxAutoRisk.Valid() {
		return RiskMedium
	}
	return c.MaxAutoRisk
}

// ApprovalTTL normalizes a requested approval lifetime against the config
// bounds: zero takes the default, anything above the cap is clamped.
func (c *AutonomyConfig) ApprovalTTL(requested time.Duration) time.Duration {
	defaultTTL, maxTTL := DefaultApprovalTTL, MaxApprovalTTL
	if c != nil && c.DefaultTTL > 0 {
		defaultTTL = c.DefaultTTL
	}
	if c != nil && c.MaxTTL > 0 {
		maxTTL = c.MaxTTL
	}
	if requested <= 0 {
		requested = defaultTTL
	}
	if requested > maxTTL {
		requested = maxTTL
	}
	return requested
}

// IsBlocked evaluates the BlockList; blocked action types always require
// approval. Patterns are case-insensitive path globs.
func (c *AutonomyConfig) IsBlocked(actionType string) bool {
	if c == nil {
		return false
	}
	return matchAny(c.BlockList, actionType)
}

// IsAllowed evaluates the AllowList; listed action types auto-execute
// regardless of risk, unless also blocked.
func (c *AutonomyConfig) IsAllowed(actionType string) bool {
	if c == nil {
		return false
	}
	return matchAny(c.AllowList, actionType)
}

// RuleRisk returns the explicit risk for an action type, if a rule matches.
func (c *AutonomyConfig) RuleRisk(actionType string) (RiskLevel, bool) {
	if c == nil {
		return "", false
	}
	normalized := strings.ToLower(actionType)
	for _, rule := range c.Rules {
		if rule == nil || !rule.Risk.Valid() {
			continue
		}
		if matched, _ := path.Match(strings.ToLower(rule.Pattern), normalized); matched {
			return rule.Risk, true
		}
	}
	return "", false
}

func matchAny(patterns []string, actionType string) bool {
	normalized := strings.ToLower(actionType)
	for _, p := range patterns {
		if matched, _ := path.Match(strings.ToLower(p), normalized); matched {
			return true
		}
	}
	return false
}

// Provider resolves the autonomy config for a team. Implementations must
// treat an unknown team as nil config, not an error.
type Provider interface {
	AutonomyConfig(ctx context.Context, teamID string) (*AutonomyConfig, error)
}

// StaticProvider serves configs from a fixed map keyed by team id, with an
// optional fallback for unknown teams.
type StaticProvider struct {
	Configs  map[string]*AutonomyConfig
	Fallback *AutonomyConfig
}

// AutonomyConfig implements Provider.
func (p *StaticProvider) AutonomyConfig(_ context.Context, teamID string) (*AutonomyConfig, error) {
	if p == nil {
		return nil, nil
	}
	if cfg, ok := p.Configs[teamID]; ok {
		return cfg, nil
	}
	return p.Fallback, nil
}

type ctxKeyT struct{}

var ctxKey ctxKeyT

// WithConfig embeds an autonomy config in ctx.
func WithConfig(ctx context.Context, c *AutonomyConfig) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey, c)
}

// FromContext extracts the autonomy config, nil when absent.
func FromContext(ctx context.Context) *AutonomyConfig {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxKey).(*AutonomyConfig); ok {
		return v
	}
	return nil
}
