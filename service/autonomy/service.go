// Package autonomy decides whether an agent action may run without human
// approval: it classifies action risk deterministically and checks the
// result against the team's autonomy configuration.
package autonomy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/viant/agentspace/internal/clock"
	"github.com/viant/agentspace/internal/idgen"
	"github.com/viant/agentspace/internal/log"
	"github.com/viant/agentspace/policy"
	"github.com/viant/agentspace/service/approval"
	"github.com/viant/agentspace/service/dao"
)

// Decision is the outcome of an autonomy check.
type Decision struct {
	CanExecute bool             `json:"canExecute"`
	Risk       policy.RiskLevel `json:"risk"`
	Reason     string           `json:"reason"`
}

// Service evaluates autonomy for agent actions and records auto-executions.
type Service struct {
	policies policy.Provider
	audit    dao.Service[string, approval.PendingAction]
}

// New creates an autonomy service. The audit DAO is shared with the approval
// service so auto-approved records appear in the same history.
func New(policies policy.Provider, audit dao.Service[string, approval.PendingAction]) *Service {
	return &Service{policies: policies, audit: audit}
}

// Keyword heuristics applied when no config rule matches. First match wins,
// scanned from most to least severe.
var riskKeywords = []struct {
	risk  policy.RiskLevel
	words []string
}{
	{policy.RiskCritical, []string{"payment", "transfer", "credential", "secret", "deploy"}},
	{policy.RiskHigh, []string{"delete", "drop", "remove", "destroy", "purge", "revoke"}},
	{policy.RiskMedium, []string{"send", "post", "write", "update", "create", "publish", "execute"}},
	{policy.RiskLow, []string{"get", "list", "read", "fetch", "query", "search", "describe"}},
}

// Classify assigns a risk level to an action. It is a pure function of its
// arguments: explicit config rules take precedence, then keyword heuristics
// over the action type and data keys, defaulting to medium.
func Classify(actionType string, actionData map[string]interface{}, cfg *policy.AutonomyConfig) policy.RiskLevel {
	if risk, ok := cfg.RuleRisk(actionType); ok {
		return risk
	}
	haystack := strings.ToLower(actionType)
	for key := range actionData {
		haystack += " " + strings.ToLower(key)
	}
	for _, entry := range riskKeywords {
		for _, word := range entry.words {
			if strings.Contains(haystack, word) {
				return entry.risk
			}
		}
	}
	return policy.RiskMedium
}

// CanAutoExecute evaluates whether the action may run without approval under
// the team's configuration. The blocklist always forces approval; the
// allowlist bypasses the risk ceiling.
func (s *Service) CanAutoExecute(ctx context.Context, teamID, actionType string, actionData map[string]interface{}) (*Decision, error) {
	var cfg *policy.AutonomyConfig
	if s.policies != nil {
		var err error
		if cfg, err = s.policies.AutonomyConfig(ctx, teamID); err != nil {
			return nil, fmt.Errorf("autonomy: resolve config for team %s: %w", teamID, err)
		}
	}
	risk := Classify(actionType, actionData, cfg)

	if cfg.IsBlocked(actionType) {
		return &Decision{Risk: risk, Reason: fmt.Sprintf("action type %s is blocklisted", actionType)}, nil
	}
	if cfg.IsAllowed(actionType) {
		return &Decision{CanExecute: true, Risk: risk, Reason: fmt.Sprintf("action type %s is allowlisted", actionType)}, nil
	}
	ceiling := cfg.Ceiling()
	if risk.AtMost(ceiling) {
		return &Decision{CanExecute: true, Risk: risk, Reason: fmt.Sprintf("risk %s within ceiling %s", risk, ceiling)}, nil
	}
	return &Decision{Risk: risk, Reason: fmt.Sprintf("risk %s exceeds ceiling %s", risk, ceiling)}, nil
}

// RecordAutoExecution writes an immutable auto_approved audit record for an
// action that executed without human approval.
func (s *Service) RecordAutoExecution(ctx context.Context, action *approval.PendingAction) error {
	if s.audit == nil {
		return nil
	}
	if action.ID == "" {
		action.ID = idgen.New()
	}
	now := clock.Now()
	action.Status = approval.StatusAutoApproved
	action.CreatedAt = now
	action.ResolvedAt = &now
	if !action.Risk.Valid() {
		action.Risk = policy.RiskMedium
	}
	if err := s.audit.Save(ctx, action); err != nil {
		return fmt.Errorf("autonomy: record auto execution: %w", err)
	}
	log.GetLogger().WithField("actionType", action.ActionType).
		WithField("executionId", action.ExecutionID).
		Debug("recorded auto execution")
	return nil
}

// QueueTTL exposes the team's approval TTL normalization for callers that
// queue approvals themselves.
func (s *Service) QueueTTL(ctx context.Context, teamID string, requested time.Duration) time.Duration {
	var cfg *policy.AutonomyConfig
	if s.policies != nil {
		cfg, _ = s.policies.AutonomyConfig(ctx, teamID)
	}
	return cfg.ApprovalTTL(requested)
}
