package memory

import (
	"github.com/viant/agentspace/policy"
	"github.com/viant/agentspace/service/approval"
	"github.com/viant/agentspace/service/dao"
)

type Option func(*service)

// WithResumer lets the approval service continue a parked execution once a
// decision is recorded. Optional: without it decisions are recorded but
// executions stay parked until resumed externally.
func WithResumer(r approval.Resumer) Option {
	return func(s *service) { s.resumer = r }
}

// WithPolicyProvider supplies per-team TTL bounds for queued approvals.
func WithPolicyProvider(p policy.Provider) Option {
	return func(s *service) { s.policies = p }
}

// WithDAO replaces the default in-memory action store, e.g. with the
// relational one.
func WithDAO(d dao.Service[string, approval.PendingAction]) Option {
	return func(s *service) { s.actions = d }
}
