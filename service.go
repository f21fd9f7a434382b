package agentspace

import (
	"context"

	"github.com/viant/agentspace/extension"
	"github.com/viant/agentspace/model"
	"github.com/viant/agentspace/policy"
	"github.com/viant/agentspace/runtime/execution"
	"github.com/viant/agentspace/service/agent"
	"github.com/viant/agentspace/service/agent/nop"
	"github.com/viant/agentspace/service/agent/printer"
	"github.com/viant/agentspace/service/approval"
	amemory "github.com/viant/agentspace/service/approval/memory"
	"github.com/viant/agentspace/service/autonomy"
	"github.com/viant/agentspace/service/dao"
	"github.com/viant/agentspace/service/dao/store"
	"github.com/viant/agentspace/service/engine"
	"github.com/viant/agentspace/service/event"
	"github.com/viant/agentspace/service/memory"
)

// Service assembles the workflow engine, the autonomy and approval layer and
// the shared memory service into one wired unit.
type Service struct {
	runtime *Runtime

	config   *Config
	agents   *agent.Registry
	policies policy.Provider
	schemas  *extension.Types
	events   *event.Publisher[any]

	definitionDAO dao.Service[string, model.Definition]
	versionDAO    dao.Service[string, model.Version]
	executionDAO  dao.Service[string, execution.Execution]
	actionDAO     dao.Service[string, approval.PendingAction]
	entryDAO      dao.Service[string, memory.Entry]

	approvals  approval.Service
	identities engine.IdentityResolver
}

// resumerProxy defers resumer wiring: the approval service needs the engine
// runner, which does not exist until after the approval service is built.
type resumerProxy struct {
	target approval.Resumer
}

func (p *resumerProxy) ResumeApproved(ctx context.Context, executionID, stepID string) error {
	if p.target == nil {
		return nil
	}
	return p.target.ResumeApproved(ctx, executionID, stepID)
}

func (p *resumerProxy) ResumeRejected(ctx context.Context, executionID, stepID, reason string) error {
	if p.target == nil {
		return nil
	}
	return p.target.ResumeRejected(ctx, executionID, stepID, reason)
}

// New creates a fully wired service. Without options everything runs
// in-memory with default configuration.
func New(options ...Option) (*Service, error) {
	s := &Service{runtime: &Runtime{}}
	for _, option := range options {
		option(s)
	}
	s.ensureBaseSetup()

	proxy := &resumerProxy{}
	if s.approvals == nil {
		s.approvals = amemory.New(
			amemory.WithDAO(s.actionDAO),
			amemory.WithPolicyProvider(s.policies),
			amemory.WithResumer(proxy))
	}
	autonomySvc := autonomy.New(s.policies, s.actionDAO)
	memorySvc := memory.NewWithDAO(s.entryDAO)

	engineSvc, err := engine.New(s.agents,
		engine.WithConfig(s.config.Engine),
		engine.WithDefinitionDAO(s.definitionDAO),
		engine.WithVersionDAO(s.versionDAO),
		engine.WithExecutionDAO(s.executionDAO),
		engine.WithAutonomy(autonomySvc),
		engine.WithApprovals(s.approvals),
		engine.WithMemory(memorySvc),
		engine.WithSchemas(s.schemas),
		engine.WithEvents(s.events),
		engine.WithIdentityResolver(s.identities))
	if err != nil {
		return nil, err
	}
	proxy.target = engineSvc.Runner()

	s.runtime.engine = engineSvc
	s.runtime.approvals = s.approvals
	s.runtime.autonomy = autonomySvc
	s.runtime.memory = memorySvc
	s.runtime.events = s.events
	return s, nil
}

func (s *Service) ensureBaseSetup() {
	if s.config == nil {
		s.config = DefaultConfig()
	}
	if s.agents == nil {
		s.agents = agent.NewRegistry()
	}
	s.agents.Register(nop.New())
	s.agents.Register(printer.New())

	if s.policies == nil {
		s.policies = &policy.StaticProvider{}
	}
	if s.schemas == nil {
		s.schemas = extension.NewTypes()
	}
	if s.events == nil {
		s.events = event.NewMemoryPublisher[any]()
	}
	if s.definitionDAO == nil {
		s.definitionDAO = store.NewMemoryStore[string, model.Definition](func(d *model.Definition) string { return d.ID })
	}
	if s.versionDAO == nil {
		s.versionDAO = store.NewMemoryStore[string, model.Version](func(v *model.Version) string { return v.ID })
	}
	if s.executionDAO == nil {
		s.executionDAO = store.NewMemoryStore[string, execution.Execution](func(e *execution.Execution) string { return e.ID })
	}
	if s.actionDAO == nil {
		s.actionDAO = store.NewMemoryStore[string, approval.PendingAction](func(a *approval.PendingAction) string { return a.ID })
	}
	if s.entryDAO == nil {
		s.entryDAO = store.NewMemoryStore[string, memory.Entry](func(e *memory.Entry) string { return e.ID })
	}
}

// RegisterAgent adds an agent to the dispatch registry.
func (s *Service) RegisterAgent(a agent.Agent) {
	s.agents.Register(a)
}

// RegisterActionSchema binds an action type to the struct its inputs must
// conform to.
func (s *Service) RegisterActionSchema(actionType string, payload interface{}) error {
	return s.schemas.Register(actionType, payload)
}

// Runtime returns the runtime façade.
func (s *Service) Runtime() *Runtime {
	return s.runtime
}
