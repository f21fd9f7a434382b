package engine

import (
	"github.com/viant/agentspace/extension"
	"github.com/viant/agentspace/model"
	"github.com/viant/agentspace/runtime/execution"
	"github.com/viant/agentspace/service/approval"
	"github.com/viant/agentspace/service/autonomy"
	"github.com/viant/agentspace/service/dao"
	"github.com/viant/agentspace/service/event"
	"github.com/viant/agentspace/service/memory"
	"github.com/viant/agentspace/service/messaging"
)

type Option func(*Service)

// WithConfig replaces the default configuration.
func WithConfig(config Config) Option {
	return func(s *Service) { s.config = config }
}

// WithWorkerCount overrides the worker pool size.
func WithWorkerCount(count int) Option {
	return func(s *Service) { s.config.WorkerCount = count }
}

// WithDefinitionDAO replaces the definition store.
func WithDefinitionDAO(d dao.Service[string, model.Definition]) Option {
	return func(s *Service) { s.definitions = d }
}

// WithVersionDAO replaces the version store.
func WithVersionDAO(d dao.Service[string, model.Version]) Option {
	return func(s *Service) { s.versions = d }
}

// WithExecutionDAO replaces the execution store.
func WithExecutionDAO(d dao.Service[string, execution.Execution]) Option {
	return func(s *Service) { s.executions = d }
}

// WithQueue replaces the scheduling queue.
func WithQueue(q messaging.Queue[string]) Option {
	return func(s *Service) { s.runner.queue = q }
}

// WithAutonomy wires the autonomy service gating step execution.
func WithAutonomy(a *autonomy.Service) Option {
	return func(s *Service) { s.runner.autonomy = a }
}

// WithApprovals wires the approval service used to park risky steps.
func WithApprovals(a approval.Service) Option {
	return func(s *Service) { s.runner.approvals = a }
}

// WithMemory wires the shared memory service; executions then read workspace
// context before the first step and record a run summary on completion.
func WithMemory(m *memory.Service) Option {
	return func(s *Service) { s.runner.memories = m }
}

// WithSchemas wires the payload schema registry validating step inputs.
func WithSchemas(t *extension.Types) Option {
	return func(s *Service) { s.runner.schemas = t }
}

// WithEvents wires the lifecycle event publisher.
func WithEvents(p *event.Publisher[any]) Option {
	return func(s *Service) { s.runner.events = p }
}

// WithIdentityResolver wires actor display-name resolution for versions.
func WithIdentityResolver(r IdentityResolver) Option {
	return func(s *Service) { s.identities = r }
}
