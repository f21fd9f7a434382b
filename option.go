package agentspace

import (
	"github.com/viant/agentspace/extension"
	"github.com/viant/agentspace/model"
	"github.com/viant/agentspace/policy"
	"github.com/viant/agentspace/runtime/execution"
	"github.com/viant/agentspace/service/agent"
	"github.com/viant/agentspace/service/approval"
	"github.com/viant/agentspace/service/dao"
	"github.com/viant/agentspace/service/engine"
	"github.com/viant/agentspace/service/event"
	"github.com/viant/agentspace/service/memory"
	"github.com/viant/agentspace/store/pg"
	"github.com/viant/agentspace/tracing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Option customises the service assembly.
type Option func(s *Service)

// WithConfig replaces the default configuration.
func WithConfig(config *Config) Option {
	return func(s *Service) { s.config = config }
}

// WithAgents replaces the agent registry.
func WithAgents(registry *agent.Registry) Option {
	return func(s *Service) { s.agents = registry }
}

// WithPolicyProvider supplies per-team autonomy configuration.
func WithPolicyProvider(p policy.Provider) Option {
	return func(s *Service) { s.policies = p }
}

// WithApprovalService replaces the default in-memory approval service. The
// caller is then responsible for wiring a resumer.
func WithApprovalService(svc approval.Service) Option {
	return func(s *Service) { s.approvals = svc }
}

// WithSchemas replaces the action payload schema registry.
func WithSchemas(t *extension.Types) Option {
	return func(s *Service) { s.schemas = t }
}

// WithEvents replaces the lifecycle event publisher.
func WithEvents(p *event.Publisher[any]) Option {
	return func(s *Service) { s.events = p }
}

// WithIdentityResolver wires actor display-name resolution for version
// history views.
func WithIdentityResolver(r engine.IdentityResolver) Option {
	return func(s *Service) { s.identities = r }
}

// WithDefinitionDAO replaces the workflow definition store.
func WithDefinitionDAO(d dao.Service[string, model.Definition]) Option {
	return func(s *Service) { s.definitionDAO = d }
}

// WithVersionDAO replaces the workflow version store.
func WithVersionDAO(d dao.Service[string, model.Version]) Option {
	return func(s *Service) { s.versionDAO = d }
}

// WithExecutionDAO replaces the execution store.
func WithExecutionDAO(d dao.Service[string, execution.Execution]) Option {
	return func(s *Service) { s.executionDAO = d }
}

// WithActionDAO replaces the pending action store shared by the approval and
// autonomy services.
func WithActionDAO(d dao.Service[string, approval.PendingAction]) Option {
	return func(s *Service) { s.actionDAO = d }
}

// WithMemoryDAO replaces the shared memory entry store.
func WithMemoryDAO(d dao.Service[string, memory.Entry]) Option {
	return func(s *Service) { s.entryDAO = d }
}

// WithStore wires every entity store to the given PostgreSQL connection.
func WithStore(store *pg.Store) Option {
	return func(s *Service) {
		s.definitionDAO = pg.NewDefinitions(store)
		s.versionDAO = pg.NewVersions(store)
		s.executionDAO = pg.NewExecutions(store)
		s.actionDAO = pg.NewApprovals(store)
		s.entryDAO = pg.NewMemories(store)
	}
}

// WithTracing configures OpenTelemetry tracing. If outputFile is empty the
// stdout exporter is used; otherwise traces are written to the supplied file
// path. Safe to call multiple times; the first successful initialisation
// wins.
func WithTracing(serviceName, serviceVersion, outputFile string) Option {
	return func(s *Service) {
		_ = tracing.Init(serviceName, serviceVersion, outputFile)
	}
}

// WithTracingExporter configures OpenTelemetry tracing with a custom span
// exporter, e.g. OTLP or Zipkin.
func WithTracingExporter(serviceName, serviceVersion string, exporter sdktrace.SpanExporter) Option {
	return func(s *Service) {
		_ = tracing.InitWithExporter(serviceName, serviceVersion, exporter)
	}
}
