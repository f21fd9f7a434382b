package agentspace

import (
	"context"

	"github.com/viant/agentspace/service/approval"
	"github.com/viant/agentspace/service/autonomy"
	"github.com/viant/agentspace/service/engine"
	"github.com/viant/agentspace/service/event"
	"github.com/viant/agentspace/service/memory"
)

// Runtime is the façade over the assembled services.
type Runtime struct {
	engine    *engine.Service
	approvals approval.Service
	autonomy  *autonomy.Service
	memory    *memory.Service
	events    *event.Publisher[any]
}

// Engine returns the workflow engine.
func (r *Runtime) Engine() *engine.Service {
	return r.engine
}

// Approvals returns the approval service.
func (r *Runtime) Approvals() approval.Service {
	return r.approvals
}

// Autonomy returns the autonomy service.
func (r *Runtime) Autonomy() *autonomy.Service {
	return r.autonomy
}

// Memory returns the shared memory service.
func (r *Runtime) Memory() *memory.Service {
	return r.memory
}

// Events returns the lifecycle event publisher.
func (r *Runtime) Events() *event.Publisher[any] {
	return r.events
}

// Start launches the engine worker pool.
func (r *Runtime) Start(ctx context.Context) error {
	r.engine.Start(ctx)
	return nil
}

// Shutdown stops the worker pool; in-flight steps finish first.
func (r *Runtime) Shutdown(ctx context.Context) error {
	r.engine.Shutdown()
	return nil
}
