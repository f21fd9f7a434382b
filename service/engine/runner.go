package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/viant/agentspace/extension"
	"github.com/viant/agentspace/internal/idgen"
	"github.com/viant/agentspace/internal/log"
	"github.com/viant/agentspace/model"
	"github.com/viant/agentspace/model/graph"
	"github.com/viant/agentspace/runtime/evaluator"
	"github.com/viant/agentspace/runtime/execution"
	"github.com/viant/agentspace/service/agent"
	"github.com/viant/agentspace/service/approval"
	"github.com/viant/agentspace/service/autonomy"
	"github.com/viant/agentspace/service/dao"
	"github.com/viant/agentspace/service/dao/store"
	"github.com/viant/agentspace/service/event"
	"github.com/viant/agentspace/service/memory"
	"github.com/viant/agentspace/service/messaging"
	qmem "github.com/viant/agentspace/service/messaging/memory"
	"github.com/viant/agentspace/tracing"
)

// Runner advances executions consumed from the scheduling queue. Steps within
// one execution run strictly sequentially; distinct executions advance
// concurrently on the worker pool.
type Runner struct {
	config Config

	definitions dao.Service[string, model.Definition]
	executions  dao.Service[string, execution.Execution]

	queue     messaging.Queue[string]
	agents    *agent.Registry
	autonomy  *autonomy.Service
	approvals approval.Service
	memories  *memory.Service
	schemas   *extension.Types
	events    *event.Publisher[any]

	shutdownCh chan struct{}
}

func definitionKey(d *model.Definition) string  { return d.ID }
func versionKey(v *model.Version) string        { return v.ID }
func executionKey(e *execution.Execution) string { return e.ID }

// New creates an engine with in-memory defaults; options replace individual
// collaborators.
func New(agents *agent.Registry, options ...Option) (*Service, error) {
	if agents == nil {
		agents = agent.NewRegistry()
	}
	runner := &Runner{
		queue:      qmem.NewQueue[string](qmem.DefaultConfig()),
		agents:     agents,
		shutdownCh: make(chan struct{}),
	}
	s := &Service{
		config:      DefaultConfig(),
		definitions: store.NewMemoryStore[string, model.Definition](definitionKey),
		versions:    store.NewMemoryStore[string, model.Version](versionKey),
		executions:  store.NewMemoryStore[string, execution.Execution](executionKey),
		runner:      runner,
	}
	for _, option := range options {
		option(s)
	}
	if err := s.config.Validate(); err != nil {
		return nil, err
	}
	runner.config = s.config
	runner.definitions = s.definitions
	runner.executions = s.executions
	return s, nil
}

// Runner exposes the runner, e.g. to register it as an approval resumer.
func (s *Service) Runner() *Runner {
	return s.runner
}

// Agents exposes the agent registry.
func (s *Service) Agents() *agent.Registry {
	return s.runner.agents
}

// Start launches the worker pool.
func (s *Service) Start(ctx context.Context) {
	for i := 0; i < s.config.WorkerCount; i++ {
		go s.runner.run(ctx, i)
	}
}

// Shutdown stops the worker pool; in-flight steps finish first.
func (s *Service) Shutdown() {
	close(s.runner.shutdownCh)
}

// Schedule enqueues an execution id for processing.
func (r *Runner) Schedule(ctx context.Context, executionID string) error {
	return r.queue.Publish(ctx, &executionID)
}

// ResumeApproved implements approval.Resumer: the gated step re-runs with
// its autonomy gate satisfied.
func (r *Runner) ResumeApproved(ctx context.Context, executionID, stepID string) error {
	exec, err := r.loadExecution(ctx, executionID)
	if err != nil {
		return err
	}
	if exec.IsFinished() {
		return ErrFinished
	}
	exec.Unpark(stepID)
	if err = r.executions.Save(ctx, exec); err != nil {
		return err
	}
	return r.Schedule(ctx, executionID)
}

// ResumeRejected implements approval.Resumer: the gated step fails with the
// rejection reason, honouring its onFailure transition.
func (r *Runner) ResumeRejected(ctx context.Context, executionID, stepID, reason string) error {
	exec, err := r.loadExecution(ctx, executionID)
	if err != nil {
		return err
	}
	if exec.IsFinished() {
		return ErrFinished
	}
	exec.UnparkRejected(stepID, reason)
	if err = r.executions.Save(ctx, exec); err != nil {
		return err
	}
	return r.Schedule(ctx, executionID)
}

func (r *Runner) run(ctx context.Context, id int) {
	for {
		select {
		case <-r.shutdownCh:
			return
		default:
		}
		msg, err := r.queue.Consume(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			time.Sleep(100 * time.Millisecond)
			continue
		}
		if msg == nil {
			continue
		}
		if pErr := r.process(ctx, *msg.T()); pErr != nil {
			log.GetLogger().WithField("worker", id).Warnf("process execution: %v", pErr)
			_ = msg.Nack(pErr)
			continue
		}
		_ = msg.Ack()
	}
}

// process advances one execution until it finishes, parks on an approval, or
// is cancelled.
func (r *Runner) process(ctx context.Context, executionID string) (err error) {
	ctx, span := tracing.StartSpan(ctx, "engine.process", "CONSUMER")
	defer func() { tracing.EndSpan(span, err) }()
	span.WithAttributes(map[string]string{"execution.id": executionID})

	exec, err := r.loadExecution(ctx, executionID)
	if err != nil {
		return err
	}
	if exec.IsFinished() || exec.IsParked() {
		return nil
	}
	definition, err := r.definitions.Load(ctx, exec.WorkflowID)
	if err != nil {
		return err
	}
	if definition == nil {
		exec.Fail(fmt.Errorf("workflow %s no longer exists", exec.WorkflowID))
		return r.executions.Save(ctx, exec)
	}

	if exec.State() == execution.StatePending {
		exec.Start()
		r.injectMemory(ctx, exec)
		if err = r.executions.Save(ctx, exec); err != nil {
			return err
		}
		r.publish(ctx, event.TypeExecutionStarted, exec, "")
	}

	for {
		// Cancellation is only honoured at step boundaries; refresh the flag
		// from the store in case it was set by another process.
		if latest, lErr := r.loadExecution(ctx, exec.ID); lErr == nil && latest.IsCancelRequested() {
			exec.RequestCancel()
		}
		if exec.IsCancelRequested() {
			exec.Cancel()
			if err = r.executions.Save(ctx, exec); err != nil {
				return err
			}
			r.publish(ctx, event.TypeExecutionCancelled, exec, "")
			return nil
		}
		cursor := exec.StepCursor()
		if cursor >= len(definition.Steps) {
			return r.complete(ctx, exec)
		}
		step := definition.Steps[cursor]

		parked, stepErr := r.runStep(ctx, definition, exec, step)
		if parked {
			return r.executions.Save(ctx, exec)
		}
		if stepErr != nil {
			if next := r.failureTransition(definition, step); next >= 0 {
				exec.SetContextValue("error", stepErr.Error())
				exec.AdvanceTo(next)
				if err = r.executions.Save(ctx, exec); err != nil {
					return err
				}
				continue
			}
			exec.Fail(stepErr)
			if err = r.executions.Save(ctx, exec); err != nil {
				return err
			}
			r.publish(ctx, event.TypeExecutionFailed, exec, stepErr.Error())
			return nil
		}

		if next := r.successTransition(definition, step, cursor); next >= 0 {
			exec.AdvanceTo(next)
		} else {
			exec.AdvanceTo(len(definition.Steps))
		}
		if err = r.executions.Save(ctx, exec); err != nil {
			return err
		}
	}
}

func (r *Runner) complete(ctx context.Context, exec *execution.Execution) error {
	exec.Complete()
	if err := r.executions.Save(ctx, exec); err != nil {
		return err
	}
	r.publish(ctx, event.TypeExecutionCompleted, exec, "")
	r.recordSummary(ctx, exec)
	return nil
}

// runStep executes one step: conditions, autonomy gate, invocation with
// timeout and fixed-backoff retries. Returns parked=true when the execution
// was suspended on a pending approval.
func (r *Runner) runStep(ctx context.Context, definition *model.Definition, exec *execution.Execution, step *graph.Step) (parked bool, err error) {
	ctx, span := tracing.StartSpan(ctx, fmt.Sprintf("engine.step %s", step.ID), "INTERNAL")
	defer func() { tracing.EndSpan(span, err) }()

	// A rejection recorded while parked surfaces as a step failure.
	if reason, rejected := exec.TakeRejection(step.ID); rejected {
		return false, fmt.Errorf("step %s: approval rejected: %s", step.ID, reason)
	}

	ok, err := evaluator.EvaluateAll(step.Conditions, exec.ContextSnapshot())
	if err != nil {
		return false, fmt.Errorf("step %s: %w", step.ID, err)
	}
	if !ok {
		return false, fmt.Errorf("step %s: condition not met", step.ID)
	}

	if parked, err = r.gate(ctx, definition, exec, step); parked || err != nil {
		return parked, err
	}

	if r.schemas != nil {
		if err = r.schemas.Validate(step.Action, step.Inputs); err != nil {
			return false, fmt.Errorf("step %s: %w", step.ID, err)
		}
	}

	output, err := r.invokeWithRetries(ctx, exec, step)
	if err != nil {
		return false, fmt.Errorf("step %s: %w", step.ID, err)
	}
	exec.RecordStepOutput(step.ID, output)
	return false, nil
}

// gate runs the autonomy check and parks the execution when human approval
// is required.
func (r *Runner) gate(ctx context.Context, definition *model.Definition, exec *execution.Execution, step *graph.Step) (bool, error) {
	if r.autonomy == nil || exec.IsStepApproved(step.ID) {
		return false, nil
	}
	decision, err := r.autonomy.CanAutoExecute(ctx, definition.TeamID, step.Action, step.Inputs)
	if err != nil {
		return false, err
	}
	if decision.CanExecute {
		_ = r.autonomy.RecordAutoExecution(ctx, &approval.PendingAction{
			WorkspaceID: exec.WorkspaceID,
			TeamID:      definition.TeamID,
			AgentID:     step.AgentID,
			ExecutionID: exec.ID,
			StepID:      step.ID,
			ActionType:  step.Action,
			ActionData:  step.Inputs,
			Description: decision.Reason,
			Risk:        decision.Risk,
		})
		return false, nil
	}
	if r.approvals == nil {
		return false, fmt.Errorf("approval required (%s) but no approval service wired", decision.Reason)
	}
	action := &approval.PendingAction{
		ID:          idgen.New(),
		WorkspaceID: exec.WorkspaceID,
		TeamID:      definition.TeamID,
		AgentID:     step.AgentID,
		ExecutionID: exec.ID,
		StepID:      step.ID,
		ActionType:  step.Action,
		ActionData:  step.Inputs,
		Description: decision.Reason,
		Risk:        decision.Risk,
	}
	if err = r.approvals.Queue(ctx, action, r.config.ApprovalTTL); err != nil {
		return false, err
	}
	exec.Park(action.ID)
	r.publish(ctx, event.TypeExecutionParked, exec, action.ID)
	log.GetLogger().WithField("execution", exec.ID).
		WithField("step", step.ID).
		WithField("risk", string(decision.Risk)).
		Info("execution parked pending approval")
	return true, nil
}

func (r *Runner) invokeWithRetries(ctx context.Context, exec *execution.Execution, step *graph.Step) (map[string]interface{}, error) {
	attempts := step.Retry.Attempts()
	backoff := step.Retry.BackoffDuration()
	if backoff <= 0 {
		backoff = r.config.RetryDelay
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		output, err := r.invoke(ctx, exec, step)
		if err == nil {
			return output, nil
		}
		lastErr = err
		if attempt < attempts {
			time.Sleep(backoff)
		}
	}
	return nil, fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}

// invoke calls the agent, bounding the wait by the step timeout. The agent
// call itself is not cancelled on timeout; a timed-out attempt may still
// produce side effects, so retries of non-idempotent actions can duplicate
// them.
func (r *Runner) invoke(ctx context.Context, exec *execution.Execution, step *graph.Step) (map[string]interface{}, error) {
	a := r.agents.Lookup(step.AgentID)
	if a == nil {
		return nil, fmt.Errorf("unknown agent %s", step.AgentID)
	}
	timeout := step.TimeoutDuration()
	if timeout <= 0 {
		timeout = r.config.DefaultStepTimeout
	}

	type result struct {
		output map[string]interface{}
		err    error
	}
	resultCh := make(chan result, 1)
	go func() {
		output, err := a.Invoke(ctx, step.Action, step.Inputs)
		resultCh <- result{output: output, err: err}
	}()

	if timeout <= 0 {
		res := <-resultCh
		return res.output, res.err
	}
	select {
	case res := <-resultCh:
		return res.output, res.err
	case <-time.After(timeout):
		return nil, fmt.Errorf("timed out after %s", timeout)
	}
}

// successTransition resolves the next step index after a successful step,
// -1 meaning the execution completes.
func (r *Runner) successTransition(definition *model.Definition, step *graph.Step, current int) int {
	if step.OnSuccess != "" {
		return definition.StepIndex(step.OnSuccess)
	}
	if current+1 < len(definition.Steps) {
		return current + 1
	}
	return -1
}

// failureTransition resolves the onFailure step index, -1 meaning the
// execution fails.
func (r *Runner) failureTransition(definition *model.Definition, step *graph.Step) int {
	if step.OnFailure == "" {
		return -1
	}
	return definition.StepIndex(step.OnFailure)
}

// injectMemory seeds the execution context with the workspace's most
// relevant memory entries under the "memory" key.
func (r *Runner) injectMemory(ctx context.Context, exec *execution.Execution) {
	if r.memories == nil {
		return
	}
	entries, err := r.memories.Query(ctx, exec.WorkspaceID, &memory.Query{Limit: 10})
	if err != nil || len(entries) == 0 {
		return
	}
	recalled := make(map[string]interface{}, len(entries))
	for _, entry := range entries {
		recalled[entry.Key] = entry.Value
	}
	exec.SetContextValue("memory", recalled)
}

// recordSummary writes a short-term memory entry describing the finished
// run so later executions and agents can see it.
func (r *Runner) recordSummary(ctx context.Context, exec *execution.Execution) {
	if r.memories == nil {
		return
	}
	_, err := r.memories.Store(ctx, &memory.Entry{
		WorkspaceID: exec.WorkspaceID,
		Tier:        memory.TierShortTerm,
		Category:    memory.CategoryContext,
		Key:         fmt.Sprintf("workflow:%s:last_run", exec.WorkflowID),
		Value: map[string]interface{}{
			"executionId":    exec.ID,
			"status":         exec.Status,
			"completedSteps": exec.CompletedSteps,
			"durationMs":     exec.DurationMs,
		},
		Importance: 30,
	})
	if err != nil {
		log.GetLogger().Warnf("record run summary: %v", err)
	}
}

func (r *Runner) publish(ctx context.Context, eventType string, exec *execution.Execution, detail string) {
	if r.events == nil {
		return
	}
	envelope := event.NewEvent[any](&event.Context{
		EventType:   eventType,
		WorkspaceID: exec.WorkspaceID,
		WorkflowID:  exec.WorkflowID,
		ExecutionID: exec.ID,
		ApprovalID:  exec.PendingApprovalID(),
	}, exec.Clone())
	if detail != "" {
		envelope.Metadata = map[string]interface{}{"detail": detail}
	}
	_ = r.events.Publish(ctx, envelope)
}

func (r *Runner) loadExecution(ctx context.Context, executionID string) (*execution.Execution, error) {
	if executionID == "" {
		return nil, dao.ErrInvalidID
	}
	exec, err := r.executions.Load(ctx, executionID)
	if err != nil {
		return nil, err
	}
	if exec == nil {
		return nil, fmt.Errorf("engine: execution %s: %w", executionID, ErrNotFound)
	}
	return exec, nil
}
