// Package engine implements the workflow engine: definition lifecycle with
// immutable pre-change versioning, and execution of step graphs on a worker
// pool with autonomy gating and approval suspension.
package engine

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/viant/agentspace/internal/clock"
	"github.com/viant/agentspace/internal/idgen"
	"github.com/viant/agentspace/internal/log"
	"github.com/viant/agentspace/model"
	"github.com/viant/agentspace/model/graph"
	"github.com/viant/agentspace/runtime/execution"
	"github.com/viant/agentspace/service/approval"
	"github.com/viant/agentspace/service/dao"
	"github.com/viant/agentspace/tracing"
)

// IdentityResolver maps actor ids to display names for version annotation.
// Identity itself is owned by an external service.
type IdentityResolver interface {
	DisplayName(ctx context.Context, actorID string) string
}

// Service owns workflow definitions, versions and executions.
type Service struct {
	config Config

	definitions dao.Service[string, model.Definition]
	versions    dao.Service[string, model.Version]
	executions  dao.Service[string, execution.Execution]

	runner     *Runner
	identities IdentityResolver

	// versionMux serializes definition mutation per workflow so version
	// numbers stay gapless under concurrent updates.
	versionMux map[string]*sync.Mutex
	mapMux     sync.Mutex
}

// UpdateRequest carries a partial definition update. Nil fields stay
// unchanged; a change to steps or trigger snapshots the pre-change state as
// a new version.
type UpdateRequest struct {
	Name          *string
	Description   *string
	Category      *string
	TriggerType   *string
	TriggerConfig *map[string]interface{}
	Steps         []*graph.Step
	Status        *string
	ChangeNote    string
	ActorID       string
}

// VersionInfo is a version annotated with the actor's display identity.
type VersionInfo struct {
	*model.Version
	CreatedByName string `json:"createdByName,omitempty"`
}

// Detail is the full workflow view: definition, resolved agent metadata and
// recent executions.
type Detail struct {
	Definition *model.Definition      `json:"definition"`
	Agents     []AgentInfo            `json:"agents"`
	Recent     []*execution.Execution `json:"recentExecutions"`
}

// AgentInfo is the display metadata of an agent referenced by a step.
type AgentInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type,omitempty"`
	Status string `json:"status,omitempty"`
}

func (s *Service) lockWorkflow(id string) *sync.Mutex {
	s.mapMux.Lock()
	defer s.mapMux.Unlock()
	if s.versionMux == nil {
		s.versionMux = make(map[string]*sync.Mutex)
	}
	mux, ok := s.versionMux[id]
	if !ok {
		mux = &sync.Mutex{}
		s.versionMux[id] = mux
	}
	return mux
}

// Create validates and persists a new workflow definition. The step graph
// must be acyclic; invalid definitions are rejected up front.
func (s *Service) Create(ctx context.Context, definition *model.Definition) (*model.Definition, error) {
	if definition == nil {
		return nil, dao.ErrNilEntity
	}
	if definition.Status == "" {
		definition.Status = model.StatusDraft
	}
	if err := NewValidationError(definition.Validate()); err != nil {
		return nil, err
	}
	now := clock.Now()
	definition.ID = idgen.New()
	definition.CreatedAt = now
	definition.UpdatedAt = now
	if err := s.definitions.Save(ctx, definition); err != nil {
		return nil, err
	}
	return definition, nil
}

// Update applies a partial update. When steps or trigger change, the
// pre-change state is snapshotted first as version lastVersion+1, so history
// always holds what the workflow looked like before each change.
func (s *Service) Update(ctx context.Context, workflowID string, update *UpdateRequest) (*model.Definition, error) {
	if update == nil {
		return nil, dao.ErrNilEntity
	}
	mux := s.lockWorkflow(workflowID)
	mux.Lock()
	defer mux.Unlock()

	definition, err := s.loadDefinition(ctx, workflowID)
	if err != nil {
		return nil, err
	}

	updated := definition.Clone()
	if update.Name != nil {
		updated.Name = *update.Name
	}
	if update.Description != nil {
		updated.Description = *update.Description
	}
	if update.Category != nil {
		updated.Category = *update.Category
	}
	if update.TriggerType != nil {
		updated.TriggerType = *update.TriggerType
	}
	if update.TriggerConfig != nil {
		updated.TriggerConfig = *update.TriggerConfig
	}
	if update.Steps != nil {
		updated.Steps = graph.CloneSteps(update.Steps)
	}
	if update.Status != nil {
		updated.Status = *update.Status
	}
	if err = NewValidationError(updated.Validate()); err != nil {
		return nil, err
	}

	if s.needsSnapshot(definition, updated) {
		if _, err = s.snapshot(ctx, definition, update.ChangeNote, update.ActorID); err != nil {
			return nil, err
		}
	}
	updated.UpdatedAt = clock.Now()
	if err = s.definitions.Save(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// needsSnapshot reports whether the change touches the versioned portion of
// the definition. Name or description edits alone do not version.
func (s *Service) needsSnapshot(before, after *model.Definition) bool {
	if before.TriggerType != after.TriggerType {
		return true
	}
	if !reflect.DeepEqual(before.TriggerConfig, after.TriggerConfig) {
		return true
	}
	return !reflect.DeepEqual(before.Steps, after.Steps)
}

// snapshot persists the current definition state as the next version; the
// caller holds the workflow lock.
func (s *Service) snapshot(ctx context.Context, definition *model.Definition, changeNote, actorID string) (*model.Version, error) {
	next, err := s.nextVersionNumber(ctx, definition.ID)
	if err != nil {
		return nil, err
	}
	version := definition.Snapshot()
	version.ID = idgen.New()
	version.Number = next
	version.ChangeNote = changeNote
	version.CreatedBy = actorID
	version.CreatedAt = clock.Now()
	if err = s.versions.Save(ctx, version); err != nil {
		return nil, fmt.Errorf("engine: save version %d of %s: %w", next, definition.ID, err)
	}
	return version, nil
}

func (s *Service) nextVersionNumber(ctx context.Context, workflowID string) (int, error) {
	versions, err := s.workflowVersions(ctx, workflowID)
	if err != nil {
		return 0, err
	}
	max := 0
	for _, v := range versions {
		if v.Number > max {
			max = v.Number
		}
	}
	return max + 1, nil
}

func (s *Service) workflowVersions(ctx context.Context, workflowID string) ([]*model.Version, error) {
	all, err := s.versions.List(ctx, dao.NewParameter("WorkflowID", workflowID))
	if err != nil {
		return nil, err
	}
	matched := make([]*model.Version, 0, len(all))
	for _, v := range all {
		if v.WorkflowID == workflowID {
			matched = append(matched, v)
		}
	}
	return matched, nil
}

// ListVersions returns the version history newest first, annotated with the
// actor's display identity when a resolver is wired.
func (s *Service) ListVersions(ctx context.Context, workflowID string) ([]*VersionInfo, error) {
	if _, err := s.loadDefinition(ctx, workflowID); err != nil {
		return nil, err
	}
	versions, err := s.workflowVersions(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i].Number > versions[j].Number })
	infos := make([]*VersionInfo, len(versions))
	for i, v := range versions {
		info := &VersionInfo{Version: v}
		if s.identities != nil && v.CreatedBy != "" {
			info.CreatedByName = s.identities.DisplayName(ctx, v.CreatedBy)
		}
		infos[i] = info
	}
	return infos, nil
}

// RestoreVersion rolls the live definition back to a historical snapshot.
// The current state is snapshotted first, so a restore is itself reversible.
// Returns the number of the version holding the pre-restore state.
func (s *Service) RestoreVersion(ctx context.Context, workflowID string, number int, actorID string) (int, error) {
	mux := s.lockWorkflow(workflowID)
	mux.Lock()
	defer mux.Unlock()

	definition, err := s.loadDefinition(ctx, workflowID)
	if err != nil {
		return 0, err
	}
	versions, err := s.workflowVersions(ctx, workflowID)
	if err != nil {
		return 0, err
	}
	var target *model.Version
	for _, v := range versions {
		if v.Number == number {
			target = v
			break
		}
	}
	if target == nil {
		return 0, fmt.Errorf("engine: version %d of workflow %s: %w", number, workflowID, ErrNotFound)
	}

	saved, err := s.snapshot(ctx, definition, fmt.Sprintf("before restore to version %d", number), actorID)
	if err != nil {
		return 0, err
	}
	restored := definition.Clone()
	target.Apply(restored)
	restored.UpdatedAt = clock.Now()
	if err = s.definitions.Save(ctx, restored); err != nil {
		return 0, err
	}
	return saved.Number, nil
}

// Execute starts a run of an active workflow and returns the execution id
// immediately; steps advance out-of-band on the worker pool.
func (s *Service) Execute(ctx context.Context, workflowID string, trigger map[string]interface{}) (string, error) {
	ctx, span := tracing.StartSpan(ctx, "engine.Execute", "INTERNAL")
	var err error
	defer func() { tracing.EndSpan(span, err) }()

	definition, err := s.loadDefinition(ctx, workflowID)
	if err != nil {
		return "", err
	}
	if definition.Status != model.StatusActive {
		err = fmt.Errorf("workflow %s has status %s: %w", workflowID, definition.Status, ErrNotActive)
		return "", err
	}
	exec := execution.New(idgen.New(), definition.ID, definition.WorkspaceID, len(definition.Steps), trigger)
	span.WithAttributes(map[string]string{"workflow.id": workflowID, "execution.id": exec.ID})
	if err = s.executions.Save(ctx, exec); err != nil {
		return "", err
	}
	if err = s.runner.Schedule(ctx, exec.ID); err != nil {
		return "", err
	}
	return exec.ID, nil
}

// Get returns the workflow detail view.
func (s *Service) Get(ctx context.Context, workflowID string) (*Detail, error) {
	definition, err := s.loadDefinition(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	detail := &Detail{Definition: definition}

	seen := map[string]bool{}
	for _, step := range definition.Steps {
		if seen[step.AgentID] {
			continue
		}
		seen[step.AgentID] = true
		meta := s.runner.agents.Metadata(step.AgentID)
		detail.Agents = append(detail.Agents, AgentInfo{ID: meta.ID, Name: meta.Name, Type: meta.Type, Status: meta.Status})
	}

	recent, err := s.ListExecutions(ctx, workflowID)
	if err != nil {
		return nil, err
	}
	limit := s.config.RecentExecutions
	if limit > 0 && len(recent) > limit {
		recent = recent[:limit]
	}
	detail.Recent = recent
	return detail, nil
}

// ListExecutions returns the workflow's executions, newest first. Entries
// are detached copies safe to hand to concurrent readers.
func (s *Service) ListExecutions(ctx context.Context, workflowID string) ([]*execution.Execution, error) {
	all, err := s.executions.List(ctx, dao.NewParameter("WorkflowID", workflowID))
	if err != nil {
		return nil, err
	}
	matched := make([]*execution.Execution, 0, len(all))
	for _, e := range all {
		if e.WorkflowID == workflowID {
			matched = append(matched, e.Clone())
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	return matched, nil
}

// GetExecution returns a detached copy of a single execution; workers keep
// mutating the stored one while it runs.
func (s *Service) GetExecution(ctx context.Context, executionID string) (*execution.Execution, error) {
	exec, err := s.liveExecution(ctx, executionID)
	if err != nil {
		return nil, err
	}
	return exec.Clone(), nil
}

// liveExecution loads the stored execution, shared with the runner workers.
func (s *Service) liveExecution(ctx context.Context, executionID string) (*execution.Execution, error) {
	exec, err := s.executions.Load(ctx, executionID)
	if err != nil {
		return nil, err
	}
	if exec == nil {
		return nil, fmt.Errorf("engine: execution %s: %w", executionID, ErrNotFound)
	}
	return exec, nil
}

// Cancel flags an execution for cancellation. The runner honours the flag at
// the next step boundary; a pending or parked execution is cancelled
// immediately since no worker will revisit it. Cancelling a parked execution
// also withdraws the approval that was gating it, so a late decision cannot
// act on the cancelled run.
func (s *Service) Cancel(ctx context.Context, executionID string) error {
	exec, err := s.liveExecution(ctx, executionID)
	if err != nil {
		return err
	}
	if exec.IsFinished() {
		return ErrFinished
	}
	exec.RequestCancel()
	if approvalID := exec.ClearPark(); approvalID != "" {
		if s.runner.approvals != nil {
			if wErr := s.runner.approvals.Withdraw(ctx, approvalID); wErr != nil && !errors.Is(wErr, approval.ErrAlreadyResolved) {
				log.GetLogger().WithField("execution", executionID).
					Warnf("withdraw approval %s: %v", approvalID, wErr)
			}
		}
		exec.Cancel()
	} else if exec.State() == execution.StatePending {
		exec.Cancel()
	}
	return s.executions.Save(ctx, exec)
}

// WaitForExecution polls until the execution finishes or parks, or the
// timeout elapses. Intended for tests and synchronous callers.
func (s *Service) WaitForExecution(ctx context.Context, executionID string, timeout time.Duration) (*execution.Execution, error) {
	deadline := time.Now().Add(timeout)
	for {
		exec, err := s.GetExecution(ctx, executionID)
		if err != nil {
			return nil, err
		}
		if exec.IsFinished() || exec.IsParked() {
			return exec, nil
		}
		if time.Now().After(deadline) {
			return exec, fmt.Errorf("engine: timeout waiting for execution %s", executionID)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func (s *Service) loadDefinition(ctx context.Context, workflowID string) (*model.Definition, error) {
	if workflowID == "" {
		return nil, dao.ErrInvalidID
	}
	definition, err := s.definitions.Load(ctx, workflowID)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return nil, fmt.Errorf("engine: workflow %s: %w", workflowID, ErrNotFound)
		}
		return nil, err
	}
	if definition == nil {
		return nil, fmt.Errorf("engine: workflow %s: %w", workflowID, ErrNotFound)
	}
	return definition, nil
}
