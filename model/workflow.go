package model

import (
	"fmt"
	"time"

	"github.com/viant/agentspace/model/graph"
)

// Trigger types.
const (
	TriggerManual       = "manual"
	TriggerEvent        = "event"
	TriggerSchedule     = "schedule"
	TriggerAgentRequest = "agent_request"
)

// Definition statuses.
const (
	StatusDraft    = "draft"
	StatusActive   = "active"
	StatusPaused   = "paused"
	StatusArchived = "archived"
)

// Definition represents a workflow definition
type Definition struct {
	ID          string `json:"id" yaml:"id"`
	WorkspaceID string `json:"workspaceId" yaml:"workspaceId"`

	// Name is the human-facing identifier for the workflow
	Name string `json:"name" yaml:"name"`

	// Description provides a human-readable description of the workflow
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	Category string `json:"category,omitempty" yaml:"category,omitempty"`
	TeamID   string `json:"teamId,omitempty" yaml:"teamId,omitempty"`

	TriggerType   string                 `json:"triggerType" yaml:"triggerType"`
	TriggerConfig map[string]interface{} `json:"triggerConfig,omitempty" yaml:"triggerConfig,omitempty"`

	// Steps define the execution graph of the workflow, in list order
	Steps []*graph.Step `json:"steps" yaml:"steps"`

	Status    string    `json:"status" yaml:"status"`
	CreatedAt time.Time `json:"createdAt,omitempty" yaml:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
}

// NewDefinition creates a draft manual workflow in the given workspace.
func NewDefinition(workspaceID, name string) *Definition {
	return &Definition{
		WorkspaceID: workspaceID,
		Name:        name,
		TriggerType: TriggerManual,
		Status:      StatusDraft,
	}
}

// WithDescription sets the description of the workflow
func (d *Definition) WithDescription(description string) *Definition {
	d.Description = description
	return d
}

// WithTrigger sets the trigger type and configuration.
func (d *Definition) WithTrigger(triggerType string, config map[string]interface{}) *Definition {
	d.TriggerType = triggerType
	d.TriggerConfig = config
	return d
}

// WithTeam scopes the workflow to a team.
func (d *Definition) WithTeam(teamID string) *Definition {
	d.TeamID = teamID
	return d
}

// AddStep appends a step and returns it for further chaining.
func (d *Definition) AddStep(id, agentID, action string) *graph.Step {
	step := graph.NewStep(id, agentID, action)
	d.Steps = append(d.Steps, step)
	return step
}

// StepIndex returns the list position of the given step id, -1 when absent.
func (d *Definition) StepIndex(id string) int {
	for i, s := range d.Steps {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// Validate performs a structural validation of the workflow definition. The
// returned slice is empty when the definition is sound; otherwise it contains
// human-readable error descriptions. The function does NOT invoke any agent,
// it only verifies static properties.
func (d *Definition) Validate() []error {
	var issues []error

	if d.Name == "" {
		issues = append(issues, fmt.Errorf("name is empty"))
	}
	if d.WorkspaceID == "" {
		issues = append(issues, fmt.Errorf("workspaceId is empty"))
	}
	switch d.TriggerType {
	case TriggerManual, TriggerEvent, TriggerSchedule, TriggerAgentRequest:
	case "":
		issues = append(issues, fmt.Errorf("triggerType is empty"))
	default:
		issues = append(issues, fmt.Errorf("unknown triggerType %s", d.TriggerType))
	}
	if len(d.Steps) == 0 {
		issues = append(issues, fmt.Errorf("workflow has no steps"))
		return issues
	}

	// collect all step IDs
	seen := map[string]int{}
	for i, step := range d.Steps {
		if step.ID == "" {
			issues = append(issues, fmt.Errorf("step %d has empty id", i))
			continue
		}
		if _, dup := seen[step.ID]; dup {
			issues = append(issues, fmt.Errorf("duplicate step id %s", step.ID))
			continue
		}
		seen[step.ID] = i
	}

	for _, step := range d.Steps {
		if step.AgentID == "" {
			issues = append(issues, fmt.Errorf("step %s has no agentId", step.ID))
		}
		if step.Action == "" {
			issues = append(issues, fmt.Errorf("step %s has no action", step.ID))
		}
		if step.OnSuccess != "" {
			if _, ok := seen[step.OnSuccess]; !ok {
				issues = append(issues, fmt.Errorf("step %s onSuccess refers to unknown step %s", step.ID, step.OnSuccess))
			}
		}
		if step.OnFailure != "" {
			if _, ok := seen[step.OnFailure]; !ok {
				issues = append(issues, fmt.Errorf("step %s onFailure refers to unknown step %s", step.ID, step.OnFailure))
			}
		}
		if step.Timeout != "" {
			if _, err := time.ParseDuration(step.Timeout); err != nil {
				issues = append(issues, fmt.Errorf("step %s has invalid timeout: %v", step.ID, err))
			}
		}
		if step.Retry != nil && step.Retry.Backoff != "" {
			if _, err := time.ParseDuration(step.Retry.Backoff); err != nil {
				issues = append(issues, fmt.Errorf("step %s has invalid retry backoff: %v", step.ID, err))
			}
		}
		for _, cond := range step.Conditions {
			switch cond.Operator {
			case graph.OpEquals, graph.OpNotEquals, graph.OpGreaterThan, graph.OpGreaterOrEq,
				graph.OpLessThan, graph.OpLessOrEq, graph.OpContains, graph.OpExists, graph.OpNotExists:
			default:
				issues = append(issues, fmt.Errorf("step %s has unknown condition operator %s", step.ID, cond.Operator))
			}
		}
	}

	if cyclic := d.hasCycle(seen); cyclic {
		issues = append(issues, fmt.Errorf("workflow contains cyclic step transitions"))
	}
	return issues
}

// hasCycle runs a white/grey/black DFS over the transition graph. Edges are
// the effective success transition (onSuccess or next in list order) plus the
// explicit onFailure transition.
func (d *Definition) hasCycle(index map[string]int) bool {
	edges := map[string][]string{}
	for i, step := range d.Steps {
		if step.OnSuccess != "" {
			edges[step.ID] = append(edges[step.ID], step.OnSuccess)
		} else if i+1 < len(d.Steps) {
			edges[step.ID] = append(edges[step.ID], d.Steps[i+1].ID)
		}
		if step.OnFailure != "" {
			edges[step.ID] = append(edges[step.ID], step.OnFailure)
		}
	}

	const (
		white = 0
		grey  = 1
		black = 2
	)
	colour := map[string]int{}

	var dfs func(string) bool // returns true if cycle found
	dfs = func(n string) bool {
		switch colour[n] {
		case grey:
			return true // back-edge
		case black:
			return false
		}
		colour[n] = grey
		for _, nxt := range edges[n] {
			if _, known := index[nxt]; !known {
				continue
			}
			if dfs(nxt) {
				return true
			}
		}
		colour[n] = black
		return false
	}

	for _, step := range d.Steps {
		if dfs(step.ID) {
			return true
		}
	}
	return false
}

// Clone creates a deep copy of the definition
func (d *Definition) Clone() *Definition {
	if d == nil {
		return nil
	}
	clone := &Definition{
		ID:          d.ID,
		WorkspaceID: d.WorkspaceID,
		Name:        d.Name,
		Description: d.Description,
		Category:    d.Category,
		TeamID:      d.TeamID,
		TriggerType: d.TriggerType,
		Status:      d.Status,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
	if d.TriggerConfig != nil {
		clone.TriggerConfig = make(map[string]interface{}, len(d.TriggerConfig))
		for k, v := range d.TriggerConfig {
			clone.TriggerConfig[k] = v
		}
	}
	clone.Steps = graph.CloneSteps(d.Steps)
	return clone
}
