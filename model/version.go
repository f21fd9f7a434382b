package model

import (
	"time"

	"github.com/viant/agentspace/model/graph"
)

// Version is an immutable snapshot of a workflow definition taken before a
// change was applied. Numbers are strictly increasing per workflow, without
// gaps, and never reused.
type Version struct {
	ID            string                 `json:"id"`
	WorkflowID    string                 `json:"workflowId"`
	Number        int                    `json:"number"`
	Name          string                 `json:"name"`
	Description   string                 `json:"description,omitempty"`
	TriggerType   string                 `json:"triggerType"`
	TriggerConfig map[string]interface{} `json:"triggerConfig,omitempty"`
	Steps         []*graph.Step          `json:"steps"`
	ChangeNote    string                 `json:"changeNote,omitempty"`
	CreatedBy     string                 `json:"createdBy,omitempty"`
	CreatedAt     time.Time              `json:"createdAt"`
}

// Snapshot captures the versioned portion of the definition as it is now.
// The caller assigns ID, Number, ChangeNote and CreatedBy.
func (d *Definition) Snapshot() *Version {
	v := &Version{
		WorkflowID:  d.ID,
		Name:        d.Name,
		Description: d.Description,
		TriggerType: d.TriggerType,
		Steps:       graph.CloneSteps(d.Steps),
	}
	if d.TriggerConfig != nil {
		v.TriggerConfig = make(map[string]interface{}, len(d.TriggerConfig))
		for k, val := range d.TriggerConfig {
			v.TriggerConfig[k] = val
		}
	}
	return v
}

// Apply overwrites the versioned portion of the definition with the snapshot
// content. Identity, workspace and status are left untouched.
func (v *Version) Apply(d *Definition) {
	d.Name = v.Name
	d.Description = v.Description
	d.TriggerType = v.TriggerType
	if v.TriggerConfig != nil {
		d.TriggerConfig = make(map[string]interface{}, len(v.TriggerConfig))
		for k, val := range v.TriggerConfig {
			d.TriggerConfig[k] = val
		}
	} else {
		d.TriggerConfig = nil
	}
	d.Steps = graph.CloneSteps(v.Steps)
}
