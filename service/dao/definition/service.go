// Package definition loads workflow definitions from YAML documents, local
// or remote via afs URLs.
package definition

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/agentspace/internal/yml"
	"github.com/viant/agentspace/model"
	"github.com/viant/agentspace/model/graph"
	"gopkg.in/yaml.v3"
)

// Service decodes YAML workflow definitions.
type Service struct {
	fs afs.Service
}

// New creates a definition loader.
func New() *Service {
	return &Service{fs: afs.New()}
}

// Load reads and parses a definition from the given URL. A missing extension
// defaults to .yaml.
func (s *Service) Load(ctx context.Context, URL string) (*model.Definition, error) {
	if filepath.Ext(URL) == "" {
		URL += ".yaml"
	}
	data, err := s.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load definition from %s: %w", URL, err)
	}
	definition, err := s.DecodeYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse definition from %s: %w", URL, err)
	}
	if definition.Name == "" {
		definition.Name = nameFromURL(URL)
	}
	return definition, nil
}

// DecodeYAML decodes a definition from a YAML document.
func (s *Service) DecodeYAML(encoded []byte) (*model.Definition, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(encoded, &node); err != nil {
		return nil, err
	}
	root := (*yml.Node)(&node)
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		root = (*yml.Node)(node.Content[0])
	}
	definition := &model.Definition{TriggerType: model.TriggerManual, Status: model.StatusDraft}
	err := root.Pairs(func(key string, valueNode *yml.Node) error {
		switch strings.ToLower(key) {
		case "id":
			definition.ID = asString(valueNode)
		case "workspaceid", "workspace":
			definition.WorkspaceID = asString(valueNode)
		case "name":
			definition.Name = asString(valueNode)
		case "description":
			definition.Description = asString(valueNode)
		case "category":
			definition.Category = asString(valueNode)
		case "teamid", "team":
			definition.TeamID = asString(valueNode)
		case "triggertype", "trigger":
			definition.TriggerType = asString(valueNode)
		case "triggerconfig":
			if cfg, ok := valueNode.Interface().(map[string]interface{}); ok {
				definition.TriggerConfig = cfg
			}
		case "status":
			definition.Status = asString(valueNode)
		case "steps":
			return valueNode.Items(func(_ int, stepNode *yml.Node) error {
				step, err := parseStep(stepNode)
				if err != nil {
					return err
				}
				definition.Steps = append(definition.Steps, step)
				return nil
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return definition, nil
}

func parseStep(node *yml.Node) (*graph.Step, error) {
	step := &graph.Step{}
	err := node.Pairs(func(key string, valueNode *yml.Node) error {
		switch strings.ToLower(key) {
		case "id":
			step.ID = asString(valueNode)
		case "name":
			step.Name = asString(valueNode)
		case "agentid", "agent":
			step.AgentID = asString(valueNode)
		case "action":
			step.Action = asString(valueNode)
		case "inputs":
			if inputs, ok := valueNode.Interface().(map[string]interface{}); ok {
				step.Inputs = inputs
			}
		case "conditions":
			return valueNode.Items(func(_ int, condNode *yml.Node) error {
				condition := &graph.Condition{}
				err := condNode.Pairs(func(condKey string, condValue *yml.Node) error {
					switch strings.ToLower(condKey) {
					case "field":
						condition.Field = asString(condValue)
					case "operator", "op":
						condition.Operator = asString(condValue)
					case "value":
						condition.Value = condValue.Interface()
					}
					return nil
				})
				if err != nil {
					return err
				}
				step.Conditions = append(step.Conditions, condition)
				return nil
			})
		case "onsuccess":
			step.OnSuccess = asString(valueNode)
		case "onfailure":
			step.OnFailure = asString(valueNode)
		case "timeout":
			step.Timeout = asString(valueNode)
		case "retry":
			retry := &graph.Retry{}
			err := valueNode.Pairs(func(retryKey string, retryValue *yml.Node) error {
				switch strings.ToLower(retryKey) {
				case "maxattempts":
					if n, ok := retryValue.Interface().(int); ok {
						retry.MaxAttempts = n
					}
				case "backoff":
					retry.Backoff = asString(retryValue)
				}
				return nil
			})
			if err != nil {
				return err
			}
			step.Retry = retry
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if step.Name == "" {
		step.Name = step.ID
	}
	return step, nil
}

func asString(node *yml.Node) string {
	if value := node.Interface(); value != nil {
		return fmt.Sprintf("%v", value)
	}
	return ""
}

func nameFromURL(URL string) string {
	base := filepath.Base(URL)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
