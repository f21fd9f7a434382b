package engine

import (
	"context"

	"github.com/viant/agentspace/model"
	"github.com/viant/agentspace/service/dao/definition"
)

// LoadDefinition reads a workflow definition from a YAML document at the
// given URL and persists it. The document may omit the name; it then derives
// from the file name.
func (s *Service) LoadDefinition(ctx context.Context, URL string) (*model.Definition, error) {
	loaded, err := definition.New().Load(ctx, URL)
	if err != nil {
		return nil, err
	}
	return s.Create(ctx, loaded)
}
