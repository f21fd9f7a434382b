package pg

import (
	"context"

	"github.com/viant/agentspace/model"
	"github.com/viant/agentspace/service/dao"
	"github.com/viant/agentspace/service/dao/criteria"
)

// Definitions is the relational workflow definition store.
type Definitions struct {
	store *Store
}

// NewDefinitions creates a definition store on the given connection.
func NewDefinitions(store *Store) *Definitions {
	return &Definitions{store: store}
}

// Save upserts a definition by id.
func (d *Definitions) Save(ctx context.Context, definition *model.Definition) error {
	if definition == nil {
		return dao.ErrNilEntity
	}
	data, err := marshalDocument(definition)
	if err != nil {
		return err
	}
	_, err = d.store.db.ExecContext(ctx, `
		INSERT INTO workflow_definitions (id, workspace_id, team_id, status, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET workspace_id = EXCLUDED.workspace_id,
		    team_id = EXCLUDED.team_id,
		    status = EXCLUDED.status,
		    data = EXCLUDED.data,
		    updated_at = EXCLUDED.updated_at`,
		definition.ID, definition.WorkspaceID, definition.TeamID, definition.Status,
		data, definition.CreatedAt, definition.UpdatedAt)
	return err
}

// Load returns a definition by id, or nil when absent.
func (d *Definitions) Load(ctx context.Context, id string) (*model.Definition, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	return loadDocument[model.Definition](d.store.db,
		"SELECT id, data FROM workflow_definitions WHERE id = $1", id)
}

// Delete removes a definition by id.
func (d *Definitions) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}
	_, err := d.store.db.ExecContext(ctx, "DELETE FROM workflow_definitions WHERE id = $1", id)
	return err
}

// List returns definitions, optionally narrowed by WorkspaceID or Status
// parameters.
func (d *Definitions) List(ctx context.Context, parameters ...*dao.Parameter) ([]*model.Definition, error) {
	query := "SELECT id, data FROM workflow_definitions"
	var args []interface{}
	if workspace := criteria.Value("WorkspaceID", parameters); workspace != "" {
		query += " WHERE workspace_id = $1"
		args = append(args, workspace)
	} else if status := criteria.Value("Status", parameters); status != "" {
		query += " WHERE status = $1"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC"
	return listDocuments[model.Definition](d.store.db, query, args...)
}
