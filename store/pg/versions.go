package pg

import (
	"context"

	"github.com/viant/agentspace/model"
	"github.com/viant/agentspace/service/dao"
	"github.com/viant/agentspace/service/dao/criteria"
)

// Versions is the relational workflow version store. A unique index on
// (workflow_id, number) backstops the engine's per-workflow serialization:
// should two writers ever race past it, one insert fails instead of
// producing a duplicate number.
type Versions struct {
	store *Store
}

// NewVersions creates a version store on the given connection.
func NewVersions(store *Store) *Versions {
	return &Versions{store: store}
}

// Save inserts a version. Versions are immutable; saving an existing id is
// rejected by the primary key.
func (v *Versions) Save(ctx context.Context, version *model.Version) error {
	if version == nil {
		return dao.ErrNilEntity
	}
	data, err := marshalDocument(version)
	if err != nil {
		return err
	}
	_, err = v.store.db.ExecContext(ctx, `
		INSERT INTO workflow_versions (id, workflow_id, number, data, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		version.ID, version.WorkflowID, version.Number, data, version.CreatedAt)
	if err != nil && isUniqueViolation(err) {
		return dao.ErrConflict
	}
	return err
}

// Load returns a version by id, or nil when absent.
func (v *Versions) Load(ctx context.Context, id string) (*model.Version, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	return loadDocument[model.Version](v.store.db,
		"SELECT id, data FROM workflow_versions WHERE id = $1", id)
}

// Delete removes a version by id.
func (v *Versions) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}
	_, err := v.store.db.ExecContext(ctx, "DELETE FROM workflow_versions WHERE id = $1", id)
	return err
}

// List returns versions, narrowed by a WorkflowID parameter when present,
// newest number first.
func (v *Versions) List(ctx context.Context, parameters ...*dao.Parameter) ([]*model.Version, error) {
	query := "SELECT id, data FROM workflow_versions"
	var args []interface{}
	if workflowID := criteria.Value("WorkflowID", parameters); workflowID != "" {
		query += " WHERE workflow_id = $1"
		args = append(args, workflowID)
	}
	query += " ORDER BY number DESC"
	return listDocuments[model.Version](v.store.db, query, args...)
}
