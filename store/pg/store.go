// Package pg provides PostgreSQL-backed stores for workflow definitions,
// versions, executions, pending actions and memory entries. Each entity row
// keeps its filterable columns alongside a JSONB document holding the full
// entity, so the stores satisfy the generic DAO contract without per-field
// column churn.
package pg

import (
	"database/sql"
	"encoding/json"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
)

// Store wraps a PostgreSQL connection shared by the entity stores.
type Store struct {
	db *sqlx.DB
}

// New opens and pings a PostgreSQL connection.
func New(connStr string) (*Store, error) {
	db, err := sqlx.Open("postgres", connStr)
	if err != nil {
		return nil, errors.Wrap(err, "open postgres")
	}
	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "ping postgres")
	}
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing connection, mostly for tests.
func NewWithDB(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

type documentRow struct {
	ID   string `db:"id"`
	Data []byte `db:"data"`
}

func marshalDocument(v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "marshal document")
	}
	return data, nil
}

func unmarshalDocument[T any](data []byte) (*T, error) {
	var entity T
	if err := json.Unmarshal(data, &entity); err != nil {
		return nil, errors.Wrap(err, "unmarshal document")
	}
	return &entity, nil
}

func loadDocument[T any](db *sqlx.DB, query string, args ...interface{}) (*T, error) {
	var row documentRow
	err := db.Get(&row, query, args...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return unmarshalDocument[T](row.Data)
}

func listDocuments[T any](db *sqlx.DB, query string, args ...interface{}) ([]*T, error) {
	var rows []documentRow
	if err := db.Select(&rows, query, args...); err != nil {
		return nil, err
	}
	out := make([]*T, 0, len(rows))
	for _, row := range rows {
		entity, err := unmarshalDocument[T](row.Data)
		if err != nil {
			return nil, err
		}
		out = append(out, entity)
	}
	return out, nil
}
