package storage

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sliink/dataprocessor/internal/model"
)

// PostgresAdapter is a relational-style mock backend holding rows in a list
type PostgresAdapter struct {
	connection
	mu   sync.RWMutex
	rows []model.Record
}

// NewPostgresAdapter creates a disconnected relational-style adapter
func NewPostgresAdapter(opts Options) *PostgresAdapter {
	return &PostgresAdapter{
		connection: connection{backend: model.BackendPostgres, label: "PostgreSQL", opts: opts},
	}
}

// Save appends a copy of record stamped with savedAt and a row id
func (a *PostgresAdapter) Save(_ context.Context, record model.Record) (bool, error) {
	if err := a.ensureConnected("save"); err != nil {
		return false, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	row := record.Clone()
	if row == nil {
		row = model.Record{}
	}
	row["savedAt"] = time.Now().UTC()
	if !row.HasID() {
		row["id"] = len(a.rows) + 1
	}
	a.rows = append(a.rows, row)
	return true, nil
}

// Validate requires a non-empty name and an email containing "@"
func (a *PostgresAdapter) Validate(_ context.Context, record model.Record) (bool, error) {
	if err := a.ensureConnected("validate"); err != nil {
		return false, err
	}
	email, ok := record["email"].(string)
	return model.Truthy(record["name"]) && ok && strings.Contains(email, "@"), nil
}

// Query returns copies of the rows matching criteria
func (a *PostgresAdapter) Query(_ context.Context, criteria model.Record) ([]model.Record, error) {
	if err := a.ensureConnected("query"); err != nil {
		return nil, err
	}

	a.mu.RLock()
	defer a.mu.RUnlock()
	return queryList(a.rows, criteria), nil
}
