package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the subset of pgxpool.Pool used by PostgresMedium.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	createDocumentsTable = `CREATE TABLE IF NOT EXISTS clipshare_documents (
	name       TEXT PRIMARY KEY,
	body       TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

	insertEmptyDocument = `INSERT INTO clipshare_documents (name, body) VALUES ($1, $2)
ON CONFLICT (name) DO NOTHING`

	selectDocument = `SELECT body FROM clipshare_documents WHERE name = $1`

	upsertDocument = `INSERT INTO clipshare_documents (name, body, updated_at) VALUES ($1, $2, now())
ON CONFLICT (name) DO UPDATE SET body = EXCLUDED.body, updated_at = now()`
)

// PostgresMedium stores a document as one row of the clipshare_documents
// table. Each write is a single upsert statement.
type PostgresMedium struct {
	db   DBTX
	name string
}

// NewPostgresMedium returns a medium for the named document.
func NewPostgresMedium(db DBTX, name string) *PostgresMedium {
	return &PostgresMedium{db: db, name: name}
}

// Ensure creates the table and an empty document row if missing.
func (m *PostgresMedium) Ensure(ctx context.Context) error {
	if _, err := m.db.Exec(ctx, createDocumentsTable); err != nil {
		return fmt.Errorf("create documents table: %w", err)
	}
	if _, err := m.db.Exec(ctx, insertEmptyDocument, m.name, string(emptyDocument)); err != nil {
		return fmt.Errorf("seed document %s: %w", m.name, err)
	}
	return nil
}

// Read returns the document body, or nil if the row does not exist.
func (m *PostgresMedium) Read(ctx context.Context) ([]byte, error) {
	var body string
	err := m.db.QueryRow(ctx, selectDocument, m.name).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", m.name, err)
	}
	return []byte(body), nil
}

// Write upserts the document body.
func (m *PostgresMedium) Write(ctx context.Context, data []byte) error {
	if _, err := m.db.Exec(ctx, upsertDocument, m.name, string(data)); err != nil {
		return fmt.Errorf("write document %s: %w", m.name, err)
	}
	return nil
}
