package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the registry tables if they don't exist
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS ` + tables.Documents + ` (
			id BIGINT PRIMARY KEY CHECK (id > 0),
			name TEXT NOT NULL CHECK (name <> ''),
			owner TEXT NOT NULL,
			encrypted_key BYTEA NOT NULL,
			encrypted_body BYTEA NOT NULL DEFAULT ''::bytea,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			CHECK (updated_at >= created_at)
		)`,
		`CREATE INDEX IF NOT EXISTS ` + tables.Documents + `_owner_idx ON ` + tables.Documents + ` (owner)`,
		`CREATE TABLE IF NOT EXISTS ` + tables.DocumentAccess + ` (
			document_id BIGINT NOT NULL REFERENCES ` + tables.Documents + `(id),
			principal TEXT NOT NULL,
			position BIGINT NOT NULL,
			PRIMARY KEY (document_id, principal)
		)`,
		`CREATE INDEX IF NOT EXISTS ` + tables.DocumentAccess + `_principal_idx ON ` + tables.DocumentAccess + ` (principal)`,
		`CREATE TABLE IF NOT EXISTS ` + tables.DocumentEvents + ` (
			seq BIGINT PRIMARY KEY,
			kind TEXT NOT NULL,
			document_id BIGINT NOT NULL REFERENCES ` + tables.Documents + `(id),
			actor TEXT NOT NULL,
			subject TEXT NOT NULL DEFAULT '',
			payload BYTEA,
			occurred_at TIMESTAMPTZ NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// DropSchema drops the registry tables (children first)
func DropSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	for _, table := range []string{tables.DocumentEvents, tables.DocumentAccess, tables.Documents} {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
	}
	return nil
}

// ClearData removes every registry row but keeps the schema
func ClearData(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	query := fmt.Sprintf("TRUNCATE %s, %s, %s", tables.DocumentEvents, tables.DocumentAccess, tables.Documents)
	if _, err := pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("clear data: %w", err)
	}
	return nil
}
