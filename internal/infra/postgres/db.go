// Package postgres implements the self-hosted backend on PostgreSQL:
// tasks and users in tables, inserts announced with LISTEN/NOTIFY.
package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schemaSQL string

var tableNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,40}$`)

// ValidateTable rejects table names that cannot be used unquoted.
func ValidateTable(table string) error {
	if !tableNamePattern.MatchString(table) {
		return fmt.Errorf("invalid table name %q", table)
	}
	return nil
}

// InsertChannel returns the NOTIFY channel carrying inserts into table.
func InsertChannel(table string) string {
	return table + "_inserts"
}

// Schema returns the DDL for the given tasks table.
func Schema(table string) string {
	return strings.NewReplacer(
		"__TABLE__", table,
		"__CHANNEL__", InsertChannel(table),
	).Replace(schemaSQL)
}

// Connect opens a pool and verifies connectivity.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Migrate creates the tables and the insert trigger if missing.
func Migrate(ctx context.Context, db *pgxpool.Pool, table string) error {
	if err := ValidateTable(table); err != nil {
		return err
	}
	if _, err := db.Exec(ctx, Schema(table)); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
