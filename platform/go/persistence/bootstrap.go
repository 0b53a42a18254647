package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	sqlassets "github.com/zenGate-Global/palmyra-org-admin/database"
)

// Schemas names the two schemas the service owns: the admin schema holding the
// organization directory and admin identities, and the tenant schema holding one
// table per organization collection.
type Schemas struct {
	Admin  string
	Tenant string
}

// Validate normalizes both schema names.
func (s Schemas) Validate() (Schemas, error) {
	admin, err := normalizeIdentifier("admin schema", s.Admin)
	if err != nil {
		return Schemas{}, err
	}
	tenant, err := normalizeIdentifier("tenant schema", s.Tenant)
	if err != nil {
		return Schemas{}, err
	}
	if admin == tenant {
		return Schemas{}, fmt.Errorf("admin and tenant schema must differ (both %q)", admin)
	}
	return Schemas{Admin: admin, Tenant: tenant}, nil
}

// BootstrapSchemas creates both schemas (if missing) and applies the directory DDL in a
// single transaction. The statements are executed with search_path set to the admin schema, in this order:
//  1. platform/organizations.sql
//  2. platform/admin_users.sql
//
// SQL is embedded at build time so binaries stay self-contained. The helper is
// idempotent and intended for CLI bootstrap and tests.
func BootstrapSchemas(ctx context.Context, pool *pgxpool.Pool, schemas Schemas) error {
	if pool == nil {
		return fmt.Errorf("bootstrap schemas: pool is required")
	}
	schemas, err := schemas.Validate()
	if err != nil {
		return fmt.Errorf("bootstrap schemas: %w", err)
	}

	var statements []string
	statements = append(statements, splitStatements(sqlassets.OrganizationsSQL)...)
	statements = append(statements, splitStatements(sqlassets.AdminUsersSQL)...)

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	for _, schema := range []string{schemas.Admin, schemas.Tenant} {
		if _, err := tx.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+pgx.Identifier{schema}.Sanitize()); err != nil {
			return fmt.Errorf("create schema %s: %w", schema, err)
		}
	}

	if _, err := tx.Exec(ctx, `SELECT set_config('search_path', $1, true)`, schemas.Admin); err != nil {
		return fmt.Errorf("set search_path: %w", err)
	}

	for _, stmt := range statements {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply ddl: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// splitStatements breaks a DDL file on ';' and drops empty fragments.
func splitStatements(sql string) []string {
	raw := strings.Split(sql, ";")
	out := make([]string, 0, len(raw))
	for _, stmt := range raw {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		out = append(out, stmt)
	}
	return out
}
