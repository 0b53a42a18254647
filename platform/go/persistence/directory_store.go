package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	// OrganizationsTable is the directory table inside the admin schema.
	OrganizationsTable = "organizations"
	// AdminUsersTable holds admin credentials inside the admin schema.
	AdminUsersTable = "admin_users"
)

// OrganizationRecord represents a row of the organizations table.
type OrganizationRecord struct {
	OrgID          uuid.UUID `db:"org_id"`
	Name           string    `db:"name"`
	CollectionName string    `db:"collection_name"`
	AdminUserID    uuid.UUID `db:"admin_user_id"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// AdminUserRecord represents a row of the admin_users table.
type AdminUserRecord struct {
	UserID       uuid.UUID `db:"user_id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	OrgID        uuid.UUID `db:"org_id"`
	Role         string    `db:"role"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// DirectoryStore persists organizations and their admin identities in the admin schema.
type DirectoryStore struct {
	pool          *pgxpool.Pool
	organizations string
	adminUsers    string
}

// NewDirectoryStore creates a store; assumes BootstrapSchemas already created the tables.
func NewDirectoryStore(ctx context.Context, pool *pgxpool.Pool, adminSchema string) (*DirectoryStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	schema, err := normalizeIdentifier("admin schema", adminSchema)
	if err != nil {
		return nil, err
	}
	return &DirectoryStore{
		pool:          pool,
		organizations: qualifiedTable(schema, OrganizationsTable),
		adminUsers:    qualifiedTable(schema, AdminUsersTable),
	}, nil
}

const organizationColumns = `org_id, name, collection_name, admin_user_id, created_at, updated_at`

const adminUserColumns = `user_id, email, password_hash, org_id, role, created_at, updated_at`

// CreateOrganizationWithAdmin inserts the admin identity and then the organization that
// references it, in one transaction. Either both rows exist afterwards or neither does.
func (s *DirectoryStore) CreateOrganizationWithAdmin(ctx context.Context, org OrganizationRecord, admin AdminUserRecord) (OrganizationRecord, AdminUserRecord, error) {
	if org.OrgID == uuid.Nil || admin.UserID == uuid.Nil {
		return OrganizationRecord{}, AdminUserRecord{}, errors.New("organization and admin ids are required")
	}
	if org.AdminUserID != admin.UserID || admin.OrgID != org.OrgID {
		return OrganizationRecord{}, AdminUserRecord{}, errors.New("organization and admin must reference each other")
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return OrganizationRecord{}, AdminUserRecord{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	adminRow := tx.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (user_id, email, password_hash, org_id, role)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING %s
    `, s.adminUsers, adminUserColumns),
		admin.UserID, strings.TrimSpace(admin.Email), admin.PasswordHash, admin.OrgID, admin.Role,
	)
	savedAdmin, err := scanAdminUser(adminRow)
	if err != nil {
		return OrganizationRecord{}, AdminUserRecord{}, mapWriteError(err)
	}

	orgRow := tx.QueryRow(ctx, fmt.Sprintf(`
        INSERT INTO %s (org_id, name, collection_name, admin_user_id)
        VALUES ($1, $2, $3, $4)
        RETURNING %s
    `, s.organizations, organizationColumns),
		org.OrgID, org.Name, org.CollectionName, org.AdminUserID,
	)
	savedOrg, err := scanOrganization(orgRow)
	if err != nil {
		return OrganizationRecord{}, AdminUserRecord{}, mapWriteError(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return OrganizationRecord{}, AdminUserRecord{}, fmt.Errorf("commit: %w", err)
	}
	return savedOrg, savedAdmin, nil
}

// GetOrganizationByName returns the organization with the exact name.
func (s *DirectoryStore) GetOrganizationByName(ctx context.Context, name string) (OrganizationRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE name = $1`, organizationColumns, s.organizations)
	return scanOrganization(s.pool.QueryRow(ctx, query, name))
}

// GetOrganization returns the organization by id.
func (s *DirectoryStore) GetOrganization(ctx context.Context, id uuid.UUID) (OrganizationRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE org_id = $1`, organizationColumns, s.organizations)
	return scanOrganization(s.pool.QueryRow(ctx, query, id))
}

// UpdateOrganizationNaming repoints name and collection name together.
func (s *DirectoryStore) UpdateOrganizationNaming(ctx context.Context, id uuid.UUID, name, collectionName string) (OrganizationRecord, error) {
	query := fmt.Sprintf(`
        UPDATE %s
        SET name = $1, collection_name = $2, updated_at = NOW()
        WHERE org_id = $3
        RETURNING %s
    `, s.organizations, organizationColumns)

	rec, err := scanOrganization(s.pool.QueryRow(ctx, query, name, collectionName, id))
	if err != nil {
		return OrganizationRecord{}, mapWriteError(err)
	}
	return rec, nil
}

// DeleteOrganizationCascade removes every admin identity bound to the organization and then the
// organization itself, in one transaction. It returns the number of admin rows removed.
func (s *DirectoryStore) DeleteOrganizationCascade(ctx context.Context, id uuid.UUID) (int64, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	admins, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE org_id = $1`, s.adminUsers), id)
	if err != nil {
		return 0, fmt.Errorf("delete admin users: %w", err)
	}

	orgs, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE org_id = $1`, s.organizations), id)
	if err != nil {
		return 0, fmt.Errorf("delete organization: %w", err)
	}
	if orgs.RowsAffected() == 0 {
		return 0, ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return admins.RowsAffected(), nil
}

// GetAdminUser returns an admin identity by id.
func (s *DirectoryStore) GetAdminUser(ctx context.Context, id uuid.UUID) (AdminUserRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE user_id = $1`, adminUserColumns, s.adminUsers)
	return scanAdminUser(s.pool.QueryRow(ctx, query, id))
}

// ListAdminUsersByEmail returns every admin identity using email, oldest first.
// Emails are unique per organization only, so more than one row may match.
func (s *DirectoryStore) ListAdminUsersByEmail(ctx context.Context, email string) ([]AdminUserRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE email = $1 ORDER BY created_at ASC, user_id ASC`, adminUserColumns, s.adminUsers)

	rows, err := s.pool.Query(ctx, query, strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("list admin users: %w", err)
	}
	defer rows.Close()

	var out []AdminUserRecord
	for rows.Next() {
		rec, err := scanAdminUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan admin user: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate admin users: %w", err)
	}
	return out, nil
}

// UpdateAdminCredentials applies the provided email and/or password hash.
func (s *DirectoryStore) UpdateAdminCredentials(ctx context.Context, id uuid.UUID, email, passwordHash *string) (AdminUserRecord, error) {
	setParts := []string{}
	var args []any

	if email != nil {
		args = append(args, strings.TrimSpace(*email))
		setParts = append(setParts, fmt.Sprintf("email = $%d", len(args)))
	}
	if passwordHash != nil {
		args = append(args, *passwordHash)
		setParts = append(setParts, fmt.Sprintf("password_hash = $%d", len(args)))
	}
	if len(setParts) == 0 {
		return AdminUserRecord{}, errors.New("no fields to update")
	}

	args = append(args, id)
	query := fmt.Sprintf(`
        UPDATE %s
        SET %s, updated_at = NOW()
        WHERE user_id = $%d
        RETURNING %s
    `, s.adminUsers, strings.Join(setParts, ", "), len(args), adminUserColumns)

	rec, err := scanAdminUser(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return AdminUserRecord{}, mapWriteError(err)
	}
	return rec, nil
}

func scanOrganization(row pgx.Row) (OrganizationRecord, error) {
	var rec OrganizationRecord
	if err := row.Scan(&rec.OrgID, &rec.Name, &rec.CollectionName, &rec.AdminUserID, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return OrganizationRecord{}, ErrNotFound
		}
		return OrganizationRecord{}, err
	}
	return rec, nil
}

func scanAdminUser(row pgx.Row) (AdminUserRecord, error) {
	var rec AdminUserRecord
	if err := row.Scan(&rec.UserID, &rec.Email, &rec.PasswordHash, &rec.OrgID, &rec.Role, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return AdminUserRecord{}, ErrNotFound
		}
		return AdminUserRecord{}, err
	}
	return rec, nil
}

func mapWriteError(err error) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	return err
}
