package persistence

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a record or collection does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates a uniqueness violation (organization name, collection name, admin email).
	ErrConflict = errors.New("record conflict")
)

// Unique constraints of the directory tables, as named in database/schema/platform.
const (
	ConstraintOrganizationName       = "organizations_name_unique"
	ConstraintOrganizationCollection = "organizations_collection_name_unique"
	ConstraintAdminOrgEmail          = "admin_users_org_email_unique"
)

// ViolatedConstraint returns the constraint named by a Postgres error in err's chain, or "".
func ViolatedConstraint(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UndefinedTable
}
