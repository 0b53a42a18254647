package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/zenGate-Global/palmyra-org-admin/domains/organizations/be/service"
	"github.com/zenGate-Global/palmyra-org-admin/platform/go/persistence"
)

// PostgresRepository implements the organization repository on top of persistence.DirectoryStore.
type PostgresRepository struct {
	store *persistence.DirectoryStore
}

// NewPostgresRepository constructs a repository backed by DirectoryStore.
func NewPostgresRepository(store *persistence.DirectoryStore) *PostgresRepository {
	if store == nil {
		panic("directory store is required")
	}
	return &PostgresRepository{store: store}
}

func (r *PostgresRepository) CreateWithAdmin(ctx context.Context, org service.Organization, admin service.AdminIdentity) (service.Organization, error) {
	savedOrg, savedAdmin, err := r.store.CreateOrganizationWithAdmin(ctx, toOrganizationRecord(org), toAdminRecord(admin))
	if err != nil {
		return service.Organization{}, mapConflict(err, service.ErrNameTaken, service.ErrCollectionExists)
	}
	out := toServiceOrganization(savedOrg)
	a := toServiceAdmin(savedAdmin)
	out.Admin = &a
	return out, nil
}

func (r *PostgresRepository) FindByName(ctx context.Context, name string) (service.Organization, error) {
	rec, err := r.store.GetOrganizationByName(ctx, name)
	if err != nil {
		return service.Organization{}, mapNotFound(err, service.ErrNotFound)
	}
	return toServiceOrganization(rec), nil
}

func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (service.Organization, error) {
	rec, err := r.store.GetOrganization(ctx, id)
	if err != nil {
		return service.Organization{}, mapNotFound(err, service.ErrNotFound)
	}
	return toServiceOrganization(rec), nil
}

func (r *PostgresRepository) GetAdmin(ctx context.Context, id uuid.UUID) (service.AdminIdentity, error) {
	rec, err := r.store.GetAdminUser(ctx, id)
	if err != nil {
		return service.AdminIdentity{}, mapNotFound(err, service.ErrAdminNotFound)
	}
	return toServiceAdmin(rec), nil
}

func (r *PostgresRepository) ListAdminsByEmail(ctx context.Context, email string) ([]service.AdminIdentity, error) {
	recs, err := r.store.ListAdminUsersByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	out := make([]service.AdminIdentity, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toServiceAdmin(rec))
	}
	return out, nil
}

func (r *PostgresRepository) UpdateAdminCredentials(ctx context.Context, id uuid.UUID, email, passwordHash *string) (service.AdminIdentity, error) {
	rec, err := r.store.UpdateAdminCredentials(ctx, id, email, passwordHash)
	if err != nil {
		if errors.Is(err, persistence.ErrConflict) {
			return service.AdminIdentity{}, service.ErrAdminEmailTaken
		}
		return service.AdminIdentity{}, mapNotFound(err, service.ErrAdminNotFound)
	}
	return toServiceAdmin(rec), nil
}

func (r *PostgresRepository) UpdateNaming(ctx context.Context, id uuid.UUID, name, collectionName string) (service.Organization, error) {
	rec, err := r.store.UpdateOrganizationNaming(ctx, id, name, collectionName)
	if err != nil {
		if errors.Is(err, persistence.ErrConflict) {
			return service.Organization{}, mapConflict(err, service.ErrNewNameTaken, service.ErrTargetCollectionTaken)
		}
		return service.Organization{}, mapNotFound(err, service.ErrNotFound)
	}
	return toServiceOrganization(rec), nil
}

func (r *PostgresRepository) DeleteCascade(ctx context.Context, id uuid.UUID) error {
	if _, err := r.store.DeleteOrganizationCascade(ctx, id); err != nil {
		return mapNotFound(err, service.ErrNotFound)
	}
	return nil
}

func toOrganizationRecord(o service.Organization) persistence.OrganizationRecord {
	return persistence.OrganizationRecord{
		OrgID:          o.ID,
		Name:           o.Name,
		CollectionName: o.CollectionName,
		AdminUserID:    o.AdminUserID,
	}
}

func toAdminRecord(a service.AdminIdentity) persistence.AdminUserRecord {
	return persistence.AdminUserRecord{
		UserID:       a.ID,
		Email:        a.Email,
		PasswordHash: a.PasswordHash,
		OrgID:        a.OrgID,
		Role:         a.Role,
	}
}

func toServiceOrganization(rec persistence.OrganizationRecord) service.Organization {
	return service.Organization{
		ID:             rec.OrgID,
		Name:           rec.Name,
		CollectionName: rec.CollectionName,
		AdminUserID:    rec.AdminUserID,
		CreatedAt:      rec.CreatedAt,
		UpdatedAt:      rec.UpdatedAt,
	}
}

func toServiceAdmin(rec persistence.AdminUserRecord) service.AdminIdentity {
	return service.AdminIdentity{
		ID:           rec.UserID,
		Email:        rec.Email,
		PasswordHash: rec.PasswordHash,
		OrgID:        rec.OrgID,
		Role:         rec.Role,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
	}
}

// mapConflict picks the service error matching the violated unique constraint.
func mapConflict(err, nameTaken, collectionTaken error) error {
	if !errors.Is(err, persistence.ErrConflict) {
		return err
	}
	switch persistence.ViolatedConstraint(err) {
	case persistence.ConstraintOrganizationName:
		return nameTaken
	case persistence.ConstraintOrganizationCollection:
		return collectionTaken
	case persistence.ConstraintAdminOrgEmail:
		return service.ErrAdminEmailTaken
	default:
		return nameTaken
	}
}

func mapNotFound(err, notFound error) error {
	if errors.Is(err, persistence.ErrNotFound) {
		return notFound
	}
	return err
}

// Ensure interface compliance.
var _ service.Repository = (*PostgresRepository)(nil)
