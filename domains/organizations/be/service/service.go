package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zenGate-Global/palmyra-org-admin/platform/go/apperrors"
	platformlogging "github.com/zenGate-Global/palmyra-org-admin/platform/go/logging"
	"github.com/zenGate-Global/palmyra-org-admin/platform/go/persistence"
	"github.com/zenGate-Global/palmyra-org-admin/platform/go/requesttrace"
)

// RoleAdmin is the role of the identity that owns an organization.
const RoleAdmin = "admin"

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// Organization is a directory entry. Admin is nil when the bound identity could not be loaded.
type Organization struct {
	ID             uuid.UUID
	Name           string
	CollectionName string
	AdminUserID    uuid.UUID
	Admin          *AdminIdentity
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// AdminIdentity is an admin credential bound to exactly one organization.
type AdminIdentity struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	OrgID        uuid.UUID
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateInput represents the request to register an organization with its admin.
type CreateInput struct {
	OrganizationName string
	Email            string
	Password         string
}

// UpdateInput carries optional credential and naming changes. Empty strings mean "unchanged".
type UpdateInput struct {
	OrganizationName    string
	Email               string
	Password            string
	NewOrganizationName string
}

// Actor is the authenticated identity performing a privileged operation.
type Actor struct {
	UserID uuid.UUID
	Role   string
}

// Repository abstracts the organization directory and admin identity store.
type Repository interface {
	// CreateWithAdmin persists admin then organization; neither exists if it fails.
	CreateWithAdmin(ctx context.Context, org Organization, admin AdminIdentity) (Organization, error)
	FindByName(ctx context.Context, name string) (Organization, error)
	Get(ctx context.Context, id uuid.UUID) (Organization, error)
	GetAdmin(ctx context.Context, id uuid.UUID) (AdminIdentity, error)
	ListAdminsByEmail(ctx context.Context, email string) ([]AdminIdentity, error)
	UpdateAdminCredentials(ctx context.Context, id uuid.UUID, email, passwordHash *string) (AdminIdentity, error)
	UpdateNaming(ctx context.Context, id uuid.UUID, name, collectionName string) (Organization, error)
	// DeleteCascade removes every admin of the organization and then the organization.
	DeleteCascade(ctx context.Context, id uuid.UUID) error
}

// Service orchestrates the organization lifecycle.
type Service struct {
	repo        Repository
	provisioner CollectionProvisioner
	hasher      PasswordHasher
}

// New constructs a Service with required dependencies.
func New(repo Repository, provisioner CollectionProvisioner, hasher PasswordHasher) *Service {
	if repo == nil {
		panic("organizations repo is required")
	}
	if provisioner == nil {
		panic("collection provisioner is required")
	}
	if hasher == nil {
		panic("password hasher is required")
	}
	return &Service{repo: repo, provisioner: provisioner, hasher: hasher}
}

// Create registers an organization, provisions its empty collection, and binds a new admin identity.
func (s *Service) Create(ctx context.Context, input CreateInput) (Organization, error) {
	name := strings.TrimSpace(input.OrganizationName)
	email := strings.TrimSpace(input.Email)
	if name == "" || email == "" || input.Password == "" {
		return Organization{}, ErrCreateFieldsRequired
	}
	if len(input.Password) > MaxPasswordBytes {
		return Organization{}, ErrPasswordTooLong
	}

	if _, err := s.repo.FindByName(ctx, name); err == nil {
		return Organization{}, ErrNameTaken
	} else if !errors.Is(err, ErrNotFound) {
		return Organization{}, apperrors.Internal("find organization", err)
	}

	collection, ok := persistence.CollectionName(name)
	if !ok {
		return Organization{}, ErrInvalidName
	}

	exists, err := s.provisioner.Exists(ctx, collection)
	if err != nil {
		return Organization{}, apperrors.Internal("check collection", err)
	}
	if exists {
		return Organization{}, ErrCollectionExists
	}

	if err := s.provisioner.Ensure(ctx, collection); err != nil {
		return Organization{}, apperrors.Internal("provision collection", err)
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		s.discardCollection(ctx, collection)
		return Organization{}, apperrors.Internal("hash password", err)
	}

	// The organization references the admin id allocated here, before either row is written.
	orgID := uuid.New()
	admin := AdminIdentity{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		OrgID:        orgID,
		Role:         RoleAdmin,
	}
	org := Organization{
		ID:             orgID,
		Name:           name,
		CollectionName: collection,
		AdminUserID:    admin.ID,
	}

	created, err := s.repo.CreateWithAdmin(ctx, org, admin)
	if err != nil {
		s.discardCollection(ctx, collection)
		if errors.Is(err, apperrors.ErrConflict) {
			return Organization{}, err
		}
		return Organization{}, apperrors.Internal("persist organization", err)
	}

	s.logger(ctx).Info("organization created",
		zap.String("org_id", created.ID.String()),
		zap.String("collection", created.CollectionName),
	)
	return created, nil
}

// Lookup returns the organization with its admin projection.
func (s *Service) Lookup(ctx context.Context, name string) (Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Organization{}, ErrNameRequired
	}

	org, err := s.repo.FindByName(ctx, name)
	if err != nil {
		return Organization{}, classifyLookup(err)
	}
	return s.withAdmin(ctx, org)
}

// Update applies credential changes and, when the name changes, migrates the tenant collection.
// The steps are persisted independently: credentials first, then collection provision and copy,
// then the directory repoint. The organization is only repointed once the new collection is populated.
func (s *Service) Update(ctx context.Context, input UpdateInput) (Organization, error) {
	name := strings.TrimSpace(input.OrganizationName)
	if name == "" {
		return Organization{}, ErrNameRequired
	}
	if len(input.Password) > MaxPasswordBytes {
		return Organization{}, ErrPasswordTooLong
	}

	org, err := s.repo.FindByName(ctx, name)
	if err != nil {
		return Organization{}, classifyLookup(err)
	}

	email := strings.TrimSpace(input.Email)
	if email != "" || input.Password != "" {
		if err := s.updateCredentials(ctx, org, email, input.Password); err != nil {
			return Organization{}, err
		}
	}

	newName := strings.TrimSpace(input.NewOrganizationName)
	if newName != "" && newName != org.Name {
		if err := s.rename(ctx, org, newName); err != nil {
			return Organization{}, err
		}
	}

	fresh, err := s.repo.Get(ctx, org.ID)
	if err != nil {
		return Organization{}, apperrors.Internal("reload organization", err)
	}
	return s.withAdmin(ctx, fresh)
}

// Delete removes the organization, its admin identities, and its collection. Only the
// organization's own admin may delete it. A failed collection drop is logged and ignored.
func (s *Service) Delete(ctx context.Context, name string, actor *Actor) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrNameRequired
	}
	if actor == nil || actor.Role != RoleAdmin {
		return "", ErrAdminRoleRequired
	}

	org, err := s.repo.FindByName(ctx, name)
	if err != nil {
		return "", classifyLookup(err)
	}
	if org.AdminUserID != actor.UserID {
		return "", ErrNotOrganizationAdmin
	}

	logger := s.logger(ctx).With(zap.String("org_id", org.ID.String()), zap.String("collection", org.CollectionName))
	if err := s.provisioner.Drop(ctx, org.CollectionName); err != nil {
		logger.Warn("collection drop failed; continuing with delete", zap.Error(err))
	}

	if err := s.repo.DeleteCascade(ctx, org.ID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrNotFound
		}
		return "", apperrors.Internal("delete organization", err)
	}

	logger.Info("organization deleted")
	return name, nil
}

func (s *Service) updateCredentials(ctx context.Context, org Organization, email, password string) error {
	if _, err := s.repo.GetAdmin(ctx, org.AdminUserID); err != nil {
		if errors.Is(err, ErrAdminNotFound) {
			return apperrors.Internal("Admin user missing for organization", err)
		}
		return apperrors.Internal("load admin", err)
	}

	var emailPtr, hashPtr *string
	if email != "" {
		emailPtr = &email
	}
	if password != "" {
		hash, err := s.hasher.Hash(password)
		if err != nil {
			return apperrors.Internal("hash password", err)
		}
		hashPtr = &hash
	}

	if _, err := s.repo.UpdateAdminCredentials(ctx, org.AdminUserID, emailPtr, hashPtr); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return err
		}
		return apperrors.Internal("update admin credentials", err)
	}
	s.logger(ctx).Info("admin credentials updated",
		zap.String("org_id", org.ID.String()),
		zap.Bool("email_changed", emailPtr != nil),
		zap.Bool("password_changed", hashPtr != nil),
	)
	return nil
}

func (s *Service) rename(ctx context.Context, org Organization, newName string) error {
	if _, err := s.repo.FindByName(ctx, newName); err == nil {
		return ErrNewNameTaken
	} else if !errors.Is(err, ErrNotFound) {
		return apperrors.Internal("find organization", err)
	}

	collection, ok := persistence.CollectionName(newName)
	if !ok {
		return ErrInvalidNewName
	}

	if collection != org.CollectionName {
		exists, err := s.provisioner.Exists(ctx, collection)
		if err != nil {
			return apperrors.Internal("check collection", err)
		}
		if exists {
			return ErrTargetCollectionTaken
		}
		if err := s.provisioner.Ensure(ctx, collection); err != nil {
			return apperrors.Internal("provision collection", err)
		}
		result, err := s.provisioner.Copy(ctx, org.CollectionName, collection)
		if err != nil {
			return apperrors.Internal("copy collection", err)
		}
		s.logger(ctx).Info("collection migrated",
			zap.String("org_id", org.ID.String()),
			zap.String("from", org.CollectionName),
			zap.String("to", collection),
			zap.Int64("copied", result.Copied),
			zap.Int64("skipped", result.Skipped),
			zap.Int("batches", result.Batches),
		)
	}

	if _, err := s.repo.UpdateNaming(ctx, org.ID, newName, collection); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return err
		}
		return apperrors.Internal("rename organization", err)
	}
	return nil
}

func (s *Service) withAdmin(ctx context.Context, org Organization) (Organization, error) {
	admin, err := s.repo.GetAdmin(ctx, org.AdminUserID)
	switch {
	case err == nil:
		org.Admin = &admin
	case errors.Is(err, ErrAdminNotFound):
		s.logger(ctx).Warn("organization references a missing admin", zap.String("org_id", org.ID.String()))
	default:
		return Organization{}, apperrors.Internal("load admin", err)
	}
	return org, nil
}

// discardCollection undoes a provision that will not be referenced by any organization.
func (s *Service) discardCollection(ctx context.Context, collection string) {
	if err := s.provisioner.Drop(ctx, collection); err != nil {
		s.logger(ctx).Warn("drop unreferenced collection", zap.String("collection", collection), zap.Error(err))
	}
}

func (s *Service) logger(ctx context.Context) *zap.Logger {
	return platformlogging.FromContextOrNop(ctx).With(requesttrace.FromContextOrAnonymous(ctx).Fields()...)
}

func classifyLookup(err error) error {
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	return apperrors.Internal("find organization", err)
}
