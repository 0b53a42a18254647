package repo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zenGate-Global/palmyra-org-admin/domains/organizations/be/service"
)

// MemoryRepository is a simple in-memory implementation suitable for tests and local development.
type MemoryRepository struct {
	mu           sync.RWMutex
	byID         map[uuid.UUID]service.Organization
	byName       map[string]uuid.UUID
	byCollection map[string]uuid.UUID
	admins       map[uuid.UUID]service.AdminIdentity
	now          func() time.Time
}

// NewMemoryRepository constructs a MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:         make(map[uuid.UUID]service.Organization),
		byName:       make(map[string]uuid.UUID),
		byCollection: make(map[string]uuid.UUID),
		admins:       make(map[uuid.UUID]service.AdminIdentity),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryRepository) CreateWithAdmin(ctx context.Context, org service.Organization, admin service.AdminIdentity) (service.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[org.Name]; exists {
		return service.Organization{}, service.ErrNameTaken
	}
	if _, exists := r.byCollection[org.CollectionName]; exists {
		return service.Organization{}, service.ErrCollectionExists
	}

	now := r.now()
	admin.CreatedAt, admin.UpdatedAt = now, now
	org.CreatedAt, org.UpdatedAt = now, now
	org.Admin = nil

	r.admins[admin.ID] = admin
	r.byID[org.ID] = org
	r.byName[org.Name] = org.ID
	r.byCollection[org.CollectionName] = org.ID

	out := org
	out.Admin = &admin
	return out, nil
}

func (r *MemoryRepository) FindByName(ctx context.Context, name string) (service.Organization, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byName[name]
	if !ok {
		return service.Organization{}, service.ErrNotFound
	}
	return r.byID[id], nil
}

func (r *MemoryRepository) Get(ctx context.Context, id uuid.UUID) (service.Organization, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	org, ok := r.byID[id]
	if !ok {
		return service.Organization{}, service.ErrNotFound
	}
	return org, nil
}

func (r *MemoryRepository) GetAdmin(ctx context.Context, id uuid.UUID) (service.AdminIdentity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	admin, ok := r.admins[id]
	if !ok {
		return service.AdminIdentity{}, service.ErrAdminNotFound
	}
	return admin, nil
}

func (r *MemoryRepository) ListAdminsByEmail(ctx context.Context, email string) ([]service.AdminIdentity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []service.AdminIdentity
	for _, admin := range r.admins {
		if admin.Email == email {
			out = append(out, admin)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepository) UpdateAdminCredentials(ctx context.Context, id uuid.UUID, email, passwordHash *string) (service.AdminIdentity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	admin, ok := r.admins[id]
	if !ok {
		return service.AdminIdentity{}, service.ErrAdminNotFound
	}

	if email != nil {
		for otherID, other := range r.admins {
			if otherID != id && other.OrgID == admin.OrgID && other.Email == *email {
				return service.AdminIdentity{}, service.ErrAdminEmailTaken
			}
		}
		admin.Email = *email
	}
	if passwordHash != nil {
		admin.PasswordHash = *passwordHash
	}
	admin.UpdatedAt = r.now()

	r.admins[id] = admin
	return admin, nil
}

func (r *MemoryRepository) UpdateNaming(ctx context.Context, id uuid.UUID, name, collectionName string) (service.Organization, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	org, ok := r.byID[id]
	if !ok {
		return service.Organization{}, service.ErrNotFound
	}
	if other, exists := r.byName[name]; exists && other != id {
		return service.Organization{}, service.ErrNewNameTaken
	}
	if other, exists := r.byCollection[collectionName]; exists && other != id {
		return service.Organization{}, service.ErrTargetCollectionTaken
	}

	delete(r.byName, org.Name)
	delete(r.byCollection, org.CollectionName)

	org.Name = name
	org.CollectionName = collectionName
	org.UpdatedAt = r.now()

	r.byID[id] = org
	r.byName[name] = id
	r.byCollection[collectionName] = id
	return org, nil
}

func (r *MemoryRepository) DeleteCascade(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	org, ok := r.byID[id]
	if !ok {
		return service.ErrNotFound
	}

	for adminID, admin := range r.admins {
		if admin.OrgID == id {
			delete(r.admins, adminID)
		}
	}
	delete(r.byID, id)
	delete(r.byName, org.Name)
	delete(r.byCollection, org.CollectionName)
	return nil
}

// Ensure interface compliance.
var _ service.Repository = (*MemoryRepository)(nil)
