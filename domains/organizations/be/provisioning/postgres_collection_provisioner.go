package provisioning

import (
	"context"
	"fmt"

	"github.com/zenGate-Global/palmyra-org-admin/domains/organizations/be/service"
	"github.com/zenGate-Global/palmyra-org-admin/platform/go/persistence"
)

// PostgresCollectionProvisioner keeps one table per organization collection inside the tenant schema.
type PostgresCollectionProvisioner struct {
	store *persistence.CollectionStore
}

func NewPostgresCollectionProvisioner(store *persistence.CollectionStore) *PostgresCollectionProvisioner {
	if store == nil {
		panic("postgres collection provisioner requires store")
	}
	return &PostgresCollectionProvisioner{store: store}
}

func (p *PostgresCollectionProvisioner) Exists(ctx context.Context, collection string) (bool, error) {
	return p.store.Exists(ctx, collection)
}

func (p *PostgresCollectionProvisioner) Ensure(ctx context.Context, collection string) error {
	return p.store.Ensure(ctx, collection)
}

func (p *PostgresCollectionProvisioner) Copy(ctx context.Context, source, destination string) (service.CopyResult, error) {
	stats, err := p.store.Copy(ctx, source, destination)
	result := service.CopyResult{Copied: stats.Copied, Skipped: stats.Skipped, Batches: stats.Batches}
	if err != nil {
		return result, fmt.Errorf("copy %s to %s: %w", source, destination, err)
	}
	return result, nil
}

func (p *PostgresCollectionProvisioner) Drop(ctx context.Context, collection string) error {
	return p.store.Drop(ctx, collection)
}

// Insert writes documents into a collection. Used by seeding tools and tests.
func (p *PostgresCollectionProvisioner) Insert(ctx context.Context, collection string, docs ...persistence.Document) ([]persistence.Document, error) {
	return p.store.Insert(ctx, collection, docs...)
}

// List returns the documents of a collection ordered by id.
func (p *PostgresCollectionProvisioner) List(ctx context.Context, collection string) ([]persistence.Document, error) {
	return p.store.List(ctx, collection)
}

var _ service.CollectionProvisioner = (*PostgresCollectionProvisioner)(nil)
