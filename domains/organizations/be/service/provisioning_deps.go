package service

import (
	"context"
)

// CollectionProvisioner manages the per-organization tenant collection.
// Ensure is mutating/idempotent, Exists is read-only.
type CollectionProvisioner interface {
	Exists(ctx context.Context, collection string) (bool, error)
	Ensure(ctx context.Context, collection string) error
	// Copy moves every document of source into destination, keeping ids. source == destination is a no-op.
	Copy(ctx context.Context, source, destination string) (CopyResult, error)
	Drop(ctx context.Context, collection string) error
}

// CopyResult reports how many documents a copy wrote and how many it skipped because
// the destination already held their id.
type CopyResult struct {
	Copied  int64
	Skipped int64
	Batches int
}

// PasswordHasher hashes admin passwords; raw passwords never leave the service.
type PasswordHasher interface {
	Hash(password string) (string, error)
}
