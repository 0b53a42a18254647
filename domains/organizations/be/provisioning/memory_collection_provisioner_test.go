package provisioning

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zenGate-Global/palmyra-org-admin/platform/go/persistence"
)

func TestMemoryProvisionerEnsureIsIdempotent(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryCollectionProvisioner()

	exists, err := p.Exists(ctx, "org_acme_inc")
	require.NoError(t, err)
	require.False(t, exists)

	require.NoError(t, p.Ensure(ctx, "org_acme_inc"))
	_, err = p.Insert(ctx, "org_acme_inc", persistence.Document{ID: "a", Fields: map[string]any{"k": "v"}})
	require.NoError(t, err)
	require.NoError(t, p.Ensure(ctx, "org_acme_inc"))

	docs, err := p.List(ctx, "org_acme_inc")
	require.NoError(t, err)
	require.Len(t, docs, 1)
}

func TestMemoryProvisionerCopyBatchesAndPreservesIDs(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryCollectionProvisioner().WithBatchSize(7)
	require.NoError(t, p.Ensure(ctx, "org_acme_inc"))
	require.NoError(t, p.Ensure(ctx, "org_acme_corp"))

	docs := make([]persistence.Document, 0, 25)
	for i := range 25 {
		docs = append(docs, persistence.Document{ID: fmt.Sprintf("doc-%02d", i), Fields: map[string]any{"n": float64(i)}})
	}
	_, err := p.Insert(ctx, "org_acme_inc", docs...)
	require.NoError(t, err)

	result, err := p.Copy(ctx, "org_acme_inc", "org_acme_corp")
	require.NoError(t, err)
	require.EqualValues(t, 25, result.Copied)
	require.Zero(t, result.Skipped)
	require.Equal(t, 4, result.Batches)

	src, err := p.List(ctx, "org_acme_inc")
	require.NoError(t, err)
	dst, err := p.List(ctx, "org_acme_corp")
	require.NoError(t, err)
	require.Equal(t, src, dst)
}

func TestMemoryProvisionerCopySkipsExistingIDs(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryCollectionProvisioner()
	require.NoError(t, p.Ensure(ctx, "org_src"))
	require.NoError(t, p.Ensure(ctx, "org_dst"))

	_, err := p.Insert(ctx, "org_src",
		persistence.Document{ID: "a", Fields: map[string]any{"from": "src"}},
		persistence.Document{ID: "b", Fields: map[string]any{"from": "src"}},
	)
	require.NoError(t, err)
	_, err = p.Insert(ctx, "org_dst", persistence.Document{ID: "a", Fields: map[string]any{"from": "dst"}})
	require.NoError(t, err)

	result, err := p.Copy(ctx, "org_src", "org_dst")
	require.NoError(t, err)
	require.EqualValues(t, 1, result.Copied)
	require.EqualValues(t, 1, result.Skipped)

	dst, err := p.List(ctx, "org_dst")
	require.NoError(t, err)
	require.Len(t, dst, 2)
	require.Equal(t, "dst", dst[0].Fields["from"])
	require.Equal(t, "src", dst[1].Fields["from"])
}

func TestMemoryProvisionerCopyIsolatesDocuments(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryCollectionProvisioner()
	require.NoError(t, p.Ensure(ctx, "org_src"))
	require.NoError(t, p.Ensure(ctx, "org_dst"))

	_, err := p.Insert(ctx, "org_src", persistence.Document{ID: "a", Fields: map[string]any{"tags": []any{"x"}}})
	require.NoError(t, err)
	_, err = p.Copy(ctx, "org_src", "org_dst")
	require.NoError(t, err)

	dst, err := p.List(ctx, "org_dst")
	require.NoError(t, err)
	dst[0].Fields["tags"].([]any)[0] = "mutated"

	src, err := p.List(ctx, "org_src")
	require.NoError(t, err)
	require.Equal(t, "x", src[0].Fields["tags"].([]any)[0])
}

func TestMemoryProvisionerCopyEdgeCases(t *testing.T) {
	ctx := context.Background()
	p := NewMemoryCollectionProvisioner()
	require.NoError(t, p.Ensure(ctx, "org_src"))

	result, err := p.Copy(ctx, "org_src", "org_src")
	require.NoError(t, err)
	require.Zero(t, result.Batches)

	result, err = p.Copy(ctx, "org_missing", "org_src")
	require.NoError(t, err)
	require.Zero(t, result)

	_, err = p.Copy(ctx, "org_src", "org_missing")
	require.ErrorIs(t, err, persistence.ErrNotFound)

	require.NoError(t, p.Drop(ctx, "org_src"))
	require.ErrorIs(t, p.Drop(ctx, "org_src"), persistence.ErrNotFound)
}
