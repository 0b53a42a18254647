package persistence

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCollectionStoreEnsureIsIdempotent(t *testing.T) {
	pool, schemas := mustTestPool(t)
	ctx := context.Background()

	store, err := NewCollectionStore(pool, schemas.Tenant)
	require.NoError(t, err)

	exists, err := store.Exists(ctx, "org_acme_inc")
	require.NoError(t, err)
	require.False(t, exists)

	require.NoError(t, store.Ensure(ctx, "org_acme_inc"))
	require.NoError(t, store.Ensure(ctx, "org_acme_inc"))

	exists, err = store.Exists(ctx, "org_acme_inc")
	require.NoError(t, err)
	require.True(t, exists)

	require.NoError(t, store.Drop(ctx, "org_acme_inc"))
	require.ErrorIs(t, store.Drop(ctx, "org_acme_inc"), ErrNotFound)
}

func TestCollectionStoreRejectsUnsafeNames(t *testing.T) {
	pool, schemas := mustTestPool(t)

	store, err := NewCollectionStore(pool, schemas.Tenant)
	require.NoError(t, err)

	require.Error(t, store.Ensure(context.Background(), `org"; DROP TABLE x; --`))
	require.Error(t, store.Ensure(context.Background(), "Org_Upper"))
}

func TestCollectionStoreCopyPreservesDocuments(t *testing.T) {
	pool, schemas := mustTestPool(t)
	ctx := context.Background()

	// A small batch size forces several flushes, including a partial last batch.
	store, err := NewCollectionStore(pool, schemas.Tenant)
	require.NoError(t, err)
	store.WithBatchSize(7)

	require.NoError(t, store.Ensure(ctx, "org_source"))
	require.NoError(t, store.Ensure(ctx, "org_target"))

	docs := make([]Document, 0, 25)
	for i := 0; i < 25; i++ {
		docs = append(docs, Document{
			ID:     fmt.Sprintf("doc-%02d", i),
			Fields: map[string]any{"n": float64(i), "tags": []any{"a", "b"}, "nested": map[string]any{"ok": true}},
		})
	}
	_, err = store.Insert(ctx, "org_source", docs...)
	require.NoError(t, err)

	before, err := store.List(ctx, "org_source")
	require.NoError(t, err)

	stats, err := store.Copy(ctx, "org_source", "org_target")
	require.NoError(t, err)
	require.EqualValues(t, 25, stats.Copied)
	require.EqualValues(t, 0, stats.Skipped)
	require.Equal(t, 4, stats.Batches)

	after, err := store.List(ctx, "org_target")
	require.NoError(t, err)
	require.Len(t, after, len(before))
	for i := range before {
		require.Equal(t, before[i].ID, after[i].ID)
		require.Equal(t, before[i].Fields, after[i].Fields)
		require.True(t, before[i].CreatedAt.Equal(after[i].CreatedAt))
	}

	// The source is not removed by a copy.
	source, err := store.List(ctx, "org_source")
	require.NoError(t, err)
	require.Len(t, source, 25)
}

func TestCollectionStoreCopySkipsExistingIDs(t *testing.T) {
	pool, schemas := mustTestPool(t)
	ctx := context.Background()

	store, err := NewCollectionStore(pool, schemas.Tenant)
	require.NoError(t, err)

	require.NoError(t, store.Ensure(ctx, "org_a"))
	require.NoError(t, store.Ensure(ctx, "org_b"))

	_, err = store.Insert(ctx, "org_a",
		Document{ID: "1", Fields: map[string]any{"v": "a1"}},
		Document{ID: "2", Fields: map[string]any{"v": "a2"}},
		Document{ID: "3", Fields: map[string]any{"v": "a3"}},
	)
	require.NoError(t, err)
	_, err = store.Insert(ctx, "org_b", Document{ID: "2", Fields: map[string]any{"v": "b2"}})
	require.NoError(t, err)

	stats, err := store.Copy(ctx, "org_a", "org_b")
	require.NoError(t, err)
	require.EqualValues(t, 2, stats.Copied)
	require.EqualValues(t, 1, stats.Skipped)

	docs, err := store.List(ctx, "org_b")
	require.NoError(t, err)
	require.Len(t, docs, 3)
	require.Equal(t, "b2", docs[1].Fields["v"])
}

func TestCollectionStoreCopySameCollectionIsNoop(t *testing.T) {
	pool, schemas := mustTestPool(t)
	ctx := context.Background()

	store, err := NewCollectionStore(pool, schemas.Tenant)
	require.NoError(t, err)
	require.NoError(t, store.Ensure(ctx, "org_same"))
	_, err = store.Insert(ctx, "org_same", Document{ID: "x"})
	require.NoError(t, err)

	stats, err := store.Copy(ctx, "org_same", "org_same")
	require.NoError(t, err)
	require.Equal(t, CopyStats{}, stats)

	docs, err := store.List(ctx, "org_same")
	require.NoError(t, err)
	require.Len(t, docs, 1)
}

func TestCollectionStoreCopyMissingSourceCopiesNothing(t *testing.T) {
	pool, schemas := mustTestPool(t)
	ctx := context.Background()

	store, err := NewCollectionStore(pool, schemas.Tenant)
	require.NoError(t, err)
	require.NoError(t, store.Ensure(ctx, "org_dest"))

	stats, err := store.Copy(ctx, "org_missing", "org_dest")
	require.NoError(t, err)
	require.Equal(t, CopyStats{}, stats)
}

func TestCollectionStoreCopyFitsOneConnection(t *testing.T) {
	pool, schemas := mustTestPoolWithMaxConns(t, 1)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := NewCollectionStore(pool, schemas.Tenant)
	require.NoError(t, err)
	store.WithBatchSize(3)

	const renames = 4
	for i := 0; i < renames; i++ {
		src := fmt.Sprintf("org_src_%d", i)
		require.NoError(t, store.Ensure(ctx, src))
		require.NoError(t, store.Ensure(ctx, fmt.Sprintf("org_dst_%d", i)))
		docs := make([]Document, 0, 10)
		for j := 0; j < 10; j++ {
			docs = append(docs, Document{ID: fmt.Sprintf("doc-%02d", j), Fields: map[string]any{"n": float64(j)}})
		}
		_, err := store.Insert(ctx, src, docs...)
		require.NoError(t, err)
	}

	var wg sync.WaitGroup
	errs := make([]error, renames)
	stats := make([]CopyStats, renames)
	for i := 0; i < renames; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			stats[i], errs[i] = store.Copy(ctx, fmt.Sprintf("org_src_%d", i), fmt.Sprintf("org_dst_%d", i))
		}(i)
	}
	wg.Wait()

	for i := 0; i < renames; i++ {
		require.NoError(t, errs[i])
		require.EqualValues(t, 10, stats[i].Copied)
		require.Equal(t, 4, stats[i].Batches)
	}
}
