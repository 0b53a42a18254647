package provisioning

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zenGate-Global/palmyra-org-admin/domains/organizations/be/service"
	"github.com/zenGate-Global/palmyra-org-admin/platform/go/persistence"
)

// MemoryCollectionProvisioner keeps collections in process memory for local development and tests.
// It follows the same copy rules as the Postgres store: batches, preserved ids, existing ids skipped.
type MemoryCollectionProvisioner struct {
	mu          sync.RWMutex
	collections map[string]map[string]persistence.Document
	batchSize   int
}

func NewMemoryCollectionProvisioner() *MemoryCollectionProvisioner {
	return &MemoryCollectionProvisioner{
		collections: make(map[string]map[string]persistence.Document),
		batchSize:   persistence.CopyBatchSize,
	}
}

// WithBatchSize overrides the copy batch size; values below 1 are ignored.
func (p *MemoryCollectionProvisioner) WithBatchSize(n int) *MemoryCollectionProvisioner {
	if n > 0 {
		p.batchSize = n
	}
	return p
}

func (p *MemoryCollectionProvisioner) Exists(_ context.Context, collection string) (bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.collections[collection]
	return ok, nil
}

func (p *MemoryCollectionProvisioner) Ensure(_ context.Context, collection string) error {
	if collection == "" {
		return fmt.Errorf("collection name is required")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.collections[collection]; !ok {
		p.collections[collection] = make(map[string]persistence.Document)
	}
	return nil
}

func (p *MemoryCollectionProvisioner) Copy(_ context.Context, source, destination string) (service.CopyResult, error) {
	if source == destination {
		return service.CopyResult{}, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	dst, ok := p.collections[destination]
	if !ok {
		return service.CopyResult{}, fmt.Errorf("write destination %s: %w", destination, persistence.ErrNotFound)
	}
	// A missing source copies nothing.
	src := p.collections[source]

	ids := slices.Sorted(maps.Keys(src))

	var result service.CopyResult
	for start := 0; start < len(ids); start += p.batchSize {
		end := min(start+p.batchSize, len(ids))
		for _, id := range ids[start:end] {
			if _, exists := dst[id]; exists {
				result.Skipped++
				continue
			}
			dst[id] = cloneDocument(src[id])
			result.Copied++
		}
		result.Batches++
	}
	return result, nil
}

func (p *MemoryCollectionProvisioner) Drop(_ context.Context, collection string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.collections[collection]; !ok {
		return fmt.Errorf("drop collection %s: %w", collection, persistence.ErrNotFound)
	}
	delete(p.collections, collection)
	return nil
}

// Insert stores documents, assigning a UUID to those without an id.
func (p *MemoryCollectionProvisioner) Insert(_ context.Context, collection string, docs ...persistence.Document) ([]persistence.Document, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	coll, ok := p.collections[collection]
	if !ok {
		return nil, fmt.Errorf("insert into %s: %w", collection, persistence.ErrNotFound)
	}

	now := time.Now().UTC()
	out := make([]persistence.Document, 0, len(docs))
	staged := make(map[string]persistence.Document, len(docs))
	for _, doc := range docs {
		if doc.ID == "" {
			doc.ID = uuid.NewString()
		}
		_, stored := coll[doc.ID]
		_, dup := staged[doc.ID]
		if stored || dup {
			return nil, fmt.Errorf("insert document %s: %w", doc.ID, persistence.ErrConflict)
		}
		doc = cloneDocument(doc)
		if doc.Fields == nil {
			doc.Fields = map[string]any{}
		}
		doc.CreatedAt, doc.UpdatedAt = now, now
		staged[doc.ID] = doc
		out = append(out, cloneDocument(doc))
	}
	maps.Copy(coll, staged)
	return out, nil
}

// List returns the documents of a collection ordered by id.
func (p *MemoryCollectionProvisioner) List(_ context.Context, collection string) ([]persistence.Document, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	coll, ok := p.collections[collection]
	if !ok {
		return nil, fmt.Errorf("list collection %s: %w", collection, persistence.ErrNotFound)
	}
	out := make([]persistence.Document, 0, len(coll))
	for _, id := range slices.Sorted(maps.Keys(coll)) {
		out = append(out, cloneDocument(coll[id]))
	}
	return out, nil
}

func cloneDocument(doc persistence.Document) persistence.Document {
	doc.Fields = cloneValue(doc.Fields).(map[string]any)
	return doc
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if t == nil {
			return map[string]any(nil)
		}
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = cloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

var _ service.CollectionProvisioner = (*MemoryCollectionProvisioner)(nil)
