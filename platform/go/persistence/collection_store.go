package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	sqlassets "github.com/zenGate-Global/palmyra-org-admin/database"
)

// CopyBatchSize bounds how many documents are buffered between reading the source and writing the destination.
const CopyBatchSize = 1000

// Document is one schemaless record of a tenant collection. Fields is stored verbatim.
type Document struct {
	ID        string
	Fields    map[string]any
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CopyStats reports the outcome of a collection copy.
type CopyStats struct {
	Copied  int64
	Skipped int64
	Batches int
}

// storedDocument is the wire shape used when moving rows between tables; Doc stays raw JSON.
type storedDocument struct {
	ID        string          `json:"id"`
	Doc       json.RawMessage `json:"doc"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// CollectionStore manages tenant collections, one table per collection inside the tenant schema.
type CollectionStore struct {
	pool      *pgxpool.Pool
	schema    string
	batchSize int
}

// NewCollectionStore creates a store rooted at tenantSchema; assumes the schema exists.
func NewCollectionStore(pool *pgxpool.Pool, tenantSchema string) (*CollectionStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	schema, err := normalizeIdentifier("tenant schema", tenantSchema)
	if err != nil {
		return nil, err
	}
	return &CollectionStore{pool: pool, schema: schema, batchSize: CopyBatchSize}, nil
}

// WithBatchSize overrides the copy batch size; values below 1 are ignored.
func (s *CollectionStore) WithBatchSize(n int) *CollectionStore {
	if n > 0 {
		s.batchSize = n
	}
	return s
}

// Schema returns the tenant schema the store writes to.
func (s *CollectionStore) Schema() string {
	return s.schema
}

func (s *CollectionStore) table(collection string) (string, error) {
	name, err := normalizeIdentifier("collection", collection)
	if err != nil {
		return "", err
	}
	return qualifiedTable(s.schema, name), nil
}

// Exists reports whether the collection table is present in the tenant schema.
func (s *CollectionStore) Exists(ctx context.Context, collection string) (bool, error) {
	name, err := normalizeIdentifier("collection", collection)
	if err != nil {
		return false, err
	}

	var exists bool
	if err := s.pool.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT 1
            FROM pg_class c
            JOIN pg_namespace n ON n.oid = c.relnamespace
            WHERE n.nspname = $1 AND c.relname = $2 AND c.relkind IN ('r', 'p')
        )`, s.schema, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("check collection: %w", err)
	}
	return exists, nil
}

// Ensure creates the collection table if it is missing. It is idempotent.
func (s *CollectionStore) Ensure(ctx context.Context, collection string) error {
	table, err := s.table(collection)
	if err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, fmt.Sprintf(sqlassets.CollectionTableSQL, table)); err != nil {
		return fmt.Errorf("create collection %s: %w", collection, err)
	}
	return nil
}

// Drop removes the collection table. A missing collection yields ErrNotFound.
func (s *CollectionStore) Drop(ctx context.Context, collection string) error {
	table, err := s.table(collection)
	if err != nil {
		return err
	}
	if _, err := s.pool.Exec(ctx, "DROP TABLE "+table); err != nil {
		if isUndefinedTable(err) {
			return fmt.Errorf("drop collection %s: %w", collection, ErrNotFound)
		}
		return fmt.Errorf("drop collection %s: %w", collection, err)
	}
	return nil
}

// Insert stores documents in the collection. Documents without an id receive a new UUID.
func (s *CollectionStore) Insert(ctx context.Context, collection string, docs ...Document) ([]Document, error) {
	table, err := s.table(collection)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	query := fmt.Sprintf(`
        INSERT INTO %s (id, doc)
        VALUES ($1, $2::jsonb)
        RETURNING id, doc, created_at, updated_at
    `, table)

	out := make([]Document, 0, len(docs))
	for _, doc := range docs {
		id := doc.ID
		if id == "" {
			id = uuid.NewString()
		} else if id, err = NormalizeDocumentID(id); err != nil {
			return nil, err
		}

		fields := doc.Fields
		if fields == nil {
			fields = map[string]any{}
		}
		payload, err := json.Marshal(fields)
		if err != nil {
			return nil, fmt.Errorf("encode document %s: %w", id, err)
		}

		saved, err := scanDocument(tx.QueryRow(ctx, query, id, string(payload)))
		if err != nil {
			if isUniqueViolation(err) {
				return nil, fmt.Errorf("insert document %s: %w", id, ErrConflict)
			}
			return nil, fmt.Errorf("insert document %s: %w", id, err)
		}
		out = append(out, saved)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return out, nil
}

// List returns every document of the collection ordered by id.
func (s *CollectionStore) List(ctx context.Context, collection string) ([]Document, error) {
	table, err := s.table(collection)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, fmt.Sprintf(`SELECT id, doc, created_at, updated_at FROM %s ORDER BY id`, table))
	if err != nil {
		if isUndefinedTable(err) {
			return nil, fmt.Errorf("list collection %s: %w", collection, ErrNotFound)
		}
		return nil, fmt.Errorf("list collection %s: %w", collection, err)
	}
	defer rows.Close()

	docs := make([]Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

// Copy moves every document of source into destination, keeping ids and timestamps.
// The source is read in id order one page of the configured batch size at a time, and each
// page is written before the next is fetched, so a copy never holds more than one pooled
// connection. A row whose id already exists in destination is skipped without failing the
// rest of its batch. A missing source copies nothing. The source is left untouched.
// On error, batches already written stay in destination.
func (s *CollectionStore) Copy(ctx context.Context, source, destination string) (CopyStats, error) {
	if source == destination {
		return CopyStats{}, nil
	}
	srcTable, err := s.table(source)
	if err != nil {
		return CopyStats{}, err
	}
	dstTable, err := s.table(destination)
	if err != nil {
		return CopyStats{}, err
	}

	query := fmt.Sprintf(`SELECT id, doc, created_at, updated_at FROM %s WHERE id > $1 ORDER BY id LIMIT $2`, srcTable)

	var (
		stats CopyStats
		last  string
	)
	for {
		page, err := s.readPage(ctx, query, last)
		if err != nil {
			if isUndefinedTable(err) && stats.Batches == 0 {
				return stats, nil
			}
			return stats, fmt.Errorf("read source %s: %w", source, err)
		}
		if len(page) == 0 {
			return stats, nil
		}
		if err := s.insertBatch(ctx, dstTable, page, &stats); err != nil {
			return stats, err
		}
		if len(page) < s.batchSize {
			return stats, nil
		}
		last = page[len(page)-1].ID
	}
}

func (s *CollectionStore) readPage(ctx context.Context, query, after string) ([]storedDocument, error) {
	rows, err := s.pool.Query(ctx, query, after, s.batchSize)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (storedDocument, error) {
		var (
			doc storedDocument
			raw []byte
		)
		if err := row.Scan(&doc.ID, &raw, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return storedDocument{}, err
		}
		doc.Doc = json.RawMessage(raw)
		return doc, nil
	})
}

func (s *CollectionStore) insertBatch(ctx context.Context, table string, batch []storedDocument, stats *CopyStats) error {
	payload, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("encode batch: %w", err)
	}

	tag, err := s.pool.Exec(ctx, fmt.Sprintf(`
        INSERT INTO %s (id, doc, created_at, updated_at)
        SELECT e->>'id', e->'doc', (e->>'created_at')::timestamptz, (e->>'updated_at')::timestamptz
        FROM jsonb_array_elements($1::jsonb) AS e
        ON CONFLICT (id) DO NOTHING
    `, table), string(payload))
	if err != nil {
		return fmt.Errorf("write batch %d: %w", stats.Batches+1, err)
	}

	stats.Batches++
	stats.Copied += tag.RowsAffected()
	stats.Skipped += int64(len(batch)) - tag.RowsAffected()
	return nil
}

func scanDocument(row pgx.Row) (Document, error) {
	var (
		doc Document
		raw []byte
	)
	if err := row.Scan(&doc.ID, &raw, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
		return Document{}, err
	}
	doc.Fields = map[string]any{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &doc.Fields); err != nil {
			return Document{}, fmt.Errorf("decode document %s: %w", doc.ID, err)
		}
	}
	return doc, nil
}
