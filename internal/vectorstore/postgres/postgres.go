package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sgultrafix/trafix-rag-agent/internal/entity"
	"github.com/sgultrafix/trafix-rag-agent/internal/vectorstore"
)

// Index persists one modality's entries in Postgres. Each replacing upload
// writes a new generation inside a single transaction, so concurrent readers
// see either the previous or the new generation in full. Similarity is
// ranked in Go after a generation-consistent read; exact search over a
// single-document corpus stays small enough that this is not a bottleneck.
type Index struct {
	pool     *pgxpool.Pool
	modality entity.Modality
}

func New(pool *pgxpool.Pool, modality entity.Modality) *Index {
	return &Index{pool: pool, modality: modality}
}

const selectActiveSQL = `
SELECT e.id, e.content, e.embedding, e.metadata
FROM rag_entries e
JOIN rag_generations g ON g.modality = e.modality AND g.generation = e.generation
WHERE e.modality = $1
ORDER BY e.position`

func (idx *Index) Upsert(ctx context.Context, entries []entity.EmbeddedEntry) error {
	if len(entries) == 0 {
		return nil
	}
	if err := checkDimensions(entries); err != nil {
		return err
	}

	return pgx.BeginFunc(ctx, idx.pool, func(tx pgx.Tx) error {
		var generation uint64
		err := tx.QueryRow(ctx, `
			INSERT INTO rag_generations (modality, generation) VALUES ($1, 0)
			ON CONFLICT (modality) DO UPDATE SET generation = rag_generations.generation
			RETURNING generation`, idx.modality).Scan(&generation)
		if err != nil {
			return fmt.Errorf("resolve generation: %w", err)
		}

		var position int
		err = tx.QueryRow(ctx, `
			SELECT COALESCE(MAX(position)+1, 0) FROM rag_entries
			WHERE modality = $1 AND generation = $2`, idx.modality, generation).Scan(&position)
		if err != nil {
			return fmt.Errorf("resolve position: %w", err)
		}

		return idx.insertEntries(ctx, tx, generation, position, entries)
	})
}

func (idx *Index) Query(ctx context.Context, vector []float32, k int) ([]entity.EmbeddedEntry, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: got %d", entity.ErrInvalidTopK, k)
	}

	snapshot, err := idx.loadActive(ctx)
	if err != nil {
		return nil, err
	}
	if len(snapshot) == 0 {
		return nil, nil
	}
	if len(vector) != len(snapshot[0].Vector) {
		return nil, fmt.Errorf("%w: query dimension %d, index dimension %d",
			entity.ErrIndexCorrupted, len(vector), len(snapshot[0].Vector))
	}

	type scored struct {
		pos   int
		score float64
	}
	ranked := make([]scored, len(snapshot))
	for i := range snapshot {
		ranked[i] = scored{pos: i, score: vectorstore.Cosine(vector, snapshot[i].Vector)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if k > len(ranked) {
		k = len(ranked)
	}
	result := make([]entity.EmbeddedEntry, 0, k)
	for i := 0; i < k; i++ {
		result = append(result, snapshot[ranked[i].pos])
	}
	return result, nil
}

func (idx *Index) ReplaceAll(ctx context.Context, entries []entity.EmbeddedEntry) error {
	if err := checkDimensions(entries); err != nil {
		return err
	}

	return pgx.BeginFunc(ctx, idx.pool, func(tx pgx.Tx) error {
		var generation uint64
		err := tx.QueryRow(ctx, `
			INSERT INTO rag_generations (modality, generation) VALUES ($1, 1)
			ON CONFLICT (modality) DO UPDATE SET generation = rag_generations.generation + 1
			RETURNING generation`, idx.modality).Scan(&generation)
		if err != nil {
			return fmt.Errorf("bump generation: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM rag_entries WHERE modality = $1`, idx.modality); err != nil {
			return fmt.Errorf("drop previous generation: %w", err)
		}

		return idx.insertEntries(ctx, tx, generation, 0, entries)
	})
}

func (idx *Index) Len(ctx context.Context) (int, error) {
	var count int
	err := idx.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM rag_entries e
		JOIN rag_generations g ON g.modality = e.modality AND g.generation = e.generation
		WHERE e.modality = $1`, idx.modality).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return count, nil
}

func (idx *Index) Snapshot(ctx context.Context) ([]entity.EmbeddedEntry, error) {
	return idx.loadActive(ctx)
}

func (idx *Index) loadActive(ctx context.Context) ([]entity.EmbeddedEntry, error) {
	rows, err := idx.pool.Query(ctx, selectActiveSQL, idx.modality)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}
	defer rows.Close()

	var entries []entity.EmbeddedEntry
	for rows.Next() {
		var (
			e        entity.EmbeddedEntry
			id       uuid.UUID
			metaJSON []byte
		)
		if err := rows.Scan(&id, &e.Text, &e.Vector, &metaJSON); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.ID = id
		if len(metaJSON) > 0 {
			if err := json.Unmarshal(metaJSON, &e.Metadata); err != nil {
				return nil, fmt.Errorf("%w: bad metadata for entry %s: %v", entity.ErrIndexCorrupted, id, err)
			}
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

func (idx *Index) insertEntries(ctx context.Context, tx pgx.Tx, generation uint64, basePosition int, entries []entity.EmbeddedEntry) error {
	for i, e := range entries {
		metaJSON, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO rag_entries (id, modality, generation, position, content, embedding, metadata)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			e.ID, idx.modality, generation, basePosition+i, e.Text, e.Vector, metaJSON)
		if err != nil {
			return fmt.Errorf("insert entry %s: %w", e.ID, err)
		}
	}
	return nil
}

func checkDimensions(entries []entity.EmbeddedEntry) error {
	dim := 0
	for _, e := range entries {
		if len(e.Vector) == 0 {
			return fmt.Errorf("%w: entry %s has empty vector", entity.ErrIndexCorrupted, e.ID)
		}
		if dim == 0 {
			dim = len(e.Vector)
		}
		if len(e.Vector) != dim {
			return fmt.Errorf("%w: entry %s has dimension %d, index dimension %d",
				entity.ErrIndexCorrupted, e.ID, len(e.Vector), dim)
		}
	}
	return nil
}
