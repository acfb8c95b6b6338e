package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/sortinghat/internal/core"
)

const createRunsTable = `
CREATE TABLE IF NOT EXISTS inference_runs (
	id          UUID PRIMARY KEY,
	source      TEXT NOT NULL,
	classifier  TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL,
	duration_ms BIGINT NOT NULL,
	row_count   INTEGER NOT NULL,
	column_count INTEGER NOT NULL,
	codes       JSONB NOT NULL,
	metadata    JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS inference_runs_created_at_idx ON inference_runs (created_at DESC);`

// RunStore persists inference runs in the inference_runs table.
type RunStore struct {
	db DBTX
}

// NewRunStore creates a RunStore. Call Migrate before first use.
func NewRunStore(db DBTX) *RunStore {
	return &RunStore{db: db}
}

// Migrate creates the inference_runs table if it does not exist.
func (s *RunStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, createRunsTable); err != nil {
		return fmt.Errorf("migrate inference_runs: %w", err)
	}
	return nil
}

// SaveRun implements core.RunStore.
func (s *RunStore) SaveRun(ctx context.Context, run *core.Run) error {
	codes, err := json.Marshal(run.Codes)
	if err != nil {
		return fmt.Errorf("marshal codes: %w", err)
	}
	metadata, err := json.Marshal(run.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO inference_runs
			(id, source, classifier, created_at, duration_ms, row_count, column_count, codes, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9::jsonb)
		ON CONFLICT (id) DO NOTHING`,
		toPgUUID(run.ID),
		run.Source,
		run.Classifier,
		pgtype.Timestamptz{Time: run.CreatedAt, Valid: true},
		run.Duration.Milliseconds(),
		run.Rows,
		len(run.Metadata.Features),
		string(codes),
		string(metadata),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// GetRun implements core.RunStore.
func (s *RunStore) GetRun(ctx context.Context, id uuid.UUID) (*core.Run, error) {
	var (
		pgID       pgtype.UUID
		createdAt  pgtype.Timestamptz
		durationMS int64
		codes      string
		metadata   string
		run        core.Run
	)
	err := s.db.QueryRow(ctx, `
		SELECT id, source, classifier, created_at, duration_ms, row_count, codes::text, metadata::text
		FROM inference_runs WHERE id = $1`, toPgUUID(id),
	).Scan(&pgID, &run.Source, &run.Classifier, &createdAt, &durationMS, &run.Rows, &codes, &metadata)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}

	run.ID = uuid.UUID(pgID.Bytes)
	run.CreatedAt = createdAt.Time.UTC()
	run.Duration = time.Duration(durationMS) * time.Millisecond

	if err := json.Unmarshal([]byte(codes), &run.Codes); err != nil {
		return nil, fmt.Errorf("decode codes: %w", err)
	}
	run.Metadata = &core.FeatureMetadata{}
	if err := json.Unmarshal([]byte(metadata), run.Metadata); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return &run, nil
}

// ListRuns implements core.RunStore.
func (s *RunStore) ListRuns(ctx context.Context, limit int) ([]core.RunSummary, error) {
	query := `SELECT id, source, classifier, created_at, column_count, row_count
		FROM inference_runs ORDER BY created_at DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	out := make([]core.RunSummary, 0)
	for rows.Next() {
		var (
			sum       core.RunSummary
			pgID      pgtype.UUID
			createdAt pgtype.Timestamptz
		)
		if err := rows.Scan(&pgID, &sum.Source, &sum.Classifier, &createdAt, &sum.Columns, &sum.Rows); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		sum.ID = uuid.UUID(pgID.Bytes)
		sum.CreatedAt = createdAt.Time.UTC()
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return out, nil
}

func toPgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}
