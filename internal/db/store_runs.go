package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RunRecord is one row of the ingestion journal.
type RunRecord struct {
	ID           uuid.UUID         `json:"run_id"`
	Status       string            `json:"status"` // running | completed | partial | failed
	TotalScraped int               `json:"total_scraped"`
	Inserted     int               `json:"inserted"`
	Updated      int               `json:"updated"`
	Skipped      int               `json:"skipped"`
	Completed    int64             `json:"completed_events"`
	Sources      map[string]int    `json:"sources"`
	Errors       map[string]string `json:"errors,omitempty"`
	StartedAt    time.Time         `json:"started_at"`
	CompletedAt  *time.Time        `json:"completed_at"`
}

func (s *Store) StartRun(ctx context.Context) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.pool.QueryRow(ctx, "INSERT INTO ingest_runs (status) VALUES ('running') RETURNING run_id").Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create ingest run: %w", err)
	}
	return id, nil
}

func (s *Store) FinishRun(ctx context.Context, run RunRecord) error {
	sources, err := json.Marshal(run.Sources)
	if err != nil {
		return fmt.Errorf("encode run sources: %w", err)
	}
	errs := run.Errors
	if errs == nil {
		errs = map[string]string{}
	}
	errorsRaw, err := json.Marshal(errs)
	if err != nil {
		return fmt.Errorf("encode run errors: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		UPDATE ingest_runs SET
			status = $1,
			total_scraped = $2,
			inserted = $3,
			updated = $4,
			skipped = $5,
			completed_events = $6,
			sources = $7,
			errors = $8,
			completed_at = NOW()
		WHERE run_id = $9`,
		run.Status, run.TotalScraped, run.Inserted, run.Updated, run.Skipped, run.Completed,
		sources, errorsRaw, run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update ingest run %s: %w", run.ID, err)
	}
	return nil
}

func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.pool.Query(ctx, `
		SELECT run_id, status, total_scraped, inserted, updated, skipped, completed_events,
			sources, errors, started_at, completed_at
		FROM ingest_runs
		ORDER BY started_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs failed: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		var sourcesRaw, errorsRaw []byte
		if err := rows.Scan(&r.ID, &r.Status, &r.TotalScraped, &r.Inserted, &r.Updated, &r.Skipped,
			&r.Completed, &sourcesRaw, &errorsRaw, &r.StartedAt, &r.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		_ = json.Unmarshal(sourcesRaw, &r.Sources)
		_ = json.Unmarshal(errorsRaw, &r.Errors)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
