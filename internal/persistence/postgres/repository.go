// Package postgres provides Postgres-backed persistence for runs and their outbox events.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/pacer/internal/domain"
	"example.com/pacer/internal/events"
	"example.com/pacer/internal/observability"
)

const uniqueViolation = "23505"

// Repository provides Postgres-backed persistence for runs and outbox events.
type Repository struct {
	pool  *pgxpool.Pool
	topic string
}

// NewRepository constructs a Repository that records run events for topic.
func NewRepository(pool *pgxpool.Pool, topic string) *Repository {
	return &Repository{pool: pool, topic: topic}
}

// List returns every run ordered newest first.
func (r *Repository) List(ctx context.Context) ([]domain.StoredRun, error) {
	const query = `SELECT run_id, created_at FROM runs ORDER BY created_at DESC, run_id DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]domain.StoredRun, 0)
	for rows.Next() {
		var run domain.StoredRun
		if err := rows.Scan(&run.ID, &run.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// Create persists the run and records its outbox event inside a single transaction.
func (r *Repository) Create(ctx context.Context, run domain.StoredRun) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	_, err = tx.Exec(ctx, `INSERT INTO runs (run_id, created_at) VALUES ($1, $2)`, run.ID, run.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrRunExists
		}
		return err
	}

	if err = r.insertOutbox(ctx, tx, run.ID, events.TypeRunCreated, events.RunCreated{
		RunID:     run.ID,
		CreatedAt: run.CreatedAt,
	}); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return err
	}
	observability.RecordRunPersisted(run.CreatedAt)
	return nil
}

func (r *Repository) insertOutbox(ctx context.Context, tx pgx.Tx, runID, eventType string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	dedupeKey := fmt.Sprintf("%s:%s", runID, eventType)

	const stmt = `INSERT INTO outbox (aggregate_type, aggregate_id, event_type, topic, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`

	_, err = tx.Exec(ctx, stmt,
		"run",
		runID,
		eventType,
		r.topic,
		runID,
		body,
		dedupeKey,
	)
	return err
}
