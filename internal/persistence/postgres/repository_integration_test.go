//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/pacer/internal/domain"
	"example.com/pacer/internal/events"
	"example.com/pacer/internal/testsupport"
)

func TestRepositoryCreateRecordsOutboxEvent(t *testing.T) {
	ctx := context.Background()
	pool := testsupport.StartPostgres(ctx, t)
	repo := NewRepository(pool, "run_events")

	older := domain.StoredRun{ID: "2024-01-01 • 5km • 25:00", CreatedAt: time.Now().UTC().Add(-time.Hour)}
	newer := domain.StoredRun{ID: "2024-02-01 • 10km • 50:00", CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.Create(ctx, older))
	require.NoError(t, repo.Create(ctx, newer))

	runs, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, newer.ID, runs[0].ID)
	require.Equal(t, older.ID, runs[1].ID)

	var count int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM outbox WHERE event_type = $1 AND topic = $2 AND published_at IS NULL`,
		events.TypeRunCreated, "run_events").Scan(&count))
	require.Equal(t, 2, count)
}

func TestRepositoryRejectsDuplicateRun(t *testing.T) {
	ctx := context.Background()
	pool := testsupport.StartPostgres(ctx, t)
	repo := NewRepository(pool, "run_events")

	run := domain.StoredRun{ID: "srv-123", CreatedAt: time.Now().UTC()}
	require.NoError(t, repo.Create(ctx, run))
	require.ErrorIs(t, repo.Create(ctx, run), domain.ErrRunExists)

	var count int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox`).Scan(&count))
	require.Equal(t, 1, count, "the failed insert must not leave an outbox row behind")
}
