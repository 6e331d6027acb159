package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	defaultPollInterval = 2 * time.Second
	defaultBatchSize    = 25
)

const claimQuery = `SELECT event_id, aggregate_type, aggregate_id, event_type, topic, partition_key, payload
    FROM outbox
    WHERE published_at IS NULL
    ORDER BY event_id
    LIMIT $1
    FOR UPDATE SKIP LOCKED`

// RelayOption configures optional behaviour for the Relay.
type RelayOption func(*Relay)

// WithLogger overrides the logger used to report relay failures.
func WithLogger(logger *zap.Logger) RelayOption {
	return func(r *Relay) {
		r.logger = logger
	}
}

// WithPollInterval sets how long the relay idles between passes.
func WithPollInterval(d time.Duration) RelayOption {
	return func(r *Relay) {
		if d > 0 {
			r.pollInterval = d
		}
	}
}

// WithBatchSize caps how many events a single pass claims.
func WithBatchSize(n int) RelayOption {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// Relay moves unpublished outbox rows to Kafka. Events that cannot be
// delivered are copied to outbox_dlq and marked published so they never block
// the rows behind them.
type Relay struct {
	pool         *pgxpool.Pool
	publisher    Publisher
	logger       *zap.Logger
	pollInterval time.Duration
	batchSize    int
	now          func() time.Time
}

// NewRelay constructs a Relay draining pool into publisher.
func NewRelay(pool *pgxpool.Pool, publisher Publisher, opts ...RelayOption) *Relay {
	r := &Relay{
		pool:         pool,
		publisher:    publisher,
		logger:       zap.NewNop(),
		pollInterval: defaultPollInterval,
		batchSize:    defaultBatchSize,
		now:          func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run flushes the outbox every poll interval until ctx ends. It returns nil on
// cancellation so it can run under an errgroup.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		if _, err := r.Flush(ctx); err != nil && ctx.Err() == nil {
			r.logger.Error("outbox flush failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Flush performs one pass and reports how many events it settled.
func (r *Relay) Flush(ctx context.Context) (int, error) {
	events, err := r.claim(ctx)
	if err != nil || len(events) == 0 {
		return 0, err
	}

	start := time.Now()
	defer func() { flushDuration.Observe(time.Since(start).Seconds()) }()

	if deliverErr := r.deliver(ctx, events); deliverErr != nil {
		r.logger.Warn("outbox delivery failed, dead-lettering batch",
			zap.Int("events", len(events)), zap.Error(deliverErr))
		if err := r.deadLetter(ctx, events, deliverErr.Error()); err != nil {
			return 0, fmt.Errorf("dead-letter outbox events: %w", err)
		}
		return len(events), nil
	}

	if err := r.markPublished(ctx, r.pool, eventIDs(events)); err != nil {
		return 0, fmt.Errorf("mark outbox events published: %w", err)
	}
	recordOutcome(outcomeDelivered, len(events))
	return len(events), nil
}

func (r *Relay) claim(ctx context.Context) ([]Event, error) {
	var events []Event
	err := pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, claimQuery, r.batchSize)
		if err != nil {
			return err
		}
		events, err = pgx.CollectRows(rows, pgx.RowToStructByPos[Event])
		if err != nil || len(events) == 0 {
			return err
		}
		_, err = tx.Exec(ctx, `UPDATE outbox SET claimed_at = NOW() WHERE event_id = ANY($1)`, eventIDs(events))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("claim outbox events: %w", err)
	}
	return events, nil
}

func (r *Relay) deliver(ctx context.Context, events []Event) error {
	topics, batches := byTopic(events, r.now())
	for _, topic := range topics {
		if err := r.publisher.Publish(ctx, topic, batches[topic]...); err != nil {
			return fmt.Errorf("publish to %s: %w", topic, err)
		}
	}
	return nil
}

// deadLetter copies events into outbox_dlq and marks them published in one transaction.
func (r *Relay) deadLetter(ctx context.Context, events []Event, reason string) error {
	err := pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, e := range events {
			batch.Queue(`INSERT INTO outbox_dlq (event_id, event_type, topic, aggregate_type, aggregate_id, partition_key, payload, reason)
                VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
				e.ID, e.EventType, e.Topic, e.AggregateType, e.AggregateID, e.PartitionKey, e.Payload, reason)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return err
		}
		return r.markPublished(ctx, tx, eventIDs(events))
	})
	if err != nil {
		return err
	}
	for _, e := range events {
		deadLetterTotal.WithLabelValues(e.Topic).Inc()
	}
	recordOutcome(outcomeDeadLettered, len(events))
	return nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (r *Relay) markPublished(ctx context.Context, db execer, ids []int64) error {
	_, err := db.Exec(ctx, `UPDATE outbox SET published_at = NOW() WHERE event_id = ANY($1)`, ids)
	return err
}
