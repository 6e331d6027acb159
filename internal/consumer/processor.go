// Package consumer reads run events from Kafka and hands them to a Handler.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	headerEventType = "event_type"
	defaultBackoff  = time.Second
)

// ErrMalformed marks records that can never be handled.
var ErrMalformed = errors.New("malformed record")

// Reader is the subset of *kafka.Reader the processor drives.
type Reader interface {
	FetchMessage(context.Context) (kafka.Message, error)
	CommitMessages(context.Context, ...kafka.Message) error
}

// Handler receives decoded run events.
type Handler interface {
	Handle(context.Context, Message) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(context.Context, Message) error

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, msg Message) error {
	return f(ctx, msg)
}

// Message is a decoded record written by the outbox relay.
type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	EventType string
	Key       string
	Payload   json.RawMessage
}

// Option configures optional behaviour for the Processor.
type Option func(*Processor)

// WithLogger overrides the logger used to report errors.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Processor) {
		p.logger = logger
	}
}

// WithFetchBackoff sets the pause after a failed fetch.
func WithFetchBackoff(d time.Duration) Option {
	return func(p *Processor) {
		p.backoff = d
	}
}

// Processor fetches records, decodes them and dispatches to a Handler.
// A record is committed once handled, or immediately when malformed; a
// handler failure leaves it uncommitted for redelivery.
type Processor struct {
	reader  Reader
	handler Handler
	logger  *zap.Logger
	backoff time.Duration
}

// NewProcessor constructs a Processor.
func NewProcessor(reader Reader, handler Handler, opts ...Option) *Processor {
	p := &Processor{
		reader:  reader,
		handler: handler,
		logger:  zap.NewNop(),
		backoff: defaultBackoff,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run blocks until ctx ends or the reader reports cancellation, returning the context error.
func (p *Processor) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		record, err := p.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			p.logger.Warn("fetch failed", zap.Error(err))
			if err := sleep(ctx, p.backoff); err != nil {
				return err
			}
			continue
		}

		p.process(ctx, record)
	}
}

func (p *Processor) process(ctx context.Context, record kafka.Message) {
	log := p.logger.With(
		zap.String("topic", record.Topic),
		zap.Int("partition", record.Partition),
		zap.Int64("offset", record.Offset),
	)

	msg, err := decode(record)
	if err != nil {
		log.Warn("dropping malformed record", zap.Error(err))
		observe(record.Topic, "", outcomeMalformed)
		p.commit(ctx, log, record)
		return
	}

	if err := p.handler.Handle(ctx, msg); err != nil {
		log.Error("handler failed", zap.String("event_type", msg.EventType), zap.String("key", msg.Key), zap.Error(err))
		observe(msg.Topic, msg.EventType, outcomeHandlerError)
		return
	}

	if p.commit(ctx, log, record) {
		observe(msg.Topic, msg.EventType, outcomeProcessed)
		markLatest(msg)
	}
}

func (p *Processor) commit(ctx context.Context, log *zap.Logger, record kafka.Message) bool {
	if err := p.reader.CommitMessages(ctx, record); err != nil {
		log.Warn("commit failed", zap.Error(err))
		return false
	}
	return true
}

func decode(record kafka.Message) (Message, error) {
	var eventType string
	for _, h := range record.Headers {
		if h.Key == headerEventType {
			eventType = string(h.Value)
			break
		}
	}
	if eventType == "" {
		return Message{}, fmt.Errorf("%w: missing %s header", ErrMalformed, headerEventType)
	}
	if !json.Valid(record.Value) {
		return Message{}, fmt.Errorf("%w: payload is not JSON (%d bytes)", ErrMalformed, len(record.Value))
	}

	return Message{
		Topic:     record.Topic,
		Partition: record.Partition,
		Offset:    record.Offset,
		Timestamp: record.Time,
		EventType: eventType,
		Key:       string(record.Key),
		Payload:   json.RawMessage(append([]byte(nil), record.Value...)),
	}, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
