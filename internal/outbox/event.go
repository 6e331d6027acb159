// Package outbox relays run events recorded alongside runs to Kafka.
package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

// Publisher writes records to a Kafka topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, records ...kafka.Message) error
}

// Event is one unpublished outbox row. Field order matches claimQuery.
type Event struct {
	ID            int64
	AggregateType string
	AggregateID   string
	EventType     string
	Topic         string
	PartitionKey  string
	Payload       json.RawMessage
}

func (e Event) record(now time.Time) kafka.Message {
	return kafka.Message{
		Key:   []byte(e.PartitionKey),
		Value: []byte(e.Payload),
		Time:  now,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.EventType)},
			{Key: "aggregate_type", Value: []byte(e.AggregateType)},
		},
	}
}

// byTopic groups events into per-topic record batches, topics in first-seen order.
func byTopic(events []Event, now time.Time) ([]string, map[string][]kafka.Message) {
	topics := make([]string, 0, 1)
	batches := make(map[string][]kafka.Message)
	for _, e := range events {
		if _, ok := batches[e.Topic]; !ok {
			topics = append(topics, e.Topic)
		}
		batches[e.Topic] = append(batches[e.Topic], e.record(now))
	}
	return topics, batches
}

func eventIDs(events []Event) []int64 {
	ids := make([]int64, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	return ids
}
