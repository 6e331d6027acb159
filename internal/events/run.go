// Package events defines the run event payloads published through the outbox.
package events

import "time"

// Event types recorded in the outbox.
const (
	TypeRunCreated = "run.created"
)

// RunCreated is emitted when the runs API stores a new run.
type RunCreated struct {
	RunID     string    `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`
}
