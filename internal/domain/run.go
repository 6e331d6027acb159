package domain

import "time"

// Run is a single logged activity as exchanged with the runs resource.
type Run struct {
	ID string `json:"id"`
}

// StoredRun is the server-side record kept by a RunRepository.
type StoredRun struct {
	ID        string
	CreatedAt time.Time
}

// Run strips server bookkeeping for the wire.
func (s StoredRun) Run() Run {
	return Run{ID: s.ID}
}
