// Package memory keeps runs in process memory for local development and tests.
package memory

import (
	"context"
	"sync"

	"example.com/pacer/internal/domain"
	"example.com/pacer/internal/observability"
)

// Repository stores runs newest first.
type Repository struct {
	mu   sync.RWMutex
	runs []domain.StoredRun
	ids  map[string]struct{}
}

// NewRepository constructs an empty Repository.
func NewRepository() *Repository {
	return &Repository{ids: make(map[string]struct{})}
}

// List implements domain.RunRepository.
func (r *Repository) List(ctx context.Context) ([]domain.StoredRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.StoredRun, len(r.runs))
	copy(out, r.runs)
	return out, nil
}

// Create implements domain.RunRepository.
func (r *Repository) Create(ctx context.Context, run domain.StoredRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.ids[run.ID]; exists {
		return domain.ErrRunExists
	}
	r.ids[run.ID] = struct{}{}
	r.runs = append([]domain.StoredRun{run}, r.runs...)
	observability.RecordRunPersisted(run.CreatedAt)
	return nil
}
