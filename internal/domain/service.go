// Package domain defines the run model and the server-side business logic for PACER.
package domain

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	// ErrRunExists is returned when a run with the same identifier is already stored.
	ErrRunExists = errors.New("run already exists")
	// ErrInvalidRun is returned when a run is missing its identifier.
	ErrInvalidRun = errors.New("run id is required")
)

// RunRepository captures persistence operations for runs.
type RunRepository interface {
	// List returns every stored run, newest first.
	List(ctx context.Context) ([]StoredRun, error)
	Create(ctx context.Context, run StoredRun) error
}

// Service orchestrates run workflows on the server side.
type Service struct {
	repo RunRepository
	now  func() time.Time
}

// NewService constructs a Service.
func NewService(repo RunRepository) *Service {
	return &Service{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// ListRuns returns all runs, newest first.
func (s *Service) ListRuns(ctx context.Context) ([]Run, error) {
	stored, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Run, 0, len(stored))
	for _, run := range stored {
		out = append(out, run.Run())
	}
	return out, nil
}

// CreateRun stores the run and returns the record as persisted.
func (s *Service) CreateRun(ctx context.Context, run Run) (Run, error) {
	id := strings.TrimSpace(run.ID)
	if id == "" {
		return Run{}, ErrInvalidRun
	}

	stored := StoredRun{ID: id, CreatedAt: s.now()}
	if err := s.repo.Create(ctx, stored); err != nil {
		return Run{}, err
	}
	return stored.Run(), nil
}
