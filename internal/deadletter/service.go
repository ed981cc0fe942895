package deadletter

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	v1 "github.com/trunkstore-lab/trunkstore/internal/api/v1"
)

// Resubmitter pushes a payload back through the pipeline and reports whether
// every record in it reached a final stored or duplicate state.
type Resubmitter interface {
	Resubmit(ctx context.Context, p *v1.Payload) (settled bool, err error)
}

// ReplayResult tells the operator what became of a replayed entry.
type ReplayResult struct {
	ID      uuid.UUID `json:"id"`
	Settled bool      `json:"settled"`
}

// Service wraps a Repository with replay and discard operations.
type Service struct {
	repo Repository
}

// NewService creates a dead-letter service over repo.
func NewService(repo Repository) *Service {
	if repo == nil {
		panic("deadletter: repository must not be nil")
	}
	return &Service{repo: repo}
}

// Repository exposes the underlying store.
func (s *Service) Repository() Repository {
	return s.repo
}

// List returns matching entries, oldest first.
func (s *Service) List(ctx context.Context, f Filter) ([]*Entry, error) {
	if f.Queue != "" && !f.Queue.Valid() {
		return nil, fmt.Errorf("unknown dead-letter queue %q", f.Queue)
	}
	return s.repo.List(ctx, f)
}

// Get returns one entry.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Entry, error) {
	return s.repo.Get(ctx, id)
}

// Replay resubmits the entry's payload and removes the entry once the
// pipeline has processed it. Records that fail again are parked under a new
// entry by the pipeline itself.
func (s *Service) Replay(ctx context.Context, id uuid.UUID, to Resubmitter) (*ReplayResult, error) {
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	settled, err := to.Resubmit(ctx, &e.Payload)
	if err != nil {
		return nil, fmt.Errorf("replay %s: %w", id, err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("replay %s: remove entry: %w", id, err)
	}

	slog.Info("[DeadLetter] Replayed entry",
		"id", id,
		"call_id", e.CallID,
		"kind", e.Kind,
		"settled", settled)
	return &ReplayResult{ID: id, Settled: settled}, nil
}

// Discard drops an entry without replaying it.
func (s *Service) Discard(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	slog.Info("[DeadLetter] Discarded entry", "id", id)
	return nil
}
