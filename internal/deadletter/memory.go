package deadletter

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryRepository is an in-memory implementation of Repository.
// Useful for testing and development.
type MemoryRepository struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]*Entry
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		entries: make(map[uuid.UUID]*Entry),
	}
}

func (r *MemoryRepository) Put(ctx context.Context, e *Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prepare(e)
	// Store a copy to prevent external modification
	copy := *e
	r.entries[e.ID] = &copy
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, id uuid.UUID) (*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.entries[id]
	if !exists {
		return nil, ErrNotFound
	}
	copy := *e
	return &copy, nil
}

func (r *MemoryRepository) List(ctx context.Context, f Filter) ([]*Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := []*Entry{}
	for _, e := range r.entries {
		if !f.match(e) {
			continue
		}
		copy := *e
		result = append(result, &copy)
	}
	sortEntries(result)
	return result, nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[id]; !exists {
		return ErrNotFound
	}
	delete(r.entries, id)
	return nil
}

func sortEntries(entries []*Entry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].ID.String() < entries[j].ID.String()
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
}
