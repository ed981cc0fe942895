// Package deadletter keeps records the pipeline could not commit so an
// operator can inspect, replay or discard them.
package deadletter

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	v1 "github.com/trunkstore-lab/trunkstore/internal/api/v1"
)

// ErrNotFound is returned when no entry has the requested id.
var ErrNotFound = errors.New("dead-letter entry not found")

// Queue separates retryable failures from records that need a human.
type Queue string

const (
	// QueueDeadLetter holds deferred-write and storage failures.
	QueueDeadLetter Queue = "deadletter"
	// QueueQuarantine holds hash collisions and conflicting call records.
	QueueQuarantine Queue = "quarantine"
)

// Valid reports whether q names a known queue.
func (q Queue) Valid() bool {
	return q == QueueDeadLetter || q == QueueQuarantine
}

// Entry is one parked record. Payload holds exactly the raw records that
// failed so a replay resubmits only those.
type Entry struct {
	ID        uuid.UUID  `json:"id" yaml:"id"`
	Queue     Queue      `json:"queue" yaml:"queue"`
	Kind      string     `json:"kind" yaml:"kind"`
	CallID    string     `json:"call_id" yaml:"call_id"`
	Hash      int64      `json:"hash,omitempty" yaml:"hash,omitempty"`
	Reason    string     `json:"reason" yaml:"reason"`
	CreatedAt time.Time  `json:"created_at" yaml:"created_at"`
	Payload   v1.Payload `json:"payload" yaml:"payload"`
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	Queue  Queue
	CallID string
}

func (f Filter) match(e *Entry) bool {
	if f.Queue != "" && e.Queue != f.Queue {
		return false
	}
	if f.CallID != "" && e.CallID != f.CallID {
		return false
	}
	return true
}

// Repository defines dead-letter storage.
type Repository interface {
	// Put stores e, assigning ID and CreatedAt when they are zero.
	Put(ctx context.Context, e *Entry) error

	// Get returns the entry with id or ErrNotFound.
	Get(ctx context.Context, id uuid.UUID) (*Entry, error)

	// List returns matching entries, oldest first.
	List(ctx context.Context, f Filter) ([]*Entry, error)

	// Delete removes the entry with id or returns ErrNotFound.
	Delete(ctx context.Context, id uuid.UUID) error
}

func prepare(e *Entry) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.Queue == "" {
		e.Queue = QueueDeadLetter
	}
}
