package storage

import (
	"context"
	"errors"

	"github.com/trunkstore-lab/trunkstore/internal/model"
)

// ErrParentMissing is returned by WriteBatch when log entries reference a call
// row that is not committed yet. The batch is rolled back.
var ErrParentMissing = errors.New("parent call not committed")

// ItemStatus is the stored outcome of one row in a batch.
type ItemStatus int

const (
	ItemInserted ItemStatus = iota
	ItemDuplicate
	ItemRejected
)

func (s ItemStatus) String() string {
	switch s {
	case ItemInserted:
		return "inserted"
	case ItemDuplicate:
		return "duplicate"
	case ItemRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// ItemResult reports one log entry. Err is set only for ItemRejected.
type ItemResult struct {
	Hash   int64
	Status ItemStatus
	Err    error
}

// Batch is written in one transaction: the call row first (when present),
// then its frequency and source log entries.
type Batch struct {
	CallID string
	Call   *model.Call
	Freqs  []model.FrequencyLogEntry
	Srcs   []model.SourceLogEntry
}

// Size counts the rows in the batch.
func (b *Batch) Size() int {
	n := len(b.Freqs) + len(b.Srcs)
	if b.Call != nil {
		n++
	}
	return n
}

// BatchResult is index-aligned with the Batch it answers.
type BatchResult struct {
	Call  ItemStatus
	Freqs []ItemResult
	Srcs  []ItemResult
}

// Gateway is the transactional store behind the pipeline.
//
// WriteBatch either commits every row it reports as inserted or none. A batch
// level error leaves nothing written; it is ErrParentMissing, an
// ingesterr kind (ConflictError, ReferenceNotFound, StorageUnavailable), or an
// unclassified failure.
type Gateway interface {
	CallExists(ctx context.Context, filename string) (bool, error)
	TalkgroupExists(ctx context.Context, talkgroup int32) (bool, error)
	SourceExists(ctx context.Context, src int32) (bool, error)
	WriteBatch(ctx context.Context, b *Batch) (*BatchResult, error)
	UpsertTalkgroup(ctx context.Context, tg model.Talkgroup) error
	UpsertSource(ctx context.Context, src model.Source) error
	Close() error
}
