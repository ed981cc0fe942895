package dedup

import (
	v1 "github.com/trunkstore-lab/trunkstore/internal/api/v1"
	ingesterr "github.com/trunkstore-lab/trunkstore/internal/core/errors"
	"github.com/trunkstore-lab/trunkstore/internal/model"
	"github.com/trunkstore-lab/trunkstore/internal/normalize"
)

// Outcome is what the batch pass decided for one item.
type Outcome int

const (
	// Ready items go on to the store.
	Ready Outcome = iota
	// Duplicate items repeat an earlier identical item and are dropped.
	Duplicate
	// Rejected items failed validation or collided; Err says why.
	Rejected
)

func (o Outcome) String() string {
	switch o {
	case Ready:
		return "ready"
	case Duplicate:
		return "duplicate"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Item is one shaped observation with its position in the input batch.
type Item[T any] struct {
	Index   int
	Entry   T
	Outcome Outcome
	Err     error
}

// Frequencies validates raws for callID, assigns hashes and marks in-batch
// repeats. Output order matches input order.
func Frequencies(callID string, raws []v1.FreqEntry) []Item[model.FrequencyLogEntry] {
	items := make([]Item[model.FrequencyLogEntry], len(raws))
	seen := make(map[int64]model.FrequencyLogEntry, len(raws))

	for i, r := range raws {
		f := normalize.Fields{CallID: callID}
		e := model.FrequencyLogEntry{
			CallID:     callID,
			Freq:       f.Positive32("freq", r.Freq),
			Time:       f.Epoch("time", r.Time),
			Pos:        f.Duration("pos", r.Pos),
			Len:        f.Duration("len", r.Len),
			ErrorCount: f.NonNegative16("error_count", r.ErrorCount),
			SpikeCount: f.NonNegative16("spike_count", r.SpikeCount),
		}
		items[i] = Item[model.FrequencyLogEntry]{Index: i}
		if err := f.Err(); err != nil {
			items[i].Outcome, items[i].Err = Rejected, err
			continue
		}

		e.Hash = Hash(callID, e.Time, e.Pos)
		items[i].Entry = e
		items[i].Outcome, items[i].Err = classify(seen, callID, e.Hash, e, model.FrequencyLogEntry.Equal)
	}
	return items
}

// Sources is Frequencies for signal source observations.
func Sources(callID string, raws []v1.SrcEntry) []Item[model.SourceLogEntry] {
	items := make([]Item[model.SourceLogEntry], len(raws))
	seen := make(map[int64]model.SourceLogEntry, len(raws))

	for i, r := range raws {
		f := normalize.Fields{CallID: callID}
		e := model.SourceLogEntry{
			CallID:    callID,
			Src:       f.Positive32("src", r.Src),
			Time:      f.Epoch("time", r.Time),
			Pos:       f.Duration("pos", r.Pos),
			Emergency: f.Flag("emergency", r.Emergency),
		}
		if r.SignalSystem != "" {
			sys := r.SignalSystem
			e.SignalSystem = &sys
		}
		items[i] = Item[model.SourceLogEntry]{Index: i}
		if err := f.Err(); err != nil {
			items[i].Outcome, items[i].Err = Rejected, err
			continue
		}

		e.Hash = Hash(callID, e.Time, e.Pos)
		items[i].Entry = e
		items[i].Outcome, items[i].Err = classify(seen, callID, e.Hash, e, model.SourceLogEntry.Equal)
	}
	return items
}

func classify[T any](seen map[int64]T, callID string, hash int64, e T, equal func(a, b T) bool) (Outcome, error) {
	prev, ok := seen[hash]
	if !ok {
		seen[hash] = e
		return Ready, nil
	}
	if equal(prev, e) {
		return Duplicate, nil
	}
	return Rejected, Collision(callID, hash)
}

// Collision returns the error for two different payloads sharing hash.
func Collision(callID string, hash int64) error {
	return &ingesterr.Error{
		Kind:   ingesterr.KindHashCollision,
		CallID: callID,
		Hash:   hash,
		Msg:    "payload differs from an entry with the same hash",
	}
}
