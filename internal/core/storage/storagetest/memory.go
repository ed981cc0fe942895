// Package storagetest provides an in-memory storage.Gateway with the same
// transactional and conflict semantics as the PostgreSQL adapter.
package storagetest

import (
	"context"
	"sync"

	ingesterr "github.com/trunkstore-lab/trunkstore/internal/core/errors"
	"github.com/trunkstore-lab/trunkstore/internal/core/storage"
	"github.com/trunkstore-lab/trunkstore/internal/dedup"
	"github.com/trunkstore-lab/trunkstore/internal/model"
)

// Gateway is safe for concurrent use.
type Gateway struct {
	mu         sync.Mutex
	calls      map[string]model.Call
	freqs      map[int64]model.FrequencyLogEntry
	srcs       map[int64]model.SourceLogEntry
	talkgroups map[int32]model.Talkgroup
	sources    map[int32]model.Source

	failures []error
	writes   int
	closed   bool
	// gate, when set, stalls WriteBatch until it is closed or the caller's
	// context ends.
	gate chan struct{}
}

var _ storage.Gateway = (*Gateway)(nil)

// New returns an empty gateway.
func New() *Gateway {
	return &Gateway{
		calls:      make(map[string]model.Call),
		freqs:      make(map[int64]model.FrequencyLogEntry),
		srcs:       make(map[int64]model.SourceLogEntry),
		talkgroups: make(map[int32]model.Talkgroup),
		sources:    make(map[int32]model.Source),
	}
}

// AddTalkgroup seeds a talkgroup reference row.
func (g *Gateway) AddTalkgroup(tg int32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.talkgroups[tg] = model.Talkgroup{Talkgroup: tg}
}

// AddSource seeds a source reference row.
func (g *Gateway) AddSource(src int32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sources[src] = model.Source{Src: src}
}

// FailWrites makes the next len(errs) WriteBatch calls return errs in order.
func (g *Gateway) FailWrites(errs ...error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failures = append(g.failures, errs...)
}

// Hold stalls every WriteBatch until the returned release func is called.
// Writes counts a stalled call as soon as it starts.
func (g *Gateway) Hold() (release func()) {
	gate := make(chan struct{})
	g.mu.Lock()
	g.gate = gate
	g.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			g.gate = nil
			g.mu.Unlock()
			close(gate)
		})
	}
}

// Call returns a committed call row.
func (g *Gateway) Call(filename string) (model.Call, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.calls[filename]
	return c, ok
}

// Counts returns the number of committed calls, freqlist rows and srclist rows.
func (g *Gateway) Counts() (calls, freqs, srcs int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls), len(g.freqs), len(g.srcs)
}

// Freqs returns committed freqlist rows for callID.
func (g *Gateway) Freqs(callID string) []model.FrequencyLogEntry {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []model.FrequencyLogEntry
	for _, e := range g.freqs {
		if e.CallID == callID {
			out = append(out, e)
		}
	}
	return out
}

// Srcs returns committed srclist rows for callID.
func (g *Gateway) Srcs(callID string) []model.SourceLogEntry {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []model.SourceLogEntry
	for _, e := range g.srcs {
		if e.CallID == callID {
			out = append(out, e)
		}
	}
	return out
}

// Writes counts WriteBatch calls, failed ones included.
func (g *Gateway) Writes() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.writes
}

func (g *Gateway) CallExists(_ context.Context, filename string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.calls[filename]
	return ok, nil
}

func (g *Gateway) TalkgroupExists(_ context.Context, tg int32) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.talkgroups[tg]
	return ok, nil
}

func (g *Gateway) SourceExists(_ context.Context, src int32) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.sources[src]
	return ok, nil
}

func (g *Gateway) UpsertTalkgroup(_ context.Context, tg model.Talkgroup) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.talkgroups[tg.Talkgroup] = tg
	return nil
}

func (g *Gateway) UpsertSource(_ context.Context, src model.Source) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if prev, ok := g.sources[src.Src]; ok && src.Tag == nil {
		src.Tag = prev.Tag
	}
	g.sources[src.Src] = src
	return nil
}

// WriteBatch stages every row and applies them only when the whole batch is valid.
func (g *Gateway) WriteBatch(ctx context.Context, b *storage.Batch) (*storage.BatchResult, error) {
	g.mu.Lock()
	g.writes++
	gate := g.gate
	g.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.failures) > 0 {
		err := g.failures[0]
		g.failures = g.failures[1:]
		return nil, err
	}

	res := &storage.BatchResult{
		Freqs: make([]storage.ItemResult, len(b.Freqs)),
		Srcs:  make([]storage.ItemResult, len(b.Srcs)),
	}
	parentStaged := false

	if c := b.Call; c != nil {
		if _, ok := g.talkgroups[c.Talkgroup]; !ok {
			return nil, &ingesterr.Error{Kind: ingesterr.KindReferenceNotFound, CallID: c.Filename, Msg: "calls_talkgroup_fkey"}
		}
		if stored, ok := g.calls[c.Filename]; ok {
			if !stored.Equal(*c) {
				return nil, ingesterr.New(ingesterr.KindConflict, c.Filename, "stored call row differs from the submitted one")
			}
			res.Call = storage.ItemDuplicate
		} else {
			res.Call = storage.ItemInserted
			parentStaged = true
		}
	}

	parentOK := func(callID string) bool {
		_, ok := g.calls[callID]
		return ok || (parentStaged && callID == b.Call.Filename)
	}

	stagedFreqs := make(map[int64]model.FrequencyLogEntry)
	for i, e := range b.Freqs {
		if !parentOK(e.CallID) {
			return nil, storage.ErrParentMissing
		}
		prev, ok := g.freqs[e.Hash]
		if !ok {
			prev, ok = stagedFreqs[e.Hash]
		}
		res.Freqs[i] = itemResult(e.CallID, e.Hash, ok, ok && prev.Equal(e))
		if !ok {
			stagedFreqs[e.Hash] = e
		}
	}

	stagedSrcs := make(map[int64]model.SourceLogEntry)
	for i, e := range b.Srcs {
		if !parentOK(e.CallID) {
			return nil, storage.ErrParentMissing
		}
		if _, ok := g.sources[e.Src]; !ok {
			return nil, &ingesterr.Error{Kind: ingesterr.KindReferenceNotFound, CallID: e.CallID, Hash: e.Hash, Msg: "srclist_src_fkey"}
		}
		prev, ok := g.srcs[e.Hash]
		if !ok {
			prev, ok = stagedSrcs[e.Hash]
		}
		res.Srcs[i] = itemResult(e.CallID, e.Hash, ok, ok && prev.Equal(e))
		if !ok {
			stagedSrcs[e.Hash] = e
		}
	}

	if parentStaged {
		g.calls[b.Call.Filename] = *b.Call
	}
	for h, e := range stagedFreqs {
		g.freqs[h] = e
	}
	for h, e := range stagedSrcs {
		g.srcs[h] = e
	}
	return res, nil
}

func itemResult(callID string, hash int64, exists, equal bool) storage.ItemResult {
	switch {
	case !exists:
		return storage.ItemResult{Hash: hash, Status: storage.ItemInserted}
	case equal:
		return storage.ItemResult{Hash: hash, Status: storage.ItemDuplicate}
	default:
		return storage.ItemResult{Hash: hash, Status: storage.ItemRejected, Err: dedup.Collision(callID, hash)}
	}
}

func (g *Gateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	return nil
}

// Closed reports whether Close was called.
func (g *Gateway) Closed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed
}
