package sequencer

import (
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	v1 "github.com/trunkstore-lab/trunkstore/internal/api/v1"
	"github.com/trunkstore-lab/trunkstore/internal/core/storage"
	"github.com/trunkstore-lab/trunkstore/internal/model"
)

// planned is one shaped record on its way to the store. raw is kept so the
// record can be parked exactly as it was received.
type planned[T, R any] struct {
	entry         T
	raw           R
	hash          int64
	rep           *ItemReport
	correlationID uuid.UUID
}

type (
	freqItem = planned[model.FrequencyLogEntry, v1.FreqEntry]
	srcItem  = planned[model.SourceLogEntry, v1.SrcEntry]
)

// plan is the set of records written in one batch.
type plan struct {
	callID        string
	correlationID uuid.UUID
	tracker       *tracker

	call    *model.Call
	rawCall *v1.CallRecord
	callRep *ItemReport

	freqs []*freqItem
	srcs  []*srcItem
}

func (p *plan) empty() bool {
	return p.call == nil && len(p.freqs) == 0 && len(p.srcs) == 0
}

func (p *plan) logs() int {
	return len(p.freqs) + len(p.srcs)
}

func (p *plan) batch() *storage.Batch {
	b := &storage.Batch{
		CallID: p.callID,
		Call:   p.call,
		Freqs:  make([]model.FrequencyLogEntry, len(p.freqs)),
		Srcs:   make([]model.SourceLogEntry, len(p.srcs)),
	}
	for i, it := range p.freqs {
		b.Freqs[i] = it.entry
	}
	for i, it := range p.srcs {
		b.Srcs[i] = it.entry
	}
	return b
}

// payload rebuilds the raw records of the plan for parking.
func (p *plan) payload() v1.Payload {
	out := v1.Payload{CallID: p.callID}
	if p.call != nil {
		out.Call = p.rawCall
	}
	for _, it := range p.freqs {
		out.FreqList = append(out.FreqList, it.raw)
	}
	for _, it := range p.srcs {
		out.SrcList = append(out.SrcList, it.raw)
	}
	return out
}

func (p *plan) dropSrc(hash int64) (*srcItem, bool) {
	for i, it := range p.srcs {
		if it.hash == hash {
			p.srcs = append(p.srcs[:i], p.srcs[i+1:]...)
			return it, true
		}
	}
	return nil, false
}

// pendingCall buffers log entries for a call whose row is not committed yet.
type pendingCall struct {
	callID string
	freqs  map[int64]*freqItem
	srcs   map[int64]*srcItem
	// arrival order, so a release writes entries in the order they came in
	freqOrder []int64
	srcOrder  []int64

	since    time.Time
	attempts int
	next     time.Time
	backoff  *backoff.ExponentialBackOff
}

func newPendingCall(callID string, opts Options, now time.Time) *pendingCall {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = opts.RetryInitialInterval
	b.MaxInterval = opts.RetryMaxInterval
	b.MaxElapsedTime = 0
	b.Reset()

	return &pendingCall{
		callID:  callID,
		freqs:   make(map[int64]*freqItem),
		srcs:    make(map[int64]*srcItem),
		since:   now,
		next:    now.Add(b.NextBackOff()),
		backoff: b,
	}
}

func (pc *pendingCall) size() int {
	return len(pc.freqs) + len(pc.srcs)
}

// plan drains the buffered entries into a plan without a call row.
func (pc *pendingCall) plan() *plan {
	pl := &plan{callID: pc.callID}
	for _, h := range pc.freqOrder {
		pl.freqs = append(pl.freqs, pc.freqs[h])
	}
	for _, h := range pc.srcOrder {
		pl.srcs = append(pl.srcs, pc.srcs[h])
	}
	return pl
}
