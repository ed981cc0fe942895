package sequencer

import (
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	v1 "github.com/trunkstore-lab/trunkstore/internal/api/v1"
	ingesterr "github.com/trunkstore-lab/trunkstore/internal/core/errors"
	"github.com/trunkstore-lab/trunkstore/internal/core/storage"
	"github.com/trunkstore-lab/trunkstore/internal/dedup"
	"github.com/trunkstore-lab/trunkstore/internal/normalize"
)

// worker owns a subset of call ids. Everything for one call id happens on
// the same goroutine, in arrival order.
type worker struct {
	id      int
	s       *Sequencer
	queue   chan *envelope
	notify  chan string
	pending map[string]*pendingCall
}

func newWorker(id int, s *Sequencer) *worker {
	return &worker{
		id:      id,
		s:       s,
		queue:   make(chan *envelope, s.opts.QueueSize),
		notify:  make(chan string, s.opts.QueueSize),
		pending: make(map[string]*pendingCall),
	}
}

func (w *worker) run() error {
	ticker := time.NewTicker(w.s.opts.RetryTick)
	defer ticker.Stop()

	for {
		select {
		case env, ok := <-w.queue:
			if !ok {
				w.drainNotifications()
				w.abandonPending()
				return nil
			}
			w.handle(env)
			w.s.metrics.SetQueueDepth(strconv.Itoa(w.id), len(w.queue))
		case callID := <-w.notify:
			w.release(callID)
		case now := <-ticker.C:
			w.retryPending(now)
		}
	}
}

func (w *worker) handle(env *envelope) {
	p := env.payload
	rep := newReport(env)
	pl := &plan{callID: p.CallID, correlationID: env.correlationID}
	if env.settled != nil {
		pl.tracker = newTracker(env.settled)
	}

	if w.s.opts.UpsertFromPayload {
		w.upsertReferences(p)
	}

	unavailable := w.shapeCall(pl, p.Call, rep.Call)
	if unavailable == nil {
		w.shapeFreqs(pl, p.FreqList, rep)
		unavailable = w.shapeSrcs(pl, p.SrcList, rep)
	}

	if unavailable != nil {
		w.parkEnvelope(env, rep, unavailable)
	} else {
		w.commit(pl)
	}

	if pl.tracker != nil {
		pl.tracker.done()
	}
	if env.done != nil {
		env.done <- rep
	}
}

// shapeCall normalizes the call record and resolves its talkgroup. Only a
// storage failure is returned; every other failure is recorded on rep.
func (w *worker) shapeCall(pl *plan, raw *v1.CallRecord, rep *ItemReport) error {
	if raw == nil {
		return nil
	}

	call, err := normalize.Call(raw)
	if err == nil && call.Filename != pl.callID {
		err = ingesterr.Validation(pl.callID, "filename", "does not match call_id "+strconv.Quote(call.Filename))
	}
	if err != nil {
		w.mark(KindCall, pl.callID, pl.correlationID, rep, StatusRejected, err)
		return nil
	}

	err = w.s.withRetry(pl.callID, func() error {
		return w.s.resolver.Talkgroup(w.s.ctx, pl.callID, call.Talkgroup)
	})
	if err != nil {
		if ingesterr.IsTransient(err) {
			return err
		}
		w.mark(KindCall, pl.callID, pl.correlationID, rep, StatusRejected, err)
		return nil
	}

	pl.call, pl.rawCall, pl.callRep = &call, raw, rep
	return nil
}

func (w *worker) shapeFreqs(pl *plan, raws []v1.FreqEntry, rep *Report) {
	for _, it := range dedup.Frequencies(pl.callID, raws) {
		r := &rep.FreqList[it.Index]
		r.Hash = it.Entry.Hash

		switch it.Outcome {
		case dedup.Duplicate:
			w.mark(KindFreq, pl.callID, pl.correlationID, r, StatusDuplicate, nil)
		case dedup.Rejected:
			if ingesterr.KindOf(it.Err) == ingesterr.KindHashCollision {
				w.park(&plan{callID: pl.callID, freqs: []*freqItem{{
					entry: it.Entry, raw: raws[it.Index], hash: it.Entry.Hash, rep: r, correlationID: pl.correlationID,
				}}}, it.Err)
				continue
			}
			w.mark(KindFreq, pl.callID, pl.correlationID, r, StatusRejected, it.Err)
		case dedup.Ready:
			w.observeOrder(KindFreq, pl.callID, it.Entry.Pos, it.Entry.Hash)
			pl.freqs = append(pl.freqs, &freqItem{
				entry: it.Entry, raw: raws[it.Index], hash: it.Entry.Hash, rep: r, correlationID: pl.correlationID,
			})
		}
	}
}

func (w *worker) shapeSrcs(pl *plan, raws []v1.SrcEntry, rep *Report) error {
	for _, it := range dedup.Sources(pl.callID, raws) {
		r := &rep.SrcList[it.Index]
		r.Hash = it.Entry.Hash

		switch it.Outcome {
		case dedup.Duplicate:
			w.mark(KindSrc, pl.callID, pl.correlationID, r, StatusDuplicate, nil)
		case dedup.Rejected:
			if ingesterr.KindOf(it.Err) == ingesterr.KindHashCollision {
				w.park(&plan{callID: pl.callID, srcs: []*srcItem{{
					entry: it.Entry, raw: raws[it.Index], hash: it.Entry.Hash, rep: r, correlationID: pl.correlationID,
				}}}, it.Err)
				continue
			}
			w.mark(KindSrc, pl.callID, pl.correlationID, r, StatusRejected, it.Err)
		case dedup.Ready:
			src, hash := it.Entry.Src, it.Entry.Hash
			err := w.s.withRetry(pl.callID, func() error {
				return w.s.resolver.Source(w.s.ctx, pl.callID, hash, src)
			})
			if err != nil {
				if ingesterr.IsTransient(err) {
					return err
				}
				w.mark(KindSrc, pl.callID, pl.correlationID, r, StatusRejected, err)
				continue
			}
			w.observeOrder(KindSrc, pl.callID, it.Entry.Pos, hash)
			pl.srcs = append(pl.srcs, &srcItem{
				entry: it.Entry, raw: raws[it.Index], hash: hash, rep: r, correlationID: pl.correlationID,
			})
		}
	}
	return nil
}

func (w *worker) observeOrder(stream, callID string, pos time.Duration, hash int64) {
	if w.s.order.Observe(stream, callID, pos) {
		return
	}
	w.s.metrics.RecordOutOfOrder(stream)
	slog.Debug("[Sequencer] Out-of-order position",
		"stream", stream,
		"call_id", callID,
		"hash", hash,
		"pos", pos,
	)
}

// commit writes pl, deferring its log entries when the call row is not
// committed yet.
func (w *worker) commit(pl *plan) {
	for !pl.empty() {
		if pl.call == nil && !w.callCommitted(pl.callID, true) {
			w.deferItems(pl)
			return
		}

		res, err := w.write(pl)
		if err == nil {
			w.settle(pl, res)
			return
		}

		switch {
		case errors.Is(err, storage.ErrParentMissing):
			w.s.committed.Delete(pl.callID)
			if pl.call != nil {
				w.park(pl, err)
				return
			}
			w.deferItems(pl)
			return

		case ingesterr.KindOf(err) == ingesterr.KindReferenceNotFound:
			if !w.dropReference(pl, err) {
				w.park(pl, err)
				return
			}

		case ingesterr.KindOf(err) == ingesterr.KindConflict:
			w.park(pl, err)
			// the stored row is what the entries reference
			w.s.markCommitted(pl.callID)
			w.release(pl.callID)
			return

		default:
			w.park(pl, err)
			return
		}
	}
}

func (w *worker) write(pl *plan) (*storage.BatchResult, error) {
	b := pl.batch()
	var res *storage.BatchResult
	err := w.s.withRetry(pl.callID, func() error {
		start := time.Now()
		r, err := w.s.gateway.WriteBatch(w.s.ctx, b)
		w.s.metrics.ObserveBatchWrite(time.Since(start), err)
		if err != nil {
			return err
		}
		res = r
		return nil
	})
	return res, err
}

// dropReference removes the record named by a batch level ReferenceNotFound
// so the rest of the plan can be retried.
func (w *worker) dropReference(pl *plan, err error) bool {
	var ie *ingesterr.Error
	if !errors.As(err, &ie) {
		return false
	}
	if ie.Hash == 0 {
		if pl.call == nil {
			return false
		}
		w.mark(KindCall, pl.callID, pl.correlationID, pl.callRep, StatusRejected, err)
		pl.call, pl.rawCall, pl.callRep = nil, nil, nil
		return true
	}
	it, ok := pl.dropSrc(ie.Hash)
	if !ok {
		return false
	}
	w.mark(KindSrc, pl.callID, it.correlationID, it.rep, StatusRejected, err)
	return true
}

func (w *worker) settle(pl *plan, res *storage.BatchResult) {
	if pl.call != nil {
		st := StatusStored
		if res.Call == storage.ItemDuplicate {
			st = StatusDuplicate
		}
		w.mark(KindCall, pl.callID, pl.correlationID, pl.callRep, st, nil)
		w.s.markCommitted(pl.callID)
	}

	for i, it := range pl.freqs {
		if !w.settleItem(KindFreq, pl.callID, it.correlationID, it.rep, res.Freqs[i]) {
			w.park(&plan{callID: pl.callID, freqs: []*freqItem{it}}, res.Freqs[i].Err)
		}
	}
	for i, it := range pl.srcs {
		if !w.settleItem(KindSrc, pl.callID, it.correlationID, it.rep, res.Srcs[i]) {
			w.park(&plan{callID: pl.callID, srcs: []*srcItem{it}}, res.Srcs[i].Err)
		}
	}

	w.release(pl.callID)
}

// settleItem records a stored or duplicate outcome. It returns false for a
// rejected row, which the caller quarantines.
func (w *worker) settleItem(kind, callID string, correlationID uuid.UUID, rep *ItemReport, r storage.ItemResult) bool {
	switch r.Status {
	case storage.ItemInserted:
		w.mark(kind, callID, correlationID, rep, StatusStored, nil)
	case storage.ItemDuplicate:
		w.mark(kind, callID, correlationID, rep, StatusDuplicate, nil)
	default:
		return false
	}
	return true
}

func (w *worker) upsertReferences(p *v1.Payload) {
	if tg, ok := normalize.Talkgroup(p.Call); ok {
		err := w.s.withRetry(p.CallID, func() error {
			return w.s.gateway.UpsertTalkgroup(w.s.ctx, tg)
		})
		if err != nil {
			slog.Warn("[Sequencer] Talkgroup upsert failed", "call_id", p.CallID, "talkgroup", tg.Talkgroup, "error", err)
		} else {
			w.s.resolver.RememberTalkgroup(tg.Talkgroup)
		}
	}

	for _, src := range normalize.Sources(p.SrcList) {
		err := w.s.withRetry(p.CallID, func() error {
			return w.s.gateway.UpsertSource(w.s.ctx, src)
		})
		if err != nil {
			slog.Warn("[Sequencer] Source upsert failed", "call_id", p.CallID, "src", src.Src, "error", err)
			continue
		}
		w.s.resolver.RememberSource(src.Src)
	}
}

// callCommitted consults the committed cache and then the gateway. A failed
// lookup counts as not committed; the entries stay pending.
func (w *worker) callCommitted(callID string, retry bool) bool {
	if w.s.isCommitted(callID) {
		return true
	}

	var ok bool
	lookup := func() error {
		var err error
		ok, err = w.s.gateway.CallExists(w.s.ctx, callID)
		return err
	}

	var err error
	if retry {
		err = w.s.withRetry(callID, lookup)
	} else {
		err = lookup()
	}
	if err != nil {
		slog.Warn("[Sequencer] Call lookup failed", "call_id", callID, "error", err)
		return false
	}
	if ok {
		w.s.markCommitted(callID)
	}
	return ok
}

func (w *worker) mark(kind, callID string, correlationID uuid.UUID, r *ItemReport, st Status, err error) {
	r.set(st, err)
	defer r.finish()
	w.s.metrics.RecordOutcome(kind, string(st))

	switch st {
	case StatusRejected:
		slog.Warn("[Sequencer] Record rejected",
			"kind", kind,
			"call_id", callID,
			"correlation_id", correlationID,
			"hash", r.Hash,
			"error", err,
		)
	case StatusQuarantined, StatusDeadLettered:
		slog.Error("[Sequencer] Record parked",
			"kind", kind,
			"status", st,
			"call_id", callID,
			"correlation_id", correlationID,
			"hash", r.Hash,
			"error", err,
		)
	}
}
