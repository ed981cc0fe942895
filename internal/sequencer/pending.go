package sequencer

import (
	"fmt"
	"log/slog"
	"time"

	ingesterr "github.com/trunkstore-lab/trunkstore/internal/core/errors"
	"github.com/trunkstore-lab/trunkstore/internal/dedup"
)

// deferItems buffers the log entries of pl until their call row commits.
// A repeat of an entry already pending is a duplicate; a different payload
// under the same hash is quarantined.
func (w *worker) deferItems(pl *plan) {
	pc, ok := w.pending[pl.callID]
	if !ok {
		pc = newPendingCall(pl.callID, w.s.opts, time.Now())
		w.pending[pl.callID] = pc
	}

	added := 0
	for _, it := range pl.freqs {
		prev, seen := pc.freqs[it.hash]
		switch {
		case !seen:
			pc.freqs[it.hash] = it
			pc.freqOrder = append(pc.freqOrder, it.hash)
			added++
			w.mark(KindFreq, pl.callID, it.correlationID, it.rep, StatusDeferred, nil)
			it.rep = detach(it.rep, pl.tracker)
		case prev.entry.Equal(it.entry):
			w.mark(KindFreq, pl.callID, it.correlationID, it.rep, StatusDuplicate, nil)
		default:
			w.park(&plan{callID: pl.callID, freqs: []*freqItem{it}}, dedup.Collision(pl.callID, it.hash))
		}
	}
	for _, it := range pl.srcs {
		prev, seen := pc.srcs[it.hash]
		switch {
		case !seen:
			pc.srcs[it.hash] = it
			pc.srcOrder = append(pc.srcOrder, it.hash)
			added++
			w.mark(KindSrc, pl.callID, it.correlationID, it.rep, StatusDeferred, nil)
			it.rep = detach(it.rep, pl.tracker)
		case prev.entry.Equal(it.entry):
			w.mark(KindSrc, pl.callID, it.correlationID, it.rep, StatusDuplicate, nil)
		default:
			w.park(&plan{callID: pl.callID, srcs: []*srcItem{it}}, dedup.Collision(pl.callID, it.hash))
		}
	}

	if pc.size() == 0 {
		delete(w.pending, pl.callID)
		return
	}
	w.s.addPending(added)
	if added > 0 {
		slog.Info("[Sequencer] Deferred entries until call row commits",
			"call_id", pl.callID,
			"correlation_id", pl.correlationID,
			"deferred", added,
			"pending_for_call", pc.size(),
		)
	}
}

// release writes every pending entry for callID. It is a no-op when
// nothing is pending.
func (w *worker) release(callID string) {
	pc, ok := w.pending[callID]
	if !ok {
		return
	}
	delete(w.pending, callID)
	w.s.addPending(-pc.size())

	slog.Info("[Sequencer] Releasing deferred entries",
		"call_id", callID,
		"entries", pc.size(),
		"waited", time.Since(pc.since),
		"attempts", pc.attempts,
	)
	w.commit(pc.plan())
}

// retryPending checks every pending call whose next attempt is due.
func (w *worker) retryPending(now time.Time) {
	for callID, pc := range w.pending {
		if now.Before(pc.next) {
			continue
		}
		pc.attempts++

		if w.callCommitted(callID, false) {
			w.release(callID)
			continue
		}
		if pc.attempts >= w.s.opts.RetryBudget {
			w.expire(pc, fmt.Sprintf("call row not committed after %d attempts over %s",
				pc.attempts, now.Sub(pc.since).Round(time.Millisecond)))
			continue
		}
		pc.next = now.Add(pc.backoff.NextBackOff())
	}
}

// expire moves a pending call to the dead-letter queue.
func (w *worker) expire(pc *pendingCall, reason string) {
	delete(w.pending, pc.callID)
	w.s.addPending(-pc.size())
	w.park(pc.plan(), ingesterr.New(ingesterr.KindDeferredWriteFailure, pc.callID, reason))
}

func (w *worker) drainNotifications() {
	for {
		select {
		case callID := <-w.notify:
			w.release(callID)
		default:
			return
		}
	}
}

// abandonPending runs once the queue is closed. Entries whose call row is
// now committed are written; the rest are parked for replay.
func (w *worker) abandonPending() {
	for callID, pc := range w.pending {
		if w.callCommitted(callID, false) {
			w.release(callID)
			continue
		}
		w.expire(pc, "sequencer shut down before the call row was committed")
	}
}
