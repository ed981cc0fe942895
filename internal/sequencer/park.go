package sequencer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	ingesterr "github.com/trunkstore-lab/trunkstore/internal/core/errors"
	"github.com/trunkstore-lab/trunkstore/internal/deadletter"
)

const parkTimeout = 10 * time.Second

func queueFor(kind ingesterr.Kind) deadletter.Queue {
	switch kind {
	case ingesterr.KindHashCollision, ingesterr.KindConflict:
		return deadletter.QueueQuarantine
	default:
		return deadletter.QueueDeadLetter
	}
}

func statusFor(q deadletter.Queue) Status {
	if q == deadletter.QueueQuarantine {
		return StatusQuarantined
	}
	return StatusDeadLettered
}

// park stores every record of pl as one entry and marks them accordingly.
func (w *worker) park(pl *plan, cause error) {
	kind := ingesterr.KindOf(cause)
	if kind == 0 {
		kind = ingesterr.KindStorageUnavailable
	}

	entry := &deadletter.Entry{
		Queue:   queueFor(kind),
		Kind:    kind.String(),
		CallID:  pl.callID,
		Reason:  cause.Error(),
		Payload: pl.payload(),
	}
	var ie *ingesterr.Error
	if errors.As(cause, &ie) {
		entry.Hash = ie.Hash
	}
	if entry.Hash == 0 && pl.call == nil && pl.logs() == 1 {
		if len(pl.freqs) == 1 {
			entry.Hash = pl.freqs[0].hash
		} else {
			entry.Hash = pl.srcs[0].hash
		}
	}
	w.s.put(entry)

	st := statusFor(entry.Queue)
	if pl.call != nil {
		w.mark(KindCall, pl.callID, pl.correlationID, pl.callRep, st, cause)
	}
	for _, it := range pl.freqs {
		w.mark(KindFreq, pl.callID, it.correlationID, it.rep, st, cause)
	}
	for _, it := range pl.srcs {
		w.mark(KindSrc, pl.callID, it.correlationID, it.rep, st, cause)
	}
}

// parkEnvelope dead-letters the whole submitted payload after a reference
// lookup could not reach storage. Records already settled keep their status.
func (w *worker) parkEnvelope(env *envelope, rep *Report, cause error) {
	kind := ingesterr.KindOf(cause)
	if kind == 0 {
		kind = ingesterr.KindStorageUnavailable
	}
	w.s.put(&deadletter.Entry{
		Queue:   queueFor(kind),
		Kind:    kind.String(),
		CallID:  env.payload.CallID,
		Reason:  cause.Error(),
		Payload: *env.payload,
	})

	st := statusFor(queueFor(kind))
	if rep.Call != nil && rep.Call.Status == "" {
		w.mark(KindCall, rep.CallID, env.correlationID, rep.Call, st, cause)
	}
	for i := range rep.FreqList {
		if rep.FreqList[i].Status == "" {
			w.mark(KindFreq, rep.CallID, env.correlationID, &rep.FreqList[i], st, cause)
		}
	}
	for i := range rep.SrcList {
		if rep.SrcList[i].Status == "" {
			w.mark(KindSrc, rep.CallID, env.correlationID, &rep.SrcList[i], st, cause)
		}
	}
}

func (s *Sequencer) put(e *deadletter.Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), parkTimeout)
	defer cancel()

	if err := s.parked.Put(ctx, e); err != nil {
		slog.Error("[Sequencer] Failed to park entry, records are lost",
			"queue", e.Queue,
			"kind", e.Kind,
			"call_id", e.CallID,
			"hash", e.Hash,
			"reason", e.Reason,
			"error", err,
		)
		return
	}
	s.metrics.RecordDeadLetter(string(e.Queue), e.Kind)
}

// withRetry runs op until it succeeds, fails permanently or the storage
// retry window closes. Only StorageUnavailable errors are retried.
func (s *Sequencer) withRetry(callID string, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.opts.StorageRetryInitialInterval
	b.MaxElapsedTime = s.opts.StorageRetryMaxElapsed
	b.Reset()

	err := backoff.RetryNotify(func() error {
		err := op()
		if err != nil && !ingesterr.IsTransient(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(b, s.ctx), func(err error, next time.Duration) {
		s.metrics.RecordStorageRetry()
		slog.Warn("[Sequencer] Storage unavailable, retrying",
			"call_id", callID,
			"retry_in", next,
			"error", err,
		)
	})
	if err != nil && ingesterr.KindOf(err) == 0 && s.ctx.Err() != nil {
		return ingesterr.Wrap(ingesterr.KindStorageUnavailable, callID, err)
	}
	return err
}
