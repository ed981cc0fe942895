package sequencer

import "sync/atomic"

// tracker calls fn once every record of an envelope has been written,
// rejected or parked. The envelope itself holds one reference until its
// report is ready; each deferred record holds another.
type tracker struct {
	refs atomic.Int64
	fn   func()
}

func newTracker(fn func()) *tracker {
	t := &tracker{fn: fn}
	t.refs.Store(1)
	return t
}

func (t *tracker) add() {
	t.refs.Add(1)
}

func (t *tracker) done() {
	if t.refs.Add(-1) == 0 {
		t.fn()
	}
}

// detach moves a deferred record onto a private report. The submitter's
// report is delivered before the record settles and must not change after.
func detach(r *ItemReport, t *tracker) *ItemReport {
	if r.detached {
		return r
	}
	c := &ItemReport{Index: r.Index, Hash: r.Hash, Status: r.Status, detached: true}
	if t != nil {
		t.add()
		c.hold = t
	}
	return c
}
