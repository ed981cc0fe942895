package sequencer

import (
	"github.com/google/uuid"

	ingesterr "github.com/trunkstore-lab/trunkstore/internal/core/errors"
)

// Status is the outcome of one record in an envelope.
type Status string

const (
	StatusStored       Status = "stored"
	StatusDuplicate    Status = "duplicate"
	StatusDeferred     Status = "deferred"
	StatusRejected     Status = "rejected"
	StatusQuarantined  Status = "quarantined"
	StatusDeadLettered Status = "deadlettered"
)

// Record kinds used in reports, logs and metrics.
const (
	KindCall = "call"
	KindFreq = "freq"
	KindSrc  = "src"
)

// ItemReport is the outcome of one record. Index is the position in the
// submitted list and Hash is zero for the call record.
type ItemReport struct {
	Index     int    `json:"index"`
	Hash      int64  `json:"hash,omitempty"`
	Status    Status `json:"status"`
	ErrorKind string `json:"error_kind,omitempty"`
	Error     string `json:"error,omitempty"`

	err error
	// detached is set on the private copy a pending record reports into
	// once the submitter's report has been delivered.
	detached bool
	hold     *tracker
}

func (r *ItemReport) set(st Status, err error) {
	r.Status = st
	r.err = err
	r.ErrorKind, r.Error = "", ""
	if err != nil {
		r.Error = err.Error()
		if k := ingesterr.KindOf(err); k != 0 {
			r.ErrorKind = k.String()
		}
	}
}

// finish releases the record's hold on its envelope once it leaves memory.
func (r *ItemReport) finish() {
	if r.hold == nil || r.Status == StatusDeferred {
		return
	}
	t := r.hold
	r.hold = nil
	t.done()
}

// Err returns the error behind a rejected, quarantined or dead-lettered record.
func (r *ItemReport) Err() error {
	return r.err
}

// Report describes what happened to every record of one envelope.
// Deferred records are settled later; their final outcome is logged and
// counted but not reported back.
type Report struct {
	CorrelationID uuid.UUID    `json:"correlation_id"`
	CallID        string       `json:"call_id"`
	Call          *ItemReport  `json:"call,omitempty"`
	FreqList      []ItemReport `json:"freq_list,omitempty"`
	SrcList       []ItemReport `json:"src_list,omitempty"`
}

func newReport(env *envelope) *Report {
	r := &Report{
		CorrelationID: env.correlationID,
		CallID:        env.payload.CallID,
		FreqList:      make([]ItemReport, len(env.payload.FreqList)),
		SrcList:       make([]ItemReport, len(env.payload.SrcList)),
	}
	if env.payload.Call != nil {
		r.Call = &ItemReport{}
	}
	for i := range r.FreqList {
		r.FreqList[i].Index = i
	}
	for i := range r.SrcList {
		r.SrcList[i].Index = i
	}
	return r
}

func (r *Report) items() []*ItemReport {
	out := make([]*ItemReport, 0, len(r.FreqList)+len(r.SrcList)+1)
	if r.Call != nil {
		out = append(out, r.Call)
	}
	for i := range r.FreqList {
		out = append(out, &r.FreqList[i])
	}
	for i := range r.SrcList {
		out = append(out, &r.SrcList[i])
	}
	return out
}

// Err returns the first failure, call record first.
func (r *Report) Err() error {
	for _, it := range r.items() {
		if it.err != nil {
			return it.err
		}
	}
	return nil
}

// Count returns how many records ended in st.
func (r *Report) Count(st Status) int {
	n := 0
	for _, it := range r.items() {
		if it.Status == st {
			n++
		}
	}
	return n
}

// Settled reports whether every record was stored or recognized as a duplicate.
func (r *Report) Settled() bool {
	for _, it := range r.items() {
		if it.Status != StatusStored && it.Status != StatusDuplicate {
			return false
		}
	}
	return true
}

// Accepted reports whether at least one record was stored, deduplicated or
// deferred.
func (r *Report) Accepted() bool {
	for _, it := range r.items() {
		switch it.Status {
		case StatusStored, StatusDuplicate, StatusDeferred:
			return true
		}
	}
	return false
}
