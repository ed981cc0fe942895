package sequencer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	v1 "github.com/trunkstore-lab/trunkstore/internal/api/v1"
	ingesterr "github.com/trunkstore-lab/trunkstore/internal/core/errors"
	"github.com/trunkstore-lab/trunkstore/internal/core/storage"
	"github.com/trunkstore-lab/trunkstore/internal/core/storage/storagetest"
	"github.com/trunkstore-lab/trunkstore/internal/deadletter"
	"github.com/trunkstore-lab/trunkstore/internal/normalize"
	"github.com/trunkstore-lab/trunkstore/internal/reference"
)

func i64(v int64) *int64     { return &v }
func f64(v float64) *float64 { return &v }

func ignoreCacheJanitor() goleak.Option {
	return goleak.IgnoreTopFunction("github.com/patrickmn/go-cache.(*janitor).Run")
}

func callRecord(filename string) *v1.CallRecord {
	return &v1.CallRecord{
		Filename:    filename,
		Freq:        i64(851012500),
		FreqError:   i64(-12),
		Signal:      i64(-55),
		Noise:       i64(-110),
		SourceNum:   i64(0),
		RecorderNum: i64(3),
		TDMASlot:    i64(0),
		Phase2TDMA:  i64(0),
		StartTime:   i64(1735732800),
		StopTime:    i64(1735732812),
		Emergency:   i64(0),
		Priority:    i64(4),
		Mode:        i64(0),
		Duplex:      i64(0),
		Encrypted:   i64(0),
		CallLength:  i64(12),
		Talkgroup:   i64(1001),
		AudioType:   "digital",
		ShortName:   "county-p25",
	}
}

func freq(pos float64) v1.FreqEntry {
	return v1.FreqEntry{
		Freq:       i64(851012500),
		Time:       i64(1735732800),
		Pos:        f64(pos),
		Len:        f64(0.5),
		ErrorCount: i64(0),
		SpikeCount: i64(0),
	}
}

func src(id int64, pos float64) v1.SrcEntry {
	return v1.SrcEntry{
		Src:       i64(id),
		Time:      i64(1735732800),
		Pos:       f64(pos),
		Emergency: i64(0),
	}
}

// fastOptions keeps both retry schedules in the millisecond range.
func fastOptions() Options {
	return Options{
		Workers:                     2,
		QueueSize:                   8,
		RetryInitialInterval:        5 * time.Millisecond,
		RetryMaxInterval:            20 * time.Millisecond,
		RetryBudget:                 3,
		RetryTick:                   2 * time.Millisecond,
		StorageRetryInitialInterval: time.Millisecond,
		StorageRetryMaxElapsed:      50 * time.Millisecond,
	}
}

// slowRetryOptions never retries pending entries within a test.
func slowRetryOptions() Options {
	opts := fastOptions()
	opts.RetryInitialInterval = time.Minute
	opts.RetryMaxInterval = time.Minute
	opts.RetryTick = time.Minute
	return opts
}

type fixture struct {
	gw     *storagetest.Gateway
	parked *deadletter.MemoryRepository
	seq    *Sequencer
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	gw := storagetest.New()
	gw.AddTalkgroup(1001)
	gw.AddSource(5001)
	parked := deadletter.NewMemoryRepository()

	seq := New(gw, reference.NewResolver(gw, time.Minute), parked, nil, opts)
	seq.Start()
	t.Cleanup(func() {
		_ = seq.Shutdown(context.Background())
	})
	return &fixture{gw: gw, parked: parked, seq: seq}
}

func (f *fixture) submit(t *testing.T, p *v1.Payload) *Report {
	t.Helper()
	r, err := f.seq.Submit(t.Context(), p)
	require.NoError(t, err)
	return r
}

func (f *fixture) parkedIn(t *testing.T, q deadletter.Queue) []*deadletter.Entry {
	t.Helper()
	entries, err := f.parked.List(context.Background(), deadletter.Filter{Queue: q})
	require.NoError(t, err)
	return entries
}

func TestSequencer_CallAndDuplicateFrequencies(t *testing.T) {
	f := newFixture(t, fastOptions())
	const id = "20250101_120000_control"

	r := f.submit(t, &v1.Payload{CallID: id, Call: callRecord(id)})
	require.Equal(t, StatusStored, r.Call.Status)
	require.NotEqual(t, uuid.Nil, r.CorrelationID)

	r = f.submit(t, &v1.Payload{CallID: id, FreqList: []v1.FreqEntry{freq(1), freq(1)}})
	require.Equal(t, StatusStored, r.FreqList[0].Status)
	require.Equal(t, StatusDuplicate, r.FreqList[1].Status)
	require.Equal(t, r.FreqList[0].Hash, r.FreqList[1].Hash)

	r = f.submit(t, &v1.Payload{CallID: id, FreqList: []v1.FreqEntry{freq(2)}})
	require.Equal(t, StatusStored, r.FreqList[0].Status)

	calls, freqs, srcs := f.gw.Counts()
	require.Equal(t, 1, calls)
	require.Equal(t, 2, freqs)
	require.Equal(t, 0, srcs)

	// redelivery of everything is a no-op
	r = f.submit(t, &v1.Payload{CallID: id, Call: callRecord(id), FreqList: []v1.FreqEntry{freq(1), freq(2)}})
	require.Equal(t, StatusDuplicate, r.Call.Status)
	require.Equal(t, StatusDuplicate, r.FreqList[0].Status)
	require.Equal(t, StatusDuplicate, r.FreqList[1].Status)
	require.True(t, r.Settled())

	calls, freqs, _ = f.gw.Counts()
	require.Equal(t, 1, calls)
	require.Equal(t, 2, freqs)
}

func TestSequencer_UnknownSourceRejected(t *testing.T) {
	f := newFixture(t, fastOptions())

	r := f.submit(t, &v1.Payload{CallID: "X", SrcList: []v1.SrcEntry{src(9999, 1)}})
	require.Equal(t, StatusRejected, r.SrcList[0].Status)
	require.ErrorIs(t, r.SrcList[0].Err(), ingesterr.ErrReferenceNotFound)
	require.ErrorIs(t, r.Err(), ingesterr.ErrReferenceNotFound)
	require.Equal(t, "ReferenceNotFound", r.SrcList[0].ErrorKind)
	require.False(t, r.Accepted())

	calls, freqs, srcs := f.gw.Counts()
	require.Zero(t, calls+freqs+srcs)
	require.Zero(t, f.seq.Pending())
	require.Empty(t, f.parkedIn(t, ""))
}

func TestSequencer_EntriesBeforeCallAreDeferred(t *testing.T) {
	f := newFixture(t, slowRetryOptions())
	const id = "late-call"

	r := f.submit(t, &v1.Payload{
		CallID:   id,
		FreqList: []v1.FreqEntry{freq(1), freq(2)},
		SrcList:  []v1.SrcEntry{src(5001, 1)},
	})
	require.Equal(t, 3, r.Count(StatusDeferred))
	require.True(t, r.Accepted())
	require.False(t, r.Settled())
	require.Equal(t, 3, f.seq.Pending())

	// a redelivered pending entry is recognized
	r = f.submit(t, &v1.Payload{CallID: id, FreqList: []v1.FreqEntry{freq(1)}})
	require.Equal(t, StatusDuplicate, r.FreqList[0].Status)
	require.Equal(t, 3, f.seq.Pending())

	r = f.submit(t, &v1.Payload{CallID: id, Call: callRecord(id)})
	require.Equal(t, StatusStored, r.Call.Status)

	calls, freqs, srcs := f.gw.Counts()
	require.Equal(t, 1, calls)
	require.Equal(t, 2, freqs)
	require.Equal(t, 1, srcs)
	require.Zero(t, f.seq.Pending())
}

func TestSequencer_NotifyReleasesPending(t *testing.T) {
	f := newFixture(t, slowRetryOptions())
	const id = "committed-elsewhere"

	r := f.submit(t, &v1.Payload{CallID: id, FreqList: []v1.FreqEntry{freq(1)}})
	require.Equal(t, StatusDeferred, r.FreqList[0].Status)

	call, err := normalize.Call(callRecord(id))
	require.NoError(t, err)
	_, err = f.gw.WriteBatch(context.Background(), &storage.Batch{CallID: id, Call: &call})
	require.NoError(t, err)

	f.seq.NotifyCallCommitted(id)

	require.Eventually(t, func() bool {
		return len(f.gw.Freqs(id)) == 1 && f.seq.Pending() == 0
	}, time.Second, 5*time.Millisecond)
}

func TestSequencer_PendingRetryFindsCall(t *testing.T) {
	f := newFixture(t, fastOptions())
	const id = "found-on-retry"

	r := f.submit(t, &v1.Payload{CallID: id, SrcList: []v1.SrcEntry{src(5001, 3)}})
	require.Equal(t, StatusDeferred, r.SrcList[0].Status)

	call, err := normalize.Call(callRecord(id))
	require.NoError(t, err)
	_, err = f.gw.WriteBatch(context.Background(), &storage.Batch{CallID: id, Call: &call})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(f.gw.Srcs(id)) == 1
	}, time.Second, 5*time.Millisecond)
	require.Empty(t, f.parkedIn(t, ""))
}

func TestSequencer_DeferredWriteFailureIsDeadLettered(t *testing.T) {
	f := newFixture(t, fastOptions())
	const id = "never-arrives"

	r := f.submit(t, &v1.Payload{CallID: id, FreqList: []v1.FreqEntry{freq(1)}})
	require.Equal(t, StatusDeferred, r.FreqList[0].Status)

	require.Eventually(t, func() bool {
		return len(f.parkedIn(t, deadletter.QueueDeadLetter)) == 1
	}, time.Second, 5*time.Millisecond)

	e := f.parkedIn(t, deadletter.QueueDeadLetter)[0]
	require.Equal(t, "DeferredWriteFailure", e.Kind)
	require.Equal(t, id, e.CallID)
	require.Equal(t, r.FreqList[0].Hash, e.Hash)
	require.Len(t, e.Payload.FreqList, 1)
	require.Nil(t, e.Payload.Call)
	require.Zero(t, f.seq.Pending())

	_, freqs, _ := f.gw.Counts()
	require.Zero(t, freqs)
}

func TestSequencer_HashCollisionIsQuarantined(t *testing.T) {
	f := newFixture(t, fastOptions())
	const id = "collide"

	f.submit(t, &v1.Payload{CallID: id, Call: callRecord(id), FreqList: []v1.FreqEntry{freq(1)}})

	changed := freq(1)
	changed.Len = f64(9)
	r := f.submit(t, &v1.Payload{CallID: id, FreqList: []v1.FreqEntry{changed}})
	require.Equal(t, StatusQuarantined, r.FreqList[0].Status)
	require.ErrorIs(t, r.FreqList[0].Err(), ingesterr.ErrHashCollision)

	// same hash twice in one payload with different bodies
	other := freq(3)
	other.ErrorCount = i64(2)
	r = f.submit(t, &v1.Payload{CallID: id, FreqList: []v1.FreqEntry{freq(3), other}})
	require.Equal(t, StatusStored, r.FreqList[0].Status)
	require.Equal(t, StatusQuarantined, r.FreqList[1].Status)

	q := f.parkedIn(t, deadletter.QueueQuarantine)
	require.Len(t, q, 2)
	for _, e := range q {
		require.Equal(t, "HashCollisionError", e.Kind)
		require.NotZero(t, e.Hash)
		require.Len(t, e.Payload.FreqList, 1)
	}

	stored := f.gw.Freqs(id)
	require.Len(t, stored, 2)
	for _, e := range stored {
		require.Equal(t, 500*time.Millisecond, e.Len)
		require.Zero(t, e.ErrorCount)
	}
}

func TestSequencer_DivergentCallIsQuarantined(t *testing.T) {
	f := newFixture(t, fastOptions())
	const id = "conflict"

	f.submit(t, &v1.Payload{CallID: id, Call: callRecord(id)})

	divergent := callRecord(id)
	divergent.Priority = i64(9)
	r := f.submit(t, &v1.Payload{CallID: id, Call: divergent, FreqList: []v1.FreqEntry{freq(1)}})
	require.Equal(t, StatusQuarantined, r.Call.Status)
	require.Equal(t, StatusQuarantined, r.FreqList[0].Status)
	require.ErrorIs(t, r.Err(), ingesterr.ErrConflict)

	q := f.parkedIn(t, deadletter.QueueQuarantine)
	require.Len(t, q, 1)
	require.Equal(t, "ConflictError", q[0].Kind)
	require.NotNil(t, q[0].Payload.Call)
	require.Equal(t, int64(9), *q[0].Payload.Call.Priority)

	stored, ok := f.gw.Call(id)
	require.True(t, ok)
	require.Equal(t, int16(4), stored.Priority)
	_, freqs, _ := f.gw.Counts()
	require.Zero(t, freqs)
}

func TestSequencer_RejectsInvalidRecords(t *testing.T) {
	f := newFixture(t, fastOptions())

	unknownType := callRecord("bad-audio")
	unknownType.AudioType = "fm"
	r := f.submit(t, &v1.Payload{CallID: "bad-audio", Call: unknownType})
	require.Equal(t, StatusRejected, r.Call.Status)
	require.ErrorIs(t, r.Err(), ingesterr.ErrUnknownAudioType)

	unknownTG := callRecord("bad-tg")
	unknownTG.Talkgroup = i64(4242)
	r = f.submit(t, &v1.Payload{CallID: "bad-tg", Call: unknownTG})
	require.Equal(t, StatusRejected, r.Call.Status)
	require.ErrorIs(t, r.Err(), ingesterr.ErrReferenceNotFound)

	mismatch := callRecord("other-name")
	r = f.submit(t, &v1.Payload{CallID: "bad-name", Call: mismatch})
	require.ErrorIs(t, r.Err(), ingesterr.ErrValidation)

	broken := freq(1)
	broken.Pos = nil
	r = f.submit(t, &v1.Payload{CallID: "bad-freq", FreqList: []v1.FreqEntry{broken}})
	require.Equal(t, StatusRejected, r.FreqList[0].Status)
	require.ErrorIs(t, r.Err(), ingesterr.ErrValidation)

	calls, freqs, srcs := f.gw.Counts()
	require.Zero(t, calls+freqs+srcs)
	require.Zero(t, f.seq.Pending())
}

func TestSequencer_TransientStorageFailureIsRetried(t *testing.T) {
	f := newFixture(t, fastOptions())
	const id = "flaky"

	f.gw.FailWrites(ingesterr.Wrap(ingesterr.KindStorageUnavailable, id, errors.New("connection refused")))

	r := f.submit(t, &v1.Payload{CallID: id, Call: callRecord(id)})
	require.Equal(t, StatusStored, r.Call.Status)
	require.Equal(t, 2, f.gw.Writes())
}

func TestSequencer_StorageOutageIsDeadLettered(t *testing.T) {
	f := newFixture(t, fastOptions())
	const id = "outage"

	outage := make([]error, 1000)
	for i := range outage {
		outage[i] = ingesterr.Wrap(ingesterr.KindStorageUnavailable, id, errors.New("connection reset"))
	}
	f.gw.FailWrites(outage...)

	r := f.submit(t, &v1.Payload{CallID: id, Call: callRecord(id), FreqList: []v1.FreqEntry{freq(1)}})
	require.Equal(t, StatusDeadLettered, r.Call.Status)
	require.Equal(t, StatusDeadLettered, r.FreqList[0].Status)
	require.ErrorIs(t, r.Err(), ingesterr.ErrStorageUnavailable)
	require.Greater(t, f.gw.Writes(), 1)

	dl := f.parkedIn(t, deadletter.QueueDeadLetter)
	require.Len(t, dl, 1)
	require.Equal(t, "StorageUnavailable", dl[0].Kind)
	require.NotNil(t, dl[0].Payload.Call)
	require.Len(t, dl[0].Payload.FreqList, 1)
}

func TestSequencer_UpsertFromPayload(t *testing.T) {
	opts := fastOptions()
	opts.UpsertFromPayload = true
	f := newFixture(t, opts)
	const id = "self-describing"

	rec := callRecord(id)
	rec.Talkgroup = i64(2002)
	rec.TalkgroupTag = "Ops"
	withTag := src(6006, 1)
	withTag.Tag = "Engine 6"

	r := f.submit(t, &v1.Payload{CallID: id, Call: rec, SrcList: []v1.SrcEntry{withTag}})
	require.True(t, r.Settled(), "report: %+v", r)

	ok, err := f.gw.TalkgroupExists(context.Background(), 2002)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, f.gw.Srcs(id), 1)
}

func TestSequencer_ReplayFromDeadLetter(t *testing.T) {
	f := newFixture(t, fastOptions())
	const id = "replayed"

	f.submit(t, &v1.Payload{CallID: id, FreqList: []v1.FreqEntry{freq(1)}})
	require.Eventually(t, func() bool {
		return len(f.parkedIn(t, deadletter.QueueDeadLetter)) == 1
	}, time.Second, 5*time.Millisecond)
	parked := f.parkedIn(t, deadletter.QueueDeadLetter)[0]

	f.submit(t, &v1.Payload{CallID: id, Call: callRecord(id)})

	res, err := deadletter.NewService(f.parked).Replay(t.Context(), parked.ID, f.seq)
	require.NoError(t, err)
	require.True(t, res.Settled)
	require.Len(t, f.gw.Freqs(id), 1)
	require.Empty(t, f.parkedIn(t, ""))
}

func TestSequencer_ConcurrentCalls(t *testing.T) {
	opts := fastOptions()
	opts.Workers = 4
	f := newFixture(t, opts)

	const n = 40
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("call-%03d", i)
			// log entries first for half of the calls
			if i%2 == 0 {
				if _, err := f.seq.Enqueue(t.Context(), &v1.Payload{CallID: id, FreqList: []v1.FreqEntry{freq(1), freq(2)}}); err != nil {
					errs <- err
					return
				}
			}
			r, err := f.seq.Submit(t.Context(), &v1.Payload{CallID: id, Call: callRecord(id), FreqList: []v1.FreqEntry{freq(2)}})
			if err != nil {
				errs <- err
				return
			}
			if r.Call.Status != StatusStored {
				errs <- fmt.Errorf("%s: call %s", id, r.Call.Status)
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	calls, freqs, _ := f.gw.Counts()
	require.Equal(t, n, calls)
	require.Equal(t, n+n/2, freqs)
	require.Zero(t, f.seq.Pending())
}

func TestSequencer_SubmitBeforeStartAndAfterShutdown(t *testing.T) {
	gw := storagetest.New()
	seq := New(gw, reference.NewResolver(gw, time.Minute), deadletter.NewMemoryRepository(), nil, fastOptions())

	_, err := seq.Submit(t.Context(), &v1.Payload{CallID: "c1", Call: callRecord("c1")})
	require.ErrorIs(t, err, ErrNotStarted)

	_, err = seq.Submit(t.Context(), &v1.Payload{})
	require.Error(t, err)

	seq.Start()
	require.NoError(t, seq.Shutdown(context.Background()))

	_, err = seq.Enqueue(t.Context(), &v1.Payload{CallID: "c1", Call: callRecord("c1")})
	require.ErrorIs(t, err, ErrStopped)
	require.NoError(t, seq.Shutdown(context.Background()))
}

func TestSequencer_ShutdownDrainsAndParksPending(t *testing.T) {
	defer goleak.VerifyNone(t, ignoreCacheJanitor())

	gw := storagetest.New()
	gw.AddTalkgroup(1001)
	parked := deadletter.NewMemoryRepository()
	seq := New(gw, reference.NewResolver(gw, time.Minute), parked, nil, slowRetryOptions())
	seq.Start()

	ctx := context.Background()
	_, err := seq.Enqueue(ctx, &v1.Payload{CallID: "orphan", FreqList: []v1.FreqEntry{freq(1), freq(2)}})
	require.NoError(t, err)
	_, err = seq.Enqueue(ctx, &v1.Payload{CallID: "complete", Call: callRecord("complete")})
	require.NoError(t, err)

	require.NoError(t, seq.Shutdown(ctx))

	calls, freqs, _ := gw.Counts()
	require.Equal(t, 1, calls)
	require.Zero(t, freqs)

	entries, err := parked.List(ctx, deadletter.Filter{Queue: deadletter.QueueDeadLetter})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "orphan", entries[0].CallID)
	require.Equal(t, "DeferredWriteFailure", entries[0].Kind)
	require.Len(t, entries[0].Payload.FreqList, 2)
	require.Zero(t, seq.Pending())
}

// blockWorker fills the only worker of f: the first envelope is stalled in
// WriteBatch and the second occupies the single queue slot.
func blockWorker(t *testing.T, seq *Sequencer, gw *storagetest.Gateway) {
	t.Helper()
	_, err := seq.Enqueue(t.Context(), &v1.Payload{CallID: "first", Call: callRecord("first")})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return gw.Writes() == 1 }, time.Second, time.Millisecond)

	_, err = seq.Enqueue(t.Context(), &v1.Payload{CallID: "second", Call: callRecord("second")})
	require.NoError(t, err)
}

func TestSequencer_FullQueueBlocksProducers(t *testing.T) {
	opts := fastOptions()
	opts.Workers = 1
	opts.QueueSize = 1
	f := newFixture(t, opts)
	release := f.gw.Hold()
	defer release()

	blockWorker(t, f.seq, f.gw)
	third := &v1.Payload{CallID: "third", Call: callRecord("third")}

	ctx, cancel := context.WithTimeout(t.Context(), 30*time.Millisecond)
	defer cancel()
	_, err := f.seq.Enqueue(ctx, third)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	cancelled, cancelNow := context.WithCancel(t.Context())
	cancelNow()
	_, err = f.seq.Submit(cancelled, third)
	require.ErrorIs(t, err, context.Canceled)

	done := make(chan error, 1)
	go func() {
		_, err := f.seq.Submit(t.Context(), third)
		done <- err
	}()
	select {
	case err := <-done:
		t.Fatalf("submit returned while the queue was full: %v", err)
	case <-time.After(20 * time.Millisecond):
	}

	release()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("submit still blocked after the worker was released")
	}

	calls, _, _ := f.gw.Counts()
	require.Equal(t, 3, calls)
}

func TestSequencer_ShutdownReleasesBlockedProducers(t *testing.T) {
	opts := fastOptions()
	opts.Workers = 1
	opts.QueueSize = 1
	opts.StorageRetryMaxElapsed = time.Minute

	gw := storagetest.New()
	gw.AddTalkgroup(1001)
	seq := New(gw, reference.NewResolver(gw, time.Minute), deadletter.NewMemoryRepository(), nil, opts)
	seq.Start()
	release := gw.Hold()
	defer release()

	blockWorker(t, seq, gw)

	blocked := make(chan error, 1)
	go func() {
		_, err := seq.Enqueue(context.Background(), &v1.Payload{CallID: "third", Call: callRecord("third")})
		blocked <- err
	}()
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	err := seq.Shutdown(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), time.Second)

	select {
	case err := <-blocked:
		require.ErrorIs(t, err, ErrStopped)
	case <-time.After(time.Second):
		t.Fatal("producer still blocked after shutdown")
	}
}

func TestSequencer_SubmitTrackedSettlesWhenDeferredEntriesLeaveMemory(t *testing.T) {
	f := newFixture(t, slowRetryOptions())
	const id = "tracked"

	settled := make(chan string, 4)
	hook := func(name string) func() {
		return func() { settled <- name }
	}

	deferred, err := f.seq.SubmitTracked(t.Context(),
		&v1.Payload{CallID: id, FreqList: []v1.FreqEntry{freq(1)}}, hook("deferred"))
	require.NoError(t, err)
	require.Equal(t, StatusDeferred, deferred.FreqList[0].Status)
	require.Zero(t, len(settled))

	// committing the call releases the deferred entry in the same pass, and
	// a report without deferred records settles before it is returned
	r, err := f.seq.SubmitTracked(t.Context(), &v1.Payload{CallID: id, Call: callRecord(id)}, hook("call"))
	require.NoError(t, err)
	require.Equal(t, StatusStored, r.Call.Status)
	require.Len(t, f.gw.Freqs(id), 1)
	require.Equal(t, 2, len(settled))
	require.ElementsMatch(t, []string{"deferred", "call"}, []string{<-settled, <-settled})

	// the delivered report is not rewritten once the entry is stored
	require.Equal(t, StatusDeferred, deferred.FreqList[0].Status)

	// entries parked at shutdown settle too
	_, err = f.seq.SubmitTracked(t.Context(),
		&v1.Payload{CallID: "orphan", SrcList: []v1.SrcEntry{src(5001, 1)}}, hook("orphan"))
	require.NoError(t, err)
	require.Zero(t, len(settled))

	require.NoError(t, f.seq.Shutdown(context.Background()))
	require.Equal(t, "orphan", <-settled)
	require.Len(t, f.parkedIn(t, deadletter.QueueDeadLetter), 1)
}
