package deadletter

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	v1 "github.com/trunkstore-lab/trunkstore/internal/api/v1"
)

func i64(v int64) *int64 { return &v }

func sampleEntry(q Queue, callID string, at time.Time) *Entry {
	pos := 1.5
	return &Entry{
		Queue:     q,
		Kind:      "DeferredWriteFailure",
		CallID:    callID,
		Reason:    "parent call never arrived",
		CreatedAt: at,
		Payload: v1.Payload{
			CallID: callID,
			FreqList: []v1.FreqEntry{
				{Freq: i64(851012500), Time: i64(1735732800), Pos: &pos, Len: &pos, ErrorCount: i64(0), SpikeCount: i64(0)},
			},
		},
	}
}

func repositories(t *testing.T) map[string]Repository {
	fs, err := NewFileSystemRepository(t.TempDir())
	require.NoError(t, err)
	return map[string]Repository{
		"memory":     NewMemoryRepository(),
		"filesystem": fs,
	}
}

func TestRepository_RoundTrip(t *testing.T) {
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	for name, repo := range repositories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			first := sampleEntry(QueueDeadLetter, "c1", base)
			second := sampleEntry(QueueQuarantine, "c2", base.Add(time.Second))
			second.Hash = -77
			third := sampleEntry(QueueDeadLetter, "c3", base.Add(2*time.Second))

			require.NoError(t, repo.Put(ctx, third))
			require.NoError(t, repo.Put(ctx, first))
			require.NoError(t, repo.Put(ctx, second))
			require.NotEqual(t, uuid.Nil, first.ID)

			got, err := repo.Get(ctx, second.ID)
			require.NoError(t, err)
			require.Equal(t, QueueQuarantine, got.Queue)
			require.Equal(t, int64(-77), got.Hash)
			require.Equal(t, "c2", got.Payload.CallID)
			require.Len(t, got.Payload.FreqList, 1)
			require.Equal(t, int64(851012500), *got.Payload.FreqList[0].Freq)
			require.InDelta(t, 1.5, *got.Payload.FreqList[0].Pos, 1e-9)
			require.True(t, base.Add(time.Second).Equal(got.CreatedAt))

			all, err := repo.List(ctx, Filter{})
			require.NoError(t, err)
			require.Len(t, all, 3)
			require.Equal(t, []string{"c1", "c2", "c3"}, []string{all[0].CallID, all[1].CallID, all[2].CallID})

			dl, err := repo.List(ctx, Filter{Queue: QueueDeadLetter})
			require.NoError(t, err)
			require.Len(t, dl, 2)

			byCall, err := repo.List(ctx, Filter{CallID: "c3"})
			require.NoError(t, err)
			require.Len(t, byCall, 1)

			require.NoError(t, repo.Delete(ctx, first.ID))
			_, err = repo.Get(ctx, first.ID)
			require.ErrorIs(t, err, ErrNotFound)
			require.ErrorIs(t, repo.Delete(ctx, first.ID), ErrNotFound)
		})
	}
}

func TestFileSystemRepository_SkipsCorruptFiles(t *testing.T) {
	root := t.TempDir()
	repo, err := NewFileSystemRepository(root)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "deadletter", "broken.yaml"), []byte(":\n\t- not yaml"), 0o644))
	require.NoError(t, repo.Put(context.Background(), sampleEntry(QueueDeadLetter, "c1", time.Now())))

	entries, err := repo.List(context.Background(), Filter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

type fakeResubmitter struct {
	settled bool
	err     error
	got     []*v1.Payload
}

func (f *fakeResubmitter) Resubmit(_ context.Context, p *v1.Payload) (bool, error) {
	f.got = append(f.got, p)
	return f.settled, f.err
}

func TestService_Replay(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	svc := NewService(repo)

	e := sampleEntry(QueueDeadLetter, "c1", time.Now())
	require.NoError(t, repo.Put(ctx, e))

	failing := &fakeResubmitter{err: errors.New("pipeline stopped")}
	_, err := svc.Replay(ctx, e.ID, failing)
	require.Error(t, err)
	_, err = repo.Get(ctx, e.ID)
	require.NoError(t, err, "entry must survive a failed replay")

	ok := &fakeResubmitter{settled: true}
	res, err := svc.Replay(ctx, e.ID, ok)
	require.NoError(t, err)
	require.True(t, res.Settled)
	require.Len(t, ok.got, 1)
	require.Equal(t, "c1", ok.got[0].CallID)

	_, err = repo.Get(ctx, e.ID)
	require.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Replay(ctx, uuid.New(), ok)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestService_ListRejectsUnknownQueue(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	_, err := svc.List(context.Background(), Filter{Queue: "bogus"})
	require.Error(t, err)

	require.ErrorIs(t, svc.Discard(context.Background(), uuid.New()), ErrNotFound)
}
