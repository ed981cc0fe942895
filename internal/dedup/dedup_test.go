package dedup

import (
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	v1 "github.com/trunkstore-lab/trunkstore/internal/api/v1"
	ingesterr "github.com/trunkstore-lab/trunkstore/internal/core/errors"
	"github.com/trunkstore-lab/trunkstore/internal/normalize"
)

func i64(v int64) *int64     { return &v }
func f64(v float64) *float64 { return &v }

func freq(t, f int64, pos float64) v1.FreqEntry {
	return v1.FreqEntry{Freq: i64(f), Time: i64(t), Pos: f64(pos), Len: f64(0.5), ErrorCount: i64(0), SpikeCount: i64(0)}
}

func TestHash_Stable(t *testing.T) {
	ts := time.Unix(1735732800, 0).UTC()
	h := Hash("call-a", ts, 1500*time.Millisecond)

	for i := 0; i < 50; i++ {
		require.Equal(t, h, Hash("call-a", ts.In(time.FixedZone("X", 7200)), 1500*time.Millisecond))
	}
	require.NotEqual(t, h, Hash("call-b", ts, 1500*time.Millisecond))
	require.NotEqual(t, h, Hash("call-a", ts.Add(time.Second), 1500*time.Millisecond))
	require.NotEqual(t, h, Hash("call-a", ts, 1501*time.Millisecond))
}

// The hash is a stored primary key, so its encoding must never change.
func TestHash_KnownValues(t *testing.T) {
	ts := time.Unix(1735732800, 0)
	require.Equal(t, int64(-2253444413481685782), Hash("20250101_120000_control", ts, time.Second))
	require.Equal(t, int64(3296963851259365551),
		Hash("p25/2025/01/01/1001-1735732800_851012500.0-call_1.m4a", ts, 500*time.Millisecond))
}

func TestHash_LengthPrefixSeparatesFields(t *testing.T) {
	ts := time.Unix(0, 0)
	require.NotEqual(t, Hash("ab", ts, 0), Hash("a", ts, 0))
}

func TestHash_Distribution(t *testing.T) {
	ts := time.Unix(1735732800, 0)
	seen := make(map[int64]struct{})
	for i := 0; i < 10000; i++ {
		seen[Hash("call-"+strconv.Itoa(i%10), ts, time.Duration(i)*time.Millisecond)] = struct{}{}
	}
	require.Len(t, seen, 10000)
}

func TestCheckAlgorithm(t *testing.T) {
	require.NoError(t, CheckAlgorithm("xxh64"))
	require.Error(t, CheckAlgorithm("fnv"))
}

func TestFrequencies_IdenticalRepeatIsDuplicate(t *testing.T) {
	items := Frequencies("c1", []v1.FreqEntry{
		freq(1735732800, 851012500, 0),
		freq(1735732800, 851012500, 0),
		freq(1735732801, 851012500, 1.25),
	})

	require.Len(t, items, 3)
	require.Equal(t, Ready, items[0].Outcome)
	require.Equal(t, Duplicate, items[1].Outcome)
	require.Equal(t, Ready, items[2].Outcome)
	require.Equal(t, items[0].Entry.Hash, items[1].Entry.Hash)
	require.Equal(t, 1250*time.Millisecond, items[2].Entry.Pos)
	require.Equal(t, 2, items[2].Index)
}

func TestFrequencies_SameHashDifferentPayloadCollides(t *testing.T) {
	a := freq(1735732800, 851012500, 0)
	b := freq(1735732800, 851037500, 0)

	items := Frequencies("c1", []v1.FreqEntry{a, b})
	require.Equal(t, Ready, items[0].Outcome)
	require.Equal(t, Rejected, items[1].Outcome)
	require.ErrorIs(t, items[1].Err, ingesterr.ErrHashCollision)

	var ie *ingesterr.Error
	require.True(t, errors.As(items[1].Err, &ie))
	require.Equal(t, items[0].Entry.Hash, ie.Hash)
}

func TestFrequencies_InvalidEntryRejected(t *testing.T) {
	bad := freq(1735732800, 851012500, 0)
	bad.SpikeCount = i64(-1)
	neg := freq(1735732800, 851012500, -0.5)

	items := Frequencies("c1", []v1.FreqEntry{bad, neg, {}})
	for _, it := range items {
		require.Equal(t, Rejected, it.Outcome)
		require.ErrorIs(t, it.Err, ingesterr.ErrValidation)
	}
}

func TestFrequencies_TimeBeyondYear9999Rejected(t *testing.T) {
	// 1<<58 seconds apart, the microsecond timestamps would wrap to the same value
	wrapped := freq(1+1<<58, 851012500, 0)

	items := Frequencies("c1", []v1.FreqEntry{freq(1, 851012500, 0), wrapped})
	require.Equal(t, Ready, items[0].Outcome)
	require.Equal(t, Rejected, items[1].Outcome)
	require.ErrorIs(t, items[1].Err, ingesterr.ErrValidation)
	require.NotErrorIs(t, items[1].Err, ingesterr.ErrHashCollision)

	last := freq(normalize.MaxEpochSeconds, 851012500, 0)
	require.Equal(t, Ready, Frequencies("c1", []v1.FreqEntry{last})[0].Outcome)
}

func TestSources_ShapeAndDedup(t *testing.T) {
	raws := []v1.SrcEntry{
		{Src: i64(7001), Time: i64(1735732800), Pos: f64(0.25), Emergency: i64(1), SignalSystem: "P25"},
		{Src: i64(7001), Time: i64(1735732800), Pos: f64(0.25), Emergency: i64(1), SignalSystem: "P25"},
		{Src: i64(7002), Time: i64(1735732800), Pos: f64(0.25), Emergency: i64(0)},
		{Src: i64(7003), Time: i64(1735732802), Pos: f64(2), Emergency: i64(3)},
	}

	items := Sources("c1", raws)
	require.Equal(t, Ready, items[0].Outcome)
	require.True(t, items[0].Entry.Emergency)
	require.Equal(t, "P25", *items[0].Entry.SignalSystem)
	require.Equal(t, Duplicate, items[1].Outcome)
	require.Equal(t, Rejected, items[2].Outcome)
	require.ErrorIs(t, items[2].Err, ingesterr.ErrHashCollision)
	require.Equal(t, Rejected, items[3].Outcome)
	require.ErrorIs(t, items[3].Err, ingesterr.ErrValidation)
}

func TestOrderTracker(t *testing.T) {
	tr := NewOrderTracker(time.Minute)

	require.True(t, tr.Observe("freq", "c1", time.Second))
	require.True(t, tr.Observe("freq", "c1", 2*time.Second))
	require.False(t, tr.Observe("freq", "c1", time.Second))
	require.True(t, tr.Observe("freq", "c1", 2*time.Second))
	require.True(t, tr.Observe("src", "c1", 0))
	require.True(t, tr.Observe("freq", "c2", 0))
}
