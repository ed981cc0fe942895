package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineMetrics_Record(t *testing.T) {
	registry := prometheus.NewRegistry()
	m, err := NewPipelineMetrics(registry)
	require.NoError(t, err)

	m.RecordOutcome("freq", "stored")
	m.RecordOutcome("freq", "stored")
	m.RecordOutcome("src", "deferred")
	m.SetPending(7)
	m.RecordDeadLetter("quarantine", "HashCollisionError")
	m.RecordStorageRetry()
	m.RecordOutOfOrder("freq")
	m.SetQueueDepth("0", 3)
	m.RecordFeedMessage("acked")
	m.ObserveBatchWrite(20*time.Millisecond, nil)
	m.ObserveBatchWrite(time.Second, errors.New("boom"))

	assert.Equal(t, float64(2), testutil.ToFloat64(m.recordsTotal.WithLabelValues("freq", "stored")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.recordsTotal.WithLabelValues("src", "deferred")))
	assert.Equal(t, float64(7), testutil.ToFloat64(m.pendingEntries))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.deadLettersTotal.WithLabelValues("quarantine", "HashCollisionError")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.storageRetries))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.outOfOrderTotal.WithLabelValues("freq")))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.queueDepth.WithLabelValues("0")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.feedMessagesTotal.WithLabelValues("acked")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.batchWriteDuration))
}

func TestPipelineMetrics_DoubleRegisterFails(t *testing.T) {
	registry := prometheus.NewRegistry()
	_, err := NewPipelineMetrics(registry)
	require.NoError(t, err)

	_, err = NewPipelineMetrics(registry)
	require.Error(t, err)
}

func TestPipelineMetrics_NilIsNoop(t *testing.T) {
	var m *PipelineMetrics
	assert.NotPanics(t, func() {
		m.RecordOutcome("call", "stored")
		m.SetPending(1)
		m.RecordDeadLetter("deadletter", "StorageUnavailable")
		m.RecordStorageRetry()
		m.ObserveBatchWrite(time.Millisecond, nil)
		m.RecordOutOfOrder("src")
		m.SetQueueDepth("1", 0)
		m.RecordFeedMessage("failed")
	})
}
