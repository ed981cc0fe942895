// Package metrics provides Prometheus metrics for the ingestion pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics contains Prometheus metrics for the ingestion pipeline.
// A nil *PipelineMetrics is valid and records nothing.
type PipelineMetrics struct {
	registry *prometheus.Registry

	recordsTotal       *prometheus.CounterVec
	pendingEntries     prometheus.Gauge
	deadLettersTotal   *prometheus.CounterVec
	storageRetries     prometheus.Counter
	batchWriteDuration *prometheus.HistogramVec
	outOfOrderTotal    *prometheus.CounterVec
	queueDepth         *prometheus.GaugeVec
	feedMessagesTotal  *prometheus.CounterVec

	collectors []prometheus.Collector
}

// NewPipelineMetrics creates and registers the pipeline metrics.
func NewPipelineMetrics(registry *prometheus.Registry) (*PipelineMetrics, error) {
	m := &PipelineMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *PipelineMetrics) initMetrics() {
	m.recordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trunkstore_records_total",
			Help: "Records processed by the pipeline",
		},
		[]string{"kind", "status"}, // kind: call, freq, src; status: stored, duplicate, deferred, rejected, quarantined, deadlettered
	)

	m.pendingEntries = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "trunkstore_pending_entries",
		Help: "Log entries buffered while waiting for their call row",
	})

	m.deadLettersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trunkstore_deadletters_total",
			Help: "Entries parked in the dead-letter or quarantine queue",
		},
		[]string{"queue", "kind"},
	)

	m.storageRetries = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "trunkstore_storage_retries_total",
		Help: "Batch writes retried after a transient storage failure",
	})

	m.batchWriteDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trunkstore_batch_write_duration_seconds",
			Help:    "Time taken to write one batch transaction",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~16s
		},
		[]string{"result"},
	)

	m.outOfOrderTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trunkstore_out_of_order_total",
			Help: "Log entries that arrived with a position before an earlier one",
		},
		[]string{"stream"},
	)

	m.queueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "trunkstore_worker_queue_depth",
			Help: "Envelopes waiting in each worker queue",
		},
		[]string{"worker"},
	)

	m.feedMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trunkstore_feed_messages_total",
			Help: "Messages consumed from the Redis stream feed",
		},
		[]string{"result"}, // acked, invalid, failed
	)

	m.collectors = []prometheus.Collector{
		m.recordsTotal,
		m.pendingEntries,
		m.deadLettersTotal,
		m.storageRetries,
		m.batchWriteDuration,
		m.outOfOrderTotal,
		m.queueDepth,
		m.feedMessagesTotal,
	}
}

// Describe implements the Collector interface
func (m *PipelineMetrics) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range m.collectors {
		collector.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *PipelineMetrics) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range m.collectors {
		collector.Collect(ch)
	}
}

// RecordOutcome counts one record of kind reaching status.
func (m *PipelineMetrics) RecordOutcome(kind, status string) {
	if m == nil {
		return
	}
	m.recordsTotal.WithLabelValues(kind, status).Inc()
}

// SetPending sets the number of buffered log entries.
func (m *PipelineMetrics) SetPending(n int) {
	if m == nil {
		return
	}
	m.pendingEntries.Set(float64(n))
}

// RecordDeadLetter counts one parked entry.
func (m *PipelineMetrics) RecordDeadLetter(queue, kind string) {
	if m == nil {
		return
	}
	m.deadLettersTotal.WithLabelValues(queue, kind).Inc()
}

// RecordStorageRetry counts one retried batch write.
func (m *PipelineMetrics) RecordStorageRetry() {
	if m == nil {
		return
	}
	m.storageRetries.Inc()
}

// ObserveBatchWrite records how long one batch write took.
func (m *PipelineMetrics) ObserveBatchWrite(d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.batchWriteDuration.WithLabelValues(result).Observe(d.Seconds())
}

// RecordOutOfOrder counts one out-of-order log entry.
func (m *PipelineMetrics) RecordOutOfOrder(stream string) {
	if m == nil {
		return
	}
	m.outOfOrderTotal.WithLabelValues(stream).Inc()
}

// SetQueueDepth sets the backlog of one worker.
func (m *PipelineMetrics) SetQueueDepth(worker string, n int) {
	if m == nil {
		return
	}
	m.queueDepth.WithLabelValues(worker).Set(float64(n))
}

// RecordFeedMessage counts one stream message by result.
func (m *PipelineMetrics) RecordFeedMessage(result string) {
	if m == nil {
		return
	}
	m.feedMessagesTotal.WithLabelValues(result).Inc()
}
