package sequencer

import (
	"time"

	"github.com/trunkstore-lab/trunkstore/internal/core/partition"
)

// Options tunes the worker pool and both retry schedules.
type Options struct {
	Workers   int
	QueueSize int

	// Deferred log entries are retried on an exponential schedule bounded
	// by RetryBudget attempts.
	RetryInitialInterval time.Duration
	RetryMaxInterval     time.Duration
	RetryBudget          int
	// RetryTick is how often a worker scans its pending index.
	RetryTick time.Duration

	// Transient storage failures are retried until StorageRetryMaxElapsed.
	StorageRetryInitialInterval time.Duration
	StorageRetryMaxElapsed      time.Duration

	// CommittedTTL is how long a committed call id is remembered without
	// asking the gateway again.
	CommittedTTL time.Duration
	// OrderWindow is how long position tracking remembers a call.
	OrderWindow time.Duration

	UpsertFromPayload bool
}

// DefaultOptions returns production defaults.
func DefaultOptions() Options {
	return Options{
		Workers:                     4,
		QueueSize:                   256,
		RetryInitialInterval:        500 * time.Millisecond,
		RetryMaxInterval:            30 * time.Second,
		RetryBudget:                 10,
		RetryTick:                   250 * time.Millisecond,
		StorageRetryInitialInterval: 200 * time.Millisecond,
		StorageRetryMaxElapsed:      time.Minute,
		CommittedTTL:                10 * time.Minute,
		OrderWindow:                 10 * time.Minute,
	}
}

func (o Options) normalized() Options {
	def := DefaultOptions()
	if o.Workers <= 0 {
		o.Workers = def.Workers
	}
	if o.Workers > partition.Count {
		o.Workers = partition.Count
	}
	if o.QueueSize <= 0 {
		o.QueueSize = def.QueueSize
	}
	if o.RetryInitialInterval <= 0 {
		o.RetryInitialInterval = def.RetryInitialInterval
	}
	if o.RetryMaxInterval < o.RetryInitialInterval {
		o.RetryMaxInterval = o.RetryInitialInterval
	}
	if o.RetryBudget <= 0 {
		o.RetryBudget = def.RetryBudget
	}
	if o.RetryTick <= 0 {
		o.RetryTick = o.RetryInitialInterval / 2
	}
	if o.StorageRetryInitialInterval <= 0 {
		o.StorageRetryInitialInterval = def.StorageRetryInitialInterval
	}
	if o.StorageRetryMaxElapsed <= 0 {
		o.StorageRetryMaxElapsed = def.StorageRetryMaxElapsed
	}
	if o.CommittedTTL <= 0 {
		o.CommittedTTL = def.CommittedTTL
	}
	if o.OrderWindow <= 0 {
		o.OrderWindow = def.OrderWindow
	}
	return o
}
