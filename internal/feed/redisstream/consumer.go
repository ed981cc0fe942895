// Package redisstream feeds the sequencer from a Redis stream consumer group.
// Delivery is at-least-once: an entry is acked only once none of its records
// exists solely in process memory, and entries left pending by a previous
// run are read again on start.
package redisstream

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-redis/redis/v8"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	v1 "github.com/trunkstore-lab/trunkstore/internal/api/v1"
	"github.com/trunkstore-lab/trunkstore/internal/metrics"
	"github.com/trunkstore-lab/trunkstore/internal/sequencer"
)

// Feed message results, used as the metric label.
const (
	ResultStored   = "stored"
	ResultAccepted = "accepted"
	ResultRejected = "rejected"
	ResultInvalid  = "invalid"
	ResultFailed   = "failed"
)

// StreamClient is the subset of *redis.Client the consumer uses.
type StreamClient interface {
	XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd
	XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd
	XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd
}

// Pipeline accepts decoded payloads. settled must be called once no record
// of p is held only in memory.
type Pipeline interface {
	SubmitTracked(ctx context.Context, p *v1.Payload, settled func()) (*sequencer.Report, error)
}

type Options struct {
	Stream    string
	Group     string
	Consumer  string
	BatchSize int64
	Block     time.Duration
	// Concurrency bounds the messages submitted or waiting for their call
	// id's lane at any time.
	Concurrency int
	MinBackoff  time.Duration
	MaxBackoff  time.Duration
}

func (o Options) normalized() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = 64
	}
	if o.Block <= 0 {
		o.Block = 5 * time.Second
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 32
	}
	if o.MinBackoff <= 0 {
		o.MinBackoff = time.Second
	}
	if o.MaxBackoff < o.MinBackoff {
		o.MaxBackoff = 30 * time.Second
	}
	return o
}

type job struct {
	id      string
	payload *v1.Payload
}

// Consumer reads the stream and submits each call id's messages in order on
// its own lane, so a slow call never holds up another.
type Consumer struct {
	client   StreamClient
	pipeline Pipeline
	metrics  *metrics.PipelineMetrics
	opts     Options

	// "0" starts a pass over this consumer's pending entries, a message id
	// continues it and ">" reads new ones.
	cursor string
	rewind atomic.Bool

	slots *semaphore.Weighted
	group errgroup.Group

	mu       sync.Mutex
	lanes    map[string][]job
	inflight map[string]struct{}
}

func NewConsumer(client StreamClient, p Pipeline, m *metrics.PipelineMetrics, opts Options) *Consumer {
	if client == nil {
		panic("redisstream: client must not be nil")
	}
	if p == nil {
		panic("redisstream: pipeline must not be nil")
	}
	opts = opts.normalized()
	return &Consumer{
		client:   client,
		pipeline: p,
		metrics:  m,
		opts:     opts,
		cursor:   "0",
		slots:    semaphore.NewWeighted(int64(opts.Concurrency)),
		lanes:    make(map[string][]job),
		inflight: make(map[string]struct{}),
	}
}

// Run creates the consumer group if needed and consumes until ctx is done.
// Read failures back off exponentially and never end the loop. Run returns
// once every lane has stopped; unacked entries stay pending in Redis.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.ensureGroup(ctx); err != nil {
		return err
	}
	slog.Info("[RedisFeed] Consumer started",
		"stream", c.opts.Stream, "group", c.opts.Group, "consumer", c.opts.Consumer,
		"concurrency", c.opts.Concurrency)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.opts.MinBackoff
	b.MaxInterval = c.opts.MaxBackoff
	b.MaxElapsedTime = 0

	for {
		if ctx.Err() != nil {
			_ = c.group.Wait()
			slog.Info("[RedisFeed] Consumer stopped")
			return nil
		}

		err := c.consume(ctx)
		if err == nil {
			b.Reset()
			continue
		}
		if ctx.Err() != nil {
			continue
		}

		wait := b.NextBackOff()
		slog.Error("[RedisFeed] Failed to consume stream", "error", err, "backoff", wait)
		select {
		case <-ctx.Done():
		case <-time.After(wait):
		}
	}
}

func (c *Consumer) ensureGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.opts.Stream, c.opts.Group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return err
	}
	return nil
}

// consume reads one batch and dispatches every entry in it. It returns
// without waiting for the submissions.
func (c *Consumer) consume(ctx context.Context) error {
	if c.rewind.Swap(false) {
		// a failed entry is still pending; go back for it
		c.cursor = "0"
	}

	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.opts.Group,
		Consumer: c.opts.Consumer,
		Streams:  []string{c.opts.Stream, c.cursor},
		Count:    c.opts.BatchSize,
		Block:    c.opts.Block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}

	n, last := 0, ""
	for _, s := range streams {
		for _, msg := range s.Messages {
			n++
			last = msg.ID
			if err := c.dispatch(ctx, msg); err != nil {
				c.cursor = "0"
				return err
			}
		}
	}

	switch {
	case c.cursor == ">":
	case n == 0:
		c.cursor = ">"
	default:
		c.cursor = last
	}
	return nil
}

// dispatch queues msg on its call id's lane. Entries already in flight are
// skipped; undecodable entries are acked and dropped.
func (c *Consumer) dispatch(ctx context.Context, msg redis.XMessage) error {
	if !c.claim(msg.ID) {
		return nil
	}

	p, err := decodeMessage(msg.Values)
	if err != nil {
		slog.Warn("[RedisFeed] Dropping undecodable message", "id", msg.ID, "error", err)
		c.metrics.RecordFeedMessage(ResultInvalid)
		err = c.ack(ctx, msg.ID)
		c.unclaim(msg.ID)
		return err
	}

	if err := c.slots.Acquire(ctx, 1); err != nil {
		c.unclaim(msg.ID)
		return err
	}

	c.mu.Lock()
	queued, running := c.lanes[p.CallID]
	c.lanes[p.CallID] = append(queued, job{id: msg.ID, payload: p})
	c.mu.Unlock()

	if !running {
		callID := p.CallID
		c.group.Go(func() error {
			c.runLane(ctx, callID)
			return nil
		})
	}
	return nil
}

func (c *Consumer) runLane(ctx context.Context, callID string) {
	for {
		c.mu.Lock()
		queue := c.lanes[callID]
		if len(queue) == 0 {
			delete(c.lanes, callID)
			c.mu.Unlock()
			return
		}
		j := queue[0]
		c.lanes[callID] = queue[1:]
		c.mu.Unlock()

		c.process(ctx, j)
		c.slots.Release(1)
	}
}

// process submits one entry. The entry is acked when the pipeline reports it
// settled; until then it stays pending and is redelivered after a crash.
func (c *Consumer) process(ctx context.Context, j job) {
	settled := make(chan struct{})
	var once sync.Once
	report, err := c.pipeline.SubmitTracked(ctx, j.payload, func() {
		once.Do(func() { close(settled) })
	})
	if err != nil {
		slog.Warn("[RedisFeed] Submit failed, entry stays pending",
			"id", j.id, "call_id", j.payload.CallID, "error", err)
		c.metrics.RecordFeedMessage(ResultFailed)
		c.unclaim(j.id)
		c.rewind.Store(true)
		return
	}

	result := ResultFor(report)
	slog.Debug("[RedisFeed] Message processed",
		"id", j.id, "call_id", j.payload.CallID, "correlation_id", report.CorrelationID, "result", result)
	c.metrics.RecordFeedMessage(result)

	select {
	case <-settled:
		c.settle(ctx, j.id)
	default:
		c.group.Go(func() error {
			select {
			case <-settled:
				c.settle(ctx, j.id)
			case <-ctx.Done():
				c.unclaim(j.id)
			}
			return nil
		})
	}
}

func (c *Consumer) settle(ctx context.Context, id string) {
	if err := c.ack(ctx, id); err != nil {
		slog.Warn("[RedisFeed] Ack failed, entry will be redelivered", "id", id, "error", err)
		c.rewind.Store(true)
	}
	c.unclaim(id)
}

func (c *Consumer) ack(ctx context.Context, id string) error {
	return c.client.XAck(ctx, c.opts.Stream, c.opts.Group, id).Err()
}

func (c *Consumer) claim(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.inflight[id]; ok {
		return false
	}
	c.inflight[id] = struct{}{}
	return true
}

func (c *Consumer) unclaim(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, id)
}

// ResultFor summarizes a report as a feed result.
func ResultFor(r *sequencer.Report) string {
	switch {
	case r.Settled():
		return ResultStored
	case r.Accepted():
		return ResultAccepted
	default:
		return ResultRejected
	}
}
