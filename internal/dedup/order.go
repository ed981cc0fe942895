package dedup

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// OrderTracker remembers the last position seen per call and stream so that
// out-of-order arrival can be counted. It never rejects anything.
type OrderTracker struct {
	last *cache.Cache
}

// NewOrderTracker forgets a call after ttl without observations.
func NewOrderTracker(ttl time.Duration) *OrderTracker {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &OrderTracker{last: cache.New(ttl, 2*ttl)}
}

// Observe records pos for (stream, callID) and reports whether it arrived
// in order, meaning not before the previous position.
func (o *OrderTracker) Observe(stream, callID string, pos time.Duration) bool {
	key := stream + "\x00" + callID
	prev, found := o.last.Get(key)
	if found && pos < prev.(time.Duration) {
		o.last.SetDefault(key, prev)
		return false
	}
	o.last.SetDefault(key, pos)
	return true
}
