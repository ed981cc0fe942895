// Package reference checks that talkgroups and sources exist before rows
// pointing at them are written.
package reference

import (
	"context"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	ingesterr "github.com/trunkstore-lab/trunkstore/internal/core/errors"
)

// Lookup is the reference part of storage.Gateway.
type Lookup interface {
	TalkgroupExists(ctx context.Context, talkgroup int32) (bool, error)
	SourceExists(ctx context.Context, src int32) (bool, error)
}

// Resolver caches positive lookups for a TTL. Misses are never cached, so a
// reference row added later is seen on the next lookup.
type Resolver struct {
	lookup Lookup
	known  *cache.Cache
	group  singleflight.Group // one in-flight lookup per key
}

// NewResolver returns a resolver that remembers existing rows for ttl.
func NewResolver(lookup Lookup, ttl time.Duration) *Resolver {
	if lookup == nil {
		panic("reference: lookup must not be nil")
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Resolver{lookup: lookup, known: cache.New(ttl, 2*ttl)}
}

// Talkgroup returns nil when tg exists, a ReferenceNotFound error when it
// does not and a StorageUnavailable error when the lookup failed.
func (r *Resolver) Talkgroup(ctx context.Context, callID string, tg int32) error {
	ok, err := r.exists(ctx, talkgroupKey(tg), func(ctx context.Context) (bool, error) {
		return r.lookup.TalkgroupExists(ctx, tg)
	})
	if err != nil {
		return unavailable(callID, 0, err)
	}
	if !ok {
		return &ingesterr.Error{
			Kind:   ingesterr.KindReferenceNotFound,
			CallID: callID,
			Field:  "talkgroup",
			Msg:    "talkgroup " + strconv.Itoa(int(tg)) + " does not exist",
		}
	}
	return nil
}

// Source is Talkgroup for signal sources. hash identifies the log entry
// that references src.
func (r *Resolver) Source(ctx context.Context, callID string, hash int64, src int32) error {
	ok, err := r.exists(ctx, sourceKey(src), func(ctx context.Context) (bool, error) {
		return r.lookup.SourceExists(ctx, src)
	})
	if err != nil {
		return unavailable(callID, hash, err)
	}
	if !ok {
		return &ingesterr.Error{
			Kind:   ingesterr.KindReferenceNotFound,
			CallID: callID,
			Hash:   hash,
			Field:  "src",
			Msg:    "source " + strconv.Itoa(int(src)) + " does not exist",
		}
	}
	return nil
}

// exists answers from the cache or runs check, collapsing concurrent misses
// for the same key into one query.
func (r *Resolver) exists(ctx context.Context, key string, check func(context.Context) (bool, error)) (bool, error) {
	if _, ok := r.known.Get(key); ok {
		return true, nil
	}
	v, err, _ := r.group.Do(key, func() (interface{}, error) {
		ok, err := check(ctx)
		if err == nil && ok {
			r.known.SetDefault(key, struct{}{})
		}
		return ok, err
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// RememberTalkgroup marks tg as existing, typically right after an upsert.
func (r *Resolver) RememberTalkgroup(tg int32) {
	r.known.SetDefault(talkgroupKey(tg), struct{}{})
}

// RememberSource marks src as existing.
func (r *Resolver) RememberSource(src int32) {
	r.known.SetDefault(sourceKey(src), struct{}{})
}

// Forget drops every cached entry.
func (r *Resolver) Forget() {
	r.known.Flush()
}

func talkgroupKey(tg int32) string { return "tg:" + strconv.Itoa(int(tg)) }
func sourceKey(src int32) string   { return "src:" + strconv.Itoa(int(src)) }

func unavailable(callID string, hash int64, err error) error {
	if ingesterr.KindOf(err) == ingesterr.KindStorageUnavailable {
		return err
	}
	e := ingesterr.Wrap(ingesterr.KindStorageUnavailable, callID, err)
	e.Hash = hash
	return e
}
