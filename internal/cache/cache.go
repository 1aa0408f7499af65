// Package cache memoizes valuations per (symbol, asset class) with a short TTL
// and collapses concurrent misses for one key into a single load.
package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"ProfitPortal/internal/model"
)

const (
	DefaultTTL         = 60 * time.Second
	DefaultNegativeTTL = 10 * time.Second
)

// Key identifies one cached valuation.
type Key struct {
	Symbol model.Symbol
	Class  model.AssetClass
}

func (k Key) String() string { return string(k.Class) + ":" + string(k.Symbol) }

// Result is a cached outcome: a Valuation, or the InvalidSymbolError of a negative entry.
type Result struct {
	Valuation model.Valuation
	Err       error
}

type entry struct {
	result    Result
	expiresAt time.Time
}

// Options configures a Cache. A zero NegativeTTL disables negative entries.
type Options struct {
	TTL         time.Duration
	NegativeTTL time.Duration
	Now         func() time.Time
}

// Cache is safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[Key]entry
	group   singleflight.Group

	ttl         time.Duration
	negativeTTL time.Duration
	now         func() time.Time
}

// New creates a Cache. TTL <= 0 uses DefaultTTL.
func New(opts Options) *Cache {
	c := &Cache{
		entries:     make(map[Key]entry),
		ttl:         opts.TTL,
		negativeTTL: opts.NegativeTTL,
		now:         opts.Now,
	}
	if c.ttl <= 0 {
		c.ttl = DefaultTTL
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Get returns the cached valuation for (sym, class). Negative entries are a miss.
func (c *Cache) Get(sym model.Symbol, class model.AssetClass) (model.Valuation, bool) {
	r, ok := c.Lookup(sym, class)
	if !ok || r.Err != nil {
		return model.Valuation{}, false
	}
	return r.Valuation, true
}

// Lookup returns the cached outcome for (sym, class), valuation or negative.
// An expired entry is removed and reported as a miss.
func (c *Cache) Lookup(sym model.Symbol, class model.AssetClass) (Result, bool) {
	key := Key{sym, class}
	now := c.now()

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return Result{}, false
	}
	if now.Before(e.expiresAt) {
		return e.result, true
	}

	c.mu.Lock()
	if cur, ok := c.entries[key]; ok && !now.Before(cur.expiresAt) {
		delete(c.entries, key)
	}
	c.mu.Unlock()
	return Result{}, false
}

// Put stores v for ttl (DefaultTTL or the configured TTL when ttl <= 0).
func (c *Cache) Put(sym model.Symbol, class model.AssetClass, v model.Valuation, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}
	c.store(Key{sym, class}, Result{Valuation: v}, ttl)
}

// PutInvalid stores a negative entry for ttl. ttl <= 0 stores nothing.
func (c *Cache) PutInvalid(sym model.Symbol, class model.AssetClass, err *model.InvalidSymbolError, ttl time.Duration) {
	if ttl <= 0 || err == nil {
		return
	}
	c.store(Key{sym, class}, Result{Err: err}, ttl)
}

func (c *Cache) store(key Key, r Result, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = entry{result: r, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
}

// LoadFunc produces the valuation for a missed key. partial reports a valuation
// built while one of its figures failed transiently.
type LoadFunc func() (v model.Valuation, partial bool, err error)

type flight struct {
	valuation model.Valuation
	hit       bool
}

// Do returns the cached outcome for (sym, class), or runs load once for every
// concurrent caller of the same key and caches what it returns: a valuation for
// the TTL, a partial valuation or an InvalidSymbolError for the negative TTL, any
// other error not at all.
//
// A caller whose ctx ends returns ctx.Err() at once; the load keeps running for
// the others. hit reports whether the outcome came from the cache.
func (c *Cache) Do(ctx context.Context, sym model.Symbol, class model.AssetClass, load LoadFunc) (v model.Valuation, hit bool, err error) {
	if r, ok := c.Lookup(sym, class); ok {
		return r.Valuation, true, r.Err
	}

	ch := c.group.DoChan(Key{sym, class}.String(), func() (any, error) {
		// a flight that finished just before this one started already stored its outcome
		if r, ok := c.Lookup(sym, class); ok {
			return flight{valuation: r.Valuation, hit: true}, r.Err
		}
		v, partial, err := load()
		var invalid *model.InvalidSymbolError
		switch {
		case err == nil && partial:
			if c.negativeTTL > 0 {
				c.Put(sym, class, v, c.negativeTTL)
			}
		case err == nil:
			c.Put(sym, class, v, 0)
		case errors.As(err, &invalid):
			c.PutInvalid(sym, class, invalid, c.negativeTTL)
		}
		return flight{valuation: v}, err
	})

	select {
	case <-ctx.Done():
		return model.Valuation{}, false, ctx.Err()
	case res := <-ch:
		f, _ := res.Val.(flight)
		return f.valuation, f.hit, res.Err
	}
}

// Sweep removes expired entries and returns how many it removed.
func (c *Cache) Sweep() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired ones included until swept.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
