package service

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"routinectl/internal/modules/auth/domain"
	"routinectl/internal/platform/clock"
)

const (
	DefaultTTL = 30 * time.Second

	flightKey   = "me"
	maxAttempts = 2
)

type Fetcher func(ctx context.Context) (domain.Snapshot, error)

type entry struct {
	snapshot  domain.Snapshot
	fetchedAt time.Time
}

type flightResult struct {
	snapshot   domain.Snapshot
	generation uint64
}

// Cache holds the last identity snapshot for a TTL and collapses concurrent
// fetches into one request. Invalidate bumps a generation so a fetch that
// started earlier can never repopulate it.
type Cache struct {
	clock clock.Clock
	ttl   time.Duration

	mu         sync.Mutex
	entry      *entry
	generation uint64
	flights    int
	group      singleflight.Group
}

func NewCache(clk clock.Clock, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{clock: clk, ttl: ttl}
}

func (c *Cache) Get() (domain.Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entry == nil || c.clock.Now().Sub(c.entry.fetchedAt) >= c.ttl {
		return domain.Snapshot{}, false
	}
	return c.entry.snapshot, true
}

func (c *Cache) Set(snap domain.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entry = &entry{snapshot: snap, fetchedAt: c.clock.Now()}
}

// UpdateSettings swaps the cached settings in place; the cached user is kept.
func (c *Cache) UpdateSettings(settings domain.Settings) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entry == nil {
		return
	}
	snap := c.entry.snapshot
	snap.Settings = &settings
	c.entry = &entry{snapshot: snap, fetchedAt: c.clock.Now()}
}

func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.entry = nil
	c.generation++
	c.mu.Unlock()
	c.group.Forget(flightKey)
}

// InFlight reports whether an identity fetch is currently running.
func (c *Cache) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flights > 0
}

// Load serves a fresh snapshot from the cache or runs fetch, sharing one
// call between every concurrent caller. Failed fetches clear the entry.
func (c *Cache) Load(ctx context.Context, fetch Fetcher) (domain.Snapshot, error) {
	for attempt := 0; ; attempt++ {
		if snap, ok := c.Get(); ok {
			return snap, nil
		}
		v, err, _ := c.group.Do(flightKey, func() (any, error) {
			return c.fetch(ctx, fetch)
		})
		if err != nil {
			return domain.Snapshot{}, err
		}
		res := v.(flightResult)
		if res.generation == c.currentGeneration() || attempt+1 >= maxAttempts {
			return res.snapshot, nil
		}
	}
}

func (c *Cache) fetch(ctx context.Context, fetch Fetcher) (flightResult, error) {
	c.mu.Lock()
	c.flights++
	generation := c.generation
	c.mu.Unlock()

	snap, err := fetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.flights--
	if generation != c.generation {
		return flightResult{snapshot: snap, generation: generation}, err
	}
	if err != nil {
		c.entry = nil
		return flightResult{}, err
	}
	c.entry = &entry{snapshot: snap, fetchedAt: c.clock.Now()}
	return flightResult{snapshot: snap, generation: generation}, nil
}

func (c *Cache) currentGeneration() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}
