package service_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"routinectl/internal/modules/auth/domain"
	"routinectl/internal/modules/auth/service"
	"routinectl/internal/platform/clock"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func snapshotFor(email string) domain.Snapshot {
	settings := domain.DefaultSettings()
	return domain.Snapshot{User: &domain.User{ID: 1, Email: email}, Settings: &settings}
}

func countingFetcher(snap domain.Snapshot, calls *atomic.Int32) service.Fetcher {
	return func(context.Context) (domain.Snapshot, error) {
		calls.Add(1)
		return snap, nil
	}
}

func TestLoadServesCacheWithinTTLAndRefetchesAfter(t *testing.T) {
	t.Parallel()
	clk := clock.NewManual(t0)
	cache := service.NewCache(clk, 30*time.Second)
	calls := &atomic.Int32{}
	fetch := countingFetcher(snapshotFor("a@example.com"), calls)

	for step := 0; step < 5; step++ {
		if _, err := cache.Load(context.Background(), fetch); err != nil {
			t.Fatalf("load: %v", err)
		}
		clk.Advance(5 * time.Second)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one fetch within ttl, got %d", calls.Load())
	}

	clk.Advance(10 * time.Second)
	if _, err := cache.Load(context.Background(), fetch); err != nil {
		t.Fatalf("load after ttl: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected exactly one new fetch after ttl, got %d", calls.Load())
	}
}

func TestLoadSharesOneFetchBetweenConcurrentCallers(t *testing.T) {
	t.Parallel()
	cache := service.NewCache(clock.NewManual(t0), time.Minute)
	calls := &atomic.Int32{}
	entered := make(chan struct{})
	release := make(chan struct{})
	snap := snapshotFor("a@example.com")
	fetch := func(context.Context) (domain.Snapshot, error) {
		if calls.Add(1) == 1 {
			close(entered)
		}
		<-release
		return snap, nil
	}

	results := make([]domain.Snapshot, 2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		results[0], _ = cache.Load(context.Background(), fetch)
	}()
	<-entered
	if !cache.InFlight() {
		t.Fatalf("expected an identity fetch in flight")
	}
	go func() {
		defer wg.Done()
		results[1], _ = cache.Load(context.Background(), fetch)
	}()
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Fatalf("expected a single shared fetch, got %d", calls.Load())
	}
	if results[0].User != results[1].User || results[0].User == nil {
		t.Fatalf("expected both callers to get the same snapshot: %+v %+v", results[0], results[1])
	}
	if cache.InFlight() {
		t.Fatalf("flight must be cleared after settling")
	}
}

func TestInvalidateDuringFlightForcesFreshFetch(t *testing.T) {
	t.Parallel()
	cache := service.NewCache(clock.NewManual(t0), time.Minute)
	calls := &atomic.Int32{}
	entered := make(chan struct{})
	release := make(chan struct{})
	stale := snapshotFor("stale@example.com")
	fresh := snapshotFor("fresh@example.com")
	fetch := func(context.Context) (domain.Snapshot, error) {
		if calls.Add(1) == 1 {
			close(entered)
			<-release
			return stale, nil
		}
		return fresh, nil
	}

	done := make(chan domain.Snapshot, 1)
	go func() {
		snap, _ := cache.Load(context.Background(), fetch)
		done <- snap
	}()
	<-entered
	cache.Invalidate()
	close(release)

	got := <-done
	if got.User.Email != "fresh@example.com" {
		t.Fatalf("expected a fetch after invalidation, got %s", got.User.Email)
	}
	cached, ok := cache.Get()
	if !ok || cached.User.Email != "fresh@example.com" {
		t.Fatalf("stale snapshot must never be cached, got %+v ok=%v", cached, ok)
	}
}

func TestFailedFetchClearsEntry(t *testing.T) {
	t.Parallel()
	clk := clock.NewManual(t0)
	cache := service.NewCache(clk, time.Second)
	cache.Set(snapshotFor("a@example.com"))
	clk.Advance(2 * time.Second)

	boom := errors.New("boom")
	_, err := cache.Load(context.Background(), func(context.Context) (domain.Snapshot, error) {
		return domain.Snapshot{}, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	if _, ok := cache.Get(); ok {
		t.Fatalf("cache must be empty after a failed fetch")
	}
}

func TestUpdateSettingsKeepsUserAndInvalidateDrops(t *testing.T) {
	t.Parallel()
	cache := service.NewCache(clock.NewManual(t0), time.Minute)
	cache.UpdateSettings(domain.DefaultSettings())
	if _, ok := cache.Get(); ok {
		t.Fatalf("settings update must not create an entry")
	}

	cache.Set(snapshotFor("a@example.com"))
	updated := domain.DefaultSettings()
	updated.ShowCelebration = true
	cache.UpdateSettings(updated)
	snap, ok := cache.Get()
	if !ok || snap.User.Email != "a@example.com" || !snap.Settings.ShowCelebration {
		t.Fatalf("expected user kept and settings replaced, got %+v", snap)
	}

	cache.Invalidate()
	if _, ok := cache.Get(); ok {
		t.Fatalf("expected empty cache after invalidate")
	}
}
