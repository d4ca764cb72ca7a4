package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestCacheReusesRegistryWithinTTL(t *testing.T) {
	t.Parallel()

	svc := NewStaticService(nil)
	clock := &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	cache := NewCache(svc, WithTTL(time.Minute), WithClock(clock.Now))

	first, err := cache.Registry(context.Background(), "")
	require.NoError(t, err)
	second, err := cache.Registry(context.Background(), "")
	require.NoError(t, err)
	require.Same(t, first, second)
	require.Equal(t, 1, svc.Calls())

	clock.Advance(2 * time.Minute)
	svc.SetStatuses([]StatusOption{{Name: "Sourced", Type: StatusTypeCandidate, IsActive: true}})
	third, err := cache.Registry(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, 2, svc.Calls())
	_, ok := third.Lookup("Sourced")
	require.True(t, ok)
}

func TestCacheInvalidateForcesFetch(t *testing.T) {
	t.Parallel()

	svc := NewStaticService(nil)
	cache := NewCache(svc)

	_, err := cache.Registry(context.Background(), "")
	require.NoError(t, err)
	cache.Invalidate()
	_, err = cache.Registry(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, 2, svc.Calls())
}

func TestCacheServesStaleRegistryOnFailure(t *testing.T) {
	t.Parallel()

	svc := NewStaticService(nil)
	cache := NewCache(svc)

	first, err := cache.Registry(context.Background(), "")
	require.NoError(t, err)

	svc.SetError(errors.New("unavailable"))
	again, err := cache.Refresh(context.Background(), "")
	require.NoError(t, err)
	require.Same(t, first, again)
}

func TestCacheFailureWithoutRegistry(t *testing.T) {
	t.Parallel()

	svc := NewStaticService(nil)
	svc.SetError(errors.New("unavailable"))
	cache := NewCache(svc)

	reg, err := cache.Registry(context.Background(), "")
	require.Error(t, err)
	require.Nil(t, reg)
}

type blockingService struct {
	mu      sync.Mutex
	calls   int
	release chan struct{}
}

func (s *blockingService) Statuses(context.Context, string) ([]StatusOption, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	<-s.release
	return SeedStatuses(), nil
}

func TestCacheCollapsesConcurrentFetches(t *testing.T) {
	t.Parallel()

	svc := &blockingService{release: make(chan struct{})}
	cache := NewCache(svc)

	const callers = 8
	var wg sync.WaitGroup
	results := make([]*Registry, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reg, err := cache.Registry(context.Background(), "")
			if err == nil {
				results[i] = reg
			}
		}(i)
	}

	// Give the callers time to join the in-flight fetch before releasing it.
	time.Sleep(50 * time.Millisecond)
	close(svc.release)
	wg.Wait()

	svc.mu.Lock()
	calls := svc.calls
	svc.mu.Unlock()
	require.Equal(t, 1, calls)
	for _, reg := range results {
		require.NotNil(t, reg)
		require.Equal(t, "#6366f1", reg.ColorOf("Interview"))
	}
}
