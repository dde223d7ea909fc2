package weather_test

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkovalv/city-weather/internal/cache"
	"github.com/mkovalv/city-weather/internal/weather"
)

// fakeClient is a scriptable upstream: per-city delays, per-city errors,
// and call counting.
type fakeClient struct {
	mu     sync.Mutex
	calls  map[int]int
	delays map[int]time.Duration
	errs   map[int]error
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		calls:  make(map[int]int),
		delays: make(map[int]time.Duration),
		errs:   make(map[int]error),
	}
}

func (f *fakeClient) FetchCurrent(ctx context.Context, cityID int) (weather.Record, error) {
	f.mu.Lock()
	f.calls[cityID]++
	delay := f.delays[cityID]
	err := f.errs[cityID]
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return weather.Record{}, ctx.Err()
		}
	}
	if err != nil {
		return weather.Record{}, err
	}

	return weather.Record{
		ID:        cityID,
		Name:      fmt.Sprintf("city-%d", cityID),
		Country:   "XX",
		Timestamp: time.Now().UTC(),
	}, nil
}

func (f *fakeClient) callCount(cityID int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[cityID]
}

func newService(ttl time.Duration, client weather.Client) *weather.Service {
	return weather.NewService(cache.New(ttl), client, zerolog.Nop())
}

func TestResolveOneCachedFlagLifecycle(t *testing.T) {
	fake := newFakeClient()
	svc := newService(150*time.Millisecond, fake)
	ctx := context.Background()

	first, err := svc.ResolveOne(ctx, 524901)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, 1, fake.callCount(524901))

	second, err := svc.ResolveOne(ctx, 524901)
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, 1, fake.callCount(524901), "cache hit must not reach upstream")

	// Same weather fields apart from the cached flag.
	second.Cached = first.Cached
	assert.Equal(t, first, second)

	time.Sleep(200 * time.Millisecond)

	third, err := svc.ResolveOne(ctx, 524901)
	require.NoError(t, err)
	assert.False(t, third.Cached)
	assert.Equal(t, 2, fake.callCount(524901), "expiry must trigger exactly one refetch")
}

func TestResolveManyPreservesOrder(t *testing.T) {
	fake := newFakeClient()
	fake.delays[1] = 80 * time.Millisecond
	fake.delays[2] = 20 * time.Millisecond
	fake.delays[3] = 5 * time.Millisecond
	svc := newService(time.Minute, fake)

	records, err := svc.ResolveMany(context.Background(), []int{3, 1, 2})
	require.NoError(t, err)
	require.Len(t, records, 3)

	ids := []int{records[0].ID, records[1].ID, records[2].ID}
	assert.Equal(t, []int{3, 1, 2}, ids)
}

func TestResolveManyFailFast(t *testing.T) {
	fake := newFakeClient()
	fake.errs[7] = &weather.UpstreamError{StatusCode: http.StatusNotFound, Message: "city not found"}
	svc := newService(time.Minute, fake)

	records, err := svc.ResolveMany(context.Background(), []int{1, 7, 2})

	var ue *weather.UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "city not found", ue.Message)
	assert.Nil(t, records, "partial results must be discarded")
}

func TestResolveManyAllowsDuplicates(t *testing.T) {
	fake := newFakeClient()
	svc := newService(time.Minute, fake)

	records, err := svc.ResolveMany(context.Background(), []int{5, 5, 5})
	require.NoError(t, err)
	require.Len(t, records, 3)
	for _, rec := range records {
		assert.Equal(t, 5, rec.ID)
	}
}

func TestResolveOneCollapsesConcurrentMisses(t *testing.T) {
	fake := newFakeClient()
	fake.delays[42] = 50 * time.Millisecond
	svc := newService(time.Minute, fake)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ResolveOne(context.Background(), 42)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, fake.callCount(42), "concurrent misses must share one upstream fetch")
}
