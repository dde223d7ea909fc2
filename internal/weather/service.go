package weather

import (
	"context"
	"strconv"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/mkovalv/city-weather/internal/metrics"
)

// Store is the contract the record cache (and any future external cache)
// must satisfy. Implementations must be safe for concurrent use and must
// never return an expired entry.
type Store interface {
	Get(key string) (Record, bool)
	Set(key string, rec Record)
	Has(key string) bool
	Flush()
}

// CacheKey derives the cache key for a city id. The key depends on the id
// alone so repeated lookups always land on the same entry.
func CacheKey(cityID int) string {
	return "weather_" + strconv.Itoa(cityID)
}

// Service resolves city ids to weather records through a read-through cache.
type Service struct {
	store  Store
	client Client
	group  singleflight.Group
	log    zerolog.Logger
}

func NewService(store Store, client Client, log zerolog.Logger) *Service {
	return &Service{
		store:  store,
		client: client,
		log:    log,
	}
}

// ResolveOne returns the weather record for one city. Cache hits return a
// copy with Cached set; misses fetch from the upstream provider and populate
// the cache. Concurrent misses for the same city are collapsed into a single
// upstream fetch.
func (s *Service) ResolveOne(ctx context.Context, cityID int) (Record, error) {
	key := CacheKey(cityID)

	if rec, ok := s.store.Get(key); ok {
		s.log.Debug().Int("city_id", cityID).Msg("cache hit")
		rec.Cached = true
		return rec, nil
	}

	s.log.Debug().Int("city_id", cityID).Msg("cache miss, fetching fresh data")

	v, err, shared := s.group.Do(key, func() (interface{}, error) {
		// A concurrent flight may have landed while we waited on the key.
		if rec, ok := s.store.Get(key); ok {
			rec.Cached = true
			return rec, nil
		}

		rec, fetchErr := s.client.FetchCurrent(ctx, cityID)
		if fetchErr != nil {
			return nil, fetchErr
		}
		s.store.Set(key, rec)
		return rec, nil
	})
	if err != nil {
		return Record{}, err
	}
	if shared {
		metrics.SharedFetches.Inc()
	}

	rec, ok := v.(Record)
	if !ok {
		return Record{}, &UpstreamError{Message: "unexpected result type from in-flight fetch"}
	}
	return rec, nil
}

// ResolveMany resolves every id concurrently and returns records in input
// order, duplicates allowed. If any single resolution fails the whole batch
// fails with that error and partial results are discarded.
func (s *Service) ResolveMany(ctx context.Context, cityIDs []int) ([]Record, error) {
	g, ctx := errgroup.WithContext(ctx)
	records := make([]Record, len(cityIDs))

	for i, id := range cityIDs {
		i, id := i, id
		g.Go(func() error {
			rec, err := s.ResolveOne(ctx, id)
			if err != nil {
				return err
			}
			records[i] = rec
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}
