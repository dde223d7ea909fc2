package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/rs/zerolog"

	"github.com/mkovalv/city-weather/internal/weather"
)

// Warmer periodically resolves the configured city set so the cache stays
// populated between user requests. It is optional; the request path does
// not depend on it.
type Warmer struct {
	scheduler *gocron.Scheduler
	service   *weather.Service
	cityIDs   []int
	interval  time.Duration
	log       zerolog.Logger
}

// New creates a Warmer. An interval of zero disables it.
func New(cityIDs []int, interval time.Duration, service *weather.Service, log zerolog.Logger) *Warmer {
	return &Warmer{
		scheduler: gocron.NewScheduler(time.UTC),
		service:   service,
		cityIDs:   cityIDs,
		interval:  interval,
		log:       log,
	}
}

// Start schedules the warm job and starts the underlying scheduler.
func (w *Warmer) Start() error {
	if w.interval <= 0 || len(w.cityIDs) == 0 {
		w.log.Info().Msg("cache warmer disabled")
		return nil
	}

	_, err := w.scheduler.Every(w.interval).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if _, err := w.service.ResolveMany(ctx, w.cityIDs); err != nil {
			w.log.Warn().Err(err).Msg("cache warm run failed")
			return
		}
		w.log.Debug().Int("cities", len(w.cityIDs)).Msg("cache warm run completed")
	})
	if err != nil {
		return err
	}

	w.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future runs.
func (w *Warmer) Stop() {
	if w.scheduler != nil {
		w.scheduler.Stop()
	}
}
