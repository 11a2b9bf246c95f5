package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/sunwatch/suntimes-service/internal/suntimes"
)

// Scheduler periodically reconciles sun-time data for configured locations
// so their upcoming dates are already stored when clients ask for them.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   *suntimes.Service
	locations []string
	interval  time.Duration
	days      int
}

// New creates a new Scheduler. days is how far ahead of today each location
// is warmed.
func New(locations []string, interval time.Duration, days int, service *suntimes.Service) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		service:   service,
		locations: locations,
		interval:  interval,
		days:      days,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if len(s.locations) == 0 {
		log.Println("scheduler: no locations configured; nothing to schedule")
		return nil
	}

	interval := s.interval
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	_, err := s.scheduler.Every(interval).Do(func() {
		log.Println("scheduler: running sun-time prefetch job")

		start := suntimes.NormalizeDate(time.Now())
		end := start.AddDate(0, 0, s.days)

		var wg sync.WaitGroup
		for _, loc := range s.locations {
			loc := loc
			wg.Add(1)
			go func() {
				defer wg.Done()

				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				if _, err := s.service.Reconcile(ctx, loc, start, end); err != nil {
					log.Printf("scheduler: prefetch failed for %q: %v", loc, err)
				}
			}()
		}
		wg.Wait()
		log.Println("scheduler: completed sun-time prefetch job")
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
