// services/scheduler.go
package services

import (
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// HousekeepingConfig sets the cadence of the registry cleanup jobs.
type HousekeepingConfig struct {
	QueueTTL          time.Duration
	ResolvedRetention time.Duration
	Interval          time.Duration
}

// StartHousekeeping schedules queue TTL eviction and pruning of resolved
// matches. The caller shuts the scheduler down.
func (r *MatchRegistry) StartHousekeeping(cfg HousekeepingConfig) (gocron.Scheduler, error) {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	// Every interval: drop abandoned queue entries
	_, err = sched.NewJob(
		gocron.DurationJob(cfg.Interval),
		gocron.NewTask(func() {
			if n := r.EvictStale(cfg.QueueTTL); n > 0 {
				log.Printf("[Scheduler] Evicted %d stale queue entries", n)
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, err
	}

	// Every interval: forget old resolved matches
	_, err = sched.NewJob(
		gocron.DurationJob(cfg.Interval),
		gocron.NewTask(func() {
			if n := r.PruneResolved(cfg.ResolvedRetention); n > 0 {
				log.Printf("[Scheduler] Pruned %d resolved matches", n)
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, err
	}

	sched.Start()
	log.Printf("✅ [Scheduler] Housekeeping started (ttl=%s retention=%s every %s)", cfg.QueueTTL, cfg.ResolvedRetention, cfg.Interval)
	return sched, nil
}
