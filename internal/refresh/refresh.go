// Package refresh provides the background worker that keeps analytics caches
// warm for recently active users.
package refresh

import (
	"context"
	"log"
	"time"

	"taskpulse/internal/aggregate"
	"taskpulse/internal/cache"
	"taskpulse/internal/forecast"
	"taskpulse/internal/metrics"
	"taskpulse/internal/repository"
	"taskpulse/internal/score"
	"taskpulse/internal/trend"
)

const (
	DefaultPollInterval = 15 * time.Minute
	DefaultPeriodDays   = 30
	DefaultHorizonDays  = 7

	// Users with no task activity in this window are skipped.
	activityWindow = 7 * 24 * time.Hour
)

type Worker struct {
	id           string
	repo         repository.TaskRepository
	cache        *cache.Cache
	stop         chan bool
	pollInterval time.Duration
	now          func() time.Time
}

func NewWorker(id string, repo repository.TaskRepository, c *cache.Cache) *Worker {
	return &Worker{
		id:           id,
		repo:         repo,
		cache:        c,
		stop:         make(chan bool),
		pollInterval: DefaultPollInterval,
		now:          time.Now,
	}
}

func (w *Worker) SetPollInterval(d time.Duration) {
	w.pollInterval = d
}

func (w *Worker) Start() {
	log.Printf("Refresh worker %s started", w.id)

	for {
		select {
		case <-w.stop:
			log.Printf("Refresh worker %s stopped", w.id)
			return
		default:
			w.runOnce()
			time.Sleep(w.pollInterval)
		}
	}
}

func (w *Worker) Stop() {
	w.stop <- true
}

func (w *Worker) runOnce() {
	ctx := context.Background()
	now := w.now()

	users, err := w.repo.GetRecentUserIDs(ctx, now.Add(-activityWindow))
	if err != nil {
		log.Printf("Failed to list active users: %v", err)
		return
	}

	refreshed := 0
	for _, userID := range users {
		if err := w.refreshUser(ctx, userID, now); err != nil {
			log.Printf("Failed to refresh analytics for user %s: %v", userID, err)
			continue
		}
		refreshed++
	}

	metrics.RecordRefresh(refreshed)
	log.Printf("Refresh worker %s primed caches for %d/%d users", w.id, refreshed, len(users))
}

// refreshUser recomputes every memoized analysis for one user and writes the
// results into the cache, so interactive requests land on warm entries.
func (w *Worker) refreshUser(ctx context.Context, userID string, now time.Time) error {
	since := now.AddDate(0, 0, -DefaultPeriodDays)
	tasks, err := w.repo.GetTasksForUser(ctx, userID, since)
	if err != nil {
		return err
	}

	stats := aggregate.Aggregate(userID, tasks, DefaultPeriodDays, now)
	sc := score.Calculate(userID, tasks, DefaultPeriodDays, now)
	trends := trend.Analyze(userID, tasks, DefaultPeriodDays, now)
	fc := forecast.Predict(userID, tasks, trends, DefaultHorizonDays, now)

	entries := map[string]any{
		cache.Key("statistics", userID, DefaultPeriodDays, now):   stats,
		cache.Key("productivity", userID, DefaultPeriodDays, now): sc,
		cache.Key("trends", userID, DefaultPeriodDays, now):       trends,
		cache.Key("forecast:h7", userID, DefaultPeriodDays, now):  fc,
	}

	for key, v := range entries {
		if err := w.cache.Set(ctx, key, v); err != nil {
			return err
		}
	}

	return nil
}
