// Package api exposes the analytics pipeline over HTTP.
package api

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"taskpulse/internal/aggregate"
	"taskpulse/internal/alert"
	"taskpulse/internal/cache"
	"taskpulse/internal/dashboard"
	"taskpulse/internal/forecast"
	"taskpulse/internal/httputil"
	"taskpulse/internal/metrics"
	"taskpulse/internal/repository"
	"taskpulse/internal/score"
	"taskpulse/internal/task"
	"taskpulse/internal/trend"
)

const (
	DefaultPeriodDays  = 30
	DefaultHorizonDays = 7
	maxPeriodDays      = 365
)

type API struct {
	repo   repository.TaskRepository
	cache  *cache.Cache
	engine *alert.Engine
	now    func() time.Time
	mux    *http.ServeMux
}

// NewAPI wires the analytics endpoints. `c` may be nil, which disables
// memoization (used by tests and by deployments without Redis).
func NewAPI(repo repository.TaskRepository, c *cache.Cache, engine *alert.Engine) *API {
	api := &API{
		repo:   repo,
		cache:  c,
		engine: engine,
		now:    time.Now,
		mux:    http.NewServeMux(),
	}

	api.setupRoutes()
	return api
}

func (a *API) setupRoutes() {
	a.mux.HandleFunc("/api/analytics/health", a.handleHealth)
	a.mux.HandleFunc("/api/analytics/statistics/", a.handleStatistics)
	a.mux.HandleFunc("/api/analytics/productivity/", a.handleProductivity)
	a.mux.HandleFunc("/api/analytics/trends/", a.handleTrends)
	a.mux.HandleFunc("/api/analytics/forecast/", a.handleForecast)
	a.mux.HandleFunc("/api/analytics/alerts/", a.handleAlerts)
	a.mux.HandleFunc("/api/analytics/dashboard/", a.handleDashboard)
}

func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "taskpulse",
	})
}

func (a *API) handleStatistics(w http.ResponseWriter, r *http.Request) {
	userID, days, ok := a.userAndDays(w, r, "/api/analytics/statistics/")
	if !ok {
		return
	}

	var stats aggregate.PeriodStatistics
	a.memoized(w, r, "statistics", "statistics", userID, days, &stats, func(tasks []task.Record, now time.Time) any {
		return aggregate.Aggregate(userID, tasks, days, now)
	})
}

func (a *API) handleProductivity(w http.ResponseWriter, r *http.Request) {
	userID, days, ok := a.userAndDays(w, r, "/api/analytics/productivity/")
	if !ok {
		return
	}

	var sc score.Score
	a.memoized(w, r, "productivity", "productivity", userID, days, &sc, func(tasks []task.Record, now time.Time) any {
		return score.Calculate(userID, tasks, days, now)
	})
}

func (a *API) handleTrends(w http.ResponseWriter, r *http.Request) {
	userID, days, ok := a.userAndDays(w, r, "/api/analytics/trends/")
	if !ok {
		return
	}

	var analysis trend.Analysis
	a.memoized(w, r, "trends", "trends", userID, days, &analysis, func(tasks []task.Record, now time.Time) any {
		return trend.Analyze(userID, tasks, days, now)
	})
}

func (a *API) handleForecast(w http.ResponseWriter, r *http.Request) {
	userID, days, ok := a.userAndDays(w, r, "/api/analytics/forecast/")
	if !ok {
		return
	}

	horizon := intParam(r, "horizon", DefaultHorizonDays)
	if horizon <= 0 {
		horizon = DefaultHorizonDays
	}

	cacheKind := fmt.Sprintf("forecast:h%d", horizon)

	var fc forecast.Forecast
	a.memoized(w, r, "forecast", cacheKind, userID, days, &fc, func(tasks []task.Record, now time.Time) any {
		trends := trend.Analyze(userID, tasks, days, now)
		return forecast.Predict(userID, tasks, trends, horizon, now)
	})
}

func (a *API) handleAlerts(w http.ResponseWriter, r *http.Request) {
	userID, days, ok := a.userAndDays(w, r, "/api/analytics/alerts/")
	if !ok {
		return
	}

	sensitivity, err := sensitivityParam(r)
	if err != nil {
		httputil.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	now := a.now()
	tasks, err := a.loadTasks(r, userID, days, now)
	if err != nil {
		httputil.WriteJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	start := time.Now()
	trends := trend.Analyze(userID, tasks, days, now)
	fc := forecast.Predict(userID, tasks, trends, DefaultHorizonDays, now)
	alerts := a.engine.Generate(alert.Input{
		UserID:   userID,
		Tasks:    tasks,
		Forecast: fc,
		Trends:   trends,
		Now:      now,
	}, sensitivity)
	metrics.RecordAnalysis("alerts", time.Since(start))

	for _, al := range alerts {
		metrics.RecordAlert(string(al.Type), string(al.Severity))
	}

	httputil.WriteJSON(w, http.StatusOK, alerts)
}

func (a *API) handleDashboard(w http.ResponseWriter, r *http.Request) {
	userID, days, ok := a.userAndDays(w, r, "/api/analytics/dashboard/")
	if !ok {
		return
	}

	horizon := intParam(r, "horizon", DefaultHorizonDays)
	if horizon <= 0 {
		horizon = DefaultHorizonDays
	}

	sensitivity, err := sensitivityParam(r)
	if err != nil {
		httputil.WriteJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	now := a.now()
	tasks, err := a.loadTasks(r, userID, days, now)
	if err != nil {
		httputil.WriteJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	start := time.Now()
	summary := dashboard.Build(userID, tasks, days, horizon, a.engine, sensitivity, now)
	metrics.RecordAnalysis("dashboard", time.Since(start))

	httputil.WriteJSON(w, http.StatusOK, summary)
}

// userAndDays parses the trailing user ID and the `days` query parameter
// shared by every per-user endpoint. On a bad request it writes the error
// response and returns ok=false.
func (a *API) userAndDays(w http.ResponseWriter, r *http.Request, prefix string) (string, int, bool) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return "", 0, false
	}

	userID := strings.TrimPrefix(r.URL.Path, prefix)
	if userID == "" || strings.Contains(userID, "/") {
		httputil.WriteJSONError(w, "User ID is required", http.StatusBadRequest)
		return "", 0, false
	}

	days := intParam(r, "days", DefaultPeriodDays)
	if days <= 0 || days > maxPeriodDays {
		days = DefaultPeriodDays
	}

	return userID, days, true
}

func sensitivityParam(r *http.Request) (alert.Sensitivity, error) {
	raw := r.URL.Query().Get("sensitivity")
	if raw == "" {
		return alert.SensitivityMedium, nil
	}
	return alert.ParseSensitivity(raw)
}

func intParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func (a *API) loadTasks(r *http.Request, userID string, days int, now time.Time) ([]task.Record, error) {
	since := now.AddDate(0, 0, -days)
	tasks, err := a.repo.GetTasksForUser(r.Context(), userID, since)
	if err != nil {
		return nil, err
	}
	metrics.RecordSnapshotSize(len(tasks))
	return tasks, nil
}

// memoized serves one cacheable analysis: cache lookup, compute on miss,
// best-effort write-back. Cache failures degrade to a recompute. `cached`
// must point to the zero value of the compute result so a hit can be
// decoded in place.
func (a *API) memoized(w http.ResponseWriter, r *http.Request, kind, cacheKind, userID string, days int, cached any, compute func(tasks []task.Record, now time.Time) any) {
	now := a.now()

	var key string
	if a.cache != nil {
		key = cache.Key(cacheKind, userID, days, now)
		hit, err := a.cache.Get(r.Context(), key, cached)
		if err != nil {
			log.Printf("cache get failed for %s: %v", key, err)
		}
		if hit {
			metrics.RecordCacheHit(kind)
			httputil.WriteJSON(w, http.StatusOK, cached)
			return
		}
		metrics.RecordCacheMiss(kind)
	}

	tasks, err := a.loadTasks(r, userID, days, now)
	if err != nil {
		httputil.WriteJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	start := time.Now()
	result := compute(tasks, now)
	metrics.RecordAnalysis(kind, time.Since(start))

	if a.cache != nil {
		if err := a.cache.Set(r.Context(), key, result); err != nil {
			log.Printf("cache set failed for %s: %v", key, err)
		}
	}

	httputil.WriteJSON(w, http.StatusOK, result)
}
