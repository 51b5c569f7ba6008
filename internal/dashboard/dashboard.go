// Package dashboard assembles the combined per-user analytics view served by
// the dashboard endpoint.
package dashboard

import (
	"time"

	"taskpulse/internal/aggregate"
	"taskpulse/internal/alert"
	"taskpulse/internal/forecast"
	"taskpulse/internal/score"
	"taskpulse/internal/task"
	"taskpulse/internal/trend"
)

type TrendDigest struct {
	Direction      trend.Direction      `json:"direction"`
	Strength       float64              `json:"strength"`
	Confidence     float64              `json:"confidence"`
	WorkingPattern trend.WorkingPattern `json:"working_pattern"`
	Insights       []string             `json:"insights"`
}

type ForecastDigest struct {
	OverallScore float64 `json:"overall_score"`
	Confidence   float64 `json:"confidence"`
	Method       string  `json:"method"`
}

type Summary struct {
	UserID      string                     `json:"user_id"`
	Statistics  aggregate.PeriodStatistics `json:"statistics"`
	Score       score.Score                `json:"productivity_score"`
	Trends      TrendDigest                `json:"trends"`
	Forecast    ForecastDigest             `json:"forecast"`
	Alerts      []alert.Alert              `json:"alerts"`
	AlertCounts map[alert.Severity]int     `json:"alert_counts"`
	GeneratedAt time.Time                  `json:"generated_at"`
}

// Build runs the full analytics pipeline for one user and folds the results
// into a single summary.
func Build(userID string, tasks []task.Record, days, horizon int, eng *alert.Engine, sensitivity alert.Sensitivity, now time.Time) Summary {
	stats := aggregate.Aggregate(userID, tasks, days, now)
	sc := score.Calculate(userID, tasks, days, now)
	trends := trend.Analyze(userID, tasks, days, now)
	fc := forecast.Predict(userID, tasks, trends, horizon, now)

	alerts := eng.Generate(alert.Input{
		UserID:   userID,
		Tasks:    tasks,
		Forecast: fc,
		Trends:   trends,
		Now:      now,
	}, sensitivity)

	counts := make(map[alert.Severity]int)
	for _, a := range alerts {
		counts[a.Severity]++
	}

	return Summary{
		UserID:     userID,
		Statistics: stats,
		Score:      sc,
		Trends: TrendDigest{
			Direction:      trends.Direction,
			Strength:       trends.Strength,
			Confidence:     trends.Confidence,
			WorkingPattern: trends.Pattern.WorkingPattern,
			Insights:       trends.Insights,
		},
		Forecast: ForecastDigest{
			OverallScore: fc.OverallScore,
			Confidence:   fc.Confidence,
			Method:       fc.Method,
		},
		Alerts:      alerts,
		AlertCounts: counts,
		GeneratedAt: now,
	}
}
