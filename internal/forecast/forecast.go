// Package forecast projects near-term productivity from historical patterns
// and a precomputed trend analysis, with per-day confidence intervals.
package forecast

import (
	"fmt"
	"math"
	"strings"
	"time"

	"taskpulse/internal/numeric"
	"taskpulse/internal/task"
	"taskpulse/internal/trend"
)

type DayPattern string

const (
	PatternWeekStart DayPattern = "WEEK_START"
	PatternMidWeek   DayPattern = "MID_WEEK"
	PatternWeekEnd   DayPattern = "WEEK_END"
	PatternWeekend   DayPattern = "WEEKEND"
)

const (
	DefaultHorizonDays = 7

	MethodTrendBased      = "TREND_BASED_WITH_PATTERNS"
	MethodDefaultBaseline = "DEFAULT_BASELINE"

	defaultDayScore = 5.0
)

type DailyPrediction struct {
	Date                   time.Time  `json:"date"`
	PredictedScore         float64    `json:"predicted_score"`
	Confidence             float64    `json:"confidence"`
	LowerBound             float64    `json:"lower_bound"`
	UpperBound             float64    `json:"upper_bound"`
	ExpectedTasksCompleted int        `json:"expected_tasks_completed"`
	ExpectedCompletionRate float64    `json:"expected_completion_rate"`
	DayPattern             DayPattern `json:"day_pattern"`
	Reasoning              string     `json:"reasoning"`
}

type Forecast struct {
	UserID           string            `json:"user_id"`
	DailyPredictions []DailyPrediction `json:"daily_predictions"`
	OverallScore     float64           `json:"overall_forecast_score"`
	Confidence       float64           `json:"confidence"`
	Method           string            `json:"forecast_method"`
	GeneratedAt      time.Time         `json:"generated_at"`
	StartDate        time.Time         `json:"forecast_start_date"`
	EndDate          time.Time         `json:"forecast_end_date"`
	Assumptions      []string          `json:"assumptions"`
	UncertaintyRange float64           `json:"uncertainty_range"`
}

// Predict produces a forecast for `horizon` days starting tomorrow. A
// non-positive horizon falls back to 7. Empty history yields a flat default
// baseline rather than an error.
func Predict(userID string, historical []task.Record, trends trend.Analysis, horizon int, now time.Time) Forecast {
	if horizon <= 0 {
		horizon = DefaultHorizonDays
	}
	if len(historical) == 0 {
		return baselineForecast(userID, horizon, now)
	}

	dayPatterns := dayOfWeekPatterns(historical)
	velocity := averageVelocity(historical, now)
	consistency := consistencyScore(historical, now.Location())

	predictions := make([]DailyPrediction, 0, horizon)
	start := dateOf(now, now.Location()).AddDate(0, 0, 1)
	for i := 0; i < horizon; i++ {
		date := start.AddDate(0, 0, i)
		base := dayPatterns[date.Weekday()]

		adjustment := trendAdjustment(trends, i)
		predicted := numeric.Clamp(base+adjustment, 0, 10)

		dayConfidence := math.Max(0.3, 0.8*consistency*math.Exp(-0.15*float64(i)))
		uncertainty := (1 - dayConfidence) * 2

		expectedTasks := int(math.Round(velocity * predicted / 5))
		if expectedTasks < 0 {
			expectedTasks = 0
		}

		predictions = append(predictions, DailyPrediction{
			Date:                   date,
			PredictedScore:         predicted,
			Confidence:             dayConfidence,
			LowerBound:             numeric.Clamp(predicted-uncertainty, 0, 10),
			UpperBound:             numeric.Clamp(predicted+uncertainty, 0, 10),
			ExpectedTasksCompleted: expectedTasks,
			ExpectedCompletionRate: math.Min(100, predicted/10*100),
			DayPattern:             dayPatternOf(date.Weekday()),
			Reasoning:              reasoning(date.Weekday(), base, adjustment),
		})
	}

	confidence := forecastConfidence(historical, trends, now)

	return Forecast{
		UserID:           userID,
		DailyPredictions: predictions,
		OverallScore:     overallScore(predictions),
		Confidence:       confidence,
		Method:           MethodTrendBased,
		GeneratedAt:      now,
		StartDate:        start,
		EndDate:          start.AddDate(0, 0, horizon-1),
		Assumptions:      assumptions(),
		UncertaintyRange: (1 - confidence) * 3,
	}
}

// dayOfWeekPatterns scores each weekday from completion counts plus a
// high-priority bonus; weekdays with no completions get the neutral default.
func dayOfWeekPatterns(tasks []task.Record) map[time.Weekday]float64 {
	counts := map[time.Weekday]int{}
	highPriority := map[time.Weekday]int{}
	for i := range tasks {
		t := &tasks[i]
		if !t.IsCompleted() {
			continue
		}
		day := t.CompletedAt.Weekday()
		counts[day]++
		if t.IsHighPriority() {
			highPriority[day]++
		}
	}

	patterns := map[time.Weekday]float64{}
	for day := time.Sunday; day <= time.Saturday; day++ {
		if counts[day] == 0 {
			patterns[day] = defaultDayScore
			continue
		}
		patterns[day] = math.Min(10, float64(counts[day])*1.5+float64(highPriority[day])*0.5)
	}
	return patterns
}

func averageVelocity(tasks []task.Record, now time.Time) float64 {
	loc := now.Location()
	var earliest, latest time.Time
	completed := 0
	for i := range tasks {
		if !tasks[i].IsCompleted() {
			continue
		}
		date := dateOf(*tasks[i].CompletedAt, loc)
		if completed == 0 || date.Before(earliest) {
			earliest = date
		}
		if completed == 0 || date.After(latest) {
			latest = date
		}
		completed++
	}
	if completed == 0 {
		return 1.0
	}
	days := int(latest.Sub(earliest).Hours() / 24)
	if days == 0 {
		days = 1
	}
	return float64(completed) / float64(days)
}

func consistencyScore(tasks []task.Record, loc *time.Location) float64 {
	daily := map[time.Time]float64{}
	for i := range tasks {
		if tasks[i].IsCompleted() {
			daily[dateOf(*tasks[i].CompletedAt, loc)]++
		}
	}
	values := make([]float64, 0, len(daily))
	for _, v := range daily {
		values = append(values, v)
	}
	return numeric.Consistency(values)
}

// trendAdjustment applies the trend with a diminishing effect further into
// the future. The sign convention follows the original scoring pipeline.
func trendAdjustment(trends trend.Analysis, dayOffset int) float64 {
	if trends.Strength == 0 {
		return 0
	}
	var sign float64
	switch trends.Direction {
	case "INCREASING":
		sign = 1
	case "DECREASING":
		sign = -1
	default:
		sign = 0
	}
	decay := math.Exp(-0.1 * float64(dayOffset))
	return sign * trends.Strength * decay * 0.5
}

func dayPatternOf(day time.Weekday) DayPattern {
	switch day {
	case time.Monday:
		return PatternWeekStart
	case time.Tuesday, time.Wednesday, time.Thursday:
		return PatternMidWeek
	case time.Friday:
		return PatternWeekEnd
	default:
		return PatternWeekend
	}
}

func reasoning(day time.Weekday, base, adjustment float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Based on %s patterns", strings.ToLower(day.String()))
	if math.Abs(adjustment) > 0.1 {
		direction := "positive"
		if adjustment < 0 {
			direction = "negative"
		}
		fmt.Fprintf(&b, " with %s trend adjustment", direction)
	}
	if base > 7 {
		b.WriteString(". Historically high productivity day")
	} else if base < 4 {
		b.WriteString(". Historically lower productivity day")
	}
	return b.String()
}

func overallScore(predictions []DailyPrediction) float64 {
	if len(predictions) == 0 {
		return defaultDayScore
	}
	var sum float64
	for _, p := range predictions {
		sum += p.PredictedScore
	}
	return sum / float64(len(predictions))
}

func forecastConfidence(tasks []task.Record, trends trend.Analysis, now time.Time) float64 {
	dataQuality := math.Min(1, float64(len(tasks))/30)

	loc := now.Location()
	daysSinceLastCompletion := 30.0
	for i := range tasks {
		if !tasks[i].IsCompleted() {
			continue
		}
		days := dateOf(now, loc).Sub(dateOf(*tasks[i].CompletedAt, loc)).Hours() / 24
		if days < daysSinceLastCompletion {
			daysSinceLastCompletion = days
		}
	}
	recency := math.Max(0.3, 1-daysSinceLastCompletion/30)

	confidence := dataQuality*0.4 + trends.Confidence*0.4 + recency*0.2
	return math.Max(0.3, confidence)
}

func assumptions() []string {
	return []string{
		"Historical patterns will continue with similar consistency",
		"No major changes in work schedule or priorities",
		"Current trend direction will gradually diminish over time",
		"Day-of-week patterns remain stable",
		"External factors remain constant",
	}
}

func baselineForecast(userID string, horizon int, now time.Time) Forecast {
	start := dateOf(now, now.Location()).AddDate(0, 0, 1)
	predictions := make([]DailyPrediction, 0, horizon)
	for i := 0; i < horizon; i++ {
		date := start.AddDate(0, 0, i)
		predictions = append(predictions, DailyPrediction{
			Date:                   date,
			PredictedScore:         defaultDayScore,
			Confidence:             0.3,
			LowerBound:             3,
			UpperBound:             7,
			ExpectedTasksCompleted: 1,
			ExpectedCompletionRate: 50,
			DayPattern:             dayPatternOf(date.Weekday()),
			Reasoning:              "Insufficient historical data for accurate prediction",
		})
	}
	return Forecast{
		UserID:           userID,
		DailyPredictions: predictions,
		OverallScore:     defaultDayScore,
		Confidence:       0.3,
		Method:           MethodDefaultBaseline,
		GeneratedAt:      now,
		StartDate:        start,
		EndDate:          start.AddDate(0, 0, horizon-1),
		Assumptions:      []string{"No historical data available", "Using baseline predictions"},
		UncertaintyRange: 2.0,
	}
}

// dateOf truncates to the civil date in loc. Record timestamps may carry
// their own zone, so they are converted before bucketing.
func dateOf(t time.Time, loc *time.Location) time.Time {
	year, month, day := t.In(loc).Date()
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}
