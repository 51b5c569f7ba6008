// Package trend builds the daily completion series, detects the linear trend
// direction and strength, and derives behavioral patterns from a task
// snapshot. Sparse or empty input degrades to sentinel results; Analyze
// never fails.
package trend

import (
	"fmt"
	"math"
	"sort"
	"time"

	"taskpulse/internal/numeric"
	"taskpulse/internal/task"
)

type Direction string

const (
	DirectionImproving        Direction = "IMPROVING"
	DirectionDeclining        Direction = "DECLINING"
	DirectionStable           Direction = "STABLE"
	DirectionInsufficientData Direction = "INSUFFICIENT_DATA"
	DirectionNoData           Direction = "NO_DATA"
)

type WorkingPattern string

const (
	PatternMorningPerson   WorkingPattern = "MORNING_PERSON"
	PatternAfternoonPerson WorkingPattern = "AFTERNOON_PERSON"
	PatternNightOwl        WorkingPattern = "NIGHT_OWL"
	PatternFlexible        WorkingPattern = "FLEXIBLE"
	PatternUnknown         WorkingPattern = "UNKNOWN"
)

const (
	minTrendTasks = 7

	// Completion durations above 8 hours are not treated as a single
	// working session.
	maxSessionMinutes     = 480
	defaultSessionMinutes = 45.0
)

type CompletionTrend struct {
	Date           time.Time `json:"date"`
	Completed      int       `json:"completed"`
	Created        int       `json:"created"`
	CompletionRate float64   `json:"completion_rate"`
	HoursSpent     float64   `json:"hours_spent"`
	Productivity   float64   `json:"productivity"`
}

type Pattern struct {
	BestHour           int                      `json:"best_hour"`
	BestDay            time.Weekday             `json:"best_day"`
	AverageSessionTime float64                  `json:"average_session_time"`
	DailyProductivity  map[time.Weekday]float64 `json:"daily_productivity"`
	HourlyProductivity map[int]float64          `json:"hourly_productivity"`
	WorkingPattern     WorkingPattern           `json:"working_pattern"`
	Consistency        float64                  `json:"consistency"`
}

type Analysis struct {
	UserID             string             `json:"user_id"`
	CompletionTrends   []CompletionTrend  `json:"completion_trends"`
	Pattern            Pattern            `json:"productivity_pattern"`
	Insights           []string           `json:"insights"`
	PerformanceMetrics map[string]float64 `json:"performance_metrics"`
	AnalyzedAt         time.Time          `json:"analyzed_at"`
	Confidence         float64            `json:"confidence"`
	Direction          Direction          `json:"trend_direction"`
	Strength           float64            `json:"trend_strength"`
}

// Analyze computes trend analysis over tasks created in the last `days`
// days. Fewer than 7 tasks in the period yields the INSUFFICIENT_DATA
// sentinel; empty input or an internal fault yields the NO_DATA sentinel.
func Analyze(userID string, tasks []task.Record, days int, now time.Time) (analysis Analysis) {
	defer func() {
		if r := recover(); r != nil {
			analysis = emptyAnalysis(userID, now)
		}
	}()

	periodStart := now.AddDate(0, 0, -days)
	periodTasks := task.CreatedAfter(tasks, periodStart)
	if len(periodTasks) == 0 {
		return emptyAnalysis(userID, now)
	}
	if len(periodTasks) < minTrendTasks {
		return insufficientDataAnalysis(userID, now)
	}

	trends := completionTrends(periodTasks, periodStart, now)
	pattern := analyzePattern(periodTasks)

	return Analysis{
		UserID:             userID,
		CompletionTrends:   trends,
		Pattern:            pattern,
		Insights:           insights(trends, pattern, periodTasks, now),
		PerformanceMetrics: performanceMetrics(periodTasks, trends),
		AnalyzedAt:         now,
		Confidence:         trendConfidence(len(periodTasks), len(trends)),
		Direction:          trendDirection(trends),
		Strength:           trendStrength(trends),
	}
}

func completionTrends(tasks []task.Record, periodStart, periodEnd time.Time) []CompletionTrend {
	loc := periodEnd.Location()
	byDate := map[time.Time]*CompletionTrend{}
	for date := dateOf(periodStart, loc); !date.After(dateOf(periodEnd, loc)); date = date.AddDate(0, 0, 1) {
		byDate[date] = &CompletionTrend{Date: date}
	}

	for i := range tasks {
		t := &tasks[i]
		if trend, ok := byDate[dateOf(t.CreatedAt, loc)]; ok {
			trend.Created++
		}
		if t.IsCompleted() {
			if trend, ok := byDate[dateOf(*t.CompletedAt, loc)]; ok {
				trend.Completed++
				if t.ActualHours != nil {
					trend.HoursSpent += *t.ActualHours
				}
			}
		}
	}

	trends := make([]CompletionTrend, 0, len(byDate))
	for _, trend := range byDate {
		if trend.Created > 0 {
			trend.CompletionRate = float64(trend.Completed) / float64(trend.Created) * 100
		}
		// Tasks completed per hour; one hour per task when no time was logged.
		if trend.HoursSpent > 0 {
			trend.Productivity = float64(trend.Completed) / trend.HoursSpent
		} else if trend.Completed > 0 {
			trend.Productivity = float64(trend.Completed)
		}
		trends = append(trends, *trend)
	}
	sort.Slice(trends, func(i, j int) bool { return trends[i].Date.Before(trends[j].Date) })
	return trends
}

func analyzePattern(tasks []task.Record) Pattern {
	completed := make([]task.Record, 0, len(tasks))
	for i := range tasks {
		if tasks[i].IsCompleted() {
			completed = append(completed, tasks[i])
		}
	}
	if len(completed) == 0 {
		return emptyPattern()
	}

	daily := map[time.Weekday]float64{}
	hourly := map[int]float64{}
	for i := range completed {
		daily[completed[i].CompletedAt.Weekday()]++
		hourly[completed[i].CompletedAt.Hour()]++
	}

	dailyValues := make([]float64, 0, len(daily))
	for _, v := range daily {
		dailyValues = append(dailyValues, v)
	}

	return Pattern{
		BestHour:           bestKey(hourly, 9),
		BestDay:            bestKey(daily, time.Monday),
		AverageSessionTime: averageSessionTime(completed),
		DailyProductivity:  daily,
		HourlyProductivity: hourly,
		WorkingPattern:     workingPattern(hourly),
		Consistency:        numeric.Consistency(dailyValues),
	}
}

func bestKey[K time.Weekday | int](counts map[K]float64, fallback K) K {
	best := fallback
	bestCount := math.Inf(-1)
	for k, n := range counts {
		if n > bestCount || (n == bestCount && k < best) {
			best, bestCount = k, n
		}
	}
	return best
}

func averageSessionTime(completed []task.Record) float64 {
	var sum float64
	var n int
	for i := range completed {
		minutes, ok := completed[i].CompletionMinutes()
		if !ok || minutes <= 0 || minutes >= maxSessionMinutes {
			continue
		}
		sum += minutes
		n++
	}
	if n == 0 {
		return defaultSessionMinutes
	}
	return sum / float64(n)
}

// workingPattern clusters the top three productive hours into morning,
// afternoon or night buckets.
func workingPattern(hourly map[int]float64) WorkingPattern {
	type hourCount struct {
		hour  int
		count float64
	}
	peaks := make([]hourCount, 0, len(hourly))
	for hour, count := range hourly {
		if count > 0 {
			peaks = append(peaks, hourCount{hour, count})
		}
	}
	if len(peaks) == 0 {
		return PatternUnknown
	}
	sort.Slice(peaks, func(i, j int) bool {
		if peaks[i].count != peaks[j].count {
			return peaks[i].count > peaks[j].count
		}
		return peaks[i].hour < peaks[j].hour
	})
	if len(peaks) > 3 {
		peaks = peaks[:3]
	}

	earliest, latest := peaks[0].hour, peaks[0].hour
	for _, p := range peaks[1:] {
		if p.hour < earliest {
			earliest = p.hour
		}
		if p.hour > latest {
			latest = p.hour
		}
	}

	switch {
	case earliest >= 6 && latest <= 12:
		return PatternMorningPerson
	case earliest >= 13 && latest <= 18:
		return PatternAfternoonPerson
	case earliest >= 19 || latest <= 2:
		return PatternNightOwl
	default:
		return PatternFlexible
	}
}

func trendDirection(trends []CompletionTrend) Direction {
	if len(trends) < 3 {
		return DirectionInsufficientData
	}
	slope := numeric.LinearSlope(completionRates(trends))
	switch {
	case slope > 1:
		return DirectionImproving
	case slope < -1:
		return DirectionDeclining
	default:
		return DirectionStable
	}
}

func trendStrength(trends []CompletionTrend) float64 {
	if len(trends) < 3 {
		return 0
	}
	slope := math.Abs(numeric.LinearSlope(completionRates(trends)))
	return math.Min(1, slope/10)
}

func completionRates(trends []CompletionTrend) []float64 {
	rates := make([]float64, len(trends))
	for i, trend := range trends {
		rates[i] = trend.CompletionRate
	}
	return rates
}

func trendConfidence(taskCount, trendDays int) float64 {
	switch {
	case taskCount < 10 || trendDays < minTrendTasks:
		return 0.3
	case taskCount >= 50 && trendDays >= 14:
		return 0.8
	case taskCount >= 25 && trendDays >= 10:
		return 0.6
	default:
		return 0.5
	}
}

func insights(trends []CompletionTrend, pattern Pattern, tasks []task.Record, now time.Time) []string {
	var out []string

	if len(trends) >= 7 {
		recent := numeric.Mean(completionRates(trends[len(trends)-3:]))
		earlier := numeric.Mean(completionRates(trends[:3]))
		if recent > earlier+10 {
			out = append(out, "Your productivity has been improving recently")
		} else if recent < earlier-10 {
			out = append(out, "Your productivity has declined recently - consider reviewing your workload")
		}
	}

	out = append(out, fmt.Sprintf("You're most productive on %ss", pattern.BestDay))
	if pattern.BestHour >= 6 && pattern.BestHour <= 22 {
		out = append(out, fmt.Sprintf("Your peak productivity time is around %d:00", pattern.BestHour))
	}

	if pattern.Consistency > 0.7 {
		out = append(out, "You maintain consistent productivity levels")
	} else if pattern.Consistency < 0.4 {
		out = append(out, "Your productivity varies significantly - try establishing a routine")
	}

	overdue := 0
	for i := range tasks {
		if tasks[i].IsOverdue(now) {
			overdue++
		}
	}
	if overdue > 0 {
		out = append(out, fmt.Sprintf("You have %d overdue tasks - consider prioritizing them", overdue))
	}

	return out
}

func performanceMetrics(tasks []task.Record, trends []CompletionTrend) map[string]float64 {
	metrics := map[string]float64{}

	completed := 0
	for i := range tasks {
		if tasks[i].Status == task.StatusCompleted {
			completed++
		}
	}
	if len(tasks) > 0 {
		metrics["overallCompletionRate"] = float64(completed) / float64(len(tasks)) * 100
	} else {
		metrics["overallCompletionRate"] = 0
	}

	var completedSum float64
	activeDays := 0
	for _, trend := range trends {
		completedSum += float64(trend.Completed)
		if trend.Completed > 0 || trend.Created > 0 {
			activeDays++
		}
	}
	if len(trends) > 0 {
		metrics["averageDailyCompletions"] = completedSum / float64(len(trends))
	}
	if len(trends) >= 3 {
		metrics["productivityTrend"] = numeric.LinearSlope(completionRates(trends))
	}
	if activeDays > 0 {
		metrics["taskVelocity"] = float64(completed) / float64(activeDays)
	} else {
		metrics["taskVelocity"] = 0
	}

	return metrics
}

func emptyPattern() Pattern {
	return Pattern{
		BestHour:           9,
		BestDay:            time.Monday,
		AverageSessionTime: defaultSessionMinutes,
		DailyProductivity:  map[time.Weekday]float64{},
		HourlyProductivity: map[int]float64{},
		WorkingPattern:     PatternUnknown,
	}
}

func emptyAnalysis(userID string, now time.Time) Analysis {
	return Analysis{
		UserID:             userID,
		CompletionTrends:   []CompletionTrend{},
		Pattern:            emptyPattern(),
		Insights:           []string{"No data available for trend analysis"},
		PerformanceMetrics: map[string]float64{},
		AnalyzedAt:         now,
		Direction:          DirectionNoData,
	}
}

func insufficientDataAnalysis(userID string, now time.Time) Analysis {
	return Analysis{
		UserID:             userID,
		CompletionTrends:   []CompletionTrend{},
		Pattern:            emptyPattern(),
		Insights:           []string{"Insufficient data for reliable trend analysis. Complete more tasks to see patterns."},
		PerformanceMetrics: map[string]float64{},
		AnalyzedAt:         now,
		Confidence:         0.2,
		Direction:          DirectionInsufficientData,
	}
}

// dateOf truncates to the civil date in loc. Record timestamps may carry
// their own zone, so they are converted before bucketing.
func dateOf(t time.Time, loc *time.Location) time.Time {
	year, month, day := t.In(loc).Date()
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}
