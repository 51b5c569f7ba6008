// Package score computes the bounded productivity score with a confidence
// and data-quality tier from a task snapshot.
package score

import (
	"math"
	"time"

	"taskpulse/internal/numeric"
	"taskpulse/internal/task"
)

type DataQuality string

const (
	QualityNoData       DataQuality = "NO_DATA"
	QualityInsufficient DataQuality = "INSUFFICIENT_DATA"
	QualityLow          DataQuality = "LOW_QUALITY"
	QualityMedium       DataQuality = "MEDIUM_QUALITY"
	QualityHigh         DataQuality = "HIGH_QUALITY"
)

const (
	minDataPoints = 5

	// Completion durations above a week are not representative of a single
	// task's working time and fall back to estimates.
	maxRealisticTaskHours = 168
	defaultTaskHours      = 2.0
)

type Score struct {
	UserID          string         `json:"user_id"`
	CompletionRate  float64        `json:"completion_rate"`
	AverageTaskTime float64        `json:"average_task_time"`
	TasksCompleted  int            `json:"tasks_completed"`
	TasksCreated    int            `json:"tasks_created"`
	Value           float64        `json:"score"`
	Confidence      float64        `json:"confidence"`
	DataQuality     DataQuality    `json:"data_quality"`
	Breakdown       map[string]any `json:"breakdown"`
	PeriodDays      int            `json:"period_days"`
	CalculatedAt    time.Time      `json:"calculated_at"`
}

// Calculate scores productivity over tasks created in the last `days` days.
// Empty input yields the NO_DATA sentinel rather than an error.
func Calculate(userID string, tasks []task.Record, days int, now time.Time) Score {
	periodStart := now.AddDate(0, 0, -days)
	periodTasks := task.CreatedAfter(tasks, periodStart)
	if len(periodTasks) == 0 {
		return emptyScore(userID, days, now)
	}

	totalTasks := len(periodTasks)
	completedTasks := 0
	for i := range periodTasks {
		if periodTasks[i].Status == task.StatusCompleted {
			completedTasks++
		}
	}

	completionRate := float64(completedTasks) / float64(totalTasks) * 100
	averageTaskTime := averageTaskTime(periodTasks)

	return Score{
		UserID:          userID,
		CompletionRate:  completionRate,
		AverageTaskTime: averageTaskTime,
		TasksCompleted:  completedTasks,
		TasksCreated:    totalTasks,
		Value:           compositeScore(completionRate, averageTaskTime, periodTasks, now.Location()),
		Confidence:      confidence(totalTasks, completedTasks),
		DataQuality:     dataQuality(totalTasks, completedTasks),
		Breakdown:       breakdown(periodTasks),
		PeriodDays:      days,
		CalculatedAt:    now,
	}
}

func compositeScore(completionRate, averageTaskTime float64, tasks []task.Record, loc *time.Location) float64 {
	completionScore := completionRate / 100 * 4
	timeScore := math.Max(0, 3-averageTaskTime/8)
	total := completionScore + timeScore + priorityScore(tasks) + consistencyScore(tasks, loc)
	return numeric.Clamp(total, 0, 10)
}

func averageTaskTime(tasks []task.Record) float64 {
	var sum float64
	var n int
	for i := range tasks {
		hours, ok := tasks[i].CompletionHours()
		if !ok || hours <= 0 || hours >= maxRealisticTaskHours {
			continue
		}
		sum += hours
		n++
	}
	if n > 0 {
		return sum / float64(n)
	}

	// No realistic completion durations: fall back to estimates.
	var estSum float64
	var estN int
	for i := range tasks {
		if est := tasks[i].EstimatedHours; est != nil && *est > 0 {
			estSum += *est
			estN++
		}
	}
	if estN == 0 {
		return defaultTaskHours
	}
	return estSum / float64(estN)
}

func priorityScore(tasks []task.Record) float64 {
	var completed, total int
	for i := range tasks {
		if !tasks[i].IsHighPriority() {
			continue
		}
		total++
		if tasks[i].Status == task.StatusCompleted {
			completed++
		}
	}
	if total == 0 {
		return 1.0
	}
	return float64(completed) / float64(total) * 2
}

func consistencyScore(tasks []task.Record, loc *time.Location) float64 {
	daily := map[time.Time]float64{}
	for i := range tasks {
		if tasks[i].IsCompleted() {
			daily[dateOf(*tasks[i].CompletedAt, loc)]++
		}
	}
	counts := make([]float64, 0, len(daily))
	for _, n := range daily {
		counts = append(counts, n)
	}
	return numeric.Consistency(counts)
}

func confidence(totalTasks, completedTasks int) float64 {
	switch {
	case totalTasks < minDataPoints:
		return 0.3
	case totalTasks >= 30 && completedTasks >= 10:
		return 0.8
	case totalTasks >= 15 && completedTasks >= 5:
		return 0.5
	default:
		return 0.4
	}
}

func dataQuality(totalTasks, completedTasks int) DataQuality {
	switch {
	case totalTasks < minDataPoints:
		return QualityInsufficient
	case totalTasks >= 30 && completedTasks >= 10:
		return QualityHigh
	case totalTasks >= 15 && completedTasks >= 5:
		return QualityMedium
	default:
		return QualityLow
	}
}

func breakdown(tasks []task.Record) map[string]any {
	statusCounts := map[string]int{}
	priorityCounts := map[string]int{}
	var estSum, actSum float64
	var estN, actN int

	for i := range tasks {
		t := &tasks[i]
		statusCounts[string(t.Status)]++
		priorityCounts[string(t.Priority)]++
		if t.EstimatedHours != nil {
			estSum += *t.EstimatedHours
			estN++
		}
		if t.ActualHours != nil {
			actSum += *t.ActualHours
			actN++
		}
	}

	timeAnalysis := map[string]float64{
		"averageEstimatedHours": safeDiv(estSum, estN),
		"averageActualHours":    safeDiv(actSum, actN),
	}
	return map[string]any{
		"statusBreakdown":   statusCounts,
		"priorityBreakdown": priorityCounts,
		"timeAnalysis":      timeAnalysis,
	}
}

func safeDiv(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func emptyScore(userID string, days int, now time.Time) Score {
	return Score{
		UserID:       userID,
		DataQuality:  QualityNoData,
		Breakdown:    map[string]any{},
		PeriodDays:   days,
		CalculatedAt: now,
	}
}

// dateOf truncates to the civil date in loc. Record timestamps may carry
// their own zone, so they are converted before bucketing.
func dateOf(t time.Time, loc *time.Location) time.Time {
	year, month, day := t.In(loc).Date()
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}
