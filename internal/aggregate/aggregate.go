// Package aggregate turns a raw task snapshot and a rolling period into
// per-period statistics: counts, breakdowns and a zero-filled daily series.
package aggregate

import (
	"sort"
	"time"

	"taskpulse/internal/task"
)

// maxRealisticCompletionHours filters completion durations above 30 days out
// of the average.
const maxRealisticCompletionHours = 720

type DailyCount struct {
	Date       time.Time `json:"date"`
	Created    int       `json:"created"`
	Completed  int       `json:"completed"`
	Cancelled  int       `json:"cancelled"`
	HoursSpent float64   `json:"hours_spent"`
}

type PeriodStatistics struct {
	UserID                string         `json:"user_id"`
	TotalTasks            int            `json:"total_tasks"`
	CompletedTasks        int            `json:"completed_tasks"`
	PendingTasks          int            `json:"pending_tasks"`
	OverdueTasks          int            `json:"overdue_tasks"`
	CancelledTasks        int            `json:"cancelled_tasks"`
	AverageCompletionTime float64        `json:"average_completion_time"`
	TotalTimeSpent        float64        `json:"total_time_spent"`
	TasksByPriority       map[string]int `json:"tasks_by_priority"`
	TasksByCategory       map[string]int `json:"tasks_by_category"`
	DailyCounts           []DailyCount   `json:"daily_counts"`
	PeriodStart           time.Time      `json:"period_start"`
	PeriodEnd             time.Time      `json:"period_end"`
	CalculatedAt          time.Time      `json:"calculated_at"`
}

// Aggregate computes period statistics over tasks created within the last
// `days` days relative to now. Empty input yields an all-zero result.
func Aggregate(userID string, tasks []task.Record, days int, now time.Time) PeriodStatistics {
	periodStart := now.AddDate(0, 0, -days)
	periodTasks := task.CreatedAfter(tasks, periodStart)

	stats := PeriodStatistics{
		UserID:          userID,
		TotalTasks:      len(periodTasks),
		TasksByPriority: map[string]int{},
		TasksByCategory: map[string]int{},
		PeriodStart:     periodStart,
		PeriodEnd:       now,
		CalculatedAt:    now,
	}

	for i := range periodTasks {
		t := &periodTasks[i]
		switch {
		case t.Status == task.StatusCompleted:
			stats.CompletedTasks++
		case t.IsPending():
			stats.PendingTasks++
		}
		if t.Status == task.StatusCancelled {
			stats.CancelledTasks++
		}
		if t.IsOverdue(now) {
			stats.OverdueTasks++
		}
		if t.ActualHours != nil {
			stats.TotalTimeSpent += *t.ActualHours
		}
	}

	stats.AverageCompletionTime = averageCompletionTime(periodTasks)
	stats.TasksByPriority = priorityBreakdown(periodTasks)
	stats.TasksByCategory = CategoryDistribution(periodTasks)
	stats.DailyCounts = dailyCounts(periodTasks, periodStart, now)

	return stats
}

func averageCompletionTime(tasks []task.Record) float64 {
	var sum float64
	var n int
	for i := range tasks {
		hours, ok := tasks[i].CompletionHours()
		if !ok || hours <= 0 || hours >= maxRealisticCompletionHours {
			continue
		}
		sum += hours
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func priorityBreakdown(tasks []task.Record) map[string]int {
	breakdown := map[string]int{}
	for i := range tasks {
		priority := string(tasks[i].Priority)
		if priority == "" {
			priority = "UNKNOWN"
		}
		breakdown[priority]++
	}
	return breakdown
}

// CategoryDistribution counts tasks per tag; untagged tasks fall back to
// "Uncategorized".
func CategoryDistribution(tasks []task.Record) map[string]int {
	categories := map[string]int{}
	for i := range tasks {
		if len(tasks[i].Tags) == 0 {
			categories["Uncategorized"]++
			continue
		}
		for _, tag := range tasks[i].Tags {
			categories[tag]++
		}
	}
	return categories
}

func dailyCounts(tasks []task.Record, periodStart, periodEnd time.Time) []DailyCount {
	loc := periodEnd.Location()
	byDate := map[time.Time]*DailyCount{}
	for date := dateOf(periodStart, loc); !date.After(dateOf(periodEnd, loc)); date = date.AddDate(0, 0, 1) {
		byDate[date] = &DailyCount{Date: date}
	}

	for i := range tasks {
		t := &tasks[i]
		if count, ok := byDate[dateOf(t.CreatedAt, loc)]; ok {
			count.Created++
		}
		if t.IsCompleted() {
			if count, ok := byDate[dateOf(*t.CompletedAt, loc)]; ok {
				count.Completed++
				if t.ActualHours != nil {
					count.HoursSpent += *t.ActualHours
				}
			}
		}
		if t.Status == task.StatusCancelled && t.UpdatedAt != nil {
			if count, ok := byDate[dateOf(*t.UpdatedAt, loc)]; ok {
				count.Cancelled++
			}
		}
	}

	counts := make([]DailyCount, 0, len(byDate))
	for _, count := range byDate {
		counts = append(counts, *count)
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].Date.Before(counts[j].Date) })
	return counts
}

// TimePatterns summarizes completion timing: average completion hours per
// priority plus the day of week and hour of day with the most completions.
func TimePatterns(tasks []task.Record) map[string]float64 {
	patterns := map[string]float64{}

	sumByPriority := map[string]float64{}
	countByPriority := map[string]int{}
	completionsByDay := map[time.Weekday]int{}
	completionsByHour := map[int]int{}

	for i := range tasks {
		t := &tasks[i]
		hours, ok := t.CompletionHours()
		if !ok {
			continue
		}
		priority := string(t.Priority)
		if priority == "" {
			priority = "UNKNOWN"
		}
		sumByPriority[priority] += hours
		countByPriority[priority]++
		completionsByDay[t.CompletedAt.Weekday()]++
		completionsByHour[t.CompletedAt.Hour()]++
	}

	for priority, sum := range sumByPriority {
		patterns["avgTime_"+priority] = sum / float64(countByPriority[priority])
	}
	if day, ok := maxIntKey(completionsByDay); ok {
		patterns["bestDayOfWeek"] = float64(day)
	}
	if hour, ok := maxIntKey(completionsByHour); ok {
		patterns["bestHour"] = float64(hour)
	}
	return patterns
}

func maxIntKey[K time.Weekday | int](counts map[K]int) (K, bool) {
	var best K
	bestCount := -1
	found := false
	for k, n := range counts {
		if n > bestCount || (n == bestCount && k < best) {
			best, bestCount, found = k, n, true
		}
	}
	return best, found
}

// dateOf truncates to the civil date in loc. Record timestamps may carry
// their own zone, so they are converted before bucketing.
func dateOf(t time.Time, loc *time.Location) time.Time {
	year, month, day := t.In(loc).Date()
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}
