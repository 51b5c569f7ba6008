package score

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskpulse/internal/task"
)

var testNow = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func timePtr(t time.Time) *time.Time { return &t }

func floatPtr(v float64) *float64 { return &v }

// buildTasks creates `total` tasks within the period, the first `completed`
// of them finished two hours after creation.
func buildTasks(total, completed int) []task.Record {
	tasks := make([]task.Record, 0, total)
	for i := 0; i < total; i++ {
		created := testNow.AddDate(0, 0, -(i%20 + 1)).Add(-2 * time.Hour)
		r := task.Record{
			ID:        fmt.Sprintf("task-%d", i),
			UserID:    "user-1",
			Status:    task.StatusTodo,
			Priority:  task.PriorityMedium,
			CreatedAt: created,
		}
		if i < completed {
			r.Status = task.StatusCompleted
			r.CompletedAt = timePtr(created.Add(2 * time.Hour))
		}
		tasks = append(tasks, r)
	}
	return tasks
}

func TestCalculate_Empty(t *testing.T) {
	score := Calculate("user-1", nil, 30, testNow)

	assert.Equal(t, "user-1", score.UserID)
	assert.Equal(t, 0.0, score.Value)
	assert.Equal(t, 0.0, score.Confidence)
	assert.Equal(t, QualityNoData, score.DataQuality)
	assert.Equal(t, 0, score.TasksCreated)
	assert.Equal(t, 30, score.PeriodDays)
	assert.NotNil(t, score.Breakdown)
}

func TestCalculate_OnlyOldTasks(t *testing.T) {
	old := task.Record{
		ID:        "ancient",
		Status:    task.StatusCompleted,
		CreatedAt: testNow.AddDate(0, 0, -90),
	}

	score := Calculate("user-1", []task.Record{old}, 30, testNow)
	assert.Equal(t, QualityNoData, score.DataQuality)
}

func TestCalculate_CompletionRate(t *testing.T) {
	score := Calculate("user-1", buildTasks(10, 8), 30, testNow)

	assert.InDelta(t, 80.0, score.CompletionRate, 0.1)
	assert.Equal(t, 8, score.TasksCompleted)
	assert.Equal(t, 10, score.TasksCreated)
}

func TestCalculate_ScoreBounds(t *testing.T) {
	cases := []struct {
		name  string
		tasks []task.Record
	}{
		{"all completed", buildTasks(20, 20)},
		{"none completed", buildTasks(20, 0)},
		{"mixed", buildTasks(20, 11)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			score := Calculate("user-1", tc.tasks, 30, testNow)
			assert.GreaterOrEqual(t, score.Value, 0.0)
			assert.LessOrEqual(t, score.Value, 10.0)
		})
	}
}

func TestConfidenceTiers(t *testing.T) {
	cases := []struct {
		total, completed int
		confidence       float64
		quality          DataQuality
	}{
		{3, 1, 0.3, QualityInsufficient},
		{35, 12, 0.8, QualityHigh},
		{16, 6, 0.5, QualityMedium},
		{10, 2, 0.4, QualityLow},
	}

	for _, tc := range cases {
		score := Calculate("user-1", buildTasks(tc.total, tc.completed), 30, testNow)
		assert.Equal(t, tc.confidence, score.Confidence, "total=%d completed=%d", tc.total, tc.completed)
		assert.Equal(t, tc.quality, score.DataQuality, "total=%d completed=%d", tc.total, tc.completed)
	}
}

func TestAverageTaskTime_FallsBackToEstimates(t *testing.T) {
	// One completion far beyond the realistic ceiling, one estimate.
	created := testNow.AddDate(0, 0, -10)
	tasks := []task.Record{
		{
			ID:          "slow",
			Status:      task.StatusCompleted,
			CreatedAt:   created,
			CompletedAt: timePtr(created.Add(200 * time.Hour)),
		},
		{
			ID:             "estimated",
			Status:         task.StatusTodo,
			CreatedAt:      created,
			EstimatedHours: floatPtr(3.0),
		},
	}

	assert.InDelta(t, 3.0, averageTaskTime(tasks), 1e-9)
}

func TestAverageTaskTime_DefaultWithNoData(t *testing.T) {
	tasks := []task.Record{
		{ID: "bare", Status: task.StatusTodo, CreatedAt: testNow.AddDate(0, 0, -1)},
	}
	assert.Equal(t, defaultTaskHours, averageTaskTime(tasks))
}

func TestPriorityScore(t *testing.T) {
	// No high-priority tasks yields the neutral score.
	assert.Equal(t, 1.0, priorityScore(buildTasks(5, 3)))

	created := testNow.AddDate(0, 0, -2)
	tasks := []task.Record{
		{Status: task.StatusCompleted, Priority: task.PriorityHigh, CreatedAt: created, CompletedAt: timePtr(created.Add(time.Hour))},
		{Status: task.StatusTodo, Priority: task.PriorityCritical, CreatedAt: created},
	}
	assert.InDelta(t, 1.0, priorityScore(tasks), 1e-9)
}

func TestBreakdown(t *testing.T) {
	tasks := buildTasks(4, 2)
	tasks[0].EstimatedHours = floatPtr(2.0)
	tasks[0].ActualHours = floatPtr(3.0)
	tasks[1].EstimatedHours = floatPtr(4.0)

	score := Calculate("user-1", tasks, 30, testNow)

	statuses, ok := score.Breakdown["statusBreakdown"].(map[string]int)
	require.True(t, ok)
	assert.Equal(t, 2, statuses["COMPLETED"])
	assert.Equal(t, 2, statuses["TODO"])

	timeAnalysis, ok := score.Breakdown["timeAnalysis"].(map[string]float64)
	require.True(t, ok)
	assert.InDelta(t, 3.0, timeAnalysis["averageEstimatedHours"], 1e-9)
	assert.InDelta(t, 3.0, timeAnalysis["averageActualHours"], 1e-9)
}

func TestConsistencyScore_MergesTimezones(t *testing.T) {
	plusTwo := time.FixedZone("UTC+2", 2*60*60)
	day := func(offset int) time.Time { return testNow.AddDate(0, 0, -offset) }

	tasks := []task.Record{
		{Status: task.StatusCompleted, CreatedAt: day(3), CompletedAt: timePtr(day(3))},
		{Status: task.StatusCompleted, CreatedAt: day(3), CompletedAt: timePtr(day(3).In(plusTwo))},
		{Status: task.StatusCompleted, CreatedAt: day(2), CompletedAt: timePtr(day(2))},
		{Status: task.StatusCompleted, CreatedAt: day(1), CompletedAt: timePtr(day(1))},
	}

	// Daily counts are 2, 1 and 1 once the zone-shifted completion lands in
	// the same civil-day bucket.
	assert.InDelta(t, 0.6464, consistencyScore(tasks, time.UTC), 1e-3)
}
