package alert

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskpulse/internal/forecast"
	"taskpulse/internal/task"
	"taskpulse/internal/trend"
)

func lowForecast(confidence float64, scores ...float64) forecast.Forecast {
	predictions := make([]forecast.DailyPrediction, 0, len(scores))
	start := testNow.AddDate(0, 0, 1)
	for i, score := range scores {
		predictions = append(predictions, forecast.DailyPrediction{
			Date:           start.AddDate(0, 0, i),
			PredictedScore: score,
			DayPattern:     forecast.PatternMidWeek,
		})
	}
	return forecast.Forecast{
		UserID:           "user-1",
		DailyPredictions: predictions,
		Confidence:       confidence,
	}
}

func TestProductivityDropRule(t *testing.T) {
	rule := productivityDropRule{}
	th := DefaultConfig().Thresholds[TypeProductivityDrop].scaled(SensitivityMedium)

	t.Run("skips on low forecast confidence", func(t *testing.T) {
		in := Input{UserID: "user-1", Forecast: lowForecast(0.4, 1.0, 1.0), Now: testNow}
		a, err := rule.Evaluate(in, th, SensitivityMedium)
		require.NoError(t, err)
		assert.Nil(t, a)
	})

	t.Run("no low days no alert", func(t *testing.T) {
		in := Input{UserID: "user-1", Forecast: lowForecast(0.8, 6.0, 7.0, 8.0), Now: testNow}
		a, err := rule.Evaluate(in, th, SensitivityMedium)
		require.NoError(t, err)
		assert.Nil(t, a)
	})

	t.Run("severe drop yields high severity", func(t *testing.T) {
		// Warning threshold at MEDIUM is 2.0; average of low days is 1.0,
		// below the scaled critical floor of 1.25.
		in := Input{UserID: "user-1", Forecast: lowForecast(0.8, 1.0, 1.0, 1.0), Now: testNow}
		a, err := rule.Evaluate(in, th, SensitivityMedium)
		require.NoError(t, err)
		require.NotNil(t, a)
		assert.Equal(t, TypeProductivityDrop, a.Type)
		assert.Equal(t, SeverityHigh, a.Severity)
		assert.Equal(t, 3, a.Context["affectedDays"])
		assert.Equal(t, testNow.AddDate(0, 0, 7), a.ExpiresAt)
	})

	t.Run("moderate drop yields medium severity", func(t *testing.T) {
		in := Input{UserID: "user-1", Forecast: lowForecast(0.8, 1.8, 1.8, 1.8), Now: testNow}
		a, err := rule.Evaluate(in, th, SensitivityMedium)
		require.NoError(t, err)
		require.NotNil(t, a)
		assert.Equal(t, SeverityMedium, a.Severity)
	})

	t.Run("higher sensitivity widens detection", func(t *testing.T) {
		// A 3.0 forecast clears the MEDIUM-scaled warning of 2.0 but not
		// the VERY_HIGH-scaled warning of 3.6.
		in := Input{UserID: "user-1", Forecast: lowForecast(0.8, 3.0, 3.0, 3.0), Now: testNow}

		a, err := rule.Evaluate(in, th, SensitivityMedium)
		require.NoError(t, err)
		assert.Nil(t, a)

		veryHigh := DefaultConfig().Thresholds[TypeProductivityDrop].scaled(SensitivityVeryHigh)
		a, err = rule.Evaluate(in, veryHigh, SensitivityVeryHigh)
		require.NoError(t, err)
		require.NotNil(t, a)
		assert.Equal(t, SeverityMedium, a.Severity)
	})
}

func TestTrendDeclineRule(t *testing.T) {
	rule := trendDeclineRule{}
	th := DefaultConfig().Thresholds[TypeTrendDecline].scaled(SensitivityMedium)

	t.Run("skips on low analysis confidence", func(t *testing.T) {
		in := Input{Trends: trend.Analysis{Direction: trend.DirectionDeclining, Strength: 0.9, Confidence: 0.3}, Now: testNow}
		a, err := rule.Evaluate(in, th, SensitivityMedium)
		require.NoError(t, err)
		assert.Nil(t, a)
	})

	t.Run("ignores non-declining directions", func(t *testing.T) {
		for _, dir := range []trend.Direction{trend.DirectionImproving, trend.DirectionStable, trend.DirectionNoData} {
			in := Input{Trends: trend.Analysis{Direction: dir, Strength: 0.9, Confidence: 0.8}, Now: testNow}
			a, err := rule.Evaluate(in, th, SensitivityMedium)
			require.NoError(t, err)
			assert.Nil(t, a, "direction %s should not fire", dir)
		}
	})

	t.Run("strong decline yields high severity", func(t *testing.T) {
		in := Input{
			UserID: "user-1",
			Trends: trend.Analysis{Direction: trend.DirectionDeclining, Strength: 0.9, Confidence: 0.8},
			Now:    testNow,
		}
		a, err := rule.Evaluate(in, th, SensitivityMedium)
		require.NoError(t, err)
		require.NotNil(t, a)
		assert.Equal(t, TypeTrendDecline, a.Type)
		assert.Equal(t, SeverityHigh, a.Severity)
		assert.Equal(t, testNow.AddDate(0, 0, 5), a.ExpiresAt)
	})
}

func TestPatternAnomalyRule(t *testing.T) {
	rule := patternAnomalyRule{}
	th := DefaultConfig().Thresholds[TypePatternAnomaly].scaled(SensitivityMedium)

	t.Run("fires when recent behavior diverges from forecast", func(t *testing.T) {
		// No recent completions against a forecast averaging 8/10.
		tasks := someTasks(10)
		in := Input{
			UserID:   "user-1",
			Tasks:    tasks,
			Forecast: forecast.Forecast{OverallScore: 8.0},
			Now:      testNow,
		}
		a, err := rule.Evaluate(in, th, SensitivityMedium)
		require.NoError(t, err)
		require.NotNil(t, a)
		assert.Equal(t, TypePatternAnomaly, a.Type)
		assert.Equal(t, SeverityHigh, a.Severity)
	})

	t.Run("quiet when behavior matches forecast", func(t *testing.T) {
		tasks := someTasks(10)
		for i := range tasks {
			tasks[i].Status = task.StatusCompleted
			tasks[i].CompletedAt = timePtr(tasks[i].CreatedAt.Add(time.Hour))
		}
		in := Input{
			UserID:   "user-1",
			Tasks:    tasks,
			Forecast: forecast.Forecast{OverallScore: 10.0},
			Now:      testNow,
		}
		a, err := rule.Evaluate(in, th, SensitivityMedium)
		require.NoError(t, err)
		assert.Nil(t, a)
	})
}

func TestWorkloadImbalanceRule(t *testing.T) {
	rule := workloadImbalanceRule{}
	th := DefaultConfig().Thresholds[TypeWorkloadImbalance].scaled(SensitivityMedium)

	t.Run("no tasks no alert", func(t *testing.T) {
		a, err := rule.Evaluate(Input{Now: testNow}, th, SensitivityMedium)
		require.NoError(t, err)
		assert.Nil(t, a)
	})

	t.Run("balanced ratio stays quiet", func(t *testing.T) {
		tasks := someTasks(10)
		for i := 0; i < 4; i++ {
			tasks[i].Priority = task.PriorityHigh
		}
		a, err := rule.Evaluate(Input{UserID: "user-1", Tasks: tasks, Now: testNow}, th, SensitivityMedium)
		require.NoError(t, err)
		assert.Nil(t, a)
	})

	t.Run("everything critical fires high", func(t *testing.T) {
		tasks := someTasks(10)
		for i := range tasks {
			tasks[i].Priority = task.PriorityCritical
		}
		a, err := rule.Evaluate(Input{UserID: "user-1", Tasks: tasks, Now: testNow}, th, SensitivityMedium)
		require.NoError(t, err)
		require.NotNil(t, a)
		assert.Equal(t, TypeWorkloadImbalance, a.Type)
		assert.Equal(t, SeverityHigh, a.Severity)
		assert.InDelta(t, 1.0, a.Context["highPriorityRatio"], 1e-9)
	})
}

func TestBurnoutRiskRule(t *testing.T) {
	rule := burnoutRiskRule{}
	th := DefaultConfig().Thresholds[TypeBurnoutRisk].scaled(SensitivityMedium)

	t.Run("calm workload stays quiet", func(t *testing.T) {
		a, err := rule.Evaluate(Input{UserID: "user-1", Tasks: someTasks(10), Now: testNow}, th, SensitivityMedium)
		require.NoError(t, err)
		assert.Nil(t, a)
	})

	t.Run("high volume of urgent work fires critical", func(t *testing.T) {
		// 60 tasks in the last two weeks, all critical priority: volume
		// risk 0.3 plus urgency risk 0.3 exceeds the scaled critical level.
		tasks := someTasks(60)
		for i := range tasks {
			tasks[i].Priority = task.PriorityCritical
		}
		a, err := rule.Evaluate(Input{UserID: "user-1", Tasks: tasks, Now: testNow}, th, SensitivityMedium)
		require.NoError(t, err)
		require.NotNil(t, a)
		assert.Equal(t, TypeBurnoutRisk, a.Type)
		assert.Equal(t, SeverityCritical, a.Severity)
		assert.Equal(t, testNow.AddDate(0, 0, 1), a.ExpiresAt)

		factors, ok := a.Context["riskFactors"].([]string)
		require.True(t, ok)
		assert.NotEmpty(t, factors)
	})
}

func TestEfficiencyOpportunityRule(t *testing.T) {
	rule := efficiencyOpportunityRule{}
	th := DefaultConfig().Thresholds[TypeEfficiencyOpportunity]

	t.Run("disabled at low sensitivity", func(t *testing.T) {
		tasks := someTasks(10)
		for i := range tasks {
			tasks[i].Status = task.StatusInProgress
		}
		a, err := rule.Evaluate(Input{UserID: "user-1", Tasks: tasks, Now: testNow}, th, SensitivityLow)
		require.NoError(t, err)
		assert.Nil(t, a)
	})

	t.Run("too much work in progress", func(t *testing.T) {
		tasks := someTasks(10)
		for i := 0; i < 5; i++ {
			tasks[i].Status = task.StatusInProgress
		}
		a, err := rule.Evaluate(Input{UserID: "user-1", Tasks: tasks, Now: testNow}, th, SensitivityHigh)
		require.NoError(t, err)
		require.NotNil(t, a)
		assert.Equal(t, TypeEfficiencyOpportunity, a.Type)
		assert.Equal(t, SeverityLow, a.Severity)
	})

	t.Run("poor estimation accuracy", func(t *testing.T) {
		tasks := someTasks(6)
		for i := range tasks {
			tasks[i].EstimatedHours = floatPtr(2.0)
			tasks[i].ActualHours = floatPtr(7.0)
		}
		a, err := rule.Evaluate(Input{UserID: "user-1", Tasks: tasks, Now: testNow}, th, SensitivityHigh)
		require.NoError(t, err)
		require.NotNil(t, a)
		assert.Equal(t, SeverityLow, a.Severity)
		assert.Equal(t, testNow.AddDate(0, 0, 14), a.ExpiresAt)
	})

	t.Run("well estimated focused work stays quiet", func(t *testing.T) {
		tasks := someTasks(10)
		for i := range tasks {
			tasks[i].EstimatedHours = floatPtr(2.0)
			tasks[i].ActualHours = floatPtr(2.5)
		}
		a, err := rule.Evaluate(Input{UserID: "user-1", Tasks: tasks, Now: testNow}, th, SensitivityHigh)
		require.NoError(t, err)
		assert.Nil(t, a)
	})
}

// steadyMonth builds a month of evenly paced work: two tasks per day for the
// 28 days before now, one of them completed the same day. Two days also see
// their second task finished. High-priority work stays at half the load and
// estimates track actuals closely.
func steadyMonth() []task.Record {
	var tasks []task.Record
	for offset := 1; offset <= 28; offset++ {
		created := testNow.AddDate(0, 0, -offset).Add(-3 * time.Hour)

		done := task.Record{
			ID:             fmt.Sprintf("done-%d", offset),
			UserID:         "user-1",
			Status:         task.StatusCompleted,
			Priority:       task.PriorityMedium,
			CreatedAt:      created,
			CompletedAt:    timePtr(created.Add(2 * time.Hour)),
			EstimatedHours: floatPtr(2.0),
			ActualHours:    floatPtr(2.5),
		}

		open := task.Record{
			ID:             fmt.Sprintf("open-%d", offset),
			UserID:         "user-1",
			Status:         task.StatusTodo,
			Priority:       task.PriorityHigh,
			CreatedAt:      created,
			EstimatedHours: floatPtr(2.0),
		}
		if offset == 2 || offset == 5 {
			open.Status = task.StatusCompleted
			open.CompletedAt = timePtr(created.Add(3 * time.Hour))
			open.ActualHours = floatPtr(2.5)
		}

		tasks = append(tasks, done, open)
	}
	return tasks
}

func TestGenerate_SteadyWorkloadStaysQuiet(t *testing.T) {
	engine := newTestEngine(t)
	tasks := steadyMonth()

	trends := trend.Analyze("user-1", tasks, 30, testNow)
	assert.Equal(t, trend.DirectionStable, trends.Direction)

	fc := forecast.Predict("user-1", tasks, trends, 7, testNow)
	assert.GreaterOrEqual(t, fc.OverallScore, 4.0)
	assert.LessOrEqual(t, fc.OverallScore, 8.0)

	in := Input{UserID: "user-1", Tasks: tasks, Forecast: fc, Trends: trends, Now: testNow}

	medium := engine.Generate(in, SensitivityMedium)
	assert.Empty(t, medium, "steady workload should not alert at medium sensitivity: %v", medium)

	high := engine.Generate(in, SensitivityHigh)
	assert.LessOrEqual(t, len(high), 1)
	for _, a := range high {
		assert.Equal(t, TypeEfficiencyOpportunity, a.Type)
	}
}
