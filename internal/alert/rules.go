package alert

import (
	"fmt"
	"math"
	"time"

	"taskpulse/internal/forecast"
	"taskpulse/internal/task"
	"taskpulse/internal/trend"
)

// Rules skip entirely when their upstream signal is weaker than this.
const minRuleConfidence = 0.5

// Rule is a single independent alert evaluator. A nil alert with a nil
// error means the rule simply did not fire.
type Rule interface {
	Type() Type
	Evaluate(in Input, th Threshold, s Sensitivity) (*Alert, error)
}

var alertExpiryDays = map[Type]int{
	TypeBurnoutRisk:           1,
	TypePatternAnomaly:        3,
	TypeTrendDecline:          5,
	TypeProductivityDrop:      7,
	TypeWorkloadImbalance:     7,
	TypeEfficiencyOpportunity: 14,
}

func expiry(in Input, t Type) (triggeredAt, expiresAt time.Time) {
	return in.Now, in.Now.AddDate(0, 0, alertExpiryDays[t])
}

type productivityDropRule struct{}

func (productivityDropRule) Type() Type { return TypeProductivityDrop }

func (productivityDropRule) Evaluate(in Input, th Threshold, _ Sensitivity) (*Alert, error) {
	if in.Forecast.Confidence < minRuleConfidence {
		return nil, nil
	}

	var lowDays []forecast.DailyPrediction
	for _, p := range in.Forecast.DailyPredictions {
		if p.PredictedScore < th.Warning {
			lowDays = append(lowDays, p)
		}
	}
	if len(lowDays) == 0 {
		return nil, nil
	}

	var scoreSum float64
	patterns := map[forecast.DayPattern]bool{}
	for _, p := range lowDays {
		scoreSum += p.PredictedScore
		patterns[p.DayPattern] = true
	}
	avgScore := scoreSum / float64(len(lowDays))

	severity := SeverityLow
	switch {
	case avgScore < th.Critical:
		severity = SeverityHigh
	case len(lowDays) >= 3:
		severity = SeverityMedium
	}

	actions := []string{
		"Review and prioritize upcoming tasks",
		"Break down complex tasks into smaller, manageable pieces",
		"Schedule important tasks for higher productivity periods",
	}
	if patterns[forecast.PatternWeekStart] {
		actions = append(actions, "Prepare Sunday evening for Monday productivity")
	}

	distinctPatterns := make([]string, 0, len(patterns))
	for p := range patterns {
		distinctPatterns = append(distinctPatterns, string(p))
	}

	triggeredAt, expiresAt := expiry(in, TypeProductivityDrop)
	return &Alert{
		ID:       newAlertID(in.Now),
		UserID:   in.UserID,
		Type:     TypeProductivityDrop,
		Severity: severity,
		Title:    "Productivity Drop Predicted",
		Message: fmt.Sprintf("Predicted productivity drop detected. %d upcoming days show below-average productivity (%.1f/10).",
			len(lowDays), avgScore),
		Recommendation: dropRecommendation(patterns),
		Confidence:     in.Forecast.Confidence,
		TriggeredAt:    triggeredAt,
		ExpiresAt:      expiresAt,
		Context: map[string]any{
			"affectedDays":          len(lowDays),
			"averagePredictedScore": avgScore,
			"forecastConfidence":    in.Forecast.Confidence,
			"dayPatterns":           distinctPatterns,
		},
		ActionItems:   actions,
		TriggerReason: "Forecast shows productivity below threshold",
	}, nil
}

func dropRecommendation(patterns map[forecast.DayPattern]bool) string {
	rec := "Consider: "
	if patterns[forecast.PatternWeekStart] {
		rec += "preparing for Monday productivity, "
	}
	if patterns[forecast.PatternWeekend] {
		rec += "planning weekend work sessions, "
	}
	return rec + "reviewing task priorities and breaking down complex tasks"
}

type trendDeclineRule struct{}

func (trendDeclineRule) Type() Type { return TypeTrendDecline }

func (trendDeclineRule) Evaluate(in Input, th Threshold, _ Sensitivity) (*Alert, error) {
	if in.Trends.Confidence < minRuleConfidence {
		return nil, nil
	}
	if in.Trends.Direction != trend.DirectionDeclining || in.Trends.Strength <= th.Warning {
		return nil, nil
	}

	severity := SeverityMedium
	if in.Trends.Strength > th.Critical {
		severity = SeverityHigh
	}

	triggeredAt, expiresAt := expiry(in, TypeTrendDecline)
	return &Alert{
		ID:       newAlertID(in.Now),
		UserID:   in.UserID,
		Type:     TypeTrendDecline,
		Severity: severity,
		Title:    "Declining Productivity Trend",
		Message: fmt.Sprintf("Your productivity has been declining with strength %.2f. This trend may continue if not addressed.",
			in.Trends.Strength),
		Recommendation: "Consider reviewing your work patterns and identifying potential obstacles",
		Confidence:     in.Trends.Confidence,
		TriggeredAt:    triggeredAt,
		ExpiresAt:      expiresAt,
		Context: map[string]any{
			"trendStrength":      in.Trends.Strength,
			"trendDirection":     string(in.Trends.Direction),
			"analysisConfidence": in.Trends.Confidence,
			"insights":           in.Trends.Insights,
		},
		ActionItems: []string{
			"Identify factors contributing to declining productivity",
			"Review recent changes in work environment or routine",
			"Consider adjusting task scheduling or priorities",
			"Evaluate current workload and stress levels",
		},
		TriggerReason: "Significant declining trend detected",
	}, nil
}

type patternAnomalyRule struct{}

func (patternAnomalyRule) Type() Type { return TypePatternAnomaly }

func (patternAnomalyRule) Evaluate(in Input, th Threshold, _ Sensitivity) (*Alert, error) {
	oneWeekAgo := in.Now.AddDate(0, 0, -7)
	recent := task.CreatedAfter(in.Tasks, oneWeekAgo)

	recentRate := 0.0
	if len(recent) > 0 {
		completed := 0
		for i := range recent {
			if recent[i].Status == task.StatusCompleted {
				completed++
			}
		}
		recentRate = float64(completed) / float64(len(recent))
	}

	forecastRate := in.Forecast.OverallScore / 10
	anomalyScore := math.Abs(recentRate-forecastRate) * 2
	if anomalyScore <= th.Warning {
		return nil, nil
	}

	severity := SeverityMedium
	if anomalyScore > th.Critical {
		severity = SeverityHigh
	}

	triggeredAt, expiresAt := expiry(in, TypePatternAnomaly)
	return &Alert{
		ID:             newAlertID(in.Now),
		UserID:         in.UserID,
		Type:           TypePatternAnomaly,
		Severity:       severity,
		Title:          "Unusual Work Pattern Detected",
		Message:        "Your recent work patterns differ significantly from your historical behavior",
		Recommendation: "Review recent changes in your work routine or environment",
		Confidence:     0.7,
		TriggeredAt:    triggeredAt,
		ExpiresAt:      expiresAt,
		Context: map[string]any{
			"recentCompletionRate": recentRate,
			"recentTaskCount":      len(recent),
			"forecastAverageRate":  forecastRate,
			"anomalyScore":         anomalyScore,
		},
		ActionItems: []string{
			"Review recent changes in work schedule or environment",
			"Identify any new tools or processes that may be affecting productivity",
			"Consider returning to previously successful work patterns",
			"Monitor patterns for the next few days to confirm anomaly",
		},
		TriggerReason: "Significant deviation from historical patterns",
	}, nil
}

type workloadImbalanceRule struct{}

func (workloadImbalanceRule) Type() Type { return TypeWorkloadImbalance }

func (workloadImbalanceRule) Evaluate(in Input, th Threshold, _ Sensitivity) (*Alert, error) {
	if len(in.Tasks) == 0 {
		return nil, nil
	}

	highPriority := 0
	for i := range in.Tasks {
		if in.Tasks[i].IsHighPriority() {
			highPriority++
		}
	}
	ratio := float64(highPriority) / float64(len(in.Tasks))

	// Balanced workloads sit between 10% and 70% high priority; the target
	// ratio is 40%.
	imbalance := 0.0
	if ratio > 0.7 || ratio < 0.1 {
		imbalance = math.Abs(ratio-0.4) * 2
	}
	if imbalance <= th.Warning {
		return nil, nil
	}

	severity := SeverityMedium
	if imbalance > th.Critical {
		severity = SeverityHigh
	}

	triggeredAt, expiresAt := expiry(in, TypeWorkloadImbalance)
	return &Alert{
		ID:             newAlertID(in.Now),
		UserID:         in.UserID,
		Type:           TypeWorkloadImbalance,
		Severity:       severity,
		Title:          "Workload Imbalance Detected",
		Message:        "Your task distribution shows significant imbalance across priorities or time periods",
		Recommendation: "Consider redistributing tasks more evenly or adjusting priorities",
		Confidence:     0.8,
		TriggeredAt:    triggeredAt,
		ExpiresAt:      expiresAt,
		Context: map[string]any{
			"imbalanceScore":    imbalance,
			"highPriorityRatio": ratio,
			"totalTasks":        len(in.Tasks),
		},
		ActionItems: []string{
			"Review task priority distribution",
			"Consider redistributing high-priority tasks over time",
			"Evaluate if task priorities accurately reflect importance",
			"Balance urgent tasks with important long-term work",
		},
		TriggerReason: "Workload distribution exceeds balance threshold",
	}, nil
}

type burnoutRiskRule struct{}

func (burnoutRiskRule) Type() Type { return TypeBurnoutRisk }

func (burnoutRiskRule) Evaluate(in Input, th Threshold, _ Sensitivity) (*Alert, error) {
	twoWeeksAgo := in.Now.AddDate(0, 0, -14)
	recent := task.CreatedAfter(in.Tasks, twoWeeksAgo)

	risk := 0.0
	var factors []string

	switch {
	case len(recent) > 50:
		risk += 0.3
		factors = append(factors, "High task volume in recent weeks")
	case len(recent) > 30:
		risk += 0.2
	}

	if in.Trends.Direction == "DECREASING" {
		risk += in.Trends.Strength * 0.4
		factors = append(factors, "Declining productivity trend")
	}

	if len(recent) > 0 {
		highPriority := 0
		for i := range recent {
			if recent[i].IsHighPriority() {
				highPriority++
			}
		}
		if float64(highPriority)/float64(len(recent)) > 0.6 {
			risk += 0.3
			factors = append(factors, "High proportion of urgent/critical tasks")
		}
	}

	risk = math.Min(1, risk)
	if risk <= th.Warning {
		return nil, nil
	}

	severity := SeverityHigh
	if risk > th.Critical {
		severity = SeverityCritical
	}

	triggeredAt, expiresAt := expiry(in, TypeBurnoutRisk)
	return &Alert{
		ID:             newAlertID(in.Now),
		UserID:         in.UserID,
		Type:           TypeBurnoutRisk,
		Severity:       severity,
		Title:          "Burnout Risk Detected",
		Message:        "Current work patterns indicate elevated risk of burnout",
		Recommendation: "Consider taking breaks, reducing workload, or seeking support",
		Confidence:     0.75,
		TriggeredAt:    triggeredAt,
		ExpiresAt:      expiresAt,
		Context: map[string]any{
			"burnoutRisk": risk,
			"riskFactors": factors,
		},
		ActionItems: []string{
			"Take regular breaks throughout the day",
			"Consider delegating or postponing non-critical tasks",
			"Evaluate current workload with supervisor or team",
			"Prioritize self-care and work-life balance",
			"Seek support if feeling overwhelmed",
		},
		TriggerReason: "Multiple burnout risk indicators detected",
	}, nil
}

type efficiencyOpportunityRule struct{}

func (efficiencyOpportunityRule) Type() Type { return TypeEfficiencyOpportunity }

func (efficiencyOpportunityRule) Evaluate(in Input, _ Threshold, s Sensitivity) (*Alert, error) {
	if s.Multiplier() < 0.5 || len(in.Tasks) == 0 {
		return nil, nil
	}

	var opportunities []string

	inProgress := 0
	for i := range in.Tasks {
		if in.Tasks[i].Status == task.StatusInProgress {
			inProgress++
		}
	}
	if float64(inProgress)/float64(len(in.Tasks)) > 0.3 {
		opportunities = append(opportunities, "Consider focusing on completing existing tasks before starting new ones")
	}

	var errSum float64
	var errN int
	for i := range in.Tasks {
		t := &in.Tasks[i]
		if t.EstimatedHours == nil || t.ActualHours == nil {
			continue
		}
		errSum += math.Abs(*t.EstimatedHours - *t.ActualHours)
		errN++
	}
	if errN > 0 && errSum/float64(errN) > 2.0 {
		opportunities = append(opportunities, "Improve time estimation accuracy for better planning")
	}

	if len(opportunities) == 0 {
		return nil, nil
	}

	triggeredAt, expiresAt := expiry(in, TypeEfficiencyOpportunity)
	return &Alert{
		ID:             newAlertID(in.Now),
		UserID:         in.UserID,
		Type:           TypeEfficiencyOpportunity,
		Severity:       SeverityLow,
		Title:          "Efficiency Improvement Opportunities",
		Message:        "Analysis suggests potential areas for productivity improvement",
		Recommendation: "Consider implementing suggested efficiency improvements",
		Confidence:     0.6,
		TriggeredAt:    triggeredAt,
		ExpiresAt:      expiresAt,
		Context:        map[string]any{"opportunities": opportunities},
		ActionItems:    opportunities,
		TriggerReason:  "Efficiency improvement opportunities identified",
	}, nil
}
