// Package alert evaluates a rule set over forecast, trend and raw task data
// and raises deduplicated, severity-ranked proactive alerts.
package alert

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"taskpulse/internal/forecast"
	"taskpulse/internal/task"
	"taskpulse/internal/trend"
)

type (
	Type     string
	Severity string
)

const (
	TypeProductivityDrop      Type = "PRODUCTIVITY_DROP"
	TypeTrendDecline          Type = "TREND_DECLINE"
	TypePatternAnomaly        Type = "PATTERN_ANOMALY"
	TypeWorkloadImbalance     Type = "WORKLOAD_IMBALANCE"
	TypeBurnoutRisk           Type = "BURNOUT_RISK"
	TypeEfficiencyOpportunity Type = "EFFICIENCY_OPPORTUNITY"
)

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

var severityRank = map[Severity]int{
	SeverityLow:      0,
	SeverityMedium:   1,
	SeverityHigh:     2,
	SeverityCritical: 3,
}

// Rank orders severities; higher is more severe.
func (s Severity) Rank() int {
	return severityRank[s]
}

type Sensitivity string

const (
	SensitivityLow      Sensitivity = "LOW"
	SensitivityMedium   Sensitivity = "MEDIUM"
	SensitivityHigh     Sensitivity = "HIGH"
	SensitivityVeryHigh Sensitivity = "VERY_HIGH"
)

var sensitivityMultipliers = map[Sensitivity]float64{
	SensitivityLow:      0.3,
	SensitivityMedium:   0.5,
	SensitivityHigh:     0.7,
	SensitivityVeryHigh: 0.9,
}

// Multiplier scales alert thresholds for this sensitivity level.
func (s Sensitivity) Multiplier() float64 {
	return sensitivityMultipliers[s]
}

func ParseSensitivity(s string) (Sensitivity, error) {
	sensitivity := Sensitivity(s)
	if _, ok := sensitivityMultipliers[sensitivity]; !ok {
		return "", fmt.Errorf("unknown sensitivity: %q", s)
	}
	return sensitivity, nil
}

type Alert struct {
	ID             string         `json:"id"`
	UserID         string         `json:"user_id"`
	Type           Type           `json:"type"`
	Severity       Severity       `json:"severity"`
	Title          string         `json:"title"`
	Message        string         `json:"message"`
	Recommendation string         `json:"recommendation"`
	Confidence     float64        `json:"confidence"`
	TriggeredAt    time.Time      `json:"triggered_at"`
	ExpiresAt      time.Time      `json:"expires_at"`
	Context        map[string]any `json:"context"`
	ActionItems    []string       `json:"action_items"`
	TriggerReason  string         `json:"trigger_reason"`
}

// Input carries everything a rule may inspect. The forecast and trend
// analysis are precomputed by the caller, never derived here.
type Input struct {
	UserID   string
	Tasks    []task.Record
	Forecast forecast.Forecast
	Trends   trend.Analysis
	Now      time.Time
}

func newAlertID(now time.Time) string {
	return fmt.Sprintf("ALERT_%d_%s", now.UnixMilli(), uuid.NewString()[:8])
}
