package alert

import "fmt"

// Threshold holds the per-type trigger levels. Warning and Critical are
// scaled by the sensitivity multiplier before evaluation; for
// PRODUCTIVITY_DROP the critical value is a floor under the warning value
// rather than a ceiling above it.
type Threshold struct {
	Warning             float64 `json:"warning_threshold"`
	Critical            float64 `json:"critical_threshold"`
	MinimumDataPoints   int     `json:"minimum_data_points"`
	ConfidenceThreshold float64 `json:"confidence_threshold"`
	Description         string  `json:"description"`
}

// Config is the immutable threshold table handed to NewEngine. It is
// validated once at construction; evaluation never consults anything else.
type Config struct {
	Thresholds map[Type]Threshold
}

func DefaultConfig() Config {
	return Config{
		Thresholds: map[Type]Threshold{
			TypeProductivityDrop: {
				Warning:             4.0,
				Critical:            2.5,
				MinimumDataPoints:   5,
				ConfidenceThreshold: 0.5,
				Description:         "Productivity score below expected levels",
			},
			TypeTrendDecline: {
				Warning:             0.3,
				Critical:            0.6,
				MinimumDataPoints:   10,
				ConfidenceThreshold: 0.6,
				Description:         "Declining productivity trend strength",
			},
			TypePatternAnomaly: {
				Warning:             0.4,
				Critical:            0.7,
				MinimumDataPoints:   7,
				ConfidenceThreshold: 0.5,
				Description:         "Significant deviation from normal patterns",
			},
			TypeWorkloadImbalance: {
				Warning:             0.5,
				Critical:            0.8,
				MinimumDataPoints:   10,
				ConfidenceThreshold: 0.7,
				Description:         "Uneven distribution of task priorities or workload",
			},
			TypeBurnoutRisk: {
				Warning:             0.6,
				Critical:            0.8,
				MinimumDataPoints:   15,
				ConfidenceThreshold: 0.7,
				Description:         "Risk factors indicating potential burnout",
			},
			TypeEfficiencyOpportunity: {
				Warning:             0.3,
				Critical:            0.6,
				MinimumDataPoints:   5,
				ConfidenceThreshold: 0.5,
				Description:         "Potential areas for productivity improvement",
			},
		},
	}
}

func (c Config) validate(types []Type) error {
	for _, t := range types {
		th, ok := c.Thresholds[t]
		if !ok {
			return fmt.Errorf("missing threshold for alert type %s", t)
		}
		if th.Warning < 0 || th.Critical < 0 {
			return fmt.Errorf("negative threshold for alert type %s", t)
		}
		if th.ConfidenceThreshold < 0 || th.ConfidenceThreshold > 1 {
			return fmt.Errorf("confidence threshold out of range for alert type %s", t)
		}
		if th.MinimumDataPoints < 0 {
			return fmt.Errorf("negative minimum data points for alert type %s", t)
		}
	}
	return nil
}

func (t Threshold) scaled(s Sensitivity) Threshold {
	scaled := t
	scaled.Warning *= s.Multiplier()
	scaled.Critical *= s.Multiplier()
	return scaled
}
