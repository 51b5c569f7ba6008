package alert

import (
	"fmt"
	"log"
	"sort"
)

// Engine evaluates every registered rule against sensitivity-scaled
// thresholds. Rules are independent: one rule failing (error or panic) never
// suppresses the others.
type Engine struct {
	rules []Rule
	cfg   Config
}

// NewEngine validates the threshold table against the registered rules and
// fails fast on a malformed or incomplete configuration.
func NewEngine(cfg Config) (*Engine, error) {
	rules := []Rule{
		productivityDropRule{},
		trendDeclineRule{},
		patternAnomalyRule{},
		workloadImbalanceRule{},
		burnoutRiskRule{},
		efficiencyOpportunityRule{},
	}

	types := make([]Type, len(rules))
	for i, r := range rules {
		types[i] = r.Type()
	}
	if err := cfg.validate(types); err != nil {
		return nil, fmt.Errorf("invalid alert config: %w", err)
	}

	return &Engine{rules: rules, cfg: cfg}, nil
}

// Generate runs all rules, deduplicates by type keeping the highest
// severity, and returns alerts sorted by severity descending. An empty task
// snapshot yields an empty list; so does total evaluation failure.
func (e *Engine) Generate(in Input, s Sensitivity) []Alert {
	alerts := []Alert{}
	if len(in.Tasks) == 0 {
		return alerts
	}

	for _, rule := range e.rules {
		threshold := e.cfg.Thresholds[rule.Type()].scaled(s)
		a, err := evaluateRule(rule, in, threshold, s)
		if err != nil {
			log.Printf("alert rule %s failed for user %s: %v", rule.Type(), in.UserID, err)
			continue
		}
		if a != nil {
			alerts = append(alerts, *a)
		}
	}

	return rank(alerts)
}

// evaluateRule isolates a single rule, converting panics into errors.
func evaluateRule(rule Rule, in Input, th Threshold, s Sensitivity) (a *Alert, err error) {
	defer func() {
		if r := recover(); r != nil {
			a, err = nil, fmt.Errorf("rule panicked: %v", r)
		}
	}()
	return rule.Evaluate(in, th, s)
}

func rank(alerts []Alert) []Alert {
	byType := map[Type]Alert{}
	for _, a := range alerts {
		existing, ok := byType[a.Type]
		if !ok || a.Severity.Rank() > existing.Severity.Rank() {
			byType[a.Type] = a
		}
	}

	ranked := make([]Alert, 0, len(byType))
	for _, a := range byType {
		ranked = append(ranked, a)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Severity.Rank() != ranked[j].Severity.Rank() {
			return ranked[i].Severity.Rank() > ranked[j].Severity.Rank()
		}
		return ranked[i].Type < ranked[j].Type
	})
	return ranked
}
