// Package health scores policy hygiene against the active rollout phase.
// The check is pure: it inspects rules and trusted publishers in memory
// and produces a bucketed finding count with a penalty-based score.
package health

import (
	"fmt"
	"strings"

	"github.com/lockfleet/lockfleet/internal/inventory"
	"github.com/lockfleet/lockfleet/internal/policy"
)

// Phase is the ordered rollout stage selecting which file categories are
// in scope for enforcement and therefore for scoring.
type Phase int

const (
	// Phase1 enforces executables only.
	Phase1 Phase = 1
	// Phase2 adds installers.
	Phase2 Phase = 2
	// Phase3 adds scripts.
	Phase3 Phase = 3
	// Phase4 adds DLLs, covering every category.
	Phase4 Phase = 4
)

// Scope returns the categories the phase enforces. Categories outside
// scope are excluded from findings and from any coverage denominator.
func (p Phase) Scope() []inventory.Category {
	switch {
	case p <= Phase1:
		return []inventory.Category{inventory.CategoryEXE}
	case p == Phase2:
		return []inventory.Category{inventory.CategoryEXE, inventory.CategoryMSI}
	case p == Phase3:
		return []inventory.Category{inventory.CategoryEXE, inventory.CategoryMSI, inventory.CategoryScript}
	default:
		return inventory.Categories()
	}
}

// Weights parameterizes the score formula. Defaults come from
// configuration, not from the scoring logic.
type Weights struct {
	BaseScore       int
	CriticalPenalty int
	WarningPenalty  int
	InfoPenalty     int
}

// DefaultWeights returns the standard penalty configuration.
func DefaultWeights() Weights {
	return Weights{BaseScore: 100, CriticalPenalty: 20, WarningPenalty: 5, InfoPenalty: 1}
}

// Level buckets a finding by consequence.
type Level string

const (
	LevelCritical Level = "critical"
	LevelWarning  Level = "warning"
	LevelInfo     Level = "info"
)

// Finding is one observed defect in policy coverage or hygiene.
type Finding struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Report is the health check outcome.
type Report struct {
	Critical int       `json:"critical"`
	Warning  int       `json:"warning"`
	Info     int       `json:"info"`
	Score    int       `json:"score"`
	Findings []Finding `json:"findings,omitempty"`
}

// Score applies the penalty formula and clamps at zero. There is no
// upper clamp: the formula only subtracts from the base.
func Score(w Weights, critical, warning, info int) int {
	score := w.BaseScore - critical*w.CriticalPenalty - warning*w.WarningPenalty - info*w.InfoPenalty
	if score < 0 {
		return 0
	}
	return score
}

// RunHealthCheck evaluates rules and trusted publishers against the
// phase scope. Empty input has nothing to penalize beyond missing
// coverage; a fully covered, duplicate-free, orphan-free policy scores
// the full base.
func RunHealthCheck(rules []policy.Rule, publishers []inventory.TrustedPublisher, phase Phase, w Weights) Report {
	report := Report{}

	// Nothing to check means nothing to penalize: an empty policy under
	// evaluation scores the full base rather than failing.
	if len(rules) == 0 && len(publishers) == 0 {
		report.Score = Score(w, 0, 0, 0)
		return report
	}

	inScope := make(map[inventory.Category]bool)
	for _, c := range phase.Scope() {
		inScope[c] = true
	}

	covered := make(map[inventory.Category]bool)
	seen := make(map[string]bool)
	rulesByPublisher := make(map[string]bool)

	for _, rule := range rules {
		if !inScope[rule.Category] {
			continue
		}
		covered[rule.Category] = true

		// Two rules with the same shape are overlapping regardless of
		// their identifiers.
		key := strings.Join([]string{string(rule.Type), string(rule.Category), rule.Name, string(rule.Action), rule.TargetGroup}, "\x00")
		if seen[key] {
			report.add(LevelWarning, fmt.Sprintf("duplicate %s rule %q in category %s", rule.Type, rule.Name, rule.Category))
		}
		seen[key] = true

		if rule.Type == policy.RuleTypePublisher {
			rulesByPublisher[rule.Name] = true
		}
	}

	for _, category := range phase.Scope() {
		if !covered[category] {
			report.add(LevelCritical, fmt.Sprintf("no rules cover category %s required by phase %d", category, phase))
		}
	}

	for _, pub := range publishers {
		name := policy.DisplayName(pub.Name)
		if name == "" {
			name = policy.DisplayName(pub.DistinguishedName)
		}
		if !rulesByPublisher[name] {
			report.add(LevelInfo, fmt.Sprintf("trusted publisher %q has no corresponding rule", pub.Name))
		}
	}

	report.Score = Score(w, report.Critical, report.Warning, report.Info)
	return report
}

func (r *Report) add(level Level, message string) {
	r.Findings = append(r.Findings, Finding{Level: level, Message: message})
	switch level {
	case LevelCritical:
		r.Critical++
	case LevelWarning:
		r.Warning++
	case LevelInfo:
		r.Info++
	}
}
