package models

import "time"

// ValidationReport is an immutable snapshot of one validation pass.
type ValidationReport struct {
	// Violations holds every deduplicated violation found in this pass.
	Violations []Violation `json:"violations"`
	// SeverityCounts maps each severity to its violation count.
	SeverityCounts map[Severity]int `json:"severity_counts"`
	// Pass is true iff no error-severity violation remains.
	Pass bool `json:"pass"`
	// Timestamp is when the pass completed.
	Timestamp time.Time `json:"timestamp"`
	// Iteration is the 1-based validation pass number within a session.
	Iteration int `json:"iteration"`
}

// NewValidationReport builds a report from a violation set, computing
// severity counts and the pass flag.
func NewValidationReport(violations []Violation, iteration int, now time.Time) *ValidationReport {
	counts := make(map[Severity]int)
	for _, v := range violations {
		counts[v.Severity]++
	}
	return &ValidationReport{
		Violations:     violations,
		SeverityCounts: counts,
		Pass:           counts[SeverityError] == 0,
		Timestamp:      now,
		Iteration:      iteration,
	}
}

// Errors returns the number of error-severity violations.
func (r *ValidationReport) Errors() int {
	return r.SeverityCounts[SeverityError]
}

// Fixable returns the violations an automatic repair is registered for.
func (r *ValidationReport) Fixable() []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Fixable {
			out = append(out, v)
		}
	}
	return out
}
