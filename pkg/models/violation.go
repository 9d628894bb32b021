package models

// Violation records a single rule failure against a specific target.
// Violations are pure values: a validation pass builds a fresh set and
// never mutates previously returned ones.
type Violation struct {
	// RuleID identifies the rule that produced this violation.
	RuleID string `json:"rule_id"`
	// TargetID is an opaque handle into the scene (node path, or "scene"
	// for scene-global findings).
	TargetID string `json:"target_id"`
	// Category is the rule's category, carried so reports can order and
	// group violations without a ruleset lookup.
	Category Category `json:"category"`
	// Severity is the effective severity after ruleset overrides.
	Severity Severity `json:"severity"`
	// Message is a human-readable description of the failure.
	Message string `json:"message"`
	// Fixable indicates an automatic repair is registered for this
	// violation's fix category.
	Fixable bool `json:"fixable"`
	// FixCategory names the repair action, when Fixable is true.
	FixCategory FixCategory `json:"fix_category,omitempty"`
}

// Key returns the dedupe identity of the violation. Two violations with
// the same key describe the same finding and collapse into one.
func (v Violation) Key() string {
	return v.RuleID + "\x00" + v.TargetID
}
