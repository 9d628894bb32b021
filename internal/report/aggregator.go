// Package report rolls violations up into severities and a pass/fail gate
// decision, and serializes reports for UI/CLI/CI consumers. Output
// ordering is stable so runs on an unchanged scene diff cleanly.
package report

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/meshworks/assetgate/pkg/models"
)

// SeverityCounts holds per-severity totals in a fixed field order so
// serialization never depends on map iteration.
type SeverityCounts struct {
	// Errors counts error-severity violations.
	Errors int `json:"errors"`
	// Warnings counts warning-severity violations.
	Warnings int `json:"warnings"`
	// Infos counts info-severity violations.
	Infos int `json:"infos"`
}

// SerializedReport is the machine-readable gate output. Wall-clock
// timestamps are deliberately excluded: two runs on an unchanged scene
// must serialize byte-identically.
type SerializedReport struct {
	// Pass is true iff no error-severity violation remains.
	Pass bool `json:"pass"`
	// Outcome is the terminal session outcome; "clean" for a plain
	// validate with no remaining errors.
	Outcome models.SessionOutcome `json:"outcome,omitempty"`
	// Iteration is the validation pass that produced this report.
	Iteration int `json:"iteration"`
	// SeverityCounts totals violations per severity.
	SeverityCounts SeverityCounts `json:"severity_counts"`
	// Violations lists every violation in stable order.
	Violations []models.Violation `json:"violations"`
	// Unresolved lists violations whose fix attempt failed, with the
	// failure reason, so gating never silently downgrades them.
	Unresolved []UnresolvedFix `json:"unresolved,omitempty"`
}

// UnresolvedFix records a fixable violation that a fix pass failed on.
type UnresolvedFix struct {
	// Violation is the violation the fix targeted.
	Violation models.Violation `json:"violation"`
	// Reason is the fix failure message.
	Reason string `json:"reason"`
}

// Aggregate builds the serialized gate output from a validation report,
// the session outcome, and the session's fix results.
func Aggregate(r *models.ValidationReport, outcome models.SessionOutcome, fixResults []models.FixResult) *SerializedReport {
	violations := append([]models.Violation(nil), r.Violations...)
	sortViolations(violations)

	sr := &SerializedReport{
		Pass:      r.Pass,
		Outcome:   outcome,
		Iteration: r.Iteration,
		SeverityCounts: SeverityCounts{
			Errors:   r.SeverityCounts[models.SeverityError],
			Warnings: r.SeverityCounts[models.SeverityWarning],
			Infos:    r.SeverityCounts[models.SeverityInfo],
		},
		Violations: violations,
	}

	// Surface failed fixes for violations that are still outstanding.
	remaining := make(map[string]bool, len(violations))
	for _, v := range violations {
		remaining[v.Key()] = true
	}
	for _, fr := range fixResults {
		if fr.Outcome == models.FixFailed && remaining[fr.Violation.Key()] {
			sr.Unresolved = append(sr.Unresolved, UnresolvedFix{
				Violation: fr.Violation,
				Reason:    fr.Reason,
			})
		}
	}
	sort.Slice(sr.Unresolved, func(i, j int) bool {
		return sr.Unresolved[i].Violation.Key() < sr.Unresolved[j].Violation.Key()
	})

	return sr
}

// sortViolations orders by severity, then category, then rule id, then
// target id.
func sortViolations(violations []models.Violation) {
	sort.Slice(violations, func(i, j int) bool {
		a, b := violations[i], violations[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() < b.Severity.Rank()
		}
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		if a.RuleID != b.RuleID {
			return a.RuleID < b.RuleID
		}
		return a.TargetID < b.TargetID
	})
}

// JSON serializes the report deterministically.
func (sr *SerializedReport) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(sr, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	return append(data, '\n'), nil
}

// Text renders the report for terminal output, one line per violation.
func (sr *SerializedReport) Text() string {
	var sb strings.Builder

	if len(sr.Violations) == 0 {
		sb.WriteString("No violations found.\n")
	}
	for _, v := range sr.Violations {
		fmt.Fprintf(&sb, "[%s] %s  %s: %s", strings.ToUpper(string(v.Severity)), v.RuleID, v.TargetID, v.Message)
		if v.Fixable {
			sb.WriteString("  (fixable)")
		}
		sb.WriteString("\n")
	}

	for _, u := range sr.Unresolved {
		fmt.Fprintf(&sb, "unresolved: %s on %s: %s\n", u.Violation.RuleID, u.Violation.TargetID, u.Reason)
	}

	fmt.Fprintf(&sb, "\n%d error(s), %d warning(s), %d info(s)\n",
		sr.SeverityCounts.Errors, sr.SeverityCounts.Warnings, sr.SeverityCounts.Infos)
	return sb.String()
}

// ExitCode maps the gate decision to the CI exit-code convention:
// 0 when clean, 1 when unresolved errors remain. Configuration and load
// failures exit 2 before a report exists. A best-effort session may end
// Clean while Pass stays false; the outcome wins because it is the
// explicit gate decision.
func (sr *SerializedReport) ExitCode() int {
	if sr.Outcome == models.OutcomeClean {
		return 0
	}
	if sr.Outcome == "" && sr.Pass {
		return 0
	}
	return 1
}
