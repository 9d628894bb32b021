// Package session drives the validate→fix→revalidate loop. The controller
// is the single owner of a scene during a session: it never overlaps a
// validation pass with a fix phase, and it bounds iteration so an
// ineffective fix pass can never loop forever.
package session

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/meshworks/assetgate/internal/fix"
	"github.com/meshworks/assetgate/internal/rules"
	"github.com/meshworks/assetgate/internal/scene"
	"github.com/meshworks/assetgate/internal/validate"
	"github.com/meshworks/assetgate/pkg/models"
)

// DefaultMaxIterations bounds validation passes per session.
const DefaultMaxIterations = 3

// ExtraViolations supplies violations from outside the ruleset (the
// anomaly adapter). They merge into every report but are never fixed.
type ExtraViolations func(ctx context.Context, view scene.View) []models.Violation

// Session is the ephemeral state of one auto-fix run: the reports
// produced so far, every fix result, and the termination reason.
type Session struct {
	// ID is a short unique session identifier.
	ID string
	// Outcome is the terminal state of the session.
	Outcome models.SessionOutcome
	// Reports holds every validation pass, first to last. The history is
	// retained for diagnosing non-convergence.
	Reports []*models.ValidationReport
	// FixResults holds every fix application across all passes.
	FixResults []models.FixResult
	// Iterations is the number of validation passes performed.
	Iterations int
	// StartedAt and FinishedAt bound the session wall-clock time.
	StartedAt  time.Time
	FinishedAt time.Time
}

// FinalReport returns the last validation report, nil for an empty session.
func (s *Session) FinalReport() *models.ValidationReport {
	if len(s.Reports) == 0 {
		return nil
	}
	return s.Reports[len(s.Reports)-1]
}

// Unresolved returns the error-severity violations left in the final
// report.
func (s *Session) Unresolved() []models.Violation {
	final := s.FinalReport()
	if final == nil {
		return nil
	}
	var out []models.Violation
	for _, v := range final.Violations {
		if v.Severity == models.SeverityError {
			out = append(out, v)
		}
	}
	return out
}

// Controller serializes validation and fixing for one scene. A single
// scene/session pair must not be driven by more than one controller.
type Controller struct {
	validator *validate.Engine
	fixer     *fix.Fixer
	scn       scene.Scene
	ruleset   *rules.RuleSet
	targets   []string
	extra     ExtraViolations

	maxIterations int
	bestEffort    bool
	now           func() time.Time
}

// NewController creates a controller over the given scene and ruleset.
func NewController(scn scene.Scene, ruleset *rules.RuleSet, validator *validate.Engine, fixer *fix.Fixer) *Controller {
	return &Controller{
		validator:     validator,
		fixer:         fixer,
		scn:           scn,
		ruleset:       ruleset,
		maxIterations: DefaultMaxIterations,
		now:           time.Now,
	}
}

// SetTargets scopes validation and fixing to a selection. Empty means the
// whole scene.
func (c *Controller) SetTargets(targets []string) {
	c.targets = targets
}

// SetMaxIterations overrides the validation pass bound. Values below one
// fall back to the default.
func (c *Controller) SetMaxIterations(n int) {
	if n < 1 {
		n = DefaultMaxIterations
	}
	c.maxIterations = n
}

// SetBestEffort controls whether violations whose fix failed are excluded
// from the pass gate. Strict (false) is the default: a remaining error
// keeps the gate closed no matter why it remains.
func (c *Controller) SetBestEffort(enabled bool) {
	c.bestEffort = enabled
}

// SetExtraViolations installs an external violation source (the anomaly
// adapter).
func (c *Controller) SetExtraViolations(fn ExtraViolations) {
	c.extra = fn
}

// SetClock overrides the session timestamp source.
func (c *Controller) SetClock(now func() time.Time) {
	c.now = now
}

// Validate runs a single validation pass with no fixing.
func (c *Controller) Validate(ctx context.Context) (*models.ValidationReport, error) {
	return c.validateOnce(ctx, 1)
}

// Run drives the full auto-fix loop until the scene is clean, the
// signature stalls, or the iteration bound is reached. The returned error
// is non-nil only for cancellation; convergence failures are outcomes,
// not errors.
func (c *Controller) Run(ctx context.Context) (*Session, error) {
	s := &Session{
		ID:        uuid.New().String()[:8],
		StartedAt: c.now(),
	}

	report, err := c.validateOnce(ctx, 1)
	if err != nil {
		return c.finish(s, models.OutcomeCancelled), err
	}
	s.Reports = append(s.Reports, report)
	s.Iterations = 1

	if report.Pass {
		return c.finish(s, models.OutcomeClean), nil
	}

	prevSignature := progressSignature(report)

	for iteration := 2; ; iteration++ {
		results, err := c.fixer.Fix(ctx, c.scn, report.Fixable())
		s.FixResults = append(s.FixResults, results...)
		if err != nil {
			return c.finish(s, models.OutcomeCancelled), err
		}

		report, err = c.validateOnce(ctx, iteration)
		if err != nil {
			return c.finish(s, models.OutcomeCancelled), err
		}
		s.Reports = append(s.Reports, report)
		s.Iterations = iteration

		if c.passes(report, results) {
			return c.finish(s, models.OutcomeClean), nil
		}

		signature := progressSignature(report)
		if signature == prevSignature {
			// No violation resolved, none newly introduced: repeating the
			// same fix pass would loop, so stop here.
			return c.finish(s, models.OutcomeStalled), nil
		}
		prevSignature = signature

		if iteration >= c.maxIterations {
			return c.finish(s, models.OutcomeMaxIterations), nil
		}
	}
}

// validateOnce re-reads the scene and runs all enabled rules, merging in
// external anomaly violations.
func (c *Controller) validateOnce(ctx context.Context, iteration int) (*models.ValidationReport, error) {
	view := c.scn.ReadSnapshot()

	report, err := c.validator.Validate(ctx, view, c.ruleset, c.targets, iteration)
	if err != nil {
		return nil, err
	}
	if c.extra == nil {
		return report, nil
	}

	merged := append(append([]models.Violation(nil), report.Violations...), c.extra(ctx, view)...)
	return models.NewValidationReport(dedupeKeepFirst(merged), iteration, report.Timestamp), nil
}

// passes applies the gate: no error-severity violations remain. With
// best-effort enabled, errors whose fix failed in the pass that just ran
// are excluded from the gate but stay in the report.
func (c *Controller) passes(report *models.ValidationReport, lastResults []models.FixResult) bool {
	if report.Pass {
		return true
	}
	if !c.bestEffort {
		return false
	}

	failed := make(map[string]bool)
	for _, r := range lastResults {
		if r.Outcome == models.FixFailed {
			failed[r.Violation.Key()] = true
		}
	}
	for _, v := range report.Violations {
		if v.Severity == models.SeverityError && !failed[v.Key()] {
			return false
		}
	}
	return true
}

// finish stamps the terminal state.
func (c *Controller) finish(s *Session, outcome models.SessionOutcome) *Session {
	s.Outcome = outcome
	s.FinishedAt = c.now()
	return s
}

// progressSignature reduces a report to the set of (rule_id, target_id)
// pairs still violating. Two consecutive identical signatures mean the
// fix pass made no progress.
func progressSignature(report *models.ValidationReport) string {
	keys := make([]string, 0, len(report.Violations))
	for _, v := range report.Violations {
		keys = append(keys, v.Key())
	}
	sort.Strings(keys)
	return strings.Join(keys, "\n")
}

// dedupeKeepFirst collapses violations sharing a key, preserving order.
func dedupeKeepFirst(violations []models.Violation) []models.Violation {
	seen := make(map[string]bool, len(violations))
	out := make([]models.Violation, 0, len(violations))
	for _, v := range violations {
		if seen[v.Key()] {
			continue
		}
		seen[v.Key()] = true
		out = append(out, v)
	}
	return out
}
