// Package fix applies phase-ordered, idempotent repair actions mapped
// from violations. Phases reflect structural dependency: history is
// cleared before transforms freeze, transforms freeze before topology is
// touched, and cosmetic fixes run last.
package fix

import (
	"context"
	"fmt"
	"sort"

	"github.com/meshworks/assetgate/internal/scene"
	"github.com/meshworks/assetgate/pkg/models"
)

// Action is one registered repair. Apply must be idempotent: invoking it
// on a target already in the fixed state returns FixNoOpAlreadyFixed.
type Action struct {
	// Category is the fix category violations reference.
	Category models.FixCategory
	// Phase orders the action relative to other actions in a pass.
	Phase models.FixPhase
	// Apply repairs one violation's target. It reads current state from
	// the scene, never from the violation, so stale reports cannot cause
	// double-applies.
	Apply func(scn scene.Scene, v models.Violation) (models.FixOutcome, error)
}

// Fixer holds the action registry and executes fix passes. The registry
// is read-only after construction and may be shared across sessions.
type Fixer struct {
	actions map[models.FixCategory]Action
}

// NewFixer creates a fixer with the builtin action catalog.
func NewFixer() *Fixer {
	return NewFixerWithOptions(DefaultOptions())
}

// NewFixerWithOptions creates a fixer with the builtin catalog built from
// the given options.
func NewFixerWithOptions(opts Options) *Fixer {
	f := &Fixer{actions: make(map[models.FixCategory]Action)}
	for _, a := range builtinActions(opts) {
		f.Register(a)
	}
	return f
}

// NewEmptyFixer creates a fixer with no registered actions.
func NewEmptyFixer() *Fixer {
	return &Fixer{actions: make(map[models.FixCategory]Action)}
}

// Register adds or replaces an action for its category.
func (f *Fixer) Register(a Action) {
	f.actions[a.Category] = a
}

// Registered reports whether an action exists for the category.
func (f *Fixer) Registered(c models.FixCategory) bool {
	_, ok := f.actions[c]
	return ok
}

// Fix applies repair actions for the fixable violations, one full pass
// over all phases in ascending order. Within a phase, violations apply in
// stable (category, rule, target) order so runs are deterministic.
//
// A Failed outcome never aborts the phase. The fixer does not re-validate;
// the session controller decides whether another pass is warranted.
// Cancellation is polled between phases only, so mutations are never
// interrupted mid-action.
func (f *Fixer) Fix(ctx context.Context, scn scene.Scene, violations []models.Violation) ([]models.FixResult, error) {
	byPhase := make(map[models.FixPhase][]models.Violation)
	for _, v := range violations {
		if !v.Fixable {
			continue
		}
		action, ok := f.actions[v.FixCategory]
		if !ok {
			// No action registered (e.g. anomaly findings): not a failure,
			// the violation simply stays for the report.
			continue
		}
		byPhase[action.Phase] = append(byPhase[action.Phase], v)
	}

	phases := make([]models.FixPhase, 0, len(byPhase))
	for p := range byPhase {
		phases = append(phases, p)
	}
	sort.Slice(phases, func(i, j int) bool { return phases[i] < phases[j] })

	var results []models.FixResult
	for _, phase := range phases {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		batch := byPhase[phase]
		sort.Slice(batch, func(i, j int) bool {
			if batch[i].FixCategory != batch[j].FixCategory {
				return batch[i].FixCategory < batch[j].FixCategory
			}
			if batch[i].RuleID != batch[j].RuleID {
				return batch[i].RuleID < batch[j].RuleID
			}
			return batch[i].TargetID < batch[j].TargetID
		})

		for _, v := range batch {
			action := f.actions[v.FixCategory]
			outcome, reason := applyIsolated(action, scn, v)
			results = append(results, models.FixResult{
				Violation: v,
				Category:  action.Category,
				Phase:     action.Phase,
				Outcome:   outcome,
				Reason:    reason,
			})
		}
	}
	return results, nil
}

// applyIsolated runs one action, converting errors and panics into a
// Failed outcome so a single bad fixer never blocks the rest of the pass.
func applyIsolated(action Action, scn scene.Scene, v models.Violation) (outcome models.FixOutcome, reason string) {
	defer func() {
		if r := recover(); r != nil {
			outcome = models.FixFailed
			reason = fmt.Sprintf("fix panicked: %v", r)
		}
	}()

	outcome, err := action.Apply(scn, v)
	if err != nil {
		return models.FixFailed, err.Error()
	}
	return outcome, ""
}

// Failed filters results down to failures.
func Failed(results []models.FixResult) []models.FixResult {
	var out []models.FixResult
	for _, r := range results {
		if r.Outcome == models.FixFailed {
			out = append(out, r)
		}
	}
	return out
}
