// Package validate runs every enabled rule against a scene snapshot and
// produces a violation report. Predicates only read, so independent rules
// evaluate in parallel; a fault inside one predicate degrades to an Info
// violation instead of aborting the pass.
package validate

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/meshworks/assetgate/internal/rules"
	"github.com/meshworks/assetgate/internal/scene"
	"github.com/meshworks/assetgate/pkg/models"
)

// defaultParallelism bounds concurrent predicate evaluation.
const defaultParallelism = 4

// Engine executes rulesets against scene snapshots. It never mutates the
// scene and must not run concurrently with an active fix phase; the
// session controller serializes the two.
type Engine struct {
	parallelism int
	now         func() time.Time
}

// NewEngine creates a validator engine with default parallelism.
func NewEngine() *Engine {
	return &Engine{
		parallelism: defaultParallelism,
		now:         time.Now,
	}
}

// SetParallelism bounds concurrent rule evaluation. Values below one run
// rules serially.
func (e *Engine) SetParallelism(n int) {
	if n < 1 {
		n = 1
	}
	e.parallelism = n
}

// SetClock overrides the report timestamp source.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// Validate evaluates all enabled rules against the view. targets scopes
// the pass to a selection; empty means the whole scene. The returned
// report is a fresh immutable snapshot.
//
// The only error returned is context cancellation, checked between rule
// evaluations, never mid-predicate.
func (e *Engine) Validate(ctx context.Context, view scene.View, ruleset *rules.RuleSet, targets []string, iteration int) (*models.ValidationReport, error) {
	enabled := ruleset.EnabledRules()

	var (
		mu         sync.Mutex
		violations []models.Violation
	)
	sem := make(chan struct{}, e.parallelism)
	var wg sync.WaitGroup

	for _, rule := range enabled {
		if err := ctx.Err(); err != nil {
			break
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(r *rules.Rule) {
			defer wg.Done()
			defer func() { <-sem }()

			found := evaluateIsolated(r, view, targets)

			mu.Lock()
			violations = append(violations, found...)
			mu.Unlock()
		}(rule)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return models.NewValidationReport(dedupe(violations), iteration, e.now()), nil
}

// evaluateIsolated runs one rule, converting a predicate panic into a
// synthetic Info violation naming the rule. Partial results from a faulty
// ruleset are more useful than none.
func evaluateIsolated(rule *rules.Rule, view scene.View, targets []string) (found []models.Violation) {
	defer func() {
		if r := recover(); r != nil {
			found = []models.Violation{{
				RuleID:   rule.ID,
				TargetID: "validator",
				Category: rule.Category,
				Severity: models.SeverityInfo,
				Message:  fmt.Sprintf("rule execution failed: %v", r),
				Fixable:  false,
			}}
		}
	}()
	return rule.Evaluate(view, targets)
}

// dedupe collapses violations sharing a (rule_id, target_id) key and
// returns them in stable (rule, target) order.
func dedupe(violations []models.Violation) []models.Violation {
	seen := make(map[string]bool, len(violations))
	out := make([]models.Violation, 0, len(violations))
	for _, v := range violations {
		key := v.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].RuleID != out[j].RuleID {
			return out[i].RuleID < out[j].RuleID
		}
		return out[i].TargetID < out[j].TargetID
	})
	return out
}
