// Package anomaly merges findings from an external AI anomaly scorer into
// the violation model. Anomaly violations flow through the same reports
// as deterministic rules but are never auto-fixed: the system does not
// apply fixes for subjective, model-scored issues.
package anomaly

import (
	"context"
	"fmt"

	"github.com/meshworks/assetgate/internal/scene"
	"github.com/meshworks/assetgate/pkg/models"
)

// RuleID tags anomaly violations in reports.
const RuleID = "ai_anomaly"

// Result is the scorer's verdict for one mesh.
type Result struct {
	// Score is the anomaly likelihood in [0, 1].
	Score float64 `json:"score"`
	// Regions optionally narrows the finding to sub-targets.
	Regions []string `json:"regions,omitempty"`
	// Label is the model's classification of the anomaly.
	Label string `json:"label"`
}

// Scorer is the black-box anomaly service contract.
type Scorer interface {
	// Analyze scores one scene object.
	Analyze(ctx context.Context, obj scene.ObjectState) (*Result, error)
}

// Adapter converts scorer results into non-fixable Warning violations.
type Adapter struct {
	scorer    Scorer
	threshold float64
}

// NewAdapter creates an adapter reporting scores at or above threshold.
func NewAdapter(scorer Scorer, threshold float64) *Adapter {
	return &Adapter{scorer: scorer, threshold: threshold}
}

// Violations scores every object in the view and returns a violation per
// anomalous region. A scorer failure degrades to a single Info violation:
// the deterministic gate still runs when the AI service is down.
func (a *Adapter) Violations(ctx context.Context, view scene.View) []models.Violation {
	var out []models.Violation
	for _, target := range view.Targets() {
		obj, ok := view.Object(target)
		if !ok {
			continue
		}

		result, err := a.scorer.Analyze(ctx, obj)
		if err != nil {
			return append(out, models.Violation{
				RuleID:   RuleID,
				TargetID: "scorer",
				Category: models.CategoryAnomaly,
				Severity: models.SeverityInfo,
				Message:  fmt.Sprintf("anomaly scorer unavailable: %v", err),
			})
		}
		if result.Score < a.threshold {
			continue
		}

		out = append(out, a.toViolations(target, result)...)
	}
	return out
}

// toViolations maps one result onto its regions, or the object itself
// when the model reported no region detail.
func (a *Adapter) toViolations(target string, result *Result) []models.Violation {
	regions := result.Regions
	if len(regions) == 0 {
		regions = []string{target}
	}

	violations := make([]models.Violation, 0, len(regions))
	for _, region := range regions {
		violations = append(violations, models.Violation{
			RuleID:   RuleID,
			TargetID: region,
			Category: models.CategoryAnomaly,
			Severity: models.SeverityWarning,
			Message:  fmt.Sprintf("model flagged %s (score %.2f)", result.Label, result.Score),
			Fixable:  false,
		})
	}
	return violations
}
