package anomaly

import (
	"context"
	"errors"
	"testing"

	"github.com/meshworks/assetgate/internal/scene"
	"github.com/meshworks/assetgate/pkg/models"
)

// stubScorer returns canned results per object path.
type stubScorer struct {
	results map[string]*Result
	err     error
}

func (s *stubScorer) Analyze(_ context.Context, obj scene.ObjectState) (*Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	if r, ok := s.results[obj.Path]; ok {
		return r, nil
	}
	return &Result{Score: 0}, nil
}

func twoObjectView() scene.View {
	s := scene.NewMemoryScene()
	s.Add(scene.ObjectState{Path: "|root|door"})
	s.Add(scene.ObjectState{Path: "|root|crate"})
	return s.ReadSnapshot()
}

func TestAdapter_Violations_Threshold(t *testing.T) {
	scorer := &stubScorer{results: map[string]*Result{
		"|root|door":  {Score: 0.81, Label: "inverted_geometry"},
		"|root|crate": {Score: 0.30, Label: "clean"},
	}}

	adapter := NewAdapter(scorer, 0.5)
	violations := adapter.Violations(context.Background(), twoObjectView())

	if len(violations) != 1 {
		t.Fatalf("got %d violations, want 1 above threshold", len(violations))
	}

	v := violations[0]
	if v.RuleID != RuleID {
		t.Errorf("RuleID = %q, want %q", v.RuleID, RuleID)
	}
	if v.TargetID != "|root|door" {
		t.Errorf("TargetID = %q, want the anomalous object", v.TargetID)
	}
	if v.Severity != models.SeverityWarning {
		t.Errorf("Severity = %q, want warning", v.Severity)
	}
	if v.Category != models.CategoryAnomaly {
		t.Errorf("Category = %q, want anomaly", v.Category)
	}
	if v.Fixable {
		t.Error("anomaly violations are never auto-fixable")
	}
}

func TestAdapter_Violations_Regions(t *testing.T) {
	scorer := &stubScorer{results: map[string]*Result{
		"|root|door": {Score: 0.9, Label: "stretched_uvs", Regions: []string{"|root|door|panel", "|root|door|hinge"}},
	}}

	adapter := NewAdapter(scorer, 0.5)
	violations := adapter.Violations(context.Background(), twoObjectView())

	if len(violations) != 2 {
		t.Fatalf("got %d violations, want one per reported region", len(violations))
	}
	targets := map[string]bool{}
	for _, v := range violations {
		targets[v.TargetID] = true
	}
	if !targets["|root|door|panel"] || !targets["|root|door|hinge"] {
		t.Errorf("violation targets = %v, want the reported regions", targets)
	}
}

func TestAdapter_Violations_ScorerFailureDegrades(t *testing.T) {
	scorer := &stubScorer{err: errors.New("connection refused")}

	adapter := NewAdapter(scorer, 0.5)
	violations := adapter.Violations(context.Background(), twoObjectView())

	if len(violations) != 1 {
		t.Fatalf("got %d violations, want a single availability note", len(violations))
	}
	v := violations[0]
	if v.Severity != models.SeverityInfo {
		t.Errorf("Severity = %q, want info: a scorer outage must not block the gate", v.Severity)
	}
	if v.TargetID != "scorer" {
		t.Errorf("TargetID = %q, want %q", v.TargetID, "scorer")
	}
}
