package fix

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/meshworks/assetgate/internal/scene"
	"github.com/meshworks/assetgate/pkg/models"
)

func fullyDirtyScene() *scene.MemoryScene {
	s := scene.NewMemoryScene()
	s.Add(scene.ObjectState{
		Path:               "|root|Broken Prop",
		Translate:          [3]float64{2, 0, 0},
		Scale:              [3]float64{1, 1, -1},
		HasHistory:         true,
		Ngons:              2,
		OpenEdges:          3,
		NonManifoldEdges:   1,
		CoincidentVertices: 4,
		UVOverlaps:         1,
		UVOutOfBounds:      true,
		Material:           "lambert1",
	})
	return s
}

func violation(rule, target string, cat models.FixCategory) models.Violation {
	return models.Violation{
		RuleID:      rule,
		TargetID:    target,
		Severity:    models.SeverityError,
		Fixable:     true,
		FixCategory: cat,
	}
}

func TestFixer_Fix_PhaseOrdering(t *testing.T) {
	target := "|root|Broken Prop"
	violations := []models.Violation{
		// Deliberately out of phase order.
		violation("naming_convention", target, models.FixRenameTarget),
		violation("uv_overlaps", target, models.FixRepackUV),
		violation("open_edges", target, models.FixWeldVertices),
		violation("unfrozen_transform", target, models.FixFreezeTransform),
		violation("construction_history", target, models.FixDeleteHistory),
	}

	fixer := NewFixer()
	results, err := fixer.Fix(context.Background(), fullyDirtyScene(), violations)
	if err != nil {
		t.Fatalf("Fix: %v", err)
	}
	if len(results) != len(violations) {
		t.Fatalf("got %d results, want %d", len(results), len(violations))
	}

	for i := 1; i < len(results); i++ {
		if results[i-1].Phase > results[i].Phase {
			t.Fatalf("phase %s ran after %s", results[i-1].Phase, results[i].Phase)
		}
	}
	if results[0].Category != models.FixDeleteHistory {
		t.Errorf("first fix = %s, want history deleted before anything else", results[0].Category)
	}
	if results[len(results)-1].Category != models.FixRenameTarget {
		t.Errorf("last fix = %s, want metadata fixes last", results[len(results)-1].Category)
	}
}

func TestFixer_Fix_WithinPhaseDeterministic(t *testing.T) {
	target := "|root|Broken Prop"
	violations := []models.Violation{
		violation("open_edges", target, models.FixWeldVertices),
		violation("non_manifold", target, models.FixCleanupTopology),
		violation("ngons", target, models.FixTriangulateNgons),
	}

	fixer := NewFixer()
	var previous []models.FixCategory
	for i := 0; i < 5; i++ {
		results, err := fixer.Fix(context.Background(), fullyDirtyScene(), violations)
		if err != nil {
			t.Fatalf("Fix: %v", err)
		}

		order := make([]models.FixCategory, len(results))
		for j, r := range results {
			order[j] = r.Category
		}
		if previous != nil {
			for j := range order {
				if order[j] != previous[j] {
					t.Fatal("within-phase order changed between identical runs")
				}
			}
		}
		previous = order
	}
}

func TestFixer_Fix_IdempotentNoOp(t *testing.T) {
	scn := fullyDirtyScene()
	target := "|root|Broken Prop"
	violations := []models.Violation{
		violation("construction_history", target, models.FixDeleteHistory),
		violation("open_edges", target, models.FixWeldVertices),
	}

	fixer := NewFixer()
	first, err := fixer.Fix(context.Background(), scn, violations)
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	for _, r := range first {
		if r.Outcome != models.FixApplied {
			t.Errorf("first pass %s = %s, want applied", r.Category, r.Outcome)
		}
	}

	second, err := fixer.Fix(context.Background(), scn, violations)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	for _, r := range second {
		if r.Outcome != models.FixNoOpAlreadyFixed {
			t.Errorf("second pass %s = %s, want noop_already_fixed", r.Category, r.Outcome)
		}
	}
}

func TestFixer_Fix_SkipsUnfixableAndUnregistered(t *testing.T) {
	target := "|root|Broken Prop"
	violations := []models.Violation{
		{RuleID: "ai_anomaly", TargetID: target, Severity: models.SeverityWarning, Fixable: false},
		{RuleID: "custom", TargetID: target, Severity: models.SeverityError, Fixable: true, FixCategory: models.FixCategory("no_such_action")},
		violation("construction_history", target, models.FixDeleteHistory),
	}

	fixer := NewFixer()
	results, err := fixer.Fix(context.Background(), fullyDirtyScene(), violations)
	if err != nil {
		t.Fatalf("Fix: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1: unfixable and unregistered violations are skipped", len(results))
	}
	if results[0].Category != models.FixDeleteHistory {
		t.Errorf("applied %s, want delete_history", results[0].Category)
	}
}

func TestFixer_Fix_FailureIsolation(t *testing.T) {
	fixer := NewFixer()
	fixer.Register(Action{
		Category: models.FixDeleteHistory,
		Phase:    models.PhaseSanitize,
		Apply: func(_ scene.Scene, _ models.Violation) (models.FixOutcome, error) {
			return models.FixFailed, errors.New("host refused")
		},
	})

	scn := fullyDirtyScene()
	target := "|root|Broken Prop"
	violations := []models.Violation{
		violation("construction_history", target, models.FixDeleteHistory),
		violation("open_edges", target, models.FixWeldVertices),
	}

	results, err := fixer.Fix(context.Background(), scn, violations)
	if err != nil {
		t.Fatalf("a failed fix must not abort the pass: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}

	failed := Failed(results)
	if len(failed) != 1 {
		t.Fatalf("got %d failures, want 1", len(failed))
	}
	if failed[0].Reason != "host refused" {
		t.Errorf("failure reason = %q, want the action's error", failed[0].Reason)
	}

	obj, _ := scn.ReadSnapshot().Object(target)
	if obj.OpenEdges != 0 {
		t.Error("later weld should still run after an earlier failure")
	}
}

func TestFixer_Fix_PanicIsolation(t *testing.T) {
	fixer := NewEmptyFixer()
	fixer.Register(Action{
		Category: models.FixWeldVertices,
		Phase:    models.PhaseTopology,
		Apply: func(_ scene.Scene, _ models.Violation) (models.FixOutcome, error) {
			panic("mesh handle invalidated")
		},
	})

	results, err := fixer.Fix(context.Background(), fullyDirtyScene(), []models.Violation{
		violation("open_edges", "|root|Broken Prop", models.FixWeldVertices),
	})
	if err != nil {
		t.Fatalf("a panicking fix must not abort the pass: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Outcome != models.FixFailed {
		t.Errorf("outcome = %s, want failed", results[0].Outcome)
	}
	if !strings.Contains(results[0].Reason, "mesh handle invalidated") {
		t.Errorf("reason = %q, want the panic value surfaced", results[0].Reason)
	}
}

func TestFixer_Fix_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fixer := NewFixer()
	results, err := fixer.Fix(ctx, fullyDirtyScene(), []models.Violation{
		violation("construction_history", "|root|Broken Prop", models.FixDeleteHistory),
	})
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if len(results) != 0 {
		t.Errorf("got %d results before the first phase, want 0", len(results))
	}
}

func TestFixer_Fix_VanishedTargetIsNoOp(t *testing.T) {
	fixer := NewFixer()
	results, err := fixer.Fix(context.Background(), scene.NewMemoryScene(), []models.Violation{
		violation("construction_history", "|gone", models.FixDeleteHistory),
	})
	if err != nil {
		t.Fatalf("Fix: %v", err)
	}
	if results[0].Outcome != models.FixNoOpAlreadyFixed {
		t.Errorf("outcome = %s, want a vanished target treated as already fixed", results[0].Outcome)
	}
}

func TestFixer_RegisteredCatalog(t *testing.T) {
	fixer := NewFixer()
	for _, c := range []models.FixCategory{
		models.FixDeleteHistory, models.FixFreezeTransform, models.FixWeldVertices,
		models.FixTriangulateNgons, models.FixCleanupTopology, models.FixUnifyNormals,
		models.FixRepackUV, models.FixRenameTarget, models.FixAssignMaterial,
	} {
		if !fixer.Registered(c) {
			t.Errorf("builtin catalog missing %s", c)
		}
	}
	if NewEmptyFixer().Registered(models.FixDeleteHistory) {
		t.Error("empty fixer should register nothing")
	}
}
