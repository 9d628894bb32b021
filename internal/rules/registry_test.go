package rules

import (
	"errors"
	"strings"
	"testing"

	"github.com/meshworks/assetgate/internal/scene"
	"github.com/meshworks/assetgate/pkg/models"
)

// noopFactory resolves to a predicate that never finds anything.
func noopFactory(_ Params) (Predicate, error) {
	return func(_ scene.View, _ []string) []Finding { return nil }, nil
}

func testRegistry() *Registry {
	reg := NewRegistry()
	reg.Register("noop", noopFactory)
	return reg
}

func TestRegistry_Load_Valid(t *testing.T) {
	doc := []byte(`
rules:
  - id: first
    category: geometry
    severity: error
    check: noop
    fix: weld_vertices
  - id: second
    category: naming
    severity: warning
    check: noop
    enabled: false
`)

	rs, err := testRegistry().Load(doc)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(rs.Rules()) != 2 {
		t.Fatalf("loaded %d rules, want 2", len(rs.Rules()))
	}
	if len(rs.EnabledRules()) != 1 {
		t.Errorf("enabled %d rules, want 1", len(rs.EnabledRules()))
	}
	if !rs.Enabled("first") {
		t.Error("rule first should be enabled by default")
	}
	if rs.Enabled("second") {
		t.Error("rule second is explicitly disabled")
	}
}

func TestRegistry_Load_FailFast(t *testing.T) {
	tests := []struct {
		name       string
		doc        string
		wantRuleID string
		wantReason string
	}{
		{
			name:       "empty id",
			doc:        "rules:\n  - category: geometry\n    severity: error\n    check: noop\n",
			wantReason: "empty id",
		},
		{
			name:       "duplicate id",
			doc:        "rules:\n  - id: dup\n    category: geometry\n    severity: error\n    check: noop\n  - id: dup\n    category: geometry\n    severity: error\n    check: noop\n",
			wantRuleID: "dup",
			wantReason: "duplicate",
		},
		{
			name:       "unknown category",
			doc:        "rules:\n  - id: r\n    category: lighting\n    severity: error\n    check: noop\n",
			wantRuleID: "r",
			wantReason: "category",
		},
		{
			name:       "unknown severity",
			doc:        "rules:\n  - id: r\n    category: geometry\n    severity: fatal\n    check: noop\n",
			wantRuleID: "r",
			wantReason: "severity",
		},
		{
			name:       "unknown fix",
			doc:        "rules:\n  - id: r\n    category: geometry\n    severity: error\n    check: noop\n    fix: explode\n",
			wantRuleID: "r",
			wantReason: "fix",
		},
		{
			name:       "unresolvable check",
			doc:        "rules:\n  - id: r\n    category: geometry\n    severity: error\n    check: nonexistent\n",
			wantRuleID: "r",
			wantReason: "unresolvable check",
		},
		{
			name:       "no rules",
			doc:        "rules: []\n",
			wantReason: "no rules",
		},
		{
			name:       "malformed yaml",
			doc:        "rules: [not yaml",
			wantReason: "parse yaml",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs, err := testRegistry().Load([]byte(tt.doc))
			if err == nil {
				t.Fatal("expected load to fail")
			}
			if rs != nil {
				t.Error("a failed load must not return a partial ruleset")
			}

			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("error type = %T, want *ConfigError", err)
			}
			if cfgErr.RuleID != tt.wantRuleID {
				t.Errorf("RuleID = %q, want %q", cfgErr.RuleID, tt.wantRuleID)
			}
			if !strings.Contains(cfgErr.Reason, tt.wantReason) {
				t.Errorf("Reason = %q, want it to mention %q", cfgErr.Reason, tt.wantReason)
			}
		})
	}
}

func TestRegistry_Load_BadParamsFailAtLoad(t *testing.T) {
	reg := NewRegistry()
	reg.Register("pattern_check", func(params Params) (Predicate, error) {
		if _, ok := params.String("pattern"); !ok {
			return nil, errors.New("pattern_check requires a \"pattern\" parameter")
		}
		return func(_ scene.View, _ []string) []Finding { return nil }, nil
	})

	doc := []byte("rules:\n  - id: naming\n    category: naming\n    severity: warning\n    check: pattern_check\n")

	_, err := reg.Load(doc)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("error type = %T, want *ConfigError", err)
	}
	if cfgErr.RuleID != "naming" {
		t.Errorf("RuleID = %q, want %q", cfgErr.RuleID, "naming")
	}
	if !strings.Contains(cfgErr.Reason, "invalid params") {
		t.Errorf("Reason = %q, want it to mention invalid params", cfgErr.Reason)
	}
}

func TestRuleSet_Toggle(t *testing.T) {
	doc := []byte("rules:\n  - id: r\n    category: geometry\n    severity: error\n    check: noop\n")
	rs, err := testRegistry().Load(doc)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := rs.Toggle("r", false); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if rs.Enabled("r") {
		t.Error("rule should be disabled after toggle")
	}
	if len(rs.EnabledRules()) != 0 {
		t.Error("disabled rule should not appear in EnabledRules")
	}

	if err := rs.Toggle("r", true); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	if !rs.Enabled("r") {
		t.Error("rule should be enabled after re-toggle")
	}

	if err := rs.Toggle("missing", true); err == nil {
		t.Error("expected error toggling an unknown rule")
	}
}

func TestRule_Evaluate_StampsMetadata(t *testing.T) {
	reg := NewRegistry()
	reg.Register("always", func(_ Params) (Predicate, error) {
		return func(_ scene.View, _ []string) []Finding {
			return []Finding{{TargetID: "|root|door", Message: "found"}}
		}, nil
	})

	doc := []byte("rules:\n  - id: always_rule\n    category: geometry\n    severity: error\n    check: always\n    fix: weld_vertices\n")
	rs, err := reg.Load(doc)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	violations := rs.Rules()[0].Evaluate(scene.NewMemoryScene().ReadSnapshot(), nil)
	if len(violations) != 1 {
		t.Fatalf("got %d violations, want 1", len(violations))
	}

	v := violations[0]
	if v.RuleID != "always_rule" {
		t.Errorf("RuleID = %q, want %q", v.RuleID, "always_rule")
	}
	if v.Category != models.CategoryGeometry {
		t.Errorf("Category = %q, want %q", v.Category, models.CategoryGeometry)
	}
	if v.Severity != models.SeverityError {
		t.Errorf("Severity = %q, want %q", v.Severity, models.SeverityError)
	}
	if !v.Fixable || v.FixCategory != models.FixWeldVertices {
		t.Errorf("fix stamp = (%v, %q), want (true, %q)", v.Fixable, v.FixCategory, models.FixWeldVertices)
	}
}
