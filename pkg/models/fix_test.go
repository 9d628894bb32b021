package models

import "testing"

func TestFixPhase_Ordering(t *testing.T) {
	phases := []FixPhase{PhaseSanitize, PhaseTransform, PhaseTopology, PhaseSurface, PhaseMetadata}

	for i := 1; i < len(phases); i++ {
		if !(phases[i-1] < phases[i]) {
			t.Errorf("phase %s should order before %s", phases[i-1], phases[i])
		}
	}
}

func TestFixPhase_String(t *testing.T) {
	tests := []struct {
		phase FixPhase
		want  string
	}{
		{PhaseSanitize, "sanitize"},
		{PhaseTransform, "transform"},
		{PhaseTopology, "topology"},
		{PhaseSurface, "surface"},
		{PhaseMetadata, "metadata"},
		{FixPhase(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.phase.String(); got != tt.want {
			t.Errorf("FixPhase(%d).String() = %q, want %q", tt.phase, got, tt.want)
		}
	}
}

func TestFixCategory_Valid(t *testing.T) {
	valid := []FixCategory{
		FixDeleteHistory, FixFreezeTransform, FixWeldVertices, FixTriangulateNgons,
		FixCleanupTopology, FixUnifyNormals, FixRepackUV, FixRenameTarget, FixAssignMaterial,
	}
	for _, c := range valid {
		if !c.Valid() {
			t.Errorf("FixCategory(%q).Valid() = false, want true", c)
		}
	}
	if FixCategory("explode_mesh").Valid() {
		t.Error("unknown fix category should not validate")
	}
}

func TestFixOutcome_String(t *testing.T) {
	tests := []struct {
		outcome FixOutcome
		want    string
	}{
		{FixApplied, "applied"},
		{FixNoOpAlreadyFixed, "noop_already_fixed"},
		{FixFailed, "failed"},
	}

	for _, tt := range tests {
		if got := tt.outcome.String(); got != tt.want {
			t.Errorf("FixOutcome(%d).String() = %q, want %q", tt.outcome, got, tt.want)
		}
	}
}
