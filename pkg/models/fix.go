package models

// FixCategory names a registered repair action.
type FixCategory string

const (
	// FixDeleteHistory removes construction history and cached derived state.
	FixDeleteHistory FixCategory = "delete_history"
	// FixFreezeTransform bakes transforms into vertices and resets them.
	FixFreezeTransform FixCategory = "freeze_transform"
	// FixWeldVertices merges coincident vertices within a tolerance.
	FixWeldVertices FixCategory = "weld_vertices"
	// FixTriangulateNgons resolves faces with more than four sides.
	FixTriangulateNgons FixCategory = "triangulate_ngons"
	// FixCleanupTopology removes lamina, non-manifold and degenerate faces.
	FixCleanupTopology FixCategory = "cleanup_topology"
	// FixUnifyNormals conforms and unlocks normals.
	FixUnifyNormals FixCategory = "unify_normals"
	// FixRepackUV re-lays out UVs into the 0-1 range without overlaps.
	FixRepackUV FixCategory = "repack_uv"
	// FixRenameTarget renames a node to match the naming convention.
	FixRenameTarget FixCategory = "rename_target"
	// FixAssignMaterial assigns the standard material to unshaded meshes.
	FixAssignMaterial FixCategory = "assign_material"
)

// Valid returns true if the fix category is a known value.
func (c FixCategory) Valid() bool {
	switch c {
	case FixDeleteHistory, FixFreezeTransform, FixWeldVertices, FixTriangulateNgons,
		FixCleanupTopology, FixUnifyNormals, FixRepackUV, FixRenameTarget, FixAssignMaterial:
		return true
	default:
		return false
	}
}

// FixPhase orders repair actions by structural dependency, not severity.
// Phases execute strictly in ascending order within one fix pass.
type FixPhase int

const (
	// PhaseSanitize removes history and cached state that would
	// invalidate later operations.
	PhaseSanitize FixPhase = iota
	// PhaseTransform normalizes transforms so geometric fixes operate
	// in canonical space.
	PhaseTransform
	// PhaseTopology resolves n-gons, non-manifold edges, degenerate
	// faces and welds vertices.
	PhaseTopology
	// PhaseSurface corrects normals and UV layout.
	PhaseSurface
	// PhaseMetadata applies naming and material fixes with no geometric
	// side effects.
	PhaseMetadata
)

// String returns the phase name.
func (p FixPhase) String() string {
	switch p {
	case PhaseSanitize:
		return "sanitize"
	case PhaseTransform:
		return "transform"
	case PhaseTopology:
		return "topology"
	case PhaseSurface:
		return "surface"
	case PhaseMetadata:
		return "metadata"
	default:
		return "unknown"
	}
}

// FixOutcome is the result of applying one fix action to one target.
type FixOutcome int

const (
	// FixApplied indicates the scene was mutated.
	FixApplied FixOutcome = iota
	// FixNoOpAlreadyFixed indicates the target was already in the fixed
	// state; applying again is a no-op, not an error.
	FixNoOpAlreadyFixed
	// FixFailed indicates the action could not be applied. The failure is
	// recorded and surfaced; it never aborts the phase.
	FixFailed
)

// String returns the string representation of a FixOutcome.
func (o FixOutcome) String() string {
	switch o {
	case FixApplied:
		return "applied"
	case FixNoOpAlreadyFixed:
		return "noop_already_fixed"
	case FixFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FixResult pairs a violation with the outcome of its repair attempt.
type FixResult struct {
	// Violation is the violation the action was applied for.
	Violation Violation `json:"violation"`
	// Category is the fix category that ran.
	Category FixCategory `json:"category"`
	// Phase is the phase the action ran in.
	Phase FixPhase `json:"phase"`
	// Outcome is the result of the apply call.
	Outcome FixOutcome `json:"outcome"`
	// Reason holds the failure message when Outcome is FixFailed.
	Reason string `json:"reason,omitempty"`
}
