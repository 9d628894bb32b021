package fix

import (
	"github.com/meshworks/assetgate/internal/scene"
	"github.com/meshworks/assetgate/pkg/models"
)

// Options tunes the builtin action catalog.
type Options struct {
	// WeldTolerance is the vertex merge distance.
	WeldTolerance float64
	// NamingPattern is the convention renamed targets must satisfy.
	NamingPattern string
	// StandardMaterial is assigned to unshaded or default-shaded meshes.
	StandardMaterial string
}

// DefaultOptions returns the builtin action defaults.
func DefaultOptions() Options {
	return Options{
		WeldTolerance:    0.001,
		NamingPattern:    `^[a-z][a-z0-9_]*$`,
		StandardMaterial: "standardSurface",
	}
}

// builtinActions maps every builtin fix category to its phase and apply
// function.
func builtinActions(opts Options) []Action {
	return []Action{
		{
			Category: models.FixDeleteHistory,
			Phase:    models.PhaseSanitize,
			Apply: func(scn scene.Scene, v models.Violation) (models.FixOutcome, error) {
				obj, ok := lookup(scn, v.TargetID)
				if !ok {
					return noOpGone()
				}
				if !obj.HasHistory {
					return models.FixNoOpAlreadyFixed, nil
				}
				if err := scn.DeleteHistory(v.TargetID); err != nil {
					return models.FixFailed, err
				}
				return models.FixApplied, nil
			},
		},
		{
			Category: models.FixFreezeTransform,
			Phase:    models.PhaseTransform,
			Apply: func(scn scene.Scene, v models.Violation) (models.FixOutcome, error) {
				obj, ok := lookup(scn, v.TargetID)
				if !ok {
					return noOpGone()
				}
				if obj.FrozenTransform() {
					return models.FixNoOpAlreadyFixed, nil
				}
				if err := scn.FreezeTransform(v.TargetID); err != nil {
					return models.FixFailed, err
				}
				return models.FixApplied, nil
			},
		},
		{
			Category: models.FixWeldVertices,
			Phase:    models.PhaseTopology,
			Apply: func(scn scene.Scene, v models.Violation) (models.FixOutcome, error) {
				obj, ok := lookup(scn, v.TargetID)
				if !ok {
					return noOpGone()
				}
				if obj.CoincidentVertices == 0 && obj.OpenEdges == 0 {
					return models.FixNoOpAlreadyFixed, nil
				}
				if err := scn.WeldVertices(v.TargetID, opts.WeldTolerance); err != nil {
					return models.FixFailed, err
				}
				return models.FixApplied, nil
			},
		},
		{
			Category: models.FixTriangulateNgons,
			Phase:    models.PhaseTopology,
			Apply: func(scn scene.Scene, v models.Violation) (models.FixOutcome, error) {
				obj, ok := lookup(scn, v.TargetID)
				if !ok {
					return noOpGone()
				}
				if obj.Ngons == 0 {
					return models.FixNoOpAlreadyFixed, nil
				}
				if err := scn.TriangulateNgons(v.TargetID); err != nil {
					return models.FixFailed, err
				}
				return models.FixApplied, nil
			},
		},
		{
			Category: models.FixCleanupTopology,
			Phase:    models.PhaseTopology,
			Apply: func(scn scene.Scene, v models.Violation) (models.FixOutcome, error) {
				obj, ok := lookup(scn, v.TargetID)
				if !ok {
					return noOpGone()
				}
				if obj.LaminaFaces == 0 && obj.NonManifoldEdges == 0 && obj.ZeroAreaFaces == 0 {
					return models.FixNoOpAlreadyFixed, nil
				}
				if err := scn.CleanupTopology(v.TargetID); err != nil {
					return models.FixFailed, err
				}
				return models.FixApplied, nil
			},
		},
		{
			Category: models.FixUnifyNormals,
			Phase:    models.PhaseSurface,
			Apply: func(scn scene.Scene, v models.Violation) (models.FixOutcome, error) {
				obj, ok := lookup(scn, v.TargetID)
				if !ok {
					return noOpGone()
				}
				if obj.NormalsUnified {
					return models.FixNoOpAlreadyFixed, nil
				}
				if err := scn.UnifyNormals(v.TargetID); err != nil {
					return models.FixFailed, err
				}
				return models.FixApplied, nil
			},
		},
		{
			Category: models.FixRepackUV,
			Phase:    models.PhaseSurface,
			Apply: func(scn scene.Scene, v models.Violation) (models.FixOutcome, error) {
				obj, ok := lookup(scn, v.TargetID)
				if !ok {
					return noOpGone()
				}
				if obj.HasUVs && obj.UVOverlaps == 0 && !obj.UVOutOfBounds {
					return models.FixNoOpAlreadyFixed, nil
				}
				if err := scn.RepackUV(v.TargetID); err != nil {
					return models.FixFailed, err
				}
				return models.FixApplied, nil
			},
		},
		{
			Category: models.FixRenameTarget,
			Phase:    models.PhaseMetadata,
			Apply: func(scn scene.Scene, v models.Violation) (models.FixOutcome, error) {
				if _, ok := lookup(scn, v.TargetID); !ok {
					return noOpGone()
				}
				newPath, err := scn.RenormalizeName(v.TargetID, opts.NamingPattern)
				if err != nil {
					return models.FixFailed, err
				}
				if newPath == v.TargetID {
					return models.FixNoOpAlreadyFixed, nil
				}
				return models.FixApplied, nil
			},
		},
		{
			Category: models.FixAssignMaterial,
			Phase:    models.PhaseMetadata,
			Apply: func(scn scene.Scene, v models.Violation) (models.FixOutcome, error) {
				obj, ok := lookup(scn, v.TargetID)
				if !ok {
					return noOpGone()
				}
				if obj.Material == opts.StandardMaterial {
					return models.FixNoOpAlreadyFixed, nil
				}
				if err := scn.AssignMaterial(v.TargetID, opts.StandardMaterial); err != nil {
					return models.FixFailed, err
				}
				return models.FixApplied, nil
			},
		},
	}
}

// lookup reads the target's current state. Every apply re-reads the scene
// rather than trusting the violation, which may be an iteration old.
func lookup(scn scene.Scene, target string) (scene.ObjectState, bool) {
	return scn.ReadSnapshot().Object(target)
}

// noOpGone treats a vanished target as already fixed: an earlier phase
// (e.g. a rename) may legitimately have moved it.
func noOpGone() (models.FixOutcome, error) {
	return models.FixNoOpAlreadyFixed, nil
}
