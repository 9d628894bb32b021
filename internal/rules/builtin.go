package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/meshworks/assetgate/internal/scene"
)

// DefaultRegistry returns a registry populated with the builtin predicate
// catalog. Check names match the ruleset file's `check` field.
func DefaultRegistry() *Registry {
	reg := NewRegistry()

	reg.Register("open_edges", countPredicate(
		func(o scene.ObjectState) int { return o.OpenEdges },
		"%d open border edge(s)"))
	reg.Register("coincident_vertices", countPredicate(
		func(o scene.ObjectState) int { return o.CoincidentVertices },
		"%d coincident vertex pair(s) within weld tolerance"))
	reg.Register("ngons", countPredicate(
		func(o scene.ObjectState) int { return o.Ngons },
		"%d face(s) with more than four sides"))
	reg.Register("non_manifold", countPredicate(
		func(o scene.ObjectState) int { return o.NonManifoldEdges },
		"%d non-manifold edge(s)"))
	reg.Register("lamina_faces", countPredicate(
		func(o scene.ObjectState) int { return o.LaminaFaces },
		"%d lamina face(s)"))
	reg.Register("zero_area_faces", countPredicate(
		func(o scene.ObjectState) int { return o.ZeroAreaFaces },
		"%d zero-area face(s)"))
	reg.Register("uv_overlaps", countPredicate(
		func(o scene.ObjectState) int { return o.UVOverlaps },
		"%d overlapping UV shell pair(s)"))

	reg.Register("construction_history", boolPredicate(
		func(o scene.ObjectState) bool { return o.HasHistory },
		"construction history present"))
	reg.Register("unfrozen_transform", boolPredicate(
		func(o scene.ObjectState) bool { return !o.FrozenTransform() },
		"transform is not frozen"))
	reg.Register("negative_scale", boolPredicate(
		func(o scene.ObjectState) bool { return o.NegativeScale() },
		"negative scale on at least one axis"))
	reg.Register("normals", boolPredicate(
		func(o scene.ObjectState) bool { return !o.NormalsUnified },
		"normals are locked, reversed or inconsistent"))
	reg.Register("uv_missing", boolPredicate(
		func(o scene.ObjectState) bool { return !o.HasUVs },
		"no UV set"))
	reg.Register("uv_out_of_bounds", boolPredicate(
		func(o scene.ObjectState) bool { return o.UVOutOfBounds },
		"UVs outside the 0-1 range"))

	reg.Register("naming_convention", namingConvention)
	reg.Register("missing_material", missingMaterial)
	reg.Register("default_material", defaultMaterial)
	reg.Register("polycount", polycount)

	return reg
}

// forEachTarget visits the requested targets, or every object when the
// target list is empty, in the view's stable order.
func forEachTarget(view scene.View, targets []string, visit func(string, scene.ObjectState)) {
	if len(targets) == 0 {
		targets = view.Targets()
	}
	for _, t := range targets {
		obj, ok := view.Object(t)
		if !ok {
			continue
		}
		visit(t, obj)
	}
}

// countPredicate builds a predicate flagging objects where extract
// returns a positive count. format receives the count.
func countPredicate(extract func(scene.ObjectState) int, format string) PredicateFactory {
	return func(_ Params) (Predicate, error) {
		return func(view scene.View, targets []string) []Finding {
			var findings []Finding
			forEachTarget(view, targets, func(path string, obj scene.ObjectState) {
				if n := extract(obj); n > 0 {
					findings = append(findings, Finding{
						TargetID: path,
						Message:  fmt.Sprintf(format, n),
					})
				}
			})
			return findings
		}, nil
	}
}

// boolPredicate builds a predicate flagging objects where cond holds.
func boolPredicate(cond func(scene.ObjectState) bool, message string) PredicateFactory {
	return func(_ Params) (Predicate, error) {
		return func(view scene.View, targets []string) []Finding {
			var findings []Finding
			forEachTarget(view, targets, func(path string, obj scene.ObjectState) {
				if cond(obj) {
					findings = append(findings, Finding{TargetID: path, Message: message})
				}
			})
			return findings
		}, nil
	}
}

// namingConvention flags objects whose short name does not match the
// `pattern` parameter. The pattern compiles at load time.
func namingConvention(params Params) (Predicate, error) {
	pattern, ok := params.String("pattern")
	if !ok {
		return nil, fmt.Errorf("naming_convention requires a %q parameter", "pattern")
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile pattern: %w", err)
	}

	return func(view scene.View, targets []string) []Finding {
		var findings []Finding
		forEachTarget(view, targets, func(path string, _ scene.ObjectState) {
			short := path
			if i := strings.LastIndex(path, "|"); i >= 0 {
				short = path[i+1:]
			}
			if !re.MatchString(short) {
				findings = append(findings, Finding{
					TargetID: path,
					Message:  fmt.Sprintf("name %q does not match %s", short, pattern),
				})
			}
		})
		return findings
	}, nil
}

// missingMaterial flags objects with no shader assigned.
func missingMaterial(_ Params) (Predicate, error) {
	return func(view scene.View, targets []string) []Finding {
		var findings []Finding
		forEachTarget(view, targets, func(path string, obj scene.ObjectState) {
			if obj.Material == "" {
				findings = append(findings, Finding{TargetID: path, Message: "no material assigned"})
			}
		})
		return findings
	}, nil
}

// defaultMaterial flags objects still carrying the host's default shader.
// The shader name defaults to lambert1 and can be overridden with the
// `material` parameter.
func defaultMaterial(params Params) (Predicate, error) {
	name := "lambert1"
	if s, ok := params.String("material"); ok {
		name = s
	}

	return func(view scene.View, targets []string) []Finding {
		var findings []Finding
		forEachTarget(view, targets, func(path string, obj scene.ObjectState) {
			if obj.Material == name {
				findings = append(findings, Finding{
					TargetID: path,
					Message:  fmt.Sprintf("default material %q still assigned", name),
				})
			}
		})
		return findings
	}, nil
}

// polycount flags objects above the `max_triangles` parameter.
func polycount(params Params) (Predicate, error) {
	max := params.Int("max_triangles", 0)
	if max <= 0 {
		return nil, fmt.Errorf("polycount requires a positive %q parameter", "max_triangles")
	}

	return func(view scene.View, targets []string) []Finding {
		var findings []Finding
		forEachTarget(view, targets, func(path string, obj scene.ObjectState) {
			if obj.Triangles > max {
				findings = append(findings, Finding{
					TargetID: path,
					Message:  fmt.Sprintf("%d triangles exceeds budget of %d", obj.Triangles, max),
				})
			}
		})
		return findings
	}, nil
}
