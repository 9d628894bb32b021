// Package scene defines the scene access contract the gate runs against,
// plus an in-memory implementation backed by JSON snapshot files.
//
// The engine never depends on a host DCC directly: any host (or offline
// mesh library) that implements View and Mutator can be gated.
package scene

import "fmt"

// ObjectState is a read-only copy of one scene object's inspectable state.
// Field values describe the object at snapshot time; mutating a copy has
// no effect on the scene.
type ObjectState struct {
	// Path is the unique target handle (DAG-style node path).
	Path string `json:"path"`
	// Translate, Rotate and Scale are the local transform components.
	Translate [3]float64 `json:"translate"`
	Rotate    [3]float64 `json:"rotate"`
	Scale     [3]float64 `json:"scale"`
	// HasHistory is true while construction history is attached.
	HasHistory bool `json:"has_history"`
	// Ngons counts faces with more than four sides.
	Ngons int `json:"ngons"`
	// OpenEdges counts border edges (holes in the surface).
	OpenEdges int `json:"open_edges"`
	// NonManifoldEdges counts edges shared by more than two faces.
	NonManifoldEdges int `json:"non_manifold_edges"`
	// LaminaFaces counts faces sharing all edges with another face.
	LaminaFaces int `json:"lamina_faces"`
	// ZeroAreaFaces counts degenerate faces.
	ZeroAreaFaces int `json:"zero_area_faces"`
	// CoincidentVertices counts vertex pairs within weld tolerance.
	CoincidentVertices int `json:"coincident_vertices"`
	// Triangles is the triangulated polygon count.
	Triangles int `json:"triangles"`
	// NormalsUnified is false when normals are locked, reversed or mixed.
	NormalsUnified bool `json:"normals_unified"`
	// HasUVs is true when the object carries a UV set.
	HasUVs bool `json:"has_uvs"`
	// UVOverlaps counts overlapping UV shell pairs.
	UVOverlaps int `json:"uv_overlaps"`
	// UVOutOfBounds is true when UVs leave the 0-1 range.
	UVOutOfBounds bool `json:"uv_out_of_bounds"`
	// Material is the assigned shader name, empty when unshaded.
	Material string `json:"material"`
}

// FrozenTransform reports whether the transform is identity (translation
// and rotation zeroed, scale one).
func (o ObjectState) FrozenTransform() bool {
	for i := 0; i < 3; i++ {
		if o.Translate[i] != 0 || o.Rotate[i] != 0 || o.Scale[i] != 1 {
			return false
		}
	}
	return true
}

// NegativeScale reports whether any scale axis is mirrored.
func (o ObjectState) NegativeScale() bool {
	return o.Scale[0] < 0 || o.Scale[1] < 0 || o.Scale[2] < 0
}

// View is read-only access to a scene snapshot. Rule predicates receive a
// View and must not retain it across validation passes.
type View interface {
	// Targets returns all object paths in stable (sorted) order.
	Targets() []string
	// Object returns the state of one target.
	Object(path string) (ObjectState, bool)
}

// Mutator is category-specific write access to the scene. Every method is
// idempotent: applying it to a target already in the fixed state is a
// no-op, not an error.
type Mutator interface {
	// DeleteHistory removes construction history from the target.
	DeleteHistory(path string) error
	// FreezeTransform bakes the transform and resets it to identity.
	FreezeTransform(path string) error
	// WeldVertices merges coincident vertices within tolerance, closing
	// border edges the merge makes contiguous.
	WeldVertices(path string, tolerance float64) error
	// TriangulateNgons splits faces with more than four sides.
	TriangulateNgons(path string) error
	// CleanupTopology removes lamina, non-manifold and zero-area faces.
	CleanupTopology(path string) error
	// UnifyNormals unlocks and conforms normals.
	UnifyNormals(path string) error
	// RepackUV re-lays out UVs into the 0-1 range without overlaps,
	// creating a UV set if none exists.
	RepackUV(path string) error
	// RenormalizeName rewrites the target's short name to satisfy the
	// naming convention.
	RenormalizeName(path string, pattern string) (string, error)
	// AssignMaterial assigns the named shader to the target.
	AssignMaterial(path string, material string) error
}

// Scene combines snapshot reads with mutation. ReadSnapshot must return a
// detached copy: validation re-reads current state every pass and never
// acts on stale views.
type Scene interface {
	Mutator
	ReadSnapshot() View
}

// NotFoundError reports a mutation against a target that does not exist.
type NotFoundError struct {
	// Path is the missing target.
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("scene object not found: %s", e.Path)
}
