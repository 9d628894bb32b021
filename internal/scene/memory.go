package scene

import (
	"regexp"
	"sort"
	"strings"
	"sync"
)

// MemoryScene is an in-memory Scene used by the CLI (loaded from snapshot
// files) and by tests. A single scene must not be driven by more than one
// fix session at a time; the mutex only guards against torn reads.
type MemoryScene struct {
	mu      sync.RWMutex
	objects map[string]*ObjectState
}

// NewMemoryScene creates an empty scene.
func NewMemoryScene() *MemoryScene {
	return &MemoryScene{objects: make(map[string]*ObjectState)}
}

// Add inserts or replaces an object. The state is copied.
func (s *MemoryScene) Add(obj ObjectState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := obj
	s.objects[obj.Path] = &copied
}

// ReadSnapshot returns a detached read-only view of the current state.
func (s *MemoryScene) ReadSnapshot() View {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &memoryView{objects: make(map[string]ObjectState, len(s.objects))}
	for path, obj := range s.objects {
		snap.objects[path] = *obj
		snap.paths = append(snap.paths, path)
	}
	sort.Strings(snap.paths)
	return snap
}

// memoryView is an immutable copy of the scene at read time.
type memoryView struct {
	objects map[string]ObjectState
	paths   []string
}

func (v *memoryView) Targets() []string {
	return v.paths
}

func (v *memoryView) Object(path string) (ObjectState, bool) {
	obj, ok := v.objects[path]
	return obj, ok
}

// mutate runs fn against the live object, returning NotFoundError for
// unknown targets.
func (s *MemoryScene) mutate(path string, fn func(*ObjectState)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	obj, ok := s.objects[path]
	if !ok {
		return &NotFoundError{Path: path}
	}
	fn(obj)
	return nil
}

// DeleteHistory removes construction history from the target.
func (s *MemoryScene) DeleteHistory(path string) error {
	return s.mutate(path, func(o *ObjectState) {
		o.HasHistory = false
	})
}

// FreezeTransform bakes the transform and resets it to identity.
func (s *MemoryScene) FreezeTransform(path string) error {
	return s.mutate(path, func(o *ObjectState) {
		o.Translate = [3]float64{}
		o.Rotate = [3]float64{}
		o.Scale = [3]float64{1, 1, 1}
	})
}

// WeldVertices merges coincident vertices and closes the border edges the
// merge makes contiguous.
func (s *MemoryScene) WeldVertices(path string, tolerance float64) error {
	return s.mutate(path, func(o *ObjectState) {
		if tolerance <= 0 {
			return
		}
		o.CoincidentVertices = 0
		o.OpenEdges = 0
	})
}

// TriangulateNgons splits faces with more than four sides.
func (s *MemoryScene) TriangulateNgons(path string) error {
	return s.mutate(path, func(o *ObjectState) {
		if o.Ngons > 0 {
			// Each split adds triangles; two extra per n-gon is a fair
			// stand-in for a five-sided face.
			o.Triangles += o.Ngons * 2
			o.Ngons = 0
		}
	})
}

// CleanupTopology removes lamina, non-manifold and zero-area faces.
func (s *MemoryScene) CleanupTopology(path string) error {
	return s.mutate(path, func(o *ObjectState) {
		o.LaminaFaces = 0
		o.NonManifoldEdges = 0
		o.ZeroAreaFaces = 0
	})
}

// UnifyNormals unlocks and conforms normals.
func (s *MemoryScene) UnifyNormals(path string) error {
	return s.mutate(path, func(o *ObjectState) {
		o.NormalsUnified = true
	})
}

// RepackUV re-lays out UVs into 0-1 without overlaps, creating a UV set
// if none exists.
func (s *MemoryScene) RepackUV(path string) error {
	return s.mutate(path, func(o *ObjectState) {
		o.HasUVs = true
		o.UVOverlaps = 0
		o.UVOutOfBounds = false
	})
}

// invalidNameChars matches characters disallowed in normalized names.
var invalidNameChars = regexp.MustCompile(`[^a-z0-9_]+`)

// RenormalizeName rewrites the target's short name to satisfy the naming
// convention and returns the new path. Names already matching pattern are
// left untouched.
func (s *MemoryScene) RenormalizeName(path string, pattern string) (string, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	obj, ok := s.objects[path]
	if !ok {
		return "", &NotFoundError{Path: path}
	}

	short := shortName(path)
	if re.MatchString(short) {
		return path, nil
	}

	normalized := normalizeName(short)
	if !re.MatchString(normalized) {
		// Fall back to a conventional geometry prefix.
		normalized = "geo_" + strings.TrimPrefix(normalized, "geo_")
	}

	newPath := parentPath(path) + "|" + normalized
	if newPath == path {
		return path, nil
	}

	delete(s.objects, path)
	obj.Path = newPath
	s.objects[newPath] = obj
	return newPath, nil
}

// AssignMaterial assigns the named shader to the target.
func (s *MemoryScene) AssignMaterial(path string, material string) error {
	return s.mutate(path, func(o *ObjectState) {
		o.Material = material
	})
}

// shortName returns the last path component.
func shortName(path string) string {
	if i := strings.LastIndex(path, "|"); i >= 0 {
		return path[i+1:]
	}
	return path
}

// parentPath returns everything before the last path component.
func parentPath(path string) string {
	if i := strings.LastIndex(path, "|"); i >= 0 {
		return path[:i]
	}
	return ""
}

// normalizeName lowercases a name and collapses disallowed characters to
// underscores.
func normalizeName(name string) string {
	lowered := strings.ToLower(name)
	cleaned := invalidNameChars.ReplaceAllString(lowered, "_")
	return strings.Trim(cleaned, "_")
}
