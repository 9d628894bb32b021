package scene

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSnapshot_SaveLoadRoundtrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.json")

	s := NewMemoryScene()
	s.Add(dirtyObject("|root|door"))
	s.Add(ObjectState{Path: "|root|crate", Scale: [3]float64{1, 1, 1}, NormalsUnified: true, HasUVs: true, Material: "standardSurface"})

	if err := s.SaveFile(path); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}

	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	want := s.ReadSnapshot()
	got := loaded.ReadSnapshot()
	if len(got.Targets()) != len(want.Targets()) {
		t.Fatalf("loaded %d objects, want %d", len(got.Targets()), len(want.Targets()))
	}
	for _, target := range want.Targets() {
		wantObj, _ := want.Object(target)
		gotObj, ok := got.Object(target)
		if !ok {
			t.Fatalf("loaded scene missing %q", target)
		}
		if gotObj != wantObj {
			t.Errorf("object %q changed across roundtrip:\n got %+v\nwant %+v", target, gotObj, wantObj)
		}
	}
}

func TestSnapshot_SaveFile_Deterministic(t *testing.T) {
	dir := t.TempDir()

	s := NewMemoryScene()
	s.Add(ObjectState{Path: "|b"})
	s.Add(ObjectState{Path: "|a"})

	first := filepath.Join(dir, "first.json")
	second := filepath.Join(dir, "second.json")
	if err := s.SaveFile(first); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}
	if err := s.SaveFile(second); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}

	a, _ := os.ReadFile(first)
	b, _ := os.ReadFile(second)
	if string(a) != string(b) {
		t.Error("repeated saves of an unchanged scene should be byte-identical")
	}
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := LoadFile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(bad, []byte("{not json"), 0644)
	if _, err := LoadFile(bad); err == nil {
		t.Error("expected error for malformed json")
	}

	empty := filepath.Join(dir, "empty-path.json")
	os.WriteFile(empty, []byte(`{"objects":[{"path":""}]}`), 0644)
	if _, err := LoadFile(empty); err == nil {
		t.Error("expected error for object with empty path")
	}
}
