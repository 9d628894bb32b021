package scene

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Snapshot is the JSON file format the CLI exchanges scene state in. It is
// the same shape the authoring-host client exports.
type Snapshot struct {
	// Objects lists every inspectable object in the scene.
	Objects []ObjectState `json:"objects"`
}

// LoadFile reads a scene snapshot file into a MemoryScene.
func LoadFile(path string) (*MemoryScene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse scene snapshot %s: %w", path, err)
	}

	s := NewMemoryScene()
	for _, obj := range snap.Objects {
		if obj.Path == "" {
			return nil, fmt.Errorf("parse scene snapshot %s: object with empty path", path)
		}
		s.Add(obj)
	}
	return s, nil
}

// SaveFile writes the scene's current state to a snapshot file. Objects
// are ordered by path so repeated saves of an unchanged scene are
// byte-identical.
func (s *MemoryScene) SaveFile(path string) error {
	view := s.ReadSnapshot()

	snap := Snapshot{}
	targets := view.Targets()
	sort.Strings(targets)
	for _, t := range targets {
		obj, _ := view.Object(t)
		snap.Objects = append(snap.Objects, obj)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode scene snapshot: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write scene snapshot: %w", err)
	}
	return nil
}
