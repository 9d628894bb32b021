package models

// Category groups rules by the aspect of the scene they inspect.
type Category string

const (
	// CategoryGeometry covers mesh topology checks.
	CategoryGeometry Category = "geometry"
	// CategoryTransform covers transform and pivot checks.
	CategoryTransform Category = "transform"
	// CategoryUV covers UV layout checks.
	CategoryUV Category = "uv"
	// CategoryNaming covers node naming convention checks.
	CategoryNaming Category = "naming"
	// CategoryMaterial covers shader and material assignment checks.
	CategoryMaterial Category = "material"
	// CategoryAnomaly tags violations produced by the external anomaly
	// scorer. Anomaly violations are never auto-fixed.
	CategoryAnomaly Category = "anomaly"
)

// Valid returns true if the category is a known value.
func (c Category) Valid() bool {
	switch c {
	case CategoryGeometry, CategoryTransform, CategoryUV, CategoryNaming, CategoryMaterial, CategoryAnomaly:
		return true
	default:
		return false
	}
}
