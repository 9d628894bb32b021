package models

import "testing"

func TestCategory_Valid(t *testing.T) {
	valid := []Category{
		CategoryGeometry, CategoryTransform, CategoryUV,
		CategoryNaming, CategoryMaterial, CategoryAnomaly,
	}
	for _, c := range valid {
		if !c.Valid() {
			t.Errorf("Category(%q).Valid() = false, want true", c)
		}
	}
	if Category("lighting").Valid() {
		t.Error("unknown category should not validate")
	}
}
