package models

import "testing"

func TestViolation_Key(t *testing.T) {
	a := Violation{RuleID: "open_edges", TargetID: "|root|door_a"}
	b := Violation{RuleID: "open_edges", TargetID: "|root|door_a", Message: "different message"}
	c := Violation{RuleID: "open_edges", TargetID: "|root|door_b"}

	if a.Key() != b.Key() {
		t.Error("violations for the same rule and target should share a key")
	}
	if a.Key() == c.Key() {
		t.Error("violations for different targets should not share a key")
	}
}

func TestViolation_Key_NoCollisionAcrossFields(t *testing.T) {
	// "ab" + "c" must not collide with "a" + "bc".
	a := Violation{RuleID: "ab", TargetID: "c"}
	b := Violation{RuleID: "a", TargetID: "bc"}

	if a.Key() == b.Key() {
		t.Error("key must separate rule id from target id")
	}
}
