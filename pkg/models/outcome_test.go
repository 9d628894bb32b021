package models

import "testing"

func TestSessionOutcome_Valid(t *testing.T) {
	tests := []struct {
		outcome SessionOutcome
		want    bool
	}{
		{OutcomeClean, true},
		{OutcomeStalled, true},
		{OutcomeMaxIterations, true},
		{OutcomeCancelled, true},
		{SessionOutcome("exploded"), false},
	}

	for _, tt := range tests {
		if got := tt.outcome.Valid(); got != tt.want {
			t.Errorf("SessionOutcome(%q).Valid() = %v, want %v", tt.outcome, got, tt.want)
		}
	}
}

func TestSessionOutcome_Terminal(t *testing.T) {
	if !OutcomeClean.Terminal() {
		t.Error("clean sessions need no further action")
	}
	for _, o := range []SessionOutcome{OutcomeStalled, OutcomeMaxIterations, OutcomeCancelled} {
		if o.Terminal() {
			t.Errorf("%s sessions may still converge on a later run", o)
		}
	}
}
