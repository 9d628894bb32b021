package models

// SessionOutcome is the terminal state of an auto-fix session. Outcomes
// are data, not errors: callers branch on them explicitly.
type SessionOutcome string

const (
	// OutcomeClean means no error-severity violations remain.
	OutcomeClean SessionOutcome = "clean"
	// OutcomeStalled means a fix pass made no progress: the violation
	// signature repeated exactly, so another pass would loop.
	OutcomeStalled SessionOutcome = "stalled"
	// OutcomeMaxIterations means the iteration bound was reached with
	// violations remaining.
	OutcomeMaxIterations SessionOutcome = "max_iterations_exceeded"
	// OutcomeCancelled means the caller cancelled the session between
	// phases or rule evaluations.
	OutcomeCancelled SessionOutcome = "cancelled"
)

// Valid returns true if the outcome is a known value.
func (o SessionOutcome) Valid() bool {
	switch o {
	case OutcomeClean, OutcomeStalled, OutcomeMaxIterations, OutcomeCancelled:
		return true
	default:
		return false
	}
}

// Terminal reports whether the session may still converge on a later run.
// Clean is the only outcome that needs no further action.
func (o SessionOutcome) Terminal() bool {
	return o == OutcomeClean
}
