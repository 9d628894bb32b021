package models

// Severity classifies how serious a violation is.
type Severity string

const (
	// SeverityError indicates a violation that blocks the gate.
	SeverityError Severity = "error"
	// SeverityWarning indicates a violation that is reported but does not block.
	SeverityWarning Severity = "warning"
	// SeverityInfo indicates an informational finding.
	SeverityInfo Severity = "info"
)

// Valid returns true if the severity is a known value.
func (s Severity) Valid() bool {
	switch s {
	case SeverityError, SeverityWarning, SeverityInfo:
		return true
	default:
		return false
	}
}

// Rank returns the sort rank of the severity. Lower ranks sort first,
// so errors always lead a report.
func (s Severity) Rank() int {
	switch s {
	case SeverityError:
		return 0
	case SeverityWarning:
		return 1
	case SeverityInfo:
		return 2
	default:
		return 3
	}
}
