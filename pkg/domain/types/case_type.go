package types

import "fmt"

// CaseType represents whether a test case validates expected behavior
// (positive) or error handling (negative)
type CaseType string

const (
	CaseTypePositive CaseType = "positive"
	CaseTypeNegative CaseType = "negative"
)

// AllCaseTypes returns all valid case types
func AllCaseTypes() []CaseType {
	return []CaseType{
		CaseTypePositive,
		CaseTypeNegative,
	}
}

// IsValid checks if the case type is valid
func (t CaseType) IsValid() bool {
	switch t {
	case CaseTypePositive, CaseTypeNegative:
		return true
	default:
		return false
	}
}

// Normalize returns the type, treating empty or unknown values as positive
func (t CaseType) Normalize() CaseType {
	if t.IsValid() {
		return t
	}
	return CaseTypePositive
}

// String returns the string representation of the case type
func (t CaseType) String() string {
	return string(t)
}

// ParseCaseType parses a string into a CaseType
func ParseCaseType(s string) (CaseType, error) {
	t := CaseType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid case type: %s", s)
	}
	return t, nil
}
