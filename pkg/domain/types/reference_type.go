package types

import "fmt"

// ReferenceType represents how two test cases are related
type ReferenceType string

const (
	// ReferenceTypeManual is a user-asserted link between two cases
	ReferenceTypeManual ReferenceType = "manual"

	// ReferenceTypeRAGRetrieval marks that the source case's generation was
	// grounded by the target case
	ReferenceTypeRAGRetrieval ReferenceType = "rag_retrieval"

	// ReferenceTypeDerived marks that the source case was branched from the
	// target case
	ReferenceTypeDerived ReferenceType = "derived"
)

// AllReferenceTypes returns all valid reference types
func AllReferenceTypes() []ReferenceType {
	return []ReferenceType{
		ReferenceTypeManual,
		ReferenceTypeRAGRetrieval,
		ReferenceTypeDerived,
	}
}

// IsValid checks if the reference type is valid
func (t ReferenceType) IsValid() bool {
	switch t {
	case ReferenceTypeManual, ReferenceTypeRAGRetrieval, ReferenceTypeDerived:
		return true
	default:
		return false
	}
}

// String returns the string representation of the reference type
func (t ReferenceType) String() string {
	return string(t)
}

// ParseReferenceType parses a string into a ReferenceType
func ParseReferenceType(s string) (ReferenceType, error) {
	t := ReferenceType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("invalid reference type: %s", s)
	}
	return t, nil
}
