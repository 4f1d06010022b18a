package types

// GenerationMethod represents how an AI-generated test case was produced
type GenerationMethod string

const (
	// GenerationMethodPureAI is generation without grounding references
	GenerationMethodPureAI GenerationMethod = "pure_ai"

	// GenerationMethodRAG is generation grounded by retrieved prior cases
	GenerationMethodRAG GenerationMethod = "rag"
)

// IsValid checks if the generation method is valid
func (m GenerationMethod) IsValid() bool {
	switch m {
	case GenerationMethodPureAI, GenerationMethodRAG:
		return true
	default:
		return false
	}
}

// String returns the string representation of the generation method
func (m GenerationMethod) String() string {
	return string(m)
}
