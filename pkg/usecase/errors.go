package usecase

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for use case layer
var (
	// ErrAINotConfigured indicates generation or embedding was requested
	// but no LLM client is wired in
	ErrAINotConfigured = goerr.New("AI features are not configured")

	// ErrEmptyPrompt indicates a generation request without a prompt
	ErrEmptyPrompt = goerr.New("prompt is required")

	// ErrEmptyName indicates a test case without a name
	ErrEmptyName = goerr.New("test case name is required")
)
