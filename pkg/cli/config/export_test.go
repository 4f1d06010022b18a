package config

import "time"

// NewGenerationForTest creates a Generation config for testing purposes
func NewGenerationForTest(configPath string) *Generation {
	return &Generation{
		configPath:        configPath,
		modelName:         "gemini-1.5-flash",
		pricePerKTokens:   0.00015,
		generationTimeout: 60 * time.Second,
		bulkConcurrency:   4,
		backfillInterval:  10 * time.Minute,
	}
}

// NewGeminiForTest creates a Gemini config for testing purposes
func NewGeminiForTest(projectID, location string) *Gemini {
	return &Gemini{
		projectID: projectID,
		location:  location,
	}
}
