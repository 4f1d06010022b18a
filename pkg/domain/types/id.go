package types

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TestCaseID is a creation-ordered identifier for test cases.
// The format is "tc_<unix millis>_<12 hex chars>", which sorts
// lexicographically in rough creation order while staying
// collision-resistant.
type TestCaseID string

// NewTestCaseID generates a new TestCaseID
func NewTestCaseID() TestCaseID {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms; fall back to UUID
		// material just in case.
		u := uuid.New()
		copy(buf, u[:6])
	}
	return TestCaseID(fmt.Sprintf("tc_%d_%s", time.Now().UnixMilli(), hex.EncodeToString(buf)))
}

// Validate checks if the TestCaseID has the expected format
func (id TestCaseID) Validate() error {
	if id == "" {
		return fmt.Errorf("test case ID is empty")
	}
	if !strings.HasPrefix(string(id), "tc_") {
		return fmt.Errorf("invalid test case ID format: %s", id)
	}
	return nil
}

// String returns the string representation of the TestCaseID
func (id TestCaseID) String() string {
	return string(id)
}

// ReferenceID is a UUID-based identifier for reference edges
type ReferenceID string

// NewReferenceID generates a new UUID v4 ReferenceID
func NewReferenceID() ReferenceID {
	return ReferenceID(uuid.New().String())
}

// String returns the string representation of the ReferenceID
func (id ReferenceID) String() string {
	return string(id)
}
