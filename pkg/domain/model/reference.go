package model

import (
	"time"

	"github.com/casecraft-dev/casecraft/pkg/domain/types"
)

// Reference is a typed, directed edge between two test cases.
// The unordered (SourceID, TargetID) pair is unique regardless of type.
// The graph may contain cycles; A->B and B->A can both exist.
type Reference struct {
	ID       types.ReferenceID
	SourceID types.TestCaseID
	TargetID types.TestCaseID
	Type     types.ReferenceType

	// Similarity is the retrieval score at creation time, populated only
	// for rag_retrieval edges
	Similarity *float64

	CreatedAt time.Time
}

// Clone returns a deep copy of the reference
func (r *Reference) Clone() *Reference {
	copied := *r
	if r.Similarity != nil {
		s := *r.Similarity
		copied.Similarity = &s
	}
	return &copied
}

// ReferenceWithTarget is an outgoing edge joined with the target's
// display projection
type ReferenceWithTarget struct {
	Reference
	Target TestCaseRef
}

// ReferenceWithSource is an incoming edge joined with the source's
// display projection
type ReferenceWithSource struct {
	Reference
	Source TestCaseRef
}

// ReferenceCounts aggregates the edges a test case participates in.
// Outgoing and the per-type counts consider the case as source;
// Incoming considers it as target.
type ReferenceCounts struct {
	Outgoing     int `json:"outgoing"`
	Incoming     int `json:"incoming"`
	Manual       int `json:"manual"`
	RAGRetrieval int `json:"ragRetrieval"`
	Derived      int `json:"derived"`
}
