package interfaces

import (
	"context"

	"github.com/casecraft-dev/casecraft/pkg/domain/model"
	"github.com/casecraft-dev/casecraft/pkg/domain/types"
)

// ReferenceRepository defines the interface for reference edge persistence.
// Uniqueness of the unordered (source, target) pair is enforced by the
// store itself, not by callers checking first.
type ReferenceRepository interface {
	// Create inserts a new edge. Returns types.ErrNotFound when either
	// endpoint does not exist, and types.ErrReferenceExists when the
	// unordered (source, target) pair is already linked, regardless of
	// the existing edge's type.
	Create(ctx context.Context, ref *model.Reference) (*model.Reference, error)

	// Delete removes an edge by ID. Deleting a non-existent edge is a no-op.
	Delete(ctx context.Context, id types.ReferenceID) error

	// Counts returns aggregate edge counts for a test case
	Counts(ctx context.Context, id types.TestCaseID) (*model.ReferenceCounts, error)

	// ListOutgoing returns edges where the case is the source, joined with
	// the target's display projection, newest first
	ListOutgoing(ctx context.Context, id types.TestCaseID) ([]*model.ReferenceWithTarget, error)

	// ListIncoming returns edges where the case is the target, joined with
	// the source's display projection, newest first
	ListIncoming(ctx context.Context, id types.TestCaseID) ([]*model.ReferenceWithSource, error)
}
