package interfaces

import (
	"context"

	"github.com/casecraft-dev/casecraft/pkg/domain/model"
	"github.com/casecraft-dev/casecraft/pkg/domain/types"
)

// TestCaseRepository defines the interface for test case persistence
type TestCaseRepository interface {
	// Create persists a new test case. An empty ID is filled in.
	Create(ctx context.Context, testCase *model.TestCase) (*model.TestCase, error)

	// Get retrieves a test case by ID. Returns types.ErrNotFound when the
	// ID does not exist.
	Get(ctx context.Context, id types.TestCaseID) (*model.TestCase, error)

	// List retrieves all test cases in ascending creation order
	List(ctx context.Context) ([]*model.TestCase, error)

	// Update replaces the stored test case. Returns types.ErrNotFound when
	// the ID does not exist.
	Update(ctx context.Context, testCase *model.TestCase) (*model.TestCase, error)

	// Delete removes a test case and every reference edge touching it,
	// atomically with respect to readers. Returns types.ErrNotFound when
	// the ID does not exist.
	Delete(ctx context.Context, id types.TestCaseID) error

	// ListEmbedded retrieves only test cases carrying a well-formed
	// embedding, in ascending creation order. The deterministic order is
	// what makes equal-similarity search results stable.
	ListEmbedded(ctx context.Context) ([]*model.TestCase, error)

	// Count returns the total number of test cases
	Count(ctx context.Context) (int, error)

	// CountEmbedded returns the number of test cases with a well-formed
	// embedding
	CountEmbedded(ctx context.Context) (int, error)
}
