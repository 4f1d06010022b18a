package memory

import (
	"context"
	"sort"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/casecraft-dev/casecraft/pkg/domain/model"
	"github.com/casecraft-dev/casecraft/pkg/domain/types"
)

type testCaseRepository struct {
	store *store
}

func (r *testCaseRepository) Create(ctx context.Context, testCase *model.TestCase) (*model.TestCase, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now().UTC()
	created := testCase.Clone()
	if created.ID == "" {
		created.ID = types.NewTestCaseID()
	}
	created.CreatedAt = now
	created.UpdatedAt = now

	r.store.testCases[created.ID] = created
	return created.Clone(), nil
}

func (r *testCaseRepository) Get(ctx context.Context, id types.TestCaseID) (*model.TestCase, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	tc, exists := r.store.testCases[id]
	if !exists {
		return nil, goerr.Wrap(types.ErrNotFound, "test case not found", goerr.V("id", id))
	}

	return tc.Clone(), nil
}

func (r *testCaseRepository) List(ctx context.Context) ([]*model.TestCase, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	result := make([]*model.TestCase, 0, len(r.store.testCases))
	for _, tc := range r.store.testCases {
		result = append(result, tc.Clone())
	}
	sortByCreation(result)

	return result, nil
}

func (r *testCaseRepository) Update(ctx context.Context, testCase *model.TestCase) (*model.TestCase, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, exists := r.store.testCases[testCase.ID]
	if !exists {
		return nil, goerr.Wrap(types.ErrNotFound, "test case not found", goerr.V("id", testCase.ID))
	}

	updated := testCase.Clone()
	updated.CreatedAt = existing.CreatedAt
	updated.UpdatedAt = time.Now().UTC()

	r.store.testCases[updated.ID] = updated
	return updated.Clone(), nil
}

func (r *testCaseRepository) Delete(ctx context.Context, id types.TestCaseID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.testCases[id]; !exists {
		return goerr.Wrap(types.ErrNotFound, "test case not found", goerr.V("id", id))
	}

	delete(r.store.testCases, id)

	// Cascade: drop every edge touching the case under the same lock
	for refID, ref := range r.store.references {
		if ref.SourceID == id || ref.TargetID == id {
			delete(r.store.references, refID)
		}
	}

	return nil
}

func (r *testCaseRepository) ListEmbedded(ctx context.Context) ([]*model.TestCase, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var result []*model.TestCase
	for _, tc := range r.store.testCases {
		if !tc.HasEmbedding() {
			continue
		}
		result = append(result, tc.Clone())
	}
	sortByCreation(result)

	return result, nil
}

func (r *testCaseRepository) Count(ctx context.Context) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return len(r.store.testCases), nil
}

func (r *testCaseRepository) CountEmbedded(ctx context.Context) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	count := 0
	for _, tc := range r.store.testCases {
		if tc.HasEmbedding() {
			count++
		}
	}

	return count, nil
}

// sortByCreation orders ascending by creation time, with the ID as a
// deterministic tie-break for records created in the same instant
func sortByCreation(cases []*model.TestCase) {
	sort.Slice(cases, func(i, j int) bool {
		if cases[i].CreatedAt.Equal(cases[j].CreatedAt) {
			return cases[i].ID < cases[j].ID
		}
		return cases[i].CreatedAt.Before(cases[j].CreatedAt)
	})
}
