package memory

import (
	"context"
	"sort"
	"time"

	"github.com/m-mizutani/goerr/v2"

	"github.com/casecraft-dev/casecraft/pkg/domain/model"
	"github.com/casecraft-dev/casecraft/pkg/domain/types"
)

type referenceRepository struct {
	store *store
}

func (r *referenceRepository) Create(ctx context.Context, ref *model.Reference) (*model.Reference, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.testCases[ref.SourceID]; !exists {
		return nil, goerr.Wrap(types.ErrNotFound, "source test case not found", goerr.V("sourceId", ref.SourceID))
	}
	if _, exists := r.store.testCases[ref.TargetID]; !exists {
		return nil, goerr.Wrap(types.ErrNotFound, "target test case not found", goerr.V("targetId", ref.TargetID))
	}

	key := newPairKey(ref.SourceID, ref.TargetID)
	if r.store.hasPair(key) {
		return nil, goerr.Wrap(types.ErrReferenceExists, "reference already exists",
			goerr.V("sourceId", ref.SourceID),
			goerr.V("targetId", ref.TargetID),
		)
	}

	created := ref.Clone()
	if created.ID == "" {
		created.ID = types.NewReferenceID()
	}
	created.CreatedAt = time.Now().UTC()

	r.store.references[created.ID] = created
	return created.Clone(), nil
}

func (r *referenceRepository) Delete(ctx context.Context, id types.ReferenceID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	delete(r.store.references, id)
	return nil
}

func (r *referenceRepository) Counts(ctx context.Context, id types.TestCaseID) (*model.ReferenceCounts, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	counts := &model.ReferenceCounts{}
	for _, ref := range r.store.references {
		if ref.SourceID == id {
			counts.Outgoing++
			switch ref.Type {
			case types.ReferenceTypeManual:
				counts.Manual++
			case types.ReferenceTypeRAGRetrieval:
				counts.RAGRetrieval++
			case types.ReferenceTypeDerived:
				counts.Derived++
			}
		}
		if ref.TargetID == id {
			counts.Incoming++
		}
	}

	return counts, nil
}

func (r *referenceRepository) ListOutgoing(ctx context.Context, id types.TestCaseID) ([]*model.ReferenceWithTarget, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var result []*model.ReferenceWithTarget
	for _, ref := range r.store.references {
		if ref.SourceID != id {
			continue
		}
		target, exists := r.store.testCases[ref.TargetID]
		if !exists {
			continue
		}
		result = append(result, &model.ReferenceWithTarget{
			Reference: *ref.Clone(),
			Target:    target.Ref(),
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

func (r *referenceRepository) ListIncoming(ctx context.Context, id types.TestCaseID) ([]*model.ReferenceWithSource, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var result []*model.ReferenceWithSource
	for _, ref := range r.store.references {
		if ref.TargetID != id {
			continue
		}
		source, exists := r.store.testCases[ref.SourceID]
		if !exists {
			continue
		}
		result = append(result, &model.ReferenceWithSource{
			Reference: *ref.Clone(),
			Source:    source.Ref(),
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}
