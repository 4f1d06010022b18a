package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/casecraft-dev/casecraft/pkg/domain/model"
	"github.com/casecraft-dev/casecraft/pkg/domain/types"
)

// FullDetail is the complete graph view of one test case
type FullDetail struct {
	TestCase *model.TestCase
	Outgoing []*model.ReferenceWithTarget
	Incoming []*model.ReferenceWithSource
	Counts   *model.ReferenceCounts
}

// AddManualReference links two existing test cases with a manual edge.
// Duplicate pairs surface as types.ErrReferenceExists so the caller can
// report the conflict.
func (uc *UseCases) AddManualReference(ctx context.Context, sourceID, targetID types.TestCaseID) (*model.Reference, error) {
	return uc.repo.Reference().Create(ctx, &model.Reference{
		SourceID: sourceID,
		TargetID: targetID,
		Type:     types.ReferenceTypeManual,
	})
}

// RemoveReference deletes an edge. Removing an unknown edge is a no-op.
func (uc *UseCases) RemoveReference(ctx context.Context, id types.ReferenceID) error {
	return uc.repo.Reference().Delete(ctx, id)
}

// ReferenceCounts returns aggregate edge counts for a test case
func (uc *UseCases) ReferenceCounts(ctx context.Context, id types.TestCaseID) (*model.ReferenceCounts, error) {
	if _, err := uc.repo.TestCase().Get(ctx, id); err != nil {
		return nil, err
	}
	return uc.repo.Reference().Counts(ctx, id)
}

// OutgoingReferences lists edges where the case is the source, newest first
func (uc *UseCases) OutgoingReferences(ctx context.Context, id types.TestCaseID) ([]*model.ReferenceWithTarget, error) {
	if _, err := uc.repo.TestCase().Get(ctx, id); err != nil {
		return nil, err
	}
	return uc.repo.Reference().ListOutgoing(ctx, id)
}

// IncomingReferences lists edges where the case is the target, newest first
func (uc *UseCases) IncomingReferences(ctx context.Context, id types.TestCaseID) ([]*model.ReferenceWithSource, error) {
	if _, err := uc.repo.TestCase().Get(ctx, id); err != nil {
		return nil, err
	}
	return uc.repo.Reference().ListIncoming(ctx, id)
}

// FullDetail returns the record together with its graph neighborhood
func (uc *UseCases) FullDetail(ctx context.Context, id types.TestCaseID) (*FullDetail, error) {
	testCase, err := uc.repo.TestCase().Get(ctx, id)
	if err != nil {
		return nil, err
	}

	outgoing, err := uc.repo.Reference().ListOutgoing(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list outgoing references", goerr.V("id", id))
	}
	incoming, err := uc.repo.Reference().ListIncoming(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list incoming references", goerr.V("id", id))
	}
	counts, err := uc.repo.Reference().Counts(ctx, id)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to count references", goerr.V("id", id))
	}

	return &FullDetail{
		TestCase: testCase,
		Outgoing: outgoing,
		Incoming: incoming,
		Counts:   counts,
	}, nil
}

// Derive creates a variant of an existing test case and links it back
// with a derived edge. Overrides win per field; untouched fields are
// copied from the original.
func (uc *UseCases) Derive(ctx context.Context, targetID types.TestCaseID, overrides *TestCasePatch) (*model.TestCase, error) {
	original, err := uc.repo.TestCase().Get(ctx, targetID)
	if err != nil {
		return nil, err
	}

	input := &TestCaseInput{
		Name:           original.Name,
		Description:    original.Description,
		Type:           original.Type,
		Priority:       original.Priority,
		Steps:          original.Steps,
		ExpectedResult: original.ExpectedResult,
		Tags:           original.Tags,
	}
	if overrides != nil {
		if overrides.Name != nil {
			input.Name = *overrides.Name
		}
		if overrides.Description != nil {
			input.Description = *overrides.Description
		}
		if overrides.Type != nil {
			input.Type = *overrides.Type
		}
		if overrides.Priority != nil {
			input.Priority = *overrides.Priority
		}
		if overrides.Steps != nil {
			input.Steps = *overrides.Steps
		}
		if overrides.ExpectedResult != nil {
			input.ExpectedResult = *overrides.ExpectedResult
		}
		if overrides.Tags != nil {
			input.Tags = *overrides.Tags
		}
	}

	created, err := uc.CreateTestCase(ctx, input)
	if err != nil {
		return nil, err
	}

	if _, err := uc.repo.Reference().Create(ctx, &model.Reference{
		SourceID: created.ID,
		TargetID: targetID,
		Type:     types.ReferenceTypeDerived,
	}); err != nil {
		return nil, goerr.Wrap(err, "failed to link derived test case",
			goerr.V("sourceId", created.ID),
			goerr.V("targetId", targetID),
		)
	}

	return created, nil
}
