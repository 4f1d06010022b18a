package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/casecraft-dev/casecraft/pkg/domain/model"
	"github.com/casecraft-dev/casecraft/pkg/domain/types"
)

type referenceDoc struct {
	ID         types.ReferenceID   `firestore:"ID"`
	SourceID   string              `firestore:"SourceID"`
	TargetID   string              `firestore:"TargetID"`
	Type       types.ReferenceType `firestore:"Type"`
	Similarity *float64            `firestore:"Similarity,omitempty"`
	CreatedAt  time.Time           `firestore:"CreatedAt"`
}

func toReferenceDoc(ref *model.Reference) *referenceDoc {
	return &referenceDoc{
		ID:         ref.ID,
		SourceID:   ref.SourceID.String(),
		TargetID:   ref.TargetID.String(),
		Type:       ref.Type,
		Similarity: ref.Similarity,
		CreatedAt:  ref.CreatedAt,
	}
}

func fromReferenceDoc(d *referenceDoc) *model.Reference {
	return &model.Reference{
		ID:         d.ID,
		SourceID:   types.TestCaseID(d.SourceID),
		TargetID:   types.TestCaseID(d.TargetID),
		Type:       d.Type,
		Similarity: d.Similarity,
		CreatedAt:  d.CreatedAt,
	}
}

// pairDocID is the document ID of the pair-uniqueness sentinel. The two
// endpoint IDs are ordered lexicographically so A->B and B->A map to
// the same document.
func pairDocID(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "__" + b
}

type referenceRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func (r *referenceRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(r.collectionPrefix + collectionReferences)
}

func (r *referenceRepository) testCaseCollection() *firestore.CollectionRef {
	return r.client.Collection(r.collectionPrefix + collectionTestCases)
}

func (r *referenceRepository) pairCollection() *firestore.CollectionRef {
	return r.client.Collection(r.collectionPrefix + collectionReferencePairs)
}

func (r *referenceRepository) Create(ctx context.Context, ref *model.Reference) (*model.Reference, error) {
	created := ref.Clone()
	if created.ID == "" {
		created.ID = types.NewReferenceID()
	}
	created.CreatedAt = time.Now().UTC()

	pairRef := r.pairCollection().Doc(pairDocID(created.SourceID.String(), created.TargetID.String()))
	edgeRef := r.collection().Doc(created.ID.String())

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(r.testCaseCollection().Doc(created.SourceID.String())); err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(types.ErrNotFound, "source test case not found", goerr.V("sourceId", created.SourceID))
			}
			return goerr.Wrap(err, "failed to get source test case")
		}
		if _, err := tx.Get(r.testCaseCollection().Doc(created.TargetID.String())); err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(types.ErrNotFound, "target test case not found", goerr.V("targetId", created.TargetID))
			}
			return goerr.Wrap(err, "failed to get target test case")
		}

		if _, err := tx.Get(pairRef); err == nil {
			return goerr.Wrap(types.ErrReferenceExists, "reference already exists",
				goerr.V("sourceId", created.SourceID),
				goerr.V("targetId", created.TargetID),
			)
		} else if status.Code(err) != codes.NotFound {
			return goerr.Wrap(err, "failed to check reference pair")
		}

		if err := tx.Create(pairRef, map[string]any{
			"ReferenceID": created.ID.String(),
			"CreatedAt":   created.CreatedAt,
		}); err != nil {
			return goerr.Wrap(err, "failed to create reference pair")
		}

		return tx.Create(edgeRef, toReferenceDoc(created))
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

func (r *referenceRepository) Delete(ctx context.Context, id types.ReferenceID) error {
	edgeRef := r.collection().Doc(id.String())

	return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(edgeRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return nil // deleting a missing edge is a no-op
			}
			return goerr.Wrap(err, "failed to get reference", goerr.V("id", id))
		}

		var d referenceDoc
		if err := snap.DataTo(&d); err != nil {
			return goerr.Wrap(err, "failed to decode reference document")
		}

		pairRef := r.pairCollection().Doc(pairDocID(d.SourceID, d.TargetID))
		if err := tx.Delete(pairRef); err != nil {
			return goerr.Wrap(err, "failed to delete reference pair")
		}

		return tx.Delete(edgeRef)
	})
}

func (r *referenceRepository) Counts(ctx context.Context, id types.TestCaseID) (*model.ReferenceCounts, error) {
	counts := &model.ReferenceCounts{}

	outgoing, err := r.queryEdges(ctx, r.collection().Where("SourceID", "==", id.String()))
	if err != nil {
		return nil, err
	}
	for _, ref := range outgoing {
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

	incoming, err := r.queryEdges(ctx, r.collection().Where("TargetID", "==", id.String()))
	if err != nil {
		return nil, err
	}
	counts.Incoming = len(incoming)

	return counts, nil
}

func (r *referenceRepository) ListOutgoing(ctx context.Context, id types.TestCaseID) ([]*model.ReferenceWithTarget, error) {
	edges, err := r.queryEdges(ctx, r.collection().
		Where("SourceID", "==", id.String()).
		OrderBy("CreatedAt", firestore.Desc))
	if err != nil {
		return nil, err
	}

	var result []*model.ReferenceWithTarget
	for _, ref := range edges {
		target, err := r.getNeighbor(ctx, ref.TargetID)
		if err != nil {
			return nil, err
		}
		if target == nil {
			continue
		}
		result = append(result, &model.ReferenceWithTarget{
			Reference: *ref,
			Target:    target.Ref(),
		})
	}

	return result, nil
}

func (r *referenceRepository) ListIncoming(ctx context.Context, id types.TestCaseID) ([]*model.ReferenceWithSource, error) {
	edges, err := r.queryEdges(ctx, r.collection().
		Where("TargetID", "==", id.String()).
		OrderBy("CreatedAt", firestore.Desc))
	if err != nil {
		return nil, err
	}

	var result []*model.ReferenceWithSource
	for _, ref := range edges {
		source, err := r.getNeighbor(ctx, ref.SourceID)
		if err != nil {
			return nil, err
		}
		if source == nil {
			continue
		}
		result = append(result, &model.ReferenceWithSource{
			Reference: *ref,
			Source:    source.Ref(),
		})
	}

	return result, nil
}

func (r *referenceRepository) queryEdges(ctx context.Context, q firestore.Query) ([]*model.Reference, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	var result []*model.Reference
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to query references")
		}

		var d referenceDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to decode reference document")
		}
		result = append(result, fromReferenceDoc(&d))
	}

	return result, nil
}

// getNeighbor returns nil without error when the neighboring case is
// gone, so traversals skip dangling edges instead of failing.
func (r *referenceRepository) getNeighbor(ctx context.Context, id types.TestCaseID) (*model.TestCase, error) {
	doc, err := r.testCaseCollection().Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, goerr.Wrap(err, "failed to get test case", goerr.V("id", id))
	}
	return docToTestCase(doc)
}
