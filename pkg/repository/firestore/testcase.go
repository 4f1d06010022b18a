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

// testCaseDoc is the Firestore document representation of model.TestCase.
// Embedding is stored as firestore.Vector32 so that FindNearest vector
// search stays available for this collection.
type testCaseDoc struct {
	ID             types.TestCaseID       `firestore:"ID"`
	Name           string                 `firestore:"Name"`
	Description    string                 `firestore:"Description"`
	Type           types.CaseType         `firestore:"Type"`
	Priority       types.Priority         `firestore:"Priority"`
	Steps          []stepDoc              `firestore:"Steps"`
	ExpectedResult string                 `firestore:"ExpectedResult"`
	Tags           []string               `firestore:"Tags"`
	Embedding      firestore.Vector32     `firestore:"Embedding,omitempty"`
	AIGenerated    bool                   `firestore:"AIGenerated"`
	OriginalPrompt string                 `firestore:"OriginalPrompt,omitempty"`
	AIConfidence   *float64               `firestore:"AIConfidence,omitempty"`
	AISuggestions  string                 `firestore:"AISuggestions,omitempty"`
	AIMethod       types.GenerationMethod `firestore:"AIGenerationMethod,omitempty"`
	TokenUsage     *tokenUsageDoc         `firestore:"TokenUsage,omitempty"`
	CreatedAt      time.Time              `firestore:"CreatedAt"`
	UpdatedAt      time.Time              `firestore:"UpdatedAt"`
}

type stepDoc struct {
	Action         string `firestore:"Action"`
	ExpectedResult string `firestore:"ExpectedResult"`
}

type tokenUsageDoc struct {
	PromptTokens     int `firestore:"PromptTokens"`
	CompletionTokens int `firestore:"CompletionTokens"`
	TotalTokens      int `firestore:"TotalTokens"`
}

func toTestCaseDoc(t *model.TestCase) *testCaseDoc {
	doc := &testCaseDoc{
		ID:             t.ID,
		Name:           t.Name,
		Description:    t.Description,
		Type:           t.Type,
		Priority:       t.Priority,
		ExpectedResult: t.ExpectedResult,
		Tags:           t.Tags,
		AIGenerated:    t.AIGenerated,
		OriginalPrompt: t.OriginalPrompt,
		AIConfidence:   t.AIConfidence,
		AISuggestions:  t.AISuggestions,
		AIMethod:       t.AIGenerationMethod,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
	for _, s := range t.Steps {
		doc.Steps = append(doc.Steps, stepDoc{Action: s.Action, ExpectedResult: s.ExpectedResult})
	}
	if len(t.Embedding) > 0 {
		doc.Embedding = firestore.Vector32(t.Embedding)
	}
	if t.TokenUsage != nil {
		doc.TokenUsage = &tokenUsageDoc{
			PromptTokens:     t.TokenUsage.PromptTokens,
			CompletionTokens: t.TokenUsage.CompletionTokens,
			TotalTokens:      t.TokenUsage.TotalTokens,
		}
	}
	return doc
}

func fromTestCaseDoc(d *testCaseDoc) *model.TestCase {
	t := &model.TestCase{
		ID:                 d.ID,
		Name:               d.Name,
		Description:        d.Description,
		Type:               d.Type,
		Priority:           d.Priority,
		ExpectedResult:     d.ExpectedResult,
		Tags:               d.Tags,
		AIGenerated:        d.AIGenerated,
		OriginalPrompt:     d.OriginalPrompt,
		AIConfidence:       d.AIConfidence,
		AISuggestions:      d.AISuggestions,
		AIGenerationMethod: d.AIMethod,
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}
	for _, s := range d.Steps {
		t.Steps = append(t.Steps, model.Step{Action: s.Action, ExpectedResult: s.ExpectedResult})
	}
	if len(d.Embedding) > 0 {
		t.Embedding = []float32(d.Embedding)
	}
	if d.TokenUsage != nil {
		t.TokenUsage = &model.TokenUsage{
			PromptTokens:     d.TokenUsage.PromptTokens,
			CompletionTokens: d.TokenUsage.CompletionTokens,
			TotalTokens:      d.TokenUsage.TotalTokens,
		}
	}
	return t
}

func docToTestCase(doc *firestore.DocumentSnapshot) (*model.TestCase, error) {
	var d testCaseDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to decode test case document")
	}
	return fromTestCaseDoc(&d), nil
}

type testCaseRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func (r *testCaseRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(r.collectionPrefix + collectionTestCases)
}

func (r *testCaseRepository) referenceCollection() *firestore.CollectionRef {
	return r.client.Collection(r.collectionPrefix + collectionReferences)
}

func (r *testCaseRepository) pairCollection() *firestore.CollectionRef {
	return r.client.Collection(r.collectionPrefix + collectionReferencePairs)
}

func (r *testCaseRepository) Create(ctx context.Context, testCase *model.TestCase) (*model.TestCase, error) {
	now := time.Now().UTC()
	created := testCase.Clone()
	if created.ID == "" {
		created.ID = types.NewTestCaseID()
	}
	created.CreatedAt = now
	created.UpdatedAt = now

	if _, err := r.collection().Doc(created.ID.String()).Set(ctx, toTestCaseDoc(created)); err != nil {
		return nil, goerr.Wrap(err, "failed to create test case", goerr.V("id", created.ID))
	}

	return created, nil
}

func (r *testCaseRepository) Get(ctx context.Context, id types.TestCaseID) (*model.TestCase, error) {
	doc, err := r.collection().Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(types.ErrNotFound, "test case not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get test case", goerr.V("id", id))
	}

	return docToTestCase(doc)
}

func (r *testCaseRepository) List(ctx context.Context) ([]*model.TestCase, error) {
	iter := r.collection().OrderBy("CreatedAt", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var result []*model.TestCase
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list test cases")
		}

		tc, err := docToTestCase(doc)
		if err != nil {
			return nil, err
		}
		result = append(result, tc)
	}

	return result, nil
}

func (r *testCaseRepository) Update(ctx context.Context, testCase *model.TestCase) (*model.TestCase, error) {
	docRef := r.collection().Doc(testCase.ID.String())

	var updated *model.TestCase
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(types.ErrNotFound, "test case not found", goerr.V("id", testCase.ID))
			}
			return goerr.Wrap(err, "failed to get test case")
		}

		existing, err := docToTestCase(snap)
		if err != nil {
			return err
		}

		updated = testCase.Clone()
		updated.CreatedAt = existing.CreatedAt
		updated.UpdatedAt = time.Now().UTC()

		return tx.Set(docRef, toTestCaseDoc(updated))
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (r *testCaseRepository) Delete(ctx context.Context, id types.TestCaseID) error {
	docRef := r.collection().Doc(id.String())

	// Transaction keeps the cascade atomic: readers never observe the
	// record gone while its edges remain, or the reverse.
	return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(docRef); err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(types.ErrNotFound, "test case not found", goerr.V("id", id))
			}
			return goerr.Wrap(err, "failed to get test case")
		}

		var edgeDocs []*firestore.DocumentSnapshot
		for _, q := range []firestore.Query{
			r.referenceCollection().Where("SourceID", "==", id.String()),
			r.referenceCollection().Where("TargetID", "==", id.String()),
		} {
			docs, err := tx.Documents(q).GetAll()
			if err != nil {
				return goerr.Wrap(err, "failed to query references for cascade")
			}
			edgeDocs = append(edgeDocs, docs...)
		}

		for _, doc := range edgeDocs {
			var d referenceDoc
			if err := doc.DataTo(&d); err != nil {
				return goerr.Wrap(err, "failed to decode reference document")
			}
			pairRef := r.pairCollection().Doc(pairDocID(d.SourceID, d.TargetID))
			if err := tx.Delete(pairRef); err != nil {
				return goerr.Wrap(err, "failed to delete reference pair")
			}
			if err := tx.Delete(doc.Ref); err != nil {
				return goerr.Wrap(err, "failed to delete reference")
			}
		}

		return tx.Delete(docRef)
	})
}

func (r *testCaseRepository) ListEmbedded(ctx context.Context) ([]*model.TestCase, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}

	var result []*model.TestCase
	for _, tc := range all {
		if tc.HasEmbedding() {
			result = append(result, tc)
		}
	}

	return result, nil
}

func (r *testCaseRepository) Count(ctx context.Context) (int, error) {
	return r.countDocs(ctx, r.collection().Query)
}

func (r *testCaseRepository) CountEmbedded(ctx context.Context) (int, error) {
	embedded, err := r.ListEmbedded(ctx)
	if err != nil {
		return 0, err
	}
	return len(embedded), nil
}

func (r *testCaseRepository) countDocs(ctx context.Context, q firestore.Query) (int, error) {
	iter := q.Documents(ctx)
	defer iter.Stop()

	count := 0
	for {
		_, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return 0, goerr.Wrap(err, "failed to count documents")
		}
		count++
	}

	return count, nil
}
