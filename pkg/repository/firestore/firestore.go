package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"

	"github.com/casecraft-dev/casecraft/pkg/domain/interfaces"
)

const (
	collectionTestCases  = "testcases"
	collectionReferences = "references"

	// collectionReferencePairs holds one sentinel document per linked
	// unordered (source, target) pair. Creating it inside the same
	// transaction as the edge is what enforces pair uniqueness under
	// concurrent inserts.
	collectionReferencePairs = "reference_pairs"
)

type Firestore struct {
	client    *firestore.Client
	testCase  *testCaseRepository
	reference *referenceRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

// WithCollectionPrefix namespaces all collections, used by integration
// tests to isolate runs
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.testCase.collectionPrefix = prefix
		f.reference.collectionPrefix = prefix
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	var client *firestore.Client
	var err error
	if databaseID != "" {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	} else {
		client, err = firestore.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID),
			goerr.V("databaseID", databaseID),
		)
	}

	f := &Firestore{
		client:    client,
		testCase:  &testCaseRepository{client: client},
		reference: &referenceRepository{client: client},
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) TestCase() interfaces.TestCaseRepository {
	return f.testCase
}

func (f *Firestore) Reference() interfaces.ReferenceRepository {
	return f.reference
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
