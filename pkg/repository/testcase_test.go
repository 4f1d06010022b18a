package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/casecraft-dev/casecraft/pkg/domain/interfaces"
	"github.com/casecraft-dev/casecraft/pkg/domain/model"
	"github.com/casecraft-dev/casecraft/pkg/domain/types"
	"github.com/casecraft-dev/casecraft/pkg/repository/firestore"
	"github.com/casecraft-dev/casecraft/pkg/repository/memory"
)

func sampleTestCase(name string) *model.TestCase {
	return &model.TestCase{
		Name:        name,
		Description: "Verify that a registered user can log in",
		Type:        types.CaseTypePositive,
		Priority:    types.PriorityHigh,
		Steps: []model.Step{
			{Action: "Open the login page", ExpectedResult: "Login form is displayed"},
			{Action: "Submit valid credentials", ExpectedResult: "User is redirected to the dashboard"},
		},
		ExpectedResult: "User is authenticated",
		Tags:           []string{"auth", "login"},
	}
}

func fullEmbedding(lead float32) []float32 {
	v := make([]float32, model.EmbeddingDimension)
	v[0] = lead
	for i := 1; i < len(v); i++ {
		v[i] = float32(i) / float32(model.EmbeddingDimension)
	}
	return v
}

func runTestCaseRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Create assigns ID and timestamps", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.TestCase().Create(ctx, sampleTestCase("Login with valid credentials"))
		if err != nil {
			t.Fatalf("failed to create test case: %v", err)
		}

		if created.ID == "" {
			t.Error("expected non-empty ID")
		}
		if err := created.ID.Validate(); err != nil {
			t.Errorf("expected valid ID format, got %s: %v", created.ID, err)
		}
		if created.CreatedAt.IsZero() {
			t.Error("expected non-zero CreatedAt")
		}
		if created.UpdatedAt.IsZero() {
			t.Error("expected non-zero UpdatedAt")
		}
		if created.Name != "Login with valid credentials" {
			t.Errorf("expected name to be preserved, got %s", created.Name)
		}
		if len(created.Steps) != 2 {
			t.Errorf("expected 2 steps, got %d", len(created.Steps))
		}
	})

	t.Run("Create with provided ID preserves it", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		customID := types.NewTestCaseID()
		tc := sampleTestCase("Custom ID case")
		tc.ID = customID

		created, err := repo.TestCase().Create(ctx, tc)
		if err != nil {
			t.Fatalf("failed to create test case: %v", err)
		}

		if created.ID != customID {
			t.Errorf("expected ID=%s, got %s", customID, created.ID)
		}
	})

	t.Run("Get roundtrips the embedding", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		tc := sampleTestCase("Embedded case")
		tc.Embedding = fullEmbedding(0.5)

		created, err := repo.TestCase().Create(ctx, tc)
		if err != nil {
			t.Fatalf("failed to create test case: %v", err)
		}

		retrieved, err := repo.TestCase().Get(ctx, created.ID)
		if err != nil {
			t.Fatalf("failed to get test case: %v", err)
		}

		if len(retrieved.Embedding) != model.EmbeddingDimension {
			t.Fatalf("expected embedding length=%d, got %d", model.EmbeddingDimension, len(retrieved.Embedding))
		}
		if retrieved.Embedding[0] != 0.5 {
			t.Errorf("expected first embedding value=0.5, got %f", retrieved.Embedding[0])
		}
		if !retrieved.HasEmbedding() {
			t.Error("expected HasEmbedding to be true")
		}
	})

	t.Run("Get returns ErrNotFound for unknown ID", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.TestCase().Get(ctx, types.NewTestCaseID())
		if !errors.Is(err, types.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("List returns cases oldest first", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		var ids []types.TestCaseID
		for i := 0; i < 3; i++ {
			created, err := repo.TestCase().Create(ctx, sampleTestCase(fmt.Sprintf("Ordered case %d", i)))
			if err != nil {
				t.Fatalf("failed to create test case: %v", err)
			}
			ids = append(ids, created.ID)
			time.Sleep(10 * time.Millisecond)
		}

		listed, err := repo.TestCase().List(ctx)
		if err != nil {
			t.Fatalf("failed to list test cases: %v", err)
		}
		if len(listed) != 3 {
			t.Fatalf("expected 3 test cases, got %d", len(listed))
		}
		for i, tc := range listed {
			if tc.ID != ids[i] {
				t.Errorf("expected position %d to be %s, got %s", i, ids[i], tc.ID)
			}
		}
	})

	t.Run("Update replaces fields and preserves CreatedAt", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		created, err := repo.TestCase().Create(ctx, sampleTestCase("Original name"))
		if err != nil {
			t.Fatalf("failed to create test case: %v", err)
		}

		time.Sleep(10 * time.Millisecond)

		modified := created.Clone()
		modified.Name = "Renamed case"
		modified.Priority = types.PriorityLow
		modified.Tags = []string{"renamed"}

		updated, err := repo.TestCase().Update(ctx, modified)
		if err != nil {
			t.Fatalf("failed to update test case: %v", err)
		}

		if updated.Name != "Renamed case" {
			t.Errorf("expected updated name, got %s", updated.Name)
		}
		if updated.Priority != types.PriorityLow {
			t.Errorf("expected updated priority, got %s", updated.Priority)
		}
		if !updated.CreatedAt.Equal(created.CreatedAt) {
			t.Errorf("expected CreatedAt to be preserved: %v != %v", updated.CreatedAt, created.CreatedAt)
		}
		if !updated.UpdatedAt.After(created.UpdatedAt) {
			t.Errorf("expected UpdatedAt to advance: %v <= %v", updated.UpdatedAt, created.UpdatedAt)
		}
	})

	t.Run("Update returns ErrNotFound for unknown ID", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		tc := sampleTestCase("Ghost case")
		tc.ID = types.NewTestCaseID()

		_, err := repo.TestCase().Update(ctx, tc)
		if !errors.Is(err, types.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Delete cascades to edges in both directions", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		center, err := repo.TestCase().Create(ctx, sampleTestCase("Center case"))
		if err != nil {
			t.Fatalf("failed to create test case: %v", err)
		}
		left, err := repo.TestCase().Create(ctx, sampleTestCase("Left neighbor"))
		if err != nil {
			t.Fatalf("failed to create test case: %v", err)
		}
		right, err := repo.TestCase().Create(ctx, sampleTestCase("Right neighbor"))
		if err != nil {
			t.Fatalf("failed to create test case: %v", err)
		}

		if _, err := repo.Reference().Create(ctx, &model.Reference{
			SourceID: center.ID, TargetID: right.ID, Type: types.ReferenceTypeManual,
		}); err != nil {
			t.Fatalf("failed to create outgoing edge: %v", err)
		}
		if _, err := repo.Reference().Create(ctx, &model.Reference{
			SourceID: left.ID, TargetID: center.ID, Type: types.ReferenceTypeManual,
		}); err != nil {
			t.Fatalf("failed to create incoming edge: %v", err)
		}

		if err := repo.TestCase().Delete(ctx, center.ID); err != nil {
			t.Fatalf("failed to delete test case: %v", err)
		}

		if _, err := repo.TestCase().Get(ctx, center.ID); !errors.Is(err, types.ErrNotFound) {
			t.Errorf("expected deleted case to be gone, got %v", err)
		}

		leftCounts, err := repo.Reference().Counts(ctx, left.ID)
		if err != nil {
			t.Fatalf("failed to count references: %v", err)
		}
		if leftCounts.Outgoing != 0 || leftCounts.Incoming != 0 {
			t.Errorf("expected left neighbor to have no edges, got %+v", leftCounts)
		}

		rightCounts, err := repo.Reference().Counts(ctx, right.ID)
		if err != nil {
			t.Fatalf("failed to count references: %v", err)
		}
		if rightCounts.Outgoing != 0 || rightCounts.Incoming != 0 {
			t.Errorf("expected right neighbor to have no edges, got %+v", rightCounts)
		}

		// The pair is free again after the cascade
		recreated, err := repo.TestCase().Create(ctx, sampleTestCase("Center case again"))
		if err != nil {
			t.Fatalf("failed to recreate test case: %v", err)
		}
		if _, err := repo.Reference().Create(ctx, &model.Reference{
			SourceID: left.ID, TargetID: recreated.ID, Type: types.ReferenceTypeManual,
		}); err != nil {
			t.Errorf("expected new edge after cascade, got %v", err)
		}
	})

	t.Run("Delete returns ErrNotFound for unknown ID", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		err := repo.TestCase().Delete(ctx, types.NewTestCaseID())
		if !errors.Is(err, types.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ListEmbedded filters out cases without vectors", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		embedded := sampleTestCase("Embedded case")
		embedded.Embedding = fullEmbedding(1)
		created, err := repo.TestCase().Create(ctx, embedded)
		if err != nil {
			t.Fatalf("failed to create test case: %v", err)
		}
		if _, err := repo.TestCase().Create(ctx, sampleTestCase("Plain case")); err != nil {
			t.Fatalf("failed to create test case: %v", err)
		}

		listed, err := repo.TestCase().ListEmbedded(ctx)
		if err != nil {
			t.Fatalf("failed to list embedded test cases: %v", err)
		}
		if len(listed) != 1 {
			t.Fatalf("expected 1 embedded test case, got %d", len(listed))
		}
		if listed[0].ID != created.ID {
			t.Errorf("expected %s, got %s", created.ID, listed[0].ID)
		}
	})

	t.Run("Count and CountEmbedded", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		embedded := sampleTestCase("Embedded case")
		embedded.Embedding = fullEmbedding(1)
		if _, err := repo.TestCase().Create(ctx, embedded); err != nil {
			t.Fatalf("failed to create test case: %v", err)
		}
		if _, err := repo.TestCase().Create(ctx, sampleTestCase("Plain case")); err != nil {
			t.Fatalf("failed to create test case: %v", err)
		}

		total, err := repo.TestCase().Count(ctx)
		if err != nil {
			t.Fatalf("failed to count test cases: %v", err)
		}
		if total != 2 {
			t.Errorf("expected total=2, got %d", total)
		}

		withVector, err := repo.TestCase().CountEmbedded(ctx)
		if err != nil {
			t.Fatalf("failed to count embedded test cases: %v", err)
		}
		if withVector != 1 {
			t.Errorf("expected embedded=1, got %d", withVector)
		}
	})
}

func newFirestoreRepository(t *testing.T) interfaces.Repository {
	t.Helper()

	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	if projectID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID not set")
	}

	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")
	if databaseID == "" {
		t.Skip("TEST_FIRESTORE_DATABASE_ID not set")
	}

	ctx := context.Background()
	prefix := fmt.Sprintf("test_%d", time.Now().UnixNano())
	repo, err := firestore.New(ctx, projectID, databaseID, firestore.WithCollectionPrefix(prefix))
	if err != nil {
		t.Fatalf("failed to create firestore repository: %v", err)
	}
	t.Cleanup(func() {
		if err := repo.Close(); err != nil {
			t.Errorf("failed to close firestore repository: %v", err)
		}
	})
	return repo
}

func TestMemoryTestCaseRepository(t *testing.T) {
	runTestCaseRepositoryTest(t, func(t *testing.T) interfaces.Repository {
		return memory.New()
	})
}

func TestFirestoreTestCaseRepository(t *testing.T) {
	runTestCaseRepositoryTest(t, newFirestoreRepository)
}
