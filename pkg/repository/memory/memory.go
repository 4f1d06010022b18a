package memory

import (
	"sync"

	"github.com/casecraft-dev/casecraft/pkg/domain/interfaces"
	"github.com/casecraft-dev/casecraft/pkg/domain/model"
	"github.com/casecraft-dev/casecraft/pkg/domain/types"
)

// Memory is an in-memory repository for development and tests.
// Test cases and reference edges share one store so that cascade deletes
// are atomic with respect to readers.
type Memory struct {
	testCase  *testCaseRepository
	reference *referenceRepository
}

var _ interfaces.Repository = &Memory{}

// store holds all entities behind a single lock
type store struct {
	mu         sync.RWMutex
	testCases  map[types.TestCaseID]*model.TestCase
	references map[types.ReferenceID]*model.Reference
}

func New() *Memory {
	s := &store{
		testCases:  make(map[types.TestCaseID]*model.TestCase),
		references: make(map[types.ReferenceID]*model.Reference),
	}

	return &Memory{
		testCase:  &testCaseRepository{store: s},
		reference: &referenceRepository{store: s},
	}
}

func (m *Memory) TestCase() interfaces.TestCaseRepository {
	return m.testCase
}

func (m *Memory) Reference() interfaces.ReferenceRepository {
	return m.reference
}

func (m *Memory) Close() error {
	return nil
}

// pairKey is the canonical unordered (source, target) pair used for the
// uniqueness constraint
type pairKey struct {
	lo, hi types.TestCaseID
}

func newPairKey(a, b types.TestCaseID) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{lo: a, hi: b}
}

// hasPair reports whether any edge already links the unordered pair.
// Caller must hold at least a read lock.
func (s *store) hasPair(key pairKey) bool {
	for _, ref := range s.references {
		if newPairKey(ref.SourceID, ref.TargetID) == key {
			return true
		}
	}
	return false
}
