package interfaces

// Repository defines the interface for data persistence
type Repository interface {
	TestCase() TestCaseRepository
	Reference() ReferenceRepository

	Close() error
}
