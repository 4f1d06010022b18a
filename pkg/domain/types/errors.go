package types

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors shared across repository backends and use cases.
// Compare with errors.Is.
var (
	// ErrNotFound indicates a referenced entity does not exist
	ErrNotFound = goerr.New("not found")

	// ErrReferenceExists indicates the unordered (source, target) pair is
	// already linked, regardless of reference type
	ErrReferenceExists = goerr.New("reference already exists")
)
