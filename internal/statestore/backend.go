package statestore

import "errors"

// Backend errors.
var (
	// ErrNotFound is returned by Get when the key has no live entry.
	ErrNotFound = errors.New("state entry not found")

	// ErrEntryTooLarge is returned by Set when the payload exceeds the
	// backend's per-entry quota.
	ErrEntryTooLarge = errors.New("state entry exceeds size quota")

	// ErrInvalidKey is returned for an empty key.
	ErrInvalidKey = errors.New("state key cannot be empty")
)

// Backend is a key-value store for serialized session state. Implementations
// must be safe for concurrent use.
type Backend interface {
	// Get returns the payload stored under key, or ErrNotFound.
	Get(key string) ([]byte, error)
	// Set stores data under key, replacing any previous payload.
	Set(key string, data []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
}
