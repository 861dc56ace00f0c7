package kvsessions

// Repo is a raw key-value view over session records. Values are stored as
// JSON bytes so readers can tolerate records written by older builds with
// slightly different shapes.
type Repo interface {
	// Put stores value under key, replacing any existing value
	Put(key string, value []byte) error

	// Get retrieves the raw value under key
	Get(key string) ([]byte, error)

	// Delete removes key; deleting an absent key is not an error
	Delete(key string) error
}
