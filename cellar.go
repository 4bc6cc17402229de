package cellar

import "fmt"

// StorageKey addresses one storage cell within a contract's key space.
// Keys are 32-bit and derived deterministically from the cell's structural
// path; see the layout package.
type StorageKey uint32

// RootKey is the well-known key of a top-level storage layout.
const RootKey StorageKey = 0

// String renders the key in the fixed-width hex form used by layout
// metadata, e.g. "0x00c0ffee".
func (k StorageKey) String() string {
	return fmt.Sprintf("0x%08x", uint32(k))
}

// Store is the byte-oriented key-value store that holds cell encodings.
// The layout resolver never calls a Store itself; it derives the keys that
// runtime accessors use against one.
type Store interface {
	// Get returns the bytes stored under key, or ok=false if the cell is empty.
	Get(key StorageKey) (value []byte, ok bool, err error)
	// Set stores value under key, replacing any previous encoding.
	Set(key StorageKey, value []byte) error
	// Remove clears the cell under key. Removing an empty cell is not an error.
	Remove(key StorageKey) error
}
