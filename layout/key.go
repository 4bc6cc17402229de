package layout

import (
	"github.com/quillvm/cellar"
	"github.com/quillvm/cellar/errors"
	"github.com/quillvm/cellar/layout/internal/fieldpath"
)

// KeyHashVersion identifies the automatic key derivation scheme. It is part
// of the wire-compatible contract: a different version remaps every stored
// cell.
const KeyHashVersion = fieldpath.HashVersion

// AllocateKey computes the storage key for one cell. A manual override is
// returned verbatim; otherwise the key is the versioned structural-path
// hash seeded with the allocating context's own key. The function is pure,
// so recompilation and independently built binaries derive identical keys.
func AllocateKey(parent cellar.StorageKey, path fieldpath.Path, manual *cellar.StorageKey) cellar.StorageKey {
	if manual != nil {
		return *manual
	}
	return cellar.StorageKey(fieldpath.Hash(uint32(parent), path))
}

// keyScope tracks the keys allocated within one composite scope (a struct,
// or a single enum variant) and detects collisions. Two variants of the
// same enum may reuse a key because only one variant is ever live.
type keyScope struct {
	owner string
	taken map[cellar.StorageKey]string
}

func newKeyScope(owner string) *keyScope {
	return &keyScope{owner: owner, taken: make(map[cellar.StorageKey]string)}
}

func (s *keyScope) claim(key cellar.StorageKey, field string, manual bool) *errors.Error {
	if prev, ok := s.taken[key]; ok {
		err := errors.ManualKeyCollision(s.owner, field, prev, key)
		if !manual {
			// Auto-derived keys collide only on a 32-bit hash collision
			// between sibling paths. Still fatal: two cells, one owner.
			err.Detail = "derived storage key " + key.String() + " collides with field " + prev
		}
		return err
	}
	s.taken[key] = field
	return nil
}
