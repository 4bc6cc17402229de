package fieldpath

import (
	"encoding/binary"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// HashVersion identifies the key derivation scheme. Any change to Hash or
// to path construction remaps every stored cell and must bump this.
const HashVersion = 1

// Path is a structural field path: type name, then field names, with enum
// variant names in between. The path is part of the wire contract; renaming
// a field moves its cell.
type Path struct {
	segments []string
}

// Root returns the path of a type declaration itself.
func Root(typeName string) Path {
	return Path{segments: []string{typeName}}
}

// Field returns p extended by a named field.
func (p Path) Field(name string) Path {
	return p.push(name)
}

// Variant returns p extended by an enum variant discriminant. Including the
// variant name keeps identically named fields of different variants on
// distinct paths.
func (p Path) Variant(name string) Path {
	return p.push(name)
}

func (p Path) push(seg string) Path {
	next := make([]string, len(p.segments)+1)
	copy(next, p.segments)
	next[len(p.segments)] = seg
	return Path{segments: next}
}

// String renders the path in the canonical "Type::field" form that Hash
// consumes.
func (p Path) String() string {
	return strings.Join(p.segments, "::")
}

// Hash derives a 32-bit key from the parent cell key and the path. XXH64
// is seeded with the parent key bytes so sibling subtrees with equal
// relative paths still land on distinct keys; the digest is truncated to
// the 32-bit key width.
func Hash(parent uint32, p Path) uint32 {
	var seed [4]byte
	binary.LittleEndian.PutUint32(seed[:], parent)

	d := xxhash.New()
	d.Write(seed[:])
	d.WriteString(p.String())
	return uint32(d.Sum64())
}
