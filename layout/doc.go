// Package layout resolves how a Go type is physically stored in a
// key-value store.
//
// # Resolution Pipeline
//
// A type moves through three phases, driven by the Deriver:
//
//	Describe   reflect.Type -> TypeDescriptor (immutable, cached)
//	Classify   TypeDescriptor -> Packed | NonPacked (cached, fail-closed)
//	Resolve    per-field storable hints: Inline(offset) or Cell(key)
//
// The output is a Derived bundle: classification, ordered hints, and the
// generated encode/decode pair for the inline portion.
//
// # Packedness Rules
//
//	Type                      Packedness
//	──────────────────────────────────────────────
//	bool, fixed-width ints    packed
//	string, [N]byte           packed
//	[N]T, []T, map[K]V, *T    packed iff T (and K) packed; non-packed
//	                          elements are rejected outright
//	struct, enum              packed iff all fields packed and no
//	                          manual keys
//	Lazy[T]                   non-packed; cell boundary
//
// Containers and options fail closed: a slice, map or pointer whose
// element type owns storage cells has no per-element hint to derive those
// cells from, so classification rejects it with illegal_container_nesting
// instead of allowing a non-packed element.
//
// # Key Derivation
//
// Every cell key is a pure function of (parent key, structural path,
// manual override):
//
//	key = manual                         if an override is declared
//	key = xxh64(parent || path)[:4]      otherwise
//
// Paths are "Type::field" chains with enum variant names interleaved, so
// identically named fields of different variants never collide. Nested
// cells derive from their immediate container's key, not the root, so
// relocating a sub-structure does not renumber unrelated siblings. The
// scheme is versioned by KeyHashVersion; changing it silently would remap
// every stored cell.
//
// # Manual Keys
//
// A field tagged `cellar:"key=0x00c0ffee"` stores its value in a cell at
// exactly that key, bypassing derivation. Two fields in one scope claiming
// the same key is a compile-time manual_key_collision.
//
// # Enums
//
// Go has no sum types; an enum is a struct implementing EnumMarker whose
// exported fields are pointers to variant payload structs, exactly one of
// which is non-nil. The discriminant is the declaration position and is
// the first byte of the encoding.
//
// # Recursion
//
// A type that reaches itself with no intervening cell boundary has no
// finite layout and is rejected with infinite_layout. Lazy[T] is the
// boundary construct: it owns a cell, contributes no inline bytes, and
// stops classification from recursing into T.
//
// # Determinism and Concurrency
//
// Resolution is a pure function of type structure. Descriptors, hints and
// Derived values are immutable after construction; the Deriver and its
// registry are safe for concurrent use, and each type resolves exactly
// once.
package layout
