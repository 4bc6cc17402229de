// Package cellar resolves storage layouts for Go types destined for a
// persistent key-value store.
//
// Given a user type, cellar decides how every field is physically stored:
// inlined into its parent's encoded bytes ("packed") or split into its own
// addressable storage cell. It assigns each cell a deterministic 32-bit key,
// and generates the binary encode/decode logic for the packed portions. All
// layout decisions are made up front, before any store access, and illegal
// layouts are rejected with a diagnostic chain that walks from the innermost
// failing type to the top-level declaration.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct responsibilities:
//
//	cellar/              Root package with the StorageKey type and Store interface
//	├── layout/          Packedness classification, key allocation, hint resolution
//	├── codec/           Little-endian, compact-length-prefixed binary primitives
//	├── metadata/        JSON layout reports for tooling
//	├── store/           In-memory and Pebble-backed stores, typed cell accessors
//	└── errors/          Structured error types with derivation-chain frames
//
// # Quick Start
//
// Derive a layout and round-trip a value through a store:
//
//	type Flipper struct {
//		Value   bool
//		Version uint32 `cellar:"key=0x00c0ffee"`
//	}
//
//	d := layout.NewDeriver(layout.Options{})
//	derived, err := d.DeriveType(reflect.TypeOf(Flipper{}))
//	if err != nil {
//		// err carries the full derivation chain
//	}
//
//	s := store.NewMemory()
//	cell, _ := store.NewCell[Flipper](s, store.CellOptions{Deriver: d})
//	_ = cell.Store(Flipper{Value: true, Version: 1})
//	v, _ := cell.Load()
//
// # Packedness
//
// A type is Packed when its full encoding is contiguous bytes with no
// independently addressable storage cells. Scalars, strings, fixed-size
// byte arrays, and composites of packed types are packed. A field with a
// manual key override, or a layout.Lazy boundary, owns its own cell and
// makes the enclosing composite non-packed.
//
// # Determinism
//
// Key allocation is a pure function of (parent key, structural field path,
// manual override). Deriving the same type definition twice, in the same
// process or across independent builds, yields identical keys, so stored
// data survives recompilation and contract upgrades.
package cellar
