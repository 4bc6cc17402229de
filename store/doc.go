// Package store provides the runtime side of derived storage layouts: cell
// accessors that encode values through a derived layout and read and write
// them against a byte-oriented key-value store.
//
// Two Store implementations are included. Memory keeps cells in a map and
// backs tests; Pebble persists them in an embedded Pebble database. Both
// sit behind the cellar.Store interface, so accessors never depend on a
// concrete backend.
//
// The layout resolver itself never touches a store. Accessors consume what
// it produces: a Cell pairs a derived layout with a Store and walks the
// layout's cell hints on Load and Store, so non-lazy cell fields are read
// and written at their derived keys transparently. Lazy cells stay
// untouched until LoadLazy or StoreLazy is called on them.
package store
