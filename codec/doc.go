// Package codec implements the fixed-format compact binary primitives that
// packed storage encodings are built from.
//
// The wire format is little-endian throughout. Fixed-width integers and
// booleans encode to their natural width; variable-length sequences
// (strings, byte vectors, slices) carry a compact integer length prefix
// using the two-bit-mode scheme:
//
//	value < 2^6    1 byte    vvvvvv00
//	value < 2^14   2 bytes   vvvvvv01 vvvvvvvv
//	value < 2^30   4 bytes   vvvvvv10 ... (little-endian)
//	otherwise      5 bytes   00000011 followed by 4 LE bytes
//
// Writer and Reader are the only entry points. Both are deterministic:
// encoding the same value always produces the same bytes, and every
// encoding round-trips exactly. The layout package composes these
// primitives into full type codecs; nothing here knows about storage keys
// or packedness.
package codec
