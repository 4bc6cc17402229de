// Package metadata renders resolved storage layouts as JSON documents in
// the contract metadata format: struct layouts with named field cells, enum
// layouts keyed by dispatch key with per-discriminant variant layouts, and
// storage keys in fixed-width hex. The documents are consumed by external
// tooling to audit a contract's storage footprint and to diff layouts
// across upgrades.
package metadata
