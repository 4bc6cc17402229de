// Package errors provides structured error types for the cellar library.
//
// Errors are categorized by Phase (where in layout resolution the error
// occurred) and Kind (error category). The Error type includes the failing
// type and field, a cause chain, and a list of Frames recording every
// enclosing composite between the innermost failure and the top-level
// declaration. Frames render as trailing notes:
//
//	[check] illegal_container_nesting at Ledger.balances: container
//	map[uint32]Account holds non-packed value type Account
//	  note: required by Ledger.balances: container values must be packed
//	  note: required by Contract.ledger: storage layout derivation
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseClassify, errors.KindTypeMismatch).
//		Type("Ledger").
//		Field("balances").
//		Detail("cannot classify map value").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.IllegalContainerNesting("Ledger", "map[uint32]Account", "Account")
//	err := errors.OutOfBounds(errors.PhaseDecode, 10, 5)
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
