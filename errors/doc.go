// Package errors provides structured error types for the flatnest library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes rich context: element path, Go/leaf type names, and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhasePrepare, errors.KindFixedSize).
//		Path("[2]").
//		GoType("[4]float32").
//		Detail("fixed length 4 cannot hold 5 elements").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.RankMismatch(errors.PhasePrepare, "[][4]float32", 2, 3)
//	err := errors.Ragged(errors.PhaseSerialize, path, 4, 3)
//
// Kind-only sentinels (ErrRagged, ErrFixedSize, ...) match any phase:
//
//	if errors.Is(err, flerrors.ErrFixedSize) { ... }
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
