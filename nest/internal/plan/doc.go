// Package plan holds the compiled description of a nested container type.
//
// A Plan is built once per Go type by the nest compiler and is immutable
// afterwards. It carries the static facts (rank, leaf type, fixed lengths,
// storage contiguity) and one Container adapter per level that performs
// the runtime operations.
//
// This package is internal to nest.
package plan
