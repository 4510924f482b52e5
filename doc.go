// Package flatnest stores nested numeric Go values as flat n-dimensional
// datasets.
//
// # Architecture Overview
//
// The module is organized into several packages with distinct responsibilities:
//
//	flatnest/            Root package with the storage interfaces
//	├── leaf/            Fixed table of numeric leaf types
//	├── nest/            Shape inference, flattening and reconstruction
//	├── dataset/         Typed reads and writes over any Store
//	├── storage/
//	│   ├── memstore/    In-memory tree
//	│   ├── filestore/   Single-file persistent store
//	│   └── wasmstore/   Payloads in WebAssembly linear memory
//	├── errors/          Structured error types for debugging
//	└── cmd/nestctl/     Command line inspector
//
// # Quick Start
//
//	f, err := filestore.Open("grid.fnst", filestore.Default)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer f.Close()
//
//	grid := [][4]float32{{1, 2, 3, 4}, {5, 6, 7, 8}}
//	ds, err := dataset.Create(f, "grid", grid)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	back, err := dataset.Get[[][4]float32](ds)
//
// # Data Model
//
// A dataset has a leaf type and a shape. Its bytes are the leaves in
// row-major order, little-endian. Backends see only that triple; package
// nest maps it to and from nested Go values such as [][4]float32,
// [2][]int16 or nest.List[[]float64].
//
// # Thread Safety
//
// Stores are safe for concurrent use. Values passed to dataset and nest
// functions must not be modified during the call.
package flatnest
