// Package dataset reads and writes nested Go values as datasets and
// attributes of any flatnest store.
//
// Shapes and leaf types come from the value itself:
//
//	grid := [][]float64{{1, 2}, {3, 4}}
//	ds, err := dataset.Create(f, "grid", grid)
//	...
//	back, err := dataset.Get[[][]float64](ds)
//
// Writes require the value to match the dataset's shape and leaf type.
// Reads resize slices and lists of the target to the stored shape.
package dataset
