package main

import (
	"fmt"
	"io"

	"github.com/wippyai/flatnest/dataset"
	"github.com/wippyai/flatnest/nest"
	"github.com/wippyai/flatnest/storage/filestore"
)

// runDemo writes a grid in the containers the codec supports: a slice of
// arrays, an empty slice, a fixed array and a list of lists filled from a
// flat buffer.
func runDemo(w io.Writer, path string) error {
	f, err := filestore.Open(path, filestore.Truncate)
	if err != nil {
		return err
	}
	defer f.Close()

	grid := make([][4]float32, 5)
	for i := range grid {
		for j := range grid[i] {
			grid[i][j] = float32(1 + i*j)
		}
	}

	g, err := f.Group("demo")
	if err != nil {
		return err
	}
	if _, err := dataset.Create(g, "grid", grid); err != nil {
		return err
	}
	if _, err := dataset.Create(g, "empty", [][4]float32{}); err != nil {
		return err
	}
	arr := [4]float32{1, 2, 3, 4}
	if _, err := dataset.Create(g, "array", &arr); err != nil {
		return err
	}

	buf, err := nest.Serialize(grid)
	if err != nil {
		return err
	}
	defer buf.Release()
	var rows nest.List[nest.List[float32]]
	if err := nest.DeserializeBuffer(&rows, buf); err != nil {
		return err
	}
	ds, err := dataset.Create(g, "list", &rows)
	if err != nil {
		return err
	}
	if err := dataset.SetAttribute(ds, "rows", uint32(rows.Len())); err != nil {
		return err
	}

	if err := dataset.SetAttribute(f, "version", uint16(1)); err != nil {
		return err
	}
	if err := dataset.SetAttribute(g, "origin", [2]float64{0.5, -0.5}); err != nil {
		return err
	}

	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(w, "wrote %s\n", path)
	return nil
}
