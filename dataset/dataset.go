package dataset

import (
	"reflect"

	"github.com/wippyai/flatnest"
	"github.com/wippyai/flatnest/errors"
	"github.com/wippyai/flatnest/leaf"
	"github.com/wippyai/flatnest/nest"
)

// Create makes a dataset named name in g with v's shape and leaf type and
// writes v into it. Nothing is created when v cannot be flattened.
func Create(g flatnest.Group, name string, v any) (flatnest.Dataset, error) {
	buf, err := nest.Default().Serialize(v)
	if err != nil {
		return nil, err
	}
	defer buf.Release()

	ds, err := g.CreateDataset(name, buf.Leaf(), buf.Shape())
	if err != nil {
		return nil, err
	}
	if err := ds.WriteRaw(buf.Bytes()); err != nil {
		return nil, err
	}
	return ds, nil
}

// Write replaces the contents of ds with v. The shape and leaf type of v
// must match the dataset exactly.
func Write(ds flatnest.Dataset, v any) error {
	c := nest.Default()
	lt, err := c.LeafOf(reflect.TypeOf(v))
	if err != nil {
		return err
	}
	if lt != ds.Leaf() {
		return errors.TypeMismatch(errors.PhaseStorage, []string{ds.Name()},
			reflect.TypeOf(v).String(), ds.Leaf().String())
	}
	shape, err := c.ShapeOf(v)
	if err != nil {
		return err
	}
	if want := nest.Shape(ds.Shape()); !want.Equal(shape) {
		return errors.ShapeMismatch(errors.PhaseStorage, []string{ds.Name()}, want, shape)
	}

	buf, err := c.Serialize(v)
	if err != nil {
		return err
	}
	defer buf.Release()
	return ds.WriteRaw(buf.Bytes())
}

// Read loads ds into the value behind ptr, resizing its containers to the
// dataset's shape.
func Read(ds flatnest.Dataset, ptr any) error {
	c := nest.Default()
	t := reflect.TypeOf(ptr)
	if err := check(c, t, ds.Name(), ds.Leaf(), ds.Shape()); err != nil {
		return err
	}

	d, err := c.NewDeserializer(ptr, ds.Shape())
	if err != nil {
		return err
	}
	defer d.Close()
	if err := ds.ReadRaw(d.Data()); err != nil {
		return err
	}
	return d.Execute()
}

// Get reads ds into a new value of type T.
func Get[T any](ds flatnest.Dataset) (T, error) {
	var v T
	err := Read(ds, &v)
	return v, err
}

// check verifies a target type can hold data of the given leaf and shape.
func check(c *nest.Codec, t reflect.Type, name string, lt leaf.Type, shape []int) error {
	rank, err := c.RankOf(t)
	if err != nil {
		return err
	}
	if rank != len(shape) {
		return errors.RankMismatch(errors.PhaseStorage, t.String(), rank, len(shape))
	}
	got, err := c.LeafOf(t)
	if err != nil {
		return err
	}
	if got != lt {
		return errors.TypeMismatch(errors.PhaseStorage, []string{name}, t.String(), lt.String())
	}
	return nil
}
