package dataset

import (
	"strings"

	"github.com/wippyai/flatnest"
	"github.com/wippyai/flatnest/errors"
)

// WalkFunc is called for every dataset under the walked group. path joins
// group names and the dataset name with "/".
type WalkFunc func(path string, ds flatnest.Dataset) error

// Walk visits the datasets of g and then its subgroups, each in name order.
// It stops at the first error returned by fn.
func Walk(g flatnest.Group, fn WalkFunc) error {
	return walk(g, "", fn)
}

func walk(g flatnest.Group, prefix string, fn WalkFunc) error {
	for _, name := range g.Datasets() {
		ds, err := g.Dataset(name)
		if err != nil {
			return err
		}
		if err := fn(prefix+name, ds); err != nil {
			return err
		}
	}
	for _, name := range g.Groups() {
		child, err := g.Group(name)
		if err != nil {
			return err
		}
		if err := walk(child, prefix+name+"/", fn); err != nil {
			return err
		}
	}
	return nil
}

// Lookup resolves a "/"-separated path to a dataset without creating groups.
func Lookup(g flatnest.Group, path string) (flatnest.Dataset, error) {
	dir, name := splitPath(path)
	for _, part := range dir {
		if !g.HasGroup(part) {
			return nil, errors.NotFound(errors.PhaseStorage, "group", part)
		}
		child, err := g.Group(part)
		if err != nil {
			return nil, err
		}
		g = child
	}
	return g.Dataset(name)
}

func splitPath(path string) ([]string, string) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	return parts[:len(parts)-1], parts[len(parts)-1]
}
