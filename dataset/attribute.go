package dataset

import (
	"reflect"

	"github.com/wippyai/flatnest"
	"github.com/wippyai/flatnest/nest"
)

// SetAttribute stores v under name, replacing any previous value.
func SetAttribute(a flatnest.Attributes, name string, v any) error {
	buf, err := nest.Default().Serialize(v)
	if err != nil {
		return err
	}
	defer buf.Release()
	return a.SetAttribute(name, buf.Leaf(), buf.Shape(), buf.Bytes())
}

// GetAttribute loads the attribute name into the value behind ptr.
func GetAttribute(a flatnest.Attributes, name string, ptr any) error {
	attr, err := a.Attribute(name)
	if err != nil {
		return err
	}
	c := nest.Default()
	if err := check(c, reflect.TypeOf(ptr), name, attr.Leaf, attr.Shape); err != nil {
		return err
	}
	if err := c.Prepare(ptr, attr.Shape); err != nil {
		return err
	}
	return c.Deserialize(ptr, attr.Data)
}

// Attribute reads the attribute name as a T.
func Attribute[T any](a flatnest.Attributes, name string) (T, error) {
	var v T
	err := GetAttribute(a, name, &v)
	return v, err
}
