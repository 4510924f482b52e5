package flatnest

import "github.com/wippyai/flatnest/leaf"

// Attribute is a small named array attached to a group or dataset.
// Data holds the leaves little-endian in row-major order.
type Attribute struct {
	Name  string
	Leaf  leaf.Type
	Shape []int
	Data  []byte
}

// Attributes is implemented by every node of a store.
type Attributes interface {
	HasAttribute(name string) bool
	// AttributeNames returns the names in sorted order.
	AttributeNames() []string
	Attribute(name string) (Attribute, error)
	// SetAttribute creates or replaces an attribute. data is copied.
	SetAttribute(name string, lt leaf.Type, shape []int, data []byte) error
}

// Dataset is a named n-dimensional array of one leaf type.
type Dataset interface {
	Attributes
	Name() string
	Leaf() leaf.Type
	Shape() []int
	// ReadRaw fills dst, which must hold exactly the dataset's bytes.
	ReadRaw(dst []byte) error
	// WriteRaw replaces the dataset's bytes; src must match its size.
	WriteRaw(src []byte) error
}

// Group is a named container of groups and datasets.
type Group interface {
	Attributes
	Name() string
	HasGroup(name string) bool
	// Group opens the child group, creating it when missing.
	Group(name string) (Group, error)
	HasDataset(name string) bool
	Dataset(name string) (Dataset, error)
	// CreateDataset fails when name is already taken.
	CreateDataset(name string, lt leaf.Type, shape []int) (Dataset, error)
	// Groups and Datasets return child names in sorted order.
	Groups() []string
	Datasets() []string
}

// Store is the root group of a backend.
type Store interface {
	Group
	Close() error
}

// Allocator places payloads in a linear address space.
type Allocator interface {
	Alloc(size, align uint32) (uint32, error)
}
