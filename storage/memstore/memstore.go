package memstore

import (
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/wippyai/flatnest"
	"github.com/wippyai/flatnest/errors"
	"github.com/wippyai/flatnest/leaf"
	"github.com/wippyai/flatnest/nest"
)

// Payload holds the bytes of one dataset.
type Payload interface {
	Len() int
	// ReadAt copies the payload into dst; len(dst) == Len().
	ReadAt(dst []byte) error
	// WriteAt replaces the payload with src; len(src) == Len().
	WriteAt(src []byte) error
}

// PayloadFunc allocates a zeroed payload of size bytes for a dataset.
type PayloadFunc func(lt leaf.Type, size int) (Payload, error)

// Config holds store options.
type Config struct {
	// Payloads allocates dataset storage. Defaults to heap byte slices.
	Payloads PayloadFunc
}

// Store is an in-memory tree of groups, datasets and attributes.
// All nodes of one store share a single lock.
type Store struct {
	*group
}

var _ flatnest.Store = (*Store)(nil)

type tree struct {
	mu       sync.RWMutex
	payloads PayloadFunc
	closed   bool
}

func New() *Store {
	return NewWithConfig(nil)
}

func NewWithConfig(cfg *Config) *Store {
	if cfg == nil {
		cfg = &Config{}
	}
	t := &tree{payloads: cfg.Payloads}
	if t.payloads == nil {
		t.payloads = heapPayload
	}
	return &Store{group: newGroup(t, "/")}
}

// Close marks the store closed. Later calls fail with errors.ErrClosed.
func (s *Store) Close() error {
	s.t.mu.Lock()
	defer s.t.mu.Unlock()
	s.t.closed = true
	return nil
}

func (t *tree) check() error {
	if t.closed {
		return errors.Closed(errors.PhaseStorage, "store")
	}
	return nil
}

func validName(what, name string) error {
	if name == "" || strings.Contains(name, "/") {
		return errors.New(errors.PhaseStorage, errors.KindInvalidInput).
			Detail("invalid %s name %q", what, name).
			Build()
	}
	return nil
}

type attrs struct {
	t     *tree
	items map[string]flatnest.Attribute
}

func (a *attrs) HasAttribute(name string) bool {
	a.t.mu.RLock()
	defer a.t.mu.RUnlock()
	_, ok := a.items[name]
	return ok
}

func (a *attrs) AttributeNames() []string {
	a.t.mu.RLock()
	defer a.t.mu.RUnlock()
	return slices.Sorted(maps.Keys(a.items))
}

func (a *attrs) Attribute(name string) (flatnest.Attribute, error) {
	a.t.mu.RLock()
	defer a.t.mu.RUnlock()
	if err := a.t.check(); err != nil {
		return flatnest.Attribute{}, err
	}
	attr, ok := a.items[name]
	if !ok {
		return flatnest.Attribute{}, errors.NotFound(errors.PhaseStorage, "attribute", name)
	}
	attr.Shape = slices.Clone(attr.Shape)
	attr.Data = slices.Clone(attr.Data)
	return attr, nil
}

func (a *attrs) SetAttribute(name string, lt leaf.Type, shape []int, data []byte) error {
	if err := validName("attribute", name); err != nil {
		return err
	}
	want, err := rawSize(lt, shape)
	if err != nil {
		return err
	}
	if len(data) != want {
		return errors.BufferSize(errors.PhaseStorage, want, len(data))
	}
	a.t.mu.Lock()
	defer a.t.mu.Unlock()
	if err := a.t.check(); err != nil {
		return err
	}
	a.items[name] = flatnest.Attribute{
		Name:  name,
		Leaf:  lt,
		Shape: slices.Clone(shape),
		Data:  slices.Clone(data),
	}
	return nil
}

// group is one node of the tree.
type group struct {
	attrs
	name     string
	groups   map[string]*group
	datasets map[string]*Dataset
}

var _ flatnest.Group = (*group)(nil)

func newGroup(t *tree, name string) *group {
	return &group{
		attrs:    attrs{t: t, items: map[string]flatnest.Attribute{}},
		name:     name,
		groups:   map[string]*group{},
		datasets: map[string]*Dataset{},
	}
}

func (g *group) Name() string { return g.name }

func (g *group) HasGroup(name string) bool {
	g.t.mu.RLock()
	defer g.t.mu.RUnlock()
	_, ok := g.groups[name]
	return ok
}

func (g *group) Group(name string) (flatnest.Group, error) {
	if err := validName("group", name); err != nil {
		return nil, err
	}
	g.t.mu.Lock()
	defer g.t.mu.Unlock()
	if err := g.t.check(); err != nil {
		return nil, err
	}
	if child, ok := g.groups[name]; ok {
		return child, nil
	}
	if _, ok := g.datasets[name]; ok {
		return nil, errors.Exists(errors.PhaseStorage, "dataset", name)
	}
	child := newGroup(g.t, name)
	g.groups[name] = child
	return child, nil
}

func (g *group) HasDataset(name string) bool {
	g.t.mu.RLock()
	defer g.t.mu.RUnlock()
	_, ok := g.datasets[name]
	return ok
}

func (g *group) Dataset(name string) (flatnest.Dataset, error) {
	g.t.mu.RLock()
	defer g.t.mu.RUnlock()
	if err := g.t.check(); err != nil {
		return nil, err
	}
	ds, ok := g.datasets[name]
	if !ok {
		return nil, errors.NotFound(errors.PhaseStorage, "dataset", name)
	}
	return ds, nil
}

func (g *group) CreateDataset(name string, lt leaf.Type, shape []int) (flatnest.Dataset, error) {
	if err := validName("dataset", name); err != nil {
		return nil, err
	}
	if lt.IsZero() {
		return nil, errors.InvalidInput(errors.PhaseStorage, "dataset needs a leaf type")
	}
	size, err := rawSize(lt, shape)
	if err != nil {
		return nil, err
	}

	g.t.mu.Lock()
	defer g.t.mu.Unlock()
	if err := g.t.check(); err != nil {
		return nil, err
	}
	if _, ok := g.datasets[name]; ok {
		return nil, errors.Exists(errors.PhaseStorage, "dataset", name)
	}
	if _, ok := g.groups[name]; ok {
		return nil, errors.Exists(errors.PhaseStorage, "group", name)
	}

	p, err := g.t.payloads(lt, size)
	if err != nil {
		return nil, err
	}
	ds := &Dataset{
		attrs:   attrs{t: g.t, items: map[string]flatnest.Attribute{}},
		name:    name,
		leaf:    lt,
		shape:   slices.Clone(shape),
		payload: p,
	}
	g.datasets[name] = ds
	return ds, nil
}

func (g *group) Groups() []string {
	g.t.mu.RLock()
	defer g.t.mu.RUnlock()
	return slices.Sorted(maps.Keys(g.groups))
}

func (g *group) Datasets() []string {
	g.t.mu.RLock()
	defer g.t.mu.RUnlock()
	return slices.Sorted(maps.Keys(g.datasets))
}

// Dataset is a leaf node of the tree.
type Dataset struct {
	attrs
	name    string
	leaf    leaf.Type
	shape   []int
	payload Payload
}

var _ flatnest.Dataset = (*Dataset)(nil)

func (d *Dataset) Name() string     { return d.name }
func (d *Dataset) Leaf() leaf.Type  { return d.leaf }
func (d *Dataset) Shape() []int     { return slices.Clone(d.shape) }
func (d *Dataset) Payload() Payload { return d.payload }
func (d *Dataset) Size() int        { return d.payload.Len() }

func (d *Dataset) ReadRaw(dst []byte) error {
	d.t.mu.RLock()
	defer d.t.mu.RUnlock()
	if err := d.t.check(); err != nil {
		return err
	}
	if len(dst) != d.payload.Len() {
		return errors.BufferSize(errors.PhaseStorage, d.payload.Len(), len(dst))
	}
	return d.payload.ReadAt(dst)
}

func (d *Dataset) WriteRaw(src []byte) error {
	d.t.mu.Lock()
	defer d.t.mu.Unlock()
	if err := d.t.check(); err != nil {
		return err
	}
	if len(src) != d.payload.Len() {
		return errors.BufferSize(errors.PhaseStorage, d.payload.Len(), len(src))
	}
	return d.payload.WriteAt(src)
}

// rawSize is the payload length of shape, rejecting negative extents and
// shapes whose byte count does not fit in an int.
func rawSize(lt leaf.Type, shape []int) (int, error) {
	for _, d := range shape {
		if d < 0 {
			return 0, errors.InvalidInput(errors.PhaseStorage, "negative extent in "+nest.Shape(shape).String())
		}
	}
	n, ok := nest.Shape(shape).ByteSize(int(lt.Size))
	if !ok {
		return 0, errors.InvalidInput(errors.PhaseStorage, "payload size of "+nest.Shape(shape).String()+" overflows int")
	}
	return n, nil
}

type bytesPayload []byte

func heapPayload(_ leaf.Type, size int) (Payload, error) {
	return bytesPayload(make([]byte, size)), nil
}

func (b bytesPayload) Len() int { return len(b) }

func (b bytesPayload) ReadAt(dst []byte) error {
	copy(dst, b)
	return nil
}

func (b bytesPayload) WriteAt(src []byte) error {
	copy(b, src)
	return nil
}
