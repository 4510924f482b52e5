package nest

import (
	"reflect"
	"strconv"
	"sync"
	"unsafe"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/wippyai/flatnest/errors"
	"github.com/wippyai/flatnest/leaf"
	"github.com/wippyai/flatnest/nest/internal/plan"
)

// Config holds codec options. The zero value is the default configuration.
type Config struct {
	// Logger receives debug events. Defaults to the package logger.
	Logger *zap.Logger
	// Registerer, when set, receives the codec's counters.
	Registerer prometheus.Registerer
	// AllowRagged relaxes the sibling check of the copying serializer:
	// siblings shorter than the inferred extent are zero padded, longer ones
	// fail with an out-of-bounds error. By default any sibling whose count
	// differs from the inferred extent fails with a ragged error.
	AllowRagged bool
	// MaxAlloc caps the bytes Prepare may allocate for any one level of
	// the target. Zero means DefaultMaxAlloc.
	MaxAlloc uint64
}

// DefaultMaxAlloc bounds a single container level at 4 GiB.
const DefaultMaxAlloc uint64 = 4 << 30

// Codec converts between nested values and flat buffers. It is safe for
// concurrent use on independent values.
type Codec struct {
	compiler    *Compiler
	log         *zap.Logger
	metrics     *metrics
	allowRagged bool
	maxAlloc    uint64
}

func NewCodec() *Codec {
	c, _ := NewCodecWithConfig(nil)
	return c
}

// NewCodecWithConfig fails only when metric registration fails.
func NewCodecWithConfig(cfg *Config) (*Codec, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	c := &Codec{
		compiler:    NewCompiler(),
		log:         cfg.Logger,
		allowRagged: cfg.AllowRagged,
		maxAlloc:    cfg.MaxAlloc,
	}
	if c.maxAlloc == 0 {
		c.maxAlloc = DefaultMaxAlloc
	}
	if c.log == nil {
		c.log = Logger()
	}
	if cfg.Registerer != nil {
		m, err := newMetrics(cfg.Registerer)
		if err != nil {
			return nil, err
		}
		c.metrics = m
	}
	return c, nil
}

var (
	defaultCodec     *Codec
	defaultCodecOnce sync.Once
)

// Default returns the codec behind the package-level functions.
func Default() *Codec {
	defaultCodecOnce.Do(func() {
		defaultCodec = NewCodec()
	})
	return defaultCodec
}

func (c *Codec) Compiler() *Compiler { return c.compiler }

func (c *Codec) fail(err error) error {
	c.metrics.failed(err)
	return err
}

// RankOf returns the static nesting depth of t.
func (c *Codec) RankOf(t reflect.Type) (int, error) {
	p, err := c.compiler.Compile(t)
	if err != nil {
		return 0, c.fail(err)
	}
	return p.Rank, nil
}

// LeafOf returns the leaf type at the bottom of t.
func (c *Codec) LeafOf(t reflect.Type) (leaf.Type, error) {
	p, err := c.compiler.Compile(t)
	if err != nil {
		return leaf.Type{}, c.fail(err)
	}
	return p.Leaf, nil
}

// ShapeOf infers the shape of v from the first element of every level.
// v may be a value or a pointer to one.
func (c *Codec) ShapeOf(v any) (Shape, error) {
	p, ptr, _, err := c.resolveValue(errors.PhaseShape, v)
	if err != nil {
		return nil, c.fail(err)
	}
	shape := make(Shape, p.Rank)
	inferShape(p, ptr, shape)
	return shape, nil
}

func (c *Codec) SizeOf(v any) (int, error) {
	shape, err := c.ShapeOf(v)
	if err != nil {
		return 0, err
	}
	return shape.Size(), nil
}

// resolveValue compiles v's type and returns a pointer to its storage plus
// the value that keeps that storage alive. Non-pointer values are copied
// once so they can be addressed.
func (c *Codec) resolveValue(phase errors.Phase, v any) (*plan.Plan, unsafe.Pointer, any, error) {
	if v == nil {
		return nil, nil, nil, errors.NilPointer(phase, nil, "nil")
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil, nil, nil, errors.NilPointer(phase, nil, rv.Type().String())
		}
		if rv.Type().Elem().Kind() == reflect.Ptr {
			return nil, nil, nil, errors.Unsupported(phase, nil, rv.Type().String())
		}
		p, err := c.compiler.Compile(rv.Type().Elem())
		if err != nil {
			return nil, nil, nil, err
		}
		return p, rv.UnsafePointer(), v, nil
	}

	p, err := c.compiler.Compile(rv.Type())
	if err != nil {
		return nil, nil, nil, err
	}
	cp := reflect.New(rv.Type())
	cp.Elem().Set(rv)
	return p, cp.UnsafePointer(), cp.Interface(), nil
}

// resolveTarget is resolveValue for values that will be mutated: ptr must be
// a non-nil pointer.
func (c *Codec) resolveTarget(phase errors.Phase, ptr any) (*plan.Plan, unsafe.Pointer, error) {
	if ptr == nil {
		return nil, nil, errors.NilPointer(phase, nil, "nil")
	}
	if reflect.TypeOf(ptr).Kind() != reflect.Ptr {
		return nil, nil, errors.New(phase, errors.KindInvalidInput).
			GoType(reflect.TypeOf(ptr).String()).
			Detail("target must be a pointer").
			Build()
	}
	p, vp, _, err := c.resolveValue(phase, ptr)
	return p, vp, err
}

// contiguousData returns the first leaf of a contiguous value.
func contiguousData(p *plan.Plan, ptr unsafe.Pointer) unsafe.Pointer {
	if p.Inline {
		return ptr
	}
	return p.Container.Data(ptr)
}

// rawView views n bytes at base; an empty view when there is nothing to see.
func rawView(base unsafe.Pointer, n int) []byte {
	if base == nil || n == 0 {
		return []byte{}
	}
	return unsafe.Slice((*byte)(base), n)
}

func appendIndex(path []string, i int) []string {
	return append(path[:len(path):len(path)], "["+strconv.Itoa(i)+"]")
}

func axisPath(axis int) []string {
	path := make([]string, axis)
	for i := range path {
		path[i] = "[]"
	}
	return path
}
