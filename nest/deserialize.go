package nest

import (
	"math/bits"
	"unsafe"

	"go.uber.org/zap"

	"github.com/wippyai/flatnest/errors"
	"github.com/wippyai/flatnest/nest/internal/plan"
)

// Prepare resizes the value behind ptr so that ShapeOf reports shape.
//
// The shape is validated against the type before anything is touched: its
// length must equal the rank and every array level reached by the shape must
// have the requested length. Leaf values are left as they are; newly created
// elements are zero.
func (c *Codec) Prepare(ptr any, shape Shape) error {
	p, vp, err := c.resolveTarget(errors.PhasePrepare, ptr)
	if err != nil {
		return c.fail(err)
	}
	if err := c.prepare(p, vp, shape); err != nil {
		return c.fail(err)
	}
	return nil
}

func (c *Codec) prepare(p *plan.Plan, ptr unsafe.Pointer, shape Shape) error {
	if err := validateShape(p, shape, c.maxAlloc); err != nil {
		return err
	}
	if p.NeedsPrepare() {
		resize(p, ptr, shape)
	}
	c.log.Debug("prepare",
		zap.Stringer("type", p.GoType),
		zap.Stringer("shape", shape))
	return nil
}

// validateShape checks shape against the static facts of p and bounds the
// memory each level would take. Levels below a zero axis are never
// instantiated and are not checked.
func validateShape(p *plan.Plan, shape Shape, limit uint64) error {
	if len(shape) != p.Rank {
		return errors.RankMismatch(errors.PhasePrepare, p.GoType.String(), p.Rank, len(shape))
	}
	count := 1
	for axis, cur := 0, p; axis < len(shape); axis, cur = axis+1, cur.Elem {
		n := shape[axis]
		if n < 0 {
			return errors.New(errors.PhasePrepare, errors.KindInvalidInput).
				Path(axisPath(axis)...).
				Detail("negative extent %d", n).
				Build()
		}
		if cur.Kind == plan.KindArray && n != cur.FixedLen {
			return errors.FixedSize(axisPath(axis), cur.GoType.String(), cur.FixedLen, n)
		}
		var ok bool
		if count, ok = mulInt(count, n); !ok {
			return errors.New(errors.PhasePrepare, errors.KindInvalidInput).
				Path(axisPath(axis)...).
				Detail("element count of shape %s overflows int", shape).
				Build()
		}
		hi, bytes := bits.Mul64(uint64(count), uint64(cur.ElemSize))
		if hi != 0 || bytes > limit {
			return errors.New(errors.PhasePrepare, errors.KindAllocation).
				Path(axisPath(axis)...).
				Detail("shape %s needs %d elements of %d bytes, limit is %d bytes", shape, count, cur.ElemSize, limit).
				Build()
		}
		if n == 0 {
			return nil
		}
	}
	return nil
}

func resize(p *plan.Plan, ptr unsafe.Pointer, shape Shape) {
	if p.Kind.Resizable() {
		p.Container.Resize(ptr, shape[0])
	}
	if !p.Elem.NeedsPrepare() {
		return
	}
	p.Container.Each(ptr, func(_ int, elem unsafe.Pointer) bool {
		resize(p.Elem, elem, shape[1:])
		return true
	})
}

// Deserialize copies buf into the value behind ptr, which must already have
// the buffer's shape (see Prepare). buf must hold exactly SizeOf(value)
// leaves in native byte order. Nothing is written unless the value is
// rectangular and the length matches.
func (c *Codec) Deserialize(ptr any, buf []byte) error {
	p, vp, err := c.resolveTarget(errors.PhaseDeserialize, ptr)
	if err != nil {
		return c.fail(err)
	}
	if err := c.execute(p, vp, buf); err != nil {
		return c.fail(err)
	}
	return nil
}

// DeserializeBuffer prepares the value behind ptr to b's shape and copies
// b into it. The leaf types must match.
func (c *Codec) DeserializeBuffer(ptr any, b *Buffer) error {
	if b == nil {
		return c.fail(errors.NilPointer(errors.PhaseDeserialize, nil, "*nest.Buffer"))
	}
	p, vp, err := c.resolveTarget(errors.PhaseDeserialize, ptr)
	if err != nil {
		return c.fail(err)
	}
	if p.Leaf.Kind != b.leaf.Kind {
		return c.fail(errors.TypeMismatch(errors.PhaseDeserialize, nil, p.GoType.String(), b.leaf.String()))
	}
	if err := c.prepare(p, vp, b.shape); err != nil {
		return c.fail(err)
	}
	if err := c.execute(p, vp, b.data); err != nil {
		return c.fail(err)
	}
	return nil
}

func (c *Codec) execute(p *plan.Plan, ptr unsafe.Pointer, buf []byte) error {
	shape := make(Shape, p.Rank)
	inferShape(p, ptr, shape)
	n := shape.Size()
	nbytes := n * int(p.Leaf.Size)
	if len(buf) != nbytes {
		return errors.BufferSize(errors.PhaseDeserialize, nbytes, len(buf))
	}

	if p.Contiguous {
		copy(rawView(contiguousData(p, ptr), nbytes), buf)
	} else {
		if err := checkRect(p, ptr, shape, nil); err != nil {
			return err
		}
		unflatten(p, ptr, shape, buf)
	}
	c.metrics.deserialized(n)
	return nil
}

// checkRect verifies that every level of a non-inline value agrees with
// shape, without writing anything.
func checkRect(p *plan.Plan, ptr unsafe.Pointer, shape Shape, path []string) error {
	if p.Inline {
		return nil
	}
	if n := p.Container.Len(ptr); n != shape[0] {
		return errors.Ragged(errors.PhaseDeserialize, path, shape[0], n)
	}
	if p.Elem.Inline {
		return nil
	}
	var err error
	p.Container.Each(ptr, func(i int, elem unsafe.Pointer) bool {
		err = checkRect(p.Elem, elem, shape[1:], appendIndex(path, i))
		return err == nil
	})
	return err
}

// unflatten is the inverse of flatten on a value already checked by
// checkRect.
func unflatten(p *plan.Plan, ptr unsafe.Pointer, shape Shape, src []byte) {
	if p.Inline {
		copy(rawView(ptr, len(src)), src)
		return
	}
	stride := shape[1:].Size() * int(p.Leaf.Size)
	if p.Contiguous {
		copy(rawView(p.Container.Data(ptr), len(src)), src)
		return
	}
	p.Container.Each(ptr, func(i int, elem unsafe.Pointer) bool {
		off := i * stride
		unflatten(p.Elem, elem, shape[1:], src[off:off+stride])
		return true
	})
}

// Deserializer splits reconstruction in two so a storage backend can read
// straight into Data. When the target keeps all leaves in one run, Data
// aliases the target and Execute has nothing left to do.
type Deserializer struct {
	codec   *Codec
	plan    *plan.Plan
	ptr     unsafe.Pointer
	target  any
	shape   Shape
	data    []byte
	scratch *[]uint64
	closed  bool
}

// NewDeserializer prepares the value behind ptr to shape and sets up the
// buffer Data returns. Close releases it.
func (c *Codec) NewDeserializer(ptr any, shape Shape) (*Deserializer, error) {
	p, vp, err := c.resolveTarget(errors.PhasePrepare, ptr)
	if err != nil {
		return nil, c.fail(err)
	}
	if err := c.prepare(p, vp, shape); err != nil {
		return nil, c.fail(err)
	}

	nbytes, ok := shape.ByteSize(int(p.Leaf.Size))
	if !ok {
		return nil, c.fail(errors.InvalidInput(errors.PhasePrepare, "payload size of shape "+shape.String()+" overflows int"))
	}
	d := &Deserializer{
		codec:  c,
		plan:   p,
		ptr:    vp,
		target: ptr,
		shape:  shape.Clone(),
	}
	if p.Contiguous {
		d.data = rawView(contiguousData(p, vp), nbytes)
	} else {
		d.scratch = getWords(nbytes)
		d.data = wordBytes(d.scratch, nbytes)
	}
	return d, nil
}

// Data is the writable leaf storage to fill before Execute.
func (d *Deserializer) Data() []byte { return d.data }

func (d *Deserializer) Shape() Shape { return d.shape.Clone() }

// Aliased reports whether Data is the target's own storage.
func (d *Deserializer) Aliased() bool { return d.scratch == nil && !d.closed }

// Execute copies Data into the target.
func (d *Deserializer) Execute() error {
	if d.closed {
		return errors.Closed(errors.PhaseDeserialize, "deserializer")
	}
	if d.scratch == nil {
		d.codec.metrics.deserialized(d.shape.Size())
		return nil
	}
	if err := d.codec.execute(d.plan, d.ptr, d.data); err != nil {
		return d.codec.fail(err)
	}
	return nil
}

func (d *Deserializer) Close() {
	if d.closed {
		return
	}
	d.closed = true
	putWords(d.scratch)
	d.scratch = nil
	d.data = nil
	d.target = nil
}
