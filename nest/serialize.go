package nest

import (
	"unsafe"

	"go.uber.org/zap"

	"github.com/wippyai/flatnest/errors"
	"github.com/wippyai/flatnest/nest/internal/plan"
)

// Serialize flattens v into row-major order.
//
// When every level of v stores its leaves in one run (leaves, arrays of
// leaves, slices of those) the returned Buffer borrows that storage instead
// of copying. Pass a pointer to borrow a caller-owned array; a value is
// borrowed from the copy held by the interface. Otherwise the leaves are
// copied into pooled memory, which Release returns.
func (c *Codec) Serialize(v any) (*Buffer, error) {
	p, ptr, keep, err := c.resolveValue(errors.PhaseSerialize, v)
	if err != nil {
		return nil, c.fail(err)
	}

	shape := make(Shape, p.Rank)
	inferShape(p, ptr, shape)
	n := shape.Size()
	nbytes := n * int(p.Leaf.Size)

	if p.Contiguous {
		c.metrics.serialized(pathZeroCopy, n)
		c.log.Debug("serialize",
			zap.Stringer("type", p.GoType),
			zap.Stringer("shape", shape),
			zap.String("path", pathZeroCopy))
		return &Buffer{
			leaf:  p.Leaf,
			shape: shape,
			data:  rawView(contiguousData(p, ptr), nbytes),
			src:   keep,
		}, nil
	}

	owned := getWords(nbytes)
	data := wordBytes(owned, nbytes)
	if err := c.flatten(p, ptr, shape, data, nil); err != nil {
		putWords(owned)
		return nil, c.fail(err)
	}

	c.metrics.serialized(pathGeneric, n)
	c.log.Debug("serialize",
		zap.Stringer("type", p.GoType),
		zap.Stringer("shape", shape),
		zap.String("path", pathGeneric))
	return &Buffer{leaf: p.Leaf, shape: shape, data: data, owned: owned}, nil
}

// SerializeInto flattens v into dst and returns the bytes written. dst must
// hold SizeOf(v) leaves; its content is unspecified when an error is
// returned.
func (c *Codec) SerializeInto(v any, dst []byte) (int, error) {
	p, ptr, _, err := c.resolveValue(errors.PhaseSerialize, v)
	if err != nil {
		return 0, c.fail(err)
	}

	shape := make(Shape, p.Rank)
	inferShape(p, ptr, shape)
	n := shape.Size()
	nbytes := n * int(p.Leaf.Size)
	if len(dst) < nbytes {
		return 0, c.fail(errors.BufferSize(errors.PhaseSerialize, nbytes, len(dst)))
	}
	dst = dst[:nbytes]

	if p.Contiguous {
		copy(dst, rawView(contiguousData(p, ptr), nbytes))
		c.metrics.serialized(pathZeroCopy, n)
		return nbytes, nil
	}

	if c.allowRagged {
		clear(dst)
	}
	if err := c.flatten(p, ptr, shape, dst, nil); err != nil {
		return 0, c.fail(err)
	}
	c.metrics.serialized(pathGeneric, n)
	return nbytes, nil
}

// flatten copies the leaves of the value at ptr into dst, which is exactly
// the value's slot: shape.Size() leaves. Elements are visited in iteration
// order and each one fills the next stride of dst.
func (c *Codec) flatten(p *plan.Plan, ptr unsafe.Pointer, shape Shape, dst []byte, path []string) error {
	if p.Inline {
		copy(dst, rawView(ptr, len(dst)))
		return nil
	}

	want := shape[0]
	n := p.Container.Len(ptr)
	if n != want {
		if !c.allowRagged {
			return errors.Ragged(errors.PhaseSerialize, path, want, n)
		}
		if n > want {
			return errors.OutOfBounds(errors.PhaseSerialize, path, n-1, want)
		}
	}

	stride := shape[1:].Size() * int(p.Leaf.Size)
	if p.Contiguous {
		copy(dst, rawView(p.Container.Data(ptr), n*stride))
		return nil
	}

	var err error
	p.Container.Each(ptr, func(i int, elem unsafe.Pointer) bool {
		off := i * stride
		err = c.flatten(p.Elem, elem, shape[1:], dst[off:off+stride], appendIndex(path, i))
		return err == nil
	})
	return err
}
