package nest

import (
	"unsafe"

	"github.com/wippyai/flatnest/errors"
	"github.com/wippyai/flatnest/leaf"
)

// Buffer is a flat row-major run of leaves plus the shape it describes.
//
// A borrowed Buffer is a view over the source value's own storage. It is
// valid only while the source is alive and is not resized; writes through
// Bytes are visible in the source. An owned Buffer holds pooled memory that
// Release returns.
type Buffer struct {
	leaf  leaf.Type
	shape Shape
	data  []byte
	owned *[]uint64
	src   any // keeps the borrowed source reachable
}

func (b *Buffer) Leaf() leaf.Type { return b.leaf }

// Shape returns a copy of the buffer's shape.
func (b *Buffer) Shape() Shape { return b.shape.Clone() }

// Len is the number of leaves.
func (b *Buffer) Len() int {
	if b.leaf.Size == 0 {
		return 0
	}
	return len(b.data) / int(b.leaf.Size)
}

// Bytes is the raw native-endian leaf storage.
func (b *Buffer) Bytes() []byte { return b.data }

// Pointer is the address of the first leaf, or nil for an empty buffer.
func (b *Buffer) Pointer() unsafe.Pointer {
	if len(b.data) == 0 {
		return nil
	}
	return unsafe.Pointer(unsafe.SliceData(b.data))
}

func (b *Buffer) Borrowed() bool { return b.owned == nil }

// Release returns owned memory to the pool. The buffer is empty afterwards.
// It is a no-op for borrowed buffers apart from dropping the view.
func (b *Buffer) Release() {
	if b.owned != nil {
		putWords(b.owned)
		b.owned = nil
	}
	b.data = nil
	b.src = nil
	b.shape = nil
}

// CopyTo copies the leaves into dst and returns the bytes written.
func (b *Buffer) CopyTo(dst []byte) (int, error) {
	if len(dst) < len(b.data) {
		return 0, errors.BufferSize(errors.PhaseSerialize, len(b.data), len(dst))
	}
	return copy(dst, b.data), nil
}

// Values returns a typed view of b. L must have the buffer's leaf kind.
func Values[L leaf.Number](b *Buffer) ([]L, error) {
	want := leaf.Of[L]()
	if want.Kind != b.leaf.Kind {
		return nil, errors.TypeMismatch(errors.PhaseSerialize, nil, want.Native.String(), b.leaf.String())
	}
	n := b.Len()
	if n == 0 || len(b.data) == 0 {
		return []L{}, nil
	}
	return unsafe.Slice((*L)(unsafe.Pointer(unsafe.SliceData(b.data))), n), nil
}
