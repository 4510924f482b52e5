package nest

import (
	"math"
	"strconv"
	"strings"
	"unsafe"

	"github.com/wippyai/flatnest/nest/internal/plan"
)

// Shape lists per-axis element counts, outermost first.
type Shape []int

func (s Shape) Rank() int { return len(s) }

// Size is the number of leaves the shape describes: the product of all
// axes, 1 for rank 0 and 0 when any axis is 0. It returns -1 when the
// product does not fit in an int; use SizeChecked for untrusted shapes.
func (s Shape) Size() int {
	n, ok := s.SizeChecked()
	if !ok {
		return -1
	}
	return n
}

// SizeChecked is Size with overflow detection. A zero axis makes the shape
// empty regardless of the other axes; a negative axis is never valid.
func (s Shape) SizeChecked() (int, bool) {
	for _, d := range s {
		if d < 0 {
			return 0, false
		}
		if d == 0 {
			return 0, true
		}
	}
	n := 1
	for _, d := range s {
		var ok bool
		if n, ok = mulInt(n, d); !ok {
			return 0, false
		}
	}
	return n, true
}

// ByteSize is the payload size of the shape for leaves of elemSize bytes.
func (s Shape) ByteSize(elemSize int) (int, bool) {
	n, ok := s.SizeChecked()
	if !ok || elemSize < 0 {
		return 0, false
	}
	return mulInt(n, elemSize)
}

func mulInt(a, b int) (int, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if a < 0 || b < 0 || a > math.MaxInt/b {
		return 0, false
	}
	return a * b, true
}

func (s Shape) Equal(o Shape) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

func (s Shape) Clone() Shape {
	if s == nil {
		return nil
	}
	out := make(Shape, len(s))
	copy(out, s)
	return out
}

func (s Shape) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, d := range s {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.Itoa(d))
	}
	b.WriteByte(']')
	return b.String()
}

// Uint64s converts to the form storage backends persist.
func (s Shape) Uint64s() []uint64 {
	out := make([]uint64, len(s))
	for i, d := range s {
		out[i] = uint64(d)
	}
	return out
}

func ShapeFromUint64s(dims []uint64) Shape {
	out := make(Shape, len(dims))
	for i, d := range dims {
		out[i] = int(d)
	}
	return out
}

// inferShape fills out (len == p.Rank) from the first element of every level.
// Axes below an empty level are 0.
func inferShape(p *plan.Plan, ptr unsafe.Pointer, out Shape) {
	for axis := 0; !p.IsLeaf(); axis++ {
		n := p.Container.Len(ptr)
		out[axis] = n
		if n == 0 {
			clear(out[axis+1:])
			return
		}
		ptr = first(p.Container.Each, ptr)
		p = p.Elem
	}
}
