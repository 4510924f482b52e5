package plan

import (
	"reflect"
	"unsafe"

	"github.com/wippyai/flatnest/leaf"
)

// Container is the capability set of one container kind. Pointers passed in
// address a value of the plan's GoType; element pointers address values of
// the element type.
type Container interface {
	Len(p unsafe.Pointer) int
	// Each visits elements in iteration order until fn returns false.
	Each(p unsafe.Pointer, fn func(i int, elem unsafe.Pointer) bool)
	// Resize sets the element count. Callers validate fixed lengths first.
	Resize(p unsafe.Pointer, n int)
	// Data returns the first element of a contiguous backing store, or nil
	// when the container has none or is empty.
	Data(p unsafe.Pointer) unsafe.Pointer
}

type Plan struct {
	GoType    reflect.Type
	Elem      *Plan
	Container Container
	Leaf      leaf.Type
	ElemSize  uintptr
	Rank      int
	FixedLen  int
	Kind      Kind
	// Inline is set when every leaf is stored inside the value itself:
	// leaves, and arrays of inline elements.
	Inline bool
	// Contiguous is set when all leaves form one run reachable from the
	// value: inline values, and slices of inline elements.
	Contiguous bool
}

func (p *Plan) IsLeaf() bool {
	return p.Kind == KindLeaf
}

// Axis returns the plan at nesting depth i; Axis(0) is p itself.
func (p *Plan) Axis(i int) *Plan {
	cur := p
	for ; i > 0 && cur != nil; i-- {
		cur = cur.Elem
	}
	return cur
}

// InlineCount returns the leaves held by one inline value, or 0 when p is
// not inline.
func (p *Plan) InlineCount() int {
	if !p.Inline {
		return 0
	}
	if p.IsLeaf() {
		return 1
	}
	return p.FixedLen * p.Elem.InlineCount()
}

// NeedsPrepare reports whether Prepare has anything to resize.
func (p *Plan) NeedsPrepare() bool {
	for cur := p; cur != nil && !cur.IsLeaf(); cur = cur.Elem {
		if cur.Kind.Resizable() {
			return true
		}
	}
	return false
}
