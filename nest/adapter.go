package nest

import (
	"reflect"
	"unsafe"
)

// sliceHeader mirrors the runtime layout of a slice.
type sliceHeader struct {
	Data unsafe.Pointer
	Len  int
	Cap  int
}

// arrayAdapter walks [N]E in place.
type arrayAdapter struct {
	n        int
	elemSize uintptr
}

func (a arrayAdapter) Len(unsafe.Pointer) int { return a.n }

func (a arrayAdapter) Each(p unsafe.Pointer, fn func(int, unsafe.Pointer) bool) {
	for i := 0; i < a.n; i++ {
		if !fn(i, unsafe.Add(p, uintptr(i)*a.elemSize)) {
			return
		}
	}
}

// Resize is a no-op; lengths are validated before any resize pass.
func (a arrayAdapter) Resize(unsafe.Pointer, int) {}

func (a arrayAdapter) Data(p unsafe.Pointer) unsafe.Pointer {
	if a.n == 0 {
		return nil
	}
	return p
}

// sliceAdapter walks []E through its header.
type sliceAdapter struct {
	goType   reflect.Type
	elemSize uintptr
}

func (a sliceAdapter) Len(p unsafe.Pointer) int {
	return (*sliceHeader)(p).Len
}

func (a sliceAdapter) Each(p unsafe.Pointer, fn func(int, unsafe.Pointer) bool) {
	hdr := (*sliceHeader)(p)
	for i := 0; i < hdr.Len; i++ {
		if !fn(i, unsafe.Add(hdr.Data, uintptr(i)*a.elemSize)) {
			return
		}
	}
}

// Resize reuses capacity when it can. Elements exposed by the resize are
// zeroed; elements kept from the old backing store are left as they were so
// nested containers can reuse their own storage.
func (a sliceAdapter) Resize(p unsafe.Pointer, n int) {
	v := reflect.NewAt(a.goType, p).Elem()
	old := v.Len()
	if n <= v.Cap() {
		v.SetLen(n)
		if n > old {
			zero := reflect.Zero(a.goType.Elem())
			for i := old; i < n; i++ {
				v.Index(i).Set(zero)
			}
		}
		return
	}
	grown := reflect.MakeSlice(a.goType, n, n)
	reflect.Copy(grown, v)
	v.Set(grown)
}

func (a sliceAdapter) Data(p unsafe.Pointer) unsafe.Pointer {
	hdr := (*sliceHeader)(p)
	if hdr.Len == 0 {
		return nil
	}
	return hdr.Data
}

// linkedAdapter drives any type whose pointer implements Sequence.
type linkedAdapter struct {
	goType reflect.Type
}

func (a linkedAdapter) seq(p unsafe.Pointer) Sequence {
	return reflect.NewAt(a.goType, p).Interface().(Sequence)
}

func (a linkedAdapter) Len(p unsafe.Pointer) int {
	return a.seq(p).Len()
}

func (a linkedAdapter) Each(p unsafe.Pointer, fn func(int, unsafe.Pointer) bool) {
	i := 0
	a.seq(p).Range(func(elem any) bool {
		ok := fn(i, reflect.ValueOf(elem).UnsafePointer())
		i++
		return ok
	})
}

func (a linkedAdapter) Resize(p unsafe.Pointer, n int) {
	a.seq(p).Resize(n)
}

func (a linkedAdapter) Data(unsafe.Pointer) unsafe.Pointer { return nil }

// first returns the first element of a container, or nil when it is empty.
func first(each func(unsafe.Pointer, func(int, unsafe.Pointer) bool), p unsafe.Pointer) unsafe.Pointer {
	var out unsafe.Pointer
	each(p, func(_ int, elem unsafe.Pointer) bool {
		out = elem
		return false
	})
	return out
}
