package nest

import (
	"iter"
	"reflect"
)

// Sequence is implemented (on the pointer receiver) by resizable containers
// without contiguous storage. The compiler treats any type whose pointer
// implements Sequence as a linked level.
type Sequence interface {
	Len() int
	// Resize grows with zero values or shrinks from the tail.
	Resize(n int)
	ElemType() reflect.Type
	// Range yields a *E for every element in order until fn returns false.
	Range(fn func(elem any) bool)
}

var sequenceType = reflect.TypeFor[Sequence]()

// ListNode is one element of a List.
type ListNode[T any] struct {
	Value T
	next  *ListNode[T]
	prev  *ListNode[T]
}

func (n *ListNode[T]) Next() *ListNode[T] { return n.next }
func (n *ListNode[T]) Prev() *ListNode[T] { return n.prev }

// List is a doubly linked list usable as a nesting level. The zero value is
// an empty list. Copies of a List share the same chain of nodes; after a copy
// only one of them may be modified.
type List[T any] struct {
	head *ListNode[T]
	tail *ListNode[T]
	n    int
}

func NewList[T any](vals ...T) List[T] {
	var l List[T]
	for _, v := range vals {
		l.PushBack(v)
	}
	return l
}

func (l *List[T]) PushBack(v T) *ListNode[T] {
	node := &ListNode[T]{Value: v, prev: l.tail}
	if l.tail == nil {
		l.head = node
	} else {
		l.tail.next = node
	}
	l.tail = node
	l.n++
	return node
}

func (l *List[T]) PushFront(v T) *ListNode[T] {
	node := &ListNode[T]{Value: v, next: l.head}
	if l.head == nil {
		l.tail = node
	} else {
		l.head.prev = node
	}
	l.head = node
	l.n++
	return node
}

func (l *List[T]) Front() *ListNode[T] { return l.head }
func (l *List[T]) Back() *ListNode[T]  { return l.tail }
func (l *List[T]) Len() int            { return l.n }

func (l *List[T]) Resize(n int) {
	if n < 0 {
		n = 0
	}
	for l.n > n {
		last := l.tail
		l.tail = last.prev
		if l.tail == nil {
			l.head = nil
		} else {
			l.tail.next = nil
		}
		last.prev = nil
		l.n--
	}
	var zero T
	for l.n < n {
		l.PushBack(zero)
	}
}

func (l *List[T]) ElemType() reflect.Type {
	return reflect.TypeFor[T]()
}

func (l *List[T]) Range(fn func(elem any) bool) {
	for node := l.head; node != nil; node = node.next {
		if !fn(&node.Value) {
			return
		}
	}
}

// All iterates pointers to the stored values, so callers can assign in place.
func (l *List[T]) All() iter.Seq[*T] {
	return func(yield func(*T) bool) {
		for node := l.head; node != nil; node = node.next {
			if !yield(&node.Value) {
				return
			}
		}
	}
}

func (l *List[T]) Values() []T {
	out := make([]T, 0, l.n)
	for node := l.head; node != nil; node = node.next {
		out = append(out, node.Value)
	}
	return out
}
