// Package buffer provides Growable, the contiguous dynamic array every
// bytecode, constant, line and stack store in loxvm is built on.
//
// Growable manages its own capacity instead of relying on append: the
// backing array is allocated lazily, starts at capacity 1 and doubles on
// each growth. Slots past Len are kept at the zero value so that popped
// elements are not retained.
package buffer

import (
	"fmt"
	"iter"
	"strings"
	"unsafe"
)

// Growable is a contiguous dynamic array with 0 -> 1 -> 2 -> 4 growth.
// The zero value is not usable; construct with New.
type Growable[T any] struct {
	arr []T // backing array, len(arr) == capacity
	len int
}

// New returns an empty buffer. No backing array is allocated until the
// first Push. Zero-size element types are rejected.
func New[T any]() *Growable[T] {
	var zero T
	if unsafe.Sizeof(zero) == 0 {
		panic(fmt.Sprintf("buffer: zero-size element type %T is not supported", zero))
	}
	return &Growable[T]{}
}

// Collect builds a buffer from a sequence, preserving order.
func Collect[T any](seq iter.Seq[T]) *Growable[T] {
	b := New[T]()
	for v := range seq {
		b.Push(v)
	}
	return b
}

// Len returns the number of initialized elements.
func (b *Growable[T]) Len() int {
	return b.len
}

// Cap returns the capacity of the backing array.
func (b *Growable[T]) Cap() int {
	return len(b.arr)
}

// grow reallocates the backing array: capacity 1 from empty, doubled
// otherwise. Existing elements are copied in order.
func (b *Growable[T]) grow() {
	newCap := 1
	if len(b.arr) > 0 {
		newCap = len(b.arr) * 2
	}
	arr := make([]T, newCap)
	copy(arr, b.arr[:b.len])
	b.arr = arr
}

// Push appends v, growing first when the buffer is full.
func (b *Growable[T]) Push(v T) {
	if b.len == len(b.arr) {
		b.grow()
	}
	b.arr[b.len] = v
	b.len++
}

// Pop removes and returns the last element. ok is false when the buffer
// is empty.
func (b *Growable[T]) Pop() (v T, ok bool) {
	if b.len == 0 {
		return v, false
	}
	b.len--
	v = b.arr[b.len]
	var zero T
	b.arr[b.len] = zero
	return v, true
}

// Last returns the last element without removing it.
func (b *Growable[T]) Last() (v T, ok bool) {
	if b.len == 0 {
		return v, false
	}
	return b.arr[b.len-1], true
}

// At returns the element at i. Panics if i is outside [0, Len).
func (b *Growable[T]) At(i int) T {
	b.checkIndex(i)
	return b.arr[i]
}

// Set overwrites the element at i. Panics if i is outside [0, Len).
func (b *Growable[T]) Set(i int, v T) {
	b.checkIndex(i)
	b.arr[i] = v
}

func (b *Growable[T]) checkIndex(i int) {
	if i < 0 || i >= b.len {
		panic(fmt.Sprintf("buffer: index %d out of range [0:%d]", i, b.len))
	}
}

// Release pops every element and drops the backing array. Calling it on
// an already released or never-grown buffer does nothing.
func (b *Growable[T]) Release() {
	for b.len > 0 {
		b.Pop()
	}
	b.arr = nil
}

// Drain returns a consuming iterator over the elements in insertion order.
// The buffer is detached before the first element is yielded, so it is
// empty (and Release is a no-op) from then on. Elements not consumed when
// iteration stops early are dropped with the detached array.
func (b *Growable[T]) Drain() iter.Seq[T] {
	arr, n := b.arr[:b.len], b.len
	b.arr, b.len = nil, 0
	return func(yield func(T) bool) {
		var zero T
		for i := 0; i < n; i++ {
			v := arr[i]
			arr[i] = zero
			if !yield(v) {
				return
			}
		}
	}
}

// All iterates over index/element pairs without consuming the buffer.
func (b *Growable[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := 0; i < b.len; i++ {
			if !yield(i, b.arr[i]) {
				return
			}
		}
	}
}

// String renders the elements as "[a, b, c]".
func (b *Growable[T]) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i := 0; i < b.len; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%v", b.arr[i])
	}
	sb.WriteByte(']')
	return sb.String()
}
