package buffer

import (
	"fmt"
	"iter"
)

// View is a read-only, bounds-checked window over the initialized
// elements of a Growable. It observes the buffer at the moment it was
// taken; pushing to the buffer afterwards may or may not be visible.
type View[T any] struct {
	elems []T
}

// View returns a read-only view of [0, Len).
func (b *Growable[T]) View() View[T] {
	return View[T]{elems: b.arr[:b.len:b.len]}
}

// Len returns the number of elements in the view.
func (v View[T]) Len() int {
	return len(v.elems)
}

// At returns the element at i. Panics if i is out of range.
func (v View[T]) At(i int) T {
	if i < 0 || i >= len(v.elems) {
		panic(fmt.Sprintf("buffer: view index %d out of range [0:%d]", i, len(v.elems)))
	}
	return v.elems[i]
}

// All iterates over index/element pairs.
func (v View[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i, e := range v.elems {
			if !yield(i, e) {
				return
			}
		}
	}
}

// Clone copies the viewed elements into a new slice.
func (v View[T]) Clone() []T {
	out := make([]T, len(v.elems))
	copy(out, v.elems)
	return out
}

// MutView is a read/write, bounds-checked window over the initialized
// elements of a Growable. It cannot change the buffer's length.
type MutView[T any] struct {
	View[T]
}

// MutView returns a mutable view of [0, Len).
func (b *Growable[T]) MutView() MutView[T] {
	return MutView[T]{View: b.View()}
}

// Set overwrites the element at i. Panics if i is out of range.
func (v MutView[T]) Set(i int, e T) {
	if i < 0 || i >= len(v.elems) {
		panic(fmt.Sprintf("buffer: view index %d out of range [0:%d]", i, len(v.elems)))
	}
	v.elems[i] = e
}
