// Copyright 2025 The Memur Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package memur

import (
	"iter"

	"github.com/Nercury/memur/internal/layout"
	"github.com/Nercury/memur/internal/xunsafe"
)

// defaultArrayCapacity is the pointer-table size of a fresh [Array].
const defaultArrayCapacity = 4

// arrayMeta is the in-arena metadata of a growable array: a pointer table
// of cap slots, of which the first len point at individually placed
// elements.
type arrayMeta[T any] struct {
	len, cap int
	ptrs     **T
}

// arrayDrop destroys elements [0, len) in place, in index order.
func arrayDrop[T any](data *byte) {
	meta := xunsafe.Cast[arrayMeta[T]](data)
	if meta.ptrs == nil {
		return
	}
	n := meta.len
	meta.len = 0
	if hasDrop[T]() {
		for i := 0; i < n; i++ {
			any(xunsafe.Load(meta.ptrs, i)).(Dropper).Drop()
		}
	}
}

// Array is a growable arena-backed array. Its API is slice-like, but
// elements are placed individually and addressed through an arena-stored
// pointer table that doubles when full; element pointers therefore stay
// stable across growth.
type Array[T any] struct {
	arena WeakArena
	md    *arrayMeta[T]
}

// NewArray creates an array with a small default capacity.
func NewArray[T any](a *Arena) (*Array[T], error) {
	return NewArrayWithCapacity[T](a, defaultArrayCapacity)
}

// NewArrayWithCapacity creates an array whose pointer table starts with
// room for capacity elements.
func NewArrayWithCapacity[T any](a *Arena, capacity int) (*Array[T], error) {
	if capacity <= 0 {
		capacity = defaultArrayCapacity
	}
	meta, err := PlaceNoDrop(a, arrayMeta[T]{cap: capacity})
	if err != nil {
		return nil, err
	}
	if err := a.RegisterDrop(arrayDrop[T], xunsafe.Cast[byte](meta)); err != nil {
		return nil, err
	}
	ptrs, err := AllocUninit[*T](a, capacity, layout.Size[*T]())
	if err != nil {
		return nil, err
	}
	meta.ptrs = ptrs
	return &Array[T]{arena: a.Weak(), md: meta}, nil
}

// Push places v in the arena and appends its pointer.
//
// When the pointer table is full, a table of twice the capacity is reserved
// and the pointers are copied over; the old table stays behind in the arena
// unreclaimed, as all arena memory does.
func (arr *Array[T]) Push(v T) error {
	strong, ok := arr.arena.Upgrade()
	if !ok {
		return uploadError(errCodeArenaNotAlive)
	}
	defer strong.Free()

	meta := arr.md
	if meta.len == meta.cap {
		newCap := max(meta.cap*2, defaultArrayCapacity)
		newPtrs, err := AllocUninit[*T](&strong, newCap, layout.Size[*T]())
		if err != nil {
			return err
		}
		xunsafe.Copy(newPtrs, meta.ptrs, meta.len)
		meta.ptrs, meta.cap = newPtrs, newCap
	}

	p, err := AllocUninit[T](&strong, 1, layout.Size[T]())
	if err != nil {
		return err
	}
	*p = v
	xunsafe.Store(meta.ptrs, meta.len, p)
	meta.len++
	return nil
}

// Pop removes and returns the last element, moving it out of arena memory.
//
// The popped value is the caller's now: the arena no longer destroys it.
// The backing slot and its table entry are left behind; the arena never
// reuses them, which is also why this layout could not survive compaction.
func (arr *Array[T]) Pop() (T, bool) {
	var zero T
	if !arr.arena.IsAlive() {
		return zero, false
	}
	meta := arr.md
	if meta.len == 0 {
		return zero, false
	}
	meta.len--
	return *xunsafe.Load(meta.ptrs, meta.len), true
}

// Len returns the element count, or zero once the arena has drained.
func (arr *Array[T]) Len() int {
	if !arr.arena.IsAlive() {
		return 0
	}
	return arr.md.len
}

// Cap returns the pointer-table capacity, or zero once the arena has
// drained.
func (arr *Array[T]) Cap() int {
	if !arr.arena.IsAlive() {
		return 0
	}
	return arr.md.cap
}

// At returns the i-th element. It panics when i is out of range, which
// includes every index once the arena has drained.
func (arr *Array[T]) At(i int) *T {
	if i < 0 || i >= arr.Len() {
		panic("memur: array index out of range")
	}
	return xunsafe.Load(arr.md.ptrs, i)
}

// Iter iterates the elements in index order. The sequence is empty once
// the arena has drained.
func (arr *Array[T]) Iter() iter.Seq[*T] {
	return func(yield func(*T) bool) {
		for i := 0; i < arr.Len(); i++ {
			if !yield(xunsafe.Load(arr.md.ptrs, i)) {
				return
			}
		}
	}
}

// ToSlice copies the elements out into a fresh slice.
func (arr *Array[T]) ToSlice() []T {
	n := arr.Len()
	if n == 0 {
		return nil
	}
	out := make([]T, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, *xunsafe.Load(arr.md.ptrs, i))
	}
	return out
}

// Free drops the array's handle on the arena. The elements themselves are
// destroyed by the arena, not by Free.
func (arr *Array[T]) Free() {
	arr.arena.Free()
}
