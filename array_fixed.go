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

// fixedArrayMeta is the in-arena metadata of a fixed array. The registered
// sweep thunk destroys elements [0, len) and zeroes len, so a double drop
// is impossible.
type fixedArrayMeta[T any] struct {
	len  int
	data *T
}

// fixedArrayDrop sweeps a fixed array's elements in index order.
func fixedArrayDrop[T any](data *byte) {
	meta := xunsafe.Cast[fixedArrayMeta[T]](data)
	if meta.data == nil {
		return
	}
	n := meta.len
	meta.len = 0
	if hasDrop[T]() {
		for i := 0; i < n; i++ {
			any(xunsafe.Add(meta.data, i)).(Dropper).Drop()
		}
	}
	meta.data = nil
}

// FixedArray is a fixed-length array of same-typed values stored
// contiguously in an arena.
//
// Reads return nothing once the arena has drained: the metadata survives,
// but the elements have been destroyed.
type FixedArray[T any] struct {
	arena WeakArena
	md    *fixedArrayMeta[T]
}

// fixedArrayAlloc places the metadata cell, registers the sweep thunk
// against it, and reserves the contiguous element region, in that order.
// len stays zero until elements actually exist.
func fixedArrayAlloc[T any](a *Arena, capacity int) (*fixedArrayMeta[T], error) {
	meta, err := PlaceNoDrop(a, fixedArrayMeta[T]{})
	if err != nil {
		return nil, err
	}
	if err := a.RegisterDrop(fixedArrayDrop[T], xunsafe.Cast[byte](meta)); err != nil {
		return nil, err
	}
	data, err := AllocUninit[T](a, capacity, layout.Size[T]())
	if err != nil {
		return nil, err
	}
	meta.data = data
	return meta, nil
}

// NewFixedArray copies items into a contiguous arena region and registers a
// sweep that destroys each element, in index order, when the arena's last
// strong handle is freed.
//
// The arena owns the elements afterwards; the caller must not use the
// source values again.
func NewFixedArray[T any](a *Arena, items []T) (*FixedArray[T], error) {
	meta, err := fixedArrayAlloc[T](a, len(items))
	if err != nil {
		return nil, err
	}
	copy(xunsafe.Slice(meta.data, len(items)), items)
	meta.len = len(items)
	return &FixedArray[T]{arena: a.Weak(), md: meta}, nil
}

// FixedArrayWithCapacity reserves room for capacity elements and returns an
// initializer to fill them in. Until the initializer finishes, the array's
// length is zero and the arena would destroy nothing.
func FixedArrayWithCapacity[T any](a *Arena, capacity int) (*FixedArrayInitializer[T], error) {
	meta, err := fixedArrayAlloc[T](a, capacity)
	if err != nil {
		return nil, err
	}
	return &FixedArrayInitializer[T]{arena: a.Weak(), md: meta, capacity: capacity}, nil
}

// Len returns the element count, or zero once the arena has drained.
func (f *FixedArray[T]) Len() int {
	if !f.arena.IsAlive() {
		return 0
	}
	return f.md.len
}

// At returns the i-th element. It panics when i is out of range, which
// includes every index once the arena has drained.
func (f *FixedArray[T]) At(i int) *T {
	if i < 0 || i >= f.Len() {
		panic("memur: fixed array index out of range")
	}
	return xunsafe.Add(f.md.data, i)
}

// Iter iterates the elements in index order. The sequence is empty once the
// arena has drained.
func (f *FixedArray[T]) Iter() iter.Seq[*T] {
	return func(yield func(*T) bool) {
		for i := 0; i < f.Len(); i++ {
			if !yield(xunsafe.Add(f.md.data, i)) {
				return
			}
		}
	}
}

// Slice returns the elements as a slice aliasing arena memory, or nil once
// the arena has drained. The slice is valid only while the arena is alive.
func (f *FixedArray[T]) Slice() []T {
	if !f.arena.IsAlive() {
		return nil
	}
	return xunsafe.Slice(f.md.data, f.md.len)
}

// ToSlice copies the elements out into a fresh slice.
func (f *FixedArray[T]) ToSlice() []T {
	src := f.Slice()
	if src == nil {
		return nil
	}
	out := make([]T, len(src))
	copy(out, src)
	return out
}

// Free drops the array's handle on the arena. The elements themselves are
// destroyed by the arena, not by Free.
func (f *FixedArray[T]) Free() {
	f.arena.Free()
}

// FixedArrayInitializer fills a [FixedArray] reserved with
// [FixedArrayWithCapacity] one element at a time.
type FixedArrayInitializer[T any] struct {
	arena       WeakArena
	md          *fixedArrayMeta[T]
	capacity    int
	initialized int
}

// Push copies the next element into place. It panics when pushed past the
// reserved capacity.
func (in *FixedArrayInitializer[T]) Push(v T) {
	if in.initialized >= in.capacity {
		panic("memur: fixed array initializer pushed past capacity")
	}
	xunsafe.Store(in.md.data, in.initialized, v)
	in.initialized++
}

// Len returns how many elements have been initialized so far.
func (in *FixedArrayInitializer[T]) Len() int {
	return in.initialized
}

// Cap returns the reserved capacity.
func (in *FixedArrayInitializer[T]) Cap() int {
	return in.capacity
}

// Data exposes the raw element region for direct initialization. Pair it
// with [FixedArrayInitializer.InitializedToLen]; the caller is responsible
// for actually initializing the slots it claims.
func (in *FixedArrayInitializer[T]) Data() *T {
	return in.md.data
}

// InitializedToLen declares the first n slots initialized and finishes the
// array. It panics when n exceeds the reserved capacity. The initializer
// must not be used afterwards.
func (in *FixedArrayInitializer[T]) InitializedToLen(n int) *FixedArray[T] {
	if n > in.capacity {
		panic("memur: initialized length exceeds capacity")
	}
	in.md.len = n
	arr := &FixedArray[T]{arena: in.arena, md: in.md}
	in.arena = WeakArena{}
	in.md = nil
	return arr
}

// Finish finishes the array at however many elements were pushed. The
// initializer must not be used afterwards.
func (in *FixedArrayInitializer[T]) Finish() *FixedArray[T] {
	return in.InitializedToLen(in.initialized)
}
