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

import "github.com/Nercury/memur/internal/xunsafe"

// cellValue is the in-arena wrapper around a cell's value. outlives is a
// chain of extra destructor records executed before the value's own drop.
type cellValue[T any] struct {
	value    T
	outlives *outlivesNode
}

// outlivesNode is one extra destructor record, placed in the same arena as
// the cell that owns it.
type outlivesNode struct {
	fn   DropFn
	data *byte
	next *outlivesNode
}

// Cell is a handle to a single value stored in an arena.
//
// The cell holds a weak handle, so a cell stored inside another arena value
// does not keep its arena alive. Call Free when the handle is no longer
// needed.
type Cell[T any] struct {
	arena WeakArena
	ptr   *cellValue[T]
}

// cellDrop destroys a cell wrapper: first the outlives chain, head to tail,
// then the value itself. Records are cleared as they run.
func cellDrop[T any](data *byte) {
	cv := xunsafe.Cast[cellValue[T]](data)
	for n := cv.outlives; n != nil; {
		fn, d, next := n.fn, n.data, n.next
		n.fn, n.data, n.next = nil, nil, nil
		if fn != nil {
			fn(d)
		}
		n = next
	}
	cv.outlives = nil
	if d, ok := any(&cv.value).(Dropper); ok {
		d.Drop()
	}
}

// NewCell places v in the arena and registers its destruction with the drop
// chain.
func NewCell[T any](a *Arena, v T) (*Cell[T], error) {
	md := a.metadata()
	if err := md.ensureDropSlot(); err != nil {
		return nil, err
	}
	cv, err := placeIn(md, cellValue[T]{value: v}, false)
	if err != nil {
		return nil, err
	}
	md.lastDrop.pushDrop(cellDrop[T], xunsafe.Cast[byte](cv))
	return &Cell[T]{arena: a.Weak(), ptr: cv}, nil
}

// Get returns the stored value while the arena is alive.
func (c *Cell[T]) Get() (*T, bool) {
	if !c.arena.IsAlive() {
		return nil, false
	}
	return &c.ptr.value, true
}

// Free drops the cell's handle on the arena. The value itself is destroyed
// by the arena, not by Free.
func (c *Cell[T]) Free() {
	c.arena.Free()
}

// Outlives places v in the cell's arena and arranges for it to be destroyed
// right before the cell's own value, regardless of the order either was
// placed. Repeated calls stack: the most recent outlived value is destroyed
// first.
//
// The returned cell has no drop-chain record of its own; its destruction
// rides on c's.
func Outlives[T, O any](c *Cell[T], v O) (*Cell[O], error) {
	strong, ok := c.arena.Upgrade()
	if !ok {
		return nil, uploadError(errCodeArenaNotAlive)
	}
	defer strong.Free()
	md := strong.metadata()

	cv, err := placeIn(md, cellValue[O]{value: v}, false)
	if err != nil {
		return nil, err
	}
	node, err := placeIn(md, outlivesNode{
		fn:   cellDrop[O],
		data: xunsafe.Cast[byte](cv),
		next: c.ptr.outlives,
	}, false)
	if err != nil {
		return nil, err
	}
	c.ptr.outlives = node

	return &Cell[O]{arena: strong.Weak(), ptr: cv}, nil
}
