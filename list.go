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

import "iter"

// listSlots is the pointer capacity of one list sequence block.
const listSlots = 32

// partialSequence is one block of element pointers, chained across arena
// allocations. Sequences have no destructor of their own; element
// destructors are registered on the arena drop list at push time.
type partialSequence[T any] struct {
	items [listSlots]*T
	next  *partialSequence[T]
	used  uint16
}

// List is a growable, append-only, non-contiguous list of arena-placed
// values. No removal, no random access; iteration follows insertion order.
type List[T any] struct {
	arena WeakArena
	len   int
	first *partialSequence[T]
	last  *partialSequence[T]
}

// NewList creates an empty list in the arena.
func NewList[T any](a *Arena) (*List[T], error) {
	seq, err := PlaceNoDrop(a, partialSequence[T]{})
	if err != nil {
		return nil, err
	}
	return &List[T]{arena: a.Weak(), first: seq, last: seq}, nil
}

// Push places v in the arena, registers its destructor with the arena drop
// chain, and appends its pointer to the tail sequence, starting a new
// sequence when the tail is full.
func (l *List[T]) Push(v T) error {
	strong, ok := l.arena.Upgrade()
	if !ok {
		return uploadError(errCodeArenaNotAlive)
	}
	defer strong.Free()

	if int(l.last.used) == listSlots {
		seq, err := PlaceNoDrop(&strong, partialSequence[T]{})
		if err != nil {
			return err
		}
		l.last.next = seq
		l.last = seq
	}

	p, err := Place(&strong, v)
	if err != nil {
		return err
	}
	l.last.items[l.last.used] = p
	l.last.used++
	l.len++
	return nil
}

// Len returns the number of values pushed. The count lives in the handle,
// so it survives the arena draining; iteration just comes up empty then.
func (l *List[T]) Len() int {
	return l.len
}

// Iter iterates the values in insertion order. The sequence is empty once
// the arena has drained.
func (l *List[T]) Iter() iter.Seq[*T] {
	return func(yield func(*T) bool) {
		if !l.arena.IsAlive() {
			return
		}
		for seq := l.first; seq != nil; seq = seq.next {
			for i := 0; i < int(seq.used); i++ {
				if !yield(seq.items[i]) {
					return
				}
			}
		}
	}
}

// Free drops the list's handle on the arena. The values themselves are
// destroyed by the arena, not by Free.
func (l *List[T]) Free() {
	l.arena.Free()
}
