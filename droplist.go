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

import "github.com/Nercury/memur/internal/debug"

// maxDropItems is the capacity of one drop-list node. Nodes this large
// amortize the per-value registration cost and keep the records next to the
// data they destroy.
const maxDropItems = 1022

// DropFn is the destructor thunk ABI: data points at the first byte of a
// value inside a live block of the arena executing the thunk.
type DropFn func(data *byte)

// dropItem is one recorded destructor thunk.
type dropItem struct {
	fn   DropFn
	data *byte
}

// dropList is a fixed-capacity node of destructor records, chained into a
// singly-linked list across the arena's blocks.
//
// Drop lists and their records never move in memory. Slots [0, used) are
// occupied; execution clears slots as it goes so a record can never run
// twice.
type dropList struct {
	items [maxDropItems]dropItem
	next  *dropList
	used  uint16
}

// full reports whether the node has no free slots left.
func (l *dropList) full() bool {
	return int(l.used) == maxDropItems
}

// pushDrop records a thunk in the next free slot and reports whether this
// write filled the node. The caller links a fresh node before the next push.
func (l *dropList) pushDrop(fn DropFn, data *byte) bool {
	debug.Assert(!l.full(), "push to a full drop list")
	l.items[l.used] = dropItem{fn: fn, data: data}
	l.used++
	return l.full()
}

// executeDropChain runs every occupied slot of this node and all nodes
// linked after it, head to tail. Each slot is cleared right before its thunk
// runs, and links are severed as the walk advances, so a second call is a
// no-op.
func (l *dropList) executeDropChain() {
	for list := l; list != nil; {
		n := int(list.used)
		list.used = 0
		for i := 0; i < n; i++ {
			item := list.items[i]
			list.items[i] = dropItem{}
			if item.fn != nil {
				item.fn(item.data)
			}
		}
		next := list.next
		list.next = nil
		list = next
	}
}
