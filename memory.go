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
	"sync"

	"github.com/Nercury/memur/internal/debug"
)

// DefaultBlockSize is the default size of a pool block (64 KiB).
const DefaultBlockSize = 1 << 16

const (
	defaultMinFreeBlocks = 2
	defaultMaxFreeBlocks = 4
)

// memoryOptions is the pool configuration collected by [MemoryOption].
type memoryOptions struct {
	blockSize int
	minFree   int // refill kicks in when the free list drops below this
	maxFree   int // refill and cleanup both target this
}

// MemoryOption is a configuration setting for [NewMemory].
type MemoryOption struct{ apply func(*memoryOptions) }

// WithBlockSize sets the size of newly allocated blocks.
//
// Make it considerably bigger than any value you intend to store; a value
// that cannot fit in a single block fails placement with
// [ErrItemDoesNotFit].
func WithBlockSize(size int) MemoryOption {
	return MemoryOption{func(o *memoryOptions) {
		if size > 0 {
			o.blockSize = size
		}
	}}
}

// WithFreeBlockBounds sets the free-list water marks.
//
// The pool allocates maxFree blocks up front. Whenever the free list drops
// below minFree, it is refilled up to maxFree. Returned blocks can grow the
// free list past maxFree; nothing is released until [Memory.Cleanup].
func WithFreeBlockBounds(minFree, maxFree int) MemoryOption {
	return MemoryOption{func(o *memoryOptions) {
		o.minFree = max(minFree, 0)
		o.maxFree = max(maxFree, o.minFree)
	}}
}

// memoryInstance is the shared state behind a [Memory] handle.
type memoryInstance struct {
	mu   sync.Mutex
	opts memoryOptions
	free [][]byte

	// Blocks currently checked out, keyed by their first byte. Arenas chain
	// blocks through pointers hidden inside raw bytes, so this set is what
	// keeps issued blocks visible to the garbage collector.
	issued map[*byte][]byte

	// Extra values pinned per arena by KeepAlive, keyed by the arena
	// metadata address. Released when the arena reclaims its memory.
	anchors map[*byte][]any
}

// Memory is a shared pool of equally-sized memory blocks.
//
// The handle is cheap to copy and safe to use from multiple goroutines;
// all operations serialize on an internal mutex. The pool never releases
// memory on its own; call [Memory.Cleanup] when convenient.
type Memory struct {
	shared *memoryInstance
}

// NewMemory creates a block pool and pre-allocates its free blocks.
func NewMemory(opts ...MemoryOption) Memory {
	o := memoryOptions{
		blockSize: DefaultBlockSize,
		minFree:   defaultMinFreeBlocks,
		maxFree:   defaultMaxFreeBlocks,
	}
	for _, opt := range opts {
		opt.apply(&o)
	}

	m := &memoryInstance{
		opts:    o,
		free:    make([][]byte, 0, max(o.maxFree, 1)),
		issued:  make(map[*byte][]byte),
		anchors: make(map[*byte][]any),
	}
	for len(m.free) < o.maxFree {
		m.free = append(m.free, make([]byte, o.blockSize))
	}
	return Memory{shared: m}
}

// refill tops the free list up to maxFree if it dropped below minFree.
// Called with mu held.
func (m *memoryInstance) refill() {
	if len(m.free) < m.opts.minFree {
		for len(m.free) < m.opts.maxFree {
			m.free = append(m.free, make([]byte, m.opts.blockSize))
		}
	}
}

// Cleanup drops free blocks above the maxFree water mark and returns the
// number of bytes released.
func (m Memory) Cleanup() int {
	i := m.shared
	i.mu.Lock()
	defer i.mu.Unlock()

	released := 0
	for len(i.free) > i.opts.maxFree {
		released += len(i.free[0])
		i.free = i.free[1:]
	}
	return released
}

// MemoryStats is a snapshot of pool state.
type MemoryStats struct {
	FreeBlocks   int // blocks on the free list
	IssuedBlocks int // blocks currently checked out by arenas
	BlockSize    int // size of a newly allocated block
}

// Stats returns a snapshot of pool state.
func (m Memory) Stats() MemoryStats {
	i := m.shared
	i.mu.Lock()
	defer i.mu.Unlock()

	return MemoryStats{
		FreeBlocks:   len(i.free),
		IssuedBlocks: len(i.issued),
		BlockSize:    i.opts.blockSize,
	}
}

// BlockSize returns the size of blocks issued by this pool.
func (m Memory) BlockSize() int {
	return m.shared.opts.blockSize
}

// takeBlock checks a block out of the pool, refilling the free list first
// if it ran low.
func (m Memory) takeBlock() []byte {
	i := m.shared
	i.mu.Lock()
	defer i.mu.Unlock()

	i.refill()
	if len(i.free) == 0 {
		// Water marks of zero: serve the request directly.
		i.free = append(i.free, make([]byte, i.opts.blockSize))
	}

	buf := i.free[len(i.free)-1]
	i.free = i.free[:len(i.free)-1]
	i.issued[&buf[0]] = buf

	debug.Log(nil, "take block", "%p, %d free", &buf[0], len(i.free))
	return buf
}

// returnBlock checks a block back into the pool by its first byte.
func (m Memory) returnBlock(data *byte) {
	i := m.shared
	i.mu.Lock()
	defer i.mu.Unlock()

	buf, ok := i.issued[data]
	debug.Assert(ok, "returned block %p was not issued by this pool", data)
	if !ok {
		return
	}
	delete(i.issued, data)
	i.free = append(i.free, buf)

	debug.Log(nil, "return block", "%p, %d free", data, len(i.free))
}

// keepAlive pins v for the lifetime of the arena identified by owner.
func (m Memory) keepAlive(owner *byte, v any) {
	i := m.shared
	i.mu.Lock()
	defer i.mu.Unlock()
	i.anchors[owner] = append(i.anchors[owner], v)
}

// releaseAnchors drops everything pinned for owner.
func (m Memory) releaseAnchors(owner *byte) {
	i := m.shared
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.anchors, owner)
}
