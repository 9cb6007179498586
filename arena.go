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
	"github.com/Nercury/memur/internal/debug"
	"github.com/Nercury/memur/internal/layout"
	"github.com/Nercury/memur/internal/xunsafe"
)

// Dropper is the optional destructor interface. A value placed with [Place]
// whose pointer type implements Dropper has Drop invoked exactly once when
// the arena's last strong handle is freed.
type Dropper interface {
	Drop()
}

// arenaMetadata is the arena's own bookkeeping, bump-placed into the first
// block right after the first drop-list node.
type arenaMetadata struct {
	mem       Memory
	lastBlock block
	firstDrop *dropList
	lastDrop  *dropList

	// Non-atomic on purpose: arena handles are bound to one goroutine.
	// totalRC counts every handle; strongRC only the strong ones.
	strongRC int64
	totalRC  int64

	// Goroutine that created the arena; checked by debug builds.
	owner int64
}

// anchorKey identifies this arena in the pool's keep-alive registry.
func (md *arenaMetadata) anchorKey() *byte {
	return xunsafe.Cast[byte](md)
}

func (md *arenaMetadata) log(op, format string, args ...any) {
	debug.Log([]any{"%p s%d/t%d", md, md.strongRC, md.totalRC}, op, format, args...)
}

// alloc reserves size bytes aligned to align in the last block, taking a
// fresh block from the pool when the current one has no room. The cursor
// only ever advances on success.
func (md *arenaMetadata) alloc(size, align int) (*byte, error) {
	p, ok := md.lastBlock.alloc(size, align)
	if ok {
		return p, nil
	}
	if size > md.lastBlock.largestItemSize() {
		return nil, itemDoesNotFit(size, md.lastBlock.largestItemSize())
	}

	md.grow()
	p, ok = md.lastBlock.alloc(size, align)
	if !ok {
		// The precheck above guarantees a fresh block fits the item.
		panic("memur: placement failed after acquiring the next block")
	}
	return p, nil
}

// grow links a fresh pool block as the new last block.
func (md *arenaMetadata) grow() {
	b := newBlock(md.mem.takeBlock())
	b.header().prev = md.lastBlock
	md.lastBlock = b
	md.log("grow", "%p, %d bytes", b.data, b.size)
}

// ensureDropSlot makes sure the last drop-list node has a free slot,
// linking a freshly placed empty node when it does not.
func (md *arenaMetadata) ensureDropSlot() error {
	debug.Assert(md.firstDrop != nil && md.lastDrop != nil, "drop chain present while alive")
	if !md.lastDrop.full() {
		return nil
	}

	p, err := md.alloc(layout.Size[dropList](), layout.Align[dropList]())
	if err != nil {
		return uploadError(errCodeDropListDoesNotFit)
	}
	next := xunsafe.Cast[dropList](p)
	*next = dropList{}
	md.lastDrop.next = next
	md.lastDrop = next
	return nil
}

// dropObjects executes the drop chain exactly once.
func (md *arenaMetadata) dropObjects() {
	if md.firstDrop == nil {
		return
	}
	md.log("drain", "")
	first := md.firstDrop
	md.firstDrop, md.lastDrop = nil, nil
	first.executeDropChain()
}

// reclaim walks the block chain tail to head, returning every buffer to the
// pool. The metadata lives in the first block, so it is gone once this
// returns; nothing may touch md afterwards.
func (md *arenaMetadata) reclaim() {
	md.log("reclaim", "")
	mem := md.mem
	key := md.anchorKey()
	b := md.lastBlock
	md.lastBlock = block{}
	for !b.isZero() {
		prev, data := b.intoPreviousAndData()
		mem.returnBlock(data)
		b = prev
	}
	mem.releaseAnchors(key)
}

// release drops one handle's worth of counts and runs the state machine:
// strong count reaching zero drains the drop chain, total count reaching
// zero returns the blocks.
func (md *arenaMetadata) release(strong bool) {
	if strong {
		md.strongRC--
		debug.Assert(md.strongRC >= 0, "strong refcount underflow")
		if md.strongRC == 0 {
			md.dropObjects()
		}
	}
	md.totalRC--
	debug.Assert(md.totalRC >= md.strongRC, "total refcount below strong refcount")
	if md.totalRC == 0 {
		md.reclaim()
	}
}

// Arena is a strong handle: while at least one strong handle is live, no
// placed value has been destroyed. Freeing the last strong handle runs all
// registered destructor thunks in registration order.
//
// Handles must stay on the goroutine that created the arena; clone the
// [Memory] pool handle instead to share memory across goroutines.
type Arena struct {
	md *arenaMetadata

	// A GC-visible copy of the pool handle. Every pointer out of md is
	// hidden inside block bytes, so the handle itself is what keeps the
	// pool, and through its issued set every block, reachable.
	mem Memory
}

// NewArena creates an arena on the given pool.
//
// The first block hosts, in order, an empty drop-list node and the arena
// metadata; construction fails with [ErrDropListDoesNotFit] or
// [ErrMetadataDoesNotFit] when the pool's block size cannot hold them. A
// block consumed by a failed construction stays checked out of the pool.
func NewArena(mem Memory) (Arena, error) {
	b := newBlock(mem.takeBlock())

	p, ok := b.alloc(layout.Size[dropList](), layout.Align[dropList]())
	if !ok {
		return Arena{}, uploadError(errCodeDropListDoesNotFit)
	}
	first := xunsafe.Cast[dropList](p)
	*first = dropList{}

	p, ok = b.alloc(layout.Size[arenaMetadata](), layout.Align[arenaMetadata]())
	if !ok {
		return Arena{}, uploadError(errCodeMetadataDoesNotFit)
	}
	md := xunsafe.Cast[arenaMetadata](p)
	*md = arenaMetadata{
		mem:       mem,
		lastBlock: b,
		firstDrop: first,
		lastDrop:  first,
		strongRC:  1,
		totalRC:   1,
		owner:     debug.Goid(),
	}

	md.log("new arena", "block %p", b.data)
	return Arena{md: md, mem: mem}, nil
}

// metadata returns the arena bookkeeping, enforcing handle discipline.
func (a *Arena) metadata() *arenaMetadata {
	md := a.md
	if md == nil {
		panic("memur: use of a freed Arena handle")
	}
	debug.Assert(md.owner == debug.Goid(), "arena handle used off its owning goroutine")
	return md
}

// Clone returns another strong handle to the same arena.
func (a *Arena) Clone() Arena {
	md := a.metadata()
	md.strongRC++
	md.totalRC++
	return Arena{md: md, mem: a.mem}
}

// Weak returns a weak handle: it keeps the memory readable but does not
// keep values from being destroyed.
func (a *Arena) Weak() WeakArena {
	md := a.metadata()
	md.totalRC++
	return WeakArena{md: md, mem: a.mem}
}

// Free drops this handle. Freeing the last strong handle executes the drop
// chain; freeing the last handle of any kind returns the arena's blocks to
// the pool. Free on an already-freed handle is a no-op.
func (a *Arena) Free() {
	if a.md == nil {
		return
	}
	md := a.metadata()
	a.md = nil
	md.release(true)
}

// KeepAlive pins v for the life of the arena.
//
// Use it when a placed value holds the only reference to a GC-managed
// object: bytes inside blocks are invisible to the garbage collector, so
// without an anchor the object could be swept while the arena still points
// at it.
func (a *Arena) KeepAlive(v any) {
	md := a.metadata()
	a.mem.keepAlive(md.anchorKey(), v)
}

// PlaceBytes copies b into the arena with byte alignment and returns a
// stable pointer to the first copied byte.
func (a *Arena) PlaceBytes(b []byte) (*byte, error) {
	md := a.metadata()
	p, err := md.alloc(len(b), 1)
	if err != nil {
		return nil, err
	}
	copy(xunsafe.Slice(p, len(b)), b)
	return p, nil
}

// RegisterDrop records a custom destructor thunk. data must point inside a
// currently-live block of this arena; fn runs when the last strong handle
// is freed, in registration order.
//
// fn is pinned for the life of the arena, so closures are safe to pass.
func (a *Arena) RegisterDrop(fn DropFn, data *byte) error {
	md := a.metadata()
	if err := md.ensureDropSlot(); err != nil {
		return err
	}
	md.lastDrop.pushDrop(fn, data)
	a.mem.keepAlive(md.anchorKey(), fn)
	return nil
}

// hasDrop reports whether *T implements [Dropper].
func hasDrop[T any]() bool {
	_, ok := any((*T)(nil)).(Dropper)
	return ok
}

// dropThunk is the default destructor thunk for T.
func dropThunk[T any](data *byte) {
	any(xunsafe.Cast[T](data)).(Dropper).Drop()
}

// placeIn copies v into the arena, optionally registering its destructor.
// Either everything succeeds, or the caller keeps its value and no thunk is
// recorded.
func placeIn[T any](md *arenaMetadata, v T, autoDrop bool) (*T, error) {
	autoDrop = autoDrop && hasDrop[T]()
	if autoDrop {
		// Reserve the drop slot up front so registration cannot fail after
		// the value has already moved into the arena.
		if err := md.ensureDropSlot(); err != nil {
			return nil, err
		}
	}

	bp, err := md.alloc(layout.Size[T](), layout.Align[T]())
	if err != nil {
		return nil, err
	}
	p := xunsafe.Cast[T](bp)
	*p = v

	if autoDrop {
		md.lastDrop.pushDrop(dropThunk[T], bp)
	}
	return p, nil
}

// Place copies v into the arena and registers its destructor: if *T
// implements [Dropper], Drop runs exactly once when the last strong handle
// is freed, after every value placed earlier and before every value placed
// later.
//
// The returned pointer is stable for the arena's lifetime. The caller must
// not use its own copy of v afterwards; the arena owns the value now.
func Place[T any](a *Arena, v T) (*T, error) {
	return placeIn(a.metadata(), v, true)
}

// PlaceNoDrop copies v into the arena without registering a destructor.
// The arena will never destroy the value; its bytes simply cease to exist
// when the memory is reclaimed.
func PlaceNoDrop[T any](a *Arena, v T) (*T, error) {
	return placeIn(a.metadata(), v, false)
}

// PlaceWeak is [Place] through a weak handle. It fails with
// [ErrArenaNotAlive] once the last strong handle is gone.
func PlaceWeak[T any](w *WeakArena, v T) (*T, error) {
	if !w.IsAlive() {
		return nil, uploadError(errCodeArenaNotAlive)
	}
	return placeIn(w.metadata(), v, true)
}

// AllocUninit reserves room for count values of T, stride bytes apart, and
// returns a pointer to the first slot. The region is aligned for T and
// uninitialized; no destructors are registered. stride must be at least T's
// size.
func AllocUninit[T any](a *Arena, count, stride int) (*T, error) {
	size := layout.Size[T]()
	if stride < size {
		panic("memur: AllocUninit stride smaller than the item")
	}

	md := a.metadata()
	p, err := md.alloc(count*stride, layout.Align[T]())
	if err != nil {
		return nil, err
	}
	return xunsafe.Cast[T](p), nil
}

// WeakArena is a weak handle: it keeps the arena's memory from returning to
// the pool but does not keep values alive. Once the last strong handle is
// freed, placements fail and destructor-registered values are gone, yet
// destructor-less bytes (such as a [UStr]) stay readable until the last
// weak handle is freed too.
type WeakArena struct {
	md  *arenaMetadata
	mem Memory
}

// metadata returns the arena bookkeeping, enforcing handle discipline.
func (w *WeakArena) metadata() *arenaMetadata {
	md := w.md
	if md == nil {
		panic("memur: use of a freed WeakArena handle")
	}
	debug.Assert(md.owner == debug.Goid(), "arena handle used off its owning goroutine")
	return md
}

// IsAlive reports whether the drop chain has not run yet, i.e. some strong
// handle still exists.
func (w *WeakArena) IsAlive() bool {
	return w.md != nil && w.md.strongRC > 0
}

// Clone returns another weak handle to the same arena.
func (w *WeakArena) Clone() WeakArena {
	md := w.metadata()
	md.totalRC++
	return WeakArena{md: md, mem: w.mem}
}

// Upgrade yields a strong handle if the arena is still alive.
func (w *WeakArena) Upgrade() (Arena, bool) {
	if !w.IsAlive() {
		return Arena{}, false
	}
	md := w.metadata()
	md.strongRC++
	md.totalRC++
	return Arena{md: md, mem: w.mem}, true
}

// Free drops this handle; the last handle of any kind returns the arena's
// blocks to the pool. Free on an already-freed handle is a no-op.
func (w *WeakArena) Free() {
	if w.md == nil {
		return
	}
	md := w.metadata()
	w.md = nil
	md.release(false)
}
