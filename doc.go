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

// Package memur is a grow-only bump-allocating arena with deterministic,
// batched destruction of stored values.
//
// Values of arbitrary types are copied into fixed-size memory blocks checked
// out of a shared, thread-safe [Memory] pool. Pointers returned by placement
// are stable for the arena's whole lifetime: blocks are never resized, moved,
// or compacted. When the last strong [Arena] handle is freed, the arena runs
// a recorded chain of destructor thunks in insertion order; when the last
// handle of any kind is freed, its blocks return to the pool.
//
// # Handles
//
// An [Arena] is a strong handle: it keeps stored values un-destroyed. A
// [WeakArena] keeps only the memory alive, which is how a [UStr] can remain
// readable after the arena has drained. Go has no destructors, so dropping a
// handle in the classical sense is an explicit call to Free; values placed
// with [Place] get their optional [Dropper.Drop] invoked exactly once by the
// drop chain.
//
// Arena handles are bound to the goroutine that created the arena. Only the
// [Memory] pool may be shared across goroutines.
//
// # Design
//
// All arena bookkeeping (the drop-list nodes, the arena metadata itself)
// is bump-allocated into the arena's own blocks, so every link between
// blocks is invisible to the garbage collector. Three things keep this
// sound:
//
//   - the pool retains every buffer it has issued until the buffer is
//     returned, so taken blocks are always GC-reachable;
//   - every handle carries a copy of the pool handle, so the pool (and
//     through it, every block) stays reachable while any handle lives;
//   - [Arena.KeepAlive] anchors GC-managed values that placed data points
//     to, for as long as the arena holds memory.
//
// Placed values must not be observed through their original source after
// placement: the arena owns the bytes from that point on.
package memur
