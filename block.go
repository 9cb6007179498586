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
	"github.com/Nercury/memur/internal/layout"
	"github.com/Nercury/memur/internal/xunsafe"
)

// blockHeader is written in place at offset 0 of every block buffer.
type blockHeader struct {
	// next is the bump cursor: the offset of the next free byte. It starts
	// just past the header and only ever grows.
	next int

	// prev is the next-older block in the arena's chain, or zero for the
	// first block. This link lives in raw bytes; the pool's issued set is
	// what keeps the target visible to the GC.
	prev block
}

// blockHeaderSize is padded so that the bump cursor starts aligned for any
// Go type.
var blockHeaderSize = layout.RoundUp(layout.Size[blockHeader](), maxAlign)

// maxAlign is the largest alignment of any Go type.
const maxAlign = 8

// block is a handle to one pool buffer with its header initialized.
type block struct {
	data *byte
	size int
}

// newBlock wraps a buffer checked out of the pool, writing a fresh header
// over whatever the buffer held before.
func newBlock(buf []byte) block {
	if len(buf) < blockHeaderSize {
		panic("memur: block too small to hold its header")
	}
	b := block{data: &buf[0], size: len(buf)}
	*b.header() = blockHeader{next: blockHeaderSize}
	return b
}

func (b block) header() *blockHeader {
	return xunsafe.Cast[blockHeader](b.data)
}

func (b block) isZero() bool {
	return b.data == nil
}

// largestItemSize is the biggest single placement this block (and any other
// block of the same size) could ever serve.
func (b block) largestItemSize() int {
	return b.size - blockHeaderSize
}

// alloc reserves size bytes aligned to align and advances the cursor.
// It reports false when the block has too little space left; the caller
// decides whether to move on to a fresh block or to fail.
func (b block) alloc(size, align int) (*byte, bool) {
	start, remaining := b.remainingForAlign(align)
	if remaining < size {
		return nil, false
	}
	b.header().next = start + size
	return xunsafe.ByteAdd[byte](b.data, start), true
}

// remainingForAlign returns the aligned start the next placement would get
// and how many bytes remain from there to the end of the block. The
// remainder is negative when even the padding does not fit.
func (b block) remainingForAlign(align int) (start, remaining int) {
	hdr := b.header()
	start = hdr.next + layout.Padding(hdr.next, align)
	return start, b.size - start
}

// intoPreviousAndData detaches the back-link and returns it along with the
// raw buffer start, for the reclamation walk.
func (b block) intoPreviousAndData() (prev block, data *byte) {
	hdr := b.header()
	prev = hdr.prev
	hdr.prev = block{}
	return prev, b.data
}
