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
	"math"
	"strings"

	"github.com/Nercury/memur/internal/xunsafe"
)

// MaxUStrLen is the longest string a [UStr] can hold, in bytes, not
// counting the trailing NUL.
const MaxUStrLen = math.MaxUint16 - 1

// UStr is a NUL-terminated UTF-8 string stored in an arena.
//
// It registers no destructor, so unlike destructor-carrying values it stays
// readable after the arena drains: the weak handle inside keeps the bytes
// until the string itself is freed. This is what makes it safe to hand the
// string out past the arena's lifetime.
type UStr struct {
	arena      WeakArena
	lenWithNUL uint16
	data       *byte
}

// NewUStr copies s into the arena with a trailing NUL byte.
//
// It fails with [ErrStringTooLong] past [MaxUStrLen] bytes and with
// [ErrStringContainsNUL] when s embeds a zero byte.
func NewUStr(a *Arena, s string) (*UStr, error) {
	if len(s) > MaxUStrLen {
		return nil, &errStringTooLong{length: len(s)}
	}
	if strings.IndexByte(s, 0) >= 0 {
		return nil, ErrStringContainsNUL
	}

	md := a.metadata()
	p, err := md.alloc(len(s)+1, 1)
	if err != nil {
		return nil, err
	}
	copy(xunsafe.Slice(p, len(s)), s)
	xunsafe.Store(p, len(s), byte(0))

	return &UStr{
		arena:      a.Weak(),
		lenWithNUL: uint16(len(s) + 1),
		data:       p,
	}, nil
}

// Len returns the string length in bytes, without the trailing NUL.
func (u *UStr) Len() int {
	if u.data == nil {
		return 0
	}
	return int(u.lenWithNUL) - 1
}

// String returns the stored text. It aliases arena memory, which the
// string's own weak handle keeps valid until [UStr.Free].
func (u *UStr) String() string {
	if u.data == nil {
		return ""
	}
	return xunsafe.String(u.data, u.Len())
}

// Bytes returns the stored bytes without the trailing NUL, aliasing arena
// memory.
func (u *UStr) Bytes() []byte {
	if u.data == nil {
		return nil
	}
	return xunsafe.Slice(u.data, u.Len())
}

// BytesWithNUL returns the stored bytes including the trailing NUL,
// aliasing arena memory. This is the shape a C-style consumer expects.
func (u *UStr) BytesWithNUL() []byte {
	if u.data == nil {
		return nil
	}
	return xunsafe.Slice(u.data, int(u.lenWithNUL))
}

// Equal reports whether two strings hold the same text, with a
// pointer-identity fast path for strings interned at the same address.
func (u *UStr) Equal(other *UStr) bool {
	if u.data == other.data {
		return true
	}
	return u.String() == other.String()
}

// Free releases the string's hold on arena memory. The bytes must not be
// read afterwards.
func (u *UStr) Free() {
	u.arena.Free()
	u.data = nil
	u.lenWithNUL = 0
}
