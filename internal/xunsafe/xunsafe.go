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

// Package xunsafe provides a more convenient interface for performing unsafe
// operations than Go's built-in package unsafe.
package xunsafe

import (
	"sync"
	"unsafe"

	"github.com/Nercury/memur/internal/layout"
)

// NoCopy is a type that go vet will complain about having been moved.
//
// It does so by implementing [sync.Locker].
type NoCopy [0]sync.Mutex

// Int is any integer type.
type Int = layout.Int

// BitCast performs an unsafe bitcast from one type to another.
func BitCast[To, From any](v From) To {
	return *(*To)(unsafe.Pointer(&v))
}

// Bytes returns the memory occupied by *p as a byte slice.
func Bytes[P ~*E, E any](p P) []byte {
	return unsafe.Slice(Cast[byte](p), layout.Size[E]())
}

// Slice constructs a slice from a pointer and a length.
func Slice[P ~*E, E any, I Int](p P, n I) []E {
	return unsafe.Slice((*E)(p), n)
}

// String constructs a string from a pointer and a length.
func String[I Int](p *byte, n I) string {
	return unsafe.String(p, n)
}
