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

package memur_test

import (
	"fmt"

	"github.com/Nercury/memur"
)

type connection struct {
	addr string
}

func (c *connection) Drop() {
	fmt.Println("closing", c.addr)
}

// Place values in an arena; freeing the last strong handle destroys them in
// placement order.
func Example() {
	mem := memur.NewMemory()
	arena, err := memur.NewArena(mem)
	if err != nil {
		panic(err)
	}

	for _, addr := range []string{"10.0.0.1", "10.0.0.2"} {
		if _, err := memur.Place(&arena, connection{addr: addr}); err != nil {
			panic(err)
		}
	}

	arena.Free()
	// Output:
	// closing 10.0.0.1
	// closing 10.0.0.2
}

// Outlives inverts destruction order for values that depend on each other.
func ExampleOutlives() {
	mem := memur.NewMemory()
	arena, err := memur.NewArena(mem)
	if err != nil {
		panic(err)
	}

	pool, err := memur.NewCell(&arena, connection{addr: "pool"})
	if err != nil {
		panic(err)
	}
	defer pool.Free()

	// The session must be gone before the pool it came from.
	session, err := memur.Outlives(pool, connection{addr: "session"})
	if err != nil {
		panic(err)
	}
	defer session.Free()

	arena.Free()
	// Output:
	// closing session
	// closing pool
}

// A UStr stays readable after the arena drains, because reclamation waits
// for the string's own weak handle.
func ExampleUStr() {
	mem := memur.NewMemory()
	arena, err := memur.NewArena(mem)
	if err != nil {
		panic(err)
	}

	s, err := memur.NewUStr(&arena, "Hello")
	if err != nil {
		panic(err)
	}

	arena.Free()
	fmt.Println(s.String())

	s.Free()
	// Output:
	// Hello
}
