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
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nercury/memur"
)

func TestListPushAndIterate(t *testing.T) {
	t.Parallel()

	mem := memur.NewMemory()
	arena, err := memur.NewArena(mem)
	require.NoError(t, err)
	defer arena.Free()

	list, err := memur.NewList[int](&arena)
	require.NoError(t, err)
	defer list.Free()

	for i := 1; i <= 5; i++ {
		require.NoError(t, list.Push(i))
	}
	assert.Equal(t, 5, list.Len())

	want := 1
	for p := range list.Iter() {
		assert.Equal(t, want, *p)
		want++
	}
	assert.Equal(t, 6, want)
}

func TestListSpansManySequences(t *testing.T) {
	t.Parallel()

	mem := memur.NewMemory()
	arena, err := memur.NewArena(mem)
	require.NoError(t, err)
	defer arena.Free()

	list, err := memur.NewList[int](&arena)
	require.NoError(t, err)
	defer list.Free()

	// Three full 32-slot sequences and change.
	const n = 32*3 + 5
	for i := 0; i < n; i++ {
		require.NoError(t, list.Push(i))
	}
	assert.Equal(t, n, list.Len())

	i := 0
	for p := range list.Iter() {
		assert.Equal(t, i, *p, "at index %d", i)
		i++
	}
	assert.Equal(t, n, i)
}

func TestListElementsDropInInsertionOrder(t *testing.T) {
	t.Parallel()

	mem := memur.NewMemory()
	arena, err := memur.NewArena(mem)
	require.NoError(t, err)

	log := &dropLog{}
	list, err := memur.NewList[flagged](&arena)
	require.NoError(t, err)
	defer list.Free()

	const n = 40
	for i := 0; i < n; i++ {
		require.NoError(t, list.Push(flagged{name: fmt.Sprintf("%d", i), log: log}))
	}

	arena.Free()
	require.Len(t, log.entries, n)
	for i, name := range log.entries {
		assert.Equal(t, fmt.Sprintf("%d", i), name)
	}
}

func TestListAfterDrain(t *testing.T) {
	t.Parallel()

	mem := memur.NewMemory()
	arena, err := memur.NewArena(mem)
	require.NoError(t, err)

	list, err := memur.NewList[int](&arena)
	require.NoError(t, err)
	defer list.Free()
	require.NoError(t, list.Push(1))
	require.NoError(t, list.Push(2))

	arena.Free()

	// The handle's count survives; the iterator short-circuits.
	assert.Equal(t, 2, list.Len())
	for range list.Iter() {
		t.Fatal("iteration over a drained arena must yield nothing")
	}
	assert.ErrorIs(t, list.Push(3), memur.ErrArenaNotAlive)
}

func TestCollectList(t *testing.T) {
	t.Parallel()

	mem := memur.NewMemory()
	arena, err := memur.NewArena(mem)
	require.NoError(t, err)
	defer arena.Free()

	list, err := memur.CollectList(&arena, slices.Values([]int{10, 20, 30}))
	require.NoError(t, err)
	defer list.Free()

	got := make([]int, 0, 3)
	for p := range list.Iter() {
		got = append(got, *p)
	}
	assert.Equal(t, []int{10, 20, 30}, got)
}
