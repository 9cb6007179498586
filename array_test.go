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

func TestArrayPushPop(t *testing.T) {
	t.Parallel()

	mem := memur.NewMemory()
	arena, err := memur.NewArena(mem)
	require.NoError(t, err)
	defer arena.Free()

	arr, err := memur.NewArray[int](&arena)
	require.NoError(t, err)
	defer arr.Free()

	for i := 0; i < 5; i++ {
		require.NoError(t, arr.Push(i))
	}
	assert.Equal(t, 5, arr.Len())

	for i := 4; i >= 0; i-- {
		v, ok := arr.Pop()
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
	assert.Zero(t, arr.Len())
	_, ok := arr.Pop()
	assert.False(t, ok)
}

func TestArrayGrowthKeepsElementPointers(t *testing.T) {
	t.Parallel()

	mem := memur.NewMemory()
	arena, err := memur.NewArena(mem)
	require.NoError(t, err)
	defer arena.Free()

	arr, err := memur.NewArrayWithCapacity[int](&arena, 2)
	require.NoError(t, err)
	defer arr.Free()

	var ptrs []*int
	for i := 0; i < 40; i++ {
		require.NoError(t, arr.Push(i))
		ptrs = append(ptrs, arr.At(i))
	}
	assert.GreaterOrEqual(t, arr.Cap(), 40)

	// Growth moves the pointer table, never the elements.
	for i, p := range ptrs {
		assert.Same(t, p, arr.At(i))
		assert.Equal(t, i, *p)
	}
}

func TestArrayPushPopDrop(t *testing.T) {
	t.Parallel()

	mem := memur.NewMemory()
	arena, err := memur.NewArena(mem)
	require.NoError(t, err)

	log := &dropLog{}
	arr, err := memur.NewArray[flagged](&arena)
	require.NoError(t, err)
	defer arr.Free()

	for i := 0; i < 5; i++ {
		require.NoError(t, arr.Push(flagged{name: fmt.Sprintf("%d", i), log: log}))
	}

	// Popped values belong to the caller; the arena forgets them.
	_, ok := arr.Pop()
	require.True(t, ok)
	_, ok = arr.Pop()
	require.True(t, ok)

	arena.Free()
	assert.Equal(t, []string{"0", "1", "2"}, log.entries)
}

func TestArrayAfterDrain(t *testing.T) {
	t.Parallel()

	mem := memur.NewMemory()
	arena, err := memur.NewArena(mem)
	require.NoError(t, err)

	arr, err := memur.NewArray[int](&arena)
	require.NoError(t, err)
	defer arr.Free()
	require.NoError(t, arr.Push(1))

	arena.Free()

	assert.Zero(t, arr.Len())
	assert.Zero(t, arr.Cap())
	assert.ErrorIs(t, arr.Push(2), memur.ErrArenaNotAlive)
	_, ok := arr.Pop()
	assert.False(t, ok)
	for range arr.Iter() {
		t.Fatal("iteration over a drained arena must yield nothing")
	}
}

func TestCollectArray(t *testing.T) {
	t.Parallel()

	mem := memur.NewMemory()
	arena, err := memur.NewArena(mem)
	require.NoError(t, err)
	defer arena.Free()

	arr, err := memur.CollectArray(&arena, slices.Values([]string{"x", "y", "z"}))
	require.NoError(t, err)
	defer arr.Free()

	assert.Equal(t, []string{"x", "y", "z"}, arr.ToSlice())
}
