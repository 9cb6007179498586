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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nercury/memur"
)

func TestCellHoldsValueWhileAlive(t *testing.T) {
	t.Parallel()

	mem := memur.NewMemory()
	arena, err := memur.NewArena(mem)
	require.NoError(t, err)

	cell, err := memur.NewCell(&arena, 41)
	require.NoError(t, err)
	defer cell.Free()

	v, ok := cell.Get()
	require.True(t, ok)
	*v++
	v, ok = cell.Get()
	require.True(t, ok)
	assert.Equal(t, 42, *v)

	arena.Free()
	_, ok = cell.Get()
	assert.False(t, ok, "the value is gone once the arena drains")
}

func TestOutlivesReordersDestruction(t *testing.T) {
	t.Parallel()

	mem := memur.NewMemory()
	arena, err := memur.NewArena(mem)
	require.NoError(t, err)

	log := &dropLog{}
	a, err := memur.NewCell(&arena, flagged{name: "a", log: log})
	require.NoError(t, err)
	defer a.Free()

	b, err := memur.Outlives(a, flagged{name: "b", log: log})
	require.NoError(t, err)
	defer b.Free()

	arena.Free()
	assert.Equal(t, []string{"b", "a"}, log.entries)
}

func TestOutlivesStacksMostRecentFirst(t *testing.T) {
	t.Parallel()

	mem := memur.NewMemory()
	arena, err := memur.NewArena(mem)
	require.NoError(t, err)

	log := &dropLog{}
	a, err := memur.NewCell(&arena, flagged{name: "a", log: log})
	require.NoError(t, err)
	defer a.Free()

	b, err := memur.Outlives(a, flagged{name: "b", log: log})
	require.NoError(t, err)
	defer b.Free()
	c, err := memur.Outlives(a, flagged{name: "c", log: log})
	require.NoError(t, err)
	defer c.Free()

	arena.Free()
	assert.Equal(t, []string{"c", "b", "a"}, log.entries)
}

func TestOutlivesIgnoresPlacementOrder(t *testing.T) {
	t.Parallel()

	mem := memur.NewMemory()
	arena, err := memur.NewArena(mem)
	require.NoError(t, err)

	// Insertion order alone would destroy "early" first; outlives flips
	// the pair without disturbing anything else.
	log := &dropLog{}
	early, err := memur.NewCell(&arena, flagged{name: "early", log: log})
	require.NoError(t, err)
	defer early.Free()
	_, err = memur.Place(&arena, flagged{name: "middle", log: log})
	require.NoError(t, err)
	late, err := memur.Outlives(early, flagged{name: "late", log: log})
	require.NoError(t, err)
	defer late.Free()

	arena.Free()
	assert.Equal(t, []string{"late", "early", "middle"}, log.entries)
}

func TestOutlivesOnDrainedArena(t *testing.T) {
	t.Parallel()

	mem := memur.NewMemory()
	arena, err := memur.NewArena(mem)
	require.NoError(t, err)

	log := &dropLog{}
	cell, err := memur.NewCell(&arena, flagged{name: "a", log: log})
	require.NoError(t, err)
	defer cell.Free()

	arena.Free()
	_, err = memur.Outlives(cell, flagged{name: "b", log: log})
	assert.ErrorIs(t, err, memur.ErrArenaNotAlive)
}

func TestOutlivedCellIsReadable(t *testing.T) {
	t.Parallel()

	mem := memur.NewMemory()
	arena, err := memur.NewArena(mem)
	require.NoError(t, err)
	defer arena.Free()

	a, err := memur.NewCell(&arena, "owner")
	require.NoError(t, err)
	defer a.Free()

	b, err := memur.Outlives(a, "dependency")
	require.NoError(t, err)
	defer b.Free()

	v, ok := b.Get()
	require.True(t, ok)
	assert.Equal(t, "dependency", *v)
}
