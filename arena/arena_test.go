// Copyright (c) 2024 The Anvil Contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.
package arena_test

import (
	"testing"

	"anvil/arena"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type point struct {
	X, Y int
}

func TestAllocResolve(t *testing.T) {
	a := arena.New()
	h := arena.Alloc(a, point{1, 2})
	p, ok := arena.Resolve(a, h)
	require.True(t, ok)
	assert.Equal(t, point{1, 2}, *p)
}

func TestHandleStabilityAcrossGrowth(t *testing.T) {
	// A handle obtained before a growth still resolves to the same
	// logical value after growth.
	a := arena.New()
	h0 := arena.Alloc(a, point{0, 0})

	var handles []arena.Handle[point]
	for i := 1; i < 100; i++ {
		handles = append(handles, arena.Alloc(a, point{i, i}))
	}

	p0, ok := arena.Resolve(a, h0)
	require.True(t, ok)
	assert.Equal(t, point{0, 0}, *p0)

	for i, h := range handles {
		p, ok := arena.Resolve(a, h)
		require.True(t, ok)
		assert.Equal(t, point{i + 1, i + 1}, *p)
	}
}

func TestResolveOutOfRangeIsNullEquivalent(t *testing.T) {
	a := arena.New()
	bogus := arena.Handle[point]{}
	_, ok := arena.Resolve(a, bogus)
	assert.False(t, ok)
}

func TestDestroyInvalidatesHandle(t *testing.T) {
	a := arena.New()
	destroyed := false
	h := arena.Alloc(a, point{3, 4})
	arena.RegisterDestructor(a, h, func() { destroyed = true })

	arena.Destroy(a, h)
	assert.True(t, destroyed)

	_, ok := arena.Resolve(a, h)
	assert.False(t, ok)
}

func TestCloseRunsRemainingDestructors(t *testing.T) {
	a := arena.New()
	count := 0
	for i := 0; i < 5; i++ {
		h := arena.Alloc(a, point{i, i})
		arena.RegisterDestructor(a, h, func() { count++ })
	}
	a.Close()
	assert.Equal(t, 5, count)
}
