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
package apint_test

import (
	"testing"

	"anvil/apint"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecimalUnsigned(t *testing.T) {
	// FromUint64(32, false, 5) prints "5".
	x := apint.FromUint64(32, false, 5)
	assert.Equal(t, "5", x.Decimal())
}

func TestDecimalFromBinaryString(t *testing.T) {
	// Unsigned binary "11111111" with bits=8 prints decimal "255".
	x, err := apint.FromBinaryString("11111111", 8, false)
	require.NoError(t, err)
	assert.Equal(t, "255", x.Decimal())
}

func TestDecimalSignedNegative(t *testing.T) {
	// Signed 8-bit 11111111 prints "-1".
	x, err := apint.FromBinaryString("11111111", 8, true)
	require.NoError(t, err)
	assert.Equal(t, "-1", x.Decimal())
}

func TestMaskingInvariantAfterEveryMutator(t *testing.T) {
	x := apint.FromUint64(8, false, 0xFF)
	cases := []apint.Int{
		x.Add(apint.FromUint64(8, false, 1)),
		x.Sub(apint.FromUint64(8, false, 1)),
		x.ShiftLeft(3),
		x.ShiftRight(1),
		x.Not(),
		x.Negate(),
		x.Or(apint.FromUint64(8, false, 0xAA)),
		x.And(apint.FromUint64(8, false, 0x55)),
	}
	for _, c := range cases {
		for i := c.Width(); i < 64; i++ {
			assert.False(t, c.GetBit(i), "bit %d must be masked off for width %d", i, c.Width())
		}
	}
}

func TestSetBitRoundTrip(t *testing.T) {
	x := apint.Zero(16, false)
	x.SetBit(0, true)
	x.SetBit(15, true)
	assert.True(t, x.GetBit(0))
	assert.True(t, x.GetBit(15))
	assert.False(t, x.GetBit(1))
}

func TestHeapLimbWidthArithmetic(t *testing.T) {
	x := apint.FromUint64(128, false, 0xFFFFFFFFFFFFFFFF)
	y := x.AddUint64(1)
	assert.Equal(t, "18446744073709551616", y.Decimal())
}

func TestEqual(t *testing.T) {
	a := apint.FromUint64(32, false, 42)
	b := apint.FromUint64(32, false, 42)
	c := apint.FromUint64(32, false, 43)
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestFromHexString(t *testing.T) {
	x, err := apint.FromString("FF", 16, 16, false)
	require.NoError(t, err)
	assert.Equal(t, "255", x.Decimal())
}
