//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package ring

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestRingArithmetic(t *testing.T) {
	r, err := New(64)
	require.NoError(t, err)

	require.Equal(t, uint64(0), r.Add(math.MaxUint64, 1))
	require.Equal(t, uint64(math.MaxUint64), r.Sub(0, 1))
	require.Equal(t, int64(-1), r.Signed(r.Neg(1)))
	require.Equal(t, uint64(6), r.Mul(2, 3))

	r8, err := New(8)
	require.NoError(t, err)
	require.Equal(t, uint64(0xff), r8.Mask())
	require.Equal(t, uint64(4), r8.Add(250, 10))
	require.Equal(t, int64(-6), r8.Signed(250))
	require.Equal(t, int64(127), r8.Signed(127))
	require.Equal(t, int64(-128), r8.Signed(128))
	require.Equal(t, uint64(0xfb), r8.FromSigned(-5))
	require.Equal(t, "Z/2⁸", r8.String())
}

func TestRingInvalid(t *testing.T) {
	_, err := New(0)
	require.Error(t, err)
	_, err = New(65)
	require.Error(t, err)
}

func TestDivSigned(t *testing.T) {
	r, err := New(64)
	require.NoError(t, err)

	tests := []struct {
		x, d uint64
		want int64
	}{
		{r.FromSigned(10), 4, 2},
		{r.FromSigned(-10), 4, -3},
		{r.FromSigned(-8), 4, -2},
		{r.FromSigned(0), 7, 0},
	}
	for _, test := range tests {
		require.Equal(t, test.want, r.Signed(r.DivSigned(test.x, test.d)),
			"%d/%d", r.Signed(test.x), test.d)
	}
}

func TestFixedPointRoundTrip(t *testing.T) {
	r, err := New(64)
	require.NoError(t, err)

	for _, params := range [][2]uint{{2, 16}, {10, 4}, {2, 0}} {
		fp, err := NewFixedPoint(r, params[0], params[1])
		require.NoError(t, err)

		for _, v := range []float64{0, 1, -1, 42.5, -32.25, 0.1, 1234.5678} {
			x, err := fp.Encode(v)
			require.NoError(t, err)
			require.InDelta(t, v, fp.Decode(x), fp.Quantum(), "%v %v", fp, v)

			// Decoding a ring element produced by Encode is exact.
			y, err := fp.Encode(fp.Decode(x))
			require.NoError(t, err)
			require.Equal(t, x, y)
		}
	}
}

func TestFixedPointRounding(t *testing.T) {
	r, err := New(64)
	require.NoError(t, err)
	fp, err := NewFixedPoint(r, 10, 1)
	require.NoError(t, err)

	x, err := fp.Encode(0.25)
	require.NoError(t, err)
	require.Equal(t, int64(3), r.Signed(x))

	x, err = fp.Encode(-0.25)
	require.NoError(t, err)
	require.Equal(t, int64(-3), r.Signed(x))

	require.Equal(t, -0.3, fp.Decode(x))
	require.Equal(t, x, fp.EncodeDecimal(decimal.RequireFromString("-0.25")))
}

func TestFixedPointNegativeWrap(t *testing.T) {
	r, err := New(16)
	require.NoError(t, err)
	fp, err := NewFixedPoint(r, 2, 4)
	require.NoError(t, err)

	x, err := fp.Encode(-5)
	require.NoError(t, err)
	require.Equal(t, uint64(0x10000-80), x)
	require.Equal(t, -5.0, fp.Decode(x))

	// Out of range values wrap instead of saturating.
	x, err = fp.Encode(4096)
	require.NoError(t, err)
	require.Equal(t, uint64(0), x)
}

func TestFixedPointNonFinite(t *testing.T) {
	r, err := New(64)
	require.NoError(t, err)
	fp, err := NewFixedPoint(r, 2, 16)
	require.NoError(t, err)

	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := fp.Encode(v)
		var encErr *EncodingError
		require.ErrorAs(t, err, &encErr)
	}
}

func TestFixedPointLimits(t *testing.T) {
	r, err := New(16)
	require.NoError(t, err)

	_, err = NewFixedPoint(r, 2, 15)
	require.Error(t, err)
	_, err = NewFixedPoint(r, 1, 4)
	require.Error(t, err)
	_, err = NewFixedPoint(r, 2, 14)
	require.NoError(t, err)
}

func TestTruncate(t *testing.T) {
	r, err := New(64)
	require.NoError(t, err)
	fp, err := NewFixedPoint(r, 2, 16)
	require.NoError(t, err)

	a, err := fp.Encode(1.5)
	require.NoError(t, err)
	b, err := fp.Encode(-2.25)
	require.NoError(t, err)

	require.Equal(t, -3.375, fp.Decode(fp.Truncate(r.Mul(a, b))))
	c, err := fp.Encode(3)
	require.NoError(t, err)
	require.Equal(t, 3.0, fp.Decode(fp.Truncate(r.Mul(c, fp.Scale()))))
}
