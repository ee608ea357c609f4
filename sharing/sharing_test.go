//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package sharing

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/markkurossi/smpc/prg"
	"github.com/markkurossi/smpc/ring"
	"github.com/markkurossi/smpc/tensor"
)

func TestSplitCombine(t *testing.T) {
	for _, bits := range []uint{8, 32, 64} {
		r, err := ring.New(bits)
		require.NoError(t, err)
		fp, err := ring.NewFixedPoint(r, 2, bits/4)
		require.NoError(t, err)

		secret, err := tensor.Encode(fp, tensor.Vector(1, -2.5, 3, 0))
		require.NoError(t, err)

		for n := 1; n <= 5; n++ {
			shares, err := Split(r, secret, n, rand.Reader)
			require.NoError(t, err)
			require.Len(t, shares, n)

			sum, err := Combine(r, shares)
			require.NoError(t, err)
			require.True(t, sum.Equal(secret), "bits=%d, n=%d", bits, n)

			if n == 1 {
				require.True(t, shares[0].Equal(secret))
			}
		}
	}
}

func TestSplitSeeded(t *testing.T) {
	r, err := ring.New(64)
	require.NoError(t, err)
	secret, err := tensor.FromData(tensor.Shape{2, 2}, []uint64{1, 2, 3, 4})
	require.NoError(t, err)

	split := func() []*tensor.Tensor {
		s, err := prg.NewStream(prg.DeriveKey("seed", []byte{1}), 0)
		require.NoError(t, err)
		shares, err := Split(r, secret, 3, s)
		require.NoError(t, err)
		return shares
	}
	a := split()
	b := split()
	for i := range a {
		require.True(t, a[i].Equal(b[i]))
	}

	_, err = Split(r, secret, 0, rand.Reader)
	require.Error(t, err)
	_, err = Combine(r, nil)
	require.Error(t, err)
}
