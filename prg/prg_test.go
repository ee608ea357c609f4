//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package prg

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/markkurossi/smpc/ring"
	"github.com/markkurossi/smpc/tensor"
)

func TestStream(t *testing.T) {
	key := DeriveKey("test", []byte("seed"))
	require.Len(t, key, KeySize)

	read := func(nonce uint64) []byte {
		s, err := NewStream(key, nonce)
		require.NoError(t, err)
		buf := make([]byte, 100)
		_, err = s.Read(buf)
		require.NoError(t, err)
		return buf
	}
	require.Equal(t, read(1), read(1))
	require.NotEqual(t, read(1), read(2))

	_, err := NewStream(key[:16], 0)
	require.Error(t, err)
}

func TestDeriveKey(t *testing.T) {
	a := DeriveKey("ctx", []byte("ab"), []byte("c"))
	b := DeriveKey("ctx", []byte("a"), []byte("bc"))
	c := DeriveKey("other", []byte("ab"), []byte("c"))

	require.False(t, bytes.Equal(a, b))
	require.False(t, bytes.Equal(a, c))
	require.Equal(t, a, DeriveKey("ctx", []byte("ab"), []byte("c")))
}

func TestZeroShare(t *testing.T) {
	r, err := ring.New(64)
	require.NoError(t, err)
	shape := tensor.Shape{2, 3}

	for n := 1; n <= 5; n++ {
		keys := make([][]byte, n)
		for i := range keys {
			keys[i] = DeriveKey("pair", []byte{byte(n), byte(i)})
		}
		var shares []*tensor.Tensor
		for i := 0; i < n; i++ {
			prev := keys[(i+n-1)%n]
			share, err := ZeroShare(r, shape, prev, keys[i], 7)
			require.NoError(t, err)
			shares = append(shares, share)
		}
		sum, err := tensor.Sum(r, shares...)
		require.NoError(t, err)
		require.True(t, sum.Equal(tensor.New(shape)), "n=%d: %v", n, sum)

		if n > 1 {
			require.False(t, shares[0].Equal(tensor.New(shape)))
		}
	}
}

func TestUniform(t *testing.T) {
	r, err := ring.New(10)
	require.NoError(t, err)

	s, err := NewStream(DeriveKey("uniform"), 0)
	require.NoError(t, err)
	u, err := Uniform(r, s, tensor.Shape{1000})
	require.NoError(t, err)
	for _, v := range u.Data {
		require.Less(t, v, uint64(1024))
	}
}
