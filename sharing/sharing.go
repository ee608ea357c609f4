//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package sharing implements additive secret sharing over the ring
// Z/2^k.
package sharing

import (
	"fmt"
	"io"

	"github.com/markkurossi/smpc/party"
	"github.com/markkurossi/smpc/prg"
	"github.com/markkurossi/smpc/ring"
	"github.com/markkurossi/smpc/tensor"
)

// Share describes one party's fragment of a secret tensor. The share
// data is held by the owning party and Handle references it there.
type Share struct {
	Party   string
	Rank    int
	Session string
	Shape   tensor.Shape
	Bits    uint
	Handle  party.Handle
}

func (s Share) String() string {
	return fmt.Sprintf("%s[%d]:%s%v", s.Party, s.Rank, s.Handle, s.Shape)
}

// Split splits the encoded secret into n additive shares. The first n-1
// shares are uniformly random elements read from rand and the last
// share is the secret minus their sum. With n == 1 the only share is a
// copy of the secret.
func Split(r ring.Ring, secret *tensor.Tensor, n int, rand io.Reader) (
	[]*tensor.Tensor, error) {

	if n < 1 {
		return nil, fmt.Errorf("sharing: invalid number of shares %d", n)
	}
	result := make([]*tensor.Tensor, n)
	last := secret.Clone()
	for i := 0; i < n-1; i++ {
		share, err := prg.Uniform(r, rand, secret.Shape)
		if err != nil {
			return nil, err
		}
		result[i] = share
		for j, v := range share.Data {
			last.Data[j] = r.Sub(last.Data[j], v)
		}
	}
	result[n-1] = last

	return result, nil
}

// Combine returns the modular sum of the shares.
func Combine(r ring.Ring, shares []*tensor.Tensor) (*tensor.Tensor, error) {
	if len(shares) == 0 {
		return nil, fmt.Errorf("sharing: no shares")
	}
	return tensor.Sum(r, shares...)
}
