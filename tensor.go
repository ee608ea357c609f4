//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package smpc

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/markkurossi/smpc/party"
	"github.com/markkurossi/smpc/session"
	"github.com/markkurossi/smpc/sharing"
	"github.com/markkurossi/smpc/tensor"
)

// Tensor implements a secret tensor. It holds one share per session
// party, in the session's party order. Operators return new tensors
// and never modify their operands.
type Tensor struct {
	m        sync.Mutex
	shape    tensor.Shape
	sess     *session.Session
	shares   []sharing.Share
	released bool
}

func newTensor(sess *session.Session, shape tensor.Shape,
	handles []party.Handle) *Tensor {

	shares := make([]sharing.Share, len(handles))
	for rank, h := range handles {
		shares[rank] = sharing.Share{
			Party:   sess.Party(rank).Name(),
			Rank:    rank,
			Session: sess.ID(),
			Shape:   shape.Clone(),
			Bits:    sess.Ring().Bits(),
			Handle:  h,
		}
	}
	return &Tensor{
		shape:  shape.Clone(),
		sess:   sess,
		shares: shares,
	}
}

func (t *Tensor) operand() {}

// Shape returns the tensor shape.
func (t *Tensor) Shape() tensor.Shape {
	return t.shape.Clone()
}

// Session returns the tensor's session.
func (t *Tensor) Session() *session.Session {
	return t.sess
}

// Shares returns the tensor shares in party order.
func (t *Tensor) Shares() []sharing.Share {
	return append([]sharing.Share(nil), t.shares...)
}

// Released tests if the tensor shares have been released.
func (t *Tensor) Released() bool {
	t.m.Lock()
	defer t.m.Unlock()
	return t.released
}

func (t *Tensor) handle(rank int) party.Handle {
	return t.shares[rank].Handle
}

// Add returns t+o.
func (t *Tensor) Add(ctx context.Context, o Operand) (*Tensor, error) {
	result, err := Apply(ctx, OpAdd, t, o)
	return result.Secret, err
}

// Sub returns t-o.
func (t *Tensor) Sub(ctx context.Context, o Operand) (*Tensor, error) {
	result, err := Apply(ctx, OpSub, t, o)
	return result.Secret, err
}

// Mul returns t*o. If o is a secret tensor, the multiplication
// consumes one Beaver triple from the session dealer.
func (t *Tensor) Mul(ctx context.Context, o Operand) (*Tensor, error) {
	result, err := Apply(ctx, OpMul, t, o)
	return result.Secret, err
}

// Neg returns -t.
func (t *Tensor) Neg(ctx context.Context) (*Tensor, error) {
	if t.Released() {
		return nil, ErrReleased
	}
	return neg(ctx, t)
}

// Reconstruct returns the plaintext value of the tensor. The tensor
// remains usable.
func (t *Tensor) Reconstruct(ctx context.Context) (*tensor.Float, error) {
	if t.Released() {
		return nil, &ReconstructionError{
			Session: t.sess.ID(),
			Err:     ErrReleased,
		}
	}
	return Reconstruct(ctx, t.sess, t.shares)
}

// Reveal reconstructs the plaintext value of the tensor and releases
// its shares. The tensor can't be used after Reveal.
func (t *Tensor) Reveal(ctx context.Context) (*tensor.Float, error) {
	result, err := t.Reconstruct(ctx)
	if err != nil {
		return nil, err
	}
	if err := t.Release(ctx); err != nil {
		return nil, err
	}
	return result, nil
}

// Release deletes the tensor shares from the parties. The tensor is
// marked released even if some parties fail.
func (t *Tensor) Release(ctx context.Context) error {
	t.m.Lock()
	if t.released {
		t.m.Unlock()
		return nil
	}
	t.released = true
	t.m.Unlock()

	handles := make([]party.Handle, len(t.shares))
	for rank := range t.shares {
		handles[rank] = t.handle(rank)
	}
	return deleteHandles(ctx, t.sess, handles)
}

func (t *Tensor) String() string {
	var handles []string
	for _, share := range t.shares {
		handles = append(handles, share.String())
	}
	return fmt.Sprintf("Tensor%v{%s}", t.shape, strings.Join(handles, ", "))
}
