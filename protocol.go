//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package smpc

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/markkurossi/smpc/party"
	"github.com/markkurossi/smpc/prg"
	"github.com/markkurossi/smpc/session"
	"github.com/markkurossi/smpc/sharing"
	"github.com/markkurossi/smpc/tensor"
)

const shareSeedContext = "smpc share generation seed"

// GenerateShares encodes the secret with the session's fixed-point
// codec and splits it into one share per session party. If seed is
// not nil, the shares are derived deterministically from it. Otherwise
// sessions with a seed derive a fresh deterministic stream for each
// call, and sessions without a seed use their secure random source.
func GenerateShares(sess *session.Session, secret *tensor.Float,
	seed []byte) ([]*tensor.Tensor, error) {

	encoded, err := tensor.Encode(sess.FixedPoint(), secret)
	if err != nil {
		return nil, err
	}

	var rand io.Reader
	switch {
	case seed != nil:
		rand, err = prg.NewStream(prg.DeriveKey(shareSeedContext, seed), 0)
	case sess.Seed() != nil:
		var nonce [8]byte
		binary.BigEndian.PutUint64(nonce[:], sess.NextNonce())
		rand, err = prg.NewStream(
			prg.DeriveKey(shareSeedContext, sess.Seed(), nonce[:]), 0)
	default:
		rand = sess.Rand()
	}
	if err != nil {
		return nil, err
	}
	return sharing.Split(sess.Ring(), encoded, sess.NumParties(), rand)
}

// Distribute sends share i to the session party i and returns the
// secret tensor of the shares. If any party fails, the shares already
// delivered are deleted.
func Distribute(ctx context.Context, sess *session.Session,
	shares []*tensor.Tensor) (*Tensor, error) {

	if len(shares) != sess.NumParties() {
		return nil, &session.MismatchError{
			Attribute: "share count",
			A:         fmt.Sprintf("%d", sess.NumParties()),
			B:         fmt.Sprintf("%d", len(shares)),
		}
	}
	shape := shares[0].Shape
	for _, share := range shares[1:] {
		if !share.Shape.Equal(shape) {
			return nil, &tensor.ShapeMismatchError{
				Op: "distribute",
				A:  shape,
				B:  share.Shape,
			}
		}
	}
	sess.Start()

	handles, err := each(ctx, sess,
		func(ctx context.Context, rank int, p party.Party) (party.Handle, error) {
			return p.Send(ctx, shares[rank])
		})
	if err != nil {
		return nil, err
	}
	sharesDistributed.Inc()

	t := newTensor(sess, shape, handles)
	sess.Logger().Debug().Str("shape", shape.String()).
		Msgf("distributed %v", t)

	return t, nil
}

// Share secret-shares the secret among the session parties. The seed
// argument is as for GenerateShares.
func Share(ctx context.Context, sess *session.Session, secret *tensor.Float,
	seed []byte) (*Tensor, error) {

	shares, err := GenerateShares(sess, secret, seed)
	if err != nil {
		return nil, err
	}
	return Distribute(ctx, sess, shares)
}

// ShareRemote secret-shares the encoded secret tensor that the party
// of rank owner holds in handle. Each party computes a pseudo-random
// zero share from its pairwise keys and the owner adds the secret to
// its zero share. The plaintext never leaves the owner.
func ShareRemote(ctx context.Context, sess *session.Session, owner int,
	handle party.Handle, shape tensor.Shape) (*Tensor, error) {

	if owner < 0 || owner >= sess.NumParties() {
		return nil, fmt.Errorf("smpc: invalid owner rank %d", owner)
	}
	sess.Start()
	nonce := sess.NextNonce()

	handles, err := each(ctx, sess,
		func(ctx context.Context, rank int, p party.Party) (party.Handle, error) {
			prev, next := sess.PairKeys(rank)
			req := &party.Request{
				Op:    party.OpZeroShare,
				Bits:  sess.Ring().Bits(),
				Nonce: nonce,
				Keys:  [][]byte{prev, next},
				Shape: shape,
			}
			if rank == owner {
				req.Args = []party.Handle{handle}
			}
			return p.Execute(ctx, req)
		})
	if err != nil {
		return nil, err
	}
	sharesDistributed.Inc()

	return newTensor(sess, shape, handles), nil
}

// Reconstruct fetches the shares from their parties, sums them, and
// decodes the plaintext value. The fetches are issued concurrently.
func Reconstruct(ctx context.Context, sess *session.Session,
	shares []sharing.Share) (*tensor.Float, error) {

	sum, err := open(ctx, sess, shares)
	if err != nil {
		return nil, &ReconstructionError{
			Session: sess.ID(),
			Err:     err,
		}
	}
	reconstructions.Inc()

	return tensor.Decode(sess.FixedPoint(), sum), nil
}

// open fetches the shares and returns their ring sum.
func open(ctx context.Context, sess *session.Session,
	shares []sharing.Share) (*tensor.Tensor, error) {

	if err := checkShares(sess, shares); err != nil {
		return nil, err
	}
	sess.CountRound()
	parts := make([]*tensor.Tensor, len(shares))

	var g errgroup.Group
	for rank, share := range shares {
		p := sess.Party(rank)
		g.Go(func() error {
			t, err := p.Fetch(ctx, share.Handle)
			if err != nil {
				return err
			}
			if !t.Shape.Equal(share.Shape) {
				return &tensor.ShapeMismatchError{
					Op: "reconstruct",
					A:  share.Shape,
					B:  t.Shape,
				}
			}
			parts[rank] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		countFailure(err)
		return nil, err
	}
	return sharing.Combine(sess.Ring(), parts)
}

// checkShares verifies that the shares form a complete set of the
// session's shares.
func checkShares(sess *session.Session, shares []sharing.Share) error {
	if len(shares) != sess.NumParties() {
		return &session.MismatchError{
			Attribute: "share count",
			A:         fmt.Sprintf("%d", sess.NumParties()),
			B:         fmt.Sprintf("%d", len(shares)),
		}
	}
	for rank, share := range shares {
		if share.Session != sess.ID() {
			return &session.MismatchError{
				Attribute: "session",
				A:         sess.ID(),
				B:         share.Session,
			}
		}
		if share.Bits != sess.Ring().Bits() {
			return &session.MismatchError{
				Attribute: "ring",
				A:         fmt.Sprintf("%d", sess.Ring().Bits()),
				B:         fmt.Sprintf("%d", share.Bits),
			}
		}
		name := sess.Party(rank).Name()
		if share.Rank != rank || share.Party != name {
			return &session.MismatchError{
				Attribute: fmt.Sprintf("party %d", rank),
				A:         name,
				B:         share.Party,
			}
		}
		if !share.Shape.Equal(shares[0].Shape) {
			return &tensor.ShapeMismatchError{
				Op: "reconstruct",
				A:  shares[0].Shape,
				B:  share.Shape,
			}
		}
	}
	return nil
}
