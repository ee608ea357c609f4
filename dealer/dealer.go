//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package dealer implements a trusted dealer that generates correlated
// randomness for the parties: Beaver multiplication triples and
// truncation pairs. The dealer sees the plaintext triple values and it
// must not collude with any party.
package dealer

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/markkurossi/smpc/env"
	"github.com/markkurossi/smpc/party"
	"github.com/markkurossi/smpc/prg"
	"github.com/markkurossi/smpc/ring"
	"github.com/markkurossi/smpc/sharing"
	"github.com/markkurossi/smpc/tensor"
)

// TripleExhaustedError is returned when no triple material is left or
// when a triple is consumed more than once.
type TripleExhaustedError struct {
	Triple string
	Budget int
}

func (e *TripleExhaustedError) Error() string {
	if len(e.Triple) > 0 {
		return fmt.Sprintf("dealer: triple %s already consumed", e.Triple)
	}
	return fmt.Sprintf("dealer: triple budget of %d exhausted", e.Budget)
}

// Dealer implements the trusted dealer.
type Dealer struct {
	m        sync.Mutex
	parties  []party.Party
	ring     ring.Ring
	rand     io.Reader
	logger   zerolog.Logger
	budget   int
	issued   int
	consumed int
	pairs    int
}

// New creates a new dealer for the parties. The dealer issues at most
// budget triples until replenished.
func New(parties []party.Party, r ring.Ring, budget int,
	config *env.Config) *Dealer {

	return &Dealer{
		parties: parties,
		ring:    r,
		rand: &lockedReader{
			r: config.GetRandom(),
		},
		logger: config.GetLogger().With().Str("component", "dealer").Logger(),
		budget: budget,
	}
}

// Remaining returns the number of triples the dealer can still issue.
func (d *Dealer) Remaining() int {
	d.m.Lock()
	defer d.m.Unlock()
	return d.budget - d.issued
}

// Replenish adds n triples to the dealer's budget.
func (d *Dealer) Replenish(n int) {
	d.m.Lock()
	d.budget += n
	d.m.Unlock()

	d.logger.Debug().Int("triples", n).Msg("budget replenished")
}

// Stats returns the number of triples issued and consumed, and the
// number of truncation pairs issued.
func (d *Dealer) Stats() (issued, consumed, pairs int) {
	d.m.Lock()
	defer d.m.Unlock()
	return d.issued, d.consumed, d.pairs
}

// Triple implements a secret-shared Beaver triple (u, v, w) with
// w = u*v. The handles are in the dealer's party order.
type Triple struct {
	ID     string
	ShapeU tensor.Shape
	ShapeV tensor.Shape
	U      []party.Handle
	V      []party.Handle
	W      []party.Handle
	dealer *Dealer
	used   bool
}

// Triple issues a new triple for multiplying tensors of shapes shapeU
// and shapeV. The shapes must be broadcast compatible.
func (d *Dealer) Triple(ctx context.Context, shapeU, shapeV tensor.Shape) (
	*Triple, error) {

	shapeW, err := tensor.Broadcast(shapeU, shapeV)
	if err != nil {
		err.(*tensor.ShapeMismatchError).Op = "triple"
		return nil, err
	}

	d.m.Lock()
	if d.issued >= d.budget {
		d.m.Unlock()
		return nil, &TripleExhaustedError{
			Budget: d.budget,
		}
	}
	d.issued++
	d.m.Unlock()

	handles, err := d.newTriple(ctx, shapeU, shapeV)
	if err != nil {
		// Undelivered triples don't count against the budget.
		d.m.Lock()
		d.issued--
		d.m.Unlock()
		return nil, err
	}
	t := &Triple{
		ID:     xid.New().String(),
		ShapeU: shapeU.Clone(),
		ShapeV: shapeV.Clone(),
		U:      handles[0],
		V:      handles[1],
		W:      handles[2],
		dealer: d,
	}
	d.logger.Debug().Str("triple", t.ID).Str("u", shapeU.String()).
		Str("v", shapeV.String()).Str("w", shapeW.String()).
		Msg("triple issued")

	return t, nil
}

// Consume marks the triple used. Consume fails with
// *TripleExhaustedError if the triple was already consumed.
func (t *Triple) Consume() error {
	t.dealer.m.Lock()
	defer t.dealer.m.Unlock()

	if t.used {
		return &TripleExhaustedError{
			Triple: t.ID,
		}
	}
	t.used = true
	t.dealer.consumed++

	return nil
}

// Release deletes the triple shares from the parties.
func (t *Triple) Release(ctx context.Context) error {
	return t.dealer.release(ctx, t.U, t.V, t.W)
}

func (d *Dealer) newTriple(ctx context.Context, shapeU, shapeV tensor.Shape) (
	[][]party.Handle, error) {

	u, err := prg.Uniform(d.ring, d.rand, shapeU)
	if err != nil {
		return nil, err
	}
	v, err := prg.Uniform(d.ring, d.rand, shapeV)
	if err != nil {
		return nil, err
	}
	w, err := tensor.Apply(d.ring, tensor.OpMul, u, v)
	if err != nil {
		return nil, err
	}
	return d.distribute(ctx, u, v, w)
}

// Pair implements a secret-shared truncation pair (r, r/Divisor).
type Pair struct {
	Divisor uint64
	R       []party.Handle
	RDiv    []party.Handle
	dealer  *Dealer
}

// TruncationPair issues a new truncation pair of the shape.
func (d *Dealer) TruncationPair(ctx context.Context, shape tensor.Shape,
	divisor uint64) (*Pair, error) {

	if divisor == 0 {
		return nil, fmt.Errorf("dealer: zero divisor")
	}
	r, err := prg.Uniform(d.ring, d.rand, shape)
	if err != nil {
		return nil, err
	}
	rdiv := tensor.Map(r, func(x uint64) uint64 {
		return d.ring.DivSigned(x, divisor)
	})
	handles, err := d.distribute(ctx, r, rdiv)
	if err != nil {
		return nil, err
	}

	d.m.Lock()
	d.pairs++
	d.m.Unlock()

	return &Pair{
		Divisor: divisor,
		R:       handles[0],
		RDiv:    handles[1],
		dealer:  d,
	}, nil
}

// Release deletes the pair shares from the parties.
func (p *Pair) Release(ctx context.Context) error {
	return p.dealer.release(ctx, p.R, p.RDiv)
}

// distribute splits the values and sends share i of each value to
// party i. The result holds the handles per value. On failure, all
// delivered shares are deleted.
func (d *Dealer) distribute(ctx context.Context, values ...*tensor.Tensor) (
	[][]party.Handle, error) {

	n := len(d.parties)
	shares := make([][]*tensor.Tensor, len(values))
	handles := make([][]party.Handle, len(values))
	for i, value := range values {
		var err error
		shares[i], err = sharing.Split(d.ring, value, n, d.rand)
		if err != nil {
			return nil, err
		}
		handles[i] = make([]party.Handle, n)
	}

	// The sends are not canceled on the first failure so the other
	// parties' connections stay in sync for the cleanup.
	var g errgroup.Group
	for idx, p := range d.parties {
		g.Go(func() error {
			for i := range values {
				h, err := p.Send(ctx, shares[i][idx])
				if err != nil {
					return err
				}
				handles[i][idx] = h
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		d.release(context.WithoutCancel(ctx), handles...)
		return nil, err
	}
	return handles, nil
}

// release deletes the handles, indexed by party, from the parties.
func (d *Dealer) release(ctx context.Context, handles ...[]party.Handle) error {
	var g errgroup.Group
	for idx, p := range d.parties {
		g.Go(func() error {
			var result error
			for _, hs := range handles {
				if len(hs[idx]) == 0 {
					continue
				}
				if err := p.Delete(ctx, hs[idx]); err != nil && result == nil {
					result = err
				}
			}
			return result
		})
	}
	return g.Wait()
}

// lockedReader serializes reads from a random source that is not safe
// for concurrent use.
type lockedReader struct {
	m sync.Mutex
	r io.Reader
}

func (lr *lockedReader) Read(p []byte) (int, error) {
	lr.m.Lock()
	defer lr.m.Unlock()
	return lr.r.Read(p)
}
