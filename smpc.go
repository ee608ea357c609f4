//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package smpc implements secure multi-party computation on additively
// secret-shared tensors. A secret tensor is split into one share per
// party over the ring Z/2^k. The parties compute additions and public
// multiplications locally and secret multiplications with Beaver
// triples from the session's trusted dealer.
package smpc

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/markkurossi/smpc/party"
	"github.com/markkurossi/smpc/session"
)

// ErrReleased is returned when operating on a released tensor.
var ErrReleased = errors.New("smpc: tensor released")

// ReconstructionError is returned when the plaintext value of a secret
// tensor can't be reconstructed.
type ReconstructionError struct {
	Session string
	Err     error
}

func (e *ReconstructionError) Error() string {
	return fmt.Sprintf("smpc: reconstruction failed: %v", e.Err)
}

func (e *ReconstructionError) Unwrap() error {
	return e.Err
}

// each calls fn for each session party concurrently and collects the
// resulting handles in party order. If any call fails, the handles
// already created are deleted and the first error is returned. A
// failing party does not cancel the calls to the other parties: a
// canceled round-trip breaks the party connection.
func each(ctx context.Context, sess *session.Session,
	fn func(ctx context.Context, rank int, p party.Party) (party.Handle, error)) (
	[]party.Handle, error) {

	sess.CountRound()
	handles := make([]party.Handle, sess.NumParties())

	var g errgroup.Group
	for rank, p := range sess.Parties() {
		g.Go(func() error {
			h, err := fn(ctx, rank, p)
			if err != nil {
				return err
			}
			handles[rank] = h
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		countFailure(err)
		deleteHandles(context.WithoutCancel(ctx), sess, handles)
		return nil, err
	}
	return handles, nil
}

// deleteHandles deletes the handles, in party order, from the session
// parties. Empty handles are skipped.
func deleteHandles(ctx context.Context, sess *session.Session,
	handles []party.Handle) error {

	var g errgroup.Group
	for rank, h := range handles {
		if len(h) == 0 {
			continue
		}
		p := sess.Party(rank)
		g.Go(func() error {
			return p.Delete(ctx, h)
		})
	}
	err := g.Wait()
	if err != nil {
		sess.Logger().Debug().Err(err).Msg("failed to delete shares")
	}
	return err
}

func countFailure(err error) {
	var unavailable *party.UnavailableError
	if errors.As(err, &unavailable) {
		partyUnavailable.WithLabelValues(unavailable.Party).Inc()
	}
}
