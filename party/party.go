//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package party implements the party handle contract: remote
// endpoints that store tensors and execute share-local operations on
// them.
package party

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/xid"

	"github.com/markkurossi/smpc/tensor"
)

// ErrOffline is the cause of unavailable in-process parties.
var ErrOffline = errors.New("party is offline")

// Handle is an opaque reference to a tensor stored at a party. The
// handle does not grant access to the tensor data. It only names the
// tensor in operation requests.
type Handle string

// NewHandle creates a new unique handle.
func NewHandle() Handle {
	return Handle(xid.New().String())
}

func (h Handle) String() string {
	return string(h)
}

// Party defines a computation participant. All methods may fail with
// an *UnavailableError if the party can't be reached.
type Party interface {
	// Name returns the party name.
	Name() string

	// Send stores the tensor at the party and returns its handle.
	Send(ctx context.Context, t *tensor.Tensor) (Handle, error)

	// Execute runs the request at the party and returns the handle of
	// the result tensor.
	Execute(ctx context.Context, req *Request) (Handle, error)

	// Fetch returns a copy of the tensor h.
	Fetch(ctx context.Context, h Handle) (*tensor.Tensor, error)

	// Delete releases the storage of the tensor h.
	Delete(ctx context.Context, h Handle) error
}

// UnavailableError is returned when a round-trip to a party fails or
// times out. Err holds the transport error as it was reported.
type UnavailableError struct {
	Party string
	Err   error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("party %s unavailable: %v", e.Party, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// RemoteError is returned when a party received a request but failed
// to execute it.
type RemoteError struct {
	Party   string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("party %s: %s", e.Party, e.Message)
}
