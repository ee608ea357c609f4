//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package party

import (
	"context"
	"sync"

	"github.com/markkurossi/smpc/env"
	"github.com/markkurossi/smpc/tensor"
)

var _ Party = &Local{}

// Local implements an in-process party. It is used for testing and
// for computations where all parties run in the same process.
type Local struct {
	m       sync.Mutex
	name    string
	store   *Store
	offline bool
}

// NewLocal creates a new in-process party.
func NewLocal(name string, config *env.Config) *Local {
	logger := config.GetLogger().With().Str("party", name).Logger()
	return &Local{
		name:  name,
		store: NewStore(logger),
	}
}

// Name implements Party.Name.
func (p *Local) Name() string {
	return p.name
}

// Store returns the party's tensor store.
func (p *Local) Store() *Store {
	return p.store
}

// SetOnline sets the party online or offline. Offline parties fail all
// requests with an *UnavailableError.
func (p *Local) SetOnline(online bool) {
	p.m.Lock()
	p.offline = !online
	p.m.Unlock()
}

func (p *Local) check(ctx context.Context) error {
	p.m.Lock()
	offline := p.offline
	p.m.Unlock()

	if offline {
		return &UnavailableError{
			Party: p.name,
			Err:   ErrOffline,
		}
	}
	if err := ctx.Err(); err != nil {
		return &UnavailableError{
			Party: p.name,
			Err:   err,
		}
	}
	return nil
}

// Send implements Party.Send.
func (p *Local) Send(ctx context.Context, t *tensor.Tensor) (Handle, error) {
	if err := p.check(ctx); err != nil {
		return "", err
	}
	return p.store.Put(t.Clone()), nil
}

// Execute implements Party.Execute.
func (p *Local) Execute(ctx context.Context, req *Request) (Handle, error) {
	if err := p.check(ctx); err != nil {
		return "", err
	}
	h, err := p.store.Execute(req)
	if err != nil {
		return "", &RemoteError{
			Party:   p.name,
			Message: err.Error(),
		}
	}
	return h, nil
}

// Fetch implements Party.Fetch.
func (p *Local) Fetch(ctx context.Context, h Handle) (*tensor.Tensor, error) {
	if err := p.check(ctx); err != nil {
		return nil, err
	}
	t, err := p.store.Get(h)
	if err != nil {
		return nil, &RemoteError{
			Party:   p.name,
			Message: err.Error(),
		}
	}
	return t.Clone(), nil
}

// Delete implements Party.Delete.
func (p *Local) Delete(ctx context.Context, h Handle) error {
	if err := p.check(ctx); err != nil {
		return err
	}
	if err := p.store.Delete(h); err != nil {
		return &RemoteError{
			Party:   p.name,
			Message: err.Error(),
		}
	}
	return nil
}
