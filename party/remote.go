//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package party

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/markkurossi/smpc/p2p"
	"github.com/markkurossi/smpc/tensor"
)

var _ Party = &Remote{}

// Remote implements a client for a party server. The requests are
// serialized over a single protocol connection. A transport failure
// breaks the connection and all subsequent requests fail with the
// same error.
type Remote struct {
	m      sync.Mutex
	name   string
	nc     net.Conn
	conn   *p2p.Conn
	err    error
	closed bool
}

// Dial connects to the party server at addr.
func Dial(ctx context.Context, name, addr string) (*Remote, error) {
	var dialer net.Dialer
	nc, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, &UnavailableError{
			Party: name,
			Err:   err,
		}
	}
	return NewRemote(name, nc), nil
}

// NewRemote creates a party client for the network connection.
func NewRemote(name string, nc net.Conn) *Remote {
	return &Remote{
		name: name,
		nc:   nc,
		conn: p2p.NewConn(nc),
	}
}

// Name implements Party.Name.
func (r *Remote) Name() string {
	return r.name
}

// Stats returns the connection I/O statistics.
func (r *Remote) Stats() p2p.IOStats {
	return r.conn.Stats
}

// Close closes the connection to the party server.
func (r *Remote) Close() error {
	r.m.Lock()
	defer r.m.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	if r.err == nil {
		r.err = net.ErrClosed
	}
	err := r.conn.Close()
	if err != nil {
		r.nc.Close()
	}
	return err
}

// Send implements Party.Send.
func (r *Remote) Send(ctx context.Context, t *tensor.Tensor) (Handle, error) {
	var h Handle
	err := r.call(ctx, cmdSend,
		func(conn *p2p.Conn) error {
			return sendTensor(conn, t)
		},
		func(conn *p2p.Conn) error {
			v, err := conn.ReceiveString()
			h = Handle(v)
			return err
		})
	return h, err
}

// Execute implements Party.Execute.
func (r *Remote) Execute(ctx context.Context, req *Request) (Handle, error) {
	var h Handle
	err := r.call(ctx, cmdExecute, req.Send,
		func(conn *p2p.Conn) error {
			v, err := conn.ReceiveString()
			h = Handle(v)
			return err
		})
	return h, err
}

// Fetch implements Party.Fetch.
func (r *Remote) Fetch(ctx context.Context, h Handle) (*tensor.Tensor, error) {
	var result *tensor.Tensor
	err := r.call(ctx, cmdFetch,
		func(conn *p2p.Conn) error {
			return conn.SendString(string(h))
		},
		func(conn *p2p.Conn) error {
			var err error
			result, err = receiveTensor(conn)
			return err
		})
	return result, err
}

// Delete implements Party.Delete.
func (r *Remote) Delete(ctx context.Context, h Handle) error {
	return r.call(ctx, cmdDelete,
		func(conn *p2p.Conn) error {
			return conn.SendString(string(h))
		}, nil)
}

func (r *Remote) call(ctx context.Context, cmd byte,
	send, receive func(conn *p2p.Conn) error) error {

	r.m.Lock()
	defer r.m.Unlock()

	if r.err != nil {
		return &UnavailableError{
			Party: r.name,
			Err:   r.err,
		}
	}
	if err := ctx.Err(); err != nil {
		return &UnavailableError{
			Party: r.name,
			Err:   err,
		}
	}

	deadline, _ := ctx.Deadline()
	if err := r.nc.SetDeadline(deadline); err != nil {
		return &UnavailableError{
			Party: r.name,
			Err:   err,
		}
	}
	stop := context.AfterFunc(ctx, func() {
		r.nc.SetDeadline(time.Now())
	})
	defer stop()

	status, err := r.roundTrip(cmd, send)
	if err == nil {
		if status == statusOK {
			if receive != nil {
				err = receive(r.conn)
			}
		} else {
			var msg string
			msg, err = r.conn.ReceiveString()
			if err == nil {
				return &RemoteError{
					Party:   r.name,
					Message: msg,
				}
			}
		}
	}
	if err != nil {
		// The response stream is out of sync after an interrupted
		// round-trip.
		r.err = err
		return &UnavailableError{
			Party: r.name,
			Err:   err,
		}
	}
	return nil
}

func (r *Remote) roundTrip(cmd byte, send func(conn *p2p.Conn) error) (
	byte, error) {

	if err := r.conn.SendByte(cmd); err != nil {
		return 0, err
	}
	if err := send(r.conn); err != nil {
		return 0, err
	}
	if err := r.conn.Flush(); err != nil {
		return 0, err
	}
	return r.conn.ReceiveByte()
}
