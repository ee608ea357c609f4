//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package party

import (
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/rs/zerolog"

	"github.com/markkurossi/smpc/p2p"
	"github.com/markkurossi/smpc/tensor"
)

// Protocol commands.
const (
	cmdSend byte = iota + 1
	cmdExecute
	cmdFetch
	cmdDelete
)

var cmdNames = map[byte]string{
	cmdSend:    "send",
	cmdExecute: "execute",
	cmdFetch:   "fetch",
	cmdDelete:  "delete",
}

// Response status codes.
const (
	statusOK byte = iota
	statusError
)

// Server implements a party server that serves the party's tensor
// store over protocol connections.
type Server struct {
	name   string
	store  *Store
	logger zerolog.Logger
}

// NewServer creates a new party server for the store.
func NewServer(name string, store *Store, logger zerolog.Logger) *Server {
	return &Server{
		name:   name,
		store:  store,
		logger: logger,
	}
}

// Name returns the party name.
func (s *Server) Name() string {
	return s.name
}

// Serve serves requests from the connection until the peer closes
// it. Serve implements p2p.Handler.
func (s *Server) Serve(conn *p2p.Conn) error {
	for {
		cmd, err := conn.ReceiveByte()
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) ||
				errors.Is(err, io.ErrClosedPipe) {
				return nil
			}
			return err
		}
		name, ok := cmdNames[cmd]
		if !ok {
			return fmt.Errorf("party: invalid command %d", cmd)
		}
		serverRequests.WithLabelValues(name).Inc()

		var result []byte
		var handle Handle
		var opErr error

		switch cmd {
		case cmdSend:
			t, err := receiveTensor(conn)
			if err != nil {
				return err
			}
			handle = s.store.Put(t)

		case cmdExecute:
			req, err := ReceiveRequest(conn)
			if err != nil {
				return err
			}
			handle, opErr = s.store.Execute(req)

		case cmdFetch:
			h, err := conn.ReceiveString()
			if err != nil {
				return err
			}
			var t *tensor.Tensor
			t, opErr = s.store.Get(Handle(h))
			if opErr == nil {
				result, opErr = t.MarshalBinary()
			}

		case cmdDelete:
			h, err := conn.ReceiveString()
			if err != nil {
				return err
			}
			opErr = s.store.Delete(Handle(h))
		}

		if opErr != nil {
			serverFailures.WithLabelValues(name).Inc()
			s.logger.Error().Err(opErr).Str("command", name).
				Msg("request failed")

			if err := conn.SendByte(statusError); err != nil {
				return err
			}
			if err := conn.SendString(opErr.Error()); err != nil {
				return err
			}
		} else {
			if err := conn.SendByte(statusOK); err != nil {
				return err
			}
			switch cmd {
			case cmdSend, cmdExecute:
				err = conn.SendString(string(handle))
			case cmdFetch:
				err = conn.SendData(result)
			}
			if err != nil {
				return err
			}
		}
		if err := conn.Flush(); err != nil {
			return err
		}
	}
}
