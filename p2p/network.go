//
// Copyright (c) 2020-2026 Markku Rossi
//
// All rights reserved.
//

package p2p

import (
	"errors"
	"net"
	"sync"

	"github.com/rs/zerolog"
)

// Handler handles an accepted protocol connection. The connection is
// closed when the handler returns.
type Handler func(conn *Conn) error

// Listener implements a protocol server that accepts connections and
// dispatches them to its handler.
type Listener struct {
	m        sync.Mutex
	listener net.Listener
	handler  Handler
	logger   zerolog.Logger
	conns    map[*Conn]struct{}
	stats    IOStats
	closed   bool
	wg       sync.WaitGroup
}

// Listen creates a new listener for the address addr.
func Listen(addr string, handler Handler, logger zerolog.Logger) (
	*Listener, error) {

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return NewListener(listener, handler, logger), nil
}

// NewListener creates a new protocol listener around the network
// listener.
func NewListener(listener net.Listener, handler Handler,
	logger zerolog.Logger) *Listener {

	return &Listener{
		listener: listener,
		handler:  handler,
		logger:   logger,
		conns:    make(map[*Conn]struct{}),
		stats:    NewIOStats(),
	}
}

// Addr returns the listener's network address.
func (l *Listener) Addr() net.Addr {
	return l.listener.Addr()
}

// Serve accepts connections until the listener is closed.
func (l *Listener) Serve() error {
	for {
		nc, err := l.listener.Accept()
		if err != nil {
			l.m.Lock()
			closed := l.closed
			l.m.Unlock()
			if closed || errors.Is(err, net.ErrClosed) {
				return nil
			}
			l.logger.Error().Err(err).Msg("accept failed")
			return err
		}
		conn := NewConn(nc)

		l.m.Lock()
		if l.closed {
			l.m.Unlock()
			conn.Close()
			return nil
		}
		l.conns[conn] = struct{}{}
		l.wg.Add(1)
		l.m.Unlock()

		l.logger.Debug().Str("remote", nc.RemoteAddr().String()).
			Msg("connection accepted")

		go l.serveConn(conn, nc.RemoteAddr().String())
	}
}

func (l *Listener) serveConn(conn *Conn, remote string) {
	defer l.wg.Done()

	err := l.handler(conn)
	if err != nil {
		l.logger.Error().Err(err).Str("remote", remote).
			Msg("connection failed")
	}
	conn.Close()

	l.m.Lock()
	delete(l.conns, conn)
	l.stats = l.stats.Add(conn.Stats)
	l.m.Unlock()

	l.logger.Debug().Str("remote", remote).Msg("connection closed")
}

// Stats returns the I/O stats of all connections.
func (l *Listener) Stats() IOStats {
	l.m.Lock()
	defer l.m.Unlock()

	result := l.stats
	for conn := range l.conns {
		result = result.Add(conn.Stats)
	}
	return result
}

// Close closes the listener and all active connections, and waits
// until the connection handlers have returned.
func (l *Listener) Close() error {
	l.m.Lock()
	if l.closed {
		l.m.Unlock()
		return nil
	}
	l.closed = true
	err := l.listener.Close()
	for conn := range l.conns {
		closer, ok := conn.conn.(interface{ Close() error })
		if ok {
			closer.Close()
		}
	}
	l.m.Unlock()

	l.wg.Wait()
	return err
}
