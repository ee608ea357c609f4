//
// Copyright (c) 2025-2026 Markku Rossi
//
// All rights reserved.
//

package p2p

import (
	"net"
)

// Pipe creates a pair of connected protocol connections over an
// in-memory full duplex network connection. Anything sent to the first
// endpoint can be received from the second and vice versa. The
// endpoints support deadlines as TCP connections do.
func Pipe() (*Conn, *Conn) {
	c0, c1 := net.Pipe()
	return NewConn(c0), NewConn(c1)
}
