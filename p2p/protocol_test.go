//
// protocol_test.go
//
// Copyright (c) 2023-2026 Markku Rossi
//
// All rights reserved.
//

package p2p

import (
	"bytes"
	"fmt"
	"io"
	"net"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var tests = []interface{}{
	byte(42),
	uint32(44),
	uint64(0xfedcba9876543210),
	"Hello, world!",
	make([]byte, 1024),
	pattern(2*1024*1024 + 3),
	pattern(8 * 1024 * 1024),
}

func pattern(n int) []byte {
	result := make([]byte, n)
	for i := range result {
		result[i] = byte(i * 7)
	}
	return result
}

func writer(c *Conn) {
	for _, test := range tests {
		switch d := test.(type) {
		case byte:
			if err := c.SendByte(d); err != nil {
				fmt.Printf("SendByte: %v\n", err)
			}

		case uint32:
			if err := c.SendUint32(int(d)); err != nil {
				fmt.Printf("SendUint32: %v\n", err)
			}

		case uint64:
			if err := c.SendUint64(d); err != nil {
				fmt.Printf("SendUint64: %v\n", err)
			}

		case string:
			if err := c.SendString(d); err != nil {
				fmt.Printf("SendString: %v\n", err)
			}

		case []byte:
			if err := c.SendData(d); err != nil {
				fmt.Printf("SendData [%v]byte: %v\n", len(d), err)
			}

		default:
			fmt.Printf("writer: invalid data: %v(%T)\n", test, test)
		}
	}
	if err := c.Flush(); err != nil {
		fmt.Printf("Flush: %v\n", err)
	}
}

func TestProtocol(t *testing.T) {
	cw, c := Pipe()

	go writer(cw)

	for _, test := range tests {
		switch d := test.(type) {
		case byte:
			v, err := c.ReceiveByte()
			if err != nil {
				t.Fatalf("ReceiveByte: %v", err)
			}
			if v != d {
				t.Errorf("ReceiveByte: got %v, expected %v", v, d)
			}

		case uint32:
			v, err := c.ReceiveUint32()
			if err != nil {
				t.Fatalf("ReceiveUint32: %v", err)
			}
			if v != int(d) {
				t.Errorf("ReceiveUint32: got %v, expected %v", v, d)
			}

		case uint64:
			v, err := c.ReceiveUint64()
			if err != nil {
				t.Fatalf("ReceiveUint64: %v", err)
			}
			if v != d {
				t.Errorf("ReceiveUint64: got %x, expected %x", v, d)
			}

		case string:
			v, err := c.ReceiveString()
			if err != nil {
				t.Fatalf("ReceiveString: %v", err)
			}
			if v != d {
				t.Errorf("ReceiveString: got %v, expected %v", v, d)
			}

		case []byte:
			v, err := c.ReceiveData()
			if err != nil {
				t.Fatalf("ReceiveData: %v", err)
			}
			if !bytes.Equal(v, d) {
				t.Errorf("ReceiveData: got [%v]byte, expected [%v]byte",
					len(v), len(d))
			}

		default:
			t.Errorf("invalid value: %v(%T)", test, test)
		}
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestListener(t *testing.T) {
	l, err := Listen("127.0.0.1:0", func(conn *Conn) error {
		for {
			v, err := conn.ReceiveUint64()
			if err != nil {
				return nil
			}
			if err := conn.SendUint64(v + 1); err != nil {
				return err
			}
			if err := conn.Flush(); err != nil {
				return err
			}
		}
	}, zerolog.Nop())
	require.NoError(t, err)

	done := make(chan error)
	go func() {
		done <- l.Serve()
	}()

	nc, err := net.Dial("tcp", l.Addr().String())
	require.NoError(t, err)
	c := NewConn(nc)

	for i := uint64(0); i < 10; i++ {
		require.NoError(t, c.SendUint64(i<<40))
		require.NoError(t, c.Flush())
		v, err := c.ReceiveUint64()
		require.NoError(t, err)
		require.Equal(t, i<<40+1, v)
	}
	require.NoError(t, c.Close())

	require.NoError(t, l.Close())
	require.NoError(t, <-done)
	require.Equal(t, uint64(10*8), l.Stats().Recvd.Load())
}

func TestWriteError(t *testing.T) {
	c0, c1 := Pipe()
	require.NoError(t, c1.Close())

	var err error
	for i := 0; i < numBuffers+1 && err == nil; i++ {
		err = c0.SendData(pattern(1024))
		if err == nil {
			err = c0.Flush()
		}
	}
	require.ErrorIs(t, err, io.ErrClosedPipe)
	require.ErrorIs(t, c0.WriterErr(), io.ErrClosedPipe)
	require.ErrorIs(t, c0.Close(), io.ErrClosedPipe)
}
