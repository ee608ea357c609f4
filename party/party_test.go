//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package party

import (
	"context"
	"errors"
	"net"
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/markkurossi/smpc/env"
	"github.com/markkurossi/smpc/p2p"
	"github.com/markkurossi/smpc/prg"
	"github.com/markkurossi/smpc/ring"
	"github.com/markkurossi/smpc/tensor"
)

func vector(t *testing.T, values ...uint64) *tensor.Tensor {
	result, err := tensor.FromData(tensor.Shape{len(values)}, values)
	require.NoError(t, err)
	return result
}

func testParties(t *testing.T, p Party) {
	ctx := context.Background()

	a, err := p.Send(ctx, vector(t, 1, 2, 3))
	require.NoError(t, err)
	b, err := p.Send(ctx, vector(t, 10, 20, 30))
	require.NoError(t, err)

	sum, err := p.Execute(ctx, &Request{
		Op:   OpSub,
		Bits: 64,
		Args: []Handle{b, a},
	})
	require.NoError(t, err)

	result, err := p.Fetch(ctx, sum)
	require.NoError(t, err)
	if diff := cmp.Diff([]uint64{9, 18, 27}, result.Data); diff != "" {
		t.Errorf("sub mismatch (-want +got):\n%s", diff)
	}

	scaled, err := p.Execute(ctx, &Request{
		Op:     OpMulPublic,
		Bits:   64,
		Args:   []Handle{sum},
		Public: []*tensor.Tensor{vector(t, 2)},
	})
	require.NoError(t, err)
	result, err = p.Fetch(ctx, scaled)
	require.NoError(t, err)
	require.Equal(t, []uint64{18, 36, 54}, result.Data)

	require.NoError(t, p.Delete(ctx, a))

	var remoteErr *RemoteError
	_, err = p.Fetch(ctx, a)
	require.ErrorAs(t, err, &remoteErr)
	require.Equal(t, p.Name(), remoteErr.Party)

	err = p.Delete(ctx, a)
	require.ErrorAs(t, err, &remoteErr)

	_, err = p.Execute(ctx, &Request{
		Op:   OpAdd,
		Bits: 64,
		Args: []Handle{b},
	})
	require.ErrorAs(t, err, &remoteErr)

	_, err = p.Execute(ctx, &Request{
		Op:   OpAdd,
		Bits: 65,
		Args: []Handle{b, b},
	})
	require.ErrorAs(t, err, &remoteErr)
}

func TestLocal(t *testing.T) {
	p := NewLocal("alice", &env.Config{})
	testParties(t, p)
	require.Equal(t, 3, p.Store().Len())

	p.SetOnline(false)
	_, err := p.Send(context.Background(), vector(t, 1))
	var unavailable *UnavailableError
	require.ErrorAs(t, err, &unavailable)
	require.Equal(t, "alice", unavailable.Party)
	require.True(t, errors.Is(err, ErrOffline))

	p.SetOnline(true)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Fetch(ctx, "x")
	require.ErrorAs(t, err, &unavailable)
	require.True(t, errors.Is(err, context.Canceled))
}

func remotePair(t *testing.T) (*Remote, *Store) {
	cn, sn := net.Pipe()
	store := NewStore(zerolog.Nop())
	server := NewServer("bob", store, zerolog.Nop())
	go server.Serve(p2p.NewConn(sn))

	return NewRemote("bob", cn), store
}

func TestRemote(t *testing.T) {
	r, store := remotePair(t)
	testParties(t, r)
	require.Equal(t, 3, store.Len())
	require.NotZero(t, r.Stats().Sum())
	require.NoError(t, r.Close())

	_, err := r.Send(context.Background(), vector(t, 1))
	var unavailable *UnavailableError
	require.ErrorAs(t, err, &unavailable)
}

func TestRemoteTimeout(t *testing.T) {
	cn, _ := net.Pipe()
	r := NewRemote("carol", cn)

	ctx, cancel := context.WithTimeout(context.Background(),
		50*time.Millisecond)
	defer cancel()

	_, err := r.Fetch(ctx, "x")
	var unavailable *UnavailableError
	require.ErrorAs(t, err, &unavailable)
	require.Equal(t, "carol", unavailable.Party)
	require.True(t, errors.Is(err, os.ErrDeadlineExceeded))

	_, err = r.Fetch(context.Background(), "x")
	require.ErrorAs(t, err, &unavailable)
}

func TestDial(t *testing.T) {
	store := NewStore(zerolog.Nop())
	server := NewServer("dave", store, zerolog.Nop())
	l, err := p2p.Listen("127.0.0.1:0", server.Serve, zerolog.Nop())
	require.NoError(t, err)
	go l.Serve()
	defer l.Close()

	r, err := Dial(context.Background(), "dave", l.Addr().String())
	require.NoError(t, err)

	h, err := r.Send(context.Background(), vector(t, 7, 8))
	require.NoError(t, err)
	result, err := r.Fetch(context.Background(), h)
	require.NoError(t, err)
	require.Equal(t, []uint64{7, 8}, result.Data)
	require.NoError(t, r.Close())
}

func TestRequestCodec(t *testing.T) {
	req := &Request{
		Op:      OpZeroShare,
		Bits:    32,
		Lead:    true,
		Divisor: 1 << 16,
		Nonce:   42,
		Args:    []Handle{NewHandle(), NewHandle()},
		Public:  []*tensor.Tensor{vector(t, 1, 2), tensor.New(tensor.Shape{})},
		Keys:    [][]byte{[]byte("prev"), []byte("next")},
		Shape:   tensor.Shape{2, 3},
	}
	c0, c1 := p2p.Pipe()
	go func() {
		req.Send(c0)
		c0.Flush()
	}()
	got, err := ReceiveRequest(c1)
	require.NoError(t, err)
	if diff := cmp.Diff(req, got); diff != "" {
		t.Errorf("request mismatch (-want +got):\n%s", diff)
	}
}

func TestStoreOps(t *testing.T) {
	r, err := ring.New(16)
	require.NoError(t, err)
	s := NewStore(zerolog.Nop())

	exec := func(req *Request) []uint64 {
		req.Bits = 16
		h, err := s.Execute(req)
		require.NoError(t, err)
		result, err := s.Get(h)
		require.NoError(t, err)
		return result.Data
	}
	x := s.Put(vector(t, r.FromSigned(-7), 9))

	require.Equal(t, []uint64{7, r.FromSigned(-9)},
		exec(&Request{Op: OpNeg, Args: []Handle{x}}))

	pub := []*tensor.Tensor{vector(t, 1)}
	require.Equal(t, []uint64{r.FromSigned(-6), 10},
		exec(&Request{Op: OpAddPublic, Lead: true, Args: []Handle{x},
			Public: pub}))
	require.Equal(t, []uint64{r.FromSigned(-7), 9},
		exec(&Request{Op: OpAddPublic, Args: []Handle{x}, Public: pub}))
	require.Equal(t, []uint64{r.FromSigned(-8), 8},
		exec(&Request{Op: OpSubPublic, Lead: true, Args: []Handle{x},
			Public: pub}))

	require.Equal(t, []uint64{r.FromSigned(-4), 4},
		exec(&Request{Op: OpTruncate, Lead: true, Divisor: 2,
			Args: []Handle{x}}))
	require.Equal(t, []uint64{r.FromSigned(-3), 5},
		exec(&Request{Op: OpTruncate, Divisor: 2, Args: []Handle{x}}))

	// Beaver with the single party: u=2, v=3, w=6, a=5, b=4.
	u := s.Put(vector(t, 2))
	v := s.Put(vector(t, 3))
	w := s.Put(vector(t, 6))
	require.Equal(t, []uint64{20},
		exec(&Request{Op: OpBeaver, Lead: true, Args: []Handle{u, v, w},
			Public: []*tensor.Tensor{vector(t, 3), vector(t, 1)}}))

	// A single party's zero share is zero, and adding to it keeps the
	// share.
	key := prg.DeriveKey("test")
	require.Equal(t, []uint64{r.FromSigned(-7), 9},
		exec(&Request{Op: OpZeroShare, Args: []Handle{x},
			Keys: [][]byte{key, key}, Shape: tensor.Shape{2}}))

	// The declared shape must match the stored tensor.
	n := s.Len()
	_, err = s.Execute(&Request{Op: OpZeroShare, Bits: 16, Args: []Handle{x},
		Keys: [][]byte{key, key}, Shape: tensor.Shape{3}})
	var shapeErr *tensor.ShapeMismatchError
	require.ErrorAs(t, err, &shapeErr)
	require.Equal(t, n, s.Len())

	_, err = s.Execute(&Request{Op: OpTruncate, Bits: 16, Args: []Handle{x}})
	require.Error(t, err)
	_, err = s.Execute(&Request{Op: Op(99), Bits: 16})
	require.Error(t, err)
}
