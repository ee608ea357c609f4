//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package prg implements deterministic pseudo-random generators for
// share generation and pseudo-random zero sharing.
package prg

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/chacha20"

	"github.com/markkurossi/smpc/ring"
	"github.com/markkurossi/smpc/tensor"
)

// KeySize defines the PRG key size in bytes.
const KeySize = chacha20.KeySize

// Stream implements a ChaCha20 keystream. The stream is fully
// determined by its key and nonce.
type Stream struct {
	cipher *chacha20.Cipher
}

// NewStream creates a new keystream for the key and nonce.
func NewStream(key []byte, nonce uint64) (*Stream, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("prg: invalid key size %d", len(key))
	}
	var iv [chacha20.NonceSize]byte
	binary.BigEndian.PutUint64(iv[4:], nonce)

	cipher, err := chacha20.NewUnauthenticatedCipher(key, iv[:])
	if err != nil {
		return nil, err
	}
	return &Stream{
		cipher: cipher,
	}, nil
}

// Read implements io.Reader. It fills p with keystream bytes and never
// fails.
func (s *Stream) Read(p []byte) (int, error) {
	clear(p)
	s.cipher.XORKeyStream(p, p)
	return len(p), nil
}

// DeriveKey derives a KeySize byte key from the context string and the
// key material. Each material item is length-prefixed so that
// different splits of the same bytes derive different keys.
func DeriveKey(context string, material ...[]byte) []byte {
	hasher := blake3.New()

	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(context)))
	hasher.Write(hdr[:])
	hasher.Write([]byte(context))

	for _, m := range material {
		binary.BigEndian.PutUint32(hdr[:], uint32(len(m)))
		hasher.Write(hdr[:])
		hasher.Write(m)
	}
	return hasher.Sum(nil)[:KeySize]
}

// Uniform creates a tensor of uniformly random ring elements read from
// rand.
func Uniform(r ring.Ring, rand io.Reader, shape tensor.Shape) (
	*tensor.Tensor, error) {

	result := tensor.New(shape)
	buf := make([]byte, 8*len(result.Data))
	if _, err := io.ReadFull(rand, buf); err != nil {
		return nil, err
	}
	for i := range result.Data {
		result.Data[i] = r.Reduce(binary.BigEndian.Uint64(buf[i*8:]))
	}
	return result, nil
}

// ZeroShare computes a pseudo-random zero share. Party i holds the key
// prev shared with party i-1 and the key next shared with party i+1,
// and computes PRG(next) - PRG(prev). Since every pairwise key is used
// once with a plus and once with a minus sign, the shares of all
// parties sum to zero.
func ZeroShare(r ring.Ring, shape tensor.Shape, prev, next []byte,
	nonce uint64) (*tensor.Tensor, error) {

	ns, err := NewStream(next, nonce)
	if err != nil {
		return nil, err
	}
	ps, err := NewStream(prev, nonce)
	if err != nil {
		return nil, err
	}
	a, err := Uniform(r, ns, shape)
	if err != nil {
		return nil, err
	}
	b, err := Uniform(r, ps, shape)
	if err != nil {
		return nil, err
	}
	return tensor.Apply(r, tensor.OpSub, a, b)
}
