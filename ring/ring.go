//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package ring implements the ring Z/2^k of fixed-width unsigned
// integers and the fixed-point codec that maps real values into it.
//
// All ring arithmetic wraps silently modulo 2^k. Additive secret
// sharing is defined over this ring so the wrap-around is the intended
// behavior, not an overflow condition.
package ring

import (
	"fmt"
	"math/big"

	"github.com/markkurossi/text/superscript"
)

const (
	// DefaultBits is the default ring width.
	DefaultBits = 64

	// MaxBits is the maximum supported ring width.
	MaxBits = 64
)

// Ring implements arithmetic modulo 2^Bits.
type Ring struct {
	bits uint
	mask uint64
}

// New creates a ring with the given bit width.
func New(bits uint) (Ring, error) {
	if bits == 0 || bits > MaxBits {
		return Ring{}, fmt.Errorf("ring: invalid bit width %d: expected [1...%d]",
			bits, MaxBits)
	}
	r := Ring{
		bits: bits,
	}
	if bits == 64 {
		r.mask = ^uint64(0)
	} else {
		r.mask = (uint64(1) << bits) - 1
	}
	return r, nil
}

// Bits returns the ring width in bits.
func (r Ring) Bits() uint {
	return r.bits
}

// Valid tests if the ring was created with New.
func (r Ring) Valid() bool {
	return r.bits > 0
}

// Mask returns the bit mask of ring elements.
func (r Ring) Mask() uint64 {
	return r.mask
}

// Reduce reduces x modulo 2^Bits.
func (r Ring) Reduce(x uint64) uint64 {
	return x & r.mask
}

// Add returns a+b mod 2^Bits.
func (r Ring) Add(a, b uint64) uint64 {
	return (a + b) & r.mask
}

// Sub returns a-b mod 2^Bits.
func (r Ring) Sub(a, b uint64) uint64 {
	return (a - b) & r.mask
}

// Mul returns a*b mod 2^Bits.
func (r Ring) Mul(a, b uint64) uint64 {
	return (a * b) & r.mask
}

// Neg returns -a mod 2^Bits.
func (r Ring) Neg(a uint64) uint64 {
	return (-a) & r.mask
}

// Signed returns the centered signed value of x. Elements in the upper
// half of the ring represent negative numbers.
func (r Ring) Signed(x uint64) int64 {
	x &= r.mask
	if r.bits == 64 {
		return int64(x)
	}
	if x >= uint64(1)<<(r.bits-1) {
		return int64(x) - int64(uint64(1)<<r.bits)
	}
	return int64(x)
}

// FromSigned maps the signed value v into the ring.
func (r Ring) FromSigned(v int64) uint64 {
	return uint64(v) & r.mask
}

// DivSigned divides the centered value of x by d, rounding towards
// negative infinity, and maps the quotient back into the ring.
func (r Ring) DivSigned(x, d uint64) uint64 {
	s := r.Signed(x)
	q := s / int64(d)
	if s%int64(d) != 0 && s < 0 {
		q--
	}
	return r.FromSigned(q)
}

// FromBig maps the arbitrary precision integer v into the ring.
func (r Ring) FromBig(v *big.Int) uint64 {
	tmp := new(big.Int).And(v, new(big.Int).SetUint64(r.mask))
	return tmp.Uint64()
}

// Equal tests if the rings have the same width.
func (r Ring) Equal(o Ring) bool {
	return r.bits == o.bits
}

func (r Ring) String() string {
	return fmt.Sprintf("Z/2%s", superscript.Itoa(int(r.bits)))
}
