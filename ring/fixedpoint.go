//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package ring

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Largest magnitude for which v*scale is computed with float64
// arithmetic. Above this the decimal path is used.
const maxFloatScaled = 1 << 52

// EncodingError is returned when a value can't be encoded into the
// ring.
type EncodingError struct {
	Value  float64
	Reason string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("ring: cannot encode %v: %s", e.Value, e.Reason)
}

// FixedPoint implements the fixed-point codec. A real value v is
// encoded as round(v * Base^Precision) mod 2^Bits.
type FixedPoint struct {
	ring      Ring
	base      uint
	precision uint
	scale     uint64
	pow2      bool
}

// NewFixedPoint creates a fixed-point codec for the ring r. The scale
// Base^Precision must be smaller than 2^(Bits-1).
func NewFixedPoint(r Ring, base, precision uint) (FixedPoint, error) {
	if !r.Valid() {
		return FixedPoint{}, fmt.Errorf("ring: fixed point over invalid ring")
	}
	if base < 2 {
		return FixedPoint{}, fmt.Errorf("ring: invalid fixed point base %d", base)
	}
	limit := uint64(1) << (r.Bits() - 1)

	scale := uint64(1)
	for i := uint(0); i < precision; i++ {
		if scale > (limit-1)/uint64(base) {
			return FixedPoint{}, fmt.Errorf(
				"ring: scale %d^%d does not fit in %s", base, precision, r)
		}
		scale *= uint64(base)
	}
	if scale >= limit {
		return FixedPoint{}, fmt.Errorf(
			"ring: scale %d^%d does not fit in %s", base, precision, r)
	}
	return FixedPoint{
		ring:      r,
		base:      base,
		precision: precision,
		scale:     scale,
		pow2:      scale&(scale-1) == 0,
	}, nil
}

// Ring returns the codec's ring.
func (fp FixedPoint) Ring() Ring {
	return fp.ring
}

// Base returns the fixed-point base.
func (fp FixedPoint) Base() uint {
	return fp.base
}

// Precision returns the fixed-point precision exponent.
func (fp FixedPoint) Precision() uint {
	return fp.precision
}

// Scale returns Base^Precision.
func (fp FixedPoint) Scale() uint64 {
	return fp.scale
}

// Quantum returns the quantization unit 1/scale.
func (fp FixedPoint) Quantum() float64 {
	return 1 / float64(fp.scale)
}

// Equal tests if the codecs have identical parameters.
func (fp FixedPoint) Equal(o FixedPoint) bool {
	return fp.ring.Equal(o.ring) && fp.base == o.base &&
		fp.precision == o.precision
}

// Encode encodes the real value v. The scaled value is rounded to the
// nearest integer, halves away from zero, and then wrapped into the
// ring. Non-finite values are rejected.
func (fp FixedPoint) Encode(v float64) (uint64, error) {
	if math.IsNaN(v) {
		return 0, &EncodingError{
			Value:  v,
			Reason: "not a number",
		}
	}
	if math.IsInf(v, 0) {
		return 0, &EncodingError{
			Value:  v,
			Reason: "infinite value",
		}
	}
	if fp.pow2 {
		scaled := v * float64(fp.scale)
		if math.Abs(scaled) < maxFloatScaled {
			return fp.ring.FromSigned(int64(math.Round(scaled))), nil
		}
	}
	return fp.EncodeDecimal(decimal.NewFromFloat(v)), nil
}

// EncodeDecimal encodes the decimal value d.
func (fp FixedPoint) EncodeDecimal(d decimal.Decimal) uint64 {
	scaled := d.Mul(decimal.NewFromUint64(fp.scale)).Round(0)
	return fp.ring.FromBig(scaled.BigInt())
}

// Decode decodes the ring element x.
func (fp FixedPoint) Decode(x uint64) float64 {
	return float64(fp.ring.Signed(x)) / float64(fp.scale)
}

// Truncate divides the double-scale product x by the scale.
func (fp FixedPoint) Truncate(x uint64) uint64 {
	return fp.ring.DivSigned(x, fp.scale)
}

func (fp FixedPoint) String() string {
	return fmt.Sprintf("fixed<%d^%d>/%s", fp.base, fp.precision, fp.ring)
}
