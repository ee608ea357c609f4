//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package tensor

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/markkurossi/smpc/ring"
)

// Integral values up to this magnitude are represented exactly by
// float64.
const maxSafeInteger = 1 << 53

// Float implements a plaintext tensor of real values.
type Float struct {
	Shape Shape
	Data  []float64
}

// NewFloat creates a plaintext tensor from the shape and data.
func NewFloat(shape Shape, data []float64) (*Float, error) {
	if err := checkSize(shape, data); err != nil {
		return nil, err
	}
	return &Float{
		Shape: shape.Clone(),
		Data:  data,
	}, nil
}

func checkSize(shape Shape, data []float64) error {
	if shape.Size() != len(data) {
		return fmt.Errorf("tensor: shape %v does not match %d elements",
			shape, len(data))
	}
	return nil
}

// Vector creates a one-dimensional plaintext tensor from the values.
func Vector(values ...float64) *Float {
	return &Float{
		Shape: Shape{len(values)},
		Data:  values,
	}
}

// Scalar creates a scalar plaintext tensor.
func Scalar(v float64) *Float {
	return &Float{
		Shape: Shape{},
		Data:  []float64{v},
	}
}

// ParseFloat parses a comma-separated list of values into a
// one-dimensional tensor.
func ParseFloat(s string) (*Float, error) {
	var values []float64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if len(part) == 0 {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("tensor: invalid value '%s'", part)
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("tensor: no values")
	}
	return Vector(values...), nil
}

// Reshape returns a tensor with the same data and a new shape.
func (f *Float) Reshape(shape Shape) (*Float, error) {
	return NewFloat(shape, f.Data)
}

// Size returns the number of elements in the tensor.
func (f *Float) Size() int {
	return len(f.Data)
}

// IsIntegral tests if all values are integers that float64 represents
// exactly.
func (f *Float) IsIntegral() bool {
	for _, v := range f.Data {
		if v != math.Trunc(v) || math.Abs(v) >= maxSafeInteger {
			return false
		}
	}
	return true
}

// Equal tests if the tensors have identical shapes and values.
func (f *Float) Equal(o *Float) bool {
	if !f.Shape.Equal(o.Shape) || len(f.Data) != len(o.Data) {
		return false
	}
	for i := range f.Data {
		if f.Data[i] != o.Data[i] {
			return false
		}
	}
	return true
}

func (f *Float) String() string {
	var sb strings.Builder
	sb.WriteRune('[')
	for i, v := range f.Data {
		if i > 0 {
			sb.WriteRune(' ')
		}
		sb.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	sb.WriteRune(']')
	return sb.String()
}

// Encode encodes the plaintext tensor with the fixed-point codec.
func Encode(fp ring.FixedPoint, f *Float) (*Tensor, error) {
	if err := checkSize(f.Shape, f.Data); err != nil {
		return nil, err
	}
	result := New(f.Shape)
	for i, v := range f.Data {
		x, err := fp.Encode(v)
		if err != nil {
			return nil, err
		}
		result.Data[i] = x
	}
	return result, nil
}

// Integers maps the integral plaintext tensor into the ring without
// fixed-point scaling.
func Integers(r ring.Ring, f *Float) (*Tensor, error) {
	if err := checkSize(f.Shape, f.Data); err != nil {
		return nil, err
	}
	if !f.IsIntegral() {
		return nil, fmt.Errorf("tensor: %v is not integral", f)
	}
	result := New(f.Shape)
	for i, v := range f.Data {
		result.Data[i] = r.FromSigned(int64(v))
	}
	return result, nil
}

// Decode decodes the ring tensor with the fixed-point codec.
func Decode(fp ring.FixedPoint, t *Tensor) *Float {
	result := &Float{
		Shape: t.Shape.Clone(),
		Data:  make([]float64, len(t.Data)),
	}
	for i, v := range t.Data {
		result.Data[i] = fp.Decode(v)
	}
	return result
}
