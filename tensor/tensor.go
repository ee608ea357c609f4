//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package tensor implements the tensor backend: dense ring-element
// buffers with elementwise modular arithmetic and broadcasting, and
// plaintext floating point tensors.
package tensor

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/markkurossi/smpc/ring"
)

// Op defines elementwise binary operations.
type Op int

// Elementwise operations.
const (
	OpAdd Op = iota
	OpSub
	OpMul
)

var opNames = map[Op]string{
	OpAdd: "add",
	OpSub: "sub",
	OpMul: "mul",
}

func (op Op) String() string {
	name, ok := opNames[op]
	if ok {
		return name
	}
	return fmt.Sprintf("{Op %d}", op)
}

func (op Op) fn(r ring.Ring) (func(a, b uint64) uint64, error) {
	switch op {
	case OpAdd:
		return r.Add, nil
	case OpSub:
		return r.Sub, nil
	case OpMul:
		return r.Mul, nil
	default:
		return nil, fmt.Errorf("tensor: unsupported operation %v", op)
	}
}

// Tensor implements a dense tensor of ring elements.
type Tensor struct {
	Shape Shape
	Data  []uint64
}

// New creates a zero tensor with the shape.
func New(shape Shape) *Tensor {
	return &Tensor{
		Shape: shape.Clone(),
		Data:  make([]uint64, shape.Size()),
	}
}

// FromData creates a tensor from the shape and data.
func FromData(shape Shape, data []uint64) (*Tensor, error) {
	if shape.Size() != len(data) {
		return nil, fmt.Errorf("tensor: shape %v does not match %d elements",
			shape, len(data))
	}
	return &Tensor{
		Shape: shape.Clone(),
		Data:  data,
	}, nil
}

// Size returns the number of elements in the tensor.
func (t *Tensor) Size() int {
	return len(t.Data)
}

// Clone returns a deep copy of the tensor.
func (t *Tensor) Clone() *Tensor {
	data := make([]uint64, len(t.Data))
	copy(data, t.Data)
	return &Tensor{
		Shape: t.Shape.Clone(),
		Data:  data,
	}
}

// Equal tests if the tensors have identical shapes and elements.
func (t *Tensor) Equal(o *Tensor) bool {
	if !t.Shape.Equal(o.Shape) || len(t.Data) != len(o.Data) {
		return false
	}
	for i := range t.Data {
		if t.Data[i] != o.Data[i] {
			return false
		}
	}
	return true
}

// Apply computes the elementwise operation op of a and b in the ring
// r. The operands are broadcast to a common shape.
func Apply(r ring.Ring, op Op, a, b *Tensor) (*Tensor, error) {
	fn, err := op.fn(r)
	if err != nil {
		return nil, err
	}
	shape, err := Broadcast(a.Shape, b.Shape)
	if err != nil {
		err.(*ShapeMismatchError).Op = op.String()
		return nil, err
	}
	result := New(shape)

	if a.Shape.Equal(b.Shape) {
		for i := range result.Data {
			result.Data[i] = fn(a.Data[i], b.Data[i])
		}
		return result, nil
	}
	ia := offsets(a.Shape, shape)
	ib := offsets(b.Shape, shape)
	for i := range result.Data {
		result.Data[i] = fn(a.Data[ia[i]], b.Data[ib[i]])
	}
	return result, nil
}

// Neg returns -a in the ring r.
func Neg(r ring.Ring, a *Tensor) *Tensor {
	return Map(a, r.Neg)
}

// Map applies fn to each element of a and returns the result tensor.
func Map(a *Tensor, fn func(x uint64) uint64) *Tensor {
	result := New(a.Shape)
	for i, v := range a.Data {
		result.Data[i] = fn(v)
	}
	return result
}

// Sum returns the elementwise modular sum of the tensors. All tensors
// must have the same shape.
func Sum(r ring.Ring, ts ...*Tensor) (*Tensor, error) {
	if len(ts) == 0 {
		return nil, fmt.Errorf("tensor: sum of no tensors")
	}
	result := New(ts[0].Shape)
	for _, t := range ts {
		if !t.Shape.Equal(result.Shape) {
			return nil, &ShapeMismatchError{
				Op: "sum",
				A:  result.Shape,
				B:  t.Shape,
			}
		}
		for i, v := range t.Data {
			result.Data[i] = r.Add(result.Data[i], v)
		}
	}
	return result, nil
}

// MarshalBinary encodes the tensor into a binary form.
func (t *Tensor) MarshalBinary() ([]byte, error) {
	buf := make([]byte, 0, 4+4*len(t.Shape)+8*len(t.Data))
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(t.Shape)))
	for _, d := range t.Shape {
		buf = binary.BigEndian.AppendUint32(buf, uint32(d))
	}
	for _, v := range t.Data {
		buf = binary.BigEndian.AppendUint64(buf, v)
	}
	return buf, nil
}

// UnmarshalBinary decodes the tensor from its binary form.
func (t *Tensor) UnmarshalBinary(data []byte) error {
	if len(data) < 4 {
		return fmt.Errorf("tensor: truncated header")
	}
	ndims := int(binary.BigEndian.Uint32(data))
	data = data[4:]
	if len(data) < ndims*4 {
		return fmt.Errorf("tensor: truncated shape")
	}
	shape := make(Shape, ndims)
	for i := range shape {
		shape[i] = int(binary.BigEndian.Uint32(data[i*4:]))
	}
	data = data[ndims*4:]
	size := shape.Size()
	if len(data) != size*8 {
		return fmt.Errorf("tensor: expected %d bytes of data for shape %v, got %d",
			size*8, shape, len(data))
	}
	values := make([]uint64, size)
	for i := range values {
		values[i] = binary.BigEndian.Uint64(data[i*8:])
	}
	t.Shape = shape
	t.Data = values
	return nil
}

func (t *Tensor) String() string {
	var sb strings.Builder
	sb.WriteString(t.Shape.String())
	sb.WriteRune('[')
	for i, v := range t.Data {
		if i > 0 {
			sb.WriteRune(' ')
		}
		fmt.Fprintf(&sb, "%x", v)
	}
	sb.WriteRune(']')
	return sb.String()
}
