//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package tensor

import (
	"fmt"
	"strconv"
	"strings"
)

// Shape defines tensor dimensions. The empty shape is a scalar.
type Shape []int

// ParseShape parses a comma-separated list of dimensions.
func ParseShape(s string) (Shape, error) {
	s = strings.TrimSpace(s)
	if len(s) == 0 {
		return Shape{}, nil
	}
	var result Shape
	for _, part := range strings.Split(s, ",") {
		d, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("tensor: invalid dimension '%s'", part)
		}
		if d <= 0 {
			return nil, fmt.Errorf("tensor: invalid dimension %d", d)
		}
		result = append(result, d)
	}
	return result, nil
}

// Size returns the number of elements.
func (s Shape) Size() int {
	n := 1
	for _, d := range s {
		n *= d
	}
	return n
}

// Equal tests if the shapes are identical.
func (s Shape) Equal(o Shape) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	result := make(Shape, len(s))
	copy(result, s)
	return result
}

func (s Shape) String() string {
	var sb strings.Builder
	sb.WriteRune('(')
	for i, d := range s {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(strconv.Itoa(d))
	}
	if len(s) == 1 {
		sb.WriteRune(',')
	}
	sb.WriteRune(')')
	return sb.String()
}

// ShapeMismatchError is returned when operand shapes are not
// compatible.
type ShapeMismatchError struct {
	Op string
	A  Shape
	B  Shape
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("tensor: %s: shapes %v and %v are not compatible",
		e.Op, e.A, e.B)
}

// Broadcast returns the result shape of an elementwise operation
// between shapes a and b. Dimensions are aligned from the right and
// must either match or be 1.
func Broadcast(a, b Shape) (Shape, error) {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	result := make(Shape, n)
	for i := 0; i < n; i++ {
		da := dim(a, i-n+len(a))
		db := dim(b, i-n+len(b))
		switch {
		case da == db:
			result[i] = da
		case da == 1:
			result[i] = db
		case db == 1:
			result[i] = da
		default:
			return nil, &ShapeMismatchError{
				Op: "broadcast",
				A:  a,
				B:  b,
			}
		}
	}
	return result, nil
}

func dim(s Shape, i int) int {
	if i < 0 {
		return 1
	}
	return s[i]
}

// offsets maps each element index of the shape out into the
// corresponding element index of the broadcast input shape in.
func offsets(in, out Shape) []int {
	strides := make([]int, len(out))
	stride := 1
	for i := len(in) - 1; i >= 0; i-- {
		if in[i] != 1 {
			strides[len(out)-len(in)+i] = stride
		}
		stride *= in[i]
	}

	result := make([]int, out.Size())
	idx := make([]int, len(out))
	for n := range result {
		var ofs int
		for j, v := range idx {
			ofs += v * strides[j]
		}
		result[n] = ofs

		for j := len(out) - 1; j >= 0; j-- {
			idx[j]++
			if idx[j] < out[j] {
				break
			}
			idx[j] = 0
		}
	}
	return result
}
