//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package party

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/markkurossi/smpc/prg"
	"github.com/markkurossi/smpc/ring"
	"github.com/markkurossi/smpc/tensor"
)

// Store implements the party-side tensor storage and executes
// share-local operations on the stored tensors.
type Store struct {
	m       sync.Mutex
	tensors map[Handle]*tensor.Tensor
	logger  zerolog.Logger
}

// NewStore creates a new tensor store.
func NewStore(logger zerolog.Logger) *Store {
	return &Store{
		tensors: make(map[Handle]*tensor.Tensor),
		logger:  logger,
	}
}

// Len returns the number of stored tensors.
func (s *Store) Len() int {
	s.m.Lock()
	defer s.m.Unlock()
	return len(s.tensors)
}

// Put stores the tensor and returns its handle. The store takes the
// ownership of the tensor.
func (s *Store) Put(t *tensor.Tensor) Handle {
	h := NewHandle()

	s.m.Lock()
	s.tensors[h] = t
	s.m.Unlock()

	storedTensors.Inc()

	return h
}

// Get returns the tensor h.
func (s *Store) Get(h Handle) (*tensor.Tensor, error) {
	s.m.Lock()
	defer s.m.Unlock()

	t, ok := s.tensors[h]
	if !ok {
		return nil, fmt.Errorf("unknown handle %s", h)
	}
	return t, nil
}

// Delete removes the tensor h.
func (s *Store) Delete(h Handle) error {
	s.m.Lock()
	defer s.m.Unlock()

	_, ok := s.tensors[h]
	if !ok {
		return fmt.Errorf("unknown handle %s", h)
	}
	delete(s.tensors, h)
	storedTensors.Dec()

	return nil
}

// Execute executes the request and stores its result.
func (s *Store) Execute(req *Request) (Handle, error) {
	r, err := ring.New(req.Bits)
	if err != nil {
		return "", err
	}
	args := make([]*tensor.Tensor, len(req.Args))
	for i, h := range req.Args {
		args[i], err = s.Get(h)
		if err != nil {
			return "", err
		}
	}

	var result *tensor.Tensor

	switch req.Op {
	case OpAdd, OpSub:
		if err := arity(req, 2, 0); err != nil {
			return "", err
		}
		op := tensor.OpAdd
		if req.Op == OpSub {
			op = tensor.OpSub
		}
		result, err = tensor.Apply(r, op, args[0], args[1])

	case OpNeg:
		if err := arity(req, 1, 0); err != nil {
			return "", err
		}
		result = tensor.Neg(r, args[0])

	case OpAddPublic, OpSubPublic:
		if err := arity(req, 1, 1); err != nil {
			return "", err
		}
		op := tensor.OpAdd
		if req.Op == OpSubPublic {
			op = tensor.OpSub
		}
		public := req.Public[0]
		if !req.Lead {
			public = tensor.New(public.Shape)
		}
		result, err = tensor.Apply(r, op, args[0], public)

	case OpMulPublic:
		if err := arity(req, 1, 1); err != nil {
			return "", err
		}
		result, err = tensor.Apply(r, tensor.OpMul, args[0], req.Public[0])

	case OpTruncate:
		if err := arity(req, 1, 0); err != nil {
			return "", err
		}
		if req.Divisor == 0 {
			return "", fmt.Errorf("%v: zero divisor", req.Op)
		}
		d := req.Divisor
		if req.Lead {
			result = tensor.Map(args[0], func(x uint64) uint64 {
				return r.DivSigned(x, d)
			})
		} else {
			result = tensor.Map(args[0], func(x uint64) uint64 {
				return r.Neg(r.DivSigned(r.Neg(x), d))
			})
		}

	case OpBeaver:
		if err := arity(req, 3, 2); err != nil {
			return "", err
		}
		result, err = beaver(r, req.Lead, args[0], args[1], args[2],
			req.Public[0], req.Public[1])

	case OpZeroShare:
		if len(req.Args) > 1 || len(req.Keys) != 2 {
			return "", fmt.Errorf("%v: invalid arguments", req.Op)
		}
		if len(args) == 1 && !args[0].Shape.Equal(req.Shape) {
			return "", &tensor.ShapeMismatchError{
				Op: req.Op.String(),
				A:  args[0].Shape,
				B:  req.Shape,
			}
		}
		result, err = prg.ZeroShare(r, req.Shape, req.Keys[0], req.Keys[1],
			req.Nonce)
		if err == nil && len(args) == 1 {
			result, err = tensor.Apply(r, tensor.OpAdd, result, args[0])
		}

	default:
		return "", fmt.Errorf("unsupported operation %v", req.Op)
	}
	if err != nil {
		return "", err
	}

	h := s.Put(result)
	s.logger.Debug().Str("op", req.Op.String()).Str("result", string(h)).
		Msgf("executed %v", req)

	return h, nil
}

func arity(req *Request, args, public int) error {
	if len(req.Args) != args || len(req.Public) != public {
		return fmt.Errorf("%v: expected %d arguments and %d public values, got %d and %d",
			req.Op, args, public, len(req.Args), len(req.Public))
	}
	return nil
}

// beaver computes the product share w + d*v + e*u, adding d*e if lead
// is set.
func beaver(r ring.Ring, lead bool, u, v, w, d, e *tensor.Tensor) (
	*tensor.Tensor, error) {

	dv, err := tensor.Apply(r, tensor.OpMul, d, v)
	if err != nil {
		return nil, err
	}
	eu, err := tensor.Apply(r, tensor.OpMul, e, u)
	if err != nil {
		return nil, err
	}
	result, err := tensor.Apply(r, tensor.OpAdd, w, dv)
	if err != nil {
		return nil, err
	}
	result, err = tensor.Apply(r, tensor.OpAdd, result, eu)
	if err != nil {
		return nil, err
	}
	if lead {
		de, err := tensor.Apply(r, tensor.OpMul, d, e)
		if err != nil {
			return nil, err
		}
		result, err = tensor.Apply(r, tensor.OpAdd, result, de)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}
