//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package smpc

import (
	"context"
	"fmt"

	"github.com/markkurossi/smpc/party"
	"github.com/markkurossi/smpc/session"
	"github.com/markkurossi/smpc/tensor"
)

// Op defines the operators on secret tensors.
type Op int

// Operators.
const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpReconstruct
)

var opNames = map[Op]string{
	OpAdd:         "add",
	OpSub:         "sub",
	OpMul:         "mul",
	OpReconstruct: "reconstruct",
}

func (op Op) String() string {
	name, ok := opNames[op]
	if ok {
		return name
	}
	return fmt.Sprintf("{Op %d}", op)
}

// Operand defines operator arguments: secret tensors (*Tensor) and
// public values (Public and Scalar).
type Operand interface {
	operand()
}

type public struct {
	value *tensor.Float
}

func (p *public) operand() {}

// Public creates a public tensor operand.
func Public(f *tensor.Float) Operand {
	return &public{
		value: f,
	}
}

// Scalar creates a public scalar operand.
func Scalar(v float64) Operand {
	return &public{
		value: tensor.Scalar(v),
	}
}

// Result holds the operator result. Arithmetic operators return a
// secret tensor and OpReconstruct returns a plaintext tensor.
type Result struct {
	Secret *Tensor
	Plain  *tensor.Float
}

func kind(o Operand) string {
	switch o.(type) {
	case *Tensor:
		return "secret"
	case *public:
		return "public"
	case nil:
		return "none"
	default:
		return "invalid"
	}
}

// Apply applies the operator op to the operands. At least one of the
// arithmetic operands must be a secret tensor. OpReconstruct takes a
// secret tensor a and a nil b. All session and shape checks are done
// before any party is contacted.
func Apply(ctx context.Context, op Op, a, b Operand) (Result, error) {
	operations.WithLabelValues(op.String(), kind(a)+"/"+kind(b)).Inc()

	switch op {
	case OpReconstruct:
		t, ok := a.(*Tensor)
		if !ok || b != nil {
			return Result{}, fmt.Errorf("smpc: %v: invalid operands %s/%s",
				op, kind(a), kind(b))
		}
		plain, err := t.Reconstruct(ctx)
		if err != nil {
			return Result{}, err
		}
		return Result{Plain: plain}, nil

	case OpAdd, OpSub, OpMul:

	default:
		return Result{}, fmt.Errorf("smpc: unsupported operator %v", op)
	}

	var secret *Tensor
	var err error

	switch av := a.(type) {
	case *Tensor:
		switch bv := b.(type) {
		case *Tensor:
			secret, err = secretSecret(ctx, op, av, bv)
		case *public:
			secret, err = secretPublic(ctx, op, av, bv.value)
		default:
			err = fmt.Errorf("smpc: %v: invalid operand %s", op, kind(b))
		}

	case *public:
		bv, ok := b.(*Tensor)
		if !ok {
			err = fmt.Errorf("smpc: %v: no secret operand", op)
		} else {
			secret, err = publicSecret(ctx, op, av.value, bv)
		}

	default:
		err = fmt.Errorf("smpc: %v: invalid operand %s", op, kind(a))
	}
	if err != nil {
		return Result{}, err
	}
	return Result{Secret: secret}, nil
}

// preflight checks the operands and returns the result shape.
func preflight(op Op, a *Tensor, shape tensor.Shape) (tensor.Shape, error) {
	if a.Released() {
		return nil, ErrReleased
	}
	result, err := tensor.Broadcast(a.shape, shape)
	if err != nil {
		err.(*tensor.ShapeMismatchError).Op = op.String()
		return nil, err
	}
	return result, nil
}

func secretSecret(ctx context.Context, op Op, a, b *Tensor) (*Tensor, error) {
	if err := a.sess.Check(b.sess); err != nil {
		return nil, err
	}
	if b.Released() {
		return nil, ErrReleased
	}
	shape, err := preflight(op, a, b.shape)
	if err != nil {
		return nil, err
	}
	sess := a.sess
	sess.Logger().Debug().Str("op", op.String()).Str("a", a.shape.String()).
		Str("b", b.shape.String()).Msg("secret/secret")

	switch op {
	case OpAdd, OpSub:
		pop := party.OpAdd
		if op == OpSub {
			pop = party.OpSub
		}
		return execute(ctx, sess, shape, func(rank int) *party.Request {
			return &party.Request{
				Op:   pop,
				Bits: sess.Ring().Bits(),
				Args: []party.Handle{a.handle(rank), b.handle(rank)},
			}
		})

	default:
		return beaverMul(ctx, a, b, shape)
	}
}

func secretPublic(ctx context.Context, op Op, a *Tensor, b *tensor.Float) (
	*Tensor, error) {

	shape, err := preflight(op, a, b.Shape)
	if err != nil {
		return nil, err
	}
	sess := a.sess
	fp := sess.FixedPoint()

	sess.Logger().Debug().Str("op", op.String()).Str("a", a.shape.String()).
		Str("b", b.Shape.String()).Msg("secret/public")

	switch op {
	case OpAdd, OpSub:
		encoded, err := tensor.Encode(fp, b)
		if err != nil {
			return nil, err
		}
		pop := party.OpAddPublic
		if op == OpSub {
			pop = party.OpSubPublic
		}
		return execute(ctx, sess, shape, func(rank int) *party.Request {
			return &party.Request{
				Op:     pop,
				Bits:   sess.Ring().Bits(),
				Lead:   rank == 0,
				Args:   []party.Handle{a.handle(rank)},
				Public: []*tensor.Tensor{encoded},
			}
		})

	default:
		// Integral values multiply the shares without changing their
		// scale.
		if b.IsIntegral() {
			ints, err := tensor.Integers(sess.Ring(), b)
			if err != nil {
				return nil, err
			}
			return mulPublic(ctx, a, ints, shape)
		}
		encoded, err := tensor.Encode(fp, b)
		if err != nil {
			return nil, err
		}
		product, err := mulPublic(ctx, a, encoded, shape)
		if err != nil {
			return nil, err
		}
		defer product.Release(context.WithoutCancel(ctx))

		return truncate(ctx, product, fp.Scale())
	}
}

func publicSecret(ctx context.Context, op Op, a *tensor.Float, b *Tensor) (
	*Tensor, error) {

	switch op {
	case OpAdd, OpMul:
		return secretPublic(ctx, op, b, a)

	default:
		if _, err := preflight(op, b, a.Shape); err != nil {
			return nil, err
		}
		if _, err := tensor.Encode(b.sess.FixedPoint(), a); err != nil {
			return nil, err
		}
		n, err := neg(ctx, b)
		if err != nil {
			return nil, err
		}
		defer n.Release(context.WithoutCancel(ctx))

		return secretPublic(ctx, OpAdd, n, a)
	}
}

func neg(ctx context.Context, a *Tensor) (*Tensor, error) {
	sess := a.sess
	return execute(ctx, sess, a.shape, func(rank int) *party.Request {
		return &party.Request{
			Op:   party.OpNeg,
			Bits: sess.Ring().Bits(),
			Args: []party.Handle{a.handle(rank)},
		}
	})
}

func mulPublic(ctx context.Context, a *Tensor, b *tensor.Tensor,
	shape tensor.Shape) (*Tensor, error) {

	sess := a.sess
	return execute(ctx, sess, shape, func(rank int) *party.Request {
		return &party.Request{
			Op:     party.OpMulPublic,
			Bits:   sess.Ring().Bits(),
			Args:   []party.Handle{a.handle(rank)},
			Public: []*tensor.Tensor{b},
		}
	})
}

// beaverMul multiplies the secret tensors with a Beaver triple
// (u, v, w). The parties open d = a-u and e = b-v, and compute their
// product shares w + d*v + e*u, the lead party adding d*e. The result
// has the squared scale and it is truncated back to the session scale.
func beaverMul(ctx context.Context, a, b *Tensor, shape tensor.Shape) (
	*Tensor, error) {

	sess := a.sess
	bits := sess.Ring().Bits()
	dealer := sess.Dealer()

	triple, err := dealer.Triple(ctx, a.shape, b.shape)
	if err != nil {
		return nil, err
	}
	defer triple.Release(context.WithoutCancel(ctx))

	if err := triple.Consume(); err != nil {
		return nil, err
	}
	triplesConsumed.Inc()

	sess.Logger().Debug().Str("triple", triple.ID).
		Int("remaining", dealer.Remaining()).Msg("triple consumed")

	d, err := execute(ctx, sess, a.shape, func(rank int) *party.Request {
		return &party.Request{
			Op:   party.OpSub,
			Bits: bits,
			Args: []party.Handle{a.handle(rank), triple.U[rank]},
		}
	})
	if err != nil {
		return nil, err
	}
	defer d.Release(context.WithoutCancel(ctx))

	e, err := execute(ctx, sess, b.shape, func(rank int) *party.Request {
		return &party.Request{
			Op:   party.OpSub,
			Bits: bits,
			Args: []party.Handle{b.handle(rank), triple.V[rank]},
		}
	})
	if err != nil {
		return nil, err
	}
	defer e.Release(context.WithoutCancel(ctx))

	// Both masked values are opened before any party continues.
	dOpen, err := open(ctx, sess, d.shares)
	if err != nil {
		return nil, err
	}
	eOpen, err := open(ctx, sess, e.shares)
	if err != nil {
		return nil, err
	}

	product, err := execute(ctx, sess, shape, func(rank int) *party.Request {
		return &party.Request{
			Op:   party.OpBeaver,
			Bits: bits,
			Lead: rank == 0,
			Args: []party.Handle{
				triple.U[rank], triple.V[rank], triple.W[rank],
			},
			Public: []*tensor.Tensor{dOpen, eOpen},
		}
	})
	if err != nil {
		return nil, err
	}
	defer product.Release(context.WithoutCancel(ctx))

	return truncate(ctx, product, sess.FixedPoint().Scale())
}

// truncate divides the secret tensor by divisor. With one party the
// division is exact. Two parties truncate their shares locally, and
// larger sessions use a truncation pair (r, r/divisor) from the
// dealer: the parties open c = x-r, and the result is r/divisor plus
// the public c/divisor. Both protocols may be off by one unit.
func truncate(ctx context.Context, x *Tensor, divisor uint64) (
	*Tensor, error) {

	sess := x.sess
	bits := sess.Ring().Bits()

	if sess.NumParties() <= 2 {
		return execute(ctx, sess, x.shape, func(rank int) *party.Request {
			return &party.Request{
				Op:      party.OpTruncate,
				Bits:    bits,
				Lead:    rank == 0,
				Divisor: divisor,
				Args:    []party.Handle{x.handle(rank)},
			}
		})
	}

	pair, err := sess.Dealer().TruncationPair(ctx, x.shape, divisor)
	if err != nil {
		return nil, err
	}
	defer pair.Release(context.WithoutCancel(ctx))

	c, err := execute(ctx, sess, x.shape, func(rank int) *party.Request {
		return &party.Request{
			Op:   party.OpSub,
			Bits: bits,
			Args: []party.Handle{x.handle(rank), pair.R[rank]},
		}
	})
	if err != nil {
		return nil, err
	}
	defer c.Release(context.WithoutCancel(ctx))

	cOpen, err := open(ctx, sess, c.shares)
	if err != nil {
		return nil, err
	}
	r := sess.Ring()
	q := tensor.Map(cOpen, func(v uint64) uint64 {
		return r.DivSigned(v, divisor)
	})

	return execute(ctx, sess, x.shape, func(rank int) *party.Request {
		return &party.Request{
			Op:     party.OpAddPublic,
			Bits:   bits,
			Lead:   rank == 0,
			Args:   []party.Handle{pair.RDiv[rank]},
			Public: []*tensor.Tensor{q},
		}
	})
}

// execute runs the share-local requests at all session parties and
// returns the result tensor of shape.
func execute(ctx context.Context, sess *session.Session, shape tensor.Shape,
	request func(rank int) *party.Request) (*Tensor, error) {

	handles, err := each(ctx, sess,
		func(ctx context.Context, rank int, p party.Party) (party.Handle, error) {
			return p.Execute(ctx, request(rank))
		})
	if err != nil {
		return nil, err
	}
	return newTensor(sess, shape, handles), nil
}
