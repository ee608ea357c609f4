//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package party

import (
	"fmt"

	"github.com/markkurossi/smpc/p2p"
	"github.com/markkurossi/smpc/tensor"
)

// Op defines share-local operations that parties execute.
type Op byte

// Share-local operations.
const (
	// OpAdd adds the shares Args[0] and Args[1].
	OpAdd Op = iota + 1
	// OpSub subtracts the share Args[1] from Args[0].
	OpSub
	// OpNeg negates the share Args[0].
	OpNeg
	// OpAddPublic adds Public[0] to the share Args[0] at the lead
	// party. Other parties broadcast their share to the result shape.
	OpAddPublic
	// OpSubPublic subtracts Public[0] from the share Args[0] at the
	// lead party.
	OpSubPublic
	// OpMulPublic multiplies the share Args[0] by Public[0].
	OpMulPublic
	// OpTruncate divides the two-party product share Args[0] by
	// Divisor. The lead computes floor(x/d) and the other party
	// -floor(-x/d).
	OpTruncate
	// OpBeaver computes the product share w + d*v + e*u from the
	// triple shares Args = [u, v, w] and the opened masks
	// Public = [d, e]. The lead also adds d*e.
	OpBeaver
	// OpZeroShare computes a pseudo-random zero share of Shape from
	// the pairwise Keys = [prev, next] and Nonce. If Args holds a
	// share, it is added to the zero share.
	OpZeroShare
)

var opNames = map[Op]string{
	OpAdd:       "add",
	OpSub:       "sub",
	OpNeg:       "neg",
	OpAddPublic: "addPublic",
	OpSubPublic: "subPublic",
	OpMulPublic: "mulPublic",
	OpTruncate:  "truncate",
	OpBeaver:    "beaver",
	OpZeroShare: "zeroShare",
}

func (op Op) String() string {
	name, ok := opNames[op]
	if ok {
		return name
	}
	return fmt.Sprintf("{Op %d}", op)
}

// Request defines a share-local operation.
type Request struct {
	Op      Op
	Bits    uint
	Lead    bool
	Divisor uint64
	Nonce   uint64
	Args    []Handle
	Public  []*tensor.Tensor
	Keys    [][]byte
	Shape   tensor.Shape
}

func (req *Request) String() string {
	return fmt.Sprintf("%v%v", req.Op, req.Args)
}

// Send sends the request to the connection.
func (req *Request) Send(conn *p2p.Conn) error {
	if err := conn.SendByte(byte(req.Op)); err != nil {
		return err
	}
	if err := conn.SendByte(byte(req.Bits)); err != nil {
		return err
	}
	var lead byte
	if req.Lead {
		lead = 1
	}
	if err := conn.SendByte(lead); err != nil {
		return err
	}
	if err := conn.SendUint64(req.Divisor); err != nil {
		return err
	}
	if err := conn.SendUint64(req.Nonce); err != nil {
		return err
	}
	if err := conn.SendUint32(len(req.Args)); err != nil {
		return err
	}
	for _, arg := range req.Args {
		if err := conn.SendString(string(arg)); err != nil {
			return err
		}
	}
	if err := conn.SendUint32(len(req.Public)); err != nil {
		return err
	}
	for _, t := range req.Public {
		if err := sendTensor(conn, t); err != nil {
			return err
		}
	}
	if err := conn.SendUint32(len(req.Keys)); err != nil {
		return err
	}
	for _, key := range req.Keys {
		if err := conn.SendData(key); err != nil {
			return err
		}
	}
	if err := conn.SendUint32(len(req.Shape)); err != nil {
		return err
	}
	for _, d := range req.Shape {
		if err := conn.SendUint32(d); err != nil {
			return err
		}
	}
	return nil
}

// ReceiveRequest receives a request from the connection.
func ReceiveRequest(conn *p2p.Conn) (*Request, error) {
	req := new(Request)

	op, err := conn.ReceiveByte()
	if err != nil {
		return nil, err
	}
	req.Op = Op(op)

	bits, err := conn.ReceiveByte()
	if err != nil {
		return nil, err
	}
	req.Bits = uint(bits)

	lead, err := conn.ReceiveByte()
	if err != nil {
		return nil, err
	}
	req.Lead = lead != 0

	req.Divisor, err = conn.ReceiveUint64()
	if err != nil {
		return nil, err
	}
	req.Nonce, err = conn.ReceiveUint64()
	if err != nil {
		return nil, err
	}

	count, err := conn.ReceiveUint32()
	if err != nil {
		return nil, err
	}
	for i := 0; i < count; i++ {
		arg, err := conn.ReceiveString()
		if err != nil {
			return nil, err
		}
		req.Args = append(req.Args, Handle(arg))
	}

	count, err = conn.ReceiveUint32()
	if err != nil {
		return nil, err
	}
	for i := 0; i < count; i++ {
		t, err := receiveTensor(conn)
		if err != nil {
			return nil, err
		}
		req.Public = append(req.Public, t)
	}

	count, err = conn.ReceiveUint32()
	if err != nil {
		return nil, err
	}
	for i := 0; i < count; i++ {
		key, err := conn.ReceiveData()
		if err != nil {
			return nil, err
		}
		req.Keys = append(req.Keys, key)
	}

	count, err = conn.ReceiveUint32()
	if err != nil {
		return nil, err
	}
	req.Shape = make(tensor.Shape, count)
	for i := 0; i < count; i++ {
		req.Shape[i], err = conn.ReceiveUint32()
		if err != nil {
			return nil, err
		}
	}

	return req, nil
}

func sendTensor(conn *p2p.Conn, t *tensor.Tensor) error {
	data, err := t.MarshalBinary()
	if err != nil {
		return err
	}
	return conn.SendData(data)
}

func receiveTensor(conn *p2p.Conn) (*tensor.Tensor, error) {
	data, err := conn.ReceiveData()
	if err != nil {
		return nil, err
	}
	t := new(tensor.Tensor)
	if err := t.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return t, nil
}
