//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

// Package session implements the shared configuration of one joint
// computation: the ordered parties, the ring, the fixed-point codec,
// pairwise key material, and the trusted dealer.
package session

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rs/xid"
	"github.com/rs/zerolog"

	"github.com/markkurossi/smpc/dealer"
	"github.com/markkurossi/smpc/env"
	"github.com/markkurossi/smpc/party"
	"github.com/markkurossi/smpc/prg"
	"github.com/markkurossi/smpc/ring"
)

const pairKeyContext = "smpc pairwise zero share key"

// Params specify session parameters.
type Params struct {
	// Bits specifies the ring width.
	Bits uint

	// Base and Precision specify the fixed-point scale
	// Base^Precision.
	Base      uint
	Precision uint

	// Seed makes share generation deterministic. It must be used only
	// for testing. If Seed is nil, shares and pairwise keys are drawn
	// from the configured random source.
	Seed []byte

	// Triples specifies the number of Beaver triples the dealer
	// issues before it must be replenished.
	Triples int
}

// NewParams returns new session params object, initialized with the
// default values.
func NewParams() *Params {
	return &Params{
		Bits:      ring.DefaultBits,
		Base:      2,
		Precision: 16,
		Triples:   1024,
	}
}

// Session implements a computation session. The session configuration
// is immutable.
type Session struct {
	m       sync.Mutex
	id      string
	parties []party.Party
	seed    []byte
	ring    ring.Ring
	fp      ring.FixedPoint
	keys    [][]byte
	dealer  *dealer.Dealer
	config  *env.Config
	logger  zerolog.Logger
	started bool
	nonce   uint64
	rounds  uint64
}

// New creates a new session for the parties. If params is nil, the
// default parameters are used.
func New(parties []party.Party, params *Params, config *env.Config) (
	*Session, error) {

	if params == nil {
		params = NewParams()
	}
	if config == nil {
		config = new(env.Config)
	}
	if len(parties) == 0 {
		return nil, fmt.Errorf("session: no parties")
	}
	seen := make(map[string]bool)
	for _, p := range parties {
		if seen[p.Name()] {
			return nil, fmt.Errorf("session: duplicate party %s", p.Name())
		}
		seen[p.Name()] = true
	}
	if params.Triples < 0 {
		return nil, fmt.Errorf("session: invalid triple budget %d",
			params.Triples)
	}
	r, err := ring.New(params.Bits)
	if err != nil {
		return nil, err
	}
	fp, err := ring.NewFixedPoint(r, params.Base, params.Precision)
	if err != nil {
		return nil, err
	}

	master := params.Seed
	if master == nil {
		master = make([]byte, prg.KeySize)
		if _, err := io.ReadFull(config.GetRandom(), master); err != nil {
			return nil, err
		}
	}

	// Key i is shared between parties i and i+1.
	n := len(parties)
	keys := make([][]byte, n)
	for i := range keys {
		keys[i] = prg.DeriveKey(pairKeyContext, master,
			[]byte(parties[i].Name()), []byte(parties[(i+1)%n].Name()))
	}

	id := xid.New().String()
	s := &Session{
		id:      id,
		parties: append([]party.Party(nil), parties...),
		ring:    r,
		fp:      fp,
		keys:    keys,
		config:  config,
		logger:  config.GetLogger().With().Str("session", id).Logger(),
	}
	if params.Seed != nil {
		s.seed = append([]byte(nil), params.Seed...)
	}
	s.dealer = dealer.New(s.parties, r, params.Triples, config)

	s.logger.Debug().Int("parties", n).Str("ring", r.String()).
		Str("fixedPoint", fp.String()).Int("triples", params.Triples).
		Msg("session created")

	return s, nil
}

// ID returns the session ID.
func (s *Session) ID() string {
	return s.id
}

// Ring returns the session ring.
func (s *Session) Ring() ring.Ring {
	return s.ring
}

// FixedPoint returns the session fixed-point codec.
func (s *Session) FixedPoint() ring.FixedPoint {
	return s.fp
}

// NumParties returns the number of parties.
func (s *Session) NumParties() int {
	return len(s.parties)
}

// Party returns the party of rank i.
func (s *Session) Party(i int) party.Party {
	return s.parties[i]
}

// Parties returns the parties in the session's canonical order.
func (s *Session) Parties() []party.Party {
	return append([]party.Party(nil), s.parties...)
}

// Rank returns the rank of the named party.
func (s *Session) Rank(name string) (int, error) {
	for i, p := range s.parties {
		if p.Name() == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("session: unknown party %s", name)
}

// Dealer returns the session's trusted dealer.
func (s *Session) Dealer() *dealer.Dealer {
	return s.dealer
}

// Seed returns the deterministic share generation seed or nil.
func (s *Session) Seed() []byte {
	return s.seed
}

// Rand returns the session's source of randomness.
func (s *Session) Rand() io.Reader {
	return s.config.GetRandom()
}

// Config returns the session's environment configuration.
func (s *Session) Config() *env.Config {
	return s.config
}

// Logger returns the session logger.
func (s *Session) Logger() *zerolog.Logger {
	return &s.logger
}

// Start marks the computation started. Start is idempotent.
func (s *Session) Start() {
	s.m.Lock()
	defer s.m.Unlock()
	if !s.started {
		s.started = true
		s.logger.Debug().Msg("session started")
	}
}

// Started tests if the computation has started.
func (s *Session) Started() bool {
	s.m.Lock()
	defer s.m.Unlock()
	return s.started
}

// NextNonce returns a fresh stream nonce.
func (s *Session) NextNonce() uint64 {
	s.m.Lock()
	defer s.m.Unlock()
	s.nonce++
	return s.nonce
}

// CountRound records one communication round with the parties.
func (s *Session) CountRound() {
	s.m.Lock()
	s.rounds++
	s.m.Unlock()
}

// Rounds returns the number of communication rounds run in the
// session.
func (s *Session) Rounds() uint64 {
	s.m.Lock()
	defer s.m.Unlock()
	return s.rounds
}

// PairKeys returns the pairwise keys that the party of rank shares with
// its previous and next party.
func (s *Session) PairKeys(rank int) (prev, next []byte) {
	n := len(s.keys)
	return s.keys[(rank+n-1)%n], s.keys[rank]
}

func (s *Session) String() string {
	var names []string
	for _, p := range s.parties {
		names = append(names, p.Name())
	}
	return fmt.Sprintf("%s{%s, %s, %s}", s.id, strings.Join(names, ","),
		s.ring, s.fp)
}

// MismatchError is returned when operands of a joint computation
// belong to different sessions.
type MismatchError struct {
	Attribute string
	A         string
	B         string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("session: %s mismatch: %s != %s",
		e.Attribute, e.A, e.B)
}

// Check verifies that s and o are the same session. If they differ,
// the function returns a *MismatchError naming the first differing
// attribute.
func (s *Session) Check(o *Session) error {
	if s == o {
		return nil
	}
	if o == nil {
		return &MismatchError{
			Attribute: "session",
			A:         s.id,
			B:         "nil",
		}
	}
	if len(s.parties) != len(o.parties) {
		return &MismatchError{
			Attribute: "party count",
			A:         fmt.Sprintf("%d", len(s.parties)),
			B:         fmt.Sprintf("%d", len(o.parties)),
		}
	}
	for i := range s.parties {
		if s.parties[i].Name() != o.parties[i].Name() {
			return &MismatchError{
				Attribute: fmt.Sprintf("party %d", i),
				A:         s.parties[i].Name(),
				B:         o.parties[i].Name(),
			}
		}
	}
	if !s.ring.Equal(o.ring) {
		return &MismatchError{
			Attribute: "ring",
			A:         s.ring.String(),
			B:         o.ring.String(),
		}
	}
	if s.fp.Base() != o.fp.Base() {
		return &MismatchError{
			Attribute: "base",
			A:         fmt.Sprintf("%d", s.fp.Base()),
			B:         fmt.Sprintf("%d", o.fp.Base()),
		}
	}
	if s.fp.Precision() != o.fp.Precision() {
		return &MismatchError{
			Attribute: "precision",
			A:         fmt.Sprintf("%d", s.fp.Precision()),
			B:         fmt.Sprintf("%d", o.fp.Precision()),
		}
	}
	return &MismatchError{
		Attribute: "session",
		A:         s.id,
		B:         o.id,
	}
}
