//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package session

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/markkurossi/smpc/env"
	"github.com/markkurossi/smpc/party"
)

func newParties(names ...string) []party.Party {
	var result []party.Party
	for _, name := range names {
		result = append(result, party.NewLocal(name, &env.Config{}))
	}
	return result
}

func TestNew(t *testing.T) {
	parties := newParties("alice", "bob", "carol")
	s, err := New(parties, NewParams(), nil)
	require.NoError(t, err)

	require.Equal(t, 3, s.NumParties())
	require.Equal(t, uint(64), s.Ring().Bits())
	require.Equal(t, uint64(1<<16), s.FixedPoint().Scale())
	require.Equal(t, 1024, s.Dealer().Remaining())
	require.Nil(t, s.Seed())
	require.Equal(t, "bob", s.Party(1).Name())

	rank, err := s.Rank("carol")
	require.NoError(t, err)
	require.Equal(t, 2, rank)
	_, err = s.Rank("dave")
	require.Error(t, err)

	require.False(t, s.Started())
	s.Start()
	s.Start()
	require.True(t, s.Started())

	n1 := s.NextNonce()
	require.Greater(t, s.NextNonce(), n1)

	require.Zero(t, s.Rounds())
	s.CountRound()
	s.CountRound()
	require.Equal(t, uint64(2), s.Rounds())

	// Each key is shared by two neighbors.
	for i := 0; i < 3; i++ {
		_, next := s.PairKeys(i)
		prev, _ := s.PairKeys((i + 1) % 3)
		require.Equal(t, next, prev)
	}
	_, k0 := s.PairKeys(0)
	_, k1 := s.PairKeys(1)
	require.False(t, bytes.Equal(k0, k1))
}

func TestNewInvalid(t *testing.T) {
	_, err := New(nil, NewParams(), nil)
	require.Error(t, err)

	_, err = New(newParties("a", "a"), NewParams(), nil)
	require.Error(t, err)

	params := NewParams()
	params.Bits = 16
	params.Precision = 15
	_, err = New(newParties("a"), params, nil)
	require.Error(t, err)

	params = NewParams()
	params.Base = 1
	_, err = New(newParties("a"), params, nil)
	require.Error(t, err)

	params = NewParams()
	params.Triples = -1
	_, err = New(newParties("a"), params, nil)
	require.Error(t, err)
}

func TestSeededKeys(t *testing.T) {
	parties := newParties("a", "b")
	params := NewParams()
	params.Seed = []byte("seed")

	s1, err := New(parties, params, nil)
	require.NoError(t, err)
	s2, err := New(parties, params, nil)
	require.NoError(t, err)

	_, k1 := s1.PairKeys(0)
	_, k2 := s2.PairKeys(0)
	require.Equal(t, k1, k2)
	require.Equal(t, []byte("seed"), s1.Seed())
	require.NotEqual(t, s1.ID(), s2.ID())
}

func TestCheck(t *testing.T) {
	parties := newParties("a", "b")
	s1, err := New(parties, NewParams(), nil)
	require.NoError(t, err)
	require.NoError(t, s1.Check(s1))

	var mismatch *MismatchError

	s2, err := New(parties, NewParams(), nil)
	require.NoError(t, err)
	require.ErrorAs(t, s1.Check(s2), &mismatch)
	require.Equal(t, "session", mismatch.Attribute)

	s3, err := New(newParties("a", "b", "c"), NewParams(), nil)
	require.NoError(t, err)
	require.ErrorAs(t, s1.Check(s3), &mismatch)
	require.Equal(t, "party count", mismatch.Attribute)

	s4, err := New(newParties("b", "a"), NewParams(), nil)
	require.NoError(t, err)
	require.ErrorAs(t, s1.Check(s4), &mismatch)
	require.Equal(t, "party 0", mismatch.Attribute)

	params := NewParams()
	params.Bits = 32
	s5, err := New(parties, params, nil)
	require.NoError(t, err)
	require.ErrorAs(t, s1.Check(s5), &mismatch)
	require.Equal(t, "ring", mismatch.Attribute)

	params = NewParams()
	params.Precision = 12
	s6, err := New(parties, params, nil)
	require.NoError(t, err)
	require.ErrorAs(t, s1.Check(s6), &mismatch)
	require.Equal(t, "precision", mismatch.Attribute)

	params = NewParams()
	params.Base = 10
	params.Precision = 4
	s7, err := New(parties, params, nil)
	require.NoError(t, err)
	require.ErrorAs(t, s1.Check(s7), &mismatch)
	require.Equal(t, "base", mismatch.Attribute)
}

const testConfig = `
ring:
  bits: 32
fixedPoint:
  base: 10
  precision: 3
seed: reproducible
triples: 8
timeout: 5s
log: debug
parties:
  - name: alice
    addr: localhost:9001
  - name: bob
    addr: localhost:9002
`

func TestConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0644))

	config, err := LoadConfig(path)
	require.NoError(t, err)
	require.Len(t, config.Parties, 2)
	require.Equal(t, "localhost:9002", config.Parties[1].Addr)
	require.Equal(t, 5*time.Second, config.Timeout)
	require.Equal(t, "debug", config.Log)

	params := config.Params()
	require.Equal(t, uint(32), params.Bits)
	require.Equal(t, uint(10), params.Base)
	require.Equal(t, uint(3), params.Precision)
	require.Equal(t, []byte("reproducible"), params.Seed)
	require.Equal(t, 8, params.Triples)

	config, err = ParseConfig([]byte("parties:\n  - name: a\n"))
	require.NoError(t, err)
	require.Equal(t, NewParams(), config.Params())

	_, err = ParseConfig([]byte("parties: []\n"))
	require.Error(t, err)
	_, err = ParseConfig([]byte("unknown: 1\nparties:\n  - name: a\n"))
	require.Error(t, err)
	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
