//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package timing

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytes(t *testing.T) {
	tests := []struct {
		size Bytes
		want string
	}{
		{0, "0B"},
		{999, "999B"},
		{1000, "1kB"},
		{1500, "1kB"},
		{2500000, "2MB"},
		{3000000001, "3GB"},
		{4000000000001, "4TB"},
		{5000000000000000, "5000TB"},
	}
	for _, test := range tests {
		assert.Equal(t, test.want, test.size.String())
	}
}

func TestRecord(t *testing.T) {
	var counters Counters
	report := New(func() Counters {
		return counters
	})

	var buf bytes.Buffer
	report.Print(&buf)
	assert.Zero(t, buf.Len())

	counters = Counters{Rounds: 1, Sent: 1000, Recvd: 24}
	share := report.Record("Share")

	counters = Counters{Rounds: 4, Sent: 3500, Recvd: 1024}
	mul := report.Record("Mul")

	reveal := report.Record("Reveal")

	assert.Equal(t, Counters{Rounds: 1, Sent: 1000, Recvd: 24},
		share.Counters)
	assert.Equal(t, Counters{Rounds: 3, Sent: 2500, Recvd: 1000},
		mul.Counters)
	assert.Equal(t, Counters{}, reveal.Counters)

	total := report.Total()
	assert.Equal(t, Counters{Rounds: 4, Sent: 3500, Recvd: 1024},
		total.Counters)
	assert.Equal(t, uint64(4524), total.Xfer())
	for _, op := range report.Ops {
		require.GreaterOrEqual(t, op.Duration, time.Duration(0))
	}
	assert.Equal(t, share.Duration+mul.Duration+reveal.Duration,
		total.Duration)

	report.Print(&buf)
	out := buf.String()
	for _, label := range []string{"Share", "Mul", "Reveal", "Total",
		"Per round", "3kB", "2kB", "1kB", "24B"} {
		assert.Contains(t, out, label)
	}
}

func TestRecordStartOffset(t *testing.T) {
	counters := Counters{Rounds: 7, Sent: 100, Recvd: 100}
	report := New(func() Counters {
		return counters
	})
	counters.Rounds++

	op := report.Record("Add")
	assert.Equal(t, Counters{Rounds: 1}, op.Counters)
}

func TestNilSource(t *testing.T) {
	report := New(nil)
	op := report.Record("Add")
	assert.Equal(t, Counters{}, op.Counters)

	var buf bytes.Buffer
	report.Print(&buf)
	assert.Contains(t, buf.String(), "Add")
	assert.NotContains(t, buf.String(), "Per round")
}
