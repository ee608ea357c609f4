//
// Copyright (c) 2020-2026 Markku Rossi
//
// All rights reserved.
//

// Package timing implements per-operation protocol cost reports. A
// report samples cumulative protocol counters at operation boundaries
// and attributes the differences to the operations.
package timing

import (
	"fmt"
	"io"
	"time"

	"github.com/markkurossi/tabulate"
)

// Counters hold protocol cost counters.
type Counters struct {
	Rounds uint64
	Sent   uint64
	Recvd  uint64
}

// Sub returns the counter differences c-o.
func (c Counters) Sub(o Counters) Counters {
	return Counters{
		Rounds: c.Rounds - o.Rounds,
		Sent:   c.Sent - o.Sent,
		Recvd:  c.Recvd - o.Recvd,
	}
}

// Add returns the counter sums c+o.
func (c Counters) Add(o Counters) Counters {
	return Counters{
		Rounds: c.Rounds + o.Rounds,
		Sent:   c.Sent + o.Sent,
		Recvd:  c.Recvd + o.Recvd,
	}
}

// Xfer returns the number of bytes transferred.
func (c Counters) Xfer() uint64 {
	return c.Sent + c.Recvd
}

// Source returns the current cumulative counters.
type Source func() Counters

// Op holds the costs of one protocol operation.
type Op struct {
	Label    string
	Duration time.Duration
	Counters
}

// Report records the costs of consecutive protocol operations.
type Report struct {
	Ops    []*Op
	source Source
	last   time.Time
	prev   Counters
}

// New creates a new report that reads its counters from source. A nil
// source records durations only.
func New(source Source) *Report {
	if source == nil {
		source = func() Counters {
			return Counters{}
		}
	}
	return &Report{
		source: source,
		last:   time.Now(),
		prev:   source(),
	}
}

// Record ends the current operation and attributes the time and the
// counter increments since the previous operation to it.
func (r *Report) Record(label string) *Op {
	now := time.Now()
	counters := r.source()

	op := &Op{
		Label:    label,
		Duration: now.Sub(r.last),
		Counters: counters.Sub(r.prev),
	}
	r.Ops = append(r.Ops, op)
	r.last = now
	r.prev = counters

	return op
}

// Total returns the sum of the recorded operations.
func (r *Report) Total() Op {
	total := Op{
		Label: "Total",
	}
	for _, op := range r.Ops {
		total.Duration += op.Duration
		total.Counters = total.Counters.Add(op.Counters)
	}
	return total
}

// Print prints the report to w.
func (r *Report) Print(w io.Writer) {
	if len(r.Ops) == 0 {
		return
	}
	total := r.Total()

	tab := tabulate.New(tabulate.UnicodeLight)
	tab.Header("Op").SetAlign(tabulate.ML)
	tab.Header("Time").SetAlign(tabulate.MR)
	tab.Header("%").SetAlign(tabulate.MR)
	tab.Header("Rounds").SetAlign(tabulate.MR)
	tab.Header("Sent").SetAlign(tabulate.MR)
	tab.Header("Rcvd").SetAlign(tabulate.MR)

	for _, op := range r.Ops {
		row := tab.Row()
		row.Column(op.Label)
		row.Column(op.Duration.String())
		row.Column(ratio(uint64(op.Duration), uint64(total.Duration)))
		row.Column(fmt.Sprintf("%d", op.Rounds))
		row.Column(Bytes(op.Sent).String())
		row.Column(Bytes(op.Recvd).String())
	}

	row := tab.Row()
	row.Column(total.Label).SetFormat(tabulate.FmtBold)
	row.Column(total.Duration.String()).SetFormat(tabulate.FmtBold)
	row.Column("").SetFormat(tabulate.FmtBold)
	row.Column(fmt.Sprintf("%d", total.Rounds)).SetFormat(tabulate.FmtBold)
	row.Column(Bytes(total.Sent).String()).SetFormat(tabulate.FmtBold)
	row.Column(Bytes(total.Recvd).String()).SetFormat(tabulate.FmtBold)

	if total.Rounds > 0 {
		row = tab.Row()
		row.Column("╰╴Per round").SetFormat(tabulate.FmtItalic)
		row.Column((total.Duration / time.Duration(total.Rounds)).String()).
			SetFormat(tabulate.FmtItalic)
		row.Column(ratio(total.Sent, total.Xfer())).
			SetFormat(tabulate.FmtItalic)
		row.Column("")
		row.Column(Bytes(total.Sent / total.Rounds).String()).
			SetFormat(tabulate.FmtItalic)
		row.Column(Bytes(total.Recvd / total.Rounds).String()).
			SetFormat(tabulate.FmtItalic)
	}

	tab.Print(w)
}

func ratio(a, b uint64) string {
	if b == 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f%%", float64(a)/float64(b)*100)
}

// Bytes specifies a data size in bytes.
type Bytes uint64

var units = []string{"B", "kB", "MB", "GB", "TB"}

func (b Bytes) String() string {
	v := uint64(b)
	var unit int
	for v >= 1000 && unit+1 < len(units) {
		v /= 1000
		unit++
	}
	return fmt.Sprintf("%d%s", v, units[unit])
}
