//
// Copyright (c) 2019-2026 Markku Rossi
//
// All rights reserved.
//

package smpc

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/montanaflynn/stats"

	"github.com/markkurossi/smpc/tensor"
)

// PrintResults prints the result values. If prec is negative, the
// values are printed with the smallest number of digits that
// represents them exactly.
func PrintResults(w io.Writer, results []*tensor.Float, prec int) {
	for idx, result := range results {
		fmt.Fprintf(w, "Result[%d]: %v[", idx, result.Shape)
		for i, v := range result.Data {
			if i > 0 {
				fmt.Fprint(w, " ")
			}
			fmt.Fprint(w, strconv.FormatFloat(v, 'f', prec, 64))
		}
		fmt.Fprintln(w, "]")
	}
}

// ErrorStats describes the absolute error between reconstructed and
// expected values.
type ErrorStats struct {
	Max    float64
	Mean   float64
	Median float64
}

func (s ErrorStats) String() string {
	return fmt.Sprintf("max=%g, mean=%g, median=%g", s.Max, s.Mean, s.Median)
}

// Errors computes the absolute error statistics of got compared to
// want. The tensors must have the same number of elements.
func Errors(got, want *tensor.Float) (ErrorStats, error) {
	if got.Size() != want.Size() {
		return ErrorStats{}, fmt.Errorf("smpc: %d values, expected %d",
			got.Size(), want.Size())
	}
	if got.Size() == 0 {
		return ErrorStats{}, nil
	}
	diffs := make(stats.Float64Data, got.Size())
	for i := range got.Data {
		diffs[i] = math.Abs(got.Data[i] - want.Data[i])
	}

	var result ErrorStats
	var err error

	result.Max, err = stats.Max(diffs)
	if err != nil {
		return result, err
	}
	result.Mean, err = stats.Mean(diffs)
	if err != nil {
		return result, err
	}
	result.Median, err = stats.Median(diffs)
	if err != nil {
		return result, err
	}
	return result, nil
}
