// Package stats derives summary statistics from the totals and histogram of
// a mer-count file set.
package stats

import (
	"fmt"

	"github.com/caio/go-tdigest/v4"
)

// DefaultQuantiles are reported when Summarize is given none.
var DefaultQuantiles = []float64{0.5, 0.9, 0.99}

// Source is the read-only view of a file set that Summarize needs.
// *merylstream.Reader satisfies it.
type Source interface {
	NumUnique() uint64
	NumDistinct() uint64
	NumTotal() uint64
	HistogramLen() uint64
	Histogram(i uint64) uint64
	HistogramMaxCount() uint64
}

// Bin is one non-empty histogram row.
type Bin struct {
	Count    uint64 // occurrence count
	Distinct uint64 // mers with exactly Count occurrences
	// DistinctFraction and TotalFraction are cumulative over rows up to and
	// including this one.
	DistinctFraction float64
	TotalFraction    float64
}

// Quantile is the approximate count at or below which Q of the distinct mers
// fall.
type Quantile struct {
	Q     float64
	Count float64
}

// Summary describes a file set.
type Summary struct {
	NumUnique   uint64
	NumDistinct uint64
	NumTotal    uint64
	MaxCount    uint64
	MeanCount   float64
	// Beyond is the number of distinct mers whose count had no histogram
	// slot.
	Beyond    uint64
	Bins      []Bin
	Quantiles []Quantile
}

// Summarize builds a Summary from src. Mers whose count is beyond the
// histogram are folded into the quantile estimate at the maximum count.
func Summarize(src Source, quantiles []float64) (*Summary, error) {
	if len(quantiles) == 0 {
		quantiles = DefaultQuantiles
	}
	s := &Summary{
		NumUnique:   src.NumUnique(),
		NumDistinct: src.NumDistinct(),
		NumTotal:    src.NumTotal(),
		MaxCount:    src.HistogramMaxCount(),
	}
	if s.NumDistinct > 0 {
		s.MeanCount = float64(s.NumTotal) / float64(s.NumDistinct)
	}

	td, err := tdigest.New()
	if err != nil {
		return nil, fmt.Errorf("tdigest.New failed: %w", err)
	}

	var distinct, total uint64
	for v := uint64(1); v < src.HistogramLen(); v++ {
		n := src.Histogram(v)
		if n == 0 {
			continue
		}
		distinct += n
		total += n * v
		s.Bins = append(s.Bins, Bin{
			Count:            v,
			Distinct:         n,
			DistinctFraction: fraction(distinct, s.NumDistinct),
			TotalFraction:    fraction(total, s.NumTotal),
		})
		if err := td.AddWeighted(float64(v), n); err != nil {
			return nil, fmt.Errorf("tdigest AddWeighted failed: %w", err)
		}
	}

	if distinct > s.NumDistinct {
		return nil, fmt.Errorf("histogram holds %d mers, more than the %d distinct", distinct, s.NumDistinct)
	}
	s.Beyond = s.NumDistinct - distinct
	if s.Beyond > 0 {
		if err := td.AddWeighted(float64(s.MaxCount), s.Beyond); err != nil {
			return nil, fmt.Errorf("tdigest AddWeighted failed: %w", err)
		}
	}

	if td.Count() > 0 {
		for _, q := range quantiles {
			if q < 0 || q > 1 {
				return nil, fmt.Errorf("quantile %g outside [0, 1]", q)
			}
			s.Quantiles = append(s.Quantiles, Quantile{Q: q, Count: td.Quantile(q)})
		}
	}
	return s, nil
}

func fraction(n, of uint64) float64 {
	if of == 0 {
		return 0
	}
	return float64(n) / float64(of)
}
