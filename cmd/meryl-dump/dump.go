package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/INLOpen/meryl/merylstream"
	"github.com/INLOpen/meryl/stats"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

type dumper struct {
	merSize     uint32
	parallelism int
	quantiles   []float64
	logger      *slog.Logger
	tracer      trace.Tracer
	table       *table
}

func (d *dumper) readerOptions() merylstream.ReaderOptions {
	return merylstream.ReaderOptions{MerSize: d.merSize, Logger: d.logger, Tracer: d.tracer}
}

func (d *dumper) dump(mode string, prefixes []string) error {
	switch mode {
	case "mers":
		for _, p := range prefixes {
			if err := d.dumpMers(p); err != nil {
				return err
			}
		}
		return nil
	case "histogram":
		for _, p := range prefixes {
			if err := d.dumpHistogram(p, len(prefixes) > 1); err != nil {
				return err
			}
		}
		return nil
	case "stats":
		return d.dumpStats(prefixes)
	case "buckets":
		return d.dumpBuckets(prefixes)
	default:
		return fmt.Errorf("unknown mode %q", mode)
	}
}

func (d *dumper) dumpMers(prefix string) error {
	r, err := merylstream.Open(prefix, d.readerOptions())
	if err != nil {
		return err
	}
	defer r.Close()

	k := r.MerSize()
	for r.Next() {
		if !r.HasPositions() {
			if err := d.table.Row(r.Mer().Format(k), r.Count()); err != nil {
				return err
			}
			continue
		}
		if err := d.table.Row(r.Mer().Format(k), r.Count(), formatPositions(r.Positions())); err != nil {
			return err
		}
	}
	return r.Err()
}

func formatPositions(ps []uint32) string {
	var sb strings.Builder
	for i, p := range ps {
		if i > 0 {
			sb.WriteByte(',')
		}
		if p == merylstream.PositionUnknown {
			sb.WriteByte('?')
			continue
		}
		sb.WriteString(strconv.FormatUint(uint64(p), 10))
	}
	return sb.String()
}

func (d *dumper) dumpHistogram(prefix string, labelled bool) error {
	r, err := merylstream.Open(prefix, d.readerOptions())
	if err != nil {
		return err
	}
	defer r.Close()

	s, err := stats.Summarize(r, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", prefix, err)
	}
	for _, b := range s.Bins {
		cols := []any{b.Count, b.Distinct, fmt.Sprintf("%.4f", b.DistinctFraction), fmt.Sprintf("%.4f", b.TotalFraction)}
		if labelled {
			cols = append([]any{r.Prefix()}, cols...)
		}
		if err := d.table.Row(cols...); err != nil {
			return err
		}
	}
	return nil
}

// dumpStats summarises every file set concurrently and prints the results
// in argument order.
func (d *dumper) dumpStats(prefixes []string) error {
	summaries := make([]*stats.Summary, len(prefixes))
	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(max(1, d.parallelism))
	for i, p := range prefixes {
		i, p := i, p
		g.Go(func() error {
			r, err := merylstream.Open(p, d.readerOptions())
			if err != nil {
				return err
			}
			defer r.Close()
			s, err := stats.Summarize(r, d.quantiles)
			if err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}
			summaries[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	header := []any{"prefix", "distinct", "unique", "total", "max", "mean"}
	for _, q := range d.quantiles {
		header = append(header, fmt.Sprintf("q%g", q))
	}
	if err := d.table.Row(header...); err != nil {
		return err
	}
	for i, s := range summaries {
		row := []any{prefixes[i], s.NumDistinct, s.NumUnique, s.NumTotal, s.MaxCount, fmt.Sprintf("%.3f", s.MeanCount)}
		for j := range d.quantiles {
			if j < len(s.Quantiles) {
				row = append(row, fmt.Sprintf("%.1f", s.Quantiles[j].Count))
			} else {
				row = append(row, "-")
			}
		}
		if err := d.table.Row(row...); err != nil {
			return err
		}
	}
	return nil
}

func (d *dumper) dumpBuckets(prefixes []string) error {
	if err := d.table.Row("prefix", "buckets", "occupied", "empty", "largest", "largest_size", "mean_size", "first", "last"); err != nil {
		return err
	}
	for _, p := range prefixes {
		bs, err := merylstream.ScanBuckets(p, d.readerOptions())
		if err != nil {
			return err
		}
		first, last := "-", "-"
		if !bs.Occupied.IsEmpty() {
			first = strconv.FormatUint(bs.Occupied.Minimum(), 10)
			last = strconv.FormatUint(bs.Occupied.Maximum(), 10)
		}
		if err := d.table.Row(p, bs.NumBuckets, bs.Occupied.GetCardinality(), bs.EmptyBuckets,
			bs.LargestBucket, bs.LargestSize, fmt.Sprintf("%.2f", bs.MeanSize()), first, last); err != nil {
			return err
		}
	}
	return nil
}
