package merylstream

import (
	"fmt"

	"github.com/INLOpen/meryl/bitstream"
	"github.com/INLOpen/meryl/core"
	"github.com/INLOpen/meryl/sys"
	"github.com/RoaringBitmap/roaring/roaring64"
	"go.opentelemetry.io/otel/attribute"
)

// BucketStats describes how the mers of a file set spread over its buckets.
type BucketStats struct {
	NumBuckets    uint64
	EmptyBuckets  uint64
	LargestBucket uint64 // bucket number
	LargestSize   uint64
	NumDistinct   uint64
	// Occupied holds the number of every bucket with at least one mer.
	Occupied *roaring64.Bitmap
}

// MeanSize is the average population of the non-empty buckets.
func (s *BucketStats) MeanSize() float64 {
	occupied := s.NumBuckets - s.EmptyBuckets
	if occupied == 0 {
		return 0
	}
	return float64(s.NumDistinct) / float64(occupied)
}

// ScanBuckets reads the bucket table of a file set without touching its
// data streams.
func ScanBuckets(prefix string, opts ReaderOptions) (*BucketStats, error) {
	files := core.NewFileSet(prefix)
	span := startSpan(opts.Tracer, "MerylReader.ScanBuckets", attribute.String("meryl.prefix", files.Prefix))
	defer span.End()

	stats, err := scanBuckets(files, opts)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	opts.logger().Debug("Scanned buckets",
		"component", "MerylReader",
		"prefix", files.Name(),
		"buckets", stats.NumBuckets,
		"empty", stats.EmptyBuckets,
		"largest", stats.LargestSize,
	)
	return stats, nil
}

func scanBuckets(files core.FileSet, opts ReaderOptions) (*BucketStats, error) {
	f, err := sys.Open(files.Index)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", files.Index, err)
	}
	defer f.Close()

	hdr, err := readHeader(f, files.Index)
	if err != nil {
		return nil, err
	}
	if opts.MerSize != 0 && opts.MerSize != hdr.merSize {
		return nil, fmt.Errorf("%w: %s holds %d-mers, want %d", core.ErrMerSizeMismatch, files.Index, hdr.merSize, opts.MerSize)
	}

	br, err := bitstream.NewReaderAt(f, HeaderSize, 0)
	if err != nil {
		return nil, err
	}
	stats := &BucketStats{
		NumBuckets: hdr.numBuckets(),
		Occupied:   roaring64.New(),
	}
	for b := uint64(0); b < stats.NumBuckets; b++ {
		n, err := getNumber(br, hdr.idxEncoding)
		if err != nil {
			return nil, streamError(fmt.Sprintf("bucket %d", b), err)
		}
		if n == 0 {
			stats.EmptyBuckets++
			continue
		}
		stats.Occupied.Add(b)
		stats.NumDistinct += n
		if n > stats.LargestSize {
			stats.LargestBucket = b
			stats.LargestSize = n
		}
	}
	if stats.NumDistinct != hdr.numDistinct {
		return nil, fmt.Errorf("%w: buckets hold %d mers, header says %d", core.ErrCorrupted, stats.NumDistinct, hdr.numDistinct)
	}
	return stats, nil
}
