package merylstream

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/INLOpen/meryl/bitstream"
	"github.com/INLOpen/meryl/core"
	"github.com/INLOpen/meryl/mer"
	"github.com/INLOpen/meryl/sys"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Reader iterates the mers of a file set in increasing order.
//
//	r, err := merylstream.Open("reads", merylstream.ReaderOptions{})
//	...
//	for r.Next() {
//		use(r.Mer(), r.Count())
//	}
//	err = r.Err()
type Reader struct {
	files  core.FileSet
	hdr    *header
	logger *slog.Logger
	tracer trace.Tracer

	idxFile sys.FileHandle
	datFile sys.FileHandle
	posFile sys.FileHandle
	buckets *bitstream.Reader // bucket table cursor over the IDX body
	dat     *bitstream.Reader
	pos     *bitstream.Reader

	histogram []uint64

	nextBucket     uint64 // buckets consumed from the table
	thisBucket     uint64
	thisBucketLeft uint64 // mers of thisBucket not yet returned
	decoded        uint64
	drained        bool // streams checked for data past the last mer

	mer       mer.Mer
	count     uint64
	positions []uint32

	valid  bool
	err    error
	closed bool
}

// Open reads the header of the file set named by prefix, validates its
// bucket table against the totals and loads the histogram.
func Open(prefix string, opts ReaderOptions) (_ *Reader, err error) {
	files := core.NewFileSet(prefix)
	span := startSpan(opts.Tracer, "MerylReader.Open", attribute.String("meryl.prefix", files.Prefix))
	defer span.End()

	r := &Reader{
		files:  files,
		logger: opts.logger().With("component", "MerylReader", "prefix", files.Name()),
		tracer: opts.Tracer,
	}
	defer func() {
		if err != nil {
			recordSpanError(span, err)
			r.logger.Error("Failed to open file set", "error", err)
			r.Close()
		}
	}()

	if r.idxFile, err = sys.Open(files.Index); err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", files.Index, err)
	}
	if r.hdr, err = readHeader(r.idxFile, files.Index); err != nil {
		return nil, err
	}
	if opts.MerSize != 0 && opts.MerSize != r.hdr.merSize {
		return nil, fmt.Errorf("%w: %s holds %d-mers, want %d", core.ErrMerSizeMismatch, files.Index, r.hdr.merSize, opts.MerSize)
	}
	if err = r.loadIndex(); err != nil {
		return nil, err
	}

	if r.buckets, err = bitstream.NewReaderAt(r.idxFile, HeaderSize, 0); err != nil {
		return nil, err
	}
	if r.datFile, r.dat, err = openStream(files.Data, core.DataMagicNumber); err != nil {
		return nil, err
	}
	if r.hdr.positionsEnabled {
		if r.posFile, r.pos, err = openStream(files.Positions, core.PositionsMagicNumber); err != nil {
			return nil, err
		}
		r.positions = make([]uint32, 0, min(r.hdr.positionsCap, DefaultPositionsCap))
	}

	span.SetAttributes(
		attribute.Int("meryl.mer_size", int(r.hdr.merSize)),
		attribute.Int64("meryl.num_distinct", int64(r.hdr.numDistinct)),
	)
	r.logger.Info("Opened file set",
		"mer_size", r.hdr.merSize,
		"prefix_size", r.hdr.prefixSize,
		"num_distinct", r.hdr.numDistinct,
		"positions", r.hdr.positionsEnabled,
	)
	return r, nil
}

// loadIndex streams the bucket table once to check that it sums to
// numDistinct and ends where the histogram starts, then reads the histogram.
func (r *Reader) loadIndex() error {
	st, err := r.idxFile.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", r.files.Index, err)
	}
	bodyBits := uint64(st.Size()-HeaderSize) * 8
	if r.hdr.histogramPos > bodyBits {
		return fmt.Errorf("%w: histogram offset %d beyond index body of %d bits", core.ErrCorrupted, r.hdr.histogramPos, bodyBits)
	}
	// Every histogram entry takes at least two bits.
	if r.hdr.histogramLen > (bodyBits-r.hdr.histogramPos)/2 ||
		(r.hdr.histogramLen > 0 && r.hdr.histogramLen-1 > r.hdr.histogramMaxValue) {
		return fmt.Errorf("%w: histogram length %d does not fit the index", core.ErrCorrupted, r.hdr.histogramLen)
	}

	br, err := bitstream.NewReaderAt(r.idxFile, HeaderSize, 0)
	if err != nil {
		return err
	}
	var sum uint64
	for b := uint64(0); b < r.hdr.numBuckets(); b++ {
		n, err := getNumber(br, r.hdr.idxEncoding)
		if err != nil {
			return streamError(fmt.Sprintf("bucket %d", b), err)
		}
		if n > math.MaxUint64-sum {
			return fmt.Errorf("%w: bucket populations overflow", core.ErrCorrupted)
		}
		sum += n
	}
	if sum != r.hdr.numDistinct {
		return fmt.Errorf("%w: buckets hold %d mers, header says %d", core.ErrCorrupted, sum, r.hdr.numDistinct)
	}
	if br.Tell() != r.hdr.histogramPos {
		return fmt.Errorf("%w: bucket table ends at bit %d, histogram starts at %d", core.ErrCorrupted, br.Tell(), r.hdr.histogramPos)
	}

	r.histogram = make([]uint64, r.hdr.histogramLen)
	for i := range r.histogram {
		if r.histogram[i], err = br.GetNumber(); err != nil {
			return streamError("histogram", err)
		}
	}
	return nil
}

// Next decodes the next mer. It returns false once every mer has been read
// or on failure, which Err reports.
func (r *Reader) Next() bool {
	if r.closed || r.err != nil {
		r.valid = false
		return false
	}
	if r.decoded == r.hdr.numDistinct {
		r.valid = false
		if !r.drained {
			r.drained = true
			if err := r.checkDrained(); err != nil {
				r.err = err
				r.logger.Error("File set has trailing data", "error", err)
			}
		}
		return false
	}
	if err := r.next(); err != nil {
		r.err = err
		r.valid = false
		r.logger.Error("Failed to read mer", "index", r.decoded, "error", err)
		return false
	}
	r.decoded++
	r.valid = true
	return true
}

func (r *Reader) next() error {
	for r.thisBucketLeft == 0 {
		if r.nextBucket == r.hdr.numBuckets() {
			return fmt.Errorf("%w: bucket table exhausted after %d mers", core.ErrCorrupted, r.decoded)
		}
		n, err := getNumber(r.buckets, r.hdr.idxEncoding)
		if err != nil {
			return streamError(fmt.Sprintf("bucket %d", r.nextBucket), err)
		}
		r.thisBucket = r.nextBucket
		r.thisBucketLeft = n
		r.nextBucket++
		if n > 0 {
			r.logger.Debug("Entering bucket", "bucket", r.thisBucket, "size", n)
		}
	}

	suffix, err := r.dat.GetBits(uint(r.hdr.merDataSize))
	if err != nil {
		return streamError("mer data", err)
	}
	count, err := GetCount(r.dat, r.hdr.datEncoding)
	if err != nil {
		return streamError("mer count", err)
	}
	if count == 0 {
		return fmt.Errorf("%w: zero count for mer %d", core.ErrCorrupted, r.decoded)
	}

	if r.pos != nil {
		n := min(count, uint64(r.hdr.positionsCap))
		r.positions = r.positions[:0]
		for i := uint64(0); i < n; i++ {
			p, err := getNumber(r.pos, r.hdr.posEncoding)
			if err != nil {
				return streamError("positions", err)
			}
			if p > math.MaxUint32 {
				return fmt.Errorf("%w: position %d out of range", core.ErrCorrupted, p)
			}
			r.positions = append(r.positions, uint32(p))
		}
	}

	r.mer = mer.Join(r.thisBucket, suffix, r.hdr.merDataSize)
	r.count = count
	r.thisBucketLeft--
	return nil
}

// checkDrained fails when DAT or POS holds more than padding after the last
// mer the header accounts for.
func (r *Reader) checkDrained() error {
	streams := []struct {
		name string
		br   *bitstream.Reader
	}{{"mer data", r.dat}, {"positions", r.pos}}
	for _, s := range streams {
		if s.br == nil {
			continue
		}
		end, err := s.br.AtEnd()
		if err != nil {
			return streamError(s.name, err)
		}
		if !end {
			return fmt.Errorf("%w: %s continues past %d mers", core.ErrCorrupted, s.name, r.decoded)
		}
	}
	return nil
}

// Err returns the first error that stopped iteration.
func (r *Reader) Err() error { return r.err }

// Valid reports whether the last call to Next decoded a mer.
func (r *Reader) Valid() bool { return r.valid }

// Mer returns the current mer.
func (r *Reader) Mer() mer.Mer { return r.mer }

// Count returns the count of the current mer.
func (r *Reader) Count() uint64 { return r.count }

// HasPositions reports whether the file set stores positions.
func (r *Reader) HasPositions() bool { return r.hdr.positionsEnabled }

// Positions returns the stored positions of the current mer. The slice is
// reused by the next call to Next.
func (r *Reader) Positions() []uint32 { return r.positions }

// Position returns the i-th stored position of the current mer, or
// PositionUnknown when there is none.
func (r *Reader) Position(i int) uint32 {
	if i < 0 || i >= len(r.positions) {
		return PositionUnknown
	}
	return r.positions[i]
}

// Prefix returns the path prefix of the file set.
func (r *Reader) Prefix() string { return r.files.Prefix }

// MerSize returns the number of bases per mer.
func (r *Reader) MerSize() uint32 { return r.hdr.merSize }

// MerCompression returns the homopolymer compression recorded by the writer.
func (r *Reader) MerCompression() uint32 { return r.hdr.merCompression }

// PrefixSize returns the number of mer bits that select a bucket.
func (r *Reader) PrefixSize() uint32 { return r.hdr.prefixSize }

// PositionsCap returns the most positions stored per mer.
func (r *Reader) PositionsCap() uint32 { return r.hdr.positionsCap }

// IndexEncoding returns how bucket populations are stored.
func (r *Reader) IndexEncoding() core.Encoding { return r.hdr.idxEncoding }

// DataEncoding returns how counts are stored.
func (r *Reader) DataEncoding() core.Encoding { return r.hdr.datEncoding }

// PositionsEncoding returns how positions are stored.
func (r *Reader) PositionsEncoding() core.Encoding { return r.hdr.posEncoding }

// NumUnique returns the number of mers with a count of one.
func (r *Reader) NumUnique() uint64 { return r.hdr.numUnique }

// NumDistinct returns the number of mers in the file set.
func (r *Reader) NumDistinct() uint64 { return r.hdr.numDistinct }

// NumTotal returns the sum of all counts.
func (r *Reader) NumTotal() uint64 { return r.hdr.numTotal }

// Histogram returns the number of distinct mers with count i, or
// ^uint64(0) when i is at or beyond HistogramLen.
func (r *Reader) Histogram(i uint64) uint64 {
	if i >= uint64(len(r.histogram)) {
		return ^uint64(0)
	}
	return r.histogram[i]
}

// HistogramLen is one more than the largest count with a histogram slot.
func (r *Reader) HistogramLen() uint64 { return r.hdr.histogramLen }

// HistogramMaxCount is the largest count in the file set.
func (r *Reader) HistogramMaxCount() uint64 { return r.hdr.histogramMaxValue }

// Close closes every stream of the file set.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.valid = false
	var errs []error
	for _, f := range []sys.FileHandle{r.idxFile, r.datFile, r.posFile} {
		if f != nil {
			errs = append(errs, f.Close())
		}
	}
	r.idxFile, r.datFile, r.posFile = nil, nil, nil
	return errors.Join(errs...)
}
