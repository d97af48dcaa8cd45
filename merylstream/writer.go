package merylstream

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/INLOpen/meryl/bitstream"
	"github.com/INLOpen/meryl/core"
	"github.com/INLOpen/meryl/mer"
	"github.com/INLOpen/meryl/sys"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Writer builds a file set from mers supplied in strictly increasing order.
type Writer struct {
	files  core.FileSet
	temp   core.FileSet // streams being written, renamed onto files by Close
	hdr    *header
	logger *slog.Logger
	tracer trace.Tracer

	idxFile sys.FileHandle
	datFile sys.FileHandle
	posFile sys.FileHandle
	idx     *bitstream.Writer
	dat     *bitstream.Writer
	pos     *bitstream.Writer
	unlock  func() error

	hist *histogram

	thisBucket     uint64 // bucket receiving mers, its predecessors are written
	thisBucketSize uint64
	lastMer        mer.Mer
	hasLast        bool

	err    error // sticky failure, Close aborts when set
	closed bool
}

// Create validates opts, locks the file set named by prefix and creates its
// files with a placeholder header.
func Create(prefix string, opts WriterOptions) (_ *Writer, err error) {
	files := core.NewFileSet(prefix)
	hdr, err := opts.resolve()
	if err != nil {
		return nil, err
	}

	span := startSpan(opts.Tracer, "MerylWriter.Create",
		attribute.String("meryl.prefix", files.Prefix),
		attribute.Int("meryl.mer_size", int(hdr.merSize)),
		attribute.Int("meryl.prefix_size", int(hdr.prefixSize)),
	)
	defer span.End()

	w := &Writer{
		files:  files,
		temp:   files.Temp(),
		hdr:    hdr,
		logger: opts.Logger.With("component", "MerylWriter", "prefix", files.Name()),
		tracer: opts.Tracer,
		hist:   newHistogram(opts.HistogramLimit),
	}

	unlock, err := sys.AcquireFileLock(files.Lock, opts.LockTimeout)
	if err != nil {
		if errors.Is(err, sys.ErrLockHeld) {
			err = fmt.Errorf("%w: %s", core.ErrLocked, files.Lock)
		}
		recordSpanError(span, err)
		return nil, err
	}
	w.unlock = unlock

	defer func() {
		if err != nil {
			recordSpanError(span, err)
			w.logger.Error("Failed to create file set", "error", err)
			w.removeFiles()
		}
	}()

	// An existing set at prefix is replaced, even if this writer never
	// finishes.
	for _, name := range []string{files.Index, files.Data, files.Positions} {
		if err = sys.Remove(name); err != nil {
			return nil, fmt.Errorf("failed to remove existing %s: %w", name, err)
		}
	}

	if w.idxFile, err = sys.Create(w.temp.Index); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", w.temp.Index, err)
	}
	placeholder, err := hdr.MarshalBinary()
	if err != nil {
		return nil, err
	}
	if _, err = w.idxFile.Write(placeholder); err != nil {
		return nil, fmt.Errorf("failed to write header placeholder: %w", err)
	}
	w.idx = bitstream.NewWriter(w.idxFile)

	if w.datFile, w.dat, err = createStream(w.temp.Data, core.DataMagicNumber); err != nil {
		return nil, err
	}
	if hdr.positionsEnabled {
		if w.posFile, w.pos, err = createStream(w.temp.Positions, core.PositionsMagicNumber); err != nil {
			return nil, err
		}
	}

	w.logger.Info("Created file set",
		"mer_size", hdr.merSize,
		"prefix_size", hdr.prefixSize,
		"index_encoding", hdr.idxEncoding,
		"data_encoding", hdr.datEncoding,
		"positions", hdr.positionsEnabled,
	)
	return w, nil
}

// AddMer appends a mer with its count and, when positions are enabled, its
// positions. Only the first PositionsCap positions are kept; missing ones
// are stored as PositionUnknown.
func (w *Writer) AddMer(m mer.Mer, count uint64, positions []uint32) error {
	if w.closed {
		return core.ErrClosed
	}
	if w.err != nil {
		return w.err
	}
	if count == 0 {
		return fmt.Errorf("%w: mer %s", core.ErrZeroCount, m.Format(w.hdr.merSize))
	}
	if !m.Fits(w.hdr.merSize) {
		return core.NewValidationError("mer", uint64(m), "does not fit in %d bits", 2*w.hdr.merSize)
	}
	if w.hdr.datEncoding == core.EncodingFixed && !fitsFixed(count) {
		return fixedOverflow("count", count)
	}
	if w.hasLast && m <= w.lastMer {
		return w.fail(fmt.Errorf("%w: %s after %s", core.ErrOutOfOrder,
			m.Format(w.hdr.merSize), w.lastMer.Format(w.hdr.merSize)))
	}

	bucket, suffix := m.Split(w.hdr.merDataSize)
	if bucket != w.thisBucket {
		if err := w.advanceTo(bucket); err != nil {
			return w.fail(err)
		}
	}
	if w.hdr.idxEncoding == core.EncodingFixed && !fitsFixed(w.thisBucketSize+1) {
		return fixedOverflow("bucketSize", w.thisBucketSize+1)
	}

	if err := w.dat.PutBits(suffix, uint(w.hdr.merDataSize)); err != nil {
		return w.fail(fmt.Errorf("failed to write mer: %w", err))
	}
	if err := PutCount(w.dat, w.hdr.datEncoding, count); err != nil {
		return w.fail(fmt.Errorf("failed to write count: %w", err))
	}
	if w.pos != nil {
		if err := w.writePositions(count, positions); err != nil {
			return w.fail(err)
		}
	}

	w.thisBucketSize++
	w.lastMer = m
	w.hasLast = true
	w.hdr.numDistinct++
	w.hdr.numTotal += count
	if count == 1 {
		w.hdr.numUnique++
	}
	w.hist.add(count)
	return nil
}

// AddSplitMer appends a mer given as its bucket prefix and its suffix. The
// widths must be exactly the file set's prefix size and mer data size.
func (w *Writer) AddSplitMer(prefix uint64, prefixBits uint32, suffix uint64, suffixBits uint32, count uint64, positions []uint32) error {
	if prefixBits != w.hdr.prefixSize {
		return core.NewValidationError("prefixBits", prefixBits, "must equal the prefix size %d", w.hdr.prefixSize)
	}
	if suffixBits != w.hdr.merDataSize {
		return core.NewValidationError("suffixBits", suffixBits, "must equal the mer data size %d", w.hdr.merDataSize)
	}
	if prefix&^mer.Mask(prefixBits) != 0 {
		return core.NewValidationError("prefix", prefix, "does not fit in %d bits", prefixBits)
	}
	if suffix&^mer.Mask(suffixBits) != 0 {
		return core.NewValidationError("suffix", suffix, "does not fit in %d bits", suffixBits)
	}
	return w.AddMer(mer.Join(prefix, suffix, suffixBits), count, positions)
}

func (w *Writer) writePositions(count uint64, positions []uint32) error {
	n := min(count, uint64(w.hdr.positionsCap))
	for i := uint64(0); i < n; i++ {
		p := PositionUnknown
		if i < uint64(len(positions)) {
			p = positions[i]
		}
		if err := putNumber(w.pos, w.hdr.posEncoding, "position", uint64(p)); err != nil {
			return fmt.Errorf("failed to write position: %w", err)
		}
	}
	return nil
}

// advanceTo closes the current bucket and writes a zero population for
// every empty bucket before target.
func (w *Writer) advanceTo(target uint64) error {
	for w.thisBucket < target {
		if err := putNumber(w.idx, w.hdr.idxEncoding, "bucketSize", w.thisBucketSize); err != nil {
			return fmt.Errorf("failed to write bucket %d: %w", w.thisBucket, err)
		}
		w.thisBucket++
		w.thisBucketSize = 0
	}
	return nil
}

// fail poisons the writer.
func (w *Writer) fail(err error) error {
	w.err = err
	w.logger.Error("Writer failed", "error", err)
	return err
}

// Close finishes the file set: it completes the bucket table, appends the
// histogram, patches the header and only then closes the files and renames
// them into place. A writer that failed earlier is aborted instead and its
// error returned.
func (w *Writer) Close() (err error) {
	if w.closed {
		return nil
	}
	if w.err != nil {
		cause := w.err
		if abortErr := w.Abort(); abortErr != nil {
			return errors.Join(cause, abortErr)
		}
		return cause
	}

	span := startSpan(w.tracer, "MerylWriter.Close", attribute.String("meryl.prefix", w.files.Prefix))
	defer span.End()

	if err := w.finish(); err != nil {
		recordSpanError(span, err)
		w.err = err
		if abortErr := w.Abort(); abortErr != nil {
			return errors.Join(err, abortErr)
		}
		return err
	}

	w.closed = true
	if err := w.closeHandles(); err != nil {
		recordSpanError(span, err)
		w.logger.Error("Failed to close file set", "error", err)
		return errors.Join(err, w.removeFiles())
	}
	if err := w.publish(); err != nil {
		recordSpanError(span, err)
		w.logger.Error("Failed to publish file set", "error", err)
		return errors.Join(err, w.removeFiles())
	}
	if err := w.releaseLock(); err != nil {
		recordSpanError(span, err)
		return err
	}

	span.SetAttributes(
		attribute.Int64("meryl.num_distinct", int64(w.hdr.numDistinct)),
		attribute.Int64("meryl.num_total", int64(w.hdr.numTotal)),
	)
	w.logger.Info("Closed file set",
		"num_unique", w.hdr.numUnique,
		"num_distinct", w.hdr.numDistinct,
		"num_total", w.hdr.numTotal,
		"histogram_len", w.hdr.histogramLen,
		"histogram_max", w.hdr.histogramMaxValue,
	)
	return nil
}

func (w *Writer) finish() error {
	// The last bucket is written by advancing one past it.
	if err := w.advanceTo(w.hdr.numBuckets()); err != nil {
		return err
	}

	w.hdr.histogramPos = w.idx.Tell()
	w.hdr.histogramLen = w.hist.size()
	w.hdr.histogramMaxValue = w.hist.maxValue
	for i := uint64(0); i < w.hist.size(); i++ {
		if err := w.idx.PutNumber(w.hist.counts[i]); err != nil {
			return fmt.Errorf("failed to write histogram: %w", err)
		}
	}
	w.logger.Debug("Wrote bucket table and histogram",
		"buckets", w.hdr.numBuckets(),
		"histogram_pos", w.hdr.histogramPos,
		"histogram_len", w.hdr.histogramLen,
	)

	for _, bw := range []*bitstream.Writer{w.idx, w.dat, w.pos} {
		if bw == nil {
			continue
		}
		if err := bw.Flush(); err != nil {
			return fmt.Errorf("failed to flush stream: %w", err)
		}
	}

	hdr, err := w.hdr.MarshalBinary()
	if err != nil {
		return err
	}
	if _, err := w.idxFile.WriteAt(hdr, 0); err != nil {
		return fmt.Errorf("failed to patch header: %w", err)
	}

	for _, f := range w.handles() {
		if err := f.Sync(); err != nil {
			return fmt.Errorf("failed to sync %s: %w", f.Name(), err)
		}
	}
	return nil
}

// Abort closes the writer and removes every file of the set.
func (w *Writer) Abort() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.logger.Warn("Aborting file set")
	return w.removeFiles()
}

func (w *Writer) handles() []sys.FileHandle {
	var hs []sys.FileHandle
	for _, f := range []sys.FileHandle{w.idxFile, w.datFile, w.posFile} {
		if f != nil {
			hs = append(hs, f)
		}
	}
	return hs
}

// publish renames the finished streams onto their final names. The index
// goes last, so a set interrupted midway has no index and cannot be opened.
func (w *Writer) publish() error {
	moves := [][2]string{{w.temp.Data, w.files.Data}}
	if w.hdr.positionsEnabled {
		moves = append(moves, [2]string{w.temp.Positions, w.files.Positions})
	}
	moves = append(moves, [2]string{w.temp.Index, w.files.Index})
	for _, m := range moves {
		if err := sys.Rename(m[0], m[1]); err != nil {
			return fmt.Errorf("failed to rename %s: %w", m[0], err)
		}
	}
	return nil
}

func (w *Writer) closeHandles() error {
	var errs []error
	for _, f := range w.handles() {
		if err := f.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close %s: %w", f.Name(), err))
		}
	}
	w.idxFile, w.datFile, w.posFile = nil, nil, nil
	return errors.Join(errs...)
}

func (w *Writer) releaseLock() error {
	if w.unlock == nil {
		return nil
	}
	unlock := w.unlock
	w.unlock = nil
	if err := unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

// removeFiles deletes the partial set while still holding the lock.
func (w *Writer) removeFiles() error {
	errs := []error{w.closeHandles()}
	for _, name := range []string{
		w.temp.Index, w.temp.Data, w.temp.Positions,
		w.files.Index, w.files.Data, w.files.Positions,
	} {
		errs = append(errs, sys.Remove(name))
	}
	errs = append(errs, w.releaseLock())
	return errors.Join(errs...)
}

// Prefix returns the path prefix of the file set.
func (w *Writer) Prefix() string { return w.files.Prefix }

// NumDistinct returns the number of mers added so far.
func (w *Writer) NumDistinct() uint64 { return w.hdr.numDistinct }

// NumUnique returns the number of mers added so far with a count of one.
func (w *Writer) NumUnique() uint64 { return w.hdr.numUnique }

// NumTotal returns the sum of the counts added so far.
func (w *Writer) NumTotal() uint64 { return w.hdr.numTotal }
