package bitstream

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/icza/bitio"
)

// ErrValueTooWide is returned when a value does not fit in the requested
// number of bits.
var ErrValueTooWide = errors.New("value does not fit in bit width")

// DefaultBufferSize is the size of the byte buffer between a bit stream and
// its underlying writer or reader.
const DefaultBufferSize = 64 * 1024

// Writer packs bits MSB-first onto an io.Writer.
type Writer struct {
	buf  *bufio.Writer
	bits *bitio.Writer
	pos  uint64 // bits written so far
	err  error  // sticky write error
}

// NewWriter creates a bit writer backed by w.
func NewWriter(w io.Writer) *Writer {
	buf := bufio.NewWriterSize(w, DefaultBufferSize)
	return &Writer{buf: buf, bits: bitio.NewWriter(buf)}
}

// PutBit writes the lowest bit of b.
func (bw *Writer) PutBit(b uint64) error {
	if bw.err != nil {
		return bw.err
	}
	if err := bw.bits.WriteBool(b&1 == 1); err != nil {
		return bw.fail(err)
	}
	bw.pos++
	return nil
}

// PutBits writes the low width bits of v, most significant first.
// Width may be 0 (no-op) up to 64.
func (bw *Writer) PutBits(v uint64, width uint) error {
	if bw.err != nil {
		return bw.err
	}
	if width > 64 {
		return fmt.Errorf("bitstream: width %d exceeds 64", width)
	}
	if width < 64 && v>>width != 0 {
		return fmt.Errorf("%w: %d in %d bits", ErrValueTooWide, v, width)
	}
	if width == 0 {
		return nil
	}
	if err := bw.bits.WriteBits(v, uint8(width)); err != nil {
		return bw.fail(err)
	}
	bw.pos += uint64(width)
	return nil
}

// PutNumber writes n as the Fibonacci code of n+1: one bit per Fibonacci
// number from smallest to largest, terminated by an extra 1 bit.
func (bw *Writer) PutNumber(n uint64) error {
	var used [2]uint64
	top, err := zeckendorf(n, &used)
	if err != nil {
		return err
	}
	for i := 0; i <= top; i++ {
		if err := bw.PutBit(used[i/64] >> (i % 64)); err != nil {
			return err
		}
	}
	return bw.PutBit(1)
}

// Tell returns the number of bits written so far.
func (bw *Writer) Tell() uint64 {
	return bw.pos
}

// Flush pads the last partial byte with zero bits and flushes the buffer to
// the underlying writer. Writing may continue afterwards, starting on a
// byte boundary.
func (bw *Writer) Flush() error {
	if bw.err != nil {
		return bw.err
	}
	skipped, err := bw.bits.Align()
	if err != nil {
		return bw.fail(err)
	}
	bw.pos += uint64(skipped)
	if err := bw.buf.Flush(); err != nil {
		bw.err = fmt.Errorf("bitstream: flush failed: %w", err)
		return bw.err
	}
	return nil
}

func (bw *Writer) fail(err error) error {
	bw.err = fmt.Errorf("bitstream: write failed: %w", err)
	return bw.err
}
