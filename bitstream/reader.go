package bitstream

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/icza/bitio"
)

// Reader unpacks bits MSB-first from an io.Reader.
type Reader struct {
	bits *bitio.Reader
	pos  uint64 // bits read so far, relative to the start of the stream
	err  error  // first read error, returned by every later call
}

// NewReader creates a bit reader backed by r.
func NewReader(r io.Reader) *Reader {
	return &Reader{bits: bitio.NewReader(bufio.NewReaderSize(r, DefaultBufferSize))}
}

// NewReaderAt creates a bit reader positioned bitOff bits past byte offset
// base of ra. Tell reports positions relative to base, so a reader opened at
// a recorded bit offset continues counting from that offset.
func NewReaderAt(ra io.ReaderAt, base int64, bitOff uint64) (*Reader, error) {
	if base < 0 {
		return nil, fmt.Errorf("bitstream: negative base offset %d", base)
	}
	skip := int64(bitOff / 8)
	sr := io.NewSectionReader(ra, base+skip, math.MaxInt64-base-skip)
	br := &Reader{
		bits: bitio.NewReader(bufio.NewReaderSize(sr, DefaultBufferSize)),
		pos:  uint64(skip) * 8,
	}
	if rem := uint(bitOff % 8); rem > 0 {
		if _, err := br.GetBits(rem); err != nil {
			return nil, err
		}
	}
	return br, nil
}

// cached is the number of bits of the current byte not yet consumed. Every
// reader starts on a byte boundary, so it follows from pos alone.
func (br *Reader) cached() uint {
	return uint(8-br.pos%8) % 8
}

// eofError maps an end of stream to io.ErrUnexpectedEOF unless it fell on a
// byte boundary with nothing of the request consumed.
func (br *Reader) eofError(err error, consumed bool) error {
	if errors.Is(err, io.EOF) && consumed {
		err = io.ErrUnexpectedEOF
	}
	br.err = err
	return err
}

// GetBit reads a single bit.
func (br *Reader) GetBit() (uint64, error) {
	if br.err != nil {
		return 0, br.err
	}
	consumed := br.cached() > 0
	b, err := br.bits.ReadBool()
	if err != nil {
		return 0, br.eofError(err, consumed)
	}
	br.pos++
	if b {
		return 1, nil
	}
	return 0, nil
}

// GetBits reads width bits (0..64) and returns them right aligned.
// A stream that ends mid-read yields io.ErrUnexpectedEOF; one that ends
// before any bit is read yields io.EOF.
func (br *Reader) GetBits(width uint) (uint64, error) {
	if width > 64 {
		return 0, fmt.Errorf("bitstream: width %d exceeds 64", width)
	}
	if br.err != nil {
		return 0, br.err
	}
	if width == 0 {
		return 0, nil
	}
	// The head ends on the current byte boundary, or takes one fresh byte,
	// so an end of stream inside it means nothing of the request was read.
	c := br.cached()
	head := c
	if c == 0 {
		head = 8
	}
	if head > width {
		head = width
	}
	v, err := br.bits.ReadBits(uint8(head))
	if err != nil {
		return 0, br.eofError(err, c > 0)
	}
	br.pos += uint64(head)
	if rest := width - head; rest > 0 {
		tail, err := br.bits.ReadBits(uint8(rest))
		if err != nil {
			return 0, br.eofError(err, true)
		}
		br.pos += uint64(rest)
		v = v<<rest | tail
	}
	return v, nil
}

// GetNumber reads a value written by Writer.PutNumber.
func (br *Reader) GetNumber() (uint64, error) {
	var sum uint64
	prev := uint64(0)
	for i := 0; ; i++ {
		b, err := br.GetBit()
		if err != nil {
			if errors.Is(err, io.EOF) && i > 0 {
				err = io.ErrUnexpectedEOF
				br.err = err
			}
			return 0, err
		}
		if b == 1 {
			if prev == 1 {
				return sum - 1, nil
			}
			if i >= len(fib) || sum > math.MaxUint64-fib[i] {
				return 0, fibonacciOverflow(i)
			}
			sum += fib[i]
		}
		prev = b
	}
}

// AtEnd reports whether only zero padding of the current byte remains
// before the end of the stream. It consumes the rest of the stream.
func (br *Reader) AtEnd() (bool, error) {
	if br.err != nil {
		return false, br.err
	}
	if n := br.cached(); n > 0 {
		pad, err := br.GetBits(n)
		if err != nil {
			return false, err
		}
		if pad != 0 {
			return false, nil
		}
	}
	_, err := br.bits.ReadByte()
	switch {
	case errors.Is(err, io.EOF):
		return true, nil
	case err != nil:
		br.err = err
		return false, err
	}
	return false, nil
}

// Tell returns the bit position of the next bit to be read.
func (br *Reader) Tell() uint64 {
	return br.pos
}
