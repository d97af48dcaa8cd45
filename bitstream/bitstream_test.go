package bitstream

import (
	"bytes"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_BitLayout(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.PutBits(0b101, 3))
	require.NoError(t, w.PutBits(0b11111, 5))
	require.NoError(t, w.PutBits(0x8, 4))
	assert.Equal(t, uint64(12), w.Tell())
	require.NoError(t, w.Flush())
	assert.Equal(t, uint64(16), w.Tell(), "flush pads to a byte boundary")
	assert.Equal(t, []byte{0xBF, 0x80}, buf.Bytes())
}

func TestWriter_ValueTooWide(t *testing.T) {
	w := NewWriter(io.Discard)
	err := w.PutBits(4, 2)
	require.ErrorIs(t, err, ErrValueTooWide)
	require.NoError(t, w.PutBits(math.MaxUint64, 64))
	require.NoError(t, w.PutBits(0, 0))
}

func TestRoundTrip_MixedWidths(t *testing.T) {
	type field struct {
		v     uint64
		width uint
	}
	fields := []field{
		{1, 1}, {0, 1}, {0x3, 2}, {0xdeadbeef, 32}, {math.MaxUint64, 64},
		{0, 0}, {0x1234567890, 40}, {5, 7}, {1 << 62, 63},
	}
	var buf bytes.Buffer
	w := NewWriter(&buf)
	for _, f := range fields {
		require.NoError(t, w.PutBits(f.v, f.width))
	}
	require.NoError(t, w.Flush())

	r := NewReader(&buf)
	for i, f := range fields {
		got, err := r.GetBits(f.width)
		require.NoError(t, err, "field %d", i)
		assert.Equal(t, f.v, got, "field %d", i)
	}
}

func TestNumber_RoundTrip(t *testing.T) {
	values := []uint64{0, 1, 2, 3, 4, 7, 100, 1000, 1 << 20, 1<<32 + 7, 1 << 63, math.MaxUint64 - 1}
	var buf bytes.Buffer
	w := NewWriter(&buf)
	var total uint64
	for _, v := range values {
		require.NoError(t, w.PutNumber(v))
		n, err := NumberBits(v)
		require.NoError(t, err)
		total += uint64(n)
	}
	assert.Equal(t, total, w.Tell())
	require.NoError(t, w.Flush())

	r := NewReader(&buf)
	for _, v := range values {
		got, err := r.GetNumber()
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
	assert.Equal(t, total, r.Tell())
}

func TestNumber_Codes(t *testing.T) {
	// n+1 = 1 -> "11", 2 -> "011", 3 -> "0011", 4 -> "1011", 12 = 8+3+1 -> "101011"
	tests := []struct {
		n    uint64
		bits string
	}{
		{0, "11"},
		{1, "011"},
		{2, "0011"},
		{3, "1011"},
		{11, "101011"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		w := NewWriter(&buf)
		require.NoError(t, w.PutNumber(tt.n))
		assert.Equal(t, uint64(len(tt.bits)), w.Tell(), "n=%d", tt.n)
		require.NoError(t, w.Flush())

		r := NewReader(&buf)
		var got []byte
		for range tt.bits {
			b, err := r.GetBit()
			require.NoError(t, err)
			got = append(got, '0'+byte(b))
		}
		assert.Equal(t, tt.bits, string(got), "n=%d", tt.n)
	}
}

func TestNumber_Overflow(t *testing.T) {
	w := NewWriter(io.Discard)
	require.ErrorIs(t, w.PutNumber(math.MaxUint64), ErrNumberOverflow)

	// A run of alternating bits longer than any valid code.
	var buf bytes.Buffer
	w = NewWriter(&buf)
	for i := 0; i < MaxNumberBits+4; i++ {
		require.NoError(t, w.PutBits(uint64(i%2), 1))
	}
	require.NoError(t, w.PutBits(0b11, 2))
	require.NoError(t, w.Flush())
	_, err := NewReader(&buf).GetNumber()
	require.ErrorIs(t, err, ErrNumberOverflow)
}

func TestReader_EOF(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0xAA}))
	_, err := r.GetBits(8)
	require.NoError(t, err)
	_, err = r.GetBit()
	assert.ErrorIs(t, err, io.EOF)

	r = NewReader(bytes.NewReader([]byte{0xAA}))
	_, err = r.GetBits(12)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	// 0x00 is an unterminated number.
	r = NewReader(bytes.NewReader([]byte{0x00}))
	_, err = r.GetNumber()
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestNewReaderAt(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("HEAD")
	w := NewWriter(&buf)
	require.NoError(t, w.PutBits(0b1, 1))
	require.NoError(t, w.PutNumber(41))
	mark := w.Tell()
	require.NoError(t, w.PutBits(0x2bad, 14))
	require.NoError(t, w.PutNumber(7))
	require.NoError(t, w.Flush())

	ra := bytes.NewReader(buf.Bytes())
	r, err := NewReaderAt(ra, 4, mark)
	require.NoError(t, err)
	assert.Equal(t, mark, r.Tell())
	v, err := r.GetBits(14)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x2bad), v)
	n, err := r.GetNumber()
	require.NoError(t, err)
	assert.Equal(t, uint64(7), n)

	r, err = NewReaderAt(ra, 4, 0)
	require.NoError(t, err)
	b, err := r.GetBit()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), b)
	n, err = r.GetNumber()
	require.NoError(t, err)
	assert.Equal(t, uint64(41), n)

	_, err = NewReaderAt(ra, -1, 0)
	assert.Error(t, err)
}

func TestReader_SpansByteBoundaries(t *testing.T) {
	r := NewReader(bytes.NewReader([]byte{0x8f, 0x55, 0x01}))
	widths := []uint{4, 3, 0, 3, 6, 8}
	want := []uint64{0x8, 0x7, 0, 0x5, 0x15, 0x01}
	for i, width := range widths {
		got, err := r.GetBits(width)
		require.NoError(t, err, "read %d", i)
		assert.Equal(t, want[i], got, "read %d", i)
	}
	assert.Equal(t, uint64(24), r.Tell())
	_, err := r.GetBits(16)
	assert.ErrorIs(t, err, io.EOF)
	_, err = r.GetBit()
	assert.ErrorIs(t, err, io.EOF, "errors stick")
}

func TestReader_AtEnd(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.PutNumber(5))
	require.NoError(t, w.Flush())
	encoded := append([]byte(nil), buf.Bytes()...)

	r := NewReader(bytes.NewReader(encoded))
	_, err := r.GetNumber()
	require.NoError(t, err)
	end, err := r.AtEnd()
	require.NoError(t, err)
	assert.True(t, end)

	r = NewReader(bytes.NewReader(append(encoded, 0x00)))
	_, err = r.GetNumber()
	require.NoError(t, err)
	end, err = r.AtEnd()
	require.NoError(t, err)
	assert.False(t, end, "trailing byte")

	// Set bits inside the final byte's padding.
	r = NewReader(bytes.NewReader([]byte{0b11000001}))
	_, err = r.GetNumber()
	require.NoError(t, err)
	end, err = r.AtEnd()
	require.NoError(t, err)
	assert.False(t, end, "dirty padding")
}
