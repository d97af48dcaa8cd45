package merylstream

import (
	"bytes"
	"fmt"

	"github.com/INLOpen/meryl/bitstream"
	"github.com/INLOpen/meryl/core"
	"github.com/INLOpen/meryl/mer"
)

// HeaderSize is the fixed size of the IDX header in bytes. The IDX body
// starts right after it.
const HeaderSize = 96

const (
	flagIndexPacked uint64 = 1 << (7 - iota)
	flagDataPacked
	flagPositionsPacked
	flagPositionsEnabled
)

// header mirrors the fixed region at the start of the IDX file.
type header struct {
	version          uint8
	idxEncoding      core.Encoding
	datEncoding      core.Encoding
	posEncoding      core.Encoding
	positionsEnabled bool

	merSize        uint32
	prefixSize     uint32
	merDataSize    uint32
	merCompression uint32
	positionsCap   uint32

	numUnique   uint64
	numDistinct uint64
	numTotal    uint64

	histogramPos      uint64 // bit offset in the body
	histogramLen      uint64
	histogramMaxValue uint64
}

func (h *header) numBuckets() uint64 {
	return uint64(1) << h.prefixSize
}

func (h *header) flags() uint64 {
	var f uint64
	if h.idxEncoding == core.EncodingPacked {
		f |= flagIndexPacked
	}
	if h.datEncoding == core.EncodingPacked {
		f |= flagDataPacked
	}
	if h.posEncoding == core.EncodingPacked {
		f |= flagPositionsPacked
	}
	if h.positionsEnabled {
		f |= flagPositionsEnabled
	}
	return f
}

func encodingFromFlag(f, bit uint64) core.Encoding {
	if f&bit != 0 {
		return core.EncodingPacked
	}
	return core.EncodingFixed
}

// MarshalBinary encodes the header into exactly HeaderSize bytes.
func (h *header) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(HeaderSize)
	bw := bitstream.NewWriter(&buf)

	fields := []struct {
		v     uint64
		width uint
	}{
		{core.IndexMagicNumber, 64},
		{uint64(h.version), 8},
		{h.flags(), 8},
		{uint64(h.merSize), 8},
		{uint64(h.prefixSize), 8},
		{uint64(h.merDataSize), 8},
		{0, 24},
		{uint64(h.merCompression), 32},
		{uint64(h.positionsCap), 32},
		{h.numUnique, 64},
		{h.numDistinct, 64},
		{h.numTotal, 64},
		{h.histogramPos, 64},
		{h.histogramLen, 64},
		{h.histogramMaxValue, 64},
	}
	for _, f := range fields {
		if err := bw.PutBits(f.v, f.width); err != nil {
			return nil, fmt.Errorf("failed to encode header: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return nil, fmt.Errorf("failed to encode header: %w", err)
	}
	out := make([]byte, HeaderSize)
	copy(out, buf.Bytes())
	return out, nil
}

// UnmarshalBinary decodes and validates a header.
func (h *header) UnmarshalBinary(data []byte) error {
	if len(data) < HeaderSize {
		return fmt.Errorf("%w: header is %d bytes, want %d", core.ErrCorrupted, len(data), HeaderSize)
	}
	br := bitstream.NewReader(bytes.NewReader(data[:HeaderSize]))
	get := func(width uint) uint64 {
		v, _ := br.GetBits(width) // the slice holds every field
		return v
	}

	if magic := get(64); magic != core.IndexMagicNumber {
		return fmt.Errorf("%w: bad index magic %#x", core.ErrCorrupted, magic)
	}
	h.version = uint8(get(8))
	if h.version != core.FormatVersion {
		return fmt.Errorf("%w: unsupported format version %d", core.ErrCorrupted, h.version)
	}
	flags := get(8)
	h.idxEncoding = encodingFromFlag(flags, flagIndexPacked)
	h.datEncoding = encodingFromFlag(flags, flagDataPacked)
	h.posEncoding = encodingFromFlag(flags, flagPositionsPacked)
	h.positionsEnabled = flags&flagPositionsEnabled != 0

	h.merSize = uint32(get(8))
	h.prefixSize = uint32(get(8))
	h.merDataSize = uint32(get(8))
	get(24)
	h.merCompression = uint32(get(32))
	h.positionsCap = uint32(get(32))
	h.numUnique = get(64)
	h.numDistinct = get(64)
	h.numTotal = get(64)
	h.histogramPos = get(64)
	h.histogramLen = get(64)
	h.histogramMaxValue = get(64)

	return h.validate()
}

func (h *header) validate() error {
	switch {
	case h.merSize < 1 || h.merSize > mer.MaxSize:
		return fmt.Errorf("%w: mer size %d out of range", core.ErrCorrupted, h.merSize)
	case h.prefixSize > min(uint32(MaxPrefixSize), 2*h.merSize):
		return fmt.Errorf("%w: prefix size %d too large for %d-mers", core.ErrCorrupted, h.prefixSize, h.merSize)
	case h.merDataSize != 2*h.merSize-h.prefixSize:
		return fmt.Errorf("%w: mer data size %d does not match mer size %d and prefix size %d",
			core.ErrCorrupted, h.merDataSize, h.merSize, h.prefixSize)
	case h.numUnique > h.numDistinct || h.numDistinct > h.numTotal:
		return fmt.Errorf("%w: inconsistent totals unique=%d distinct=%d total=%d",
			core.ErrCorrupted, h.numUnique, h.numDistinct, h.numTotal)
	case h.positionsEnabled && h.positionsCap == 0:
		return fmt.Errorf("%w: positions enabled with a zero cap", core.ErrCorrupted)
	}
	return nil
}
