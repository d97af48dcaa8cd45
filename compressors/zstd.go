package compressors

import (
	"fmt"
	"io"

	"github.com/INLOpen/meryl/core"
	"github.com/klauspost/compress/zstd"
)

// ZstdCompressor uses the zstd frame format.
type ZstdCompressor struct {
	level zstd.EncoderLevel
}

var _ Compressor = (*ZstdCompressor)(nil)

func NewZstdCompressor() *ZstdCompressor {
	return &ZstdCompressor{level: zstd.SpeedDefault}
}

func (c *ZstdCompressor) NewWriter(w io.Writer) (io.WriteCloser, error) {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(c.level))
	if err != nil {
		return nil, fmt.Errorf("zstd writer: %w", err)
	}
	return enc, nil
}

func (c *ZstdCompressor) NewReader(r io.Reader) (io.ReadCloser, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	return dec.IOReadCloser(), nil
}

func (c *ZstdCompressor) Type() core.CompressionType {
	return core.CompressionZSTD
}
