package compressors

import (
	"io"

	"github.com/INLOpen/meryl/core"
	lz4 "github.com/pierrec/lz4/v4"
)

// LZ4Compressor uses the LZ4 frame format, so the output is readable by the
// lz4 command line tool.
type LZ4Compressor struct{}

var _ Compressor = (*LZ4Compressor)(nil)

func NewLz4Compressor() *LZ4Compressor {
	return &LZ4Compressor{}
}

func (c *LZ4Compressor) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return lz4.NewWriter(w), nil
}

func (c *LZ4Compressor) NewReader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(lz4.NewReader(r)), nil
}

func (c *LZ4Compressor) Type() core.CompressionType {
	return core.CompressionLZ4
}
