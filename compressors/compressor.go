package compressors

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/INLOpen/meryl/core"
)

// Compressor wraps byte streams. Writers returned by NewWriter must be
// closed to flush trailing frames; closing them or the readers returned by
// NewReader never closes the underlying stream.
type Compressor interface {
	Type() core.CompressionType
	NewWriter(w io.Writer) (io.WriteCloser, error)
	NewReader(r io.Reader) (io.ReadCloser, error)
}

var extensions = map[string]core.CompressionType{
	".sz":     core.CompressionSnappy,
	".snappy": core.CompressionSnappy,
	".lz4":    core.CompressionLZ4,
	".zst":    core.CompressionZSTD,
	".zstd":   core.CompressionZSTD,
}

// ForType returns the compressor for ct.
func ForType(ct core.CompressionType) (Compressor, error) {
	switch ct {
	case core.CompressionNone:
		return NewNoCompressionCompressor(), nil
	case core.CompressionSnappy:
		return NewSnappyCompressor(), nil
	case core.CompressionLZ4:
		return NewLz4Compressor(), nil
	case core.CompressionZSTD:
		return NewZstdCompressor(), nil
	default:
		return nil, &core.UnsupportedTypeError{Message: fmt.Sprintf("compression type %d", ct)}
	}
}

// TypeFromPath infers the compression of a file from its extension.
func TypeFromPath(path string) core.CompressionType {
	if ct, ok := extensions[strings.ToLower(filepath.Ext(path))]; ok {
		return ct
	}
	return core.CompressionNone
}

// Resolve turns a configured compression name into a type. "auto" infers it
// from path.
func Resolve(name, path string) (core.CompressionType, error) {
	if strings.EqualFold(name, "auto") {
		return TypeFromPath(path), nil
	}
	return core.ParseCompressionType(name)
}
