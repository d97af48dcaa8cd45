package core

import (
	"fmt"
	"strings"
)

// Encoding selects how numbers are laid out in one of the three streams.
// It is resolved once when a file set is created, stored in the header and
// never mixed within a stream.
type Encoding byte

const (
	// EncodingAuto lets the writer pick an encoding from its size estimate.
	// It never appears in a header.
	EncodingAuto Encoding = iota
	// EncodingPacked uses self-delimiting variable-length numbers.
	EncodingPacked
	// EncodingFixed uses 32-bit fields.
	EncodingFixed
)

// String returns the string representation of the Encoding.
func (e Encoding) String() string {
	switch e {
	case EncodingAuto:
		return "auto"
	case EncodingPacked:
		return "packed"
	case EncodingFixed:
		return "fixed"
	default:
		return "unknown"
	}
}

// ParseEncoding converts a configuration string into an Encoding.
// The empty string means auto.
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return EncodingAuto, nil
	case "packed":
		return EncodingPacked, nil
	case "fixed", "unpacked":
		return EncodingFixed, nil
	default:
		return EncodingAuto, &UnsupportedTypeError{Message: fmt.Sprintf("encoding %q", s)}
	}
}

// CompressionType identifies the compression algorithm used for text
// listings read and written by the tools. The meryl streams themselves are
// never compressed.
type CompressionType byte

const (
	CompressionNone   CompressionType = 0
	CompressionSnappy CompressionType = 1
	CompressionLZ4    CompressionType = 2
	CompressionZSTD   CompressionType = 3
)

// String returns the string representation of the CompressionType.
func (ct CompressionType) String() string {
	switch ct {
	case CompressionNone:
		return "none"
	case CompressionSnappy:
		return "snappy"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return "unknown"
	}
}

// ParseCompressionType converts a configuration string into a CompressionType.
func ParseCompressionType(s string) (CompressionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return CompressionNone, nil
	case "snappy":
		return CompressionSnappy, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	default:
		return CompressionNone, &UnsupportedTypeError{Message: fmt.Sprintf("compression %q", s)}
	}
}
