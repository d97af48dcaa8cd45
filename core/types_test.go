package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEncoding(t *testing.T) {
	for in, want := range map[string]Encoding{
		"":         EncodingAuto,
		"auto":     EncodingAuto,
		"Packed":   EncodingPacked,
		"fixed":    EncodingFixed,
		"unpacked": EncodingFixed,
	} {
		got, err := ParseEncoding(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseEncoding("gzip")
	require.Error(t, err)
	assert.True(t, IsUnsupportedError(err))
}

func TestParseCompressionType(t *testing.T) {
	for _, ct := range []CompressionType{CompressionNone, CompressionSnappy, CompressionLZ4, CompressionZSTD} {
		got, err := ParseCompressionType(ct.String())
		require.NoError(t, err)
		assert.Equal(t, ct, got)
	}
	_, err := ParseCompressionType("brotli")
	assert.True(t, IsUnsupportedError(err))
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("prefixSize", 40, "must be at most %d", 32)
	assert.Equal(t, "validation error for prefixSize '40': must be at most 32", err.Error())

	wrapped := errors.Join(errors.New("create failed"), err)
	assert.True(t, IsValidationError(wrapped))
	assert.False(t, IsValidationError(ErrCorrupted))
}
