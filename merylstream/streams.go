package merylstream

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/INLOpen/meryl/bitstream"
	"github.com/INLOpen/meryl/core"
	"github.com/INLOpen/meryl/sys"
)

// streamMagicSize is the length of the magic that opens DAT and POS files.
const streamMagicSize = 8

// createStream creates path, writes its magic and returns a bit writer
// positioned after it.
func createStream(path string, magic uint64) (sys.FileHandle, *bitstream.Writer, error) {
	f, err := sys.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	var buf [streamMagicSize]byte
	binary.BigEndian.PutUint64(buf[:], magic)
	if _, err := f.Write(buf[:]); err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("failed to write magic to %s: %w", path, err)
	}
	return f, bitstream.NewWriter(f), nil
}

// openStream opens path, checks its magic and returns a bit reader over the
// body that follows.
func openStream(path string, magic uint64) (sys.FileHandle, *bitstream.Reader, error) {
	f, err := sys.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	var buf [streamMagicSize]byte
	if _, err := f.ReadAt(buf[:], 0); err != nil {
		f.Close()
		if err == io.EOF {
			return nil, nil, fmt.Errorf("%w: %s is too short for its magic", core.ErrCorrupted, path)
		}
		return nil, nil, fmt.Errorf("failed to read magic from %s: %w", path, err)
	}
	if got := binary.BigEndian.Uint64(buf[:]); got != magic {
		f.Close()
		return nil, nil, fmt.Errorf("%w: %s has magic %#x, want %#x", core.ErrCorrupted, path, got, magic)
	}
	br, err := bitstream.NewReaderAt(f, streamMagicSize, 0)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return f, br, nil
}

// readHeader reads and validates the IDX header.
func readHeader(f io.ReaderAt, path string) (*header, error) {
	buf := make([]byte, HeaderSize)
	if _, err := f.ReadAt(buf, 0); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%w: %s is too short for its header", core.ErrCorrupted, path)
		}
		return nil, fmt.Errorf("failed to read header from %s: %w", path, err)
	}
	h := &header{}
	if err := h.UnmarshalBinary(buf); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return h, nil
}

// streamError reports a decode failure. A stream that ends early or holds
// an undecodable number is ErrCorrupted; other errors pass through.
func streamError(what string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, bitstream.ErrNumberOverflow) {
		return fmt.Errorf("%w: %s: %w", core.ErrCorrupted, what, err)
	}
	return fmt.Errorf("%s: %w", what, err)
}
