package core

import (
	"fmt"
	"path/filepath"
	"strings"
)

// This file centralizes constants related to the meryl file set: magic
// numbers, file name suffixes and the format version.

// --- Magic Numbers ---
const (
	// IndexMagicNumber opens the IDX header ("merylSTR").
	IndexMagicNumber uint64 = 0x6d6572796c535452
	// DataMagicNumber opens the DAT stream ("merylDAT").
	DataMagicNumber uint64 = 0x6d6572796c444154
	// PositionsMagicNumber opens the POS stream ("merylPOS").
	PositionsMagicNumber uint64 = 0x6d6572796c504f53
)

// --- File Names & Suffixes ---
const (
	IndexFileSuffix     = ".mcidx"
	DataFileSuffix      = ".mcdat"
	PositionsFileSuffix = ".mcpos"
	LockFileSuffix      = ".lock"
	// TempFileSuffix marks a stream still being written.
	TempFileSuffix = ".tmp"
)

// --- Protocol & Format Versions ---
const (
	// FormatVersion is the current version of the meryl file set layout.
	FormatVersion uint8 = 1
)

// FileSet names the three files that make up one meryl database.
type FileSet struct {
	Prefix    string
	Index     string
	Data      string
	Positions string
	Lock      string
}

// NewFileSet derives the file names for a path prefix. A prefix that already
// carries one of the known suffixes is trimmed first, so "reads.mcidx" and
// "reads" name the same set.
func NewFileSet(prefix string) FileSet {
	for _, s := range []string{IndexFileSuffix, DataFileSuffix, PositionsFileSuffix} {
		if strings.HasSuffix(prefix, s) {
			prefix = strings.TrimSuffix(prefix, s)
			break
		}
	}
	return FileSet{
		Prefix:    prefix,
		Index:     prefix + IndexFileSuffix,
		Data:      prefix + DataFileSuffix,
		Positions: prefix + PositionsFileSuffix,
		Lock:      prefix + LockFileSuffix,
	}
}

// Temp names the in-progress files a writer fills before renaming them
// into place. Prefix and Lock are shared with the final set.
func (fs FileSet) Temp() FileSet {
	t := fs
	t.Index += TempFileSuffix
	t.Data += TempFileSuffix
	t.Positions += TempFileSuffix
	return t
}

// Name returns the base name of the prefix, for log attributes.
func (fs FileSet) Name() string {
	return filepath.Base(fs.Prefix)
}

func (fs FileSet) String() string {
	return fmt.Sprintf("%s{%s,%s,%s}", fs.Prefix, IndexFileSuffix, DataFileSuffix, PositionsFileSuffix)
}
