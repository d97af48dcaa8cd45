// Package mer implements the fixed-width mer value: a string of up to 32
// bases over {A,C,G,T} packed two bits per base into a uint64, first base
// in the most significant position so that integer order is lexicographic
// order.
package mer

import (
	"fmt"
	"strings"
)

// MaxSize is the longest mer, in bases, a Mer can hold.
const MaxSize = 32

// Mer is a packed mer. Its width in bases is carried alongside it by the
// caller (usually a stream's merSize).
type Mer uint64

// Mask returns a mask of the low bits bits.
func Mask(bits uint32) uint64 {
	if bits >= 64 {
		return ^uint64(0)
	}
	return 1<<bits - 1
}

// Parse packs a sequence of bases. Lower case is accepted.
func Parse(seq string) (Mer, error) {
	if len(seq) < 1 || len(seq) > MaxSize {
		return 0, fmt.Errorf("mer length %d outside 1..%d", len(seq), MaxSize)
	}
	var m Mer
	for i := 0; i < len(seq); i++ {
		m <<= 2
		switch seq[i] {
		case 'A', 'a':
		case 'C', 'c':
			m |= 1
		case 'G', 'g':
			m |= 2
		case 'T', 't':
			m |= 3
		default:
			return 0, fmt.Errorf("invalid base %q at offset %d", seq[i], i)
		}
	}
	return m, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// constant tables.
func MustParse(seq string) Mer {
	m, err := Parse(seq)
	if err != nil {
		panic(err)
	}
	return m
}

// Format renders the mer as size bases.
func (m Mer) Format(size uint32) string {
	var sb strings.Builder
	sb.Grow(int(size))
	for i := int(size) - 1; i >= 0; i-- {
		sb.WriteByte("ACGT"[(uint64(m)>>(2*uint(i)))&3])
	}
	return sb.String()
}

// Fits reports whether m has no bits set above 2*size.
func (m Mer) Fits(size uint32) bool {
	return uint64(m)&^Mask(2*size) == 0
}

// Split returns the bits of m above suffixBits and its low suffixBits bits.
func (m Mer) Split(suffixBits uint32) (prefix, suffix uint64) {
	if suffixBits >= 64 {
		return 0, uint64(m)
	}
	return uint64(m) >> suffixBits, uint64(m) & Mask(suffixBits)
}

// Join recombines a prefix with a suffix of suffixBits bits.
func Join(prefix, suffix uint64, suffixBits uint32) Mer {
	if suffixBits >= 64 {
		return Mer(suffix)
	}
	return Mer(prefix<<suffixBits | suffix&Mask(suffixBits))
}

// ReverseComplement returns the reverse complement of a mer of size bases.
func (m Mer) ReverseComplement(size uint32) Mer {
	var rc Mer
	for i := uint32(0); i < size; i++ {
		rc <<= 2
		rc |= 3 &^ m & 3
		m >>= 2
	}
	return rc
}

// Canonical returns the smaller of m and its reverse complement.
func (m Mer) Canonical(size uint32) Mer {
	if rc := m.ReverseComplement(size); rc < m {
		return rc
	}
	return m
}
