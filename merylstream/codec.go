package merylstream

import (
	"github.com/INLOpen/meryl/bitstream"
	"github.com/INLOpen/meryl/core"
)

// PutCount writes a mer count. Packed counts spend a single 0 bit on a
// count of one, the most common value; any other count is a 1 bit followed
// by PutNumber(n-2). Fixed counts are 32 raw bits.
func PutCount(bw *bitstream.Writer, enc core.Encoding, n uint64) error {
	if n == 0 {
		return core.ErrZeroCount
	}
	if enc == core.EncodingFixed {
		if !fitsFixed(n) {
			return fixedOverflow("count", n)
		}
		return bw.PutBits(n, 32)
	}
	if n == 1 {
		return bw.PutBit(0)
	}
	if err := bw.PutBit(1); err != nil {
		return err
	}
	return bw.PutNumber(n - 2)
}

// GetCount reads a count written by PutCount.
func GetCount(br *bitstream.Reader, enc core.Encoding) (uint64, error) {
	if enc == core.EncodingFixed {
		return br.GetBits(32)
	}
	b, err := br.GetBit()
	if err != nil {
		return 0, err
	}
	if b == 0 {
		return 1, nil
	}
	n, err := br.GetNumber()
	if err != nil {
		return 0, err
	}
	if n > ^uint64(0)-2 {
		return 0, bitstream.ErrNumberOverflow
	}
	return n + 2, nil
}

// putNumber writes a bucket population or a position.
func putNumber(bw *bitstream.Writer, enc core.Encoding, field string, n uint64) error {
	if enc == core.EncodingFixed {
		if !fitsFixed(n) {
			return fixedOverflow(field, n)
		}
		return bw.PutBits(n, 32)
	}
	return bw.PutNumber(n)
}

func getNumber(br *bitstream.Reader, enc core.Encoding) (uint64, error) {
	if enc == core.EncodingFixed {
		return br.GetBits(32)
	}
	return br.GetNumber()
}
