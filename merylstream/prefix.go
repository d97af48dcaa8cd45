package merylstream

import (
	"math"

	"github.com/INLOpen/meryl/bitstream"
)

// OptimalPrefixSize returns the prefix size that minimises the combined size
// of the bucket table and the mer suffixes for numMers packed mers.
func OptimalPrefixSize(merSize uint32, numMers uint64) uint32 {
	maxPrefix := min(uint32(MaxPrefixSize), 2*merSize)
	best, bestBits := uint32(0), math.Inf(1)
	for p := uint32(0); p <= maxPrefix; p++ {
		buckets := math.Ldexp(1, int(p))
		perBucket, err := bitstream.NumberBits(numMers >> p)
		if err != nil {
			continue
		}
		bits := buckets*float64(perBucket) + float64(numMers)*float64(2*merSize-p)
		if bits < bestBits {
			best, bestBits = p, bits
		}
	}
	return best
}
