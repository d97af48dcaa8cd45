package mer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAndFormat(t *testing.T) {
	tests := []struct {
		seq  string
		want Mer
	}{
		{"A", 0},
		{"T", 3},
		{"ACGT", 0b00011011},
		{"cagt", 0b01001011},
		{"TTTTTTTTTTTTTTTTTTTTTTTTTTTTTTTT", Mer(^uint64(0))},
	}
	for _, tt := range tests {
		t.Run(tt.seq, func(t *testing.T) {
			m, err := Parse(tt.seq)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m)
			assert.Equal(t, len(tt.seq), len(m.Format(uint32(len(tt.seq)))))
		})
	}
	assert.Equal(t, "CAGT", MustParse("cagt").Format(4))
	assert.Equal(t, "AACGT", MustParse("ACGT").Format(5), "leading A bases are zero bits")
}

func TestParse_Invalid(t *testing.T) {
	for _, seq := range []string{"", "ACGN", "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"} {
		_, err := Parse(seq)
		assert.Error(t, err, seq)
	}
	assert.Panics(t, func() { MustParse("X") })
}

func TestOrderIsLexicographic(t *testing.T) {
	seqs := []string{"AAAA", "AAAC", "ACGT", "CAAA", "GTTT", "TAAA", "TTTT"}
	for i := 1; i < len(seqs); i++ {
		assert.Less(t, uint64(MustParse(seqs[i-1])), uint64(MustParse(seqs[i])))
	}
}

func TestSplitJoin(t *testing.T) {
	m := Mer(0xC5) // 4 bases, 8 bits
	prefix, suffix := m.Split(6)
	assert.Equal(t, uint64(3), prefix)
	assert.Equal(t, uint64(0x05), suffix)
	assert.Equal(t, m, Join(prefix, suffix, 6))

	prefix, suffix = m.Split(64)
	assert.Equal(t, uint64(0), prefix)
	assert.Equal(t, uint64(0xC5), suffix)
	assert.Equal(t, m, Join(0, suffix, 64))

	prefix, suffix = m.Split(0)
	assert.Equal(t, uint64(0xC5), prefix)
	assert.Equal(t, uint64(0), suffix)
}

func TestFits(t *testing.T) {
	assert.True(t, Mer(0xFF).Fits(4))
	assert.False(t, Mer(0x100).Fits(4))
	assert.True(t, Mer(^uint64(0)).Fits(32))
}

func TestReverseComplement(t *testing.T) {
	assert.Equal(t, "ACGT", MustParse("ACGT").ReverseComplement(4).Format(4))
	assert.Equal(t, "TTGC", MustParse("GCAA").ReverseComplement(4).Format(4))
	assert.Equal(t, MustParse("GCAA"), MustParse("TTGC").Canonical(4).ReverseComplement(4).ReverseComplement(4))
	assert.Equal(t, MustParse("GCAA"), MustParse("TTGC").Canonical(4))
}
