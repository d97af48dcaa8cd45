package merylstream

// histogram counts distinct mers per count value. It is dense and grows on
// demand; counts at or above limit only move maxValue.
type histogram struct {
	counts   []uint64
	limit    uint64
	maxValue uint64
}

func newHistogram(limit uint64) *histogram {
	return &histogram{limit: limit}
}

func (h *histogram) add(count uint64) {
	if count > h.maxValue {
		h.maxValue = count
	}
	if count >= h.limit {
		return
	}
	if count >= uint64(len(h.counts)) {
		h.counts = append(h.counts, make([]uint64, count+1-uint64(len(h.counts)))...)
	}
	h.counts[count]++
}

// size is one more than the largest count below the limit.
func (h *histogram) size() uint64 {
	return uint64(len(h.counts))
}
