package merylstream

import (
	"log/slog"
	"math"
	"time"

	"github.com/INLOpen/meryl/core"
	"github.com/INLOpen/meryl/mer"
	"go.opentelemetry.io/otel/trace"
)

const (
	// MaxPrefixSize bounds the number of buckets to 2^32.
	MaxPrefixSize = 32
	// DefaultPositionsCap is how many positions are retained per mer when
	// WriterOptions.PositionsCap is zero.
	DefaultPositionsCap = 1024
	// DefaultHistogramLimit bounds the dense histogram: counts at or above
	// it still update the maximum but get no histogram slot.
	DefaultHistogramLimit = 2 * 1024 * 1024

	// autoFixedIndexPopulation is the expected bucket population from which
	// EncodingAuto picks 32-bit bucket counts over packed ones.
	autoFixedIndexPopulation = 1 << 20
)

// PositionUnknown is returned for positions that were not recorded.
const PositionUnknown = ^uint32(0)

// WriterOptions configures a new file set. Every field except Logger,
// Tracer and LockTimeout is fixed for the lifetime of the files.
type WriterOptions struct {
	MerSize          uint32 // in bases, 1..32
	MerCompression   uint32 // opaque, stored in the header
	PrefixSize       uint32 // in bits, 0..min(32, 2*MerSize)
	PositionsEnabled bool
	PositionsCap     uint32 // 0 selects DefaultPositionsCap

	IndexEncoding     core.Encoding
	DataEncoding      core.Encoding
	PositionsEncoding core.Encoding
	// EstimatedMers is the expected number of distinct mers, used to
	// resolve IndexEncoding when it is EncodingAuto.
	EstimatedMers uint64
	// HistogramLimit of 0 selects DefaultHistogramLimit.
	HistogramLimit uint64

	// LockTimeout is how long Create waits for another writer to release
	// the file set. Zero tries once.
	LockTimeout time.Duration
	Logger      *slog.Logger
	Tracer      trace.Tracer
}

// ReaderOptions configures Open.
type ReaderOptions struct {
	// MerSize, when non-zero, must match the header or Open fails with
	// core.ErrMerSizeMismatch.
	MerSize uint32
	Logger  *slog.Logger
	Tracer  trace.Tracer
}

// resolve validates the options and returns the header they describe.
func (o *WriterOptions) resolve() (*header, error) {
	if o.MerSize < 1 || o.MerSize > mer.MaxSize {
		return nil, core.NewValidationError("merSize", o.MerSize, "must be between 1 and %d", mer.MaxSize)
	}
	maxPrefix := min(uint32(MaxPrefixSize), 2*o.MerSize)
	if o.PrefixSize > maxPrefix {
		return nil, core.NewValidationError("prefixSize", o.PrefixSize, "must be at most %d for %d-mers", maxPrefix, o.MerSize)
	}
	if o.PositionsCap == 0 {
		o.PositionsCap = DefaultPositionsCap
	}
	if o.HistogramLimit == 0 {
		o.HistogramLimit = DefaultHistogramLimit
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}

	h := &header{
		version:          core.FormatVersion,
		merSize:          o.MerSize,
		merCompression:   o.MerCompression,
		prefixSize:       o.PrefixSize,
		merDataSize:      2*o.MerSize - o.PrefixSize,
		positionsEnabled: o.PositionsEnabled,
		positionsCap:     o.PositionsCap,
	}

	var err error
	if h.idxEncoding, err = resolveEncoding("indexEncoding", o.IndexEncoding, autoIndexEncoding(o.EstimatedMers, o.PrefixSize)); err != nil {
		return nil, err
	}
	if h.datEncoding, err = resolveEncoding("dataEncoding", o.DataEncoding, core.EncodingPacked); err != nil {
		return nil, err
	}
	if h.posEncoding, err = resolveEncoding("positionsEncoding", o.PositionsEncoding, core.EncodingFixed); err != nil {
		return nil, err
	}
	return h, nil
}

func resolveEncoding(field string, e, auto core.Encoding) (core.Encoding, error) {
	switch e {
	case core.EncodingAuto:
		return auto, nil
	case core.EncodingPacked, core.EncodingFixed:
		return e, nil
	default:
		return 0, core.NewValidationError(field, e, "unknown encoding")
	}
}

// autoIndexEncoding picks fixed 32-bit bucket counts once buckets are
// expected to be large enough that a packed count costs about as much.
func autoIndexEncoding(estimatedMers uint64, prefixSize uint32) core.Encoding {
	if estimatedMers>>prefixSize >= autoFixedIndexPopulation {
		return core.EncodingFixed
	}
	return core.EncodingPacked
}

func fitsFixed(n uint64) bool {
	return n <= math.MaxUint32
}

func fixedOverflow(field string, n uint64) error {
	return core.NewValidationError(field, n, "exceeds %d, the limit of the fixed 32-bit encoding", uint64(math.MaxUint32))
}

func (o ReaderOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}
