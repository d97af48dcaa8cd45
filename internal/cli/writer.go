package cli

import (
	"log/slog"

	"github.com/INLOpen/meryl/config"
	"github.com/INLOpen/meryl/core"
	"github.com/INLOpen/meryl/merylstream"
	"go.opentelemetry.io/otel/trace"
)

// WriterOptions converts the writer section of the configuration.
// numMers sizes the prefix when the configuration leaves it automatic.
func WriterOptions(cfg config.WriterConfig, numMers uint64, logger *slog.Logger, tracer trace.Tracer) (merylstream.WriterOptions, error) {
	opts := merylstream.WriterOptions{
		MerSize:          cfg.MerSize,
		MerCompression:   cfg.MerCompression,
		PositionsEnabled: cfg.PositionsEnabled,
		PositionsCap:     cfg.PositionsCap,
		EstimatedMers:    numMers,
		HistogramLimit:   cfg.HistogramLimit,
		LockTimeout:      config.ParseDuration(cfg.LockTimeout, 0, logger),
		Logger:           logger,
		Tracer:           tracer,
	}

	if cfg.PrefixSize < 0 {
		opts.PrefixSize = merylstream.OptimalPrefixSize(cfg.MerSize, numMers)
	} else {
		opts.PrefixSize = uint32(cfg.PrefixSize)
	}

	var err error
	if opts.IndexEncoding, err = core.ParseEncoding(cfg.IndexEncoding); err != nil {
		return opts, err
	}
	if opts.DataEncoding, err = core.ParseEncoding(cfg.DataEncoding); err != nil {
		return opts, err
	}
	if opts.PositionsEncoding, err = core.ParseEncoding(cfg.PositionsEncoding); err != nil {
		return opts, err
	}
	return opts, nil
}
