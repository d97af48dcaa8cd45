// Command meryl-build builds a meryl mer-count file set from text listings.
//
//	meryl-build -o reads [-config meryl.yaml] [-k 21] [-p 10] [-positions] [-canonical] input.tsv.zst ...
//
// Inputs may be compressed with snappy, lz4 or zstd; "-" reads stdin.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/INLOpen/meryl/config"
	"github.com/INLOpen/meryl/core"
	"github.com/INLOpen/meryl/internal/cli"
	"github.com/INLOpen/meryl/mer"
	"github.com/INLOpen/meryl/merylstream"
	"go.opentelemetry.io/otel/trace"
)

func main() {
	if err := run(os.Args[1:], os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "meryl-build:", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("meryl-build", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Path to the configuration file")
	output := fs.String("o", "", "Output file set prefix (required)")
	merSize := fs.Uint("k", 0, "Mer size in bases (overrides writer.mer_size)")
	prefixSize := fs.Int("p", -2, "Prefix size in bits, -1 for automatic (overrides writer.prefix_size)")
	positions := fs.Bool("positions", false, "Store positions")
	canonical := fs.Bool("canonical", false, "Store the canonical form of each mer")
	compression := fs.String("input-compression", "", "Input compression: auto, none, snappy, lz4, zstd")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *output == "" {
		fs.Usage()
		return fmt.Errorf("-o is required")
	}
	inputs := fs.Args()
	if len(inputs) == 0 {
		inputs = []string{cli.Stdio}
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if *merSize != 0 {
		cfg.Writer.MerSize = uint32(*merSize)
	}
	if *prefixSize != -2 {
		cfg.Writer.PrefixSize = *prefixSize
	}
	if *positions {
		cfg.Writer.PositionsEnabled = true
	}
	if *canonical {
		cfg.Writer.Canonical = true
	}
	if *compression != "" {
		cfg.Input.Compression = *compression
	}

	logger, logCloser, err := cli.CreateLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	if logCloser != nil {
		defer logCloser.Close()
	}
	tp, tracerCleanup, err := cli.InitTracerProvider(cfg.Tracing, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize tracer provider: %w", err)
	}
	defer tracerCleanup()

	return build(cfg, *output, inputs, logger, tp.Tracer("meryl-build"))
}

func build(cfg *config.Config, output string, inputs []string, logger *slog.Logger, tracer trace.Tracer) error {
	if cfg.Writer.MerSize < 1 || cfg.Writer.MerSize > mer.MaxSize {
		return core.NewValidationError("merSize", cfg.Writer.MerSize, "must be between 1 and %d", mer.MaxSize)
	}
	l := newListing(cfg.Writer.MerSize, cfg.Writer.Canonical)
	for _, in := range inputs {
		r, err := cli.OpenInput(in, cfg.Input.Compression)
		if err != nil {
			return err
		}
		err = l.read(r, in)
		if closeErr := r.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			return err
		}
		logger.Info("Read input", "path", in, "lines", l.lines, "distinct", len(l.entries))
	}

	opts, err := cli.WriterOptions(cfg.Writer, uint64(len(l.entries)), logger, tracer)
	if err != nil {
		return err
	}
	w, err := merylstream.Create(output, opts)
	if err != nil {
		return err
	}
	for _, e := range l.sorted() {
		if err := w.AddMer(e.mer, e.count, e.positions); err != nil {
			if abortErr := w.Abort(); abortErr != nil {
				logger.Error("Failed to remove partial file set", "error", abortErr)
			}
			return err
		}
	}
	if err := w.Close(); err != nil {
		return err
	}
	logger.Info("Built file set",
		"prefix", w.Prefix(),
		"prefix_size", opts.PrefixSize,
		"distinct", w.NumDistinct(),
		"unique", w.NumUnique(),
		"total", w.NumTotal(),
	)
	return nil
}
