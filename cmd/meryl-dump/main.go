// Command meryl-dump prints the contents or a summary of meryl file sets.
//
//	meryl-dump [-mode mers|histogram|stats|buckets] [-o out.tsv.zst] [-format table|tsv] prefix ...
//
// Output goes to stdout unless -o is given. With -format auto, columns are
// aligned when stdout is a terminal and tab separated otherwise.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/INLOpen/meryl/config"
	"github.com/INLOpen/meryl/internal/cli"
)

func main() {
	if err := run(os.Args[1:], os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "meryl-dump:", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("meryl-dump", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Path to the configuration file")
	mode := fs.String("mode", "mers", "What to print: mers, histogram, stats or buckets")
	output := fs.String("o", cli.Stdio, "Output path, '-' for stdout")
	format := fs.String("format", "", "Output format: auto, table or tsv (overrides output.format)")
	compression := fs.String("compression", "", "Output compression: auto, none, snappy, lz4, zstd")
	merSize := fs.Uint("k", 0, "Expected mer size, 0 accepts any")
	quantiles := fs.String("quantiles", "0.5,0.9,0.99", "Comma separated count quantiles for -mode stats")
	if err := fs.Parse(args); err != nil {
		return err
	}
	prefixes := fs.Args()
	if len(prefixes) == 0 {
		fs.Usage()
		return fmt.Errorf("at least one file set prefix is required")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if *format != "" {
		cfg.Output.Format = *format
	}
	if *compression != "" {
		cfg.Output.Compression = *compression
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	qs, err := parseQuantiles(*quantiles)
	if err != nil {
		return err
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

	out, err := cli.CreateOutput(*output, cfg.Output.Compression)
	if err != nil {
		return err
	}

	d := &dumper{
		merSize:     uint32(*merSize),
		parallelism: cfg.Output.Parallelism,
		quantiles:   qs,
		logger:      logger,
		tracer:      tp.Tracer("meryl-dump"),
		table:       newTable(out, useTable(cfg.Output.Format, *output)),
	}
	err = d.dump(*mode, prefixes)
	if flushErr := d.table.Flush(); err == nil {
		err = flushErr
	}
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	return err
}

func useTable(format, output string) bool {
	switch format {
	case "table":
		return true
	case "tsv":
		return false
	default:
		return cli.IsTerminal(output)
	}
}

func parseQuantiles(s string) ([]float64, error) {
	var qs []float64
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		q, err := strconv.ParseFloat(f, 64)
		if err != nil || q < 0 || q > 1 {
			return nil, fmt.Errorf("bad quantile %q", f)
		}
		qs = append(qs, q)
	}
	return qs, nil
}
