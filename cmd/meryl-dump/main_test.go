package main

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/INLOpen/meryl/core"
	"github.com/INLOpen/meryl/internal/cli"
	"github.com/INLOpen/meryl/mer"
	"github.com/INLOpen/meryl/merylstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	dir    string
	config string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{dir: dir, config: filepath.Join(dir, "meryl.yaml")}
	require.NoError(t, os.WriteFile(f.config, []byte("logging:\n  output: none\n"), 0644))
	return f
}

func (f *fixture) build(t *testing.T, name string, positions bool, mers map[string]uint64) string {
	t.Helper()
	prefix := filepath.Join(f.dir, name)
	w, err := merylstream.Create(prefix, merylstream.WriterOptions{
		MerSize:          4,
		PrefixSize:       2,
		PositionsEnabled: positions,
		PositionsCap:     2,
		Logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	for _, seq := range []string{"AACC", "ACGT", "GGGG", "TTTT"} {
		if c, ok := mers[seq]; ok {
			require.NoError(t, w.AddMer(mer.MustParse(seq), c, []uint32{7}))
		}
	}
	require.NoError(t, w.Close())
	return prefix
}

func (f *fixture) run(t *testing.T, args ...string) string {
	t.Helper()
	out := filepath.Join(f.dir, "out.tsv")
	var stderr bytes.Buffer
	args = append([]string{"-config", f.config, "-o", out, "-format", "tsv"}, args...)
	require.NoError(t, run(args, &stderr), stderr.String())
	r, err := cli.OpenInput(out, "auto")
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(data)
}

func TestDumpMers(t *testing.T) {
	f := newFixture(t)
	prefix := f.build(t, "a", false, map[string]uint64{"ACGT": 3, "TTTT": 1})
	assert.Equal(t, "ACGT\t3\nTTTT\t1\n", f.run(t, "-mode", "mers", prefix))

	withPos := f.build(t, "b", true, map[string]uint64{"AACC": 3, "GGGG": 1})
	assert.Equal(t, "AACC\t3\t7,?\nGGGG\t1\t7\n", f.run(t, "-mode", "mers", withPos))
}

func TestDumpHistogram(t *testing.T) {
	f := newFixture(t)
	prefix := f.build(t, "a", false, map[string]uint64{"AACC": 1, "ACGT": 3, "TTTT": 1})
	assert.Equal(t, "1\t2\t0.6667\t0.4000\n3\t1\t1.0000\t1.0000\n", f.run(t, "-mode", "histogram", prefix))
}

func TestDumpStats(t *testing.T) {
	f := newFixture(t)
	a := f.build(t, "a", false, map[string]uint64{"AACC": 1, "ACGT": 3, "TTTT": 1})
	b := f.build(t, "b", false, map[string]uint64{"GGGG": 4})

	out := f.run(t, "-mode", "stats", "-quantiles", "0.5", a, b)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "prefix\tdistinct\tunique\ttotal\tmax\tmean\tq0.5", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], a+"\t3\t2\t5\t3\t1.667\t"), lines[1])
	assert.Equal(t, b+"\t1\t0\t4\t4\t4.000\t4.0", lines[2])
}

func TestDumpBuckets(t *testing.T) {
	f := newFixture(t)
	prefix := f.build(t, "a", false, map[string]uint64{"AACC": 1, "ACGT": 3, "TTTT": 1})
	out := f.run(t, "-mode", "buckets", prefix)
	assert.Equal(t, "prefix\tbuckets\toccupied\tempty\tlargest\tlargest_size\tmean_size\tfirst\tlast\n"+
		prefix+"\t4\t2\t2\t0\t2\t1.50\t0\t3\n", out)
}

func TestDump_CompressedOutput(t *testing.T) {
	f := newFixture(t)
	prefix := f.build(t, "a", false, map[string]uint64{"ACGT": 2})
	out := filepath.Join(f.dir, "mers.tsv.zst")
	var stderr bytes.Buffer
	require.NoError(t, run([]string{"-config", f.config, "-o", out, "-format", "tsv", prefix}, &stderr))

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(raw), 4)
	assert.Equal(t, []byte{0x28, 0xb5, 0x2f, 0xfd}, raw[:4], "zstd frame magic")

	r, err := cli.OpenInput(out, "auto")
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "ACGT\t2\n", string(data))
}

func TestDump_Errors(t *testing.T) {
	f := newFixture(t)
	prefix := f.build(t, "a", false, map[string]uint64{"ACGT": 2})
	var stderr bytes.Buffer
	out := filepath.Join(f.dir, "out.tsv")

	assert.Error(t, run([]string{"-config", f.config, "-o", out}, &stderr), "no prefixes")
	assert.Error(t, run([]string{"-config", f.config, "-o", out, "-mode", "everything", prefix}, &stderr))
	assert.Error(t, run([]string{"-config", f.config, "-o", out, "-quantiles", "2", prefix}, &stderr))
	assert.Error(t, run([]string{"-config", f.config, "-o", out, "-format", "json", prefix}, &stderr))

	err := run([]string{"-config", f.config, "-o", out, "-k", "5", prefix}, &stderr)
	assert.ErrorIs(t, err, core.ErrMerSizeMismatch)
}

func TestTable_Aligned(t *testing.T) {
	var buf bytes.Buffer
	tb := newTable(&buf, true)
	require.NoError(t, tb.Row("a", 1))
	require.NoError(t, tb.Row("bbb", 100))
	require.NoError(t, tb.Flush())
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, len(lines[0]), len(lines[1]), "columns are aligned")
	assert.True(t, strings.HasSuffix(lines[0], " 1"))
	assert.True(t, strings.HasSuffix(lines[1], " 100"))
}
