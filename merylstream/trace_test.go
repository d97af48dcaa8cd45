package merylstream

import (
	"path/filepath"
	"testing"

	"github.com/INLOpen/meryl/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := tp.Tracer("merylstream-test")

	prefix := filepath.Join(t.TempDir(), "traced")
	writeSet(t, prefix, WriterOptions{MerSize: 8, Tracer: tracer}, []record{{Mer: 1, Count: 2}})

	r, err := Open(prefix, ReaderOptions{Tracer: tracer, Logger: quietLogger()})
	require.NoError(t, err)
	require.NoError(t, r.Close())

	_, err = Open(prefix, ReaderOptions{MerSize: 9, Tracer: tracer, Logger: quietLogger()})
	require.ErrorIs(t, err, core.ErrMerSizeMismatch)

	var names []string
	for _, s := range recorder.Ended() {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{"MerylWriter.Create", "MerylWriter.Close", "MerylReader.Open", "MerylReader.Open"}, names)

	failed := recorder.Ended()[3]
	assert.Equal(t, codes.Error, failed.Status().Code)
	require.NotEmpty(t, failed.Events(), "the error is recorded on the span")
}
