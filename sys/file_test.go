package sys

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOpenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stream.bin")

	f, err := Create(path)
	require.NoError(t, err)
	_, err = f.Write([]byte("placeholder-body"))
	require.NoError(t, err)
	// Patch the first bytes in place, the way the index header is finalized.
	_, err = f.WriteAt([]byte("PATCHED"), 0)
	require.NoError(t, err)
	require.NoError(t, f.Sync())
	require.NoError(t, f.Close())

	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "PATCHEDlder-body", string(data))

	buf := make([]byte, 4)
	_, err = r.ReadAt(buf, 7)
	require.NoError(t, err)
	assert.Equal(t, "lder", string(buf))
	assert.Equal(t, path, r.Name())
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

func TestRemove_MissingIsNotAnError(t *testing.T) {
	require.NoError(t, Remove(filepath.Join(t.TempDir(), "nope")))
}

type failingFile struct {
	File
	err error
}

func (f failingFile) OpenFile(name string, flag int, perm os.FileMode) (*os.File, error) {
	return nil, f.err
}

func TestSetDefaultFile(t *testing.T) {
	boom := errors.New("disk on fire")
	prev := SetDefaultFile(failingFile{File: NewFile(), err: boom})
	t.Cleanup(func() { SetDefaultFile(prev) })

	_, err := Create(filepath.Join(t.TempDir(), "x"))
	require.ErrorIs(t, err, boom)

	SetDefaultFile(prev)
	f, err := Create(filepath.Join(t.TempDir(), "x"))
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func TestRename_ReplacesTarget(t *testing.T) {
	dir := t.TempDir()
	src, dst := filepath.Join(dir, "a.tmp"), filepath.Join(dir, "a")
	require.NoError(t, os.WriteFile(src, []byte("new"), 0o644))
	require.NoError(t, os.WriteFile(dst, []byte("old"), 0o644))

	require.NoError(t, Rename(src, dst))
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "new", string(data))
	_, err = os.Stat(src)
	assert.True(t, os.IsNotExist(err))
}
