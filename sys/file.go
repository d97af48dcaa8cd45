package sys

import (
	"io"
	"os"
	"sync/atomic"
)

// File opens files on behalf of the package-level handlers. It exists so
// tests can substitute failing or instrumented implementations.
type File interface {
	OpenFile(name string, flag int, perm os.FileMode) (*os.File, error)
	Remove(name string) error
	Rename(oldpath, newpath string) error
}

// FileHandle is the subset of *os.File the meryl streams rely on: sequential
// writes for the stream bodies, WriteAt for patching the index header in
// place, ReadAt for positioned readers.
type FileHandle interface {
	io.ReadWriteCloser
	io.ReaderAt
	io.WriterAt
	io.Seeker

	Stat() (os.FileInfo, error)
	Sync() error
	Name() string
}

// fileWrapper gives atomic.Value a single concrete type to store.
type fileWrapper struct {
	f File
}

var defaultFile atomic.Value // stores fileWrapper

func init() {
	defaultFile.Store(fileWrapper{f: NewFile()})
}

// SetDefaultFile replaces the File implementation used by Create, Open,
// Remove and Rename. It returns the previous one so tests can restore it.
func SetDefaultFile(file File) File {
	prev := current()
	defaultFile.Store(fileWrapper{f: file})
	return prev
}

func current() File {
	return defaultFile.Load().(fileWrapper).f
}

type CreateHandler func(name string) (FileHandle, error)
type OpenHandler func(name string) (FileHandle, error)
type RemoveHandler func(name string) error
type RenameHandler func(oldpath, newpath string) error

// Create creates or truncates name for reading and writing.
var Create CreateHandler = func(name string) (FileHandle, error) {
	return ROpenFile(current(), name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666)
}

// Open opens name read-only.
var Open OpenHandler = func(name string) (FileHandle, error) {
	return ROpenFile(current(), name, os.O_RDONLY, 0)
}

// Remove deletes name. A missing file is not an error.
var Remove RemoveHandler = func(name string) error {
	err := current().Remove(name)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

// Rename moves oldpath to newpath, replacing any file already there.
var Rename RenameHandler = func(oldpath, newpath string) error {
	return current().Rename(oldpath, newpath)
}

// osFile is the File used outside of tests.
type osFile struct{}

// NewFile returns the File implementation backed by package os.
func NewFile() File {
	return osFile{}
}

func (osFile) OpenFile(name string, flag int, perm os.FileMode) (*os.File, error) {
	return os.OpenFile(name, flag, perm)
}

func (osFile) Remove(name string) error {
	return os.Remove(name)
}

func (osFile) Rename(oldpath, newpath string) error {
	return os.Rename(oldpath, newpath)
}
