package target

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// FileTarget is a regular file on the local filesystem.
type FileTarget struct {
	name string
	path string
}

// NewFile returns a file target bound to name.
func NewFile(name, path string) FileTarget {
	return FileTarget{name: name, path: filepath.Clean(path)}
}

func (f FileTarget) Name() string    { return f.name }
func (f FileTarget) Locator() string { return f.path }
func (f FileTarget) Kind() Kind      { return File }

// Path is an alias of Locator for callers working with paths.
func (f FileTarget) Path() string { return f.path }

// Exists reports whether a non-directory entry is present at the path.
func (f FileTarget) Exists() (bool, error) {
	info, ok, err := statKind(f.path)
	if err != nil || !ok {
		return false, err
	}
	return !info.IsDir(), nil
}

func (f FileTarget) OpenForRead() (io.ReadCloser, error) {
	fh, err := os.Open(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, f.path)
	}
	return fh, err
}

func (f FileTarget) OpenForWrite() (io.WriteCloser, error) {
	return newAtomicWriter(f.path)
}

func (f FileTarget) OpenForAppend() (io.WriteCloser, error) {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(f.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}

// atomicWriter writes into a temporary sibling and renames it onto dest on Close.
type atomicWriter struct {
	f    *os.File
	dest string
	done bool
}

func newAtomicWriter(dest string) (*atomicWriter, error) {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating parent of %s: %w", dest, err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(dest)+".tmp-*")
	if err != nil {
		return nil, err
	}
	return &atomicWriter{f: f, dest: dest}, nil
}

func (w *atomicWriter) Write(p []byte) (int, error) {
	return w.f.Write(p)
}

// Close publishes the written bytes under the destination path.
func (w *atomicWriter) Close() error {
	if w.done {
		return nil
	}
	w.done = true
	tmp := w.f.Name()
	if err := w.f.Sync(); err != nil {
		w.f.Close()
		os.Remove(tmp)
		return err
	}
	if err := w.f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, w.dest); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// Abort discards everything written so far.
func (w *atomicWriter) Abort() error {
	if w.done {
		return nil
	}
	w.done = true
	w.f.Close()
	return os.Remove(w.f.Name())
}

func sortedNames(ts map[string]Target) []string {
	names := make([]string, 0, len(ts))
	for n := range ts {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
