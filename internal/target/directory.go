package target

import (
	"io"
	"os"
	"path/filepath"
)

// DirectoryTarget is a directory on the local filesystem. Tasks write inside
// it through Path rather than through the stream methods.
type DirectoryTarget struct {
	name string
	path string
}

func NewDirectory(name, path string) DirectoryTarget {
	return DirectoryTarget{name: name, path: filepath.Clean(path)}
}

func (d DirectoryTarget) Name() string    { return d.name }
func (d DirectoryTarget) Locator() string { return d.path }
func (d DirectoryTarget) Kind() Kind      { return Directory }
func (d DirectoryTarget) Path() string    { return d.path }

func (d DirectoryTarget) Exists() (bool, error) {
	info, ok, err := statKind(d.path)
	if err != nil || !ok {
		return false, err
	}
	return info.IsDir(), nil
}

// Ensure creates the directory and any missing parents.
func (d DirectoryTarget) Ensure() error {
	return os.MkdirAll(d.path, 0o755)
}

func (d DirectoryTarget) OpenForRead() (io.ReadCloser, error)    { return nil, ErrUnsupported }
func (d DirectoryTarget) OpenForWrite() (io.WriteCloser, error)  { return nil, ErrUnsupported }
func (d DirectoryTarget) OpenForAppend() (io.WriteCloser, error) { return nil, ErrUnsupported }
