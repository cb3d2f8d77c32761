package target

import (
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	// ErrNotFound is returned when reading a target that does not exist.
	ErrNotFound = errors.New("target not found")
	// ErrUnsupported is returned by operations a target kind does not implement.
	ErrUnsupported = errors.New("operation not supported by target")
)

// Kind classifies the backing artifact of a target.
type Kind int

const (
	// File is a regular file holding data.
	File Kind = iota
	// Directory is a directory tree.
	Directory
	// Flag is a marker file whose content is irrelevant.
	Flag
)

func (k Kind) String() string {
	switch k {
	case File:
		return "file"
	case Directory:
		return "directory"
	case Flag:
		return "flag"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Target is a named artifact that may or may not exist yet.
type Target interface {
	// Name is the output or input name this target is bound to.
	Name() string
	// Locator identifies the artifact. Two targets with the same locator are
	// the same artifact.
	Locator() string
	Kind() Kind
	// Exists reports whether the artifact is present. It has no side effects.
	Exists() (bool, error)
	OpenForRead() (io.ReadCloser, error)
	OpenForWrite() (io.WriteCloser, error)
	OpenForAppend() (io.WriteCloser, error)
}

// WithSuffix derives a target of the same kind as t whose locator is
// t.Locator()+suffix, bound to the given name.
func WithSuffix(t Target, name, suffix string) Target {
	loc := t.Locator() + suffix
	switch t.Kind() {
	case Directory:
		return NewDirectory(name, loc)
	case Flag:
		return NewFlag(name, loc)
	default:
		return NewFile(name, loc)
	}
}

// WriteFile opens t for writing and hands the writer to fn. The artifact only
// appears under its locator if fn succeeds; on error the temporary file is
// discarded.
func WriteFile(t Target, fn func(w io.Writer) error) error {
	w, err := t.OpenForWrite()
	if err != nil {
		return err
	}
	if err := fn(w); err != nil {
		if a, ok := w.(interface{ Abort() error }); ok {
			_ = a.Abort()
		} else {
			_ = w.Close()
		}
		return err
	}
	return w.Close()
}

// MissingOf returns the targets in ts that do not exist, sorted by name.
func MissingOf(ts map[string]Target) ([]Target, error) {
	var missing []Target
	for _, name := range sortedNames(ts) {
		ok, err := ts[name].Exists()
		if err != nil {
			return nil, fmt.Errorf("checking %s %q: %w", ts[name].Kind(), ts[name].Locator(), err)
		}
		if !ok {
			missing = append(missing, ts[name])
		}
	}
	return missing, nil
}

func statKind(path string) (os.FileInfo, bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return info, true, nil
}
