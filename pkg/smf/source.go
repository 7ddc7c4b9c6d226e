package smf

import (
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/zurustar/kmidi/pkg/fileutil"
)

type sourceKind int

const (
	sourcePath sourceKind = iota
	sourceReader
	sourceFS
)

// Source names where MIDI data comes from.
// Sources created with FromPath or FromFS are opened and closed by the
// operation that uses them; a reader passed to FromReader stays owned by
// the caller and is never closed.
type Source struct {
	kind sourceKind
	name string
	fsys fs.FS
	r    io.Reader
}

// FromPath returns a Source reading the named file.
// The name is resolved case-insensitively.
func FromPath(path string) Source {
	return Source{kind: sourcePath, name: path}
}

// FromReader returns a Source reading from an already open stream.
func FromReader(r io.Reader) Source {
	return Source{kind: sourceReader, name: "stream", r: r}
}

// FromFS returns a Source reading name from fsys.
func FromFS(fsys fs.FS, name string) Source {
	return Source{kind: sourceFS, name: name, fsys: fsys}
}

// String returns the path or a placeholder for streams.
func (s Source) String() string {
	return s.name
}

// open returns the reader and a function releasing whatever open acquired.
func (s Source) open() (io.Reader, func() error, error) {
	switch s.kind {
	case sourceReader:
		if s.r == nil {
			return nil, nil, fmt.Errorf("nil reader source")
		}
		return s.r, func() error { return nil }, nil
	case sourceFS:
		name, err := fileutil.FindFileCaseInsensitiveFS(s.fsys, s.name)
		if err != nil {
			return nil, nil, err
		}
		f, err := s.fsys.Open(name)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open %s: %w", name, err)
		}
		return f, f.Close, nil
	default:
		path, err := fileutil.FindFileInsensitive(s.name)
		if err != nil {
			return nil, nil, err
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		return f, f.Close, nil
	}
}
