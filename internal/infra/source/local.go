package source

import (
	"context"
	"io"
	"os"
)

// LocalFile opens a delimited text file from disk.
type LocalFile struct {
	path string
}

// NewLocalFile constructs the source.
func NewLocalFile(path string) *LocalFile {
	return &LocalFile{path: path}
}

// Open returns a reader over the file contents.
func (s *LocalFile) Open(_ context.Context) (io.ReadCloser, error) {
	return os.Open(s.path)
}
