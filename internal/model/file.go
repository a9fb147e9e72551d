package model

import (
	"errors"
	"io"
)

// FileHandle is a client-side file selected for upload. Open is called once,
// when the file's turn in the batch comes.
type FileHandle struct {
	Name        string
	Size        int64
	ContentType string
	Open        func() (io.ReadCloser, error)
}

var errNoOpener = errors.New("file handle has no opener")

// Reader opens the underlying content.
func (f FileHandle) Reader() (io.ReadCloser, error) {
	if f.Open == nil {
		return nil, errNoOpener
	}
	return f.Open()
}
