package gateway

import (
	"bytes"
	"errors"
	"io"

	"github.com/h2non/filetype"
)

const (
	octetStream = "application/octet-stream"
	// filetype needs at most this many bytes to identify a format.
	sniffLen = 261
)

var errFileTooLarge = errors.New("file exceeds size limit")

// sniffContentType detects the MIME type from the first bytes of r. It returns
// a reader that still yields the full content.
func sniffContentType(r io.Reader) (string, io.Reader, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", nil, err
	}
	head = head[:n]
	body := io.MultiReader(bytes.NewReader(head), r)

	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown {
		return octetStream, body, nil
	}
	return kind.MIME.Value, body, nil
}

// capReader fails once more than limit bytes have been read.
type capReader struct {
	r     io.Reader
	limit int64
	read  int64
}

func (c *capReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.read += int64(n)
	if c.read > c.limit {
		return n, errFileTooLarge
	}
	return n, err
}
