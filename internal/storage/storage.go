// Package storage holds the object stores behind a locker: MinIO, S3 and an
// in-process store. Report bytes are streamed through; nothing touches local disk.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	ErrObjectNotFound     = errors.New("object not found")
	ErrPresignUnsupported = errors.New("presigned urls not supported")
)

// PutObjectOptions describes an upload. Size is -1 when the length is unknown.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo is what a backend reports about a stored report.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is the blob side of the gateway. Keys look like "<health id>/<file>".
type Storage interface {
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get returns ErrObjectNotFound (wrapped) for unknown keys.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Delete succeeds for keys that are already gone.
	Delete(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}
