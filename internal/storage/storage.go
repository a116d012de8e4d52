// Package storage provides access to the stored binary objects the
// resizer serves. Implementations distinguish a missing object
// (ErrNotFound) from a failing store call.
package storage

import (
	"context"
	"errors"
	"io"
	"sync"
)

// ErrNotFound reports that the requested key has no stored object.
var ErrNotFound = errors.New("object not found")

// ObjectStore retrieves stored objects by key.
type ObjectStore interface {
	// Get returns the object stored under key, ErrNotFound when the key
	// does not exist, or another error when the store call itself failed.
	Get(ctx context.Context, key string) (*ObjectHandle, error)
}

// ObjectHandle is a reference to one stored binary plus its metadata.
// The underlying stream is read at most once; Bytes memoizes the result
// so several strategies can borrow the same handle within a request.
type ObjectHandle struct {
	Key         string
	ContentType string
	Size        int64

	once   sync.Once
	reader io.ReadCloser
	data   []byte
	err    error
}

// NewObjectHandle wraps a readable stream with object metadata.
func NewObjectHandle(key, contentType string, size int64, reader io.ReadCloser) *ObjectHandle {
	return &ObjectHandle{
		Key:         key,
		ContentType: contentType,
		Size:        size,
		reader:      reader,
	}
}

// NewObjectHandleBytes builds a handle around an in-memory payload.
func NewObjectHandleBytes(key, contentType string, data []byte) *ObjectHandle {
	return &ObjectHandle{
		Key:         key,
		ContentType: contentType,
		Size:        int64(len(data)),
		data:        data,
	}
}

// Bytes returns the object payload, reading and closing the underlying
// stream on first use.
func (h *ObjectHandle) Bytes() ([]byte, error) {
	h.once.Do(func() {
		if h.reader == nil {
			return
		}
		defer h.reader.Close()
		h.data, h.err = io.ReadAll(h.reader)
	})
	return h.data, h.err
}
