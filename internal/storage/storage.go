package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// Package storage contains object storage abstractions for S3-compatible backends.
// Uploaded source PDFs live here; rendered redacted output is never stored.

// ErrObjectTooLarge is returned by ReadAll when an object exceeds the caller's bound.
var ErrObjectTooLarge = errors.New("object exceeds size limit")

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set to -1 and the implementation
// will buffer/chunk as supported by the backend.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is a reusable, S3-compatible object storage client interface.
type Storage interface {
	// Put uploads an object under the given key using the provided reader and options.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get retrieves an object's content as a streaming reader alongside its info.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Delete removes an object by key.
	Delete(ctx context.Context, key string) error
	// PresignGet returns a time-limited URL that can be used to download the object without credentials.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// ReadAll fetches key into memory. When max > 0 and the object is larger,
// ErrObjectTooLarge is returned without buffering the remainder.
func ReadAll(ctx context.Context, s Storage, key string, max int64) ([]byte, error) {
	rc, info, err := s.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	defer rc.Close()

	if max > 0 && info.Size > max {
		return nil, fmt.Errorf("%w: %d > %d", ErrObjectTooLarge, info.Size, max)
	}
	var r io.Reader = rc
	if max > 0 {
		r = io.LimitReader(rc, max+1)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", key, err)
	}
	if max > 0 && int64(len(b)) > max {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrObjectTooLarge, max)
	}
	return b, nil
}
