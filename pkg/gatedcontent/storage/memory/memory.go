package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/previewpro/gated-content/pkg/gatedcontent"
)

// Backend is an in-memory implementation of the gatedcontent.BlobStore
// interface. Objects become visible only after the full body has been read,
// so a failed upload never leaves a resolvable location.
type Backend struct {
	mu              sync.RWMutex
	objects         map[string][]byte
	objectsMimeType map[string]string
	updatedAt       map[string]time.Time

	maxObjectBytes int64
	urlPrefix      string
}

// Config options for the in-memory backend
type Config struct {
	MaxObjectBytes int64  // 0 means unlimited
	URLPrefix      string // scheme/prefix used for preview URLs
}

// New creates a new in-memory storage backend with defaults
func New() gatedcontent.BlobStore {
	return NewWithConfig(Config{})
}

// NewWithConfig creates a new in-memory storage backend
func NewWithConfig(config Config) gatedcontent.BlobStore {
	if config.URLPrefix == "" {
		config.URLPrefix = "memory://"
	}
	return &Backend{
		objects:         make(map[string][]byte),
		objectsMimeType: make(map[string]string),
		updatedAt:       make(map[string]time.Time),
		maxObjectBytes:  config.MaxObjectBytes,
		urlPrefix:       config.URLPrefix,
	}
}

// Upload buffers the full body, then commits it under objectKey
func (b *Backend) Upload(ctx context.Context, objectKey string, reader io.Reader) error {
	return b.UploadWithParams(ctx, reader, gatedcontent.UploadParams{
		ObjectKey: objectKey,
		MimeType:  "application/octet-stream",
	})
}

// UploadWithParams uploads content with parameters
func (b *Backend) UploadWithParams(ctx context.Context, reader io.Reader, params gatedcontent.UploadParams) error {
	var buf bytes.Buffer

	src := reader
	if b.maxObjectBytes > 0 {
		src = io.LimitReader(reader, b.maxObjectBytes+1)
	}
	if _, err := io.Copy(&buf, src); err != nil {
		return err
	}
	if b.maxObjectBytes > 0 && int64(buf.Len()) > b.maxObjectBytes {
		return fmt.Errorf("%w: limit %d bytes", gatedcontent.ErrObjectTooLarge, b.maxObjectBytes)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[params.ObjectKey] = buf.Bytes()
	b.objectsMimeType[params.ObjectKey] = params.MimeType
	b.updatedAt[params.ObjectKey] = time.Now().UTC()
	return nil
}

// Download downloads content directly
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, exists := b.objects[objectKey]
	if !exists {
		return nil, gatedcontent.ErrObjectNotFound
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

// GetPreviewURL returns a synthetic URL for the object
func (b *Backend) GetPreviewURL(ctx context.Context, objectKey string) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if _, exists := b.objects[objectKey]; !exists {
		return "", gatedcontent.ErrObjectNotFound
	}
	return b.urlPrefix + objectKey, nil
}

// Delete deletes content
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.objects[objectKey]; !exists {
		return gatedcontent.ErrObjectNotFound
	}

	delete(b.objects, objectKey)
	delete(b.objectsMimeType, objectKey)
	delete(b.updatedAt, objectKey)
	return nil
}

// GetObjectMeta retrieves metadata for an object in memory
func (b *Backend) GetObjectMeta(ctx context.Context, objectKey string) (*gatedcontent.ObjectMeta, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, exists := b.objects[objectKey]
	if !exists {
		return nil, gatedcontent.ErrObjectNotFound
	}

	mimeType := b.objectsMimeType[objectKey]
	meta := &gatedcontent.ObjectMeta{
		Key:         objectKey,
		Size:        int64(len(data)),
		ContentType: mimeType,
		UpdatedAt:   b.updatedAt[objectKey],
		Metadata:    map[string]string{"mime_type": mimeType},
	}

	return meta, nil
}
