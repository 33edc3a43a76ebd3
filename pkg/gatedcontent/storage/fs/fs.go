package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/previewpro/gated-content/pkg/gatedcontent"
)

// Backend is a filesystem implementation of the gatedcontent.BlobStore
// interface. Uploads are written to a temporary file and renamed into place,
// so a failed or aborted transfer never leaves a resolvable object.
type Backend struct {
	baseDir        string
	urlPrefix      string
	maxObjectBytes int64
}

// Config options for the filesystem backend
type Config struct {
	BaseDir        string // Base directory for storing files
	URLPrefix      string // URL prefix for preview/download URLs
	MaxObjectBytes int64  // 0 means unlimited
}

// New creates a new filesystem storage backend
func New(config Config) (gatedcontent.BlobStore, error) {
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}

	if err := os.MkdirAll(config.BaseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &Backend{
		baseDir:        config.BaseDir,
		urlPrefix:      config.URLPrefix,
		maxObjectBytes: config.MaxObjectBytes,
	}, nil
}

// Upload uploads content directly to the filesystem
func (b *Backend) Upload(ctx context.Context, objectKey string, reader io.Reader) error {
	return b.UploadWithParams(ctx, reader, gatedcontent.UploadParams{ObjectKey: objectKey})
}

// UploadWithParams uploads content with additional parameters.
// MIME type is not stored separately on the filesystem; it is detected on read.
func (b *Backend) UploadWithParams(ctx context.Context, reader io.Reader, params gatedcontent.UploadParams) error {
	filePath := filepath.Join(b.baseDir, params.ObjectKey)

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return classifyOSError("create directory", err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return classifyOSError("create file", err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	src := reader
	if b.maxObjectBytes > 0 {
		src = io.LimitReader(reader, b.maxObjectBytes+1)
	}
	written, err := io.Copy(tmp, src)
	if err != nil {
		cleanup()
		return classifyOSError("write file", err)
	}
	if b.maxObjectBytes > 0 && written > b.maxObjectBytes {
		cleanup()
		return fmt.Errorf("%w: limit %d bytes", gatedcontent.ErrObjectTooLarge, b.maxObjectBytes)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return classifyOSError("close file", err)
	}

	// The rename is the commit point: before it, nothing resolvable exists.
	if err := os.Rename(tmpName, filePath); err != nil {
		os.Remove(tmpName)
		return classifyOSError("commit file", err)
	}

	return nil
}

// Download downloads content directly from the filesystem
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	filePath := filepath.Join(b.baseDir, objectKey)

	file, err := os.Open(filePath)
	if os.IsNotExist(err) {
		return nil, gatedcontent.ErrObjectNotFound
	} else if err != nil {
		return nil, classifyOSError("open file", err)
	}

	return file, nil
}

// GetPreviewURL returns a URL for previewing content
func (b *Backend) GetPreviewURL(ctx context.Context, objectKey string) (string, error) {
	if b.urlPrefix == "" {
		return "", errors.New("direct preview required for filesystem backend")
	}
	return fmt.Sprintf("%s/preview/%s", b.urlPrefix, objectKey), nil
}

// Delete deletes content from the filesystem
func (b *Backend) Delete(ctx context.Context, objectKey string) error {
	filePath := filepath.Join(b.baseDir, objectKey)

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return gatedcontent.ErrObjectNotFound
	}

	if err := os.Remove(filePath); err != nil {
		return classifyOSError("delete file", err)
	}

	b.cleanupEmptyDirectories(filepath.Dir(filePath))

	return nil
}

// GetObjectMeta retrieves metadata for an object in the filesystem
func (b *Backend) GetObjectMeta(ctx context.Context, objectKey string) (*gatedcontent.ObjectMeta, error) {
	filePath := filepath.Join(b.baseDir, objectKey)

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return nil, gatedcontent.ErrObjectNotFound
	} else if err != nil {
		return nil, classifyOSError("stat file", err)
	}

	contentType := "application/octet-stream"
	if file, err := os.Open(filePath); err == nil {
		defer file.Close()
		buffer := make([]byte, 512)
		if n, err := file.Read(buffer); err == nil {
			contentType = http.DetectContentType(buffer[:n])
		}
	}

	meta := &gatedcontent.ObjectMeta{
		Key:         objectKey,
		Size:        info.Size(),
		ContentType: contentType,
		UpdatedAt:   info.ModTime(),
		Metadata:    map[string]string{"content_type": contentType},
	}

	return meta, nil
}

// cleanupEmptyDirectories recursively removes empty directories up to baseDir
func (b *Backend) cleanupEmptyDirectories(dir string) {
	if dir == b.baseDir {
		return
	}

	if entries, err := os.ReadDir(dir); err == nil && len(entries) == 0 {
		if os.Remove(dir) == nil {
			b.cleanupEmptyDirectories(filepath.Dir(dir))
		}
	}
}

// classifyOSError maps filesystem failures onto the pipeline's error kinds:
// permission denial is user-actionable, everything else is retryable I/O.
func classifyOSError(op string, err error) error {
	if os.IsPermission(err) {
		return fmt.Errorf("%s: %w: %v", op, gatedcontent.ErrStorageDenied, err)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
