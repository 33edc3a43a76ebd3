package fs_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/previewpro/gated-content/pkg/gatedcontent"
	fsstorage "github.com/previewpro/gated-content/pkg/gatedcontent/storage/fs"
)

func newBackend(t *testing.T, cfg fsstorage.Config) gatedcontent.BlobStore {
	if cfg.BaseDir == "" {
		cfg.BaseDir = t.TempDir()
	}
	backend, err := fsstorage.New(cfg)
	require.NoError(t, err)
	return backend
}

func TestNewRequiresBaseDir(t *testing.T) {
	_, err := fsstorage.New(fsstorage.Config{})
	assert.Error(t, err)
}

func TestUploadDownloadRoundTrip(t *testing.T) {
	backend := newBackend(t, fsstorage.Config{})
	ctx := context.Background()

	err := backend.UploadWithParams(ctx, strings.NewReader("video bytes"), gatedcontent.UploadParams{
		ObjectKey: "owner/1.mp4",
	})
	require.NoError(t, err)

	rc, err := backend.Download(ctx, "owner/1.mp4")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "video bytes", string(data))
}

func TestFailedUploadLeavesNoObject(t *testing.T) {
	dir := t.TempDir()
	backend := newBackend(t, fsstorage.Config{BaseDir: dir})
	ctx := context.Background()

	reader := io.MultiReader(strings.NewReader("partial"), errReader{})
	err := backend.UploadWithParams(ctx, reader, gatedcontent.UploadParams{ObjectKey: "owner/2.mp4"})
	require.Error(t, err)

	// Neither the final path nor any temp file may remain.
	_, err = backend.Download(ctx, "owner/2.mp4")
	assert.ErrorIs(t, err, gatedcontent.ErrObjectNotFound)

	entries, err := os.ReadDir(filepath.Join(dir, "owner"))
	if err == nil {
		assert.Empty(t, entries)
	}
}

func TestQuotaEnforced(t *testing.T) {
	backend := newBackend(t, fsstorage.Config{MaxObjectBytes: 10})
	ctx := context.Background()

	err := backend.UploadWithParams(ctx, strings.NewReader(strings.Repeat("x", 11)), gatedcontent.UploadParams{
		ObjectKey: "owner/big.mp4",
	})
	assert.ErrorIs(t, err, gatedcontent.ErrObjectTooLarge)

	_, err = backend.Download(ctx, "owner/big.mp4")
	assert.ErrorIs(t, err, gatedcontent.ErrObjectNotFound)
}

func TestDeleteCleansEmptyDirectories(t *testing.T) {
	dir := t.TempDir()
	backend := newBackend(t, fsstorage.Config{BaseDir: dir})
	ctx := context.Background()

	require.NoError(t, backend.Upload(ctx, "owner/nested/3.mp4", strings.NewReader("v")))
	require.NoError(t, backend.Delete(ctx, "owner/nested/3.mp4"))

	_, err := os.Stat(filepath.Join(dir, "owner"))
	assert.True(t, os.IsNotExist(err), "empty owner directory should be removed")

	assert.ErrorIs(t, backend.Delete(ctx, "owner/nested/3.mp4"), gatedcontent.ErrObjectNotFound)
}

func TestGetPreviewURL(t *testing.T) {
	backend := newBackend(t, fsstorage.Config{URLPrefix: "http://localhost:8080/files"})

	url, err := backend.GetPreviewURL(context.Background(), "owner/4.mp4")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/files/preview/owner/4.mp4", url)
}

func TestGetPreviewURLWithoutPrefix(t *testing.T) {
	backend := newBackend(t, fsstorage.Config{})

	_, err := backend.GetPreviewURL(context.Background(), "owner/4.mp4")
	assert.Error(t, err)
}

func TestGetObjectMeta(t *testing.T) {
	backend := newBackend(t, fsstorage.Config{})
	ctx := context.Background()

	require.NoError(t, backend.Upload(ctx, "owner/5.mp4", strings.NewReader("12345")))

	meta, err := backend.GetObjectMeta(ctx, "owner/5.mp4")
	require.NoError(t, err)
	assert.Equal(t, int64(5), meta.Size)
	assert.False(t, meta.UpdatedAt.IsZero())

	_, err = backend.GetObjectMeta(ctx, "owner/none.mp4")
	assert.ErrorIs(t, err, gatedcontent.ErrObjectNotFound)
}

type errReader struct{}

func (errReader) Read(p []byte) (int, error) {
	return 0, io.ErrUnexpectedEOF
}
