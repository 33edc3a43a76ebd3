package gatedcontent

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// BlobStore defines the interface for storage backends.
//
// Upload is all-or-nothing: a failed or aborted upload must not leave a
// resolvable object behind. Implementations classify failures by wrapping
// ErrStorageDenied, ErrObjectTooLarge or ErrObjectNotFound; everything else
// is treated as transient I/O.
type BlobStore interface {
	// Upload places content under objectKey
	Upload(ctx context.Context, objectKey string, reader io.Reader) error

	// UploadWithParams uploads content with additional parameters
	UploadWithParams(ctx context.Context, reader io.Reader, params UploadParams) error

	// Download retrieves content directly
	Download(ctx context.Context, objectKey string) (io.ReadCloser, error)

	// GetPreviewURL returns a viewer-resolvable URL for the object
	GetPreviewURL(ctx context.Context, objectKey string) (string, error)

	// Delete removes content
	Delete(ctx context.Context, objectKey string) error

	// GetObjectMeta retrieves metadata for a stored object
	GetObjectMeta(ctx context.Context, objectKey string) (*ObjectMeta, error)
}

// Repository defines the interface for content item persistence.
type Repository interface {
	// CreateContent persists a new item. Callers invoke it only after the
	// object store confirmed the binary is durably placed.
	CreateContent(ctx context.Context, item *ContentItem) error

	// GetContent returns an item by id with no owner check; published
	// content is intentionally public by link.
	GetContent(ctx context.Context, id uuid.UUID) (*ContentItem, error)

	// ListContentByOwner returns the owner's items newest first. An empty
	// slice is a valid result, not an error.
	ListContentByOwner(ctx context.Context, ownerID uuid.UUID) ([]*ContentItem, error)

	// DeleteContent removes an item. It fails with ErrNotOwner when
	// requestingOwnerID does not match the stored owner, and with
	// ErrContentNotFound when the id does not exist, so callers can tell
	// "already gone" from "succeeded".
	DeleteContent(ctx context.Context, id uuid.UUID, requestingOwnerID uuid.UUID) error
}

// EventSink defines the interface for pipeline event handling. Sink errors
// are logged and never fail the triggering operation.
type EventSink interface {
	// UploadCompleted is fired when a binary is durably placed
	UploadCompleted(ctx context.Context, session *UploadSession) error

	// ContentPublished is fired when an item is persisted
	ContentPublished(ctx context.Context, item *ContentItem) error

	// ContentDeleted is fired when an item is removed
	ContentDeleted(ctx context.Context, contentID uuid.UUID) error
}

// ObjectMeta contains metadata about an object in storage
type ObjectMeta struct {
	Key         string
	Size        int64
	ContentType string
	UpdatedAt   time.Time
	ETag        string
	Metadata    map[string]string
}

// UploadParams contains parameters for uploading an object
type UploadParams struct {
	ObjectKey string
	MimeType  string
}
