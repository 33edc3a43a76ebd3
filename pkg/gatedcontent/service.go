package gatedcontent

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// Service defines the main interface for the gated-content publishing
// pipeline: upload coordination, draft editing, publication, owner-scoped
// content management and anonymous resolution.
type Service interface {
	// Upload session operations
	StartSession(ctx context.Context, req StartSessionRequest) (*UploadSession, error)
	Upload(ctx context.Context, sessionID uuid.UUID, reader io.Reader) error
	Cancel(sessionID uuid.UUID) error
	Progress(sessionID uuid.UUID) (Progress, error)
	GetSession(sessionID uuid.UUID) (*UploadSession, error)

	// Draft operations
	UpdateDraft(sessionID uuid.UUID, req UpdateDraftRequest) error
	Publish(ctx context.Context, sessionID uuid.UUID) (*ContentItem, error)

	// Content operations
	GetContent(ctx context.Context, id uuid.UUID) (*ContentItem, error)
	ListContent(ctx context.Context, ownerID uuid.UUID) ([]*ContentItem, error)
	DeleteContent(ctx context.Context, id uuid.UUID, requestingOwnerID uuid.UUID) error

	// Public resolution
	Resolve(ctx context.Context, id uuid.UUID) (*PublicProjection, error)
	PublicLink(id uuid.UUID) string

	// Storage backend operations
	RegisterBackend(name string, backend BlobStore)
	GetBackend(name string) (BlobStore, error)
}
