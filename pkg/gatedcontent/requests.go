package gatedcontent

import "github.com/google/uuid"

// Request DTOs

// StartSessionRequest contains parameters for selecting a binary for upload.
// Size is the declared byte count of the binary; MimeType its declared
// content type.
type StartSessionRequest struct {
	OwnerID            uuid.UUID
	FileName           string
	MimeType           string
	Size               int64
	StorageBackendName string // optional; empty selects the default backend
}

// UpdateDraftRequest contains parameters for editing a draft between upload
// and publish. Nil fields are left unchanged.
type UpdateDraftRequest struct {
	Title       *string
	BlurLevel   *int
	CTAText     *string
	Price       *string
	ButtonColor *string
}
