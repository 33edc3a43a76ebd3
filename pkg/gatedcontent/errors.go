package gatedcontent

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error types
var (
	// ErrContentNotFound indicates a content item was not found
	ErrContentNotFound = errors.New("content not found")

	// ErrSessionNotFound indicates an upload session was not found
	ErrSessionNotFound = errors.New("upload session not found")

	// ErrNotOwner indicates the requesting identity does not own the content
	ErrNotOwner = errors.New("requesting identity is not the content owner")

	// ErrObjectNotFound indicates a stored object was not found
	ErrObjectNotFound = errors.New("object not found")

	// ErrStorageBackendNotFound indicates a storage backend was not found
	ErrStorageBackendNotFound = errors.New("storage backend not found")

	// ErrStorageDenied indicates the storage backend refused the write grant
	ErrStorageDenied = errors.New("storage permission denied")

	// ErrObjectTooLarge indicates the binary exceeds the storage size limit
	ErrObjectTooLarge = errors.New("object exceeds size limit")

	// ErrEmptyUpload indicates the selected binary is absent or empty
	ErrEmptyUpload = errors.New("empty or missing upload binary")

	// ErrNotVideo indicates the declared MIME type is not a recognized video type
	ErrNotVideo = errors.New("not a recognized video type")

	// ErrUploadCancelled indicates the caller cancelled the transfer
	ErrUploadCancelled = errors.New("upload cancelled")

	// ErrInvalidTransition indicates an operation illegal for the session state
	ErrInvalidTransition = errors.New("invalid session state transition")
)

// Kind classifies an error for retry decisions at the caller.
type Kind string

const (
	KindValidation    Kind = "validation"    // bad input, caller must correct
	KindAuthorization Kind = "authorization" // not retryable without a permission change
	KindTransient     Kind = "transient"     // safe to retry the same operation
	KindNotFound      Kind = "not_found"     // terminal for this operation
)

// KindOf maps any pipeline error to its Kind. Unrecognized errors are
// treated as transient so callers default to retrying I/O failures.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrContentNotFound),
		errors.Is(err, ErrSessionNotFound),
		errors.Is(err, ErrObjectNotFound):
		return KindNotFound
	case errors.Is(err, ErrNotOwner), errors.Is(err, ErrStorageDenied):
		return KindAuthorization
	case errors.Is(err, ErrObjectTooLarge),
		errors.Is(err, ErrEmptyUpload),
		errors.Is(err, ErrNotVideo),
		errors.Is(err, ErrUploadCancelled),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrStorageBackendNotFound):
		return KindValidation
	}
	return KindTransient
}

// ContentError represents an error related to content operations
type ContentError struct {
	ContentID uuid.UUID
	Op        string
	Err       error
}

func (e *ContentError) Error() string {
	return fmt.Sprintf("content operation %s failed for content %s: %v", e.Op, e.ContentID, e.Err)
}

func (e *ContentError) Unwrap() error {
	return e.Err
}

// SessionError represents an error related to upload session operations
type SessionError struct {
	SessionID uuid.UUID
	Op        string
	Err       error
}

func (e *SessionError) Error() string {
	return fmt.Sprintf("session operation %s failed for session %s: %v", e.Op, e.SessionID, e.Err)
}

func (e *SessionError) Unwrap() error {
	return e.Err
}

// StorageError represents an error related to storage operations
type StorageError struct {
	Backend string
	Key     string
	Op      string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage operation %s failed for key %s on backend %s: %v", e.Op, e.Key, e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
