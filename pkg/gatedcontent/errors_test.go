package gatedcontent_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/previewpro/gated-content/pkg/gatedcontent"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected gatedcontent.Kind
	}{
		{"content not found", gatedcontent.ErrContentNotFound, gatedcontent.KindNotFound},
		{"session not found", gatedcontent.ErrSessionNotFound, gatedcontent.KindNotFound},
		{"object not found", gatedcontent.ErrObjectNotFound, gatedcontent.KindNotFound},
		{"not owner", gatedcontent.ErrNotOwner, gatedcontent.KindAuthorization},
		{"storage denied", gatedcontent.ErrStorageDenied, gatedcontent.KindAuthorization},
		{"object too large", gatedcontent.ErrObjectTooLarge, gatedcontent.KindValidation},
		{"empty upload", gatedcontent.ErrEmptyUpload, gatedcontent.KindValidation},
		{"not a video", gatedcontent.ErrNotVideo, gatedcontent.KindValidation},
		{"cancelled", gatedcontent.ErrUploadCancelled, gatedcontent.KindValidation},
		{"invalid transition", gatedcontent.ErrInvalidTransition, gatedcontent.KindValidation},
		{"unknown backend", gatedcontent.ErrStorageBackendNotFound, gatedcontent.KindValidation},
		{"unknown error defaults to transient", errors.New("connection reset"), gatedcontent.KindTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, gatedcontent.KindOf(tt.err))
		})
	}
}

func TestKindOfSeesThroughWrappers(t *testing.T) {
	wrapped := &gatedcontent.SessionError{
		SessionID: uuid.New(),
		Op:        "upload",
		Err:       fmt.Errorf("streaming: %w", gatedcontent.ErrUploadCancelled),
	}
	assert.Equal(t, gatedcontent.KindValidation, gatedcontent.KindOf(wrapped))

	storage := &gatedcontent.StorageError{
		Backend: "s3",
		Key:     "owner/123.mp4",
		Op:      "upload",
		Err:     gatedcontent.ErrStorageDenied,
	}
	assert.Equal(t, gatedcontent.KindAuthorization, gatedcontent.KindOf(storage))
}

func TestErrorWrappersUnwrap(t *testing.T) {
	contentErr := &gatedcontent.ContentError{
		ContentID: uuid.New(),
		Op:        "publish",
		Err:       gatedcontent.ErrContentNotFound,
	}
	assert.True(t, errors.Is(contentErr, gatedcontent.ErrContentNotFound))
	assert.Contains(t, contentErr.Error(), "publish")

	sessionErr := &gatedcontent.SessionError{
		SessionID: uuid.New(),
		Op:        "cancel",
		Err:       gatedcontent.ErrSessionNotFound,
	}
	assert.True(t, errors.Is(sessionErr, gatedcontent.ErrSessionNotFound))
	assert.Contains(t, sessionErr.Error(), "cancel")
}
