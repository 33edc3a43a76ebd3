package gatedcontent

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// NoopEventSink is a no-operation implementation of EventSink.
// Useful for production when you don't need event handling or for testing.
type NoopEventSink struct{}

// NewNoopEventSink creates a new no-operation event sink
func NewNoopEventSink() EventSink {
	return &NoopEventSink{}
}

// UploadCompleted does nothing and returns nil
func (n *NoopEventSink) UploadCompleted(ctx context.Context, session *UploadSession) error {
	return nil
}

// ContentPublished does nothing and returns nil
func (n *NoopEventSink) ContentPublished(ctx context.Context, item *ContentItem) error {
	return nil
}

// ContentDeleted does nothing and returns nil
func (n *NoopEventSink) ContentDeleted(ctx context.Context, contentID uuid.UUID) error {
	return nil
}

// LoggingEventSink is an event sink that logs pipeline events but takes no
// other action. Useful for development and debugging.
type LoggingEventSink struct {
	logger *slog.Logger
}

// NewLoggingEventSink creates a new logging event sink. A nil logger uses
// slog's default.
func NewLoggingEventSink(logger *slog.Logger) EventSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingEventSink{logger: logger}
}

// UploadCompleted logs the completed transfer
func (l *LoggingEventSink) UploadCompleted(ctx context.Context, session *UploadSession) error {
	l.logger.Info("Upload completed",
		"session_id", session.ID,
		"owner_id", session.OwnerID,
		"object_key", session.ObjectKey(),
		"bytes", session.bytesTransferred.Load())
	return nil
}

// ContentPublished logs the published item
func (l *LoggingEventSink) ContentPublished(ctx context.Context, item *ContentItem) error {
	l.logger.Info("Content published",
		"content_id", item.ID,
		"owner_id", item.OwnerID,
		"title", item.Title)
	return nil
}

// ContentDeleted logs the deleted item
func (l *LoggingEventSink) ContentDeleted(ctx context.Context, contentID uuid.UUID) error {
	l.logger.Info("Content deleted", "content_id", contentID)
	return nil
}
