package gatedcontent

import (
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Blur level bounds for the preview player. Values outside the range are
// clamped before persistence.
const (
	MinBlurLevel = 0
	MaxBlurLevel = 40
)

// Display defaults applied at publish time when the owner left a field empty.
const (
	DefaultBlurLevel = 15
	DefaultCTAText   = "Unlock content"
	DefaultTitle     = "Untitled video"
)

// SessionState is the domain type for upload session lifecycle states.
type SessionState string

// Session state constants (typed).
const (
	SessionStateIdle       SessionState = "idle"
	SessionStateSelecting  SessionState = "selecting"
	SessionStateUploading  SessionState = "uploading"
	SessionStateUploaded   SessionState = "uploaded"
	SessionStateEditing    SessionState = "editing"
	SessionStatePublishing SessionState = "publishing"
	SessionStatePublished  SessionState = "published"
	SessionStateCancelled  SessionState = "cancelled"
	SessionStateFailed     SessionState = "failed"
)

// IsTerminal reports whether no further transitions are possible from s.
// A failed publish is the exception: the draft survives and publishing may be
// retried without re-uploading the binary.
func (s SessionState) IsTerminal() bool {
	switch s {
	case SessionStatePublished, SessionStateCancelled, SessionStateFailed:
		return true
	}
	return false
}

// ContentItem is a published video paired with its monetization and display
// metadata. OwnerID is set once at creation and never changes; all mutation
// and deletion is scoped to it.
type ContentItem struct {
	ID             uuid.UUID `json:"id"`
	OwnerID        uuid.UUID `json:"owner_id"`
	StorageBackend string    `json:"storage_backend"`
	ObjectKey      string    `json:"object_key"`
	Title          string    `json:"title"`
	BlurLevel      int       `json:"blur_level"`
	CTAText        string    `json:"cta_text"`
	Price          string    `json:"price"`
	ButtonColor    string    `json:"button_color,omitempty"`
	FileName       string    `json:"file_name,omitempty"`
	FileSize       int64     `json:"file_size,omitempty"`
	MimeType       string    `json:"mime_type,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// PublicProjection is the subset of a ContentItem safe to expose to an
// anonymous viewer. It carries a resolvable video URL rather than the
// internal storage location, and never the owner identity.
type PublicProjection struct {
	ID          uuid.UUID `json:"id"`
	VideoURL    string    `json:"video_url"`
	Title       string    `json:"title"`
	BlurLevel   int       `json:"blur_level"`
	CTAText     string    `json:"cta_text"`
	Price       string    `json:"price"`
	ButtonColor string    `json:"button_color,omitempty"`
}

// Progress is a point-in-time snapshot of an upload's byte counters.
// Fraction reaches 1.0 only after the blob store confirmed the object is
// durably placed.
type Progress struct {
	BytesTransferred int64   `json:"bytes_transferred"`
	BytesTotal       int64   `json:"bytes_total"`
	Fraction         float64 `json:"fraction"`
}

// ClampBlurLevel forces v into the valid blur range.
func ClampBlurLevel(v int) int {
	if v < MinBlurLevel {
		return MinBlurLevel
	}
	if v > MaxBlurLevel {
		return MaxBlurLevel
	}
	return v
}

// TitleFromFileName derives a default display title from the uploaded file
// name by stripping the extension. Empty input falls back to DefaultTitle.
func TitleFromFileName(fileName string) string {
	base := path.Base(strings.TrimSpace(fileName))
	if base == "." || base == "/" || base == "" {
		return DefaultTitle
	}
	title := strings.TrimSuffix(base, path.Ext(base))
	if title == "" {
		return DefaultTitle
	}
	return title
}

// IsVideoMimeType reports whether the declared MIME type is a recognized
// video type accepted for upload.
func IsVideoMimeType(mimeType string) bool {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return strings.HasPrefix(mt, "video/") && len(mt) > len("video/")
}
