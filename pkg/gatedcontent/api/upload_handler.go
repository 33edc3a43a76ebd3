package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/previewpro/gated-content/pkg/gatedcontent"
)

// memory ceiling for multipart parsing; larger bodies spill to temp files
const multipartMemoryLimit = 32 << 20

// SessionResponse is the response body for an upload session
type SessionResponse struct {
	ID        string                `json:"id"`
	State     string                `json:"state"`
	FileName  string                `json:"file_name"`
	MimeType  string                `json:"mime_type"`
	Draft     gatedcontent.Draft    `json:"draft"`
	Progress  gatedcontent.Progress `json:"progress"`
	CreatedAt time.Time             `json:"created_at"`
}

// PublishResponse is the response body for a successful publish
type PublishResponse struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	BlurLevel  int       `json:"blur_level"`
	CTAText    string    `json:"cta_text"`
	Price      string    `json:"price"`
	PublicLink string    `json:"public_link"`
	CreatedAt  time.Time `json:"created_at"`
}

// UpdateDraftRequest is the request body for editing draft fields. Absent
// fields are left unchanged.
type UpdateDraftRequest struct {
	Title       *string `json:"title"`
	BlurLevel   *int    `json:"blur_level"`
	CTAText     *string `json:"cta_text"`
	Price       *string `json:"price"`
	ButtonColor *string `json:"button_color"`
}

// UploadHandler handles HTTP requests for upload sessions
type UploadHandler struct {
	service gatedcontent.Service
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(service gatedcontent.Service) *UploadHandler {
	return &UploadHandler{service: service}
}

// Routes returns the routes for upload sessions
func (h *UploadHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Upload)
	r.Get("/{sessionID}", h.GetSession)
	r.Get("/{sessionID}/progress", h.GetProgress)
	r.Post("/{sessionID}/cancel", h.Cancel)
	r.Patch("/{sessionID}", h.UpdateDraft)
	r.Post("/{sessionID}/publish", h.Publish)

	return r
}

// Upload accepts a multipart video upload, streams it to the configured
// storage backend and leaves the session in the editing state.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ownerID, err := ownerFromRequest(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		http.Error(w, "Invalid multipart body", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "Missing 'file' part", http.StatusBadRequest)
		return
	}
	defer file.Close()

	session, err := h.service.StartSession(r.Context(), gatedcontent.StartSessionRequest{
		OwnerID:            ownerID,
		FileName:           header.Filename,
		MimeType:           header.Header.Get("Content-Type"),
		Size:               header.Size,
		StorageBackendName: r.FormValue("storage_backend"),
	})
	if err != nil {
		slog.Error("Failed to start upload session", "owner_id", ownerID, "error", err)
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	if err := h.service.Upload(r.Context(), session.ID, file); err != nil {
		if errors.Is(err, gatedcontent.ErrUploadCancelled) {
			slog.Info("Upload cancelled", "session_id", session.ID)
			http.Error(w, "Upload cancelled", http.StatusConflict)
			return
		}
		slog.Error("Upload failed", "session_id", session.ID, "error", err)
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	slog.Info("Upload completed", "session_id", session.ID, "file_name", header.Filename)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, sessionResponse(session))
}

// GetSession returns the current state of an upload session
func (h *UploadHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.ownedSession(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, sessionResponse(session))
}

// GetProgress returns a monotonic progress snapshot for a session
func (h *UploadHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	session, ok := h.ownedSession(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, session.Progress())
}

// Cancel requests cooperative cancellation of a session
func (h *UploadHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	session, ok := h.ownedSession(w, r)
	if !ok {
		return
	}

	if err := h.service.Cancel(session.ID); err != nil {
		slog.Error("Failed to cancel session", "session_id", session.ID, "error", err)
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	slog.Info("Session cancellation requested", "session_id", session.ID)
	w.WriteHeader(http.StatusAccepted)
}

// UpdateDraft edits the draft fields of an uploaded, not yet published session
func (h *UploadHandler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	session, ok := h.ownedSession(w, r)
	if !ok {
		return
	}

	var req UpdateDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	err := h.service.UpdateDraft(session.ID, gatedcontent.UpdateDraftRequest{
		Title:       req.Title,
		BlurLevel:   req.BlurLevel,
		CTAText:     req.CTAText,
		Price:       req.Price,
		ButtonColor: req.ButtonColor,
	})
	if err != nil {
		slog.Error("Failed to update draft", "session_id", session.ID, "error", err)
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	render.JSON(w, r, sessionResponse(session))
}

// Publish persists the draft as a content item and returns its public link
func (h *UploadHandler) Publish(w http.ResponseWriter, r *http.Request) {
	session, ok := h.ownedSession(w, r)
	if !ok {
		return
	}

	item, err := h.service.Publish(r.Context(), session.ID)
	if err != nil {
		slog.Error("Failed to publish", "session_id", session.ID, "error", err)
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	slog.Info("Content published", "session_id", session.ID, "content_id", item.ID)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, PublishResponse{
		ID:         item.ID.String(),
		Title:      item.Title,
		BlurLevel:  item.BlurLevel,
		CTAText:    item.CTAText,
		Price:      item.Price,
		PublicLink: h.service.PublicLink(item.ID),
		CreatedAt:  item.CreatedAt,
	})
}

// ownedSession loads the session from the URL and verifies the caller owns
// it. Foreign sessions read as not found so session IDs are not probeable.
func (h *UploadHandler) ownedSession(w http.ResponseWriter, r *http.Request) (*gatedcontent.UploadSession, bool) {
	ownerID, err := ownerFromRequest(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return nil, false
	}

	idStr := chi.URLParam(r, "sessionID")
	sessionID, err := uuid.Parse(idStr)
	if err != nil {
		http.Error(w, "Invalid session ID", http.StatusBadRequest)
		return nil, false
	}

	session, err := h.service.GetSession(sessionID)
	if err != nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return nil, false
	}
	if session.OwnerID != ownerID {
		http.Error(w, "Session not found", http.StatusNotFound)
		return nil, false
	}
	return session, true
}

func sessionResponse(session *gatedcontent.UploadSession) SessionResponse {
	return SessionResponse{
		ID:        session.ID.String(),
		State:     string(session.State()),
		FileName:  session.FileName,
		MimeType:  session.MimeType,
		Draft:     session.DraftSnapshot(),
		Progress:  session.Progress(),
		CreatedAt: session.CreatedAt,
	}
}
