package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/previewpro/gated-content/pkg/gatedcontent"
)

// ContentItemResponse is the owner-facing response body for a published item
type ContentItemResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	BlurLevel   int       `json:"blur_level"`
	CTAText     string    `json:"cta_text"`
	Price       string    `json:"price"`
	ButtonColor string    `json:"button_color,omitempty"`
	FileName    string    `json:"file_name,omitempty"`
	FileSize    int64     `json:"file_size,omitempty"`
	MimeType    string    `json:"mime_type,omitempty"`
	PublicLink  string    `json:"public_link"`
	CreatedAt   time.Time `json:"created_at"`
}

// LinkResponse is the response body for a public link lookup
type LinkResponse struct {
	ID         string `json:"id"`
	PublicLink string `json:"public_link"`
}

// ContentHandler handles owner-scoped HTTP requests for published content
type ContentHandler struct {
	service gatedcontent.Service
}

// NewContentHandler creates a new content handler
func NewContentHandler(service gatedcontent.Service) *ContentHandler {
	return &ContentHandler{service: service}
}

// Routes returns the routes for published content
func (h *ContentHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListContent)
	r.Delete("/{id}", h.DeleteContent)
	r.Get("/{id}/link", h.GetLink)

	return r
}

// ListContent lists the caller's published items, newest first
func (h *ContentHandler) ListContent(w http.ResponseWriter, r *http.Request) {
	ownerID, err := ownerFromRequest(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	items, err := h.service.ListContent(r.Context(), ownerID)
	if err != nil {
		slog.Error("Failed to list content", "owner_id", ownerID, "error", err)
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	resp := make([]ContentItemResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, h.contentItemResponse(item))
	}
	render.JSON(w, r, resp)
}

// DeleteContent removes a published item owned by the caller. The stored
// binary is cleaned up asynchronously.
func (h *ContentHandler) DeleteContent(w http.ResponseWriter, r *http.Request) {
	ownerID, err := ownerFromRequest(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		http.Error(w, "Invalid content ID", http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteContent(r.Context(), id, ownerID); err != nil {
		slog.Error("Failed to delete content", "content_id", id, "error", err)
		http.Error(w, err.Error(), statusForError(err))
		return
	}

	slog.Info("Content deleted", "content_id", id, "owner_id", ownerID)
	w.WriteHeader(http.StatusNoContent)
}

// GetLink returns the shareable public link for a published item
func (h *ContentHandler) GetLink(w http.ResponseWriter, r *http.Request) {
	ownerID, err := ownerFromRequest(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		http.Error(w, "Invalid content ID", http.StatusBadRequest)
		return
	}

	// Foreign items read as not found, matching the session handlers.
	item, err := h.service.GetContent(r.Context(), id)
	if err != nil || item.OwnerID != ownerID {
		http.Error(w, "Content not found", http.StatusNotFound)
		return
	}

	render.JSON(w, r, LinkResponse{
		ID:         id.String(),
		PublicLink: h.service.PublicLink(id),
	})
}

func (h *ContentHandler) contentItemResponse(item *gatedcontent.ContentItem) ContentItemResponse {
	return ContentItemResponse{
		ID:          item.ID.String(),
		Title:       item.Title,
		BlurLevel:   item.BlurLevel,
		CTAText:     item.CTAText,
		Price:       item.Price,
		ButtonColor: item.ButtonColor,
		FileName:    item.FileName,
		FileSize:    item.FileSize,
		MimeType:    item.MimeType,
		PublicLink:  h.service.PublicLink(item.ID),
		CreatedAt:   item.CreatedAt,
	}
}
