package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/previewpro/gated-content/pkg/gatedcontent"
)

// PublicHandler serves anonymous viewers resolving shared links. No
// authentication is required and no owner identity ever leaves this handler.
type PublicHandler struct {
	service gatedcontent.Service
}

// NewPublicHandler creates a new public handler
func NewPublicHandler(service gatedcontent.Service) *PublicHandler {
	return &PublicHandler{service: service}
}

// Routes returns the routes for anonymous resolution
func (h *PublicHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/{id}", h.Resolve)

	return r
}

// Resolve returns the public projection of a published item: playable video
// URL plus the display and monetization fields the gate page needs.
func (h *PublicHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	// A malformed id is indistinguishable from an unknown one to an
	// anonymous viewer; both resolve to not found.
	idStr := chi.URLParam(r, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		http.Error(w, "Content not found", http.StatusNotFound)
		return
	}

	projection, err := h.service.Resolve(r.Context(), id)
	if err != nil {
		if statusForError(err) == http.StatusNotFound {
			http.Error(w, "Content not found", http.StatusNotFound)
			return
		}
		slog.Error("Failed to resolve content", "content_id", id, "error", err)
		http.Error(w, "Content temporarily unavailable", http.StatusBadGateway)
		return
	}

	render.JSON(w, r, projection)
}
