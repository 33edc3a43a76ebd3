package api

import (
	"net/http"

	"github.com/previewpro/gated-content/pkg/gatedcontent"
)

// statusForError maps a pipeline error onto an HTTP status via its kind.
func statusForError(err error) int {
	switch gatedcontent.KindOf(err) {
	case gatedcontent.KindValidation:
		return http.StatusBadRequest
	case gatedcontent.KindAuthorization:
		return http.StatusForbidden
	case gatedcontent.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}
