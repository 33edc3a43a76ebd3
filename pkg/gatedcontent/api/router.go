// Package api exposes the gated-content pipeline over HTTP: an authenticated
// management surface for owners and an anonymous resolution surface for
// viewers following shared links.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"
)

// RouterConfig carries the dependencies for assembling the HTTP surface
type RouterConfig struct {
	Uploads     *UploadHandler
	Content     *ContentHandler
	Public      *PublicHandler
	TokenAuth   *jwtauth.JWTAuth
	Environment string
}

// NewRouter assembles the full HTTP surface. Owner routes sit behind JWT
// verification; public routes are open.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(10 * time.Minute))

	// CORS for development
	if cfg.Environment == "development" {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Access-Control-Allow-Origin", "*")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

				if r.Method == "OPTIONS" {
					w.WriteHeader(http.StatusOK)
					return
				}

				next.ServeHTTP(w, r)
			})
		})
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(jwtauth.Verifier(cfg.TokenAuth))
		r.Use(jwtauth.Authenticator)

		r.Mount("/uploads", cfg.Uploads.Routes())
		r.Mount("/videos", cfg.Content.Routes())
	})

	r.Mount("/public/videos", cfg.Public.Routes())

	return r
}
