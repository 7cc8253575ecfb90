package handlers

import (
	"os"

	"github.com/go-chi/chi"
	"github.com/go-chi/jwtauth"
	log "github.com/sirupsen/logrus"
)

func (h *Handler) SetRoutes(r *chi.Mux) {
	r.Get("/health", h.HealthHandler)

	r.Route("/api/{module}", func(r chi.Router) {

		// public card routes for the frontend
		r.Get("/cards", h.ListCards)
		r.Post("/cards", h.CreateCard)
		r.Put("/cards/{cardID}", h.UpdateCard)
		r.Delete("/cards/{cardID}", h.DeleteCard)

		// destructive routes, token-guarded when a secret is configured
		r.Group(func(r chi.Router) {
			if h.tokenAuth != nil {
				r.Use(jwtauth.Verifier(h.tokenAuth))
				r.Use(jwtauth.Authenticator)
			}

			r.Post("/reset", h.ResetCards)
			r.Post("/import", h.ImportCards)
		})
	})
}

func (h *Handler) InitAuth() {
	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		log.Warn("JWT_SECRET_KEY not set, reset and import routes are unprotected")
		return
	}
	h.tokenAuth = jwtauth.New("HS256", []byte(jwtKey), nil)
}
