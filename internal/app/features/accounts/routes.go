// internal/app/features/accounts/routes.go
package accounts

import (
	"github.com/dalemusser/stratarecruit/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes is mounted under /accounts.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Get("/", h.ServeList)
	r.Post("/", h.HandleCreate)
	r.Put("/{id}/profile", h.HandleUpdateProfile)
	r.Put("/{id}/status", h.HandleStatus)
	return r
}
