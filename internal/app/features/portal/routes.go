// internal/app/features/portal/routes.go
package portal

import "github.com/go-chi/chi/v5"

// Routes is mounted under /portal.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/login", h.HandleLogin)
	r.Get("/status", h.ServeStatus)
	r.Post("/logout", h.HandleLogout)
	return r
}
