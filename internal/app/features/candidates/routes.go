// internal/app/features/candidates/routes.go
package candidates

import (
	"github.com/dalemusser/stratarecruit/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes is mounted under /candidates. POST /apply is public.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Post("/apply", h.HandleApply)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Get("/", h.ServeList)
		pr.Post("/", h.HandleRegister)
		pr.Get("/lookup", h.ServeLookup)
		pr.Get("/{id}", h.ServeDetail)
		pr.Get("/{id}/history", h.ServeHistory)
		pr.Put("/{id}/checklist", h.HandleChecklist)
		pr.Put("/{id}/notes", h.HandleNotes)
		pr.Post("/{id}/{action}", h.HandleTransition)
	})
	return r
}
