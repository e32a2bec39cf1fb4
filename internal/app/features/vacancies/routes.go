// internal/app/features/vacancies/routes.go
package vacancies

import (
	"github.com/dalemusser/stratarecruit/internal/app/system/authz"
	"github.com/go-chi/chi/v5"
)

// Routes is mounted under /vacancies. Only /open is public.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/open", h.ServeOpen)

	r.Group(func(pr chi.Router) {
		pr.Use(authz.RequireNationalOrSuperuser)
		pr.Get("/", h.ServeList)
		pr.Post("/", h.HandleCreate)
		pr.Get("/{id}", h.ServeGet)
		pr.Put("/{id}", h.HandleUpdate)
		pr.Delete("/{id}", h.HandleDelete)
	})
	return r
}
