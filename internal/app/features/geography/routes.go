// internal/app/features/geography/routes.go
package geography

import "github.com/go-chi/chi/v5"

// Routes is mounted under /provinces.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeProvinces)
	r.Get("/{id}/districts", h.ServeDistricts)
	return r
}
