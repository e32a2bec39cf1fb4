// internal/app/features/reports/routes.go
package reports

import (
	"github.com/dalemusser/stratarecruit/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(rr chi.Router) {
		rr.Use(sm.RequireSignedIn)
		// Superuser gating of the audit report is enforced inside the handler.
		rr.Get("/{kind}", h.ServeReport)
	})

	return r
}
