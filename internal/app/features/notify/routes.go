// internal/app/features/notify/routes.go
package notify

import (
	"github.com/dalemusser/stratarecruit/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Group(func(rr chi.Router) {
		rr.Use(sm.RequireSignedIn)
		rr.Post("/", h.HandleSend)
	})
	return r
}
