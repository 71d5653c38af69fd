// internal/app/features/membership/routes.go
package membership

import (
	"github.com/go-chi/chi/v5"

	"github.com/peterdrier/volunteerhub/internal/app/system/auth"
	"github.com/peterdrier/volunteerhub/internal/domain/models"
)

// Routes returns a subrouter for membership status endpoints. Own-status
// lookups need a session; the user-level and batch report forms are for
// leads and the board.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/status", h.ServeStatus)
	r.Get("/snapshot", h.ServeSnapshot)

	r.Group(func(r chi.Router) {
		r.Use(sm.RequireRole(models.RoleLead, models.RoleBoard))
		r.Get("/users/{userID}/status", h.ServeUserStatus)
		r.Post("/reports/consents", h.ServeConsentReport)
		r.Post("/reports/expired", h.ServeExpiredReport)
		r.Post("/reports/statuses", h.ServeStatusReport)
	})

	return r
}
