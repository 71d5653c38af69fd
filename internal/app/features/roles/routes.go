// internal/app/features/roles/routes.go
package roles

import (
	"github.com/go-chi/chi/v5"

	"github.com/peterdrier/volunteerhub/internal/app/system/auth"
	"github.com/peterdrier/volunteerhub/internal/domain/models"
)

// Routes returns a subrouter for role grant administration. Board only.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Use(sm.RequireRole(models.RoleBoard))

	r.Post("/", h.ServeGrant)
	r.Post("/{assignmentID}/end", h.ServeEnd)
	r.Get("/users/{userID}", h.ServeListForUser)

	return r
}
