// internal/app/features/teams/routes.go
package teams

import (
	"github.com/go-chi/chi/v5"

	"github.com/peterdrier/volunteerhub/internal/app/system/auth"
	"github.com/peterdrier/volunteerhub/internal/domain/models"
)

// Routes returns a subrouter for teams. Creation is lead/board; member
// rosters are for leads and the board; join/leave is any signed-in user.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Get("/", h.ServeList)
	r.Post("/{teamID}/join", h.ServeJoin)
	r.Post("/{teamID}/leave", h.ServeLeave)

	r.Group(func(r chi.Router) {
		r.Use(sm.RequireRole(models.RoleLead, models.RoleBoard))
		r.Post("/", h.ServeCreate)
		r.Get("/{teamID}/members", h.ServeMembers)
	})

	return r
}
