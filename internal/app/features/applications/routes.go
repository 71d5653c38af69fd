// internal/app/features/applications/routes.go
package applications

import (
	"github.com/go-chi/chi/v5"

	"github.com/peterdrier/volunteerhub/internal/app/system/auth"
	"github.com/peterdrier/volunteerhub/internal/domain/models"
)

// Routes returns a subrouter for the application lifecycle. Submission
// and withdrawal belong to the applicant; voting and resolution are
// board-only.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Post("/", h.ServeSubmit)
	r.Get("/{applicationID}", h.ServeGet)
	r.Post("/{applicationID}/withdraw", h.ServeWithdraw)

	r.Group(func(r chi.Router) {
		r.Use(sm.RequireRole(models.RoleBoard))
		r.Get("/", h.ServeList)
		r.Post("/{applicationID}/votes", h.ServeVote)
		r.Get("/{applicationID}/votes", h.ServeTally)
		r.Post("/{applicationID}/approve", h.ServeApprove)
		r.Post("/{applicationID}/reject", h.ServeReject)
	})

	return r
}
