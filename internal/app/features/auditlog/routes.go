package auditlog

import (
	"github.com/go-chi/chi/v5"

	"github.com/peterdrier/volunteerhub/internal/app/system/auth"
	"github.com/peterdrier/volunteerhub/internal/domain/models"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)
	r.Use(sm.RequireRole(models.RoleBoard))
	r.Get("/", h.ServeList)
	return r
}
