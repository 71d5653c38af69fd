// internal/app/features/consents/routes.go
package consents

import (
	"github.com/go-chi/chi/v5"

	"github.com/peterdrier/volunteerhub/internal/app/system/auth"
)

// Routes returns a subrouter for the consent ledger. Everything here
// operates on the signed-in user's own records.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireSignedIn)

	r.Post("/", h.ServeRecord)
	r.Get("/", h.ServeList)
	r.Get("/required", h.ServeRequired)

	return r
}
