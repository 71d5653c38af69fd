package logout

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/peterdrier/volunteerhub/internal/app/features/shared/respond"
	"github.com/peterdrier/volunteerhub/internal/app/system/auth"
)

type Handler struct {
	SessionMgr *auth.SessionManager
	Log        *zap.Logger
}

func NewHandler(sm *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{SessionMgr: sm, Log: logger}
}

// Serve handles POST /logout.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok {
		h.Log.Info("user signed out", zap.String("user_id", u.ID))
	}
	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Error("session clear failed", zap.Error(err))
	}
	respond.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}
