package login

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/peterdrier/volunteerhub/internal/app/features/shared/respond"
	rolestore "github.com/peterdrier/volunteerhub/internal/app/store/roles"
	userstore "github.com/peterdrier/volunteerhub/internal/app/store/users"
	"github.com/peterdrier/volunteerhub/internal/app/system/auth"
	"github.com/peterdrier/volunteerhub/internal/app/system/inputval"
	"github.com/peterdrier/volunteerhub/internal/app/system/normalize"
	"github.com/peterdrier/volunteerhub/internal/app/system/ratelimit"
	"github.com/peterdrier/volunteerhub/internal/app/system/timeouts"
	"github.com/peterdrier/volunteerhub/internal/domain/models"
)

type Handler struct {
	Users      *userstore.Store
	Roles      *rolestore.Store
	SessionMgr *auth.SessionManager
	Limiter    *ratelimit.LoginLimiter
	Log        *zap.Logger
}

func NewHandler(userStore *userstore.Store, roleStore *rolestore.Store, sm *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{
		Users:      userStore,
		Roles:      roleStore,
		SessionMgr: sm,
		Limiter:    ratelimit.NewLoginLimiter(),
		Log:        logger,
	}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email" label:"Email"`
	Password string `json:"password" validate:"required" label:"Password"`
}

type loginResponse struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Status   string `json:"status"`
}

// Serve handles POST /login.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if result := inputval.Validate(req); result.HasErrors() {
		respond.Error(w, http.StatusUnprocessableEntity, result.First())
		return
	}

	email := normalize.Email(req.Email)

	if ok, reason := h.Limiter.Check(r, email); !ok {
		h.Log.Warn("login rate limited",
			zap.String("email", email),
			zap.String("reason", reason))
		respond.Error(w, http.StatusTooManyRequests, "too many login attempts, try again later")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			respond.Error(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		h.Log.Error("login lookup failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	if !userstore.CheckPassword(u, req.Password) {
		respond.Error(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	role := h.sessionRole(r, u)

	if err := h.SessionMgr.SignIn(w, r, auth.SessionUser{
		ID:    u.ID.Hex(),
		Name:  u.FullName,
		Email: u.Email,
		Role:  role,
	}); err != nil {
		h.Log.Error("session write failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.Limiter.ResetEmail(email)

	h.Log.Info("user signed in",
		zap.String("user_id", u.ID.Hex()),
		zap.String("role", role))

	respond.JSON(w, http.StatusOK, loginResponse{
		ID:       u.ID.Hex(),
		FullName: u.FullName,
		Email:    u.Email,
		Role:     role,
		Status:   u.Status,
	})
}

// sessionRole picks the strongest currently active role for the session.
// Role grants can lapse mid-session; the session role is only a routing
// hint, enforcement always re-reads grants where it matters.
func (h *Handler) sessionRole(r *http.Request, u models.User) string {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	assignments, err := h.Roles.ActiveByUser(ctx, u.ID, time.Now().UTC())
	if err != nil {
		h.Log.Warn("could not load role assignments at login",
			zap.String("user_id", u.ID.Hex()),
			zap.Error(err))
		return models.RoleVolunteer
	}

	role := models.RoleVolunteer
	for _, a := range assignments {
		switch a.Role {
		case models.RoleBoard:
			return models.RoleBoard
		case models.RoleLead:
			role = models.RoleLead
		}
	}
	return role
}
