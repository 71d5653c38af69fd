package roles

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/peterdrier/volunteerhub/internal/app/features/shared/respond"
	"github.com/peterdrier/volunteerhub/internal/app/store/audit"
	rolestore "github.com/peterdrier/volunteerhub/internal/app/store/roles"
	"github.com/peterdrier/volunteerhub/internal/app/system/auditlog"
	"github.com/peterdrier/volunteerhub/internal/app/system/auth"
	"github.com/peterdrier/volunteerhub/internal/app/system/inputval"
	"github.com/peterdrier/volunteerhub/internal/app/system/normalize"
	"github.com/peterdrier/volunteerhub/internal/app/system/timeouts"
	"github.com/peterdrier/volunteerhub/internal/domain/models"
)

// Handler serves role grant administration. Granting and ending role
// assignments is board-only.
type Handler struct {
	Roles    *rolestore.Store
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(roles *rolestore.Store, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Roles: roles, AuditLog: auditLog, Log: logger}
}

type grantRequest struct {
	UserID    string `json:"user_id" validate:"required,objectid" label:"User ID"`
	Role      string `json:"role" validate:"required,max=40" label:"Role"`
	TeamID    string `json:"team_id" validate:"objectid" label:"Team ID"`
	ValidFrom string `json:"valid_from"` // RFC 3339, defaults to now
	ValidTo   string `json:"valid_to"`   // RFC 3339, optional
}

// ServeGrant handles POST /roles.
func (h *Handler) ServeGrant(w http.ResponseWriter, r *http.Request) {
	var req grantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if result := inputval.Validate(req); result.HasErrors() {
		respond.Error(w, http.StatusUnprocessableEntity, result.First())
		return
	}

	userID, _ := primitive.ObjectIDFromHex(req.UserID)

	assignment := models.RoleAssignment{
		UserID:    userID,
		Role:      normalize.Role(req.Role),
		ValidFrom: time.Now().UTC(),
	}
	if req.TeamID != "" {
		teamID, _ := primitive.ObjectIDFromHex(req.TeamID)
		assignment.TeamID = &teamID
	}
	if req.ValidFrom != "" {
		from, err := time.Parse(time.RFC3339, req.ValidFrom)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, "valid_from must be RFC 3339")
			return
		}
		assignment.ValidFrom = from
	}
	if req.ValidTo != "" {
		to, err := time.Parse(time.RFC3339, req.ValidTo)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, "valid_to must be RFC 3339")
			return
		}
		assignment.ValidTo = &to
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	id, err := h.Roles.Add(ctx, assignment)
	if err != nil {
		switch {
		case errors.Is(err, rolestore.ErrInvalidWindow):
			respond.Error(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, rolestore.ErrOverlappingWindow):
			respond.Error(w, http.StatusConflict, err.Error())
		default:
			h.Log.Error("role grant failed", zap.Error(err))
			respond.Error(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	h.recordAudit(r, audit.ActionRoleGranted, id, "granted role "+assignment.Role)
	respond.JSON(w, http.StatusCreated, map[string]string{"id": id.Hex()})
}

// ServeEnd handles POST /roles/{assignmentID}/end. The grant's window is
// closed at now; the record itself is kept.
func (h *Handler) ServeEnd(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "assignmentID"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid assignment id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Roles.End(ctx, id, time.Now().UTC()); err != nil {
		switch {
		case errors.Is(err, rolestore.ErrNotFound):
			respond.Error(w, http.StatusNotFound, "role assignment not found")
		case errors.Is(err, rolestore.ErrInvalidWindow):
			respond.Error(w, http.StatusConflict, "assignment already ended before now")
		default:
			h.Log.Error("role end failed", zap.Error(err))
			respond.Error(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	h.recordAudit(r, audit.ActionRoleEnded, id, "ended role assignment")
	respond.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ServeListForUser handles GET /roles/users/{userID}.
func (h *Handler) ServeListForUser(w http.ResponseWriter, r *http.Request) {
	userID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	active, err := h.Roles.ActiveByUser(ctx, userID, time.Now().UTC())
	if err != nil {
		h.Log.Error("role list failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"assignments": active})
}

func (h *Handler) recordAudit(r *http.Request, action string, entityID primitive.ObjectID, description string) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return
	}
	actorID, _ := primitive.ObjectIDFromHex(u.ID)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	h.AuditLog.Record(ctx, audit.Entry{
		Action:      action,
		EntityType:  audit.EntityRole,
		EntityID:    entityID,
		Description: description,
		ActorID:     &actorID,
		ActorName:   u.Name,
		Timestamp:   time.Now().UTC(),
	})
}
