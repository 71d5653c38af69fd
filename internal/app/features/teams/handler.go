package teams

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
	teammemberstore "github.com/peterdrier/volunteerhub/internal/app/store/teammembers"
	teamstore "github.com/peterdrier/volunteerhub/internal/app/store/teams"
	"github.com/peterdrier/volunteerhub/internal/app/system/auditlog"
	"github.com/peterdrier/volunteerhub/internal/app/system/auth"
	"github.com/peterdrier/volunteerhub/internal/app/system/inputval"
	"github.com/peterdrier/volunteerhub/internal/app/system/normalize"
	"github.com/peterdrier/volunteerhub/internal/app/system/timeouts"
	"github.com/peterdrier/volunteerhub/internal/domain/models"
)

// Handler serves team directory and membership endpoints. Users join and
// leave ordinary teams themselves; system teams are managed by tier sync
// and role grants, so direct joins to them are refused.
type Handler struct {
	Teams    *teamstore.Store
	Members  *teammemberstore.Store
	AuditLog *auditlog.Logger
	Log      *zap.Logger
}

func NewHandler(teams *teamstore.Store, members *teammemberstore.Store, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{Teams: teams, Members: members, AuditLog: auditLog, Log: logger}
}

func currentUserID(r *http.Request) (primitive.ObjectID, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

// ServeList handles GET /teams.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	all, err := h.Teams.All(ctx)
	if err != nil {
		h.Log.Error("team list failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"teams": all})
}

type createRequest struct {
	Name        string `json:"name" validate:"required,max=120" label:"Name"`
	Description string `json:"description" validate:"max=2000" label:"Description"`
}

// ServeCreate handles POST /teams. User-created teams never carry a
// system classification.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if result := inputval.Validate(req); result.HasErrors() {
		respond.Error(w, http.StatusUnprocessableEntity, result.First())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	team, err := h.Teams.Create(ctx, models.Team{
		Name:        normalize.Name(req.Name),
		Description: req.Description,
		SystemType:  models.SystemTeamNone,
	})
	if err != nil {
		h.Log.Error("team create failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	respond.JSON(w, http.StatusCreated, team)
}

func (h *Handler) loadTeam(w http.ResponseWriter, r *http.Request) (models.Team, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "teamID"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid team id")
		return models.Team{}, false
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	team, err := h.Teams.ByID(ctx, id)
	if errors.Is(err, teamstore.ErrNotFound) {
		respond.Error(w, http.StatusNotFound, "team not found")
		return models.Team{}, false
	}
	if err != nil {
		h.Log.Error("team load failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal error")
		return models.Team{}, false
	}
	return team, true
}

// ServeJoin handles POST /teams/{teamID}/join.
func (h *Handler) ServeJoin(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	team, ok := h.loadTeam(w, r)
	if !ok {
		return
	}
	if team.IsSystem() {
		respond.Error(w, http.StatusForbidden, "system team membership is managed automatically")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	now := time.Now().UTC()
	if err := h.Members.Join(ctx, team.ID, userID, now); err != nil {
		if errors.Is(err, teammemberstore.ErrAlreadyMember) {
			respond.Error(w, http.StatusConflict, "already a member of this team")
			return
		}
		h.Log.Error("team join failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	u, _ := auth.CurrentUser(r)
	h.AuditLog.Record(ctx, audit.Entry{
		Action:      audit.ActionTeamJoined,
		EntityType:  audit.EntityTeam,
		EntityID:    team.ID,
		Description: "joined team " + team.Name,
		ActorID:     &userID,
		ActorName:   u.Name,
		Timestamp:   now,
	})
	respond.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ServeLeave handles POST /teams/{teamID}/leave. The membership record is
// closed, not deleted, so interval history survives.
func (h *Handler) ServeLeave(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	team, ok := h.loadTeam(w, r)
	if !ok {
		return
	}
	if team.IsSystem() {
		respond.Error(w, http.StatusForbidden, "system team membership is managed automatically")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	now := time.Now().UTC()
	if err := h.Members.Leave(ctx, team.ID, userID, now); err != nil {
		if errors.Is(err, teammemberstore.ErrNotMember) {
			respond.Error(w, http.StatusConflict, "no active membership in this team")
			return
		}
		h.Log.Error("team leave failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	u, _ := auth.CurrentUser(r)
	h.AuditLog.Record(ctx, audit.Entry{
		Action:      audit.ActionTeamLeft,
		EntityType:  audit.EntityTeam,
		EntityID:    team.ID,
		Description: "left team " + team.Name,
		ActorID:     &userID,
		ActorName:   u.Name,
		Timestamp:   now,
	})
	respond.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ServeMembers handles GET /teams/{teamID}/members.
func (h *Handler) ServeMembers(w http.ResponseWriter, r *http.Request) {
	team, ok := h.loadTeam(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ids, err := h.Members.ActiveUserIDsForTeam(ctx, team.ID, time.Now().UTC())
	if err != nil {
		h.Log.Error("member list failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.Hex())
	}
	respond.JSON(w, http.StatusOK, map[string]any{"member_user_ids": out})
}
