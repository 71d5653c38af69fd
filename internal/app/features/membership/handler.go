package membership

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/peterdrier/volunteerhub/internal/app/compliance"
	"github.com/peterdrier/volunteerhub/internal/app/features/shared/respond"
	"github.com/peterdrier/volunteerhub/internal/app/system/auth"
	"github.com/peterdrier/volunteerhub/internal/app/system/timeouts"
)

// Handler serves compliance status lookups: the caller's own status and
// snapshot, plus the batch report forms used by leads and the board.
type Handler struct {
	Resolver *compliance.Resolver
	Log      *zap.Logger
}

func NewHandler(resolver *compliance.Resolver, logger *zap.Logger) *Handler {
	return &Handler{Resolver: resolver, Log: logger}
}

// currentUserID extracts the signed-in user's ObjectID.
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

// ServeStatus handles GET /membership/status.
func (h *Handler) ServeStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	h.writeStatus(w, r, userID)
}

// ServeUserStatus handles GET /membership/users/{userID}/status.
func (h *Handler) ServeUserStatus(w http.ResponseWriter, r *http.Request) {
	userID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "userID"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid user id")
		return
	}
	h.writeStatus(w, r, userID)
}

func (h *Handler) writeStatus(w http.ResponseWriter, r *http.Request, userID primitive.ObjectID) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	status, err := h.Resolver.Status(ctx, userID, time.Now().UTC())
	if err != nil {
		h.Log.Error("status resolution failed",
			zap.String("user_id", userID.Hex()),
			zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{
		"user_id": userID.Hex(),
		"status":  status,
	})
}

// ServeSnapshot handles GET /membership/snapshot.
func (h *Handler) ServeSnapshot(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	snap, err := h.Resolver.Snapshot(ctx, userID, time.Now().UTC())
	if err != nil {
		h.Log.Error("snapshot failed",
			zap.String("user_id", userID.Hex()),
			zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	respond.JSON(w, http.StatusOK, snap)
}

type consentReportRequest struct {
	TeamID  string   `json:"team_id"`
	UserIDs []string `json:"user_ids"`
}

// ServeConsentReport handles POST /membership/reports/consents: which of
// the given users hold every currently required consent for the team.
func (h *Handler) ServeConsentReport(w http.ResponseWriter, r *http.Request) {
	var req consentReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	teamID, err := primitive.ObjectIDFromHex(req.TeamID)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid team id")
		return
	}
	userIDs, err := parseIDs(req.UserIDs)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid user id list")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "consent report")
	defer cancel()

	compliant, err := h.Resolver.UsersWithAllRequiredConsents(ctx, userIDs, teamID, time.Now().UTC())
	if err != nil {
		h.Log.Error("consent report failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	respond.JSON(w, http.StatusOK, map[string][]string{"compliant_user_ids": hexSet(compliant)})
}

type userListRequest struct {
	UserIDs []string `json:"user_ids"`
}

// ServeExpiredReport handles POST /membership/reports/expired: which of
// the given users are past a consent grace deadline.
func (h *Handler) ServeExpiredReport(w http.ResponseWriter, r *http.Request) {
	var req userListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	userIDs, err := parseIDs(req.UserIDs)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid user id list")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "expired-consent report")
	defer cancel()

	expired, err := h.Resolver.UsersWithAnyExpiredConsents(ctx, userIDs, time.Now().UTC())
	if err != nil {
		h.Log.Error("expired-consent report failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	respond.JSON(w, http.StatusOK, map[string][]string{"expired_user_ids": hexSet(expired)})
}

// ServeStatusReport handles POST /membership/reports/statuses: computed
// status for each of the given users.
func (h *Handler) ServeStatusReport(w http.ResponseWriter, r *http.Request) {
	var req userListRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	userIDs, err := parseIDs(req.UserIDs)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid user id list")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Batch(), h.Log, "status report")
	defer cancel()

	statuses, err := h.Resolver.StatusesForUsers(ctx, userIDs, time.Now().UTC())
	if err != nil {
		h.Log.Error("status report failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make(map[string]string, len(statuses))
	for id, status := range statuses {
		out[id.Hex()] = status
	}
	respond.JSON(w, http.StatusOK, map[string]any{"statuses": out})
}

func parseIDs(hexes []string) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(hexes))
	for _, h := range hexes {
		id, err := primitive.ObjectIDFromHex(h)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func hexSet(set map[primitive.ObjectID]struct{}) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id.Hex())
	}
	return out
}
