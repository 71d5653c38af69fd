package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/peterdrier/volunteerhub/internal/app/features/shared/respond"
	"github.com/peterdrier/volunteerhub/internal/app/store/audit"
	"github.com/peterdrier/volunteerhub/internal/app/system/normalize"
	"github.com/peterdrier/volunteerhub/internal/app/system/timeouts"
)

// Handler serves read access to the audit trail. Board only.
type Handler struct {
	Audit *audit.Store
	Log   *zap.Logger
}

func NewHandler(store *audit.Store, logger *zap.Logger) *Handler {
	return &Handler{Audit: store, Log: logger}
}

// ServeList handles GET /audit with optional entity_type, entity_id,
// actor_id, action and limit query parameters.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := audit.QueryFilter{
		EntityType: normalize.QueryParam(q.Get("entity_type")),
		Action:     normalize.QueryParam(q.Get("action")),
	}
	if raw := normalize.QueryParam(q.Get("entity_id")); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid entity_id")
			return
		}
		filter.EntityID = &id
	}
	if raw := normalize.QueryParam(q.Get("actor_id")); raw != "" {
		id, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, "invalid actor_id")
			return
		}
		filter.ActorID = &id
	}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 1 || n > 1000 {
			respond.Error(w, http.StatusBadRequest, "limit must be 1-1000")
			return
		}
		filter.Limit = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	entries, err := h.Audit.List(ctx, filter)
	if err != nil {
		h.Log.Error("audit list failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"entries": entries})
}
