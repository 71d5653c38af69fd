package consents

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/peterdrier/volunteerhub/internal/app/compliance"
	"github.com/peterdrier/volunteerhub/internal/app/features/shared/respond"
	"github.com/peterdrier/volunteerhub/internal/app/store/audit"
	consentstore "github.com/peterdrier/volunteerhub/internal/app/store/consents"
	documentstore "github.com/peterdrier/volunteerhub/internal/app/store/documents"
	"github.com/peterdrier/volunteerhub/internal/app/system/auditlog"
	"github.com/peterdrier/volunteerhub/internal/app/system/auth"
	"github.com/peterdrier/volunteerhub/internal/app/system/inputval"
	"github.com/peterdrier/volunteerhub/internal/app/system/timeouts"
)

// Handler serves the consent ledger: recording a user's own consent to a
// document version and reading back what is required and held.
type Handler struct {
	Consents  *consentstore.Store
	Documents *documentstore.Store
	Resolver  *compliance.Resolver
	AuditLog  *auditlog.Logger
	Log       *zap.Logger
}

func NewHandler(consents *consentstore.Store, docs *documentstore.Store, resolver *compliance.Resolver, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Consents:  consents,
		Documents: docs,
		Resolver:  resolver,
		AuditLog:  auditLog,
		Log:       logger,
	}
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

type recordRequest struct {
	VersionID string `json:"version_id" validate:"required,objectid" label:"Version ID"`
}

// ServeRecord handles POST /consents. Consent is always recorded for the
// signed-in user; there is no consent-on-behalf.
func (h *Handler) ServeRecord(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req recordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if result := inputval.Validate(req); result.HasErrors() {
		respond.Error(w, http.StatusUnprocessableEntity, result.First())
		return
	}
	versionID, _ := primitive.ObjectIDFromHex(req.VersionID)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	version, err := h.Documents.VersionByID(ctx, versionID)
	if errors.Is(err, documentstore.ErrNotFound) {
		respond.Error(w, http.StatusNotFound, "document version not found")
		return
	}
	if err != nil {
		h.Log.Error("version lookup failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := h.Consents.Record(ctx, userID, versionID, true); err != nil {
		if errors.Is(err, consentstore.ErrAlreadyRecorded) {
			respond.Error(w, http.StatusConflict, "consent already recorded for this version")
			return
		}
		h.Log.Error("consent record failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	u, _ := auth.CurrentUser(r)
	h.AuditLog.Record(ctx, audit.Entry{
		Action:      audit.ActionConsentRecorded,
		EntityType:  audit.EntityConsent,
		EntityID:    versionID,
		Description: "consent recorded for document version " + version.Label,
		ActorID:     &userID,
		ActorName:   u.Name,
		Timestamp:   time.Now().UTC(),
	})

	respond.JSON(w, http.StatusCreated, map[string]bool{"ok": true})
}

// ServeList handles GET /consents: the caller's full consent history.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	records, err := h.Consents.ByUser(ctx, userID)
	if err != nil {
		h.Log.Error("consent list failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"consents": records})
}

// requiredItem is one row of the required-consent checklist.
type requiredItem struct {
	DocumentID    string    `json:"document_id"`
	DocumentTitle string    `json:"document_title"`
	VersionID     string    `json:"version_id"`
	VersionLabel  string    `json:"version_label"`
	EffectiveFrom time.Time `json:"effective_from"`
	Deadline      time.Time `json:"deadline"`
	Consented     bool      `json:"consented"`
}

// ServeRequired handles GET /consents/required: every currently required
// document version in the caller's compliance scope, flagged with whether
// consent is already on file.
func (h *Handler) ServeRequired(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	now := time.Now().UTC()

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	required, err := h.Resolver.RequiredVersionsForUser(ctx, userID, now)
	if err != nil {
		h.Log.Error("required versions lookup failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	consented, err := h.Consents.VersionIDsByUser(ctx, userID)
	if err != nil {
		h.Log.Error("consent lookup failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	items := make([]requiredItem, 0, len(required))
	for _, rv := range required {
		_, has := consented[rv.Version.ID]
		items = append(items, requiredItem{
			DocumentID:    rv.Document.ID.Hex(),
			DocumentTitle: rv.Document.Title,
			VersionID:     rv.Version.ID.Hex(),
			VersionLabel:  rv.Version.Label,
			EffectiveFrom: rv.Version.EffectiveFrom,
			Deadline:      rv.Version.ConsentDeadline(rv.Document.GracePeriodDays),
			Consented:     has,
		})
	}
	respond.JSON(w, http.StatusOK, map[string]any{"required": items})
}
