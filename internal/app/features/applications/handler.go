package applications

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/peterdrier/volunteerhub/internal/app/decision"
	"github.com/peterdrier/volunteerhub/internal/app/features/shared/respond"
	applicationstore "github.com/peterdrier/volunteerhub/internal/app/store/applications"
	"github.com/peterdrier/volunteerhub/internal/app/store/audit"
	votestore "github.com/peterdrier/volunteerhub/internal/app/store/votes"
	"github.com/peterdrier/volunteerhub/internal/app/system/auditlog"
	"github.com/peterdrier/volunteerhub/internal/app/system/auth"
	"github.com/peterdrier/volunteerhub/internal/app/system/dispatch"
	"github.com/peterdrier/volunteerhub/internal/app/system/htmlsanitize"
	"github.com/peterdrier/volunteerhub/internal/app/system/inputval"
	"github.com/peterdrier/volunteerhub/internal/app/system/normalize"
	"github.com/peterdrier/volunteerhub/internal/app/system/timeouts"
	"github.com/peterdrier/volunteerhub/internal/domain/models"
)

// Handler serves the membership application lifecycle: submission, board
// voting, and the approve/reject/withdraw transitions.
type Handler struct {
	Apps       *applicationstore.Store
	Votes      *votestore.Store
	Machine    *decision.StateMachine
	Dispatcher *dispatch.Dispatcher
	AuditLog   *auditlog.Logger
	Log        *zap.Logger
}

func NewHandler(apps *applicationstore.Store, voteStore *votestore.Store, machine *decision.StateMachine, dispatcher *dispatch.Dispatcher, auditLog *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Apps:       apps,
		Votes:      voteStore,
		Machine:    machine,
		Dispatcher: dispatcher,
		AuditLog:   auditLog,
		Log:        logger,
	}
}

func sessionActor(r *http.Request) (decision.Actor, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return decision.Actor{}, false
	}
	id, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		return decision.Actor{}, false
	}
	return decision.Actor{ID: id, Name: u.Name}, true
}

type submitRequest struct {
	RequestedTier string `json:"requested_tier" validate:"required,max=40" label:"Requested tier"`
	Motivation    string `json:"motivation" validate:"max=20000" label:"Motivation"`
}

// ServeSubmit handles POST /applications.
func (h *Handler) ServeSubmit(w http.ResponseWriter, r *http.Request) {
	actor, ok := sessionActor(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if result := inputval.Validate(req); result.HasErrors() {
		respond.Error(w, http.StatusUnprocessableEntity, result.First())
		return
	}

	tier := normalize.Tier(req.RequestedTier)
	motivation := htmlsanitize.Sanitize(req.Motivation)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	app, err := h.Apps.Create(ctx, actor.ID, tier, motivation)
	if err != nil {
		h.Log.Error("application create failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.AuditLog.Record(ctx, audit.Entry{
		Action:      audit.ActionApplicationSubmitted,
		EntityType:  audit.EntityApplication,
		EntityID:    app.ID,
		Description: "membership application submitted for tier " + tier,
		ActorID:     &actor.ID,
		ActorName:   actor.Name,
		Timestamp:   time.Now().UTC(),
	})

	respond.JSON(w, http.StatusCreated, app)
}

// ServeList handles GET /applications?status=submitted.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	status := normalize.Status(r.URL.Query().Get("status"))
	if status == "" {
		status = models.ApplicationSubmitted
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	apps, err := h.Apps.ListByStatus(ctx, status)
	if err != nil {
		h.Log.Error("application list failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"applications": apps})
}

// ServeGet handles GET /applications/{applicationID}. Owners can read
// their own application; anyone else needs a board session.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "applicationID"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid application id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	app, err := h.Apps.ByID(ctx, id)
	if errors.Is(err, applicationstore.ErrNotFound) {
		respond.Error(w, http.StatusNotFound, "application not found")
		return
	}
	if err != nil {
		h.Log.Error("application load failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	u, _ := auth.CurrentUser(r)
	if u.Role != models.RoleBoard && app.UserID.Hex() != u.ID {
		respond.Error(w, http.StatusForbidden, "forbidden")
		return
	}
	respond.JSON(w, http.StatusOK, app)
}

type voteRequest struct {
	Choice string `json:"choice" validate:"required,votechoice" label:"Choice"`
	Note   string `json:"note" validate:"max=2000" label:"Note"`
}

// ServeVote handles POST /applications/{applicationID}/votes. A repeat
// vote by the same board member replaces the earlier ballot.
func (h *Handler) ServeVote(w http.ResponseWriter, r *http.Request) {
	actor, ok := sessionActor(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "applicationID"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid application id")
		return
	}

	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if result := inputval.Validate(req); result.HasErrors() {
		respond.Error(w, http.StatusUnprocessableEntity, result.First())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	app, err := h.Apps.ByID(ctx, id)
	if errors.Is(err, applicationstore.ErrNotFound) {
		respond.Error(w, http.StatusNotFound, "application not found")
		return
	}
	if err != nil {
		h.Log.Error("application load failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	if app.Resolved() {
		respond.Error(w, http.StatusConflict, "application is already resolved")
		return
	}

	choice := normalize.Status(req.Choice)
	note := htmlsanitize.Sanitize(req.Note)
	if err := h.Votes.Cast(ctx, id, actor.ID, choice, note); err != nil {
		if errors.Is(err, votestore.ErrBadChoice) {
			respond.Error(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		h.Log.Error("vote cast failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ServeTally handles GET /applications/{applicationID}/votes.
func (h *Handler) ServeTally(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "applicationID"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid application id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	ballots, err := h.Votes.ListByApplication(ctx, id)
	if err != nil {
		h.Log.Error("vote list failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	tally, err := h.Votes.Tally(ctx, id)
	if err != nil {
		h.Log.Error("vote tally failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{
		"votes": ballots,
		"tally": tally,
	})
}

type resolveRequest struct {
	Notes       string `json:"notes" validate:"max=10000" label:"Notes"`
	Reason      string `json:"reason" validate:"max=10000" label:"Reason"`
	MeetingDate string `json:"meeting_date"` // RFC 3339, optional
}

func (req *resolveRequest) meetingDate() (*time.Time, error) {
	if req.MeetingDate == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, req.MeetingDate)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ServeApprove handles POST /applications/{applicationID}/approve.
func (h *Handler) ServeApprove(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, func(ctx context.Context, id primitive.ObjectID, actor decision.Actor, req resolveRequest, meeting *time.Time) (decision.Result, error) {
		return h.Machine.Approve(ctx, id, actor, htmlsanitize.Sanitize(req.Notes), meeting)
	})
}

// ServeReject handles POST /applications/{applicationID}/reject.
func (h *Handler) ServeReject(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, func(ctx context.Context, id primitive.ObjectID, actor decision.Actor, req resolveRequest, meeting *time.Time) (decision.Result, error) {
		return h.Machine.Reject(ctx, id, actor, htmlsanitize.Sanitize(req.Reason), meeting)
	})
}

func (h *Handler) resolve(w http.ResponseWriter, r *http.Request, transition func(context.Context, primitive.ObjectID, decision.Actor, resolveRequest, *time.Time) (decision.Result, error)) {
	actor, ok := sessionActor(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "applicationID"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid application id")
		return
	}

	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if result := inputval.Validate(req); result.HasErrors() {
		respond.Error(w, http.StatusUnprocessableEntity, result.First())
		return
	}
	meeting, err := req.meetingDate()
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "meeting_date must be RFC 3339")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "resolve application")
	defer cancel()

	result, err := transition(ctx, id, actor, req, meeting)
	if err != nil {
		h.Log.Error("transition failed",
			zap.String("application_id", id.Hex()),
			zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.writeResult(w, result)
}

// ServeWithdraw handles POST /applications/{applicationID}/withdraw.
func (h *Handler) ServeWithdraw(w http.ResponseWriter, r *http.Request) {
	actor, ok := sessionActor(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "applicationID"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid application id")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "withdraw application")
	defer cancel()

	result, err := h.Machine.Withdraw(ctx, id, actor)
	if err != nil {
		h.Log.Error("withdraw failed",
			zap.String("application_id", id.Hex()),
			zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "internal error")
		return
	}
	h.writeResult(w, result)
}

// writeResult maps a transition result onto HTTP status codes and kicks
// off any follow-up intents. Intents run out-of-band; their failures are
// retried and logged by the dispatcher, never surfaced here.
func (h *Handler) writeResult(w http.ResponseWriter, result decision.Result) {
	if !result.OK {
		switch result.Code {
		case decision.CodeNotFound:
			respond.Error(w, http.StatusNotFound, "application not found")
		case decision.CodeInvalidStateTransition:
			respond.Error(w, http.StatusConflict, "application is not in a resolvable state")
		case decision.CodeConcurrencyConflict:
			respond.Error(w, http.StatusConflict, "application changed concurrently, reload and retry")
		case decision.CodeValidationFailure:
			respond.Error(w, http.StatusUnprocessableEntity, "invalid transition request")
		default:
			respond.Error(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	if len(result.Intents) > 0 {
		intents := result.Intents
		go func() {
			ctx, cancel := timeouts.WithTimeout(context.Background(), timeouts.Batch(), h.Log, "intent dispatch")
			defer cancel()
			_ = h.Dispatcher.Dispatch(ctx, intents)
		}()
	}

	respond.JSON(w, http.StatusOK, result)
}
