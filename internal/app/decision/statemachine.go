// internal/app/decision/statemachine.go

// Package decision governs the membership application lifecycle:
// Submitted -> Approved | Rejected | Withdrawn, all terminal. A transition
// validates the current state, applies the change through a conditional
// write, and returns follow-up intents for independent dispatch. It holds
// no lock and never retries: a lost optimistic-concurrency race surfaces as
// CodeConcurrencyConflict and the caller re-fetches and re-decides.
package decision

import (
	"context"
	"errors"
	"fmt"
	"time"

	applicationstore "github.com/peterdrier/volunteerhub/internal/app/store/applications"
	"github.com/peterdrier/volunteerhub/internal/app/store/audit"
	"github.com/peterdrier/volunteerhub/internal/app/system/auditlog"
	"github.com/peterdrier/volunteerhub/internal/app/system/metrics"
	"github.com/peterdrier/volunteerhub/internal/app/system/term"
	"github.com/peterdrier/volunteerhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ApplicationStore is the slice of the application store the state machine
// needs: a read and the conditional resolution write.
type ApplicationStore interface {
	ByID(ctx context.Context, id primitive.ObjectID) (models.MembershipApplication, error)
	ResolveSubmitted(ctx context.Context, id primitive.ObjectID, revision int64, res applicationstore.Resolution) error
}

// VoteStore erases ballots once an application is resolved.
type VoteStore interface {
	DeleteByApplication(ctx context.Context, applicationID primitive.ObjectID) (int64, error)
}

// UserStore receives the tier copy on approval.
type UserStore interface {
	SetMembershipTier(ctx context.Context, id primitive.ObjectID, tier string, termExpiresAt time.Time) error
}

// Actor identifies who drives a transition.
type Actor struct {
	ID   primitive.ObjectID
	Name string
}

// StateMachine applies application transitions. Stateless and safe for
// concurrent use; single-writer semantics per application come from the
// store's conditional write, not from anything held here.
type StateMachine struct {
	apps  ApplicationStore
	votes VoteStore
	users UserStore
	audit *auditlog.Logger
	log   *zap.Logger
	now   func() time.Time
}

// New creates a StateMachine. The audit logger may be nil in tests.
func New(apps ApplicationStore, votes VoteStore, users UserStore, auditLog *auditlog.Logger, logger *zap.Logger) *StateMachine {
	return &StateMachine{
		apps:  apps,
		votes: votes,
		users: users,
		audit: auditLog,
		log:   logger,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the clock. Tests only.
func (m *StateMachine) WithClock(now func() time.Time) *StateMachine {
	m.now = now
	return m
}

// Approve resolves a submitted application in the applicant's favor: status
// becomes "approved", the term expiry is computed from today, the requested
// tier is copied onto the user's profile, ballots are erased, and the
// notify + team-sync intents are returned for dispatch.
func (m *StateMachine) Approve(ctx context.Context, applicationID primitive.ObjectID, reviewer Actor, notes string, meetingDate *time.Time) (Result, error) {
	if reviewer.ID.IsZero() {
		return refused(CodeValidationFailure), nil
	}

	app, res, err := m.load(ctx, applicationID)
	if err != nil || !res.OK {
		return res, err
	}

	now := m.now()
	expiry := term.Expiry(now)
	resolution := applicationstore.Resolution{
		Status:        models.ApplicationApproved,
		ResolvedAt:    now,
		ReviewerID:    &reviewer.ID,
		Notes:         notes,
		MeetingDate:   meetingDate,
		TermExpiresAt: &expiry,
	}
	if r, err := m.commit(ctx, app, resolution); err != nil || !r.OK {
		return r, err
	}

	// Post-commit obligations. The transition is already durable; failures
	// here are logged and surfaced through monitoring, never rolled back.
	if err := m.users.SetMembershipTier(ctx, app.UserID, app.RequestedTier, expiry); err != nil {
		m.log.Error("tier copy after approval failed",
			zap.String("application_id", app.ID.Hex()),
			zap.String("user_id", app.UserID.Hex()),
			zap.Error(err))
	}
	m.eraseVotes(ctx, app.ID)
	m.audit.Record(ctx, audit.Entry{
		Action:      audit.ActionApplicationApproved,
		EntityType:  audit.EntityApplication,
		EntityID:    app.ID,
		Description: fmt.Sprintf("approved for tier %q, term expires %s", app.RequestedTier, expiry.Format("2006-01-02")),
		ActorID:     &reviewer.ID,
		ActorName:   reviewer.Name,
	})
	metrics.ApplicationsProcessed.WithLabelValues(models.ApplicationApproved).Inc()

	return Result{OK: true, Intents: []Intent{
		{Type: IntentNotifyUserApproved, UserID: app.UserID, ApplicationID: app.ID, Tier: app.RequestedTier},
		{Type: IntentSyncTeamMembershipForTier, UserID: app.UserID, ApplicationID: app.ID, Tier: app.RequestedTier},
	}}, nil
}

// Reject resolves a submitted application against the applicant. No term is
// computed and no tier is copied; vote erasure and history append behave as
// in Approve.
func (m *StateMachine) Reject(ctx context.Context, applicationID primitive.ObjectID, reviewer Actor, reason string, meetingDate *time.Time) (Result, error) {
	if reviewer.ID.IsZero() {
		return refused(CodeValidationFailure), nil
	}

	app, res, err := m.load(ctx, applicationID)
	if err != nil || !res.OK {
		return res, err
	}

	resolution := applicationstore.Resolution{
		Status:      models.ApplicationRejected,
		ResolvedAt:  m.now(),
		ReviewerID:  &reviewer.ID,
		Notes:       reason,
		MeetingDate: meetingDate,
	}
	if r, err := m.commit(ctx, app, resolution); err != nil || !r.OK {
		return r, err
	}

	m.eraseVotes(ctx, app.ID)
	m.audit.Record(ctx, audit.Entry{
		Action:      audit.ActionApplicationRejected,
		EntityType:  audit.EntityApplication,
		EntityID:    app.ID,
		Description: "application rejected",
		ActorID:     &reviewer.ID,
		ActorName:   reviewer.Name,
	})
	metrics.ApplicationsProcessed.WithLabelValues(models.ApplicationRejected).Inc()

	return Result{OK: true, Intents: []Intent{
		{Type: IntentNotifyUserRejected, UserID: app.UserID, ApplicationID: app.ID},
	}}, nil
}

// Withdraw lets the applicant retract a submitted application. No reviewer
// is involved and no intents are emitted.
func (m *StateMachine) Withdraw(ctx context.Context, applicationID primitive.ObjectID, applicant Actor) (Result, error) {
	app, res, err := m.load(ctx, applicationID)
	if err != nil || !res.OK {
		return res, err
	}
	if app.UserID != applicant.ID {
		return refused(CodeValidationFailure), nil
	}

	resolution := applicationstore.Resolution{
		Status:     models.ApplicationWithdrawn,
		ResolvedAt: m.now(),
		ReviewerID: &applicant.ID,
	}
	if r, err := m.commit(ctx, app, resolution); err != nil || !r.OK {
		return r, err
	}

	m.eraseVotes(ctx, app.ID)
	m.audit.Record(ctx, audit.Entry{
		Action:      audit.ActionApplicationWithdrawn,
		EntityType:  audit.EntityApplication,
		EntityID:    app.ID,
		Description: "application withdrawn by applicant",
		ActorID:     &applicant.ID,
		ActorName:   applicant.Name,
	})
	metrics.ApplicationsProcessed.WithLabelValues(models.ApplicationWithdrawn).Inc()

	return Result{OK: true}, nil
}

// load fetches the application and refuses early when it is absent or
// already terminal. Terminal applications perform no mutation at all.
func (m *StateMachine) load(ctx context.Context, id primitive.ObjectID) (models.MembershipApplication, Result, error) {
	app, err := m.apps.ByID(ctx, id)
	if err != nil {
		if errors.Is(err, applicationstore.ErrNotFound) {
			return models.MembershipApplication{}, refused(CodeNotFound), nil
		}
		return models.MembershipApplication{}, Result{}, err
	}
	if app.Resolved() {
		return app, refused(CodeInvalidStateTransition), nil
	}
	return app, Result{OK: true}, nil
}

// commit runs the conditional resolution write. A stale write means a
// concurrent transition won the race; the caller gets
// CodeConcurrencyConflict and must re-fetch and re-decide. No retry here.
func (m *StateMachine) commit(ctx context.Context, app models.MembershipApplication, res applicationstore.Resolution) (Result, error) {
	err := m.apps.ResolveSubmitted(ctx, app.ID, app.Revision, res)
	if err == nil {
		return Result{OK: true}, nil
	}
	if errors.Is(err, applicationstore.ErrStale) {
		return refused(CodeConcurrencyConflict), nil
	}
	return Result{}, err
}

func (m *StateMachine) eraseVotes(ctx context.Context, applicationID primitive.ObjectID) {
	n, err := m.votes.DeleteByApplication(ctx, applicationID)
	if err != nil {
		m.log.Error("ballot erasure failed",
			zap.String("application_id", applicationID.Hex()),
			zap.Error(err))
		return
	}
	if n > 0 {
		m.log.Info("ballots erased",
			zap.String("application_id", applicationID.Hex()),
			zap.Int64("count", n))
	}
}
