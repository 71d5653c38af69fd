package decision

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	applicationstore "github.com/peterdrier/volunteerhub/internal/app/store/applications"
	"github.com/peterdrier/volunteerhub/internal/app/system/term"
	"github.com/peterdrier/volunteerhub/internal/domain/models"
)

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type fakeApps struct {
	apps  map[primitive.ObjectID]models.MembershipApplication
	stale bool

	resolvedID  primitive.ObjectID
	resolvedRev int64
	resolution  applicationstore.Resolution
	resolves    int
}

func (s *fakeApps) ByID(ctx context.Context, id primitive.ObjectID) (models.MembershipApplication, error) {
	app, ok := s.apps[id]
	if !ok {
		return models.MembershipApplication{}, applicationstore.ErrNotFound
	}
	return app, nil
}

func (s *fakeApps) ResolveSubmitted(ctx context.Context, id primitive.ObjectID, revision int64, res applicationstore.Resolution) error {
	if s.stale {
		return applicationstore.ErrStale
	}
	s.resolves++
	s.resolvedID = id
	s.resolvedRev = revision
	s.resolution = res
	return nil
}

type fakeVotes struct {
	deleted []primitive.ObjectID
}

func (s *fakeVotes) DeleteByApplication(ctx context.Context, applicationID primitive.ObjectID) (int64, error) {
	s.deleted = append(s.deleted, applicationID)
	return 2, nil
}

type fakeUsers struct {
	userID primitive.ObjectID
	tier   string
	expiry time.Time
	calls  int
}

func (s *fakeUsers) SetMembershipTier(ctx context.Context, id primitive.ObjectID, tier string, termExpiresAt time.Time) error {
	s.calls++
	s.userID = id
	s.tier = tier
	s.expiry = termExpiresAt
	return nil
}

type harness struct {
	apps    *fakeApps
	votes   *fakeVotes
	users   *fakeUsers
	machine *StateMachine
	app     models.MembershipApplication
}

func newHarness(t *testing.T, status string) *harness {
	t.Helper()
	app := models.MembershipApplication{
		ID:            primitive.NewObjectID(),
		UserID:        primitive.NewObjectID(),
		RequestedTier: "regular",
		Status:        status,
		Revision:      3,
	}
	h := &harness{
		apps:  &fakeApps{apps: map[primitive.ObjectID]models.MembershipApplication{app.ID: app}},
		votes: &fakeVotes{},
		users: &fakeUsers{},
		app:   app,
	}
	h.machine = New(h.apps, h.votes, h.users, nil, zap.NewNop()).
		WithClock(func() time.Time { return testNow })
	return h
}

func reviewer() Actor {
	return Actor{ID: primitive.NewObjectID(), Name: "Board Reviewer"}
}

func TestApprove(t *testing.T) {
	h := newHarness(t, models.ApplicationSubmitted)
	rev := reviewer()

	res, err := h.machine.Approve(context.Background(), h.app.ID, rev, "looks good", nil)
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if !res.OK {
		t.Fatalf("refused with code %q", res.Code)
	}

	if h.apps.resolution.Status != models.ApplicationApproved {
		t.Errorf("resolution status: got %q, want %q", h.apps.resolution.Status, models.ApplicationApproved)
	}
	if h.apps.resolvedRev != h.app.Revision {
		t.Errorf("conditional write used revision %d, want %d", h.apps.resolvedRev, h.app.Revision)
	}
	wantExpiry := term.Expiry(testNow)
	if h.apps.resolution.TermExpiresAt == nil || !h.apps.resolution.TermExpiresAt.Equal(wantExpiry) {
		t.Errorf("term expiry: got %v, want %v", h.apps.resolution.TermExpiresAt, wantExpiry)
	}

	if h.users.calls != 1 {
		t.Fatalf("tier copy calls: got %d, want 1", h.users.calls)
	}
	if h.users.userID != h.app.UserID || h.users.tier != h.app.RequestedTier {
		t.Errorf("tier copied to user %s tier %q, want user %s tier %q",
			h.users.userID.Hex(), h.users.tier, h.app.UserID.Hex(), h.app.RequestedTier)
	}
	if !h.users.expiry.Equal(wantExpiry) {
		t.Errorf("user term expiry: got %v, want %v", h.users.expiry, wantExpiry)
	}

	if len(h.votes.deleted) != 1 || h.votes.deleted[0] != h.app.ID {
		t.Errorf("expected ballots erased for %s, got %v", h.app.ID.Hex(), h.votes.deleted)
	}

	if len(res.Intents) != 2 {
		t.Fatalf("intents: got %d, want 2", len(res.Intents))
	}
	if res.Intents[0].Type != IntentNotifyUserApproved || res.Intents[1].Type != IntentSyncTeamMembershipForTier {
		t.Errorf("unexpected intents: %+v", res.Intents)
	}
	for _, in := range res.Intents {
		if in.UserID != h.app.UserID || in.ApplicationID != h.app.ID || in.Tier != h.app.RequestedTier {
			t.Errorf("intent payload mismatch: %+v", in)
		}
	}
}

func TestApprove_Refusals(t *testing.T) {
	tests := []struct {
		name   string
		status string
		setup  func(h *harness) (primitive.ObjectID, Actor)
		want   Code
	}{
		{
			name:   "unknown application",
			status: models.ApplicationSubmitted,
			setup: func(h *harness) (primitive.ObjectID, Actor) {
				return primitive.NewObjectID(), reviewer()
			},
			want: CodeNotFound,
		},
		{
			name:   "already approved",
			status: models.ApplicationApproved,
			setup: func(h *harness) (primitive.ObjectID, Actor) {
				return h.app.ID, reviewer()
			},
			want: CodeInvalidStateTransition,
		},
		{
			name:   "already withdrawn",
			status: models.ApplicationWithdrawn,
			setup: func(h *harness) (primitive.ObjectID, Actor) {
				return h.app.ID, reviewer()
			},
			want: CodeInvalidStateTransition,
		},
		{
			name:   "missing reviewer",
			status: models.ApplicationSubmitted,
			setup: func(h *harness) (primitive.ObjectID, Actor) {
				return h.app.ID, Actor{}
			},
			want: CodeValidationFailure,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.status)
			id, actor := tt.setup(h)

			res, err := h.machine.Approve(context.Background(), id, actor, "", nil)
			if err != nil {
				t.Fatalf("Approve failed: %v", err)
			}
			if res.OK {
				t.Fatal("expected refusal")
			}
			if res.Code != tt.want {
				t.Errorf("code: got %q, want %q", res.Code, tt.want)
			}
			if h.apps.resolves != 0 {
				t.Error("refused transition must not write")
			}
			if h.users.calls != 0 {
				t.Error("refused transition must not copy the tier")
			}
			if len(h.votes.deleted) != 0 {
				t.Error("refused transition must not erase ballots")
			}
		})
	}
}

func TestApprove_ConcurrencyConflict(t *testing.T) {
	h := newHarness(t, models.ApplicationSubmitted)
	h.apps.stale = true

	res, err := h.machine.Approve(context.Background(), h.app.ID, reviewer(), "", nil)
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if res.OK || res.Code != CodeConcurrencyConflict {
		t.Fatalf("got %+v, want concurrency conflict refusal", res)
	}
	if h.users.calls != 0 || len(h.votes.deleted) != 0 {
		t.Error("lost race must leave side effects unexecuted")
	}
}

func TestReject(t *testing.T) {
	h := newHarness(t, models.ApplicationSubmitted)
	meeting := testNow.AddDate(0, 0, -3)

	res, err := h.machine.Reject(context.Background(), h.app.ID, reviewer(), "quorum voted no", &meeting)
	if err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	if !res.OK {
		t.Fatalf("refused with code %q", res.Code)
	}

	if h.apps.resolution.Status != models.ApplicationRejected {
		t.Errorf("resolution status: got %q, want %q", h.apps.resolution.Status, models.ApplicationRejected)
	}
	if h.apps.resolution.TermExpiresAt != nil {
		t.Error("rejection must not set a term expiry")
	}
	if h.apps.resolution.MeetingDate == nil || !h.apps.resolution.MeetingDate.Equal(meeting) {
		t.Errorf("meeting date: got %v, want %v", h.apps.resolution.MeetingDate, meeting)
	}

	if h.users.calls != 0 {
		t.Error("rejection must not copy the tier")
	}
	if len(h.votes.deleted) != 1 {
		t.Error("expected ballots erased on rejection")
	}

	if len(res.Intents) != 1 || res.Intents[0].Type != IntentNotifyUserRejected {
		t.Errorf("unexpected intents: %+v", res.Intents)
	}
}

func TestWithdraw(t *testing.T) {
	h := newHarness(t, models.ApplicationSubmitted)
	applicant := Actor{ID: h.app.UserID, Name: "Applicant"}

	res, err := h.machine.Withdraw(context.Background(), h.app.ID, applicant)
	if err != nil {
		t.Fatalf("Withdraw failed: %v", err)
	}
	if !res.OK {
		t.Fatalf("refused with code %q", res.Code)
	}
	if h.apps.resolution.Status != models.ApplicationWithdrawn {
		t.Errorf("resolution status: got %q, want %q", h.apps.resolution.Status, models.ApplicationWithdrawn)
	}
	if len(res.Intents) != 0 {
		t.Errorf("withdrawal emits no intents, got %+v", res.Intents)
	}
	if len(h.votes.deleted) != 1 {
		t.Error("expected ballots erased on withdrawal")
	}
}

func TestWithdraw_OnlyApplicant(t *testing.T) {
	h := newHarness(t, models.ApplicationSubmitted)

	res, err := h.machine.Withdraw(context.Background(), h.app.ID, reviewer())
	if err != nil {
		t.Fatalf("Withdraw failed: %v", err)
	}
	if res.OK || res.Code != CodeValidationFailure {
		t.Fatalf("got %+v, want validation failure", res)
	}
	if h.apps.resolves != 0 {
		t.Error("refused withdrawal must not write")
	}
}

func TestWithdraw_TerminalState(t *testing.T) {
	h := newHarness(t, models.ApplicationRejected)
	applicant := Actor{ID: h.app.UserID}

	res, err := h.machine.Withdraw(context.Background(), h.app.ID, applicant)
	if err != nil {
		t.Fatalf("Withdraw failed: %v", err)
	}
	if res.OK || res.Code != CodeInvalidStateTransition {
		t.Fatalf("got %+v, want invalid state transition", res)
	}
}
