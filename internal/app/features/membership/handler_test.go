package membership_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/peterdrier/volunteerhub/internal/app/compliance"
	"github.com/peterdrier/volunteerhub/internal/app/features/membership"
	consentstore "github.com/peterdrier/volunteerhub/internal/app/store/consents"
	documentstore "github.com/peterdrier/volunteerhub/internal/app/store/documents"
	rolestore "github.com/peterdrier/volunteerhub/internal/app/store/roles"
	teammemberstore "github.com/peterdrier/volunteerhub/internal/app/store/teammembers"
	teamstore "github.com/peterdrier/volunteerhub/internal/app/store/teams"
	userstore "github.com/peterdrier/volunteerhub/internal/app/store/users"
	"github.com/peterdrier/volunteerhub/internal/domain/models"
	"github.com/peterdrier/volunteerhub/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
)

func newResolver(db *mongo.Database) *compliance.Resolver {
	return compliance.New(
		userstore.New(db),
		rolestore.New(db),
		teamstore.New(db),
		teammemberstore.New(db),
		documentstore.New(db),
		consentstore.New(db),
	)
}

func TestServeStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	volunteers := fixtures.CreateVolunteersTeam(ctx)
	user := fixtures.CreateUser(ctx, "Alice", "alice@example.com")
	fixtures.JoinTeam(ctx, volunteers.ID, user.ID)

	handler := membership.NewHandler(newResolver(db), zap.NewNop())

	req := testutil.NewAuthenticatedRequest("GET", "/membership/status", testutil.TestUser{
		ID:    user.ID.Hex(),
		Name:  user.FullName,
		Email: user.Email,
	})
	rec := httptest.NewRecorder()
	handler.ServeStatus(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status code: got %d, want %d (%s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	var resp struct {
		UserID string `json:"user_id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Status != models.StatusActive {
		t.Errorf("status: got %q, want %q", resp.Status, models.StatusActive)
	}
	if resp.UserID != user.ID.Hex() {
		t.Errorf("user_id: got %q, want %q", resp.UserID, user.ID.Hex())
	}
}

func TestServeStatus_Unauthenticated(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := membership.NewHandler(newResolver(db), zap.NewNop())

	req := testutil.NewRequest("GET", "/membership/status")
	rec := httptest.NewRecorder()
	handler.ServeStatus(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status code: got %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestServeUserStatus_InvalidID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := membership.NewHandler(newResolver(db), zap.NewNop())

	req := testutil.NewAuthenticatedRequest("GET", "/membership/users/notahexid/status", testutil.BoardUser())
	req = testutil.WithChiURLParam(req, "userID", "notahexid")
	rec := httptest.NewRecorder()
	handler.ServeUserStatus(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status code: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestServeSnapshot(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	volunteers := fixtures.CreateVolunteersTeam(ctx)
	fixtures.CreateTeam(ctx, "Leads") // not a system team; irrelevant to scope
	user := fixtures.CreateUser(ctx, "Alice", "alice@example.com")
	fixtures.JoinTeam(ctx, volunteers.ID, user.ID)

	doc := fixtures.CreateDocument(ctx, volunteers.ID, "Code of Conduct", 30)
	fixtures.CreateVersion(ctx, doc.ID, "v1", timeNowMinusDays(1))

	handler := membership.NewHandler(newResolver(db), zap.NewNop())

	req := testutil.NewAuthenticatedRequest("GET", "/membership/snapshot", testutil.TestUser{
		ID: user.ID.Hex(), Name: user.FullName, Email: user.Email,
	})
	rec := httptest.NewRecorder()
	handler.ServeSnapshot(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status code: got %d, want %d (%s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	var snap compliance.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if !snap.IsVolunteerMember {
		t.Error("expected volunteer membership in the snapshot")
	}
	if snap.RequiredCount != 1 || snap.MissingCount != 1 {
		t.Errorf("counts: got required=%d missing=%d, want 1/1", snap.RequiredCount, snap.MissingCount)
	}
	// Missing but still inside the grace window.
	if snap.Status != models.StatusActive {
		t.Errorf("status: got %q, want %q", snap.Status, models.StatusActive)
	}
}

func TestServeStatusReport(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	volunteers := fixtures.CreateVolunteersTeam(ctx)
	member := fixtures.CreateUser(ctx, "Member", "member@example.com")
	fixtures.JoinTeam(ctx, volunteers.ID, member.ID)
	outsider := fixtures.CreateUser(ctx, "Outsider", "outsider@example.com")

	handler := membership.NewHandler(newResolver(db), zap.NewNop())

	body := `{"user_ids":["` + member.ID.Hex() + `","` + outsider.ID.Hex() + `"]}`
	req := httptest.NewRequest("POST", "/membership/reports/statuses", strings.NewReader(body))
	req = testutil.WithUser(req, testutil.BoardUser())
	rec := httptest.NewRecorder()
	handler.ServeStatusReport(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status code: got %d, want %d (%s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	var resp struct {
		Statuses map[string]string `json:"statuses"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Statuses[member.ID.Hex()] != models.StatusActive {
		t.Errorf("member: got %q, want %q", resp.Statuses[member.ID.Hex()], models.StatusActive)
	}
	if resp.Statuses[outsider.ID.Hex()] != models.StatusNone {
		t.Errorf("outsider: got %q, want %q", resp.Statuses[outsider.ID.Hex()], models.StatusNone)
	}
}

func timeNowMinusDays(days int) time.Time {
	return time.Now().UTC().AddDate(0, 0, -days)
}

func TestServeStatusReport_BadBody(t *testing.T) {
	db := testutil.SetupTestDB(t)
	handler := membership.NewHandler(newResolver(db), zap.NewNop())

	req := httptest.NewRequest("POST", "/membership/reports/statuses", strings.NewReader("{not json"))
	req = testutil.WithUser(req, testutil.BoardUser())
	rec := httptest.NewRecorder()
	handler.ServeStatusReport(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status code: got %d, want %d", rec.Code, http.StatusBadRequest)
	}

	req = httptest.NewRequest("POST", "/membership/reports/statuses", strings.NewReader(`{"user_ids":["zzz"]}`))
	req = testutil.WithUser(req, testutil.BoardUser())
	rec = httptest.NewRecorder()
	handler.ServeStatusReport(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid id: got %d, want %d", rec.Code, http.StatusBadRequest)
	}
}
