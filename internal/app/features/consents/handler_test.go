package consents_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/peterdrier/volunteerhub/internal/app/compliance"
	"github.com/peterdrier/volunteerhub/internal/app/features/consents"
	consentstore "github.com/peterdrier/volunteerhub/internal/app/store/consents"
	documentstore "github.com/peterdrier/volunteerhub/internal/app/store/documents"
	rolestore "github.com/peterdrier/volunteerhub/internal/app/store/roles"
	teammemberstore "github.com/peterdrier/volunteerhub/internal/app/store/teammembers"
	teamstore "github.com/peterdrier/volunteerhub/internal/app/store/teams"
	userstore "github.com/peterdrier/volunteerhub/internal/app/store/users"
	"github.com/peterdrier/volunteerhub/internal/app/system/indexes"
	"github.com/peterdrier/volunteerhub/internal/domain/models"
	"github.com/peterdrier/volunteerhub/internal/testutil"
)

func newHandler(db *mongo.Database) *consents.Handler {
	resolver := compliance.New(
		userstore.New(db),
		rolestore.New(db),
		teamstore.New(db),
		teammemberstore.New(db),
		documentstore.New(db),
		consentstore.New(db),
	)
	return consents.NewHandler(consentstore.New(db), documentstore.New(db), resolver, nil, zap.NewNop())
}

func sessionFor(u models.User) testutil.TestUser {
	return testutil.TestUser{ID: u.ID.Hex(), Name: u.FullName, Email: u.Email}
}

func TestServeRecord(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	user := fixtures.CreateUser(ctx, "Alice", "alice@example.com")
	team := fixtures.CreateTeam(ctx, "Gardening")
	doc := fixtures.CreateDocument(ctx, team.ID, "Waiver", 14)
	v := fixtures.CreateVersion(ctx, doc.ID, "v1", time.Now().UTC().AddDate(0, -1, 0))
	handler := newHandler(db)

	body := `{"version_id":"` + v.ID.Hex() + `"}`
	req := httptest.NewRequest("POST", "/consents", strings.NewReader(body))
	req = testutil.WithUser(req, sessionFor(user))
	rec := httptest.NewRecorder()
	handler.ServeRecord(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status code: got %d, want %d (%s)", rec.Code, http.StatusCreated, rec.Body.String())
	}

	ok, err := consentstore.New(db).Exists(ctx, user.ID, v.ID)
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if !ok {
		t.Error("expected the consent on file")
	}

	// Recording the same version twice conflicts: the ledger is append-only
	// with one row per (user, version).
	req = httptest.NewRequest("POST", "/consents", strings.NewReader(body))
	req = testutil.WithUser(req, sessionFor(user))
	rec = httptest.NewRecorder()
	handler.ServeRecord(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate consent: got %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestServeRecord_UnknownVersion(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := fixtures.CreateUser(ctx, "Alice", "alice@example.com")
	handler := newHandler(db)

	req := httptest.NewRequest("POST", "/consents", strings.NewReader(`{"version_id":"6569cf00a1b2c3d4e5f60718"}`))
	req = testutil.WithUser(req, sessionFor(user))
	rec := httptest.NewRecorder()
	handler.ServeRecord(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status code: got %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestServeRecord_InvalidVersionID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := fixtures.CreateUser(ctx, "Alice", "alice@example.com")
	handler := newHandler(db)

	req := httptest.NewRequest("POST", "/consents", strings.NewReader(`{"version_id":"nope"}`))
	req = testutil.WithUser(req, sessionFor(user))
	rec := httptest.NewRecorder()
	handler.ServeRecord(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status code: got %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
}

func TestServeRequired(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	volunteers := fixtures.CreateVolunteersTeam(ctx)
	user := fixtures.CreateUser(ctx, "Alice", "alice@example.com")
	fixtures.JoinTeam(ctx, volunteers.ID, user.ID)

	doc := fixtures.CreateDocument(ctx, volunteers.ID, "Code of Conduct", 14)
	consented := fixtures.CreateVersion(ctx, doc.ID, "v1", time.Now().UTC().AddDate(0, -2, 0))
	fixtures.CreateConsent(ctx, user.ID, consented.ID)

	doc2 := fixtures.CreateDocument(ctx, volunteers.ID, "Privacy Policy", 30)
	fixtures.CreateVersion(ctx, doc2.ID, "2026", time.Now().UTC().AddDate(0, -1, 0))

	handler := newHandler(db)

	req := testutil.NewAuthenticatedRequest("GET", "/consents/required", sessionFor(user))
	rec := httptest.NewRecorder()
	handler.ServeRequired(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status code: got %d, want %d (%s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	var resp struct {
		Required []struct {
			DocumentTitle string `json:"document_title"`
			Consented     bool   `json:"consented"`
		} `json:"required"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(resp.Required) != 2 {
		t.Fatalf("got %d required items, want 2", len(resp.Required))
	}
	byTitle := map[string]bool{}
	for _, item := range resp.Required {
		byTitle[item.DocumentTitle] = item.Consented
	}
	if !byTitle["Code of Conduct"] {
		t.Error("expected the consented checklist row to be marked")
	}
	if byTitle["Privacy Policy"] {
		t.Error("expected the unconsented checklist row to be unmarked")
	}
}

func TestServeList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := fixtures.CreateUser(ctx, "Alice", "alice@example.com")
	team := fixtures.CreateTeam(ctx, "Gardening")
	doc := fixtures.CreateDocument(ctx, team.ID, "Waiver", 14)
	v := fixtures.CreateVersion(ctx, doc.ID, "v1", time.Now().UTC().AddDate(0, -1, 0))
	fixtures.CreateConsent(ctx, user.ID, v.ID)

	handler := newHandler(db)

	req := testutil.NewAuthenticatedRequest("GET", "/consents", sessionFor(user))
	rec := httptest.NewRecorder()
	handler.ServeList(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status code: got %d, want %d", rec.Code, http.StatusOK)
	}
	var resp struct {
		Consents []models.ConsentRecord `json:"consents"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(resp.Consents) != 1 {
		t.Errorf("got %d consents, want 1", len(resp.Consents))
	}
}
