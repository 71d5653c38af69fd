package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/peterdrier/volunteerhub/internal/domain/models"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates an approved user with the given name and email.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:         primitive.NewObjectID(),
		FullName:   fullName,
		Email:      email,
		IsApproved: true,
		Status:     models.StatusNone,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err := f.db.Collection("users").InsertOne(ctx, user)
	if err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateSuspendedUser creates a user with the suspension gate set.
func (f *Fixtures) CreateSuspendedUser(ctx context.Context, fullName, email string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:          primitive.NewObjectID(),
		FullName:    fullName,
		Email:       email,
		IsApproved:  true,
		IsSuspended: true,
		Status:      models.StatusSuspended,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := f.db.Collection("users").InsertOne(ctx, user)
	if err != nil {
		f.t.Fatalf("failed to create suspended test user: %v", err)
	}
	return user
}

// CreateTeam creates a user-created working team.
func (f *Fixtures) CreateTeam(ctx context.Context, name string) models.Team {
	f.t.Helper()
	return f.createTeam(ctx, name, models.SystemTeamNone, "")
}

// CreateVolunteersTeam creates the global volunteers system team.
func (f *Fixtures) CreateVolunteersTeam(ctx context.Context) models.Team {
	f.t.Helper()
	return f.createTeam(ctx, "Volunteers", models.SystemTeamVolunteers, "")
}

// CreateTierTeam creates the system team for a membership tier.
func (f *Fixtures) CreateTierTeam(ctx context.Context, tier string) models.Team {
	f.t.Helper()
	return f.createTeam(ctx, tier+" members", models.SystemTeamTier, tier)
}

func (f *Fixtures) createTeam(ctx context.Context, name, systemType, tier string) models.Team {
	f.t.Helper()

	now := time.Now().UTC()
	team := models.Team{
		ID:         primitive.NewObjectID(),
		Name:       name,
		SystemType: systemType,
		Tier:       tier,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err := f.db.Collection("teams").InsertOne(ctx, team)
	if err != nil {
		f.t.Fatalf("failed to create test team: %v", err)
	}
	return team
}

// JoinTeam creates an active team membership.
func (f *Fixtures) JoinTeam(ctx context.Context, teamID, userID primitive.ObjectID) models.TeamMembership {
	f.t.Helper()

	m := models.TeamMembership{
		ID:       primitive.NewObjectID(),
		TeamID:   teamID,
		UserID:   userID,
		JoinedAt: time.Now().UTC(),
	}

	_, err := f.db.Collection("team_memberships").InsertOne(ctx, m)
	if err != nil {
		f.t.Fatalf("failed to create test team membership: %v", err)
	}
	return m
}

// CreateDocument creates a required, active legal document for a team.
func (f *Fixtures) CreateDocument(ctx context.Context, teamID primitive.ObjectID, title string, graceDays int) models.LegalDocument {
	f.t.Helper()

	now := time.Now().UTC()
	doc := models.LegalDocument{
		ID:              primitive.NewObjectID(),
		TeamID:          teamID,
		Title:           title,
		IsRequired:      true,
		IsActive:        true,
		GracePeriodDays: graceDays,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	_, err := f.db.Collection("legal_documents").InsertOne(ctx, doc)
	if err != nil {
		f.t.Fatalf("failed to create test document: %v", err)
	}
	return doc
}

// CreateVersion creates a document version effective from the given instant.
func (f *Fixtures) CreateVersion(ctx context.Context, documentID primitive.ObjectID, label string, effectiveFrom time.Time) models.DocumentVersion {
	f.t.Helper()

	v := models.DocumentVersion{
		ID:            primitive.NewObjectID(),
		DocumentID:    documentID,
		Label:         label,
		EffectiveFrom: effectiveFrom,
		CreatedAt:     time.Now().UTC(),
	}

	_, err := f.db.Collection("document_versions").InsertOne(ctx, v)
	if err != nil {
		f.t.Fatalf("failed to create test document version: %v", err)
	}
	return v
}

// CreateConsent records a user's acknowledgment of a version.
func (f *Fixtures) CreateConsent(ctx context.Context, userID, versionID primitive.ObjectID) models.ConsentRecord {
	f.t.Helper()

	c := models.ConsentRecord{
		ID:              primitive.NewObjectID(),
		UserID:          userID,
		VersionID:       versionID,
		ExplicitConsent: true,
		ConsentedAt:     time.Now().UTC(),
	}

	_, err := f.db.Collection("consent_records").InsertOne(ctx, c)
	if err != nil {
		f.t.Fatalf("failed to create test consent: %v", err)
	}
	return c
}

// GrantRole creates an open-ended role assignment starting in the past.
func (f *Fixtures) GrantRole(ctx context.Context, userID primitive.ObjectID, role string) models.RoleAssignment {
	f.t.Helper()
	return f.GrantRoleWindow(ctx, userID, role, nil, time.Now().UTC().Add(-time.Hour), nil)
}

// GrantRoleWindow creates a role assignment with an explicit validity window
// and optional team scope.
func (f *Fixtures) GrantRoleWindow(ctx context.Context, userID primitive.ObjectID, role string, teamID *primitive.ObjectID, from time.Time, to *time.Time) models.RoleAssignment {
	f.t.Helper()

	a := models.RoleAssignment{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Role:      role,
		TeamID:    teamID,
		ValidFrom: from,
		ValidTo:   to,
		CreatedAt: time.Now().UTC(),
	}

	_, err := f.db.Collection("role_assignments").InsertOne(ctx, a)
	if err != nil {
		f.t.Fatalf("failed to create test role assignment: %v", err)
	}
	return a
}

// CreateApplication creates a submitted membership application.
func (f *Fixtures) CreateApplication(ctx context.Context, userID primitive.ObjectID, tier string) models.MembershipApplication {
	f.t.Helper()

	now := time.Now().UTC()
	app := models.MembershipApplication{
		ID:            primitive.NewObjectID(),
		UserID:        userID,
		RequestedTier: tier,
		Status:        models.ApplicationSubmitted,
		SubmittedAt:   now,
		StateHistory: []models.ApplicationStateChange{
			{Status: models.ApplicationSubmitted, ChangedAt: now},
		},
		Revision: 1,
	}

	_, err := f.db.Collection("applications").InsertOne(ctx, app)
	if err != nil {
		f.t.Fatalf("failed to create test application: %v", err)
	}
	return app
}

// CastVote inserts a board vote on an application.
func (f *Fixtures) CastVote(ctx context.Context, applicationID, voterID primitive.ObjectID, choice string) models.BoardVote {
	f.t.Helper()

	v := models.BoardVote{
		ID:            primitive.NewObjectID(),
		ApplicationID: applicationID,
		VoterID:       voterID,
		Choice:        choice,
		CastAt:        time.Now().UTC(),
	}

	_, err := f.db.Collection("board_votes").InsertOne(ctx, v)
	if err != nil {
		f.t.Fatalf("failed to create test vote: %v", err)
	}
	return v
}
