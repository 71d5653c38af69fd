package audit_test

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/peterdrier/volunteerhub/internal/app/store/audit"
	"github.com/peterdrier/volunteerhub/internal/testutil"
)

func TestStore_InsertAndList(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	appID := primitive.NewObjectID()
	actorID := primitive.NewObjectID()
	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	entries := []audit.Entry{
		{Timestamp: base, Action: audit.ActionApplicationSubmitted, EntityType: audit.EntityApplication, EntityID: appID},
		{Timestamp: base.Add(time.Hour), Action: audit.ActionApplicationApproved, EntityType: audit.EntityApplication, EntityID: appID, ActorID: &actorID},
		{Timestamp: base.Add(2 * time.Hour), Action: audit.ActionConsentRecorded, EntityType: audit.EntityConsent, EntityID: primitive.NewObjectID()},
	}
	for _, e := range entries {
		if err := store.Insert(ctx, e); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	got, err := store.List(ctx, audit.QueryFilter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d entries, want 3", len(got))
	}
	// Most recent first.
	if got[0].Action != audit.ActionConsentRecorded || got[2].Action != audit.ActionApplicationSubmitted {
		t.Errorf("unexpected order: %q, %q, %q", got[0].Action, got[1].Action, got[2].Action)
	}
}

func TestStore_List_Filters(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	appID := primitive.NewObjectID()
	otherID := primitive.NewObjectID()
	actorID := primitive.NewObjectID()

	seed := []audit.Entry{
		{Action: audit.ActionApplicationSubmitted, EntityType: audit.EntityApplication, EntityID: appID},
		{Action: audit.ActionApplicationApproved, EntityType: audit.EntityApplication, EntityID: appID, ActorID: &actorID},
		{Action: audit.ActionApplicationSubmitted, EntityType: audit.EntityApplication, EntityID: otherID},
		{Action: audit.ActionStatusUpdated, EntityType: audit.EntityUser, EntityID: primitive.NewObjectID()},
	}
	for _, e := range seed {
		if err := store.Insert(ctx, e); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	tests := []struct {
		name   string
		filter audit.QueryFilter
		want   int
	}{
		{"by entity type", audit.QueryFilter{EntityType: audit.EntityApplication}, 3},
		{"by entity id", audit.QueryFilter{EntityID: &appID}, 2},
		{"by actor", audit.QueryFilter{ActorID: &actorID}, 1},
		{"by action", audit.QueryFilter{Action: audit.ActionApplicationSubmitted}, 2},
		{"combined", audit.QueryFilter{EntityID: &appID, Action: audit.ActionApplicationApproved}, 1},
		{"limit", audit.QueryFilter{Limit: 2}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("got %d entries, want %d", len(got), tt.want)
			}
		})
	}
}

func TestStore_Insert_StampsTimestamp(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.Insert(ctx, audit.Entry{
		Action:     audit.ActionTeamJoined,
		EntityType: audit.EntityTeam,
		EntityID:   primitive.NewObjectID(),
	}); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.List(ctx, audit.QueryFilter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d entries, want 1", len(got))
	}
	if got[0].Timestamp.IsZero() {
		t.Error("expected the timestamp to be stamped on insert")
	}
}
