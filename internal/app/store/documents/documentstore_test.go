package documentstore_test

import (
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	documentstore "github.com/peterdrier/volunteerhub/internal/app/store/documents"
	"github.com/peterdrier/volunteerhub/internal/domain/models"
	"github.com/peterdrier/volunteerhub/internal/testutil"
)

func TestStore_CreateDocumentAndVersion(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := documentstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	team := fixtures.CreateTeam(ctx, "Gardening")

	doc, err := store.CreateDocument(ctx, models.LegalDocument{
		TeamID:          team.ID,
		Title:           "Code of Conduct",
		IsRequired:      true,
		IsActive:        true,
		GracePeriodDays: 14,
	})
	if err != nil {
		t.Fatalf("CreateDocument failed: %v", err)
	}
	if doc.ID.IsZero() {
		t.Error("expected an assigned document id")
	}

	v, err := store.AddVersion(ctx, models.DocumentVersion{
		DocumentID:    doc.ID,
		Label:         "2026-01",
		EffectiveFrom: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("AddVersion failed: %v", err)
	}

	gotDoc, err := store.DocumentByID(ctx, doc.ID)
	if err != nil {
		t.Fatalf("DocumentByID failed: %v", err)
	}
	if gotDoc.Title != "Code of Conduct" {
		t.Errorf("title: got %q", gotDoc.Title)
	}

	gotV, err := store.VersionByID(ctx, v.ID)
	if err != nil {
		t.Fatalf("VersionByID failed: %v", err)
	}
	if gotV.Label != "2026-01" {
		t.Errorf("label: got %q", gotV.Label)
	}
}

func TestStore_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := documentstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.DocumentByID(ctx, primitive.NewObjectID()); !errors.Is(err, documentstore.ErrNotFound) {
		t.Errorf("DocumentByID: got %v, want ErrNotFound", err)
	}
	if _, err := store.VersionByID(ctx, primitive.NewObjectID()); !errors.Is(err, documentstore.ErrNotFound) {
		t.Errorf("VersionByID: got %v, want ErrNotFound", err)
	}
}

func TestStore_RequiredActiveByTeams(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := documentstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	team := fixtures.CreateTeam(ctx, "Gardening")
	other := fixtures.CreateTeam(ctx, "Kitchen")

	required := fixtures.CreateDocument(ctx, team.ID, "Code of Conduct", 14)
	fixtures.CreateDocument(ctx, other.ID, "Kitchen Rules", 7)

	optional, err := store.CreateDocument(ctx, models.LegalDocument{
		TeamID: team.ID, Title: "Newsletter Policy", IsRequired: false, IsActive: true,
	})
	if err != nil {
		t.Fatalf("CreateDocument failed: %v", err)
	}
	retired, err := store.CreateDocument(ctx, models.LegalDocument{
		TeamID: team.ID, Title: "Old Waiver", IsRequired: true, IsActive: false,
	})
	if err != nil {
		t.Fatalf("CreateDocument failed: %v", err)
	}

	got, err := store.RequiredActiveByTeams(ctx, []primitive.ObjectID{team.ID})
	if err != nil {
		t.Fatalf("RequiredActiveByTeams failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d documents, want 1", len(got))
	}
	if got[0].ID != required.ID {
		t.Errorf("got %s, want %s", got[0].ID.Hex(), required.ID.Hex())
	}
	for _, d := range got {
		if d.ID == optional.ID || d.ID == retired.ID {
			t.Error("optional or retired document leaked into the required set")
		}
	}
}

func TestStore_EffectiveVersionsForDocuments(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := documentstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	team := fixtures.CreateTeam(ctx, "Gardening")
	doc := fixtures.CreateDocument(ctx, team.ID, "Code of Conduct", 14)
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	past := fixtures.CreateVersion(ctx, doc.ID, "v1", now.AddDate(0, -6, 0))
	recent := fixtures.CreateVersion(ctx, doc.ID, "v2", now.AddDate(0, -1, 0))
	fixtures.CreateVersion(ctx, doc.ID, "v3", now.AddDate(0, 1, 0))

	got, err := store.EffectiveVersionsForDocuments(ctx, []primitive.ObjectID{doc.ID}, now)
	if err != nil {
		t.Fatalf("EffectiveVersionsForDocuments failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d versions, want 2 (the future version is excluded)", len(got))
	}
	set := map[primitive.ObjectID]bool{}
	for _, v := range got {
		set[v.ID] = true
	}
	if !set[past.ID] || !set[recent.ID] {
		t.Errorf("wrong version set: %v", got)
	}
}
