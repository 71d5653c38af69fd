package userstore_test

import (
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	userstore "github.com/peterdrier/volunteerhub/internal/app/store/users"
	"github.com/peterdrier/volunteerhub/internal/app/system/indexes"
	"github.com/peterdrier/volunteerhub/internal/domain/models"
	"github.com/peterdrier/volunteerhub/internal/testutil"
)

func TestStore_Create(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, err := store.Create(ctx, models.User{
		FullName: "Alice Example",
		Email:    "alice@example.com",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if u.ID.IsZero() {
		t.Error("expected an assigned id")
	}
	if u.Status != models.StatusPending {
		t.Errorf("default status: got %q, want %q", u.Status, models.StatusPending)
	}
	if u.CreatedAt.IsZero() || u.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be stamped")
	}
}

func TestStore_Create_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	if _, err := store.Create(ctx, models.User{FullName: "A", Email: "dup@example.com"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	_, err := store.Create(ctx, models.User{FullName: "B", Email: "dup@example.com"})
	if !errors.Is(err, userstore.ErrDuplicateEmail) {
		t.Errorf("got %v, want ErrDuplicateEmail", err)
	}
}

func TestStore_ByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.ByID(ctx, primitive.NewObjectID())
	if !errors.Is(err, userstore.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
	_, err = store.ByEmail(ctx, "nobody@example.com")
	if !errors.Is(err, userstore.ErrNotFound) {
		t.Errorf("ByEmail: got %v, want ErrNotFound", err)
	}
}

func TestStore_ByIDs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fixtures.CreateUser(ctx, "A", "a@example.com")
	b := fixtures.CreateUser(ctx, "B", "b@example.com")
	fixtures.CreateUser(ctx, "C", "c@example.com")

	got, err := store.ByIDs(ctx, []primitive.ObjectID{a.ID, b.ID, primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("ByIDs failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d users, want 2", len(got))
	}
	if got[a.ID].Email != "a@example.com" {
		t.Errorf("wrong user for id %s", a.ID.Hex())
	}
}

func TestStore_SetStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateUser(ctx, "Alice", "alice@example.com")

	if err := store.SetStatus(ctx, u.ID, models.StatusActive); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	got, err := store.ByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("ByID failed: %v", err)
	}
	if got.Status != models.StatusActive {
		t.Errorf("status: got %q, want %q", got.Status, models.StatusActive)
	}

	if err := store.SetStatus(ctx, primitive.NewObjectID(), models.StatusActive); !errors.Is(err, userstore.ErrNotFound) {
		t.Errorf("unknown id: got %v, want ErrNotFound", err)
	}
}

func TestStore_SetMembershipTier(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateUser(ctx, "Alice", "alice@example.com")
	reminded := time.Now().UTC()
	if err := store.MarkRenewalReminderSent(ctx, u.ID, reminded); err != nil {
		t.Fatalf("MarkRenewalReminderSent failed: %v", err)
	}

	expiry := time.Date(2029, 12, 31, 0, 0, 0, 0, time.UTC)
	if err := store.SetMembershipTier(ctx, u.ID, "supporting", expiry); err != nil {
		t.Fatalf("SetMembershipTier failed: %v", err)
	}

	got, err := store.ByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("ByID failed: %v", err)
	}
	if got.MembershipTier != "supporting" {
		t.Errorf("tier: got %q, want %q", got.MembershipTier, "supporting")
	}
	if got.TermExpiresAt == nil || !got.TermExpiresAt.Equal(expiry) {
		t.Errorf("term expiry: got %v, want %v", got.TermExpiresAt, expiry)
	}

	// The new term starts with a fresh reminder slate.
	count, err := db.Collection("users").CountDocuments(ctx, bson.M{
		"_id":                      u.ID,
		"renewal_reminder_sent_at": bson.M{"$exists": true},
	})
	if err != nil {
		t.Fatalf("CountDocuments failed: %v", err)
	}
	if count != 0 {
		t.Error("expected the reminder marker to be cleared")
	}
}

func TestStore_TermsExpiringBefore(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cutoff := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)

	expiring := fixtures.CreateUser(ctx, "Expiring", "expiring@example.com")
	if err := store.SetMembershipTier(ctx, expiring.ID, "regular", cutoff.AddDate(0, -1, 0)); err != nil {
		t.Fatalf("SetMembershipTier failed: %v", err)
	}

	reminded := fixtures.CreateUser(ctx, "Reminded", "reminded@example.com")
	if err := store.SetMembershipTier(ctx, reminded.ID, "regular", cutoff.AddDate(0, -1, 0)); err != nil {
		t.Fatalf("SetMembershipTier failed: %v", err)
	}
	if err := store.MarkRenewalReminderSent(ctx, reminded.ID, time.Now().UTC()); err != nil {
		t.Fatalf("MarkRenewalReminderSent failed: %v", err)
	}

	farOut := fixtures.CreateUser(ctx, "Far Out", "farout@example.com")
	if err := store.SetMembershipTier(ctx, farOut.ID, "regular", cutoff.AddDate(2, 0, 0)); err != nil {
		t.Fatalf("SetMembershipTier failed: %v", err)
	}

	fixtures.CreateUser(ctx, "No Term", "noterm@example.com")

	got, err := store.TermsExpiringBefore(ctx, cutoff)
	if err != nil {
		t.Fatalf("TermsExpiringBefore failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d users, want 1", len(got))
	}
	if got[0].ID != expiring.ID {
		t.Errorf("got user %s, want %s", got[0].ID.Hex(), expiring.ID.Hex())
	}
}

func TestStore_SuspendAndApprove(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateUser(ctx, "Alice", "alice@example.com")

	if err := store.SetSuspended(ctx, u.ID, true); err != nil {
		t.Fatalf("SetSuspended failed: %v", err)
	}
	if err := store.SetApproved(ctx, u.ID, false); err != nil {
		t.Fatalf("SetApproved failed: %v", err)
	}

	got, err := store.ByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("ByID failed: %v", err)
	}
	if !got.IsSuspended {
		t.Error("expected suspended")
	}
	if got.IsApproved {
		t.Error("expected unapproved")
	}
}
