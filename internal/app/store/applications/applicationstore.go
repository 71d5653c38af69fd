// internal/app/store/applications/applicationstore.go
package applicationstore

import (
	"context"
	"errors"
	"time"

	"github.com/peterdrier/volunteerhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store manages membership applications. Resolution uses a compare-and-swap
// on (status == "submitted", revision): the optimistic-concurrency check
// lives here at the storage boundary, and the decision package only sees
// ErrStale when it loses the race.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("applications")}
}

var (
	ErrNotFound = errors.New("application not found")
	// ErrStale is returned when the conditional resolution write matched no
	// document: either the application left "submitted" or its revision
	// moved under us. The caller re-fetches to tell the two apart.
	ErrStale = errors.New("application changed since it was read")
)

// Create inserts a new application in the "submitted" state with its first
// history entry.
func (s *Store) Create(ctx context.Context, userID primitive.ObjectID, requestedTier, motivation string) (models.MembershipApplication, error) {
	now := time.Now().UTC()
	app := models.MembershipApplication{
		ID:            primitive.NewObjectID(),
		UserID:        userID,
		RequestedTier: requestedTier,
		Motivation:    motivation,
		Status:        models.ApplicationSubmitted,
		SubmittedAt:   now,
		StateHistory: []models.ApplicationStateChange{{
			Status:    models.ApplicationSubmitted,
			ActorID:   &userID,
			ChangedAt: now,
		}},
		Revision: 1,
	}
	if _, err := s.c.InsertOne(ctx, app); err != nil {
		return models.MembershipApplication{}, err
	}
	return app, nil
}

func (s *Store) ByID(ctx context.Context, id primitive.ObjectID) (models.MembershipApplication, error) {
	var app models.MembershipApplication
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&app)
	if err == mongo.ErrNoDocuments {
		return models.MembershipApplication{}, ErrNotFound
	}
	return app, err
}

// ListByStatus returns applications in a given state, oldest first.
func (s *Store) ListByStatus(ctx context.Context, status string) ([]models.MembershipApplication, error) {
	opts := options.Find().SetSort(bson.D{{Key: "submitted_at", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"status": status}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.MembershipApplication
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Resolution carries the fields set when an application leaves "submitted".
type Resolution struct {
	Status        string
	ResolvedAt    time.Time
	ReviewerID    *primitive.ObjectID
	Notes         string
	MeetingDate   *time.Time
	TermExpiresAt *time.Time
}

// ResolveSubmitted applies a terminal transition if and only if the
// application is still "submitted" at the given revision. It appends the
// matching history entry in the same write. Returns ErrStale when the
// condition no longer holds.
func (s *Store) ResolveSubmitted(ctx context.Context, id primitive.ObjectID, revision int64, res Resolution) error {
	set := bson.M{
		"status":      res.Status,
		"resolved_at": res.ResolvedAt.UTC(),
		"notes":       res.Notes,
	}
	if res.ReviewerID != nil {
		set["reviewer_id"] = *res.ReviewerID
	}
	if res.MeetingDate != nil {
		set["meeting_date"] = res.MeetingDate.UTC()
	}
	if res.TermExpiresAt != nil {
		set["term_expires_at"] = res.TermExpiresAt.UTC()
	}

	entry := models.ApplicationStateChange{
		Status:    res.Status,
		ActorID:   res.ReviewerID,
		Notes:     res.Notes,
		ChangedAt: res.ResolvedAt.UTC(),
	}

	out, err := s.c.UpdateOne(ctx,
		bson.M{
			"_id":      id,
			"status":   models.ApplicationSubmitted,
			"revision": revision,
		},
		bson.M{
			"$set":  set,
			"$push": bson.M{"state_history": entry},
			"$inc":  bson.M{"revision": 1},
		})
	if err != nil {
		return err
	}
	if out.MatchedCount == 0 {
		return ErrStale
	}
	return nil
}
