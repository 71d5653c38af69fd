// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Actions recorded in the audit trail.
const (
	ActionApplicationSubmitted = "application_submitted"
	ActionApplicationApproved  = "application_approved"
	ActionApplicationRejected  = "application_rejected"
	ActionApplicationWithdrawn = "application_withdrawn"
	ActionConsentRecorded      = "consent_recorded"
	ActionStatusUpdated        = "status_updated"
	ActionRoleGranted          = "role_granted"
	ActionRoleEnded            = "role_ended"
	ActionTeamJoined           = "team_joined"
	ActionTeamLeft             = "team_left"
)

// Entity types referenced by audit entries.
const (
	EntityApplication = "application"
	EntityUser        = "user"
	EntityConsent     = "consent"
	EntityRole        = "role_assignment"
	EntityTeam        = "team"
)

// Entry is one audit record: what happened, to which entity, by whom.
type Entry struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Timestamp   time.Time          `bson:"timestamp"`
	Action      string             `bson:"action"`
	EntityType  string             `bson:"entity_type"`
	EntityID    primitive.ObjectID `bson:"entity_id"`
	Description string             `bson:"description,omitempty"`

	ActorID   *primitive.ObjectID `bson:"actor_id,omitempty"`
	ActorName string              `bson:"actor_name,omitempty"`
}

// Store persists audit entries. Entries are append-only; nothing here
// updates or deletes them.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// Insert appends an entry, stamping the timestamp if unset.
func (s *Store) Insert(ctx context.Context, e Entry) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, e)
	return err
}

// QueryFilter narrows List results. Zero values mean "no filter".
type QueryFilter struct {
	EntityType string
	EntityID   *primitive.ObjectID
	ActorID    *primitive.ObjectID
	Action     string
	Limit      int64
}

// List returns matching entries, most recent first.
func (s *Store) List(ctx context.Context, f QueryFilter) ([]Entry, error) {
	filter := bson.M{}
	if f.EntityType != "" {
		filter["entity_type"] = f.EntityType
	}
	if f.EntityID != nil {
		filter["entity_id"] = *f.EntityID
	}
	if f.ActorID != nil {
		filter["actor_id"] = *f.ActorID
	}
	if f.Action != "" {
		filter["action"] = f.Action
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []Entry
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
