// internal/app/store/consents/consentstore.go
package consentstore

import (
	"context"
	"errors"
	"time"

	"github.com/peterdrier/volunteerhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Store is the append-only consent ledger. It exposes insert and read only:
// consent records are immutable at the storage boundary, backed by a unique
// (user_id, version_id) index. There is no update or delete here, and there
// must never be one.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("consent_records")}
}

// ErrAlreadyRecorded is returned when a consent record for the
// (user, version) pair already exists. The existing record stands.
var ErrAlreadyRecorded = errors.New("consent already recorded for this version")

// Record appends a consent record.
func (s *Store) Record(ctx context.Context, userID, versionID primitive.ObjectID, explicit bool) error {
	doc := models.ConsentRecord{
		ID:              primitive.NewObjectID(),
		UserID:          userID,
		VersionID:       versionID,
		ExplicitConsent: explicit,
		ConsentedAt:     time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, doc); err != nil {
		if wafflemongo.IsDup(err) {
			return ErrAlreadyRecorded
		}
		return err
	}
	return nil
}

// VersionIDsByUser returns the set of version ids the user has explicitly
// consented to.
func (s *Store) VersionIDsByUser(ctx context.Context, userID primitive.ObjectID) (map[primitive.ObjectID]struct{}, error) {
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID, "explicit_consent": true})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make(map[primitive.ObjectID]struct{})
	for cur.Next(ctx) {
		var r models.ConsentRecord
		if err := cur.Decode(&r); err != nil {
			return nil, err
		}
		out[r.VersionID] = struct{}{}
	}
	return out, cur.Err()
}

// VersionIDsByUsers is the batched form: one query for the whole input set,
// partitioned by user. Every requested user gets an entry, empty when they
// have no records. This exists to keep population-wide compliance sweeps
// from collapsing into per-user round trips.
func (s *Store) VersionIDsByUsers(ctx context.Context, userIDs []primitive.ObjectID) (map[primitive.ObjectID]map[primitive.ObjectID]struct{}, error) {
	out := make(map[primitive.ObjectID]map[primitive.ObjectID]struct{}, len(userIDs))
	for _, id := range userIDs {
		out[id] = make(map[primitive.ObjectID]struct{})
	}
	if len(userIDs) == 0 {
		return out, nil
	}

	cur, err := s.c.Find(ctx, bson.M{
		"user_id":          bson.M{"$in": userIDs},
		"explicit_consent": true,
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var r models.ConsentRecord
		if err := cur.Decode(&r); err != nil {
			return nil, err
		}
		set, ok := out[r.UserID]
		if !ok {
			set = make(map[primitive.ObjectID]struct{})
			out[r.UserID] = set
		}
		set[r.VersionID] = struct{}{}
	}
	return out, cur.Err()
}

// ByUser lists a user's consent records, most recent first.
func (s *Store) ByUser(ctx context.Context, userID primitive.ObjectID) ([]models.ConsentRecord, error) {
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.ConsentRecord
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Exists reports whether a record exists for the pair.
func (s *Store) Exists(ctx context.Context, userID, versionID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"user_id": userID, "version_id": versionID}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
