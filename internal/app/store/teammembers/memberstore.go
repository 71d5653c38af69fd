// internal/app/store/teammembers/memberstore.go
package teammemberstore

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

// Store manages team_memberships. History rows (left_at set) are retained;
// a partial unique index on (team_id, user_id) where left_at is absent
// enforces at most one active membership per pair at the storage boundary.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("team_memberships")}
}

var (
	ErrAlreadyMember = errors.New("user already has an active membership in this team")
	ErrNotMember     = errors.New("user has no active membership in this team")
)

// Join creates an active membership.
func (s *Store) Join(ctx context.Context, teamID, userID primitive.ObjectID, at time.Time) error {
	doc := models.TeamMembership{
		ID:       primitive.NewObjectID(),
		TeamID:   teamID,
		UserID:   userID,
		JoinedAt: at.UTC(),
	}
	if _, err := s.c.InsertOne(ctx, doc); err != nil {
		if wafflemongo.IsDup(err) {
			return ErrAlreadyMember
		}
		return err
	}
	return nil
}

// Leave closes the active membership by setting left_at. The history row
// stays behind.
func (s *Store) Leave(ctx context.Context, teamID, userID primitive.ObjectID, at time.Time) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"team_id": teamID, "user_id": userID, "left_at": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"left_at": at.UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotMember
	}
	return nil
}

// IsActiveMember reports whether the user's membership in the team was
// active at now.
func (s *Store) IsActiveMember(ctx context.Context, teamID, userID primitive.ObjectID, now time.Time) (bool, error) {
	err := s.c.FindOne(ctx, activeFilter(bson.M{"team_id": teamID, "user_id": userID}, now)).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ActiveTeamIDsForUser returns the teams the user was an active member of at now.
func (s *Store) ActiveTeamIDsForUser(ctx context.Context, userID primitive.ObjectID, now time.Time) ([]primitive.ObjectID, error) {
	cur, err := s.c.Find(ctx, activeFilter(bson.M{"user_id": userID}, now))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var m models.TeamMembership
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		ids = append(ids, m.TeamID)
	}
	return ids, cur.Err()
}

// ActiveUserIDsForTeam returns every user with an active membership in the
// team at now.
func (s *Store) ActiveUserIDsForTeam(ctx context.Context, teamID primitive.ObjectID, now time.Time) ([]primitive.ObjectID, error) {
	cur, err := s.c.Find(ctx, activeFilter(bson.M{"team_id": teamID}, now))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var m models.TeamMembership
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		ids = append(ids, m.UserID)
	}
	return ids, cur.Err()
}

// ActiveByUsers loads active memberships for the whole input set in one
// query, partitioned by user. Users with none are absent from the map.
func (s *Store) ActiveByUsers(ctx context.Context, userIDs []primitive.ObjectID, now time.Time) (map[primitive.ObjectID][]models.TeamMembership, error) {
	out := make(map[primitive.ObjectID][]models.TeamMembership)
	if len(userIDs) == 0 {
		return out, nil
	}

	cur, err := s.c.Find(ctx, activeFilter(bson.M{"user_id": bson.M{"$in": userIDs}}, now))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var m models.TeamMembership
		if err := cur.Decode(&m); err != nil {
			return nil, err
		}
		out[m.UserID] = append(out[m.UserID], m)
	}
	return out, cur.Err()
}

// activeFilter restricts a filter to memberships active at now:
// joined_at <= now AND (left_at unset OR left_at > now).
func activeFilter(base bson.M, now time.Time) bson.M {
	base["joined_at"] = bson.M{"$lte": now}
	base["$or"] = bson.A{
		bson.M{"left_at": bson.M{"$exists": false}},
		bson.M{"left_at": nil},
		bson.M{"left_at": bson.M{"$gt": now}},
	}
	return base
}
