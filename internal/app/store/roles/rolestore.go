// internal/app/store/roles/rolestore.go
package rolestore

import (
	"context"
	"errors"
	"time"

	"github.com/peterdrier/volunteerhub/internal/app/system/interval"
	"github.com/peterdrier/volunteerhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Store manages role_assignments. Grants are history-preserving: ending a
// grant sets valid_to, nothing is ever physically removed.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("role_assignments")}
}

var (
	// ErrInvalidWindow is returned when valid_to is not strictly after valid_from.
	ErrInvalidWindow = errors.New("valid_to must be after valid_from")
	// ErrOverlappingWindow is returned when a new grant's window overlaps an
	// existing grant for the same (user, role) pair.
	ErrOverlappingWindow = errors.New("overlapping role assignment for user")

	ErrNotFound = errors.New("role assignment not found")
)

// Add creates a role assignment after checking the window invariant and the
// overlap precondition against the user's existing grants for the same role.
// The overlap check is a precondition, not a stored constraint: concurrent
// admin actions are rare enough that the admin surface serializes them.
func (s *Store) Add(ctx context.Context, a models.RoleAssignment) (primitive.ObjectID, error) {
	if a.ValidTo != nil && !a.ValidTo.After(a.ValidFrom) {
		return primitive.NilObjectID, ErrInvalidWindow
	}

	existing, err := s.byUserAndRole(ctx, a.UserID, a.Role)
	if err != nil {
		return primitive.NilObjectID, err
	}
	next := interval.Window{From: a.ValidFrom, To: a.ValidTo}
	for _, e := range existing {
		if interval.Overlaps(next, interval.Window{From: e.ValidFrom, To: e.ValidTo}) {
			return primitive.NilObjectID, ErrOverlappingWindow
		}
	}

	a.ID = primitive.NewObjectID()
	a.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		return primitive.NilObjectID, err
	}
	return a.ID, nil
}

// End closes an open grant by setting valid_to. Ending at or before
// valid_from is rejected to preserve the window invariant.
func (s *Store) End(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	var a models.RoleAssignment
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&a); err != nil {
		if err == mongo.ErrNoDocuments {
			return ErrNotFound
		}
		return err
	}
	if !at.After(a.ValidFrom) {
		return ErrInvalidWindow
	}
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"valid_to": at.UTC()}})
	return err
}

func (s *Store) byUserAndRole(ctx context.Context, userID primitive.ObjectID, role string) ([]models.RoleAssignment, error) {
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID, "role": role})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.RoleAssignment
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ActiveByUser returns the user's role assignments whose window contains now.
func (s *Store) ActiveByUser(ctx context.Context, userID primitive.ObjectID, now time.Time) ([]models.RoleAssignment, error) {
	cur, err := s.c.Find(ctx, activeFilter(bson.M{"user_id": userID}, now))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.RoleAssignment
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ActiveByUsers returns active assignments for the whole input set in one
// query, partitioned by user. Users with no active grants are absent from
// the map; callers treat absence as the empty slice.
func (s *Store) ActiveByUsers(ctx context.Context, userIDs []primitive.ObjectID, now time.Time) (map[primitive.ObjectID][]models.RoleAssignment, error) {
	out := make(map[primitive.ObjectID][]models.RoleAssignment)
	if len(userIDs) == 0 {
		return out, nil
	}

	cur, err := s.c.Find(ctx, activeFilter(bson.M{"user_id": bson.M{"$in": userIDs}}, now))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var a models.RoleAssignment
		if err := cur.Decode(&a); err != nil {
			return nil, err
		}
		out[a.UserID] = append(out[a.UserID], a)
	}
	return out, cur.Err()
}

// activeFilter restricts a filter to windows containing now:
// valid_from <= now AND (valid_to unset OR valid_to > now).
func activeFilter(base bson.M, now time.Time) bson.M {
	base["valid_from"] = bson.M{"$lte": now}
	base["$or"] = bson.A{
		bson.M{"valid_to": bson.M{"$exists": false}},
		bson.M{"valid_to": nil},
		bson.M{"valid_to": bson.M{"$gt": now}},
	}
	return base
}
