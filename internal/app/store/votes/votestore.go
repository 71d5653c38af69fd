// internal/app/store/votes/votestore.go
package votestore

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

// Store manages board_votes. One vote per (application, voter), enforced by
// a unique index; casting again replaces the earlier ballot. All votes for
// an application are erased in bulk once it is resolved.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("board_votes")}
}

var ErrBadChoice = errors.New(`choice must be "yes", "no", or "abstain"`)

// Cast records or replaces a board member's vote on an application.
func (s *Store) Cast(ctx context.Context, applicationID, voterID primitive.ObjectID, choice, note string) error {
	if choice != models.VoteYes && choice != models.VoteNo && choice != models.VoteAbstain {
		return ErrBadChoice
	}
	opts := options.Update().SetUpsert(true)
	_, err := s.c.UpdateOne(ctx,
		bson.M{"application_id": applicationID, "voter_id": voterID},
		bson.M{"$set": bson.M{
			"choice":  choice,
			"note":    note,
			"cast_at": time.Now().UTC(),
		}},
		opts)
	return err
}

// ListByApplication returns the ballots for an application.
func (s *Store) ListByApplication(ctx context.Context, applicationID primitive.ObjectID) ([]models.BoardVote, error) {
	cur, err := s.c.Find(ctx, bson.M{"application_id": applicationID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.BoardVote
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Tally counts ballots per choice in one aggregation.
func (s *Store) Tally(ctx context.Context, applicationID primitive.ObjectID) (map[string]int, error) {
	cur, err := s.c.Aggregate(ctx, []bson.M{
		{"$match": bson.M{"application_id": applicationID}},
		{"$group": bson.M{"_id": "$choice", "n": bson.M{"$sum": 1}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make(map[string]int)
	for cur.Next(ctx) {
		var row struct {
			Choice string `bson:"_id"`
			N      int    `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.Choice] = row.N
	}
	return out, cur.Err()
}

// DeleteByApplication erases every ballot for an application. Called once
// when the application is resolved; individual votes are not retained past
// the decision. Returns the number of ballots deleted.
func (s *Store) DeleteByApplication(ctx context.Context, applicationID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"application_id": applicationID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
