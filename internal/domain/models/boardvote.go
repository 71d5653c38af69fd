// internal/domain/models/boardvote.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Vote choices.
const (
	VoteYes     = "yes"
	VoteNo      = "no"
	VoteAbstain = "abstain"
)

// BoardVote is one board member's vote on a membership application, unique
// per (application, voter). All votes for an application are deleted in bulk
// when the application is resolved; individual ballots are not retained past
// the decision.
type BoardVote struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ApplicationID primitive.ObjectID `bson:"application_id" json:"application_id"`
	VoterID       primitive.ObjectID `bson:"voter_id" json:"voter_id"`

	Choice string `bson:"choice" json:"choice"`
	Note   string `bson:"note,omitempty" json:"note,omitempty"`

	CastAt time.Time `bson:"cast_at" json:"cast_at"`
}
