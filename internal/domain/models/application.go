// internal/domain/models/application.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Application statuses. "submitted" is the only non-terminal state.
const (
	ApplicationSubmitted = "submitted"
	ApplicationApproved  = "approved"
	ApplicationRejected  = "rejected"
	ApplicationWithdrawn = "withdrawn"
)

// MembershipApplication is a user's request to be granted (or upgraded to)
// a membership tier. Once resolved it never changes again; the revision
// counter backs the optimistic-concurrency check on resolution.
type MembershipApplication struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID        primitive.ObjectID `bson:"user_id" json:"user_id"`
	RequestedTier string             `bson:"requested_tier" json:"requested_tier"`
	Motivation    string             `bson:"motivation,omitempty" json:"motivation,omitempty"`

	Status      string    `bson:"status" json:"status"`
	SubmittedAt time.Time `bson:"submitted_at" json:"submitted_at"`

	// Resolution fields, set exactly once when the application leaves
	// "submitted".
	ResolvedAt    *time.Time          `bson:"resolved_at,omitempty" json:"resolved_at,omitempty"`
	ReviewerID    *primitive.ObjectID `bson:"reviewer_id,omitempty" json:"reviewer_id,omitempty"`
	Notes         string              `bson:"notes,omitempty" json:"notes,omitempty"`
	MeetingDate   *time.Time          `bson:"meeting_date,omitempty" json:"meeting_date,omitempty"`
	TermExpiresAt *time.Time          `bson:"term_expires_at,omitempty" json:"term_expires_at,omitempty"`

	// StateHistory is append-only; one entry per transition.
	StateHistory []ApplicationStateChange `bson:"state_history" json:"state_history"`

	// Revision is bumped on every write; resolutions are conditional on it.
	Revision int64 `bson:"revision" json:"revision"`
}

// ApplicationStateChange records one transition in an application's life.
type ApplicationStateChange struct {
	Status    string              `bson:"status" json:"status"`
	ActorID   *primitive.ObjectID `bson:"actor_id,omitempty" json:"actor_id,omitempty"`
	Notes     string              `bson:"notes,omitempty" json:"notes,omitempty"`
	ChangedAt time.Time           `bson:"changed_at" json:"changed_at"`
}

// Resolved reports whether the application is in a terminal state.
func (a MembershipApplication) Resolved() bool {
	return a.Status != ApplicationSubmitted
}
