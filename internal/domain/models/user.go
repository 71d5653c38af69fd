// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Membership status values. Status is derived by the compliance resolver;
// the field on User is a materialization refreshed by the status sweep.
const (
	StatusNone      = "none"
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusInactive  = "inactive"
	StatusSuspended = "suspended"
)

// User represents a person known to the organization: applicants, volunteers,
// leads, and board members alike.
//
// NOTE:
//   - Team membership is not embedded on User.
//     Use the team_memberships collection to discover a user's teams.
//   - Role grants live in the role_assignments collection.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName     string             `bson:"full_name" json:"full_name"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash,omitempty" json:"-"`

	// Profile gates that the compliance resolver checks before anything else.
	IsApproved  bool `bson:"is_approved" json:"is_approved"`
	IsSuspended bool `bson:"is_suspended" json:"is_suspended"`

	// Status is the materialized compliance status (see status constants).
	// It is recomputed from source facts by the nightly sweep, never trusted
	// as an input to resolution.
	Status string `bson:"status" json:"status"`

	// MembershipTier is copied from an application on approval.
	MembershipTier string `bson:"membership_tier,omitempty" json:"membership_tier,omitempty"`

	// TermExpiresAt is the computed renewal deadline for the current tier.
	TermExpiresAt *time.Time `bson:"term_expires_at,omitempty" json:"term_expires_at,omitempty"`

	// RenewalReminderSentAt marks that the pre-expiry reminder went out for
	// the current term. Cleared whenever a new term is computed.
	RenewalReminderSentAt *time.Time `bson:"renewal_reminder_sent_at,omitempty" json:"renewal_reminder_sent_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
