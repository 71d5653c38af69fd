// internal/domain/models/roleassignment.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role names used by resolution. Other role names may exist; the resolver
// only attaches meaning to these.
const (
	RoleVolunteer = "volunteer"
	RoleLead      = "lead"
	RoleBoard     = "board"
)

// RoleAssignment grants a user a role for a half-open validity window
// [ValidFrom, ValidTo). A nil ValidTo means the grant is open-ended.
//
// Assignments are never physically removed: ending a grant sets ValidTo.
// ValidTo, when set, is strictly greater than ValidFrom (checked on write).
type RoleAssignment struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID primitive.ObjectID `bson:"user_id" json:"user_id"`
	Role   string             `bson:"role" json:"role"`

	// TeamID scopes the role to a team (e.g. a "lead" grant for one working
	// team). Unset for organization-wide roles.
	TeamID *primitive.ObjectID `bson:"team_id,omitempty" json:"team_id,omitempty"`

	ValidFrom time.Time  `bson:"valid_from" json:"valid_from"`
	ValidTo   *time.Time `bson:"valid_to,omitempty" json:"valid_to,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
