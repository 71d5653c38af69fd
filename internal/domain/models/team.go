// internal/domain/models/team.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// System team classifications. User-created teams have an empty SystemType.
// The classification is immutable after creation.
const (
	SystemTeamNone       = ""
	SystemTeamVolunteers = "volunteers" // global team; its documents apply to everyone
	SystemTeamLeads      = "leads"
	SystemTeamBoard      = "board"
	SystemTeamTier       = "tier" // one per membership tier, paired with Tier
)

// Team is a group of users. System teams ("volunteers", "leads", "board",
// tier teams) carry organization-wide meaning; everything else is a
// user-created working team.
type Team struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`

	SystemType string `bson:"system_type,omitempty" json:"system_type,omitempty"`
	// Tier identifies which membership tier this team corresponds to.
	// Only set when SystemType is "tier".
	Tier string `bson:"tier,omitempty" json:"tier,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsSystem reports whether the team carries a system classification.
func (t Team) IsSystem() bool {
	return t.SystemType != SystemTeamNone
}
