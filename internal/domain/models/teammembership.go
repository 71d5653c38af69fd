// internal/domain/models/teammembership.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TeamMembership is the authoritative join between users and teams.
// A membership is active while LeftAt is unset. The owning store enforces at
// most one active membership per (team, user); history rows with LeftAt set
// are retained.
type TeamMembership struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TeamID   primitive.ObjectID `bson:"team_id" json:"team_id"`
	UserID   primitive.ObjectID `bson:"user_id" json:"user_id"`
	JoinedAt time.Time          `bson:"joined_at" json:"joined_at"`
	LeftAt   *time.Time         `bson:"left_at,omitempty" json:"left_at,omitempty"`
}

// ActiveAt reports whether the membership was active at the given instant.
func (m TeamMembership) ActiveAt(now time.Time) bool {
	if now.Before(m.JoinedAt) {
		return false
	}
	return m.LeftAt == nil || now.Before(*m.LeftAt)
}
