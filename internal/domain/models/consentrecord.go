// internal/domain/models/consentrecord.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ConsentRecord is a user's acknowledgment of one document version.
//
// Records are immutable: the consent store exposes insert and read only, and
// the collection carries a unique (user_id, version_id) index. Nothing in
// this codebase updates or deletes a consent record once written.
type ConsentRecord struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	VersionID primitive.ObjectID `bson:"version_id" json:"version_id"`

	ExplicitConsent bool      `bson:"explicit_consent" json:"explicit_consent"`
	ConsentedAt     time.Time `bson:"consented_at" json:"consented_at"`
}
