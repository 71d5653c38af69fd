// internal/domain/models/legaldocument.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LegalDocument is a document (terms, waiver, code of conduct) that members
// of a team may be required to acknowledge. The grace period applies
// uniformly to all of the document's versions.
type LegalDocument struct {
	ID     primitive.ObjectID `bson:"_id" json:"id"`
	TeamID primitive.ObjectID `bson:"team_id" json:"team_id"`
	Title  string             `bson:"title" json:"title"`

	IsRequired bool `bson:"is_required" json:"is_required"`
	IsActive   bool `bson:"is_active" json:"is_active"`

	// GracePeriodDays is the number of days after a version's effective date
	// during which missing consent does not yet count against compliance.
	GracePeriodDays int `bson:"grace_period_days" json:"grace_period_days"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// DocumentVersion is one revision of a LegalDocument. The current version at
// time t is the one with the greatest EffectiveFrom not exceeding t; versions
// with a future EffectiveFrom are ignored until they become effective.
type DocumentVersion struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	DocumentID primitive.ObjectID `bson:"document_id" json:"document_id"`
	Label      string             `bson:"label" json:"label"`

	EffectiveFrom time.Time `bson:"effective_from" json:"effective_from"`
	Body          string    `bson:"body,omitempty" json:"body,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// ConsentDeadline returns the instant at which missing consent for this
// version stops being excused by the document's grace period.
func (v DocumentVersion) ConsentDeadline(gracePeriodDays int) time.Time {
	return v.EffectiveFrom.AddDate(0, 0, gracePeriodDays)
}
