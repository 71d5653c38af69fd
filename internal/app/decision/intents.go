// internal/app/decision/intents.go
package decision

import "go.mongodb.org/mongo-driver/bson/primitive"

// IntentType names a side effect a transition asks for. The state machine
// only emits intents; a separate dispatcher executes them after the
// transition commits and retries them on its own schedule.
type IntentType string

const (
	IntentNotifyUserApproved        IntentType = "notify-user-approved"
	IntentNotifyUserRejected        IntentType = "notify-user-rejected"
	IntentSyncTeamMembershipForTier IntentType = "sync-team-membership-for-tier"
)

// Intent describes one side effect to be executed out-of-band.
type Intent struct {
	Type          IntentType         `json:"type"`
	UserID        primitive.ObjectID `json:"user_id"`
	ApplicationID primitive.ObjectID `json:"application_id"`
	// Tier is set for tier-related intents (team sync).
	Tier string `json:"tier,omitempty"`
}

// Code classifies why a transition was refused.
type Code string

const (
	CodeNone                   Code = ""
	CodeNotFound               Code = "not_found"
	CodeInvalidStateTransition Code = "invalid_state_transition"
	CodeConcurrencyConflict    Code = "concurrency_conflict"
	CodeValidationFailure      Code = "validation_failure"
)

// Result is the discriminated outcome of a transition attempt. Callers
// branch on OK/Code rather than on error values; the error return of the
// transition methods is reserved for infrastructure failures.
type Result struct {
	OK      bool     `json:"ok"`
	Code    Code     `json:"code,omitempty"`
	Intents []Intent `json:"intents,omitempty"`
}

func refused(code Code) Result {
	return Result{OK: false, Code: code}
}
