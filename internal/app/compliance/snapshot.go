// internal/app/compliance/snapshot.go
package compliance

import (
	"context"
	"errors"
	"time"

	userstore "github.com/peterdrier/volunteerhub/internal/app/store/users"
	"github.com/peterdrier/volunteerhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Snapshot is the detailed compliance picture for one user. Status follows
// the same priority order as Status; the counts cover the required versions
// across every team the user is eligible for (the multi-team union), not
// just the global scope used for status.
//
// MissingCount and MissingVersionIDs report versions lacking a consent
// record regardless of grace period: a version inside its grace window is
// still missing, it just does not affect status yet.
type Snapshot struct {
	UserID            primitive.ObjectID   `json:"user_id"`
	Status            string               `json:"status"`
	IsVolunteerMember bool                 `json:"is_volunteer_member"`
	RequiredCount     int                  `json:"required_count"`
	MissingCount      int                  `json:"missing_count"`
	MissingVersionIDs []primitive.ObjectID `json:"missing_version_ids"`
}

// Snapshot resolves the full compliance picture for one user at now.
func (r *Resolver) Snapshot(ctx context.Context, userID primitive.ObjectID, now time.Time) (Snapshot, error) {
	snap := Snapshot{UserID: userID, Status: models.StatusNone}

	u, err := r.users.ByID(ctx, userID)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			return snap, nil
		}
		return Snapshot{}, err
	}

	e, err := r.loadEnv(ctx, now)
	if err != nil {
		return Snapshot{}, err
	}

	roles, err := r.roles.ActiveByUser(ctx, userID, now)
	if err != nil {
		return Snapshot{}, err
	}
	memberOf, err := r.memberships.ActiveTeamIDsForUser(ctx, userID, now)
	if err != nil {
		return Snapshot{}, err
	}
	consented, err := r.consents.VersionIDsByUser(ctx, userID)
	if err != nil {
		return Snapshot{}, err
	}

	snap.IsVolunteerMember = containsID(memberOf, e.volunteersTeam.ID)
	snap.Status = evaluate(u, len(roles) > 0, snap.IsVolunteerMember, e.globalRequired, consented, now)

	// The counts walk the multi-team union, deduplicated by version.
	teamIDs, err := r.RequiredTeamIDsForUser(ctx, userID, now)
	if err != nil {
		return Snapshot{}, err
	}
	required, err := r.currentRequiredForTeams(ctx, teamIDs, now)
	if err != nil {
		return Snapshot{}, err
	}

	seen := make(map[primitive.ObjectID]struct{}, len(required))
	for _, rv := range required {
		if _, dup := seen[rv.Version.ID]; dup {
			continue
		}
		seen[rv.Version.ID] = struct{}{}
		snap.RequiredCount++
		if _, ok := consented[rv.Version.ID]; !ok {
			snap.MissingCount++
			snap.MissingVersionIDs = append(snap.MissingVersionIDs, rv.Version.ID)
		}
	}
	return snap, nil
}
