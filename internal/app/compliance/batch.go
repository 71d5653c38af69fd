// internal/app/compliance/batch.go
package compliance

import (
	"context"
	"time"

	"github.com/peterdrier/volunteerhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The batch forms exist purely for efficiency: each loads its inputs in a
// bounded number of round trips (one per source) regardless of population
// size, and each must produce exactly the result of running the single-user
// form once per id. The equivalence is covered by tests, not assumed.

// UsersWithAllRequiredConsents returns the subset of userIDs holding a
// consent record for every currently required version of the team's
// documents. With zero required documents every user qualifies.
func (r *Resolver) UsersWithAllRequiredConsents(ctx context.Context, userIDs []primitive.ObjectID, teamID primitive.ObjectID, now time.Time) (map[primitive.ObjectID]struct{}, error) {
	out := make(map[primitive.ObjectID]struct{})
	if len(userIDs) == 0 {
		return out, nil
	}

	required, err := r.CurrentRequiredVersions(ctx, teamID, now)
	if err != nil {
		return nil, err
	}
	if len(required) == 0 {
		for _, id := range userIDs {
			out[id] = struct{}{}
		}
		return out, nil
	}

	consents, err := r.consents.VersionIDsByUsers(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	for _, id := range userIDs {
		set := consents[id]
		all := true
		for _, rv := range required {
			if _, ok := set[rv.Version.ID]; !ok {
				all = false
				break
			}
		}
		if all {
			out[id] = struct{}{}
		}
	}
	return out, nil
}

// HasExpiredConsents reports whether the user is missing consent for any
// currently required global version whose grace period has run out. This is
// the single-user form that UsersWithAnyExpiredConsents must agree with.
func (r *Resolver) HasExpiredConsents(ctx context.Context, userID primitive.ObjectID, now time.Time) (bool, error) {
	e, err := r.loadEnv(ctx, now)
	if err != nil {
		return false, err
	}
	consented, err := r.consents.VersionIDsByUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return hasExpired(e.globalRequired, consented, now), nil
}

// UsersWithAnyExpiredConsents returns the subset of userIDs missing consent
// for at least one required global version past its grace period.
func (r *Resolver) UsersWithAnyExpiredConsents(ctx context.Context, userIDs []primitive.ObjectID, now time.Time) (map[primitive.ObjectID]struct{}, error) {
	out := make(map[primitive.ObjectID]struct{})
	if len(userIDs) == 0 {
		return out, nil
	}

	e, err := r.loadEnv(ctx, now)
	if err != nil {
		return nil, err
	}
	consents, err := r.consents.VersionIDsByUsers(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	for _, id := range userIDs {
		if hasExpired(e.globalRequired, consents[id], now) {
			out[id] = struct{}{}
		}
	}
	return out, nil
}

func hasExpired(required []RequiredVersion, consented map[primitive.ObjectID]struct{}, now time.Time) bool {
	for _, rv := range required {
		if _, ok := consented[rv.Version.ID]; ok {
			continue
		}
		if !now.Before(rv.Version.ConsentDeadline(rv.Document.GracePeriodDays)) {
			return true
		}
	}
	return false
}

// StatusesForUsers resolves statuses for the whole input set with one query
// per source: users, roles, memberships, required documents (two queries:
// documents and versions), consents. Results are identical to calling
// Status once per id.
func (r *Resolver) StatusesForUsers(ctx context.Context, userIDs []primitive.ObjectID, now time.Time) (map[primitive.ObjectID]string, error) {
	out := make(map[primitive.ObjectID]string, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	users, err := r.users.ByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	e, err := r.loadEnv(ctx, now)
	if err != nil {
		return nil, err
	}
	roles, err := r.roles.ActiveByUsers(ctx, userIDs, now)
	if err != nil {
		return nil, err
	}
	memberships, err := r.memberships.ActiveByUsers(ctx, userIDs, now)
	if err != nil {
		return nil, err
	}
	consents, err := r.consents.VersionIDsByUsers(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	for _, id := range userIDs {
		u, ok := users[id]
		if !ok {
			out[id] = models.StatusNone
			continue
		}
		isVolunteer := false
		for _, m := range memberships[id] {
			if m.TeamID == e.volunteersTeam.ID {
				isVolunteer = true
				break
			}
		}
		out[id] = evaluate(u, len(roles[id]) > 0, isVolunteer, e.globalRequired, consents[id], now)
	}
	return out, nil
}

// UsersRequiringStatusUpdate returns the ids of users whose materialized
// status differs from the freshly computed one. The sweep persists the
// computed value for each id returned here; re-running it is idempotent
// because status is recomputed from source facts every time.
func (r *Resolver) UsersRequiringStatusUpdate(ctx context.Context, now time.Time) ([]primitive.ObjectID, error) {
	ids, err := r.users.AllIDs(ctx)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	users, err := r.users.ByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	statuses, err := r.StatusesForUsers(ctx, ids, now)
	if err != nil {
		return nil, err
	}

	var out []primitive.ObjectID
	for _, id := range ids {
		if u, ok := users[id]; ok && u.Status != statuses[id] {
			out = append(out, id)
		}
	}
	return out, nil
}
