// internal/app/compliance/resolver.go

// Package compliance derives a user's membership status from time-windowed
// role grants, team membership, and versioned document consent.
//
// Status is always recomputed from source facts; the materialized status on
// the user document is an output of this package (via the sweep), never an
// input. All operations here are pure reads, safe for any number of
// concurrent callers. Per-call lookups (the well-known volunteers team, the
// required document versions) live in an env value created inside each call
// and threaded explicitly, never cached on the Resolver.
package compliance

import (
	"context"
	"errors"
	"time"

	userstore "github.com/peterdrier/volunteerhub/internal/app/store/users"
	"github.com/peterdrier/volunteerhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserSource supplies user profiles.
type UserSource interface {
	ByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
	ByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error)
	AllIDs(ctx context.Context) ([]primitive.ObjectID, error)
}

// RoleSource supplies role assignments filtered to active windows.
type RoleSource interface {
	ActiveByUser(ctx context.Context, userID primitive.ObjectID, now time.Time) ([]models.RoleAssignment, error)
	ActiveByUsers(ctx context.Context, userIDs []primitive.ObjectID, now time.Time) (map[primitive.ObjectID][]models.RoleAssignment, error)
}

// TeamSource supplies teams.
type TeamSource interface {
	BySystemType(ctx context.Context, systemType string) (models.Team, error)
	ByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.Team, error)
}

// MembershipSource supplies team memberships filtered to active rows.
type MembershipSource interface {
	ActiveTeamIDsForUser(ctx context.Context, userID primitive.ObjectID, now time.Time) ([]primitive.ObjectID, error)
	ActiveByUsers(ctx context.Context, userIDs []primitive.ObjectID, now time.Time) (map[primitive.ObjectID][]models.TeamMembership, error)
}

// DocumentSource supplies required documents and their effective versions.
type DocumentSource interface {
	RequiredActiveByTeams(ctx context.Context, teamIDs []primitive.ObjectID) ([]models.LegalDocument, error)
	EffectiveVersionsForDocuments(ctx context.Context, documentIDs []primitive.ObjectID, now time.Time) ([]models.DocumentVersion, error)
}

// ConsentSource supplies the consent ledger's read side.
type ConsentSource interface {
	VersionIDsByUser(ctx context.Context, userID primitive.ObjectID) (map[primitive.ObjectID]struct{}, error)
	VersionIDsByUsers(ctx context.Context, userIDs []primitive.ObjectID) (map[primitive.ObjectID]map[primitive.ObjectID]struct{}, error)
}

// Resolver combines the sources into status resolution. It holds no mutable
// state and may be shared freely across goroutines.
type Resolver struct {
	users       UserSource
	roles       RoleSource
	teams       TeamSource
	memberships MembershipSource
	documents   DocumentSource
	consents    ConsentSource
}

// New creates a Resolver over the given sources.
func New(users UserSource, roles RoleSource, teams TeamSource, memberships MembershipSource, documents DocumentSource, consents ConsentSource) *Resolver {
	return &Resolver{
		users:       users,
		roles:       roles,
		teams:       teams,
		memberships: memberships,
		documents:   documents,
		consents:    consents,
	}
}

// env is the per-call memoization context: the globally applicable facts a
// resolution needs, loaded once per logical call and passed by value. It is
// never stored on the Resolver (see the package comment).
type env struct {
	volunteersTeam models.Team
	// required versions of the volunteers team's documents at the call's
	// "now" — the global scope used for status step 4.
	globalRequired []RequiredVersion
}

// loadEnv gathers the global facts for one resolution call.
func (r *Resolver) loadEnv(ctx context.Context, now time.Time) (env, error) {
	team, err := r.teams.BySystemType(ctx, models.SystemTeamVolunteers)
	if err != nil {
		return env{}, err
	}
	required, err := r.CurrentRequiredVersions(ctx, team.ID, now)
	if err != nil {
		return env{}, err
	}
	return env{volunteersTeam: team, globalRequired: required}, nil
}

// Status resolves a single user's membership status at now.
//
// An unknown user id resolves to "none": resolution never raises business
// errors, and a user the system has no record of simply is not a member.
func (r *Resolver) Status(ctx context.Context, userID primitive.ObjectID, now time.Time) (string, error) {
	u, err := r.users.ByID(ctx, userID)
	if err != nil {
		if errors.Is(err, userstore.ErrNotFound) {
			return models.StatusNone, nil
		}
		return "", err
	}

	e, err := r.loadEnv(ctx, now)
	if err != nil {
		return "", err
	}

	roles, err := r.roles.ActiveByUser(ctx, userID, now)
	if err != nil {
		return "", err
	}
	teamIDs, err := r.memberships.ActiveTeamIDsForUser(ctx, userID, now)
	if err != nil {
		return "", err
	}
	consented, err := r.consents.VersionIDsByUser(ctx, userID)
	if err != nil {
		return "", err
	}

	return evaluate(u, len(roles) > 0, containsID(teamIDs, e.volunteersTeam.ID), e.globalRequired, consented, now), nil
}

// evaluate applies the status priority order. First match wins; this is a
// strict priority, not a set of independent flags.
func evaluate(u models.User, hasActiveRole, isVolunteerMember bool, required []RequiredVersion, consented map[primitive.ObjectID]struct{}, now time.Time) string {
	if u.IsSuspended {
		return models.StatusSuspended
	}
	if !u.IsApproved {
		return models.StatusPending
	}
	if !hasActiveRole && !isVolunteerMember {
		return models.StatusNone
	}
	for _, rv := range required {
		if _, ok := consented[rv.Version.ID]; ok {
			continue
		}
		// Missing consent only counts once the grace period has run out.
		if !now.Before(rv.Version.ConsentDeadline(rv.Document.GracePeriodDays)) {
			return models.StatusInactive
		}
	}
	return models.StatusActive
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
