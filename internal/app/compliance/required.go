// internal/app/compliance/required.go
package compliance

import (
	"context"
	"time"

	"github.com/peterdrier/volunteerhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RequiredVersion pairs a required document with its currently effective
// version.
type RequiredVersion struct {
	Document models.LegalDocument
	Version  models.DocumentVersion
}

// CurrentRequiredVersions returns the currently effective version of every
// required, active document for the team at now. A team with no such
// documents yields an empty slice: compliance is vacuously satisfied.
func (r *Resolver) CurrentRequiredVersions(ctx context.Context, teamID primitive.ObjectID, now time.Time) ([]RequiredVersion, error) {
	return r.currentRequiredForTeams(ctx, []primitive.ObjectID{teamID}, now)
}

// RequiredVersionsForUser returns the currently effective required versions
// across every team in the user's compliance scope, deduplicated by version.
func (r *Resolver) RequiredVersionsForUser(ctx context.Context, userID primitive.ObjectID, now time.Time) ([]RequiredVersion, error) {
	teamIDs, err := r.RequiredTeamIDsForUser(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	required, err := r.currentRequiredForTeams(ctx, teamIDs, now)
	if err != nil {
		return nil, err
	}
	seen := make(map[primitive.ObjectID]struct{}, len(required))
	out := required[:0]
	for _, rv := range required {
		if _, dup := seen[rv.Version.ID]; dup {
			continue
		}
		seen[rv.Version.ID] = struct{}{}
		out = append(out, rv)
	}
	return out, nil
}

// currentRequiredForTeams is the multi-team form: one document query and one
// version query regardless of how many teams are in scope.
func (r *Resolver) currentRequiredForTeams(ctx context.Context, teamIDs []primitive.ObjectID, now time.Time) ([]RequiredVersion, error) {
	docs, err := r.documents.RequiredActiveByTeams(ctx, teamIDs)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}

	docIDs := make([]primitive.ObjectID, 0, len(docs))
	for _, d := range docs {
		docIDs = append(docIDs, d.ID)
	}
	versions, err := r.documents.EffectiveVersionsForDocuments(ctx, docIDs, now)
	if err != nil {
		return nil, err
	}

	return selectCurrent(docs, versions), nil
}

// selectCurrent keeps, per document, the version with the greatest
// effective_from. Versions sharing an effective timestamp should not exist;
// when they do, the most recently created (greatest id) wins. Documents
// with no effective version yet are omitted: a document whose first version
// lies in the future requires nothing today.
func selectCurrent(docs []models.LegalDocument, versions []models.DocumentVersion) []RequiredVersion {
	byDoc := make(map[primitive.ObjectID]models.DocumentVersion)
	for _, v := range versions {
		cur, ok := byDoc[v.DocumentID]
		if !ok {
			byDoc[v.DocumentID] = v
			continue
		}
		if v.EffectiveFrom.After(cur.EffectiveFrom) {
			byDoc[v.DocumentID] = v
			continue
		}
		if v.EffectiveFrom.Equal(cur.EffectiveFrom) && v.ID.Hex() > cur.ID.Hex() {
			byDoc[v.DocumentID] = v
		}
	}

	var out []RequiredVersion
	for _, d := range docs {
		if v, ok := byDoc[d.ID]; ok {
			out = append(out, RequiredVersion{Document: d, Version: v})
		}
	}
	return out
}

// RequiredTeamIDsForUser returns the deduplicated set of teams whose
// required documents apply to the user at now: every team the user is an
// active member of, always the global volunteers team, and the leads team
// when the user holds an active lead role on a non-system team.
func (r *Resolver) RequiredTeamIDsForUser(ctx context.Context, userID primitive.ObjectID, now time.Time) ([]primitive.ObjectID, error) {
	seen := make(map[primitive.ObjectID]struct{})
	var out []primitive.ObjectID
	add := func(id primitive.ObjectID) {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}

	memberOf, err := r.memberships.ActiveTeamIDsForUser(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	for _, id := range memberOf {
		add(id)
	}

	volunteers, err := r.teams.BySystemType(ctx, models.SystemTeamVolunteers)
	if err != nil {
		return nil, err
	}
	add(volunteers.ID)

	leads, err := r.leadsTeamIfLeading(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	if leads != nil {
		add(*leads)
	}

	return out, nil
}

// leadsTeamIfLeading returns the leads team id when the user holds an
// active "lead" role scoped to a non-system team, nil otherwise.
func (r *Resolver) leadsTeamIfLeading(ctx context.Context, userID primitive.ObjectID, now time.Time) (*primitive.ObjectID, error) {
	roles, err := r.roles.ActiveByUser(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	var scopedTeams []primitive.ObjectID
	for _, a := range roles {
		if a.Role == models.RoleLead && a.TeamID != nil {
			scopedTeams = append(scopedTeams, *a.TeamID)
		}
	}
	if len(scopedTeams) == 0 {
		return nil, nil
	}

	teams, err := r.teams.ByIDs(ctx, scopedTeams)
	if err != nil {
		return nil, err
	}
	leading := false
	for _, t := range teams {
		if !t.IsSystem() {
			leading = true
			break
		}
	}
	if !leading {
		return nil, nil
	}

	leadsTeam, err := r.teams.BySystemType(ctx, models.SystemTeamLeads)
	if err != nil {
		return nil, err
	}
	return &leadsTeam.ID, nil
}
