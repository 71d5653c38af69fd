// internal/app/system/teamsync/teamsync.go
package teamsync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	teammemberstore "github.com/peterdrier/volunteerhub/internal/app/store/teammembers"
	teamstore "github.com/peterdrier/volunteerhub/internal/app/store/teams"
	"github.com/peterdrier/volunteerhub/internal/domain/models"
)

// Syncer reconciles a user's system-team memberships with their
// membership tier. Idempotent: running it again for the same user and
// tier is a no-op.
type Syncer struct {
	teams   *teamstore.Store
	members *teammemberstore.Store
	log     *zap.Logger
}

func NewSyncer(teams *teamstore.Store, members *teammemberstore.Store, log *zap.Logger) *Syncer {
	return &Syncer{teams: teams, members: members, log: log}
}

// SyncTier joins the user to the team for the given tier (and the global
// volunteers team) and ends any membership in other tier teams.
func (s *Syncer) SyncTier(ctx context.Context, userID primitive.ObjectID, tier string, now time.Time) error {
	tierTeam, err := s.teams.ByTier(ctx, tier)
	if err != nil {
		return fmt.Errorf("look up tier team %q: %w", tier, err)
	}

	if err := s.join(ctx, tierTeam.ID, userID, now); err != nil {
		return err
	}

	volunteers, err := s.teams.BySystemType(ctx, models.SystemTeamVolunteers)
	switch {
	case errors.Is(err, teamstore.ErrNotFound):
		// No global team configured yet; nothing more to do.
	case err != nil:
		return fmt.Errorf("look up volunteers team: %w", err)
	default:
		if err := s.join(ctx, volunteers.ID, userID, now); err != nil {
			return err
		}
	}

	return s.leaveOtherTierTeams(ctx, userID, tierTeam.ID, now)
}

func (s *Syncer) join(ctx context.Context, teamID, userID primitive.ObjectID, now time.Time) error {
	err := s.members.Join(ctx, teamID, userID, now)
	if errors.Is(err, teammemberstore.ErrAlreadyMember) {
		return nil
	}
	return err
}

// leaveOtherTierTeams ends active memberships in tier teams other than
// keepTeamID, so a tier change does not leave the user in both tiers.
func (s *Syncer) leaveOtherTierTeams(ctx context.Context, userID, keepTeamID primitive.ObjectID, now time.Time) error {
	teamIDs, err := s.members.ActiveTeamIDsForUser(ctx, userID, now)
	if err != nil {
		return fmt.Errorf("list active teams: %w", err)
	}
	byID, err := s.teams.ByIDs(ctx, teamIDs)
	if err != nil {
		return fmt.Errorf("load teams: %w", err)
	}
	for _, id := range teamIDs {
		t, ok := byID[id]
		if !ok || t.SystemType != models.SystemTeamTier || id == keepTeamID {
			continue
		}
		if err := s.members.Leave(ctx, id, userID, now); err != nil && !errors.Is(err, teammemberstore.ErrNotMember) {
			return fmt.Errorf("leave tier team %s: %w", id.Hex(), err)
		}
		s.log.Info("ended stale tier team membership",
			zap.String("user_id", userID.Hex()),
			zap.String("team_id", id.Hex()),
			zap.String("tier", t.Tier))
	}
	return nil
}
