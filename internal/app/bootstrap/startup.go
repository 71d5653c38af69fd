// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"

	"github.com/peterdrier/volunteerhub/internal/app/compliance"
	"github.com/peterdrier/volunteerhub/internal/app/store/audit"
	consentstore "github.com/peterdrier/volunteerhub/internal/app/store/consents"
	documentstore "github.com/peterdrier/volunteerhub/internal/app/store/documents"
	rolestore "github.com/peterdrier/volunteerhub/internal/app/store/roles"
	teammemberstore "github.com/peterdrier/volunteerhub/internal/app/store/teammembers"
	teamstore "github.com/peterdrier/volunteerhub/internal/app/store/teams"
	userstore "github.com/peterdrier/volunteerhub/internal/app/store/users"
	"github.com/peterdrier/volunteerhub/internal/app/system/auditlog"
	"github.com/peterdrier/volunteerhub/internal/app/system/mailer"
	"github.com/peterdrier/volunteerhub/internal/app/system/normalize"
	"github.com/peterdrier/volunteerhub/internal/app/system/tasks"
	"github.com/peterdrier/volunteerhub/internal/app/system/timeouts"
	"github.com/peterdrier/volunteerhub/internal/domain/models"
)

// taskRunner is started here and stopped in Shutdown.
var taskRunner *tasks.Runner

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It seeds
// the well-known system teams, optionally bootstraps a board member, and
// starts the background jobs.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("timeouts configured from environment", zap.Int("count", n))
	}

	if err := ensureSystemTeams(ctx, deps, appCfg.MembershipTiers, logger); err != nil {
		return err
	}
	if appCfg.BoardEmail != "" {
		if err := ensureBoardMember(ctx, deps, appCfg.BoardEmail, logger); err != nil {
			return err
		}
	}

	resolver := newResolver(deps)
	users := userstore.New(deps.MongoDatabase)
	auditLogger := newAuditLogger(deps, logger)

	taskRunner = tasks.NewRunner(logger,
		tasks.StatusSweepJob(resolver, users, auditLogger, logger),
		tasks.RenewalReminderJob(users, buildMailer(appCfg, logger), appCfg.SiteName, appCfg.RenewalReminderWindow, logger),
	)
	taskRunner.Start()

	return nil
}

// systemTeamNames maps the fixed system classifications to display names.
var systemTeamNames = map[string]string{
	models.SystemTeamVolunteers: "Volunteers",
	models.SystemTeamLeads:      "Leads",
	models.SystemTeamBoard:      "Board",
}

// ensureSystemTeams creates the volunteers/leads/board teams and one tier
// team per configured membership tier. Idempotent.
func ensureSystemTeams(ctx context.Context, deps DBDeps, tiers string, logger *zap.Logger) error {
	teams := teamstore.New(deps.MongoDatabase)

	for systemType, name := range systemTeamNames {
		_, err := teams.BySystemType(ctx, systemType)
		if err == nil {
			continue
		}
		if !errors.Is(err, teamstore.ErrNotFound) {
			return fmt.Errorf("look up system team %q: %w", systemType, err)
		}
		created, err := teams.Create(ctx, models.Team{
			Name:       name,
			SystemType: systemType,
		})
		if err != nil {
			return fmt.Errorf("create system team %q: %w", systemType, err)
		}
		logger.Info("created system team",
			zap.String("system_type", systemType),
			zap.String("team_id", created.ID.Hex()))
	}

	for _, raw := range strings.Split(tiers, ",") {
		tier := normalize.Tier(raw)
		if tier == "" {
			continue
		}
		_, err := teams.ByTier(ctx, tier)
		if err == nil {
			continue
		}
		if !errors.Is(err, teamstore.ErrNotFound) {
			return fmt.Errorf("look up tier team %q: %w", tier, err)
		}
		created, err := teams.Create(ctx, models.Team{
			Name:       tierTeamName(tier),
			SystemType: models.SystemTeamTier,
			Tier:       tier,
		})
		if err != nil {
			return fmt.Errorf("create tier team %q: %w", tier, err)
		}
		logger.Info("created tier team",
			zap.String("tier", tier),
			zap.String("team_id", created.ID.Hex()))
	}

	return nil
}

// ensureBoardMember creates the named user if missing and grants an
// open-ended board role. Idempotent: an existing active board grant is
// left alone.
func ensureBoardMember(ctx context.Context, deps DBDeps, email string, logger *zap.Logger) error {
	users := userstore.New(deps.MongoDatabase)
	roles := rolestore.New(deps.MongoDatabase)
	now := time.Now().UTC()

	email = normalize.Email(email)
	u, err := users.ByEmail(ctx, email)
	switch {
	case errors.Is(err, userstore.ErrNotFound):
		u, err = users.Create(ctx, models.User{
			FullName:   "Board Member",
			Email:      email,
			IsApproved: true,
			Status:     models.StatusNone,
		})
		if err != nil {
			return fmt.Errorf("create board user: %w", err)
		}
		logger.Info("created board user", zap.String("email", email))
	case err != nil:
		return fmt.Errorf("look up board user: %w", err)
	}

	active, err := roles.ActiveByUser(ctx, u.ID, now)
	if err != nil {
		return fmt.Errorf("load board user roles: %w", err)
	}
	for _, a := range active {
		if a.Role == models.RoleBoard {
			return nil
		}
	}

	_, err = roles.Add(ctx, models.RoleAssignment{
		UserID:    u.ID,
		Role:      models.RoleBoard,
		ValidFrom: now,
	})
	if err != nil && !errors.Is(err, rolestore.ErrOverlappingWindow) {
		return fmt.Errorf("grant board role: %w", err)
	}
	logger.Info("granted board role", zap.String("email", email))
	return nil
}

// tierTeamName derives a display name for a tier team ("regular" becomes
// "Regular Members").
func tierTeamName(tier string) string {
	return strings.ToUpper(tier[:1]) + tier[1:] + " Members"
}

// newResolver wires the compliance resolver over the Mongo stores.
func newResolver(deps DBDeps) *compliance.Resolver {
	db := deps.MongoDatabase
	return compliance.New(
		userstore.New(db),
		rolestore.New(db),
		teamstore.New(db),
		teammemberstore.New(db),
		documentstore.New(db),
		consentstore.New(db),
	)
}

func newAuditLogger(deps DBDeps, logger *zap.Logger) *auditlog.Logger {
	return auditlog.New(audit.New(deps.MongoDatabase), logger)
}

// buildMailer returns the SMTP sender, or a log-only sender when no SMTP
// host is configured.
func buildMailer(appCfg AppConfig, logger *zap.Logger) mailer.Sender {
	if appCfg.MailSMTPHost == "" {
		return &mailer.LogSender{Log: logger}
	}
	return &mailer.SMTPSender{
		Host:     appCfg.MailSMTPHost,
		Port:     appCfg.MailSMTPPort,
		User:     appCfg.MailSMTPUser,
		Pass:     appCfg.MailSMTPPass,
		From:     appCfg.MailFrom,
		FromName: appCfg.MailFromName,
	}
}
