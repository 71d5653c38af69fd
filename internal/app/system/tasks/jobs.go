// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/peterdrier/volunteerhub/internal/app/compliance"
	"github.com/peterdrier/volunteerhub/internal/app/store/audit"
	userstore "github.com/peterdrier/volunteerhub/internal/app/store/users"
	"github.com/peterdrier/volunteerhub/internal/app/system/auditlog"
	"github.com/peterdrier/volunteerhub/internal/app/system/mailer"
	"github.com/peterdrier/volunteerhub/internal/app/system/metrics"
)

// StatusSweepJob creates a job that rewrites each user's materialized
// status whenever it has drifted from the computed one. Materialized
// status is a cache; compliance resolution is always live, so the sweep
// only needs to keep reads that use the stored field from going stale.
func StatusSweepJob(resolver *compliance.Resolver, userStore *userstore.Store, auditLog *auditlog.Logger, logger *zap.Logger) Job {
	return Job{
		Name:     "status-sweep",
		Interval: 15 * time.Minute,
		Run: func(ctx context.Context) error {
			now := time.Now().UTC()

			stale, err := resolver.UsersRequiringStatusUpdate(ctx, now)
			if err != nil {
				return err
			}
			if len(stale) == 0 {
				return nil
			}

			statuses, err := resolver.StatusesForUsers(ctx, stale, now)
			if err != nil {
				return err
			}

			updated := 0
			for _, id := range stale {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}

				status, ok := statuses[id]
				if !ok {
					continue
				}
				if err := userStore.SetStatus(ctx, id, status); err != nil {
					logger.Error("status sweep update failed",
						zap.String("user_id", id.Hex()),
						zap.Error(err))
					continue
				}
				metrics.StatusUpdates.WithLabelValues(status).Inc()
				auditLog.Record(ctx, audit.Entry{
					Action:      audit.ActionStatusUpdated,
					EntityType:  audit.EntityUser,
					EntityID:    id,
					Description: "materialized status updated to " + status,
					Timestamp:   now,
				})
				updated++
			}

			logger.Info("status sweep completed",
				zap.Int("stale", len(stale)),
				zap.Int("updated", updated))
			return nil
		},
	}
}

// RenewalReminderJob creates a job that emails members whose term ends
// within the reminder window. Each term gets at most one reminder; the
// sent marker is cleared when a new term is assigned.
func RenewalReminderJob(userStore *userstore.Store, mail mailer.Sender, siteName string, window time.Duration, logger *zap.Logger) Job {
	return Job{
		Name:     "renewal-reminder",
		Interval: 12 * time.Hour,
		Run: func(ctx context.Context) error {
			now := time.Now().UTC()

			due, err := userStore.TermsExpiringBefore(ctx, now.Add(window))
			if err != nil {
				return err
			}

			for _, u := range due {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
				if u.TermExpiresAt == nil {
					continue
				}

				email := mailer.BuildRenewalReminderEmail(mailer.RenewalReminderData{
					SiteName:    siteName,
					FullName:    u.FullName,
					TermExpires: u.TermExpiresAt.Format("January 2, 2006"),
				})
				email.To = u.Email
				if err := mail.Send(email); err != nil {
					logger.Error("renewal reminder send failed",
						zap.String("user_id", u.ID.Hex()),
						zap.Error(err))
					continue
				}
				if err := userStore.MarkRenewalReminderSent(ctx, u.ID, now); err != nil {
					logger.Error("could not mark renewal reminder sent",
						zap.String("user_id", u.ID.Hex()),
						zap.Error(err))
				}
			}

			if len(due) > 0 {
				logger.Info("renewal reminders processed", zap.Int("count", len(due)))
			}
			return nil
		},
	}
}
