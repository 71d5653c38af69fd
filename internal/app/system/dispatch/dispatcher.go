// internal/app/system/dispatch/dispatcher.go
package dispatch

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/peterdrier/volunteerhub/internal/app/decision"
	userstore "github.com/peterdrier/volunteerhub/internal/app/store/users"
	"github.com/peterdrier/volunteerhub/internal/app/system/mailer"
	"github.com/peterdrier/volunteerhub/internal/app/system/metrics"
	"github.com/peterdrier/volunteerhub/internal/app/system/teamsync"
)

const (
	maxAttempts  = 3
	retryBackoff = 2 * time.Second
)

// Dispatcher executes the side-effect intents emitted by decision
// transitions. Execution is at-least-once: an intent that fails after
// retries is logged and dropped, never rolled back into the decision
// that produced it.
type Dispatcher struct {
	users    *userstore.Store
	mail     mailer.Sender
	sync     *teamsync.Syncer
	siteName string
	log      *zap.Logger
	now      func() time.Time
}

func New(users *userstore.Store, mail mailer.Sender, sync *teamsync.Syncer, siteName string, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		users:    users,
		mail:     mail,
		sync:     sync,
		siteName: siteName,
		log:      log,
		now:      time.Now,
	}
}

// Dispatch executes every intent in order. A failed intent does not stop
// the rest; the first failure is returned after all intents have run.
func (d *Dispatcher) Dispatch(ctx context.Context, intents []decision.Intent) error {
	var firstErr error
	for _, in := range intents {
		if err := d.dispatchOne(ctx, in); err != nil {
			metrics.IntentDispatches.WithLabelValues(string(in.Type), "failure").Inc()
			d.log.Error("intent failed after retries",
				zap.String("intent", string(in.Type)),
				zap.String("user_id", in.UserID.Hex()),
				zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		metrics.IntentDispatches.WithLabelValues(string(in.Type), "success").Inc()
	}
	return firstErr
}

func (d *Dispatcher) dispatchOne(ctx context.Context, in decision.Intent) error {
	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(retryBackoff):
			}
		}
		if err = d.execute(ctx, in); err == nil {
			return nil
		}
		d.log.Warn("intent attempt failed",
			zap.String("intent", string(in.Type)),
			zap.Int("attempt", attempt),
			zap.Error(err))
	}
	return err
}

func (d *Dispatcher) execute(ctx context.Context, in decision.Intent) error {
	switch in.Type {
	case decision.IntentNotifyUserApproved:
		return d.notifyApproved(ctx, in.UserID)
	case decision.IntentNotifyUserRejected:
		return d.notifyRejected(ctx, in.UserID)
	case decision.IntentSyncTeamMembershipForTier:
		return d.sync.SyncTier(ctx, in.UserID, in.Tier, d.now())
	default:
		return fmt.Errorf("unknown intent type %q", in.Type)
	}
}

func (d *Dispatcher) notifyApproved(ctx context.Context, userID primitive.ObjectID) error {
	u, err := d.users.ByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	expires := ""
	if u.TermExpiresAt != nil {
		expires = u.TermExpiresAt.Format("January 2, 2006")
	}
	email := mailer.BuildApprovalEmail(mailer.ApprovalEmailData{
		SiteName:    d.siteName,
		FullName:    u.FullName,
		Tier:        u.MembershipTier,
		TermExpires: expires,
	})
	email.To = u.Email
	return d.mail.Send(email)
}

func (d *Dispatcher) notifyRejected(ctx context.Context, userID primitive.ObjectID) error {
	u, err := d.users.ByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	email := mailer.BuildRejectionEmail(mailer.RejectionEmailData{
		SiteName: d.siteName,
		FullName: u.FullName,
	})
	email.To = u.Email
	return d.mail.Send(email)
}
