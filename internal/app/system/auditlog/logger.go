// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"

	"github.com/peterdrier/volunteerhub/internal/app/store/audit"
	"go.uber.org/zap"
)

// Logger records audit entries to MongoDB (via audit.Store) and mirrors them
// to structured logs. Audit writes are best-effort from the caller's point
// of view: a failed insert is logged, never propagated, so an audit outage
// cannot fail a committed state transition.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
}

// New creates an audit Logger.
func New(store *audit.Store, zapLog *zap.Logger) *Logger {
	return &Logger{store: store, zapLog: zapLog}
}

// Record writes the entry. A nil Logger is a no-op, which lets tests pass
// nil instead of wiring the audit stack.
func (l *Logger) Record(ctx context.Context, e audit.Entry) {
	if l == nil {
		return
	}

	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("action", e.Action),
		zap.String("entity_type", e.EntityType),
		zap.String("entity_id", e.EntityID.Hex()),
	}
	if e.ActorID != nil {
		fields = append(fields, zap.String("actor_id", e.ActorID.Hex()))
	}
	if e.ActorName != "" {
		fields = append(fields, zap.String("actor_name", e.ActorName))
	}
	if e.Description != "" {
		fields = append(fields, zap.String("description", e.Description))
	}
	l.zapLog.Info("audit event", fields...)

	if l.store != nil {
		if err := l.store.Insert(ctx, e); err != nil {
			l.zapLog.Error("audit insert failed",
				zap.String("action", e.Action),
				zap.Error(err))
		}
	}
}
