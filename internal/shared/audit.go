package shared

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Portal-level audit actions. Registration transitions keep their own audit
// trail in dealer_registration_audit_log; this log covers everything else.
const (
	AuditLogin          = "LOGIN"
	AuditLogout         = "LOGOUT"
	AuditUserDeactivate = "USER_DEACTIVATE"
)

// AuditLog represents a record stored in audit_logs. Entries are append-only
// and never consulted by authorization decisions.
type AuditLog struct {
	ActorID  int64
	Action   string
	Entity   string
	EntityID string
	Meta     map[string]any
	At       time.Time
}

// AuditLogger writes records into audit_logs.
type AuditLogger struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewAuditLogger returns a new AuditLogger.
func NewAuditLogger(pool *pgxpool.Pool, logger *slog.Logger) *AuditLogger {
	return &AuditLogger{pool: pool, logger: logger}
}

// BestEffort records the entry and only logs on failure. Used where the
// surrounding operation must not fail because auditing did.
func (l *AuditLogger) BestEffort(ctx context.Context, log AuditLog) {
	if err := l.Record(ctx, log); err != nil && l != nil && l.logger != nil {
		l.logger.Error("record audit log", slog.Any("error", err))
	}
}

// Record persists the log entry.
func (l *AuditLogger) Record(ctx context.Context, log AuditLog) error {
	if l == nil {
		return errors.New("audit logger not initialised")
	}
	if log.Action == "" || log.Entity == "" || log.EntityID == "" {
		return errors.New("audit log requires action/entity/entity_id")
	}
	metaJSON, err := json.Marshal(log.Meta)
	if err != nil {
		return err
	}
	var at *time.Time
	if !log.At.IsZero() {
		at = &log.At
	}
	_, err = l.pool.Exec(ctx, `INSERT INTO audit_logs (actor_id, action, entity, entity_id, meta, occurred_at) VALUES ($1, $2, $3, $4, $5, COALESCE($6, NOW()))`, log.ActorID, log.Action, log.Entity, log.EntityID, metaJSON, at)
	return err
}
