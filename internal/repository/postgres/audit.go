package postgres

import (
	"context"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"

	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/core/domain"
	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/core/port"
)

// AuditRepository implements port.AuditRepository using PostgreSQL.
type AuditRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewAuditRepository wires a PostgreSQL-backed audit repository.
func NewAuditRepository(exec pgExecutor) *AuditRepository {
	return &AuditRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Append inserts an audit entry. Entries are never updated or deleted.
func (r *AuditRepository) Append(ctx context.Context, entry domain.AuditEntry) error {
	stmt, args, err := r.builder.Insert("audit_logs").
		Columns("user_id", "action_type", "action_time", "description").
		Values(entry.UserID, string(entry.Action), entry.OccurredAt, entry.Description).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert audit sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	return nil
}

// ListByUser returns the user's audit entries newest first.
func (r *AuditRepository) ListByUser(ctx context.Context, userID int64) ([]domain.AuditEntry, error) {
	stmt, args, err := r.builder.
		Select("id", "user_id", "action_type", "action_time", "description").
		From("audit_logs").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("action_time DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select audit sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var entry domain.AuditEntry
		var action string
		if err := rows.Scan(&entry.ID, &entry.UserID, &action, &entry.OccurredAt, &entry.Description); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entry.Action = domain.ActionType(action)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}

	return entries, nil
}

var _ port.AuditRepository = (*AuditRepository)(nil)
