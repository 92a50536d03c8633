package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/core/domain"
	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/core/port"
)

// AuditService appends to and reads the user action trail. Writes are best
// effort: a failed append is logged and never fails the action it records.
type AuditService struct {
	entries port.AuditRepository
	logger  *zap.Logger
}

// NewAuditService constructs an AuditService instance.
func NewAuditService(entries port.AuditRepository, logger *zap.Logger) *AuditService {
	return &AuditService{entries: entries, logger: logger}
}

// Record appends one entry for the user. Failures are swallowed after logging.
func (s *AuditService) Record(ctx context.Context, userID int64, action domain.ActionType, description string) {
	if s == nil || s.entries == nil {
		return
	}

	entry := domain.AuditEntry{
		UserID:      userID,
		Action:      action,
		OccurredAt:  time.Now().UTC(),
		Description: description,
	}

	if err := s.entries.Append(ctx, entry); err != nil {
		s.logger.Warn("audit append failed",
			zap.Int64("user_id", userID),
			zap.String("action", string(action)),
			zap.Error(err),
		)
	}
}

// ListForUser returns the user's trail ordered newest first.
func (s *AuditService) ListForUser(ctx context.Context, userID int64) ([]domain.AuditEntry, error) {
	entries, err := s.entries.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	return entries, nil
}
