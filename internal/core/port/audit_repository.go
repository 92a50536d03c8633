package port

import (
	"context"

	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/core/domain"
)

// AuditRepository appends and reads the immutable action trail.
type AuditRepository interface {
	Append(ctx context.Context, entry domain.AuditEntry) error
	// ListByUser returns the user's entries ordered newest first.
	ListByUser(ctx context.Context, userID int64) ([]domain.AuditEntry, error)
}
