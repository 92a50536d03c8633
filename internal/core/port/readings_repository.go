package port

import (
	"context"
	"time"

	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/core/domain"
)

// ReadingsRepository stores validated reading sets, one per user and period.
type ReadingsRepository interface {
	// Insert stores every meter value of the set atomically. A set already
	// present for (user, period) surfaces as repository.ErrDuplicate.
	Insert(ctx context.Context, set domain.ReadingSet) error
	// GetForPeriod returns the set for the exact period, or repository.ErrNotFound.
	GetForPeriod(ctx context.Context, userID int64, period time.Month) (*domain.ReadingSet, error)
	// GetCurrent returns the chronologically latest set, or repository.ErrNotFound.
	GetCurrent(ctx context.Context, userID int64) (*domain.ReadingSet, error)
	// GetHistory returns every set of the user ordered by period ascending.
	GetHistory(ctx context.Context, userID int64) ([]domain.ReadingSet, error)
	// GetAllCurrent returns the latest set per user keyed by username.
	GetAllCurrent(ctx context.Context) (map[string]domain.ReadingSet, error)
}
