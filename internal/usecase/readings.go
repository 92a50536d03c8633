package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/core/domain"
	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/core/port"
	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/infra/telemetry"
	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/repository"
)

var (
	// ErrAlreadySubmitted indicates the user already has readings for the period.
	ErrAlreadySubmitted = errors.New("readings already submitted for this period")
	// ErrInvalidReadings indicates the submitted payload failed validation.
	ErrInvalidReadings = errors.New("invalid readings")
	// ErrNoReadings indicates the user has no stored readings to return.
	ErrNoReadings = errors.New("no readings found")
)

// MeterService manages the reading ledger.
type MeterService struct {
	readings  port.ReadingsRepository
	audit     *AuditService
	publisher port.EventPublisher
	metrics   *telemetry.Provider
	logger    *zap.Logger
}

// NewMeterService constructs a MeterService instance.
func NewMeterService(
	readings port.ReadingsRepository,
	audit *AuditService,
	publisher port.EventPublisher,
	metrics *telemetry.Provider,
	log *zap.Logger,
) *MeterService {
	return &MeterService{
		readings:  readings,
		audit:     audit,
		publisher: publisher,
		metrics:   metrics,
		logger:    log,
	}
}

// Submit stores one complete reading set for the user and period. The
// duplicate check runs before payload validation, so resubmitting an
// already-covered period reports the conflict even if the new payload is
// also invalid.
func (s *MeterService) Submit(ctx context.Context, userID int64, period time.Month, values map[domain.MeterType]int64) error {
	if period < time.January || period > time.December {
		return fmt.Errorf("%w: unknown period", ErrInvalidReadings)
	}

	if _, err := s.readings.GetForPeriod(ctx, userID, period); err == nil {
		return ErrAlreadySubmitted
	} else if !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("check existing readings: %w", err)
	}

	if err := validateReadings(values); err != nil {
		return err
	}

	set := domain.ReadingSet{
		UserID: userID,
		Period: period,
		Values: values,
	}

	if err := s.readings.Insert(ctx, set); err != nil {
		// A concurrent submit for the same period can slip past the check
		// above; the unique index is the final arbiter.
		if errors.Is(err, repository.ErrDuplicate) {
			return ErrAlreadySubmitted
		}
		return fmt.Errorf("insert readings: %w", err)
	}

	s.audit.Record(ctx, userID, domain.ActionSubmitReading, fmt.Sprintf("submitted readings for %s", period))
	s.metrics.ReadingSubmitted()

	if s.publisher != nil {
		event := domain.ReadingSubmittedEvent{
			UserID:      userID,
			Period:      period,
			Values:      values,
			SubmittedAt: time.Now().UTC(),
		}
		if err := s.publisher.PublishReadingSubmitted(ctx, event); err != nil {
			s.logger.Warn("publish reading submitted failed", zap.Int64("user_id", userID), zap.Error(err))
		}
	}

	return nil
}

// Current returns the user's chronologically latest reading set.
func (s *MeterService) Current(ctx context.Context, userID int64) (*domain.ReadingSet, error) {
	set, err := s.readings.GetCurrent(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoReadings
		}
		return nil, fmt.Errorf("fetch current readings: %w", err)
	}
	return set, nil
}

// ForMonth returns the user's reading set for a named month.
func (s *MeterService) ForMonth(ctx context.Context, userID int64, monthName string) (*domain.ReadingSet, error) {
	period, err := domain.ParseMonth(monthName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidReadings, err)
	}

	set, err := s.readings.GetForPeriod(ctx, userID, period)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoReadings
		}
		return nil, fmt.Errorf("fetch readings for %s: %w", period, err)
	}
	return set, nil
}

// History returns every reading set of the user, oldest first. The read is
// itself an audited action.
func (s *MeterService) History(ctx context.Context, userID int64) ([]domain.ReadingSet, error) {
	sets, err := s.readings.GetHistory(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch reading history: %w", err)
	}

	s.audit.Record(ctx, userID, domain.ActionViewReadingHistory, "viewed reading history")

	return sets, nil
}

// AllCurrent returns the latest reading set of every user, keyed by username.
// Callers enforce the admin requirement before reaching this.
func (s *MeterService) AllCurrent(ctx context.Context) (map[string]domain.ReadingSet, error) {
	sets, err := s.readings.GetAllCurrent(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch all current readings: %w", err)
	}
	return sets, nil
}

// validateReadings requires exactly one positive value per supported meter.
func validateReadings(values map[domain.MeterType]int64) error {
	supported := domain.AllMeterTypes()
	if len(values) != len(supported) {
		return fmt.Errorf("%w: expected values for %d meters, got %d", ErrInvalidReadings, len(supported), len(values))
	}

	for _, meterType := range supported {
		value, ok := values[meterType]
		if !ok {
			return fmt.Errorf("%w: missing value for %s", ErrInvalidReadings, meterType)
		}
		if value <= 0 {
			return fmt.Errorf("%w: value for %s must be positive", ErrInvalidReadings, meterType)
		}
	}

	return nil
}
