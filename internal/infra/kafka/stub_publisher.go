package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/core/domain"
	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for development environments.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType string, userID int64, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("stub event published",
		zap.String("event_type", eventType),
		zap.Int64("user_id", userID),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishUserRegistered logs user.registered events.
func (p *StubPublisher) PublishUserRegistered(_ context.Context, event domain.UserRegisteredEvent) error {
	payload := map[string]any{
		"user_id":       event.UserID,
		"username":      event.Username,
		"email":         event.Email,
		"registered_at": event.RegisteredAt,
	}
	p.logEvent("user.registered", event.UserID, event.RegisteredAt, payload)
	return nil
}

// PublishUserLoggedIn logs session.opened events.
func (p *StubPublisher) PublishUserLoggedIn(_ context.Context, event domain.SessionStateEvent) error {
	payload := map[string]any{
		"user_id":  event.UserID,
		"username": event.Username,
		"at":       event.At,
	}
	p.logEvent("session.opened", event.UserID, event.At, payload)
	return nil
}

// PublishUserLoggedOut logs session.closed events.
func (p *StubPublisher) PublishUserLoggedOut(_ context.Context, event domain.SessionStateEvent) error {
	payload := map[string]any{
		"user_id":  event.UserID,
		"username": event.Username,
		"at":       event.At,
	}
	p.logEvent("session.closed", event.UserID, event.At, payload)
	return nil
}

// PublishReadingSubmitted logs reading.submitted events.
func (p *StubPublisher) PublishReadingSubmitted(_ context.Context, event domain.ReadingSubmittedEvent) error {
	payload := map[string]any{
		"user_id":      event.UserID,
		"period":       event.Period.String(),
		"values":       event.Values,
		"submitted_at": event.SubmittedAt,
	}
	p.logEvent("reading.submitted", event.UserID, event.SubmittedAt, payload)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
