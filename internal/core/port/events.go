package port

import (
	"context"

	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/core/domain"
)

// EventPublisher publishes domain events to the message bus.
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, event domain.UserRegisteredEvent) error
	PublishUserLoggedIn(ctx context.Context, event domain.SessionStateEvent) error
	PublishUserLoggedOut(ctx context.Context, event domain.SessionStateEvent) error
	PublishReadingSubmitted(ctx context.Context, event domain.ReadingSubmittedEvent) error
}
