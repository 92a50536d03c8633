package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/core/domain"
	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/core/port"
	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/infra/config"
)

const schemaVersion = "1.0"

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type envelopeMetadata map[string]string

type eventEnvelope struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	UserID    string           `json:"user_id,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
	Payload   any              `json:"payload"`
	Metadata  envelopeMetadata `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType string, userID int64, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := eventID
	if id == "" {
		id = uuid.NewString()
	}

	envelope := eventEnvelope{
		EventID:   id,
		EventType: eventType,
		UserID:    strconv.FormatInt(userID, 10),
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata: envelopeMetadata{
			"service":     p.appCfg.Name,
			"environment": p.appCfg.Env,
		},
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type sessionStatePayload struct {
	UserID   int64     `json:"user_id"`
	Username string    `json:"username"`
	At       time.Time `json:"at"`
}

// PublishUserRegistered publishes monitoring.user.registered events.
func (p *EventPublisher) PublishUserRegistered(ctx context.Context, event domain.UserRegisteredEvent) error {
	payload := struct {
		UserID       int64     `json:"user_id"`
		Username     string    `json:"username"`
		Email        string    `json:"email"`
		RegisteredAt time.Time `json:"registered_at"`
	}{
		UserID:       event.UserID,
		Username:     event.Username,
		Email:        event.Email,
		RegisteredAt: event.RegisteredAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "user.registered", event.UserID, event.RegisteredAt, payload)
}

// PublishUserLoggedIn publishes monitoring.session.opened events.
func (p *EventPublisher) PublishUserLoggedIn(ctx context.Context, event domain.SessionStateEvent) error {
	payload := sessionStatePayload{
		UserID:   event.UserID,
		Username: event.Username,
		At:       event.At.UTC(),
	}

	return p.publish(ctx, event.EventID, "session.opened", event.UserID, event.At, payload)
}

// PublishUserLoggedOut publishes monitoring.session.closed events.
func (p *EventPublisher) PublishUserLoggedOut(ctx context.Context, event domain.SessionStateEvent) error {
	payload := sessionStatePayload{
		UserID:   event.UserID,
		Username: event.Username,
		At:       event.At.UTC(),
	}

	return p.publish(ctx, event.EventID, "session.closed", event.UserID, event.At, payload)
}

// PublishReadingSubmitted publishes monitoring.reading.submitted events.
func (p *EventPublisher) PublishReadingSubmitted(ctx context.Context, event domain.ReadingSubmittedEvent) error {
	values := make(map[string]int64, len(event.Values))
	for meterType, value := range event.Values {
		values[string(meterType)] = value
	}

	payload := struct {
		UserID      int64            `json:"user_id"`
		Period      string           `json:"period"`
		Values      map[string]int64 `json:"values"`
		SubmittedAt time.Time        `json:"submitted_at"`
	}{
		UserID:      event.UserID,
		Period:      event.Period.String(),
		Values:      values,
		SubmittedAt: event.SubmittedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, "reading.submitted", event.UserID, event.SubmittedAt, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
