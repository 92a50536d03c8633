package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/core/domain"
	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/core/port"
	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/infra/logger"
	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/infra/security"
	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/repository"
)

const (
	usernameMinLength = 3
	usernameMaxLength = 50
	passwordMinLength = 8

	emailConstraint    = "users_email_key"
	usernameConstraint = "users_username_key"
)

var (
	// ErrInvalidUserData indicates the registration payload failed validation.
	ErrInvalidUserData = errors.New("invalid user data")
	// ErrEmailTaken indicates another account owns the email.
	ErrEmailTaken = errors.New("email already registered")
	// ErrUsernameTaken indicates another account owns the username.
	ErrUsernameTaken = errors.New("username already registered")
)

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@(.+)$`)

// RegistrationService handles new account onboarding.
type RegistrationService struct {
	users     port.UserRepository
	audit     *AuditService
	publisher port.EventPublisher
	logger    *zap.Logger
}

// NewRegistrationService constructs a registration service.
func NewRegistrationService(users port.UserRepository, audit *AuditService, publisher port.EventPublisher, log *zap.Logger) *RegistrationService {
	return &RegistrationService{users: users, audit: audit, publisher: publisher, logger: log}
}

// RegisterUser validates the payload, stores the account, and records the
// registration in the audit trail.
func (s *RegistrationService) RegisterUser(ctx context.Context, username, email, password string) (domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if err := validateRegistration(username, email, password); err != nil {
		return domain.User{}, err
	}

	salt, err := security.GenerateSalt()
	if err != nil {
		return domain.User{}, fmt.Errorf("generate salt: %w", err)
	}

	now := time.Now().UTC()
	user := domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: security.HashPassword(password, salt),
		Salt:         salt,
		RegisteredAt: now,
	}

	id, err := s.users.Create(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return domain.User{}, duplicateToSentinel(err)
		}
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	user.ID = id

	s.audit.Record(ctx, id, domain.ActionRegister, "user registered")

	if s.publisher != nil {
		event := domain.UserRegisteredEvent{
			UserID:       id,
			Username:     username,
			Email:        email,
			RegisteredAt: now,
		}
		if err := s.publisher.PublishUserRegistered(ctx, event); err != nil {
			s.logger.Warn("publish user registered failed",
				zap.Int64("user_id", id),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("user registered",
		zap.Int64("user_id", id),
		zap.String("username", username),
		zap.String("email", logger.MaskEmail(email)),
	)

	user.PasswordHash = ""
	user.Salt = ""
	return user, nil
}

func validateRegistration(username, email, password string) error {
	if len(username) < usernameMinLength || len(username) > usernameMaxLength {
		return fmt.Errorf("%w: username must be between %d and %d characters", ErrInvalidUserData, usernameMinLength, usernameMaxLength)
	}
	if !emailPattern.MatchString(email) {
		return fmt.Errorf("%w: email is not valid", ErrInvalidUserData)
	}
	if len(password) < passwordMinLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidUserData, passwordMinLength)
	}
	return nil
}

// duplicateToSentinel distinguishes which unique constraint tripped.
func duplicateToSentinel(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.ConstraintName {
		case usernameConstraint:
			return ErrUsernameTaken
		case emailConstraint:
			return ErrEmailTaken
		}
	}
	return ErrEmailTaken
}
