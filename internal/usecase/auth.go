package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/core/domain"
	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/core/port"
	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/infra/security"
	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/infra/telemetry"
	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/repository"
)

var (
	// ErrInvalidCredentials indicates the provided email or password are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAlreadyOnline indicates the user already holds an active session.
	ErrAlreadyOnline = errors.New("user already logged in")
	// ErrNotLoggedIn indicates the token's user holds no active session.
	ErrNotLoggedIn = errors.New("user is not logged in")
	// ErrMalformedToken indicates the bearer token could not be decoded.
	ErrMalformedToken = errors.New("malformed token")
	// ErrForbidden indicates the caller lacks the privilege for the operation.
	ErrForbidden = errors.New("forbidden")
)

// SessionManager coordinates login, logout, and request authorization.
// An account may hold at most one session at a time; the process-local
// registry is the single source of truth for liveness.
type SessionManager struct {
	users     port.UserRepository
	registry  port.SessionRegistry
	codec     security.TokenCodec
	audit     *AuditService
	publisher port.EventPublisher
	metrics   *telemetry.Provider
	logger    *zap.Logger
}

// NewSessionManager constructs a SessionManager instance.
func NewSessionManager(
	users port.UserRepository,
	registry port.SessionRegistry,
	codec security.TokenCodec,
	audit *AuditService,
	publisher port.EventPublisher,
	metrics *telemetry.Provider,
	log *zap.Logger,
) *SessionManager {
	return &SessionManager{
		users:     users,
		registry:  registry,
		codec:     codec,
		audit:     audit,
		publisher: publisher,
		metrics:   metrics,
		logger:    log,
	}
}

// Login verifies credentials, admits the user into the online registry, and
// issues a bearer token. A second login while online fails without touching
// the existing session.
func (s *SessionManager) Login(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("lookup user: %w", err)
	}

	if !security.VerifyPassword(password, user.Salt, user.PasswordHash) {
		return "", ErrInvalidCredentials
	}

	// Credentials are checked before the admit so a failed password never
	// reveals whether the account is online.
	if !s.registry.Add(user.Username) {
		return "", ErrAlreadyOnline
	}

	claims := domain.Claims{
		UserID:   user.ID,
		Email:    user.Email,
		Username: user.Username,
		IsAdmin:  user.IsAdmin,
	}

	token, err := s.codec.Encode(claims)
	if err != nil {
		s.registry.Remove(user.Username)
		return "", fmt.Errorf("encode token: %w", err)
	}

	s.audit.Record(ctx, user.ID, domain.ActionLogin, "user logged in")
	s.metrics.SessionOpened()

	if s.publisher != nil {
		event := domain.SessionStateEvent{
			UserID:   user.ID,
			Username: user.Username,
			At:       time.Now().UTC(),
		}
		if err := s.publisher.PublishUserLoggedIn(ctx, event); err != nil {
			s.logger.Warn("publish login event failed", zap.Int64("user_id", user.ID), zap.Error(err))
		}
	}

	return token, nil
}

// Logout decodes the token and evicts its user from the online registry.
// The eviction is idempotent: logging out a user with no live session is
// not an error, only a malformed token is.
func (s *SessionManager) Logout(ctx context.Context, token string) error {
	claims, err := s.decode(token)
	if err != nil {
		return err
	}

	wasOnline := s.registry.Contains(claims.Username)
	s.registry.Remove(claims.Username)

	s.audit.Record(ctx, claims.UserID, domain.ActionLogout, "user logged out")
	if wasOnline {
		s.metrics.SessionClosed()
	}

	if s.publisher != nil {
		event := domain.SessionStateEvent{
			UserID:   claims.UserID,
			Username: claims.Username,
			At:       time.Now().UTC(),
		}
		if err := s.publisher.PublishUserLoggedOut(ctx, event); err != nil {
			s.logger.Warn("publish logout event failed", zap.Int64("user_id", claims.UserID), zap.Error(err))
		}
	}

	return nil
}

// Authorize decodes the token and confirms its user is currently online.
// A decoded token alone proves nothing; eviction from the registry revokes
// it instantly.
func (s *SessionManager) Authorize(_ context.Context, token string) (domain.Claims, error) {
	claims, err := s.decode(token)
	if err != nil {
		return domain.Claims{}, err
	}

	if !s.registry.Contains(claims.Username) {
		return domain.Claims{}, ErrNotLoggedIn
	}

	return claims, nil
}

// EnsureAdmin verifies the claims carry the admin flag.
func EnsureAdmin(claims domain.Claims) error {
	if !claims.IsAdmin {
		return ErrForbidden
	}
	return nil
}

func (s *SessionManager) decode(token string) (domain.Claims, error) {
	claims, err := s.codec.Decode(token)
	if err != nil {
		return domain.Claims{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	return claims, nil
}
