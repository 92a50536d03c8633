package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/core/domain"
	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/repository"
)

type stubUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]domain.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[int64]domain.User)}
}

func (r *stubUserRepo) Create(_ context.Context, user domain.User) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Username == user.Username {
			return 0, fmt.Errorf("insert user: %w: %w", repository.ErrDuplicate, &pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"})
		}
		if existing.Email == user.Email {
			return 0, fmt.Errorf("insert user: %w: %w", repository.ErrDuplicate, &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})
		}
	}

	r.nextID++
	user.ID = r.nextID
	r.users[user.ID] = user
	return user.ID, nil
}

func (r *stubUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.Email == email {
			copied := user
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubUserRepo) GetIDByUsername(_ context.Context, username string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.Username == username {
			return user.ID, nil
		}
	}
	return 0, repository.ErrNotFound
}

type stubReadingsRepo struct {
	mu        sync.Mutex
	sets      map[int64]map[time.Month]domain.ReadingSet
	usernames map[int64]string
}

func newStubReadingsRepo() *stubReadingsRepo {
	return &stubReadingsRepo{
		sets:      make(map[int64]map[time.Month]domain.ReadingSet),
		usernames: make(map[int64]string),
	}
}

func (r *stubReadingsRepo) Insert(_ context.Context, set domain.ReadingSet) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	byPeriod, ok := r.sets[set.UserID]
	if !ok {
		byPeriod = make(map[time.Month]domain.ReadingSet)
		r.sets[set.UserID] = byPeriod
	}
	if _, exists := byPeriod[set.Period]; exists {
		return repository.ErrDuplicate
	}
	byPeriod[set.Period] = set
	return nil
}

func (r *stubReadingsRepo) GetForPeriod(_ context.Context, userID int64, period time.Month) (*domain.ReadingSet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.sets[userID][period]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := set
	return &copied, nil
}

func (r *stubReadingsRepo) GetCurrent(_ context.Context, userID int64) (*domain.ReadingSet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byPeriod := r.sets[userID]
	if len(byPeriod) == 0 {
		return nil, repository.ErrNotFound
	}

	var latest time.Month
	for period := range byPeriod {
		if period > latest {
			latest = period
		}
	}
	copied := byPeriod[latest]
	return &copied, nil
}

func (r *stubReadingsRepo) GetHistory(_ context.Context, userID int64) ([]domain.ReadingSet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	byPeriod := r.sets[userID]
	periods := make([]time.Month, 0, len(byPeriod))
	for period := range byPeriod {
		periods = append(periods, period)
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i] < periods[j] })

	history := make([]domain.ReadingSet, 0, len(periods))
	for _, period := range periods {
		history = append(history, byPeriod[period])
	}
	return history, nil
}

func (r *stubReadingsRepo) GetAllCurrent(ctx context.Context) (map[string]domain.ReadingSet, error) {
	result := make(map[string]domain.ReadingSet)
	r.mu.Lock()
	userIDs := make([]int64, 0, len(r.sets))
	for userID := range r.sets {
		userIDs = append(userIDs, userID)
	}
	r.mu.Unlock()

	for _, userID := range userIDs {
		set, err := r.GetCurrent(ctx, userID)
		if err != nil {
			continue
		}
		name := r.usernames[userID]
		if name == "" {
			name = fmt.Sprintf("user-%d", userID)
		}
		result[name] = *set
	}
	return result, nil
}

type stubAuditRepo struct {
	mu         sync.Mutex
	entries    []domain.AuditEntry
	failAppend bool
}

func (r *stubAuditRepo) Append(_ context.Context, entry domain.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failAppend {
		return errors.New("audit store unavailable")
	}
	entry.ID = int64(len(r.entries) + 1)
	r.entries = append(r.entries, entry)
	return nil
}

func (r *stubAuditRepo) ListByUser(_ context.Context, userID int64) ([]domain.AuditEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []domain.AuditEntry
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].UserID == userID {
			result = append(result, r.entries[i])
		}
	}
	return result, nil
}

func (r *stubAuditRepo) actions(userID int64) []domain.ActionType {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []domain.ActionType
	for _, entry := range r.entries {
		if entry.UserID == userID {
			result = append(result, entry.Action)
		}
	}
	return result
}

type stubPublisher struct {
	mu         sync.Mutex
	registered []domain.UserRegisteredEvent
	logins     []domain.SessionStateEvent
	logouts    []domain.SessionStateEvent
	readings   []domain.ReadingSubmittedEvent
}

func (p *stubPublisher) PublishUserRegistered(_ context.Context, event domain.UserRegisteredEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.registered = append(p.registered, event)
	return nil
}

func (p *stubPublisher) PublishUserLoggedIn(_ context.Context, event domain.SessionStateEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logins = append(p.logins, event)
	return nil
}

func (p *stubPublisher) PublishUserLoggedOut(_ context.Context, event domain.SessionStateEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.logouts = append(p.logouts, event)
	return nil
}

func (p *stubPublisher) PublishReadingSubmitted(_ context.Context, event domain.ReadingSubmittedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.readings = append(p.readings, event)
	return nil
}
