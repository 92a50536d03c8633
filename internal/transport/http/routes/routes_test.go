package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/core/domain"
	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/infra/config"
	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/infra/security"
	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/repository"
	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/repository/memory"
	"github.com/DmitriyKrasnikov/Monitoring-Service/internal/usecase"
)

type memUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]domain.User
}

func (r *memUserRepo) Create(_ context.Context, user domain.User) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return 0, repository.ErrDuplicate
		}
	}

	r.nextID++
	user.ID = r.nextID
	r.users[user.ID] = user
	return user.ID, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
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

func (r *memUserRepo) GetIDByUsername(_ context.Context, username string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.Username == username {
			return user.ID, nil
		}
	}
	return 0, repository.ErrNotFound
}

func (r *memUserRepo) username(userID int64) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.users[userID].Username
}

type memReadingsRepo struct {
	mu    sync.Mutex
	sets  map[int64]map[time.Month]domain.ReadingSet
	users *memUserRepo
}

func (r *memReadingsRepo) Insert(_ context.Context, set domain.ReadingSet) error {
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

func (r *memReadingsRepo) GetForPeriod(_ context.Context, userID int64, period time.Month) (*domain.ReadingSet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.sets[userID][period]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := set
	return &copied, nil
}

func (r *memReadingsRepo) GetCurrent(_ context.Context, userID int64) (*domain.ReadingSet, error) {
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

func (r *memReadingsRepo) GetHistory(_ context.Context, userID int64) ([]domain.ReadingSet, error) {
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

func (r *memReadingsRepo) GetAllCurrent(ctx context.Context) (map[string]domain.ReadingSet, error) {
	r.mu.Lock()
	userIDs := make([]int64, 0, len(r.sets))
	for userID := range r.sets {
		userIDs = append(userIDs, userID)
	}
	r.mu.Unlock()

	result := make(map[string]domain.ReadingSet, len(userIDs))
	for _, userID := range userIDs {
		set, err := r.GetCurrent(ctx, userID)
		if err != nil {
			continue
		}
		result[r.users.username(userID)] = *set
	}
	return result, nil
}

type memAuditRepo struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

func (r *memAuditRepo) Append(_ context.Context, entry domain.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = int64(len(r.entries) + 1)
	r.entries = append(r.entries, entry)
	return nil
}

func (r *memAuditRepo) ListByUser(_ context.Context, userID int64) ([]domain.AuditEntry, error) {
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

type testEnv struct {
	engine http.Handler
	users  *memUserRepo
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	users := &memUserRepo{users: make(map[int64]domain.User)}
	readings := &memReadingsRepo{sets: make(map[int64]map[time.Month]domain.ReadingSet), users: users}
	auditRepo := &memAuditRepo{}

	log := zaptest.NewLogger(t)
	audit := usecase.NewAuditService(auditRepo, log)
	sessions := usecase.NewSessionManager(users, memory.NewSessionRegistry(), security.PlainCodec{}, audit, nil, nil, log)

	cfg := &config.AppConfig{}
	cfg.App.Env = "test"
	cfg.App.CORSAllowedOrigins = []string{"https://app.example.com"}

	engine := Register(Dependencies{
		Config: cfg,
		Logger: log,
		Services: ServiceSet{
			Registration: usecase.NewRegistrationService(users, audit, nil, log),
			Sessions:     sessions,
			Meters:       usecase.NewMeterService(readings, audit, nil, nil, log),
			Audit:        audit,
		},
	})

	return &testEnv{engine: engine, users: users}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.engine.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) register(t *testing.T, username, email, password string) {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: expected 201, got %d: %s", username, rec.Code, rec.Body.String())
	}
}

func (e *testEnv) login(t *testing.T, email, password string) string {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d: %s", email, rec.Code, rec.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if resp.Token == "" {
		t.Fatalf("expected a token in the login response")
	}
	if got := rec.Header().Get("Authorization"); got != "Bearer "+resp.Token {
		t.Fatalf("expected Authorization response header, got %q", got)
	}
	return resp.Token
}

func marchReadings() map[string]any {
	return map[string]any{
		"month": "march",
		"values": map[string]int64{
			"HEATING":    1200,
			"HOT_WATER":  340,
			"COLD_WATER": 560,
		},
	}
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from /healthz, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/readyz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from /readyz with no checks, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", rec.Code)
	}
}

func TestReadingsRequireSession(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/readings/current", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/readings", "garbage-token", marchReadings())
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with garbage token, got %d", rec.Code)
	}
}

func TestFullUserFlow(t *testing.T) {
	env := newTestEnv(t)

	env.register(t, "alice", "alice@example.com", "password123")

	// Registering the same identity again conflicts.
	rec := env.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "password123",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate registration, got %d", rec.Code)
	}

	token := env.login(t, "alice@example.com", "password123")

	// Second login while online conflicts.
	rec = env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "password123",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for second login, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/readings", token, marchReadings())
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/api/v1/readings", token, marchReadings())
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate submit: expected 409, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/readings", token, map[string]any{
		"month":  "april",
		"values": map[string]int64{"HEATING": 1200},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("incomplete submit: expected 400, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/readings/current", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("current: expected 200, got %d", rec.Code)
	}
	var current struct {
		Month  string           `json:"month"`
		Values map[string]int64 `json:"values"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &current); err != nil {
		t.Fatalf("decode current: %v", err)
	}
	if current.Month != "March" || current.Values["HEATING"] != 1200 {
		t.Fatalf("unexpected current readings: %+v", current)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/readings/month?month=MARCH", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("month: expected 200, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/readings/month?month=smarch", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad month: expected 400, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/readings/history", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history: expected 200, got %d", rec.Code)
	}
	var history []struct {
		Month string `json:"month"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history) != 1 || history[0].Month != "March" {
		t.Fatalf("unexpected history: %+v", history)
	}

	// Regular users cannot read the all-users view.
	rec = env.do(t, http.MethodGet, "/api/v1/readings/all", token, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("all readings as non-admin: expected 403, got %d", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/audit", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("audit: expected 200, got %d", rec.Code)
	}
	var trail []struct {
		Action string `json:"action"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &trail); err != nil {
		t.Fatalf("decode audit trail: %v", err)
	}
	wantActions := map[string]bool{"REGISTER": false, "LOGIN": false, "SUBMIT_READING": false, "VIEW_READING_HISTORY": false}
	for _, entry := range trail {
		if _, ok := wantActions[entry.Action]; ok {
			wantActions[entry.Action] = true
		}
	}
	for action, seen := range wantActions {
		if !seen {
			t.Fatalf("expected %s in audit trail, got %+v", action, trail)
		}
	}

	rec = env.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d", rec.Code)
	}

	// Logging out again is harmless.
	rec = env.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("double logout: expected 200, got %d", rec.Code)
	}

	// The token still decodes but its session is gone.
	rec = env.do(t, http.MethodGet, "/api/v1/readings/current", token, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("current after logout: expected 401, got %d", rec.Code)
	}

	// Logging in again works after logout.
	env.login(t, "alice@example.com", "password123")
}

func TestAdminReadsAllCurrent(t *testing.T) {
	env := newTestEnv(t)

	env.register(t, "alice", "alice@example.com", "password123")
	aliceToken := env.login(t, "alice@example.com", "password123")

	rec := env.do(t, http.MethodPost, "/api/v1/readings", aliceToken, marchReadings())
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit: expected 201, got %d", rec.Code)
	}

	// Seed an admin directly; registration never grants the flag.
	salt, err := security.GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt returned error: %v", err)
	}
	if _, err := env.users.Create(context.Background(), domain.User{
		Username:     "admin",
		Email:        "admin@example.com",
		PasswordHash: security.HashPassword("admin-pass-1", salt),
		Salt:         salt,
		IsAdmin:      true,
	}); err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	adminToken := env.login(t, "admin@example.com", "admin-pass-1")

	rec = env.do(t, http.MethodGet, "/api/v1/readings/all", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("all readings as admin: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var all map[string]struct {
		Month string `json:"month"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &all); err != nil {
		t.Fatalf("decode all readings: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected one user with readings, got %d", len(all))
	}
	if all["alice"].Month != "March" {
		t.Fatalf("unexpected payload: %+v", all)
	}
}

func TestCORSHeaders(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/auth/login", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	env.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight: expected 204, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Fatalf("unexpected allow-origin header: %q", got)
	}
	if rec.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Fatalf("expected allow-methods header on preflight")
	}

	// Unlisted origins get no CORS grant.
	req = httptest.NewRequest(http.MethodOptions, "/api/v1/auth/login", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	env.engine.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no allow-origin for unlisted origin, got %q", got)
	}
}

func TestUnknownRouteReturns404(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/nope", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
