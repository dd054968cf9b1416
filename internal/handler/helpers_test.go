package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"challenge-hub/internal/auth"
	"challenge-hub/internal/cache"
	"challenge-hub/internal/config"
	"challenge-hub/internal/handler"
	"challenge-hub/internal/metrics"
	"challenge-hub/internal/middleware"
	"challenge-hub/internal/model"
	"challenge-hub/internal/router"
	"challenge-hub/internal/service"
)

type memUserStore struct {
	mu    sync.Mutex
	users map[string]model.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: map[string]model.User{}}
}

func (s *memUserStore) FindByID(_ context.Context, id string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (s *memUserStore) FindByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == model.NormalizeEmail(email) {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (s *memUserStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := s.FindByEmail(ctx, email)
	if errors.Is(err, model.ErrUserNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *memUserStore) Create(_ context.Context, u model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Mirror the unique index on email.
	for _, existing := range s.users {
		if existing.Email == u.Email {
			return model.ErrUserAlreadyExists
		}
	}
	s.users[u.ID] = u
	return nil
}

func (s *memUserStore) UpdatePassword(_ context.Context, userID string, passwordHash string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return 0, model.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	u.TokenVersion++
	s.users[userID] = u
	return u.TokenVersion, nil
}

func (s *memUserStore) BumpTokenVersion(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return 0, model.ErrUserNotFound
	}
	u.TokenVersion++
	s.users[userID] = u
	return u.TokenVersion, nil
}

func (s *memUserStore) SetPendingOTP(_ context.Context, userID string, otpHash string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return model.ErrUserNotFound
	}
	u.PendingOTPHash = &otpHash
	u.PendingOTPExpiresAt = &expiresAt
	s.users[userID] = u
	return nil
}

func (s *memUserStore) ClearPendingOTP(_ context.Context, userID string, expectedHash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok || u.PendingOTPHash == nil || *u.PendingOTPHash != expectedHash {
		return false, nil
	}
	u.PendingOTPHash = nil
	u.PendingOTPExpiresAt = nil
	s.users[userID] = u
	return true, nil
}

func (s *memUserStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return model.ErrUserNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *memUserStore) List(_ context.Context) ([]model.PublicUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.PublicUser, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u.Public())
	}
	return out, nil
}

func (s *memUserStore) setRole(email string, role string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, u := range s.users {
		if u.Email == model.NormalizeEmail(email) {
			u.Role = role
			s.users[id] = u
			return
		}
	}
}

type memChallengeStore struct {
	mu         sync.Mutex
	challenges map[string]model.Challenge
}

func newMemChallengeStore() *memChallengeStore {
	return &memChallengeStore{challenges: map[string]model.Challenge{}}
}

func (s *memChallengeStore) FindByID(_ context.Context, id string) (model.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.challenges[id]
	if !ok {
		return model.Challenge{}, model.ErrChallengeNotFound
	}
	return c, nil
}

func (s *memChallengeStore) List(_ context.Context) ([]model.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Challenge, 0, len(s.challenges))
	for _, c := range s.challenges {
		out = append(out, c)
	}
	return out, nil
}

func (s *memChallengeStore) Create(_ context.Context, c model.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.challenges[c.ID] = c
	return nil
}

func (s *memChallengeStore) Update(_ context.Context, c model.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.challenges[c.ID]; !ok {
		return model.ErrChallengeNotFound
	}
	s.challenges[c.ID] = c
	return nil
}

func (s *memChallengeStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.challenges[id]; !ok {
		return model.ErrChallengeNotFound
	}
	delete(s.challenges, id)
	return nil
}

func (s *memChallengeStore) AddParticipant(_ context.Context, challengeID string, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.challenges[challengeID]
	if !ok {
		return model.ErrChallengeNotFound
	}
	for _, p := range c.Participants {
		if p == userID {
			return model.ErrAlreadyJoined
		}
	}
	c.Participants = append(c.Participants, userID)
	s.challenges[challengeID] = c
	return nil
}

func (s *memChallengeStore) RemoveParticipant(_ context.Context, challengeID string, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.challenges[challengeID]
	if !ok {
		return model.ErrChallengeNotFound
	}
	for i, p := range c.Participants {
		if p == userID {
			c.Participants = append(c.Participants[:i], c.Participants[i+1:]...)
			s.challenges[challengeID] = c
			return nil
		}
	}
	return model.ErrNotInChallenge
}

type captureMailer struct {
	mu   sync.Mutex
	sent map[string]string
}

func newCaptureMailer() *captureMailer {
	return &captureMailer{sent: map[string]string{}}
}

func (m *captureMailer) SendOTP(_ context.Context, email string, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent[email] = code
	return nil
}

func (m *captureMailer) lastCode(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent[email]
}

type testEnv struct {
	router http.Handler
	users  *memUserStore
	mailer *captureMailer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{
		RequestTimeout:   5 * time.Second,
		CORSOrigins:      []string{"*"},
		RateLimitRPM:     100000,
		AuthRateLimitRPM: 100000,
	}

	users := newMemUserStore()
	challenges := newMemChallengeStore()
	mail := newCaptureMailer()

	redisServer := miniredis.RunT(t)
	challengeCache := cache.NewWithClient(redis.NewClient(&redis.Options{Addr: redisServer.Addr()}), time.Hour)

	hasher := auth.NewHasher(bcrypt.MinCost)
	tokens := auth.NewTokenIssuer("test-access-secret", "test-refresh-secret", 20*time.Minute, 480*time.Hour)
	otpService := service.NewOTPService(users, hasher, 5*time.Minute)
	authService := service.NewAuthService(users, hasher, otpService, tokens, mail)

	m := metrics.New()
	authMiddleware := middleware.NewAuthMiddleware(authService, m)

	appRouter := router.New(cfg, authMiddleware, router.Handlers{
		Auth:      handler.NewAuthHandler(authService, false),
		User:      handler.NewUserHandler(service.NewUserService(users)),
		Challenge: handler.NewChallengeHandler(service.NewChallengeService(challenges, challengeCache)),
	}, m, map[string]router.HealthChecker{
		"database": func() error { return nil },
	})

	return &testEnv{router: appRouter, users: users, mailer: mail}
}

func (e *testEnv) do(t *testing.T, method string, path string, body any, decorate ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for _, d := range decorate {
		d(req)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func withBearer(token string) func(*http.Request) {
	return func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	}
}

func withCookie(cookie *http.Cookie) func(*http.Request) {
	return func(r *http.Request) {
		r.AddCookie(cookie)
	}
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) model.APIResponse {
	t.Helper()

	var envelope model.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func dataField(t *testing.T, envelope model.APIResponse, key string) any {
	t.Helper()

	data, ok := envelope.Data.(map[string]any)
	require.True(t, ok, "data is not an object: %#v", envelope.Data)
	return data[key]
}

func refreshCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == middleware.RefreshCookieName {
			return cookie
		}
	}
	return nil
}

// register runs the full registration flow and returns the access token and
// refresh cookie the client would hold afterwards.
func (e *testEnv) register(t *testing.T, email string, password string) (string, *http.Cookie) {
	t.Helper()

	rec := e.do(t, "POST", "/api/v1/auth/register", map[string]string{
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"email":      email,
		"password":   password,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	envelope := decodeEnvelope(t, rec)
	accessToken, _ := dataField(t, envelope, "access_token").(string)
	require.NotEmpty(t, accessToken)

	cookie := refreshCookie(t, rec)
	require.NotNil(t, cookie)
	return accessToken, cookie
}

// loginVerify performs the two-step login and returns the resulting tokens.
func (e *testEnv) loginVerify(t *testing.T, email string, password string) (string, *http.Cookie) {
	t.Helper()

	rec := e.do(t, "POST", "/api/v1/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	code := e.mailer.lastCode(model.NormalizeEmail(email))
	require.Len(t, code, 6)

	verifyRec := e.do(t, "POST", "/api/v1/auth/verify-otp", map[string]string{
		"email": email,
		"otp":   code,
	})
	require.Equal(t, http.StatusOK, verifyRec.Code, verifyRec.Body.String())

	envelope := decodeEnvelope(t, verifyRec)
	accessToken, _ := dataField(t, envelope, "access_token").(string)
	require.NotEmpty(t, accessToken)

	cookie := refreshCookie(t, verifyRec)
	require.NotNil(t, cookie)
	return accessToken, cookie
}
