package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"challenge-hub/internal/model"
)

// memCredentialStore implements CredentialStore with the same atomicity
// contract the Postgres repository provides: version bumps and conditional
// OTP clears are single operations under one lock.
type memCredentialStore struct {
	mu    sync.Mutex
	users map[string]model.User
}

func newMemCredentialStore() *memCredentialStore {
	return &memCredentialStore{users: map[string]model.User{}}
}

func (s *memCredentialStore) FindByID(_ context.Context, id string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (s *memCredentialStore) FindByEmail(_ context.Context, email string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == model.NormalizeEmail(email) {
			return u, nil
		}
	}
	return model.User{}, model.ErrUserNotFound
}

func (s *memCredentialStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := s.FindByEmail(ctx, email)
	if errors.Is(err, model.ErrUserNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *memCredentialStore) Create(_ context.Context, u model.User) error {
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

func (s *memCredentialStore) UpdatePassword(_ context.Context, userID string, passwordHash string) (int64, error) {
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

func (s *memCredentialStore) BumpTokenVersion(_ context.Context, userID string) (int64, error) {
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

func (s *memCredentialStore) SetPendingOTP(_ context.Context, userID string, otpHash string, expiresAt time.Time) error {
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

func (s *memCredentialStore) ClearPendingOTP(_ context.Context, userID string, expectedHash string) (bool, error) {
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

func (s *memCredentialStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return model.ErrUserNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *memCredentialStore) List(_ context.Context) ([]model.PublicUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.PublicUser, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u.Public())
	}
	return out, nil
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

// recordingMailer captures sent codes; fail makes every send error.
type recordingMailer struct {
	mu    sync.Mutex
	sent  map[string]string
	fail  bool
	count int
}

func newRecordingMailer() *recordingMailer {
	return &recordingMailer{sent: map[string]string{}}
}

func (m *recordingMailer) SendOTP(_ context.Context, email string, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fail {
		return errors.New("smtp unreachable")
	}
	m.sent[email] = code
	m.count++
	return nil
}

func (m *recordingMailer) lastCode(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent[email]
}
