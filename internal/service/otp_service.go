package service

import (
	"context"
	"fmt"
	"time"

	"challenge-hub/internal/auth"
	"challenge-hub/internal/model"
)

// OTPService owns the one-time-passcode invariants: at most one active
// challenge per user, single use, and a hard expiry checked against the wall
// clock at verification time. Only the bcrypt hash of a code is ever stored.
type OTPService struct {
	users  CredentialStore
	hasher *auth.Hasher
	ttl    time.Duration
	now    func() time.Time
}

func NewOTPService(users CredentialStore, hasher *auth.Hasher, ttl time.Duration) *OTPService {
	return &OTPService{users: users, hasher: hasher, ttl: ttl, now: time.Now}
}

// Issue generates a fresh code and persists its hash, superseding any
// outstanding challenge for the user. The plaintext is returned for
// out-of-band delivery and exists nowhere else.
func (s *OTPService) Issue(ctx context.Context, userID string) (string, error) {
	code, err := auth.GenerateOTP()
	if err != nil {
		return "", err
	}

	codeHash, err := s.hasher.Hash(code)
	if err != nil {
		return "", err
	}

	if err := s.users.SetPendingOTP(ctx, userID, codeHash, s.now().UTC().Add(s.ttl)); err != nil {
		return "", fmt.Errorf("persist otp challenge: %w", err)
	}

	return code, nil
}

// Verify consumes the pending challenge for an already-loaded user. The
// final conditional clear is what makes consumption single-use: if a
// concurrent verify or a newer Issue got there first, the clear affects
// nothing and this call reports NotFound regardless of the code being right.
func (s *OTPService) Verify(ctx context.Context, user model.User, submitted string) error {
	if user.PendingOTPHash == nil || user.PendingOTPExpiresAt == nil {
		return model.ErrOTPNotFound
	}

	if s.now().After(*user.PendingOTPExpiresAt) {
		// Clear the stale challenge so the code cannot be retried later.
		// Best effort: expiry is re-checked on every read anyway.
		if _, err := s.users.ClearPendingOTP(ctx, user.ID, *user.PendingOTPHash); err != nil {
			return fmt.Errorf("clear expired otp: %w", err)
		}
		return model.ErrOTPExpired
	}

	match, err := s.hasher.Verify(submitted, *user.PendingOTPHash)
	if err != nil {
		return fmt.Errorf("verify otp hash: %w", err)
	}
	if !match {
		return model.ErrOTPMismatch
	}

	consumed, err := s.users.ClearPendingOTP(ctx, user.ID, *user.PendingOTPHash)
	if err != nil {
		return fmt.Errorf("consume otp challenge: %w", err)
	}
	if !consumed {
		return model.ErrOTPNotFound
	}

	return nil
}
