package service

import (
	"context"
	"time"

	"challenge-hub/internal/model"
)

// CredentialStore is the persistence contract the auth core depends on. The
// implementation must make UpdatePassword, BumpTokenVersion and
// ClearPendingOTP atomic single operations: the session-lifecycle invariants
// (no lost version bumps, single-use OTPs) live in these three calls.
type CredentialStore interface {
	FindByID(ctx context.Context, id string) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Create returns model.ErrUserAlreadyExists when the email is taken,
	// so registrations racing past ExistsByEmail still fail cleanly.
	Create(ctx context.Context, u model.User) error

	// UpdatePassword replaces the hash and increments the token version in
	// one atomic write, returning the new version.
	UpdatePassword(ctx context.Context, userID string, passwordHash string) (int64, error)
	// BumpTokenVersion atomically increments and returns the version.
	BumpTokenVersion(ctx context.Context, userID string) (int64, error)

	// SetPendingOTP overwrites any outstanding challenge.
	SetPendingOTP(ctx context.Context, userID string, otpHash string, expiresAt time.Time) error
	// ClearPendingOTP clears the challenge only if it still holds
	// expectedHash, reporting whether this call did the clearing. Of two
	// racing consumers exactly one sees true.
	ClearPendingOTP(ctx context.Context, userID string, expectedHash string) (bool, error)

	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]model.PublicUser, error)
}

type ChallengeStore interface {
	FindByID(ctx context.Context, id string) (model.Challenge, error)
	List(ctx context.Context) ([]model.Challenge, error)
	Create(ctx context.Context, c model.Challenge) error
	Update(ctx context.Context, c model.Challenge) error
	Delete(ctx context.Context, id string) error
	AddParticipant(ctx context.Context, challengeID string, userID string) error
	RemoveParticipant(ctx context.Context, challengeID string, userID string) error
}
