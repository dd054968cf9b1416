package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"challenge-hub/internal/auth"
	"challenge-hub/internal/mailer"
	"challenge-hub/internal/model"
)

const defaultProfilePictureURL = "https://www.gravatar.com/avatar/?d=mp"

// AuthService orchestrates the credential check, the OTP second factor and
// token issuance. Token validity is never cached here: every refresh check
// reads the user row again so a version bump is observed immediately.
type AuthService struct {
	users  CredentialStore
	hasher *auth.Hasher
	otp    *OTPService
	tokens *auth.TokenIssuer
	mail   mailer.Mailer
}

func NewAuthService(users CredentialStore, hasher *auth.Hasher, otp *OTPService, tokens *auth.TokenIssuer, mail mailer.Mailer) *AuthService {
	return &AuthService{users: users, hasher: hasher, otp: otp, tokens: tokens, mail: mail}
}

// Register creates the account and immediately issues a token pair. The
// refresh token is minted against the version read back from the stored row,
// not the value this function happens to hold in memory.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (model.TokenResponse, string, error) {
	exists, err := s.users.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return model.TokenResponse{}, "", err
	}
	if exists {
		return model.TokenResponse{}, "", model.ErrUserAlreadyExists
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return model.TokenResponse{}, "", err
	}

	now := time.Now().UTC()
	user := model.User{
		ID:                uuid.NewString(),
		FirstName:         req.FirstName,
		LastName:          req.LastName,
		Email:             req.Email,
		PasswordHash:      passwordHash,
		Role:              req.Role,
		ProfilePictureURL: defaultProfilePictureURL,
		TokenVersion:      1,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return model.TokenResponse{}, "", err
	}

	return s.issueTokenPair(ctx, user.ID)
}

// Login runs the first factor only. On success an OTP is issued and mailed;
// no tokens exist until the second factor clears. A failed send aborts the
// flow with a delivery error instead of leaving the user waiting for a code
// that never arrives.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.LoginResponse, error) {
	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return model.LoginResponse{}, err
	}

	match, err := s.hasher.Verify(req.Password, user.PasswordHash)
	if err != nil {
		return model.LoginResponse{}, err
	}
	if !match {
		return model.LoginResponse{}, model.ErrInvalidCredentials
	}

	code, err := s.otp.Issue(ctx, user.ID)
	if err != nil {
		return model.LoginResponse{}, err
	}

	if err := s.mail.SendOTP(ctx, user.Email, code); err != nil {
		// Drop the undeliverable challenge so the account is not stuck
		// pending; the next login attempt issues a fresh one anyway.
		if fresh, readErr := s.users.FindByID(ctx, user.ID); readErr == nil && fresh.PendingOTPHash != nil {
			_, _ = s.users.ClearPendingOTP(ctx, user.ID, *fresh.PendingOTPHash)
		}
		return model.LoginResponse{}, fmt.Errorf("%w: %v", model.ErrMailDelivery, err)
	}

	return model.LoginResponse{Email: user.Email, Message: "Verify your email for the OTP"}, nil
}

// VerifyOTP consumes the second factor and, on success, mints the token
// pair. OTP failures collapse to a single client-facing message upstream so
// the response does not reveal which check failed.
func (s *AuthService) VerifyOTP(ctx context.Context, req model.VerifyOTPRequest) (model.TokenResponse, string, error) {
	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return model.TokenResponse{}, "", err
	}

	if err := s.otp.Verify(ctx, user, req.OTP); err != nil {
		return model.TokenResponse{}, "", err
	}

	return s.issueTokenPair(ctx, user.ID)
}

// ChangePassword verifies the current secret, then writes the new hash and
// the version bump as one store operation. Every refresh token issued before
// this call dies with the bump; live access tokens ride out their 20 minutes.
func (s *AuthService) ChangePassword(ctx context.Context, userID string, req model.ChangePasswordRequest) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	match, err := s.hasher.Verify(req.CurrentPassword, user.PasswordHash)
	if err != nil {
		return err
	}
	if !match {
		return model.ErrInvalidCredentials
	}

	newHash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return err
	}

	if _, err := s.users.UpdatePassword(ctx, userID, newHash); err != nil {
		return err
	}
	return nil
}

// RevokeAllSessions is the explicit logout-everywhere path.
func (s *AuthService) RevokeAllSessions(ctx context.Context, userID string) error {
	_, err := s.users.BumpTokenVersion(ctx, userID)
	return err
}

// Authenticate is the per-request session check. A valid access token is
// accepted as-is. An invalid or expired one falls back to the refresh token:
// signature, expiry, then a fresh user read whose token_version must equal
// the claim. On renewal the caller receives a new access token to surface in
// a response header. An absent access token fails immediately; the refresh
// fallback is not attempted.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string, refreshToken string) (*model.AuthClaims, string, error) {
	if accessToken == "" {
		return nil, "", model.ErrUnauthorized
	}

	claims, err := s.tokens.VerifyAccessToken(accessToken)
	if err == nil {
		return claims, "", nil
	}

	if refreshToken == "" {
		return nil, "", model.ErrUnauthorized
	}

	userID, version, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, "", model.ErrUnauthorized
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, "", model.ErrUnauthorized
		}
		return nil, "", err
	}
	if user.TokenVersion != version {
		return nil, "", model.ErrUnauthorized
	}

	renewed, err := s.tokens.IssueAccessToken(user.ID, user.Role)
	if err != nil {
		return nil, "", err
	}

	return &model.AuthClaims{UserID: user.ID, Role: user.Role}, renewed, nil
}

func (s *AuthService) AccessTTL() time.Duration { return s.tokens.AccessTTL() }

func (s *AuthService) RefreshTTL() time.Duration { return s.tokens.RefreshTTL() }

// issueTokenPair re-reads the user so the refresh token binds to the version
// current at mint time, not one cached from an earlier step of the flow.
func (s *AuthService) issueTokenPair(ctx context.Context, userID string) (model.TokenResponse, string, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return model.TokenResponse{}, "", err
	}

	accessToken, err := s.tokens.IssueAccessToken(user.ID, user.Role)
	if err != nil {
		return model.TokenResponse{}, "", err
	}

	refreshToken, err := s.tokens.IssueRefreshToken(user.ID, user.TokenVersion)
	if err != nil {
		return model.TokenResponse{}, "", err
	}

	return model.TokenResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.tokens.AccessTTL().Seconds()),
		User:        user.Public(),
	}, refreshToken, nil
}
