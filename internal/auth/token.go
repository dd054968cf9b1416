package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"challenge-hub/internal/model"
)

var (
	// ErrSigningFailed signals a misconfigured or unavailable signing key.
	ErrSigningFailed = errors.New("token signing failed")
	// ErrTokenInvalid covers bad signatures, wrong algorithms and garbage input.
	ErrTokenInvalid = errors.New("token invalid")
	// ErrTokenExpired is returned for structurally valid but expired tokens.
	ErrTokenExpired = errors.New("token expired")
)

type accessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type refreshClaims struct {
	TokenVersion int64 `json:"token_version"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and verifies the two token kinds. Access and refresh
// tokens are signed with independent secrets, so one leaking does not
// compromise the other.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenIssuer(accessSecret string, refreshSecret string, accessTTL time.Duration, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func (t *TokenIssuer) AccessTTL() time.Duration { return t.accessTTL }

func (t *TokenIssuer) RefreshTTL() time.Duration { return t.refreshTTL }

// IssueAccessToken mints a short-lived, self-contained credential. Validity
// is purely signature plus expiry; no store lookup is involved.
func (t *TokenIssuer) IssueAccessToken(userID string, role string) (string, error) {
	if len(t.accessSecret) == 0 {
		return "", fmt.Errorf("%w: access secret is empty", ErrSigningFailed)
	}

	now := time.Now().UTC()
	claims := accessClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.accessTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.accessSecret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSigningFailed, err)
	}
	return signed, nil
}

// IssueRefreshToken binds the token to the user's token version at mint
// time. The version must come from a fresh user read, never a cached value.
func (t *TokenIssuer) IssueRefreshToken(userID string, tokenVersion int64) (string, error) {
	if len(t.refreshSecret) == 0 {
		return "", fmt.Errorf("%w: refresh secret is empty", ErrSigningFailed)
	}

	now := time.Now().UTC()
	claims := refreshClaims{
		TokenVersion: tokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.refreshTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.refreshSecret)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSigningFailed, err)
	}
	return signed, nil
}

func (t *TokenIssuer) VerifyAccessToken(tokenString string) (*model.AuthClaims, error) {
	var claims accessClaims
	if err := t.parse(tokenString, &claims, t.accessSecret); err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}
	return &model.AuthClaims{UserID: claims.Subject, Role: claims.Role}, nil
}

func (t *TokenIssuer) VerifyRefreshToken(tokenString string) (string, int64, error) {
	var claims refreshClaims
	if err := t.parse(tokenString, &claims, t.refreshSecret); err != nil {
		return "", 0, err
	}
	if claims.Subject == "" {
		return "", 0, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}
	return claims.Subject, claims.TokenVersion, nil
}

func (t *TokenIssuer) parse(tokenString string, claims jwt.Claims, secret []byte) error {
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !parsed.Valid {
		return ErrTokenInvalid
	}
	return nil
}
