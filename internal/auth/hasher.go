package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrHashingFailed signals an infrastructure fault in the hash primitive,
	// never a bad password.
	ErrHashingFailed = errors.New("password hashing failed")
	// ErrMalformedDigest signals that a stored digest could not be parsed.
	// A plain mismatch is not an error.
	ErrMalformedDigest = errors.New("malformed password digest")
)

// Hasher wraps bcrypt with a configurable cost. The produced digest embeds
// its own salt and cost, so Verify needs nothing beyond the digest itself.
type Hasher struct {
	cost int
}

func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

func (h *Hasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrHashingFailed, err)
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches digest. Mismatch is (false, nil);
// the error return is reserved for digests bcrypt cannot parse.
func (h *Hasher) Verify(plaintext string, digest string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("%w: %v", ErrMalformedDigest, err)
}
