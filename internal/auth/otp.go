package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

// ErrRandomSource signals that the secure random source is unavailable.
var ErrRandomSource = errors.New("secure random source unavailable")

// otpRange covers the 6-digit codes 100000-999999. Drawing from crypto/rand
// with rand.Int keeps the distribution uniform; a modulo over a non-aligned
// range would bias low codes.
var (
	otpRange = big.NewInt(900_000)
	otpFloor = int64(100_000)
)

// GenerateOTP returns a 6-digit numeric code from a cryptographically secure
// source. The caller is responsible for hashing it before persisting.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, otpRange)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRandomSource, err)
	}
	return fmt.Sprintf("%06d", n.Int64()+otpFloor), nil
}
