package model

import "errors"

var (
	// User related errors
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// OTP challenge errors
	ErrOTPNotFound = errors.New("otp challenge not found")
	ErrOTPExpired  = errors.New("otp challenge expired")
	ErrOTPMismatch = errors.New("otp code mismatch")

	// Token/session errors
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
	ErrUnauthorized = errors.New("unauthorized")

	// Challenge related errors
	ErrChallengeNotFound = errors.New("challenge not found")
	ErrChallengeNotOpen  = errors.New("challenge is not open")
	ErrAlreadyJoined     = errors.New("already joined challenge")
	ErrNotInChallenge    = errors.New("not a challenge participant")
	ErrInvalidTransition = errors.New("invalid challenge status transition")

	// Delivery errors
	ErrMailDelivery = errors.New("mail delivery failed")
)
