package domain

import "errors"

// Error taxonomy shared by repositories and services. Handlers map these to
// HTTP statuses; only ErrStorageUnavailable is worth retrying.
var (
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrWeakPassword       = errors.New("password does not meet the minimum policy")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotVerified        = errors.New("email is not verified")
	ErrAlreadyVerified    = errors.New("email is already verified")
	ErrExpiredToken       = errors.New("token expired")
	ErrPurposeMismatch    = errors.New("token purpose mismatch")
	ErrInvalidSignature   = errors.New("invalid token")
	ErrRevokedToken       = errors.New("refresh token has been revoked")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
)
