package authcore

import "errors"

var (
	// ErrEmailTaken indicates a registration attempt with an email that is
	// already stored (including a lost race against a concurrent insert).
	ErrEmailTaken = errors.New("user_store.email_taken")
	// ErrUserNotFound indicates no user matched the provided key.
	ErrUserNotFound = errors.New("user_store.not_found")
	// ErrRefreshTokenNotFound indicates no refresh token row matched the provided value.
	ErrRefreshTokenNotFound = errors.New("refresh_store.not_found")
	// ErrRefreshTokenDuplicate indicates a refresh token value collision on insert.
	ErrRefreshTokenDuplicate = errors.New("refresh_store.duplicate_token")
	// ErrInvalidToken indicates a token that failed cryptographic verification,
	// regardless of the specific cause.
	ErrInvalidToken = errors.New("token_codec.invalid")
)
