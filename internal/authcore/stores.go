package authcore

import (
	"context"
	"time"
)

// User is the persisted account record. The auth core never mutates a user
// after creation.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}

// UserSummary carries the public fields of a user. The password hash never
// leaves the storage boundary through this type.
type UserSummary struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Summary projects the public fields of a user.
func (user *User) Summary() UserSummary {
	return UserSummary{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		CreatedAt: user.CreatedAt,
	}
}

// RefreshTokenRecord is a persisted refresh token together with the owning
// user's public fields.
type RefreshTokenRecord struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
	User      UserSummary
}

// UserStore persists and retrieves application users.
type UserStore interface {
	// CreateUser inserts a new user. The storage layer enforces email
	// uniqueness; a duplicate insert returns ErrEmailTaken.
	CreateUser(ctx context.Context, email string, name string, passwordHash string) (*User, error)
	// FindUserByEmail returns ErrUserNotFound when no user matches.
	FindUserByEmail(ctx context.Context, email string) (*User, error)
	// FindUserByID returns ErrUserNotFound when no user matches.
	FindUserByID(ctx context.Context, userID string) (*User, error)
}

// RefreshTokenStore persists long-lived refresh tokens.
type RefreshTokenStore interface {
	// SaveRefreshToken inserts a token row. The token value is unique;
	// a collision returns ErrRefreshTokenDuplicate.
	SaveRefreshToken(ctx context.Context, token string, userID string, expiresAt time.Time) error
	// FindRefreshToken looks a token up by exact value and returns
	// ErrRefreshTokenNotFound when absent. Expiry is NOT checked here;
	// callers decide what an expired row means.
	FindRefreshToken(ctx context.Context, token string) (*RefreshTokenRecord, error)
	// DeleteRefreshToken removes the row. Deleting an absent token is not
	// an error.
	DeleteRefreshToken(ctx context.Context, token string) error
}
