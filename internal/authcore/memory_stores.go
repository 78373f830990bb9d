package authcore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryUserStore is an in-memory UserStore intended for tests and dev.
type MemoryUserStore struct {
	mutex   sync.Mutex
	byID    map[string]*User
	byEmail map[string]string
	clock   Clock
}

// NewMemoryUserStore creates an empty in-memory user store.
func NewMemoryUserStore(clock Clock) *MemoryUserStore {
	if clock == nil {
		clock = NewSystemClock()
	}
	return &MemoryUserStore{
		byID:    make(map[string]*User),
		byEmail: make(map[string]string),
		clock:   clock,
	}
}

// CreateUser inserts a user, enforcing email uniqueness.
func (store *MemoryUserStore) CreateUser(ctx context.Context, email string, name string, passwordHash string) (*User, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	if _, exists := store.byEmail[email]; exists {
		return nil, fmt.Errorf("user_store.create: %w", ErrEmailTaken)
	}
	record := &User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    store.clock.Now(),
	}
	store.byID[record.ID] = record
	store.byEmail[email] = record.ID
	clone := *record
	return &clone, nil
}

// FindUserByEmail looks a user up by exact (normalized) email.
func (store *MemoryUserStore) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	userID, exists := store.byEmail[email]
	if !exists {
		return nil, fmt.Errorf("user_store.find_by_email: %w", ErrUserNotFound)
	}
	clone := *store.byID[userID]
	return &clone, nil
}

// FindUserByID looks a user up by identifier.
func (store *MemoryUserStore) FindUserByID(ctx context.Context, userID string) (*User, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	record, exists := store.byID[userID]
	if !exists {
		return nil, fmt.Errorf("user_store.find_by_id: %w", ErrUserNotFound)
	}
	clone := *record
	return &clone, nil
}

// DeleteUser removes a user. Only tests exercise this; the API itself has
// no account-deletion surface.
func (store *MemoryUserStore) DeleteUser(ctx context.Context, userID string) {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	record, exists := store.byID[userID]
	if !exists {
		return
	}
	delete(store.byEmail, record.Email)
	delete(store.byID, userID)
}

// MemoryRefreshTokenStore is an in-memory RefreshTokenStore intended for
// tests and dev.
type MemoryRefreshTokenStore struct {
	mutex   sync.Mutex
	byToken map[string]*RefreshTokenRecord
	users   *MemoryUserStore
	clock   Clock
}

// NewMemoryRefreshTokenStore creates a new in-memory token store. The user
// store supplies the user summary returned by FindRefreshToken.
func NewMemoryRefreshTokenStore(users *MemoryUserStore, clock Clock) *MemoryRefreshTokenStore {
	if clock == nil {
		clock = NewSystemClock()
	}
	return &MemoryRefreshTokenStore{
		byToken: make(map[string]*RefreshTokenRecord),
		users:   users,
		clock:   clock,
	}
}

// SaveRefreshToken inserts a token row, enforcing value uniqueness.
func (store *MemoryRefreshTokenStore) SaveRefreshToken(ctx context.Context, token string, userID string, expiresAt time.Time) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	if _, exists := store.byToken[token]; exists {
		return fmt.Errorf("refresh_store.save: %w", ErrRefreshTokenDuplicate)
	}
	store.byToken[token] = &RefreshTokenRecord{
		Token:     token,
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: store.clock.Now(),
	}
	return nil
}

// FindRefreshToken looks a token up by exact value.
func (store *MemoryRefreshTokenStore) FindRefreshToken(ctx context.Context, token string) (*RefreshTokenRecord, error) {
	store.mutex.Lock()
	record, exists := store.byToken[token]
	if !exists {
		store.mutex.Unlock()
		return nil, fmt.Errorf("refresh_store.find: %w", ErrRefreshTokenNotFound)
	}
	clone := *record
	store.mutex.Unlock()

	if store.users != nil {
		owner, findErr := store.users.FindUserByID(ctx, clone.UserID)
		if findErr != nil {
			return nil, fmt.Errorf("refresh_store.find: %w", findErr)
		}
		clone.User = owner.Summary()
	}
	return &clone, nil
}

// DeleteRefreshToken removes a token row; absent rows are not an error.
func (store *MemoryRefreshTokenStore) DeleteRefreshToken(ctx context.Context, token string) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	delete(store.byToken, token)
	return nil
}
