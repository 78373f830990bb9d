package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/tyemirov/taskdeck/internal/authcore"
	"gorm.io/gorm"
)

// CreateUser inserts a new user. The unique index on email resolves the
// race between concurrent registrations; the losing insert surfaces as
// authcore.ErrEmailTaken.
func (store *Store) CreateUser(ctx context.Context, email string, name string, passwordHash string) (*authcore.User, error) {
	record := userRecord{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
	}
	if err := store.db.WithContext(ctx).Create(&record).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, fmt.Errorf("user_store.create.%s: %w", store.driverLabel, authcore.ErrEmailTaken)
		}
		return nil, fmt.Errorf("user_store.create.%s: %w", store.driverLabel, err)
	}
	return record.toDomain(), nil
}

// FindUserByEmail looks a user up by exact (normalized) email.
func (store *Store) FindUserByEmail(ctx context.Context, email string) (*authcore.User, error) {
	var record userRecord
	err := store.db.WithContext(ctx).Where("email = ?", email).Take(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user_store.find_by_email.%s: %w", store.driverLabel, authcore.ErrUserNotFound)
		}
		return nil, fmt.Errorf("user_store.find_by_email.%s: %w", store.driverLabel, err)
	}
	return record.toDomain(), nil
}

// FindUserByID looks a user up by identifier.
func (store *Store) FindUserByID(ctx context.Context, userID string) (*authcore.User, error) {
	var record userRecord
	err := store.db.WithContext(ctx).Where("id = ?", userID).Take(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user_store.find_by_id.%s: %w", store.driverLabel, authcore.ErrUserNotFound)
		}
		return nil, fmt.Errorf("user_store.find_by_id.%s: %w", store.driverLabel, err)
	}
	return record.toDomain(), nil
}
