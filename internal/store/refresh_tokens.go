package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tyemirov/taskdeck/internal/authcore"
	"gorm.io/gorm"
)

// SaveRefreshToken inserts a token row keyed by the token's hash. Token
// values come from cryptographically random signing material, so a hash
// collision is an internal error, not a business case.
func (store *Store) SaveRefreshToken(ctx context.Context, token string, userID string, expiresAt time.Time) error {
	record := refreshTokenRecord{
		TokenHash: hashToken(token),
		UserID:    userID,
		ExpiresAt: expiresAt,
	}
	if err := store.db.WithContext(ctx).Create(&record).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("refresh_store.save.%s: %w", store.driverLabel, authcore.ErrRefreshTokenDuplicate)
		}
		return fmt.Errorf("refresh_store.save.%s: %w", store.driverLabel, err)
	}
	return nil
}

// FindRefreshToken locates a token by exact value and attaches the owning
// user's public fields.
func (store *Store) FindRefreshToken(ctx context.Context, token string) (*authcore.RefreshTokenRecord, error) {
	var record refreshTokenRecord
	err := store.db.WithContext(ctx).Where("token_hash = ?", hashToken(token)).Take(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("refresh_store.find.%s: %w", store.driverLabel, authcore.ErrRefreshTokenNotFound)
		}
		return nil, fmt.Errorf("refresh_store.find.%s: %w", store.driverLabel, err)
	}

	owner, ownerErr := store.FindUserByID(ctx, record.UserID)
	if ownerErr != nil {
		return nil, fmt.Errorf("refresh_store.find.%s: %w", store.driverLabel, ownerErr)
	}

	return &authcore.RefreshTokenRecord{
		Token:     token,
		UserID:    record.UserID,
		ExpiresAt: record.ExpiresAt,
		CreatedAt: record.CreatedAt,
		User:      owner.Summary(),
	}, nil
}

// DeleteRefreshToken removes the token row. Deleting an absent token is
// not an error; logout stays idempotent.
func (store *Store) DeleteRefreshToken(ctx context.Context, token string) error {
	result := store.db.WithContext(ctx).Where("token_hash = ?", hashToken(token)).Delete(&refreshTokenRecord{})
	if result.Error != nil {
		return fmt.Errorf("refresh_store.delete.%s: %w", store.driverLabel, result.Error)
	}
	return nil
}
