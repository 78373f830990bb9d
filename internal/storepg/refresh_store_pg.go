package storepg

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tyemirov/taskdeck/internal/authcore"
)

const uniqueViolationCode = "23505"

// PostgresRefreshTokenStore persists refresh tokens in PostgreSQL,
// keyed by the token's hash. Lookups join the users table so callers
// receive the owner's public fields in one round trip.
type PostgresRefreshTokenStore struct {
	pool *pgxpool.Pool
}

var _ authcore.RefreshTokenStore = (*PostgresRefreshTokenStore)(nil)

// NewPostgresRefreshTokenStore constructs a Postgres-backed store.
func NewPostgresRefreshTokenStore(pool *pgxpool.Pool) *PostgresRefreshTokenStore {
	return &PostgresRefreshTokenStore{pool: pool}
}

// SaveRefreshToken inserts a token row keyed by the token's hash.
func (store *PostgresRefreshTokenStore) SaveRefreshToken(ctx context.Context, token string, userID string, expiresAt time.Time) error {
	_, execErr := store.pool.Exec(ctx, `
INSERT INTO refresh_tokens (token_hash, user_id, expires_at, created_at)
VALUES ($1, $2, $3, $4)
`, hashToken(token), userID, expiresAt.UTC(), time.Now().UTC())
	if execErr != nil {
		var pgErr *pgconn.PgError
		if errors.As(execErr, &pgErr) && pgErr.Code == uniqueViolationCode {
			return fmt.Errorf("refresh_store.save.pgx: %w", authcore.ErrRefreshTokenDuplicate)
		}
		return fmt.Errorf("refresh_store.save.pgx: %w", execErr)
	}
	return nil
}

// FindRefreshToken locates a token by exact value and attaches the
// owning user's public fields.
func (store *PostgresRefreshTokenStore) FindRefreshToken(ctx context.Context, token string) (*authcore.RefreshTokenRecord, error) {
	record := authcore.RefreshTokenRecord{Token: token}
	row := store.pool.QueryRow(ctx, `
SELECT rt.user_id, rt.expires_at, rt.created_at, u.email, u.name, u.created_at
FROM refresh_tokens rt
JOIN users u ON u.id = rt.user_id
WHERE rt.token_hash = $1
`, hashToken(token))
	scanErr := row.Scan(
		&record.UserID,
		&record.ExpiresAt,
		&record.CreatedAt,
		&record.User.Email,
		&record.User.Name,
		&record.User.CreatedAt,
	)
	if scanErr != nil {
		if errors.Is(scanErr, pgx.ErrNoRows) {
			return nil, fmt.Errorf("refresh_store.find.pgx: %w", authcore.ErrRefreshTokenNotFound)
		}
		return nil, fmt.Errorf("refresh_store.find.pgx: %w", scanErr)
	}
	record.User.ID = record.UserID
	return &record, nil
}

// DeleteRefreshToken removes the token row. Deleting an absent token is
// not an error; logout stays idempotent.
func (store *PostgresRefreshTokenStore) DeleteRefreshToken(ctx context.Context, token string) error {
	_, execErr := store.pool.Exec(ctx, `
DELETE FROM refresh_tokens
WHERE token_hash = $1
`, hashToken(token))
	if execErr != nil {
		return fmt.Errorf("refresh_store.delete.pgx: %w", execErr)
	}
	return nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
