package authcore

import (
	"context"
	"errors"
	"strings"

	"github.com/tyemirov/taskdeck/internal/apperr"
	"go.uber.org/zap"
)

// Service orchestrates registration, login, refresh, and logout.
type Service struct {
	users         UserStore
	refreshTokens RefreshTokenStore
	hasher        *BcryptHasher
	codec         *TokenCodec
	clock         Clock
	logger        *zap.Logger
	metrics       MetricsRecorder
}

// NewService wires the auth service from its collaborators.
func NewService(users UserStore, refreshTokens RefreshTokenStore, hasher *BcryptHasher, codec *TokenCodec, clock Clock, logger *zap.Logger, metrics MetricsRecorder) *Service {
	if clock == nil {
		clock = NewSystemClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &Service{
		users:         users,
		refreshTokens: refreshTokens,
		hasher:        hasher,
		codec:         codec,
		clock:         clock,
		logger:        logger,
		metrics:       metrics,
	}
}

// LoginResult carries the token pair issued on successful login.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         UserSummary
}

// RefreshResult carries the new access token issued on refresh. The refresh
// token itself is never rotated; it stays valid until expiry or logout.
type RefreshResult struct {
	AccessToken string
	User        UserSummary
}

// NormalizeEmail lower-cases and trims an email for case-insensitive
// uniqueness and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a new user. A duplicate email yields Conflict; the race
// between two concurrent registrations is resolved by the storage layer's
// unique constraint, not by application locking.
func (service *Service) Register(ctx context.Context, email string, password string, name string) (*UserSummary, error) {
	normalizedEmail := NormalizeEmail(email)

	passwordHash, hashErr := service.hasher.Hash(password)
	if hashErr != nil {
		service.logger.Error("password hashing failed",
			zap.String("code", "auth.register.hash_error"),
			zap.Error(hashErr))
		return nil, apperr.Internal(hashErr)
	}

	user, createErr := service.users.CreateUser(ctx, normalizedEmail, strings.TrimSpace(name), passwordHash)
	if createErr != nil {
		if errors.Is(createErr, ErrEmailTaken) {
			service.metrics.Increment(EventRegisterConflict)
			return nil, apperr.Conflict("Email already registered")
		}
		service.logger.Error("user creation failed",
			zap.String("code", "auth.register.store_error"),
			zap.Error(createErr))
		return nil, apperr.Internal(createErr)
	}

	service.metrics.Increment(EventRegisterSuccess)
	summary := user.Summary()
	return &summary, nil
}

// Login verifies credentials and issues an access/refresh token pair. An
// unknown email and a wrong password produce the identical error so the
// response does not reveal which accounts exist.
func (service *Service) Login(ctx context.Context, email string, password string) (*LoginResult, error) {
	user, findErr := service.users.FindUserByEmail(ctx, NormalizeEmail(email))
	if findErr != nil {
		if errors.Is(findErr, ErrUserNotFound) {
			service.metrics.Increment(EventLoginFailure)
			return nil, apperr.Unauthorized("Invalid credentials")
		}
		service.logger.Error("user lookup failed",
			zap.String("code", "auth.login.store_error"),
			zap.Error(findErr))
		return nil, apperr.Internal(findErr)
	}

	if !service.hasher.Verify(password, user.PasswordHash) {
		service.metrics.Increment(EventLoginFailure)
		return nil, apperr.Unauthorized("Invalid credentials")
	}

	accessToken, _, accessErr := service.codec.IssueAccess(user.ID)
	if accessErr != nil {
		service.logger.Error("access token mint failed",
			zap.String("code", "auth.login.access_mint_error"),
			zap.Error(accessErr))
		return nil, apperr.Internal(accessErr)
	}
	refreshToken, refreshExpiresAt, refreshErr := service.codec.IssueRefresh(user.ID)
	if refreshErr != nil {
		service.logger.Error("refresh token mint failed",
			zap.String("code", "auth.login.refresh_mint_error"),
			zap.Error(refreshErr))
		return nil, apperr.Internal(refreshErr)
	}

	if saveErr := service.refreshTokens.SaveRefreshToken(ctx, refreshToken, user.ID, refreshExpiresAt); saveErr != nil {
		service.logger.Error("refresh token persistence failed",
			zap.String("code", "auth.login.refresh_save_error"),
			zap.Error(saveErr))
		return nil, apperr.Internal(saveErr)
	}

	service.metrics.Increment(EventLoginSuccess)
	return &LoginResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user.Summary(),
	}, nil
}

// Refresh issues a new access token for a valid refresh token. The token
// must pass cryptographic verification AND match an unexpired store row;
// both failures collapse to one Unauthorized error.
func (service *Service) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, apperr.BadRequest("Refresh token required")
	}

	claims, verifyErr := service.codec.VerifyRefresh(refreshToken)
	if verifyErr != nil {
		service.metrics.Increment(EventRefreshFailure)
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}

	record, findErr := service.refreshTokens.FindRefreshToken(ctx, refreshToken)
	if findErr != nil {
		if errors.Is(findErr, ErrRefreshTokenNotFound) || errors.Is(findErr, ErrUserNotFound) {
			service.metrics.Increment(EventRefreshFailure)
			return nil, apperr.Unauthorized("Invalid or expired refresh token")
		}
		service.logger.Error("refresh token lookup failed",
			zap.String("code", "auth.refresh.store_error"),
			zap.Error(findErr))
		return nil, apperr.Internal(findErr)
	}
	if service.clock.Now().After(record.ExpiresAt) {
		service.metrics.Increment(EventRefreshFailure)
		return nil, apperr.Unauthorized("Invalid or expired refresh token")
	}

	accessToken, _, accessErr := service.codec.IssueAccess(claims.UserID)
	if accessErr != nil {
		service.logger.Error("access token mint failed",
			zap.String("code", "auth.refresh.access_mint_error"),
			zap.Error(accessErr))
		return nil, apperr.Internal(accessErr)
	}

	service.metrics.Increment(EventRefreshSuccess)
	return &RefreshResult{
		AccessToken: accessToken,
		User:        record.User,
	}, nil
}

// Logout deletes the refresh token row. Deleting an already-absent token
// still reports success.
func (service *Service) Logout(ctx context.Context, refreshToken string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return apperr.BadRequest("Refresh token required")
	}
	if deleteErr := service.refreshTokens.DeleteRefreshToken(ctx, refreshToken); deleteErr != nil {
		service.logger.Error("refresh token delete failed",
			zap.String("code", "auth.logout.store_error"),
			zap.Error(deleteErr))
		return apperr.Internal(deleteErr)
	}
	service.metrics.Increment(EventLogout)
	return nil
}
