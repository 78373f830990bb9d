package authcore

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are embedded in every signed access and refresh token.
type TokenClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenCodec signs and verifies compact expiring tokens. Access and refresh
// tokens share the claim shape but are signed with distinct keys.
type TokenCodec struct {
	accessKey  []byte
	refreshKey []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	clock      Clock
}

var (
	errCodecMissingAccessKey  = errors.New("token_codec.missing_access_key")
	errCodecMissingRefreshKey = errors.New("token_codec.missing_refresh_key")
	errCodecMissingIssuer     = errors.New("token_codec.missing_issuer")
	errCodecInvalidTTL        = errors.New("token_codec.invalid_ttl")
	errCodecEmptySubject      = errors.New("token_codec.empty_subject")
)

// NewTokenCodec constructs a codec from validated configuration.
func NewTokenCodec(configuration Config, clock Clock) (*TokenCodec, error) {
	if len(configuration.AccessSigningKey) == 0 {
		return nil, fmt.Errorf("token_codec.new: %w", errCodecMissingAccessKey)
	}
	if len(configuration.RefreshSigningKey) == 0 {
		return nil, fmt.Errorf("token_codec.new: %w", errCodecMissingRefreshKey)
	}
	if configuration.Issuer == "" {
		return nil, fmt.Errorf("token_codec.new: %w", errCodecMissingIssuer)
	}
	if configuration.AccessTTL <= 0 || configuration.RefreshTTL <= 0 {
		return nil, fmt.Errorf("token_codec.new: %w", errCodecInvalidTTL)
	}
	if clock == nil {
		clock = NewSystemClock()
	}
	return &TokenCodec{
		accessKey:  configuration.AccessSigningKey,
		refreshKey: configuration.RefreshSigningKey,
		issuer:     configuration.Issuer,
		accessTTL:  configuration.AccessTTL,
		refreshTTL: configuration.RefreshTTL,
		clock:      clock,
	}, nil
}

// IssueAccess mints a short-lived signed access token for the user.
func (codec *TokenCodec) IssueAccess(userID string) (string, time.Time, error) {
	return codec.mint(userID, codec.accessKey, codec.accessTTL)
}

// IssueRefresh mints a long-lived signed refresh token for the user.
func (codec *TokenCodec) IssueRefresh(userID string) (string, time.Time, error) {
	return codec.mint(userID, codec.refreshKey, codec.refreshTTL)
}

// VerifyAccess checks signature and expiry against the access key. Any
// failure collapses to ErrInvalidToken.
func (codec *TokenCodec) VerifyAccess(token string) (*TokenClaims, error) {
	return codec.verify(token, codec.accessKey)
}

// VerifyRefresh checks signature and expiry against the refresh key.
func (codec *TokenCodec) VerifyRefresh(token string) (*TokenClaims, error) {
	return codec.verify(token, codec.refreshKey)
}

func (codec *TokenCodec) mint(userID string, signingKey []byte, ttl time.Duration) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, fmt.Errorf("token_codec.mint: %w", errCodecEmptySubject)
	}
	issuedAt := codec.clock.Now()
	expiresAt := issuedAt.Add(ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, TokenClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    codec.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt.Add(-30 * time.Second)),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	signed, signErr := token.SignedString(signingKey)
	if signErr != nil {
		return "", time.Time{}, fmt.Errorf("token_codec.mint: %w", signErr)
	}
	return signed, expiresAt, nil
}

func (codec *TokenCodec) verify(token string, signingKey []byte) (*TokenClaims, error) {
	parsedToken, parseErr := jwt.ParseWithClaims(token, &TokenClaims{}, func(parsed *jwt.Token) (interface{}, error) {
		return signingKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(func() time.Time {
		return codec.clock.Now()
	}))
	if parseErr != nil || parsedToken == nil || !parsedToken.Valid {
		return nil, fmt.Errorf("token_codec.verify: %w", ErrInvalidToken)
	}
	claims, ok := parsedToken.Claims.(*TokenClaims)
	if !ok || claims.UserID == "" {
		return nil, fmt.Errorf("token_codec.verify: %w", ErrInvalidToken)
	}
	if claims.Issuer != codec.issuer {
		return nil, fmt.Errorf("token_codec.verify: %w", ErrInvalidToken)
	}
	return claims, nil
}
