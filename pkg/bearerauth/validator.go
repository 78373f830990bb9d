// Package bearerauth validates taskdeck access tokens presented as HTTP
// bearer credentials. Sibling services can use it to gate requests without
// importing taskdeck internals.
package bearerauth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// Now returns the current UTC timestamp.
func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// Config configures the Validator.
type Config struct {
	SigningKey []byte
	Issuer     string
	Clock      Clock
}

// DefaultContextKey is used by GinMiddleware when no explicit key is provided.
const DefaultContextKey = "auth_claims"

const bearerScheme = "Bearer"

// Sentinel errors exposed by the validator.
var (
	ErrMissingSigningKey = errors.New("bearer.validator.missing_signing_key")
	ErrMissingIssuer     = errors.New("bearer.validator.missing_issuer")
	ErrMissingToken      = errors.New("bearer.validator.missing_token")
	ErrInvalidScheme     = errors.New("bearer.validator.invalid_scheme")
	ErrInvalidToken      = errors.New("bearer.validator.invalid_token")
	ErrInvalidIssuer     = errors.New("bearer.validator.invalid_issuer")
	ErrTokenExpired      = errors.New("bearer.validator.expired")
)

// Validator validates taskdeck access tokens.
type Validator struct {
	signingKey []byte
	issuer     string
	clock      Clock
}

// Claims represent the payload embedded inside taskdeck access tokens.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// GetUserID returns the user identifier carried by the token.
func (claims *Claims) GetUserID() string {
	if claims == nil {
		return ""
	}
	return claims.UserID
}

// GetExpiresAt returns the expiry timestamp.
func (claims *Claims) GetExpiresAt() time.Time {
	if claims == nil || claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

// New constructs a Validator after validating the supplied configuration.
func New(configuration Config) (*Validator, error) {
	if len(configuration.SigningKey) == 0 {
		return nil, fmt.Errorf("bearer.validator.new: %w", ErrMissingSigningKey)
	}
	if strings.TrimSpace(configuration.Issuer) == "" {
		return nil, fmt.Errorf("bearer.validator.new: %w", ErrMissingIssuer)
	}
	clock := configuration.Clock
	if clock == nil {
		clock = systemClock{}
	}
	return &Validator{
		signingKey: configuration.SigningKey,
		issuer:     configuration.Issuer,
		clock:      clock,
	}, nil
}

// ValidateToken validates the provided JWT string and returns the parsed claims.
func (validator *Validator) ValidateToken(tokenString string) (*Claims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, fmt.Errorf("bearer.validator.validate_token: %w", ErrMissingToken)
	}
	parsedToken, parseErr := jwt.ParseWithClaims(tokenString, &Claims{}, func(parsed *jwt.Token) (interface{}, error) {
		return validator.signingKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(func() time.Time {
		return validator.clock.Now()
	}))
	if parseErr != nil {
		if errors.Is(parseErr, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("bearer.validator.validate_token: %w", ErrTokenExpired)
		}
		return nil, fmt.Errorf("bearer.validator.validate_token: %w", ErrInvalidToken)
	}
	if parsedToken == nil || !parsedToken.Valid {
		return nil, fmt.Errorf("bearer.validator.validate_token: %w", ErrInvalidToken)
	}
	claims, ok := parsedToken.Claims.(*Claims)
	if !ok {
		return nil, fmt.Errorf("bearer.validator.validate_token: %w", ErrInvalidToken)
	}
	if claims.Issuer != validator.issuer {
		return nil, fmt.Errorf("bearer.validator.validate_token: %w", ErrInvalidIssuer)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("bearer.validator.validate_token: %w", ErrInvalidToken)
	}
	current := validator.clock.Now()
	if claims.ExpiresAt != nil && current.After(claims.ExpiresAt.Time) {
		return nil, fmt.Errorf("bearer.validator.validate_token: %w", ErrTokenExpired)
	}
	if claims.NotBefore != nil && current.Before(claims.NotBefore.Time) {
		return nil, fmt.Errorf("bearer.validator.validate_token: %w", ErrInvalidToken)
	}
	return claims, nil
}

// ValidateAuthorizationHeader extracts the bearer token from an
// Authorization header value and validates it. A header with no
// extractable token part ("Bearer" alone, a trailing space, a bare
// value with no scheme) is reported as a missing token; a present token
// under a non-Bearer scheme is a scheme error.
func (validator *Validator) ValidateAuthorizationHeader(headerValue string) (*Claims, error) {
	if strings.TrimSpace(headerValue) == "" {
		return nil, fmt.Errorf("bearer.validator.validate_header: %w", ErrMissingToken)
	}
	parts := strings.SplitN(headerValue, " ", 2)
	if len(parts) != 2 || strings.TrimSpace(parts[1]) == "" {
		return nil, fmt.Errorf("bearer.validator.validate_header: %w", ErrMissingToken)
	}
	if !strings.EqualFold(parts[0], bearerScheme) {
		return nil, fmt.Errorf("bearer.validator.validate_header: %w", ErrInvalidScheme)
	}
	return validator.ValidateToken(strings.TrimSpace(parts[1]))
}

// ValidateRequest reads the Authorization header from the request and validates it.
func (validator *Validator) ValidateRequest(request *http.Request) (*Claims, error) {
	if request == nil {
		return nil, fmt.Errorf("bearer.validator.validate_request: %w", ErrMissingToken)
	}
	return validator.ValidateAuthorizationHeader(request.Header.Get("Authorization"))
}

// GinMiddleware returns a Gin middleware that validates the bearer token and injects claims.
func (validator *Validator) GinMiddleware(contextKey string) gin.HandlerFunc {
	if strings.TrimSpace(contextKey) == "" {
		contextKey = DefaultContextKey
	}
	return func(contextGin *gin.Context) {
		claims, err := validator.ValidateRequest(contextGin.Request)
		if err != nil {
			contextGin.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		contextGin.Set(contextKey, claims)
		contextGin.Next()
	}
}
