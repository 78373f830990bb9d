package bearerauth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type fixedClock struct {
	timestamp time.Time
}

func (clock fixedClock) Now() time.Time {
	return clock.timestamp
}

const testIssuer = "taskdeck"

var testSigningKey = []byte("test-signing-key")

func mintTestToken(t *testing.T, userID string, issuer string, key []byte, issuedAt time.Time, ttl time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt.Add(-30 * time.Second)),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		},
	})
	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return signed
}

func TestNewRequiresSigningKeyAndIssuer(t *testing.T) {
	if _, err := New(Config{Issuer: testIssuer}); !errors.Is(err, ErrMissingSigningKey) {
		t.Fatalf("expected ErrMissingSigningKey, got %v", err)
	}
	if _, err := New(Config{SigningKey: testSigningKey}); !errors.Is(err, ErrMissingIssuer) {
		t.Fatalf("expected ErrMissingIssuer, got %v", err)
	}
}

func TestValidateTokenRoundTrip(t *testing.T) {
	reference := time.Unix(1700000000, 0).UTC()
	validator, err := New(Config{SigningKey: testSigningKey, Issuer: testIssuer, Clock: fixedClock{timestamp: reference}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	signed := mintTestToken(t, "user-42", testIssuer, testSigningKey, reference, 15*time.Minute)
	claims, validateErr := validator.ValidateToken(signed)
	if validateErr != nil {
		t.Fatalf("expected valid token, got %v", validateErr)
	}
	if claims.GetUserID() != "user-42" {
		t.Fatalf("expected user-42, got %s", claims.GetUserID())
	}
	expectedExpiry := reference.Add(15 * time.Minute)
	if !claims.GetExpiresAt().Equal(expectedExpiry) {
		t.Fatalf("expected expiry %v, got %v", expectedExpiry, claims.GetExpiresAt())
	}
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	reference := time.Unix(1700000000, 0).UTC()
	validator, err := New(Config{SigningKey: testSigningKey, Issuer: testIssuer, Clock: fixedClock{timestamp: reference.Add(time.Hour)}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	signed := mintTestToken(t, "user-42", testIssuer, testSigningKey, reference, 15*time.Minute)
	if _, validateErr := validator.ValidateToken(signed); !errors.Is(validateErr, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", validateErr)
	}
}

func TestValidateTokenRejectsWrongKeyAndIssuer(t *testing.T) {
	reference := time.Unix(1700000000, 0).UTC()
	validator, err := New(Config{SigningKey: testSigningKey, Issuer: testIssuer, Clock: fixedClock{timestamp: reference}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	foreignKey := mintTestToken(t, "user-42", testIssuer, []byte("another-key"), reference, 15*time.Minute)
	if _, validateErr := validator.ValidateToken(foreignKey); !errors.Is(validateErr, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong key, got %v", validateErr)
	}

	foreignIssuer := mintTestToken(t, "user-42", "someone-else", testSigningKey, reference, 15*time.Minute)
	if _, validateErr := validator.ValidateToken(foreignIssuer); !errors.Is(validateErr, ErrInvalidIssuer) {
		t.Fatalf("expected ErrInvalidIssuer, got %v", validateErr)
	}

	if _, validateErr := validator.ValidateToken("not-a-jwt"); !errors.Is(validateErr, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for malformed token, got %v", validateErr)
	}
}

func TestValidateAuthorizationHeader(t *testing.T) {
	reference := time.Unix(1700000000, 0).UTC()
	validator, err := New(Config{SigningKey: testSigningKey, Issuer: testIssuer, Clock: fixedClock{timestamp: reference}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	signed := mintTestToken(t, "user-42", testIssuer, testSigningKey, reference, 15*time.Minute)

	missingTokenHeaders := []string{"", signed, "Bearer", "Bearer "}
	for _, headerValue := range missingTokenHeaders {
		if _, headerErr := validator.ValidateAuthorizationHeader(headerValue); !errors.Is(headerErr, ErrMissingToken) {
			t.Fatalf("expected ErrMissingToken for header %q, got %v", headerValue, headerErr)
		}
	}
	if _, headerErr := validator.ValidateAuthorizationHeader("Basic " + signed); !errors.Is(headerErr, ErrInvalidScheme) {
		t.Fatalf("expected ErrInvalidScheme for Basic scheme, got %v", headerErr)
	}
	claims, headerErr := validator.ValidateAuthorizationHeader("Bearer " + signed)
	if headerErr != nil {
		t.Fatalf("expected valid bearer header, got %v", headerErr)
	}
	if claims.GetUserID() != "user-42" {
		t.Fatalf("expected user-42, got %s", claims.GetUserID())
	}
}

func TestGinMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	reference := time.Unix(1700000000, 0).UTC()
	validator, err := New(Config{SigningKey: testSigningKey, Issuer: testIssuer, Clock: fixedClock{timestamp: reference}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	router := gin.New()
	router.GET("/guarded", validator.GinMiddleware(""), func(contextGin *gin.Context) {
		claimsValue, found := contextGin.Get(DefaultContextKey)
		if !found {
			contextGin.Status(http.StatusInternalServerError)
			return
		}
		claims := claimsValue.(*Claims)
		contextGin.JSON(http.StatusOK, gin.H{"user_id": claims.GetUserID()})
	})

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	router.ServeHTTP(recorder, request)
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", recorder.Code)
	}

	signed := mintTestToken(t, "user-42", testIssuer, testSigningKey, reference, 15*time.Minute)
	recorder = httptest.NewRecorder()
	request = httptest.NewRequest(http.MethodGet, "/guarded", nil)
	request.Header.Set("Authorization", "Bearer "+signed)
	router.ServeHTTP(recorder, request)
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", recorder.Code)
	}
}
