package authcore

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tyemirov/taskdeck/pkg/bearerauth"
	"go.uber.org/zap"
)

// identityContextKey is where RequireAuth parks the resolved user summary.
const identityContextKey = "current_user"

// RequireAuth gates protected routes. It extracts the bearer access token,
// verifies it, resolves the current user, and attaches the summary to the
// request context. A token whose user has since been deleted is rejected.
func RequireAuth(validator *bearerauth.Validator, users UserStore, logger *zap.Logger) gin.HandlerFunc {
	if validator == nil {
		panic("bearer token validator is required")
	}
	if users == nil {
		panic("user store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(contextGin *gin.Context) {
		headerValue := contextGin.GetHeader("Authorization")
		claims, validateErr := validator.ValidateAuthorizationHeader(headerValue)
		if validateErr != nil {
			if errors.Is(validateErr, bearerauth.ErrMissingToken) {
				logger.Warn("authentication failed: no token provided",
					zap.String("code", "auth.middleware.missing_token"))
				contextGin.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Access token required"})
				return
			}
			logger.Warn("authentication failed: invalid or expired token",
				zap.String("code", "auth.middleware.invalid_token"))
			contextGin.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Invalid or expired token"})
			return
		}

		user, findErr := users.FindUserByID(contextGin.Request.Context(), claims.GetUserID())
		if findErr != nil {
			if errors.Is(findErr, ErrUserNotFound) {
				logger.Warn("authentication failed: user not found",
					zap.String("code", "auth.middleware.user_missing"),
					zap.String("user_id", claims.GetUserID()))
				contextGin.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "User not found"})
				return
			}
			logger.Error("authentication lookup error",
				zap.String("code", "auth.middleware.store_error"),
				zap.String("user_id", claims.GetUserID()),
				zap.Error(findErr))
			contextGin.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		contextGin.Set(identityContextKey, user.Summary())
		contextGin.Next()
	}
}

// CurrentUser returns the identity attached by RequireAuth.
func CurrentUser(contextGin *gin.Context) (UserSummary, bool) {
	identityValue, found := contextGin.Get(identityContextKey)
	if !found {
		return UserSummary{}, false
	}
	summary, ok := identityValue.(UserSummary)
	return summary, ok
}
