package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tyemirov/taskdeck/internal/authcore"
	"go.uber.org/zap"
)

// MountAuthRoutes registers /auth/register, /auth/login, /auth/refresh,
// /auth/logout, and the protected /auth/me.
func MountAuthRoutes(router gin.IRouter, service *authcore.Service, requireAuth gin.HandlerFunc, logger *zap.Logger) {
	router.POST("/auth/register", func(contextGin *gin.Context) {
		var inbound registerRequest
		if bindErr := bindJSON(contextGin, &inbound); bindErr != nil {
			writeError(contextGin, logger, bindErr)
			return
		}
		if trimmedTooShort(inbound.Name, 2) {
			writeError(contextGin, logger, trimmedFieldError("name", "Name must be at least 2 characters long"))
			return
		}
		summary, registerErr := service.Register(contextGin.Request.Context(), inbound.Email, inbound.Password, inbound.Name)
		if registerErr != nil {
			writeError(contextGin, logger, registerErr)
			return
		}
		contextGin.JSON(http.StatusCreated, gin.H{
			"message": "User registered successfully",
			"user":    summary,
		})
	})

	router.POST("/auth/login", func(contextGin *gin.Context) {
		var inbound loginRequest
		if bindErr := bindJSON(contextGin, &inbound); bindErr != nil {
			writeError(contextGin, logger, bindErr)
			return
		}
		result, loginErr := service.Login(contextGin.Request.Context(), inbound.Email, inbound.Password)
		if loginErr != nil {
			writeError(contextGin, logger, loginErr)
			return
		}
		contextGin.JSON(http.StatusOK, gin.H{
			"message":      "Login successful",
			"accessToken":  result.AccessToken,
			"refreshToken": result.RefreshToken,
			"user":         result.User,
		})
	})

	router.POST("/auth/refresh", func(contextGin *gin.Context) {
		var inbound refreshRequest
		// A missing or unparseable body leaves the token empty; the
		// service reports the BadRequest.
		_ = contextGin.ShouldBindJSON(&inbound)
		result, refreshErr := service.Refresh(contextGin.Request.Context(), inbound.RefreshToken)
		if refreshErr != nil {
			writeError(contextGin, logger, refreshErr)
			return
		}
		contextGin.JSON(http.StatusOK, gin.H{
			"accessToken": result.AccessToken,
			"user":        result.User,
		})
	})

	router.POST("/auth/logout", func(contextGin *gin.Context) {
		var inbound refreshRequest
		_ = contextGin.ShouldBindJSON(&inbound)
		if logoutErr := service.Logout(contextGin.Request.Context(), inbound.RefreshToken); logoutErr != nil {
			writeError(contextGin, logger, logoutErr)
			return
		}
		contextGin.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
	})

	router.GET("/auth/me", requireAuth, func(contextGin *gin.Context) {
		summary, found := authcore.CurrentUser(contextGin)
		if !found {
			contextGin.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Access token required"})
			return
		}
		contextGin.JSON(http.StatusOK, gin.H{"user": summary})
	})
}
