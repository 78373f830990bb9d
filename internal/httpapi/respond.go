// Package httpapi mounts the REST surface on gin: auth, tasks,
// categories, health, and the metrics snapshot. Handlers stay thin;
// business rules live in authcore and taskcore, and every failure is
// rendered through the shared apperr envelope.
package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tyemirov/taskdeck/internal/apperr"
	"go.uber.org/zap"
)

// writeError renders any handler error as the uniform envelope. Errors
// outside the apperr taxonomy are treated as internal; the cause is
// logged, never rendered.
func writeError(contextGin *gin.Context, logger *zap.Logger, err error) {
	var applicationError *apperr.Error
	if !errors.As(err, &applicationError) {
		applicationError = apperr.Internal(err)
	}
	if applicationError.Status == http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("method", contextGin.Request.Method),
			zap.String("path", contextGin.Request.URL.Path),
			zap.Error(applicationError.Cause()))
	}
	contextGin.AbortWithStatusJSON(applicationError.Status, applicationError.ToEnvelope())
}
