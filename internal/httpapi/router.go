package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tyemirov/taskdeck/internal/authcore"
	"github.com/tyemirov/taskdeck/internal/taskcore"
	"github.com/tyemirov/taskdeck/pkg/bearerauth"
	"go.uber.org/zap"
)

const apiVersion = "1.0.0"

// RouterConfig carries the collaborators the router mounts.
type RouterConfig struct {
	Logger          *zap.Logger
	AuthService     *authcore.Service
	TaskService     *taskcore.TaskService
	CategoryService *taskcore.CategoryService
	TokenValidator  *bearerauth.Validator
	Users           authcore.UserStore
	Metrics         *authcore.CounterMetrics
	CORS            gin.HandlerFunc
	Middlewares     []gin.HandlerFunc
}

// NewRouter assembles the full route table: public auth routes, the
// protected task and category groups, the health root, the metrics
// snapshot, and the JSON 404.
func NewRouter(config RouterConfig) *gin.Engine {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	for _, middleware := range config.Middlewares {
		router.Use(middleware)
	}
	if config.CORS != nil {
		router.Use(config.CORS)
	}

	router.GET("/", func(contextGin *gin.Context) {
		contextGin.JSON(http.StatusOK, gin.H{
			"message": "Task Manager API is running!",
			"version": apiVersion,
			"status":  "healthy",
		})
	})

	if config.Metrics != nil {
		router.GET("/metrics", func(contextGin *gin.Context) {
			contextGin.JSON(http.StatusOK, config.Metrics.Snapshot())
		})
	}

	requireAuth := authcore.RequireAuth(config.TokenValidator, config.Users, logger)

	api := router.Group("/api")
	MountAuthRoutes(api, config.AuthService, requireAuth, logger)

	protected := api.Group("")
	protected.Use(requireAuth)
	MountTaskRoutes(protected, config.TaskService, logger)
	MountCategoryRoutes(protected, config.CategoryService, logger)

	router.NoRoute(func(contextGin *gin.Context) {
		contextGin.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
	})

	return router
}
