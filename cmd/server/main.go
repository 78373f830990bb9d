package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tyemirov/taskdeck/internal/authcore"
	"github.com/tyemirov/taskdeck/internal/httpapi"
	"github.com/tyemirov/taskdeck/internal/store"
	"github.com/tyemirov/taskdeck/internal/storepg"
	"github.com/tyemirov/taskdeck/internal/taskcore"
	"github.com/tyemirov/taskdeck/pkg/bearerauth"
	"go.uber.org/zap"
)

var serveHTTP = func(server *http.Server) error {
	return server.ListenAndServe()
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "taskdeck",
		Short:   "Task management API with JWT auth, refresh tokens, and per-user tasks and categories",
		PreRunE: prepareServerConfig,
		RunE:    runServer,
	}

	rootCmd.Flags().String("listen_addr", ":8080", "HTTP listen address")
	rootCmd.Flags().String("database_url", "sqlite://file::memory:?cache=shared", "Database URL (postgres:// or sqlite://)")
	rootCmd.Flags().String("access_token_secret", "", "HS256 signing secret for access tokens")
	rootCmd.Flags().String("refresh_token_secret", "", "HS256 signing secret for refresh tokens")
	rootCmd.Flags().Duration("access_token_ttl", 15*time.Minute, "Access token TTL")
	rootCmd.Flags().Duration("refresh_token_ttl", 7*24*time.Hour, "Refresh token TTL")
	rootCmd.Flags().Int("bcrypt_cost", authcore.DefaultBcryptCost, "bcrypt cost factor for password hashing")
	rootCmd.Flags().String("refresh_store_driver", "gorm", "Refresh token store driver: gorm or pgx (pgx requires a postgres database_url)")
	rootCmd.Flags().Bool("enable_cors", false, "Enable CORS for cross-origin clients")
	rootCmd.Flags().StringSlice("cors_allowed_origins", []string{}, "Allowed origins when CORS is enabled (required if enable_cors is true)")

	_ = viper.BindPFlag("listen_addr", rootCmd.Flags().Lookup("listen_addr"))
	_ = viper.BindPFlag("database_url", rootCmd.Flags().Lookup("database_url"))
	_ = viper.BindPFlag("access_token_secret", rootCmd.Flags().Lookup("access_token_secret"))
	_ = viper.BindPFlag("refresh_token_secret", rootCmd.Flags().Lookup("refresh_token_secret"))
	_ = viper.BindPFlag("access_token_ttl", rootCmd.Flags().Lookup("access_token_ttl"))
	_ = viper.BindPFlag("refresh_token_ttl", rootCmd.Flags().Lookup("refresh_token_ttl"))
	_ = viper.BindPFlag("bcrypt_cost", rootCmd.Flags().Lookup("bcrypt_cost"))
	_ = viper.BindPFlag("refresh_store_driver", rootCmd.Flags().Lookup("refresh_store_driver"))
	_ = viper.BindPFlag("enable_cors", rootCmd.Flags().Lookup("enable_cors"))
	_ = viper.BindPFlag("cors_allowed_origins", rootCmd.Flags().Lookup("cors_allowed_origins"))

	viper.SetEnvPrefix("APP")
	viper.AutomaticEnv()

	return rootCmd
}

const (
	tokenIssuer = "taskdeck"

	// Development fallbacks; a warning is logged whenever one is in use.
	insecureAccessSecretFallback  = "access_secret"
	insecureRefreshSecretFallback = "refresh_secret"

	refreshStoreDriverGorm = "gorm"
	refreshStoreDriverPgx  = "pgx"

	configCodeMissingDatabaseURL      = "config.missing_database_url"
	configCodeInvalidAccessTTL        = "config.invalid_access_token_ttl"
	configCodeInvalidRefreshTTL       = "config.invalid_refresh_token_ttl"
	configCodeInvalidBcryptCost       = "config.invalid_bcrypt_cost"
	configCodeInvalidRefreshDriver    = "config.invalid_refresh_store_driver"
	configCodePgxRequiresPostgres     = "config.pgx_requires_postgres"
	configCodeUninitializedServerConf = "config.uninitialized_server_config"
)

type contextKey string

const serverConfigContextKey contextKey = "serverConfig"

// ServerConfig is the validated runtime configuration.
type ServerConfig struct {
	ListenAddr            string
	DatabaseURL           string
	AccessTokenSecret     []byte
	RefreshTokenSecret    []byte
	AccessTokenTTL        time.Duration
	RefreshTokenTTL       time.Duration
	BcryptCost            int
	RefreshStoreDriver    string
	EnableCORS            bool
	CORSAllowedOrigins    []string
	AccessSecretFallback  bool
	RefreshSecretFallback bool
}

func prepareServerConfig(command *cobra.Command, arguments []string) error {
	serverConfig, loadErr := LoadServerConfig()
	if loadErr != nil {
		return loadErr
	}
	existingContext := command.Context()
	if existingContext == nil {
		existingContext = context.Background()
	}
	command.SetContext(context.WithValue(existingContext, serverConfigContextKey, serverConfig))
	return nil
}

func configError(code, message string) error {
	return fmt.Errorf("%s: %s", code, message)
}

func LoadServerConfig() (ServerConfig, error) {
	databaseURL := viper.GetString("database_url")
	if databaseURL == "" {
		return ServerConfig{}, configError(configCodeMissingDatabaseURL, "database_url must be provided")
	}

	accessSecret := viper.GetString("access_token_secret")
	accessFallback := false
	if accessSecret == "" {
		accessSecret = insecureAccessSecretFallback
		accessFallback = true
	}

	refreshSecret := viper.GetString("refresh_token_secret")
	refreshFallback := false
	if refreshSecret == "" {
		refreshSecret = insecureRefreshSecretFallback
		refreshFallback = true
	}

	accessTTL := viper.GetDuration("access_token_ttl")
	if accessTTL <= 0 {
		return ServerConfig{}, configError(configCodeInvalidAccessTTL, "access_token_ttl must be greater than zero")
	}
	refreshTTL := viper.GetDuration("refresh_token_ttl")
	if refreshTTL <= 0 {
		return ServerConfig{}, configError(configCodeInvalidRefreshTTL, "refresh_token_ttl must be greater than zero")
	}

	bcryptCost := viper.GetInt("bcrypt_cost")
	if bcryptCost <= 0 {
		return ServerConfig{}, configError(configCodeInvalidBcryptCost, "bcrypt_cost must be greater than zero")
	}

	refreshStoreDriver := viper.GetString("refresh_store_driver")
	if refreshStoreDriver == "" {
		refreshStoreDriver = refreshStoreDriverGorm
	}
	switch refreshStoreDriver {
	case refreshStoreDriverGorm:
	case refreshStoreDriverPgx:
		if !strings.HasPrefix(databaseURL, "postgres://") && !strings.HasPrefix(databaseURL, "postgresql://") {
			return ServerConfig{}, configError(configCodePgxRequiresPostgres, "refresh_store_driver pgx requires a postgres database_url")
		}
	default:
		return ServerConfig{}, configError(configCodeInvalidRefreshDriver, "refresh_store_driver must be gorm or pgx")
	}

	return ServerConfig{
		ListenAddr:            viper.GetString("listen_addr"),
		DatabaseURL:           databaseURL,
		AccessTokenSecret:     []byte(accessSecret),
		RefreshTokenSecret:    []byte(refreshSecret),
		AccessTokenTTL:        accessTTL,
		RefreshTokenTTL:       refreshTTL,
		BcryptCost:            bcryptCost,
		RefreshStoreDriver:    refreshStoreDriver,
		EnableCORS:            viper.GetBool("enable_cors"),
		CORSAllowedOrigins:    viper.GetStringSlice("cors_allowed_origins"),
		AccessSecretFallback:  accessFallback,
		RefreshSecretFallback: refreshFallback,
	}, nil
}

func runServer(command *cobra.Command, arguments []string) error {
	logger, loggerErr := zap.NewProduction()
	if loggerErr != nil {
		return loggerErr
	}
	defer func() { _ = logger.Sync() }()

	commandContext := command.Context()
	var contextValue any
	if commandContext != nil {
		contextValue = commandContext.Value(serverConfigContextKey)
	}
	serverConfig, ok := contextValue.(ServerConfig)
	if !ok {
		return configError(configCodeUninitializedServerConf, "server configuration not prepared; PreRunE must execute before RunE")
	}

	if serverConfig.AccessSecretFallback {
		logger.Warn("access_token_secret not set; using insecure development fallback")
	}
	if serverConfig.RefreshSecretFallback {
		logger.Warn("refresh_token_secret not set; using insecure development fallback")
	}

	dataStore, storeErr := store.Open(context.Background(), serverConfig.DatabaseURL)
	if storeErr != nil {
		return storeErr
	}
	defer func() { _ = dataStore.Close() }()
	logger.Info("database ready", zap.String("driver", dataStore.Driver()))

	var refreshStore authcore.RefreshTokenStore = dataStore
	if serverConfig.RefreshStoreDriver == refreshStoreDriverPgx {
		pool, poolErr := storepg.BuildPool(context.Background(), serverConfig.DatabaseURL)
		if poolErr != nil {
			return poolErr
		}
		defer pool.Close()
		if schemaErr := storepg.EnsureSchema(context.Background(), pool); schemaErr != nil {
			return schemaErr
		}
		refreshStore = storepg.NewPostgresRefreshTokenStore(pool)
		logger.Info("using pgx refresh token store")
	}

	clock := authcore.NewSystemClock()
	hasher, hasherErr := authcore.NewBcryptHasher(serverConfig.BcryptCost)
	if hasherErr != nil {
		return hasherErr
	}
	codec, codecErr := authcore.NewTokenCodec(authcore.Config{
		AccessSigningKey:  serverConfig.AccessTokenSecret,
		RefreshSigningKey: serverConfig.RefreshTokenSecret,
		Issuer:            tokenIssuer,
		AccessTTL:         serverConfig.AccessTokenTTL,
		RefreshTTL:        serverConfig.RefreshTokenTTL,
		BcryptCost:        serverConfig.BcryptCost,
	}, clock)
	if codecErr != nil {
		return codecErr
	}
	tokenValidator, validatorErr := bearerauth.New(bearerauth.Config{
		SigningKey: serverConfig.AccessTokenSecret,
		Issuer:     tokenIssuer,
		Clock:      clock,
	})
	if validatorErr != nil {
		return validatorErr
	}

	metricsRecorder := authcore.NewCounterMetrics()
	authService := authcore.NewService(dataStore, refreshStore, hasher, codec, clock, logger, metricsRecorder)
	taskService := taskcore.NewTaskService(dataStore, dataStore, logger)
	categoryService := taskcore.NewCategoryService(dataStore, logger)

	var corsMiddleware gin.HandlerFunc
	if serverConfig.EnableCORS {
		builtCORS, corsErr := httpapi.ConfigureCORS(logger, serverConfig.CORSAllowedOrigins)
		if corsErr != nil {
			return corsErr
		}
		corsMiddleware = builtCORS
	}

	gin.SetMode(gin.ReleaseMode)
	router := httpapi.NewRouter(httpapi.RouterConfig{
		Logger:          logger,
		AuthService:     authService,
		TaskService:     taskService,
		CategoryService: categoryService,
		TokenValidator:  tokenValidator,
		Users:           dataStore,
		Metrics:         metricsRecorder,
		CORS:            corsMiddleware,
		Middlewares:     []gin.HandlerFunc{zapLoggerMiddleware(logger)},
	})

	server := &http.Server{
		Addr:              serverConfig.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())
	defer shutdownCancel()

	go func() {
		stopSignals := make(chan os.Signal, 1)
		signal.Notify(stopSignals, syscall.SIGINT, syscall.SIGTERM)
		<-stopSignals
		graceCtx, graceCancel := context.WithTimeout(shutdownCtx, 10*time.Second)
		defer graceCancel()
		if err := server.Shutdown(graceCtx); err != nil {
			logger.Error("server shutdown error", zap.Error(err))
		}
	}()

	logger.Info("listening", zap.String("addr", serverConfig.ListenAddr))
	if err := serveHTTP(server); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen error: %w", err)
	}
	return nil
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(contextGin *gin.Context) {
		startTime := time.Now()
		contextGin.Next()
		duration := time.Since(startTime)
		logger.Info("http",
			zap.String("method", contextGin.Request.Method),
			zap.String("path", contextGin.Request.URL.Path),
			zap.Int("status", contextGin.Writer.Status()),
			zap.String("ip", contextGin.ClientIP()),
			zap.Duration("elapsed", duration),
		)
	}
}
