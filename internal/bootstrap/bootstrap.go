package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	appControllers "github.com/yigit/careportal/internal/app/controllers"
	"github.com/yigit/careportal/internal/app/feed"
	appMigrations "github.com/yigit/careportal/internal/app/migrations"
	appRepos "github.com/yigit/careportal/internal/app/repositories"
	"github.com/yigit/careportal/internal/app/repositories/memory"
	appRoutes "github.com/yigit/careportal/internal/app/routes"
	appServices "github.com/yigit/careportal/internal/app/services"
	"github.com/yigit/careportal/internal/config"
	"github.com/yigit/careportal/internal/db"
	appMiddleware "github.com/yigit/careportal/internal/middleware"
	pkgAuth "github.com/yigit/careportal/internal/pkg/auth"
	"github.com/yigit/careportal/internal/pkg/email"
	"github.com/yigit/careportal/internal/pkg/logger"
	"github.com/yigit/careportal/internal/pkg/validation"
	"github.com/yigit/careportal/internal/pkg/websocket"
	"github.com/yigit/careportal/internal/seed"
)

// Storage is every store contract the services consume, served by one
// backend.
type Storage interface {
	appServices.ApplicationStore
	appServices.EnrollmentKeyStore
	appServices.RosterStore
	appServices.StudentStore
	appServices.ReferralStore
	appServices.StaffStore
}

var (
	_ Storage = (*appRepos.Store)(nil)
	_ Storage = (*memory.Store)(nil)
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Store              Storage
	JWTService         *pkgAuth.JWTService
	Hub                *websocket.Hub
	View               *feed.View
	AuthService        *appServices.AuthService
	ApplicationService *appServices.ApplicationService
	ActivationService  *appServices.ActivationService
	ReferralService    *appServices.ReferralService
	StudentService     *appServices.StudentService
	AuthMiddleware     *appMiddleware.AuthMiddleware
	Controllers        appRoutes.Controllers
	Logger             zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		configPath = p
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	logger.Configure(logger.Config{
		Level:   logLevel,
		Pretty:  strings.ToLower(cfg.Logging.Format) == "text",
		Service: "careportal",
	})

	lgr := logger.Get()
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupStorage opens the configured backend. For Postgres it connects,
// runs the migrations and returns a close func for the pool.
func SetupStorage(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (Storage, func(), error) {
	if cfg.UsesMemoryStore() {
		lgr.Warn().Msg("Using in-memory storage, data is lost on restart")
		return memory.New(), func() {}, nil
	}

	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(ctx, cfg, logger.Component("db"))
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, nil, err
	}

	migrationsDir := cfg.Server.MigrationsPath
	if _, err := os.Stat(migrationsDir); err != nil {
		database.Close()
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		return nil, nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	lgr.Info().Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(database.Pool, logger.Component("migrations"))
	if err := migrator.MigrateFromDirectory(ctx, migrationsDir); err != nil {
		database.Close()
		lgr.Error().Err(err).Msg("Database migration error")
		return nil, nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	return appRepos.NewStore(database.Pool), database.Close, nil
}

// BuildDependencies initializes the feed, services and controllers, and
// starts the feed goroutines, which stop when ctx is cancelled.
func BuildDependencies(ctx context.Context, cfg *config.Config, store Storage, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Store: store, Logger: lgr}

	if err := validation.RegisterWithGin(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	accessExp, err := time.ParseDuration(cfg.JWT.AccessTokenExpiration)
	if err != nil {
		return nil, fmt.Errorf("invalid access token expiration: %w", err)
	}
	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: accessExp,
		TokenIssuer:    cfg.JWT.Issuer,
	})

	feedLogger := logger.Component("feed")
	deps.Hub = websocket.NewHub(cfg.Feed.ListenerBuffer, feedLogger)
	deps.View = feed.NewView()
	go deps.Hub.Run(ctx)
	go feed.Listen(ctx, deps.Hub, deps.View, cfg.Feed.ListenerBuffer, feedLogger)
	publisher := feed.NewHubPublisher(deps.Hub, feedLogger)

	dispatcher := email.NewDispatcher(email.SMTPConfig{
		Host:      cfg.SMTP.Host,
		Port:      cfg.SMTP.Port,
		Username:  cfg.SMTP.Username,
		Password:  cfg.SMTP.Password,
		FromName:  cfg.SMTP.FromName,
		FromEmail: cfg.SMTP.FromEmail,
		UseTLS:    cfg.SMTP.UseTLS,
		BaseURL:   cfg.Server.BaseURL,
	}, logger.Component("email"))
	timeout := cfg.Notifications.Timeout

	guard := appServices.NewKeyGuard(store, store, store, logger.Component("keyguard"))
	deps.AuthService = appServices.NewAuthService(store, store, store, deps.JWTService, logger.Component("auth"))
	deps.ApplicationService = appServices.NewApplicationService(store, publisher, dispatcher, timeout, logger.Component("applications"))
	deps.ActivationService = appServices.NewActivationService(store, store, guard, publisher, dispatcher, timeout, logger.Component("activation"))
	deps.ReferralService = appServices.NewReferralService(store, store, publisher, dispatcher, timeout, logger.Component("referrals"))
	deps.StudentService = appServices.NewStudentService(store, publisher, logger.Component("students"))

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)

	controllerLogger := logger.Component("http")
	deps.Controllers = appRoutes.Controllers{
		Auth:        appControllers.NewAuthController(deps.AuthService, controllerLogger),
		Application: appControllers.NewApplicationController(deps.ApplicationService, deps.ActivationService, controllerLogger),
		Referral:    appControllers.NewReferralController(deps.ReferralService, controllerLogger),
		Student:     appControllers.NewStudentController(deps.StudentService, controllerLogger),
		Feed:        appControllers.NewFeedController(deps.View),
		FeedSocket:  websocket.NewHandler(deps.Hub, appMiddleware.ActorFromContext, cfg.Feed.ClientBuffer, feedLogger),
	}

	if err := seed.CreateDefaultData(ctx, cfg, deps.AuthService, lgr); err != nil {
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(gin.Recovery(), appMiddleware.RequestLogger(logger.Component("http")))

	appRoutes.SetupSwagger(router, strings.TrimPrefix(strings.TrimPrefix(cfg.Server.BaseURL, "http://"), "https://"))
	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware)

	return router
}
