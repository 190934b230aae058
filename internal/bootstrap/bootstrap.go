package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	appControllers "github.com/yigit/bojio/internal/app/controllers"
	appMigrations "github.com/yigit/bojio/internal/app/migrations"
	appRepos "github.com/yigit/bojio/internal/app/repositories"
	appRoutes "github.com/yigit/bojio/internal/app/routes"
	appServices "github.com/yigit/bojio/internal/app/services"
	"github.com/yigit/bojio/internal/config"
	"github.com/yigit/bojio/internal/db"
	appMiddleware "github.com/yigit/bojio/internal/middleware"
	pkgAuth "github.com/yigit/bojio/internal/pkg/auth"
	"github.com/yigit/bojio/internal/pkg/filestorage"
	"github.com/yigit/bojio/internal/pkg/logger"
	"github.com/yigit/bojio/internal/pkg/metrics"
	"github.com/yigit/bojio/internal/pkg/revalidate"
	"github.com/yigit/bojio/internal/pkg/websocket"
	"github.com/yigit/bojio/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	Store          *appRepos.Repositories
	Services       *appServices.Services
	Notifier       revalidate.Notifier
	Hub            *websocket.Hub
	Redis          *revalidate.Redis // nil when no Redis URL is configured
	Verifier       pkgAuth.TokenVerifier
	FileStorage    *filestorage.LocalStorage
	AuthMiddleware *appMiddleware.AuthMiddleware
	WSHandler      *websocket.Handler
	Controllers    appRoutes.Controllers
	Logger         zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := config.GetEnv("CONFIG_PATH", "configs/config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Str("path", configPath).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.ParseLevel(cfg.Logging.Level)
	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: strings.ToLower(cfg.Logging.Format) == "pretty",
	})

	lgr := logger.Default()
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection and runs migrations.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	migrationsDir := cfg.Database.MigrationsDir
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		database.Close()
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	lgr.Info().Str("path", migrationsDir).Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(database.Pool, logger.Component("migrations"))
	if err := migrator.MigrateFromDirectory(ctx, migrationsDir); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		database.Close()
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Msg("Database migrations successfully applied.")

	return database, nil
}

// newVerifier picks the identity provider named in the config
func newVerifier(ctx context.Context, cfg *config.Config) (pkgAuth.TokenVerifier, error) {
	switch cfg.Auth.Provider {
	case "firebase":
		return pkgAuth.NewFirebaseVerifier(ctx, cfg.Auth.FirebaseProject, cfg.Auth.CredentialsFile)
	default:
		return pkgAuth.NewJWTVerifier(pkgAuth.JWTConfig{
			SecretKey:   cfg.Auth.Secret,
			TokenIssuer: cfg.Auth.Issuer,
		}), nil
	}
}

// BuildDependencies initializes the store, revalidation sinks, services and controllers.
func BuildDependencies(ctx context.Context, cfg *config.Config, database *db.PostgresDB, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	deps.Store = appRepos.NewRepositories(database.Pool)

	var err error
	deps.FileStorage, err = filestorage.NewLocalStorage(cfg.Storage.Path, cfg.Storage.BaseURL)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize file storage")
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	// With Redis, signals go through the channel and come back to the local
	// hub via Relay, so the hub is not a direct sink.
	deps.Hub = websocket.NewHub(logger.Component("websocket"))
	sinks := []revalidate.Notifier{revalidate.Log{Logger: logger.Component("revalidate")}}
	if cfg.Redis.URL != "" {
		deps.Redis, err = revalidate.NewRedis(ctx, cfg.Redis.URL, cfg.Redis.Channel)
		if err != nil {
			lgr.Error().Err(err).Msg("Failed to connect to Redis")
			return nil, err
		}
		sinks = append(sinks, revalidate.Named("redis", deps.Redis))
	} else {
		lgr.Warn().Msg("No Redis URL configured, revalidation stays local to this instance")
		sinks = append(sinks, revalidate.Named("websocket", deps.Hub))
	}
	deps.Notifier = revalidate.Multi(sinks...)

	deps.Verifier, err = newVerifier(ctx, cfg)
	if err != nil {
		lgr.Error().Err(err).Str("provider", cfg.Auth.Provider).Msg("Failed to initialize token verifier")
		deps.Close()
		return nil, err
	}

	deps.Services = appServices.NewServices(deps.Store, deps.Notifier, lgr)

	if !cfg.IsProduction() {
		if err := seed.CreateDefaultData(ctx, deps.Services, lgr); err != nil {
			lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
		}
	}

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.Verifier, deps.Services.User, logger.Component("auth"))
	deps.WSHandler = websocket.NewHandler(deps.Hub, cfg.Server.AllowedOrigins, logger.Component("websocket"))
	deps.Controllers = appRoutes.Controllers{
		User:      appControllers.NewUserController(deps.Services.User, deps.Services.Activity),
		Post:      appControllers.NewPostController(deps.Services.Post),
		Event:     appControllers.NewEventController(deps.Services.Event, deps.FileStorage),
		Poll:      appControllers.NewPollController(deps.Services.Poll),
		Community: appControllers.NewCommunityController(deps.Services.Community),
		Upload:    appControllers.NewUploadController(deps.FileStorage),
	}

	return deps, nil
}

// Close releases external connections held by the dependencies
func (d *Dependencies) Close() {
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Warn().Err(err).Msg("Failed to close Redis client")
		}
	}
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(
		appMiddleware.Recovery(lgr),
		appMiddleware.RequestLogger(logger.Component("http")),
		appMiddleware.CORS(cfg.Server.AllowedOrigins),
		metrics.Middleware(),
	)

	appRoutes.SetupSwagger(router)

	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware, deps.WSHandler)

	// Uploaded and inline images
	router.Static("/uploads", cfg.Storage.Path)
	lgr.Info().Str("path", cfg.Storage.Path).Msg("Static file serving configured for uploads directory")

	// Test endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	return router
}
