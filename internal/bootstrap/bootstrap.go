package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	appControllers "github.com/yigit/schoolroll/internal/app/controllers"
	"github.com/yigit/schoolroll/internal/app/models/dto"
	appMigrations "github.com/yigit/schoolroll/internal/app/migrations"
	appRepos "github.com/yigit/schoolroll/internal/app/repositories"
	appRoutes "github.com/yigit/schoolroll/internal/app/routes"
	appServices "github.com/yigit/schoolroll/internal/app/services"
	"github.com/yigit/schoolroll/internal/config"
	"github.com/yigit/schoolroll/internal/db"
	appMiddleware "github.com/yigit/schoolroll/internal/middleware"
	pkgAuth "github.com/yigit/schoolroll/internal/pkg/auth"
	"github.com/yigit/schoolroll/internal/pkg/helpers"
	"github.com/yigit/schoolroll/internal/pkg/logger"
	"github.com/yigit/schoolroll/internal/pkg/metrics"
	"github.com/yigit/schoolroll/internal/seed"
)

// DefaultConfigPath is used when no --config flag is given.
var DefaultConfigPath = filepath.Join("configs", "config.yaml")

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos          *appRepos.Repositories
	Services       *appServices.Services
	Controllers    appRoutes.Controllers
	AuthMiddleware *appMiddleware.AuthMiddleware
	JWTService     *pkgAuth.JWTService
	Metrics        *metrics.Metrics
	Logger         zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, error) {
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logger.Configure(logger.ConfigFromStrings(cfg.Logging.Level, cfg.Logging.Format))

	lgr := logger.Get()
	lgr.Info().Str("logLevel", cfg.Logging.Level).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// ConnectDatabase opens the connection pool.
func ConnectDatabase(cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")
	return database, nil
}

// RunMigrations applies every pending migration from the configured directory.
func RunMigrations(ctx context.Context, cfg *config.Config, database *db.PostgresDB, lgr zerolog.Logger) error {
	migrationsDir := cfg.Database.MigrationsDir
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		return fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	lgr.Info().Str("path", migrationsDir).Msg("Running database migrations...")
	applied, err := appMigrations.NewMigrator(database.Pool).MigrateFromDirectory(ctx, migrationsDir)
	if err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return fmt.Errorf("database migrations failed: %w", err)
	}
	lgr.Info().Int("applied", applied).Msg("Database migrations successfully applied.")
	return nil
}

// SeedDatabase loads the demo data set unless it is already there.
func SeedDatabase(ctx context.Context, cfg *config.Config, database *db.PostgresDB) error {
	_, err := seed.Run(ctx, database, appRepos.New(database), seed.Options{
		AdminEmail:    cfg.Seed.AdminEmail,
		AdminPassword: cfg.Seed.AdminPassword,
		Now:           time.Now(),
	})
	return err
}

// SetupDatabase connects, migrates and, when enabled, seeds.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	database, err := ConnectDatabase(cfg, lgr)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := RunMigrations(ctx, cfg, database, lgr); err != nil {
		database.Close()
		return nil, err
	}

	if cfg.Seed.Enabled {
		if err := SeedDatabase(ctx, cfg, database); err != nil {
			lgr.Error().Err(err).Msg("Failed to create seed data, proceeding anyway...")
		}
	}

	return database, nil
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, database *db.PostgresDB, lgr zerolog.Logger) *Dependencies {
	deps := &Dependencies{Logger: lgr}

	deps.Repos = appRepos.New(database)
	deps.Metrics = metrics.New()

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 12*time.Hour),
		TokenIssuer:    cfg.JWT.Issuer,
	})
	deps.Services = appServices.New(database, deps.Repos, deps.JWTService, deps.Metrics)
	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService)

	paging := appControllers.Paging{
		DefaultPerPage: cfg.Pagination.DefaultPerPage,
		MaxPerPage:     cfg.Pagination.MaxPerPage,
	}
	deps.Controllers = appRoutes.Controllers{
		Auth:          appControllers.NewAuthController(deps.Services.Auth),
		Departments:   appControllers.NewDepartmentController(deps.Services.Departments, paging),
		Subjects:      appControllers.NewSubjectController(deps.Services.Subjects, paging),
		StudentGroups: appControllers.NewStudentGroupController(deps.Services.StudentGroups, paging),
		Students:      appControllers.NewStudentController(deps.Services.Students, paging),
		Users:         appControllers.NewUserController(deps.Services.Users, paging),
		Attendances:   appControllers.NewAttendanceController(deps.Services.Attendances),
	}

	return deps
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		deps.Logger.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		appMiddleware.RequestLogger(),
		appMiddleware.Metrics(deps.Metrics),
		appMiddleware.CORS(cfg.Server.CORSAllowedOrigins),
	)
	router.HandleMethodNotAllowed = true
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, "Route not found")))
	})

	appRoutes.SetupRouter(router, deps.Controllers, deps.AuthMiddleware, deps.Metrics)
	return router
}
