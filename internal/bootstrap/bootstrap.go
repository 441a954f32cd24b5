package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	appControllers "github.com/cedarwell/wellspring/internal/app/controllers"
	appMigrations "github.com/cedarwell/wellspring/internal/app/migrations"
	appRepos "github.com/cedarwell/wellspring/internal/app/repositories"
	appRoutes "github.com/cedarwell/wellspring/internal/app/routes"
	appServices "github.com/cedarwell/wellspring/internal/app/services"
	"github.com/cedarwell/wellspring/internal/config"
	"github.com/cedarwell/wellspring/internal/db"
	appMiddleware "github.com/cedarwell/wellspring/internal/middleware"
	pkgAuth "github.com/cedarwell/wellspring/internal/pkg/auth"
	"github.com/cedarwell/wellspring/internal/pkg/email"
	"github.com/cedarwell/wellspring/internal/pkg/helpers"
	"github.com/cedarwell/wellspring/internal/pkg/logger"
	"github.com/cedarwell/wellspring/internal/pkg/redcap"
	"github.com/cedarwell/wellspring/internal/seed"
)

// Dependencies holds all the application dependencies
type Dependencies struct {
	AuthService          *appServices.AuthService
	CommunityService     *appServices.CommunityService
	ProjectService       *appServices.ProjectService
	MembershipService    *appServices.MembershipService
	InvitationService    *appServices.InvitationService
	AdminService         *appServices.CommunityAdminService
	RedcapService        *appServices.RedcapService
	SurveyRecordService  *appServices.SurveyRecordService
	SyncEngine           *appServices.SyncEngine
	AuthController       *appControllers.AuthController
	CommunityController  *appControllers.CommunityController
	ProjectController    *appControllers.ProjectController
	MembershipController *appControllers.MembershipController
	InvitationController *appControllers.InvitationController
	AdminController      *appControllers.CommunityAdminController
	RedcapController     *appControllers.RedcapController
	AuthMiddleware       *appMiddleware.AuthMiddleware
	Repos                *appRepos.Repositories
	JWTService           *pkgAuth.JWTService
	EmailService         email.EmailService
	RedcapClient         *redcap.Client
	Logger               zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger() (*config.Config, zerolog.Logger, error) {
	configPath := filepath.Join("configs", "config.yaml")
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.LogLevel(strings.ToLower(cfg.Logging.Level))
	prettyLog := strings.ToLower(cfg.Logging.Format) == "text"

	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})

	lgr := log.Logger
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection and runs migrations.
func SetupDatabase(cfg *config.Config, lgr zerolog.Logger) (*pgxpool.Pool, error) {
	lgr.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}
	dbPool := database.Pool

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := dbPool.Ping(ctx); err != nil {
		lgr.Error().Err(err).Msg("Failed to ping database")
		dbPool.Close()
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")

	lgr.Info().Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(dbPool, lgr)

	migrationsDir := "migrations"
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		lgr.Error().Str("path", migrationsDir).Msg("Migrations directory not found")
		return nil, fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
	}

	if err := migrator.MigrateFromDirectory(migrationsDir); err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return nil, fmt.Errorf("database migrations failed: %w", err)
	}

	lgr.Info().Msg("Database migrations successfully applied.")

	if err := seed.CreateDefaultData(context.Background(), dbPool, lgr); err != nil {
		// Log the error but don't fail the startup
		lgr.Error().Err(err).Msg("Failed to create default data, proceeding anyway...")
	}

	return dbPool, nil
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, dbPool *pgxpool.Pool, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	deps.Repos = appRepos.NewRepositories()

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenExp:  helpers.ParseDuration(cfg.JWT.AccessTokenExpiration, 1*time.Hour),
		RefreshTokenExp: helpers.ParseDuration(cfg.JWT.RefreshTokenExpiration, 720*time.Hour),
		TokenIssuer:     cfg.JWT.Issuer,
	})

	deps.EmailService = email.NewEmailService(email.SMTPConfig{
		Host:      cfg.SMTP.Host,
		Port:      cfg.SMTP.Port,
		Username:  cfg.SMTP.Username,
		Password:  cfg.SMTP.Password,
		FromName:  cfg.SMTP.FromName,
		FromEmail: cfg.SMTP.FromEmail,
		UseTLS:    cfg.SMTP.UseTLS,
		BaseURL:   cfg.Server.BaseURL,
	}, lgr)

	deps.RedcapClient = redcap.NewClient(
		helpers.ParseDuration(cfg.Redcap.RequestTimeout, 30*time.Second),
		lgr,
	)

	deps.SyncEngine = appServices.NewSyncEngine(
		deps.Repos.Projects,
		deps.Repos.Memberships,
		deps.Repos.Admins,
		deps.Repos.Invitations,
		lgr,
	)

	deps.AuthService = appServices.NewAuthService(dbPool, deps.Repos, deps.JWTService, deps.EmailService, lgr)
	deps.CommunityService = appServices.NewCommunityService(dbPool, deps.Repos, lgr)
	deps.ProjectService = appServices.NewProjectService(dbPool, deps.Repos, deps.RedcapClient, lgr)
	deps.MembershipService = appServices.NewMembershipService(dbPool, deps.Repos, deps.SyncEngine, lgr)
	deps.InvitationService = appServices.NewInvitationService(dbPool, deps.Repos, deps.SyncEngine, deps.EmailService, cfg.Server.BaseURL, lgr)
	deps.AdminService = appServices.NewCommunityAdminService(dbPool, deps.Repos, deps.SyncEngine, deps.EmailService, lgr)
	deps.RedcapService = appServices.NewRedcapService(dbPool, deps.Repos, deps.RedcapClient, lgr)
	deps.SurveyRecordService = appServices.NewSurveyRecordService(dbPool, deps.Repos, deps.RedcapClient, lgr)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService, deps.Repos.Users, dbPool)

	deps.AuthController = appControllers.NewAuthController(deps.AuthService, lgr)
	deps.CommunityController = appControllers.NewCommunityController(deps.CommunityService, deps.ProjectService)
	deps.ProjectController = appControllers.NewProjectController(deps.ProjectService, deps.SurveyRecordService)
	deps.MembershipController = appControllers.NewMembershipController(deps.MembershipService)
	deps.InvitationController = appControllers.NewInvitationController(deps.InvitationService)
	deps.AdminController = appControllers.NewCommunityAdminController(deps.AdminService)
	deps.RedcapController = appControllers.NewRedcapController(deps.RedcapService)

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

	router := gin.Default()

	appRoutes.SetupRouter(router,
		deps.AuthController,
		deps.CommunityController,
		deps.ProjectController,
		deps.MembershipController,
		deps.InvitationController,
		deps.AdminController,
		deps.RedcapController,
		deps.AuthMiddleware,
	)

	// Test endpoint
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong", "status": "success"})
	})

	return router
}
