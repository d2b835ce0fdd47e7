package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/you/glucopredict/domain"
	"github.com/you/glucopredict/internal/config"
	httpx "github.com/you/glucopredict/internal/http"
	"github.com/you/glucopredict/internal/http/handlers"
	"github.com/you/glucopredict/internal/http/middleware"
	"github.com/you/glucopredict/internal/infrastructure/auth"
	"github.com/you/glucopredict/internal/infrastructure/database"
	"github.com/you/glucopredict/internal/infrastructure/model"
	"github.com/you/glucopredict/internal/infrastructure/repositories"
	"github.com/you/glucopredict/internal/logging"
	"github.com/you/glucopredict/internal/services"
)

// Container holds all dependencies
type Container struct {
	// Config
	Config *config.Config
	Logger *slog.Logger

	// Infrastructure
	DB          *database.ConnectionManager
	RedisClient *redis.Client

	// Repositories
	UserRepo       domain.UserRepository
	PredictionRepo domain.PredictionRepository

	// Services
	PasswordSvc   domain.PasswordService
	TokenSvc      domain.TokenService
	Gate          domain.Authorizer
	AuthSvc       domain.AuthService
	InferenceSvc  domain.InferenceService
	PredictionSvc domain.PredictionService

	Router *gin.Engine
}

// NewContainer creates and initializes all dependencies. The database is
// not contacted here; the connection manager opens it on first use.
func NewContainer(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: logging.OrNop(log)}

	c.initDatabase()
	c.initRedis(ctx)
	c.initRepositories()
	c.initAuth()
	if err := c.initInference(ctx); err != nil {
		return nil, err
	}
	c.initRouter()

	return c, nil
}

func (c *Container) initDatabase() {
	c.DB = database.NewConnectionManager(c.Config.Database.DSN, c.Logger)
}

// initRedis leaves RedisClient nil when the cache is disabled or unreachable.
func (c *Container) initRedis(ctx context.Context) {
	rc := c.Config.Redis
	client, err := database.NewRedis(ctx, rc.Addr, rc.Password, rc.DB)
	if err != nil {
		c.Logger.Warn("stats cache disabled", "addr", rc.Addr, "error", err)
		return
	}
	c.RedisClient = client
}

func (c *Container) initRepositories() {
	c.UserRepo = repositories.NewUserRepository(c.DB, c.Logger)

	var cache *repositories.StatsCache
	if c.RedisClient != nil {
		cache = repositories.NewStatsCache(c.RedisClient, c.Config.Redis.StatsTTL)
	}
	c.PredictionRepo = repositories.NewCachedPredictionRepository(
		repositories.NewPredictionRepository(c.DB),
		cache,
		c.Logger,
	)
}

func (c *Container) initAuth() {
	c.PasswordSvc = auth.NewPasswordService()
	c.TokenSvc = auth.NewJWTService(c.Config.JWT.Secret, c.Config.TokenTTL())
	c.Gate = services.NewAuthGate(c.TokenSvc, c.UserRepo)
	c.AuthSvc = services.NewAuthService(c.UserRepo, c.PasswordSvc, c.TokenSvc, c.Logger)
}

func (c *Container) initInference(ctx context.Context) error {
	mc := c.Config.Model

	source := model.Router{Local: model.FileSource{}}
	if strings.HasPrefix(mc.ModelPath, "s3://") || strings.HasPrefix(mc.ScalerPath, "s3://") {
		s3src, err := model.NewS3Source(ctx, model.S3Options{
			Region:    c.Config.S3.Region,
			Endpoint:  c.Config.S3.Endpoint,
			AccessKey: c.Config.S3.AccessKey,
			SecretKey: c.Config.S3.SecretKey,
		})
		if err != nil {
			return fmt.Errorf("s3 artifact source: %w", err)
		}
		source.S3 = s3src
	}

	classes := services.ClassTableFunc(config.DefaultClassTable)
	if mc.ClassesPath != "" {
		table, err := config.LoadClassTable(mc.ClassesPath)
		if err != nil {
			return err
		}
		classes = services.StaticClassTable(table)
	}

	loader := model.NewLoader(source, mc.ModelPath, mc.ScalerPath)
	c.InferenceSvc = services.NewInferenceService(loader, classes, c.Logger)
	c.PredictionSvc = services.NewPredictionService(c.InferenceSvc, c.PredictionRepo, c.UserRepo, mc.Accuracy, c.Logger)
	return nil
}

func (c *Container) initRouter() {
	c.Router = httpx.BuildRouter(httpx.Handlers{
		Auth:        handlers.NewAuthHandlers(c.AuthSvc, c.Logger),
		Predictions: handlers.NewPredictionHandlers(c.PredictionSvc, c.Logger),
		Health:      handlers.NewHealthHandlers(c.DB, c.InferenceSvc),
		AuthMW:      middleware.NewAuthMW(c.Gate),
	}, c.Config.App.AllowedOrigins, c.Logger)
}

// Close closes all connections
func (c *Container) Close() error {
	var errs []error
	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	return errors.Join(errs...)
}
