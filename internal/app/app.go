package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/templui/goalboard/internal/cache"
	"github.com/templui/goalboard/internal/config"
	"github.com/templui/goalboard/internal/db"
	"github.com/templui/goalboard/internal/metrics"
	"github.com/templui/goalboard/internal/middleware"
	"github.com/templui/goalboard/internal/repository"
	"github.com/templui/goalboard/internal/service"
	"github.com/templui/goalboard/internal/storage"
)

type App struct {
	Cfg         *config.Config
	DB          *sqlx.DB
	Redis       *redis.Client
	GoalService *service.GoalService
	RateLimiter *middleware.RateLimiter

	stop chan struct{}
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{
		Cfg:  cfg,
		stop: make(chan struct{}),
	}

	// Initialize database
	database, err := db.Init(ctx, cfg.DBDriver, cfg.DBConnection, db.Pool{})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	a.DB = database

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Repositories
	goalRepository := repository.NewGoalRepository(database)
	participationRepository := repository.NewParticipationRepository(database)
	friendshipRepository := repository.NewFriendshipRepository(database)

	// Friends feed cache (optional)
	var feeds cache.FeedCache = cache.Nop{}
	if cfg.CacheEnabled() {
		client, err := cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to initialize cache: %w", err)
		}
		a.Redis = client
		feeds = cache.NewRedisFeedCache(client, cfg.FeedCacheTTL)
	} else {
		slog.Info("friends feed cache disabled", "hint", "set REDIS_URL to enable")
	}

	// Export archive storage (optional)
	var archive storage.Storage
	if cfg.StorageEnabled() {
		s3Storage, err := storage.New(ctx, cfg)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		archive = s3Storage
	} else {
		slog.Info("export archive disabled", "hint", "set S3_BUCKET to enable")
	}

	// Services
	a.GoalService = service.NewGoalService(
		goalRepository,
		participationRepository,
		friendshipRepository,
		feeds,
		archive,
	)

	// Metrics
	metrics.Init()

	// Rate limiting
	a.RateLimiter = middleware.NewRateLimiter(cfg.RateLimitMutations, cfg.RateLimitBurst)
	go a.RateLimiter.Run(5*time.Minute, a.stop)

	return a, nil
}

func (a *App) Close() error {
	select {
	case <-a.stop:
		return nil
	default:
		close(a.stop)
	}

	var errs []error
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}
