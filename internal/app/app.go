// Package app wires configuration, storage, services and the HTTP router
// into one runnable unit.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/comitanigiacomo/kanso-habit-stats/internal/adapters/cache"
	adapterHTTP "github.com/comitanigiacomo/kanso-habit-stats/internal/adapters/handler/http"
	"github.com/comitanigiacomo/kanso-habit-stats/internal/adapters/notify"
	"github.com/comitanigiacomo/kanso-habit-stats/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-habit-stats/internal/config"
	"github.com/comitanigiacomo/kanso-habit-stats/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habit-stats/internal/core/services"
	"github.com/comitanigiacomo/kanso-habit-stats/internal/core/workers"
	"github.com/comitanigiacomo/kanso-habit-stats/internal/jobs"
)

type App struct {
	Router *gin.Engine

	// DB is nil with in-memory storage, Redis is nil when not configured.
	DB    *sqlx.DB
	Redis *redis.Client

	Worker *workers.StreakWorker
	// Reminders is nil when REMINDERS_ENABLED is false.
	Reminders *jobs.ReminderScheduler

	stopWorker context.CancelFunc
}

type storage struct {
	habits domain.HabitRepository
	logs   domain.HabitLogRepository
	users  domain.UserRepository
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	a := &App{}

	store, err := a.openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var statsCache domain.StatsCache = cache.NoopStatsCache{}
	if cfg.RedisEnabled() {
		rdb, err := cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Redis = rdb
		store.habits = repository.NewCachedHabitRepository(store.habits, rdb, cfg.StatsCacheTTL)
		statsCache = cache.NewRedisStatsCache(rdb, cfg.StatsCacheTTL)
	} else {
		log.Warn("REDIS_HOST not set, running without cache and rate limiting")
	}

	a.Worker = workers.NewStreakWorker(store.habits, store.logs, store.users, statsCache, cfg.WorkerQueueSize)

	var scheduler services.ReminderScheduler
	if cfg.RemindersEnabled {
		notifier, err := newNotifier(cfg)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Reminders = jobs.NewReminderScheduler(store.users, store.habits, store.logs, notifier)
		scheduler = a.Reminders
	}

	tokens := services.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL, store.users)

	a.Router = adapterHTTP.NewRouter(adapterHTTP.RouterDependencies{
		AuthHandler:     adapterHTTP.NewAuthHandler(services.NewAuthService(store.users, tokens, cfg.DefaultTimezone)),
		HabitHandler:    adapterHTTP.NewHabitHandler(services.NewHabitService(store.habits, statsCache, a.Worker)),
		LogHandler:      adapterHTTP.NewLogHandler(services.NewLogService(store.logs, store.habits, store.users, statsCache, a.Worker)),
		StatsHandler:    adapterHTTP.NewStatsHandler(services.NewStatsService(store.habits, store.logs, store.users, statsCache)),
		SettingsHandler: adapterHTTP.NewSettingsHandler(services.NewUserService(store.users, scheduler)),
		Tokens:          tokens,
		DB:              a.DB,
		Redis:           a.Redis,
		RateLimit:       cfg.RateLimitRequests,
		RateWindow:      cfg.RateLimitWindow,
		AllowedOrigins:  cfg.CORSAllowedOrigins,
		StartTime:       time.Now(),
	})

	return a, nil
}

func (a *App) openStorage(ctx context.Context, cfg *config.Config) (storage, error) {
	if cfg.StorageDriver == config.StorageMemory {
		log.Warn("STORAGE_DRIVER=memory, data is lost on restart")
		return storage{
			habits: repository.NewInMemoryHabitRepository(),
			logs:   repository.NewInMemoryLogRepository(),
			users:  repository.NewInMemoryUserRepository(),
		}, nil
	}

	log.Info("Connecting to database...")
	db, err := sqlx.ConnectContext(ctx, "pgx", cfg.DatabaseDSN())
	if err != nil {
		return storage{}, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxOpenConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := repository.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return storage{}, fmt.Errorf("migrations failed: %w", err)
	}

	log.Info("Database connected successfully")
	a.DB = db
	return storage{
		habits: repository.NewPostgresHabitRepository(db),
		logs:   repository.NewPostgresLogRepository(db),
		users:  repository.NewPostgresUserRepository(db),
	}, nil
}

func newNotifier(cfg *config.Config) (jobs.Notifier, error) {
	if cfg.TelegramBotToken == "" {
		log.Warn("TELEGRAM_BOT_TOKEN not set, reminders are only logged")
		return notify.LogNotifier{}, nil
	}
	return notify.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramAPIServer)
}

// Start launches the streak worker and restores the reminder jobs.
func (a *App) Start(ctx context.Context) error {
	workerCtx, cancel := context.WithCancel(ctx)
	a.stopWorker = cancel
	a.Worker.Start(workerCtx)

	if a.Reminders == nil {
		return nil
	}
	if _, err := a.Reminders.Restore(ctx); err != nil {
		return err
	}
	a.Reminders.Start()
	return nil
}

// Close stops background work, then releases connections. Safe to call on
// a partially built App.
func (a *App) Close() {
	if a.Reminders != nil {
		a.Reminders.Stop()
	}
	if a.stopWorker != nil {
		a.stopWorker()
		a.Worker.Wait()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			log.WithError(err).Warn("Failed to close redis")
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			log.WithError(err).Warn("Failed to close database")
		}
	}
}
