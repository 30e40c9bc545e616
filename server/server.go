// Package server composes the application's dependencies and owns their
// lifecycle: database, cache, job worker, scheduler, event writer,
// analytics store and the HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"food-marketplace-api/analytics"
	"food-marketplace-api/auth"
	"food-marketplace-api/cache"
	"food-marketplace-api/config"
	"food-marketplace-api/events"
	"food-marketplace-api/handlers"
	"food-marketplace-api/jobs"
	"food-marketplace-api/reports"
	"food-marketplace-api/routes"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const (
	cachePrefix    = "foodapp"
	startupTimeout = 5 * time.Second
	rollupTimeout  = 10 * time.Minute
)

// Server is the application container. It is not the HTTP server itself.
type Server struct {
	Config    *config.Config
	Logger    zerolog.Logger
	DB        *gorm.DB
	Cache     cache.Cache
	Jobs      *jobs.JobService
	Scheduler *jobs.Scheduler
	Events    events.Publisher
	Analytics analytics.Store
	Handler   *handlers.Handler

	httpServer *http.Server
}

// New connects every configured backend. Redis, MongoDB and Kafka are
// optional; when unset the service falls back to no cache, log-only
// notifications, relational analytics and log-only events.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Server, error) {
	db, err := config.OpenDB(cfg.Database, log)
	if err != nil {
		return nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := config.Migrate(db); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	s := &Server{Config: cfg, Logger: log, DB: db}

	var notifier jobs.Notifier = jobs.NewLogNotifier(log.With().Str("component", "notifications").Logger())
	s.Cache = cache.Noop{}
	if cfg.RedisEnabled() {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, startupTimeout)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			log.Error().Err(err).Msg("failed to connect to Redis, continuing without it")
		}
		s.Cache = cache.NewRedisCache(client, cachePrefix)
		s.Jobs = jobs.NewJobService(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB, cfg.Jobs.Concurrency, log)
		notifier = s.Jobs
	} else {
		log.Warn().Msg("redis not configured: dashboards are not cached and notifications run inline")
	}

	s.Analytics = analytics.NewGormStore(db)
	if cfg.MongoEnabled() {
		store, err := analytics.NewMongoStore(ctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Timeout)
		if err != nil {
			s.closeBackends(ctx)
			return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		s.Analytics = store
	}

	s.Events = events.NewLogPublisher(log)
	if cfg.KafkaEnabled() {
		s.Events = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("publishing order events to kafka")
	}

	s.Scheduler = jobs.NewScheduler(log, rollupTimeout)
	if cfg.Jobs.SchedulerOn {
		if err := s.Scheduler.Add("daily_rollup", cfg.Jobs.RollupSchedule, reports.Nightly(db, time.Now)); err != nil {
			s.closeBackends(ctx)
			return nil, err
		}
	}

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	s.Handler = handlers.New(cfg, db, tokens, s.Cache, notifier, s.Events, s.Analytics, log)
	return s, nil
}

// SetupHTTPServer builds the router and the net/http server around it.
func (s *Server) SetupHTTPServer() {
	if s.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	s.httpServer = &http.Server{
		Addr:         ":" + s.Config.Server.Port,
		Handler:      routes.NewRouter(s.Handler),
		ReadTimeout:  s.Config.Server.ReadTimeout,
		WriteTimeout: s.Config.Server.WriteTimeout,
		IdleTimeout:  s.Config.Server.IdleTimeout,
	}
}

// Start launches the background workers and blocks serving HTTP.
func (s *Server) Start() error {
	if s.httpServer == nil {
		return errors.New("HTTP server not initialized")
	}
	if s.Jobs != nil {
		if err := s.Jobs.Start(); err != nil {
			return fmt.Errorf("failed to start job worker: %w", err)
		}
	}
	s.Scheduler.Start()

	s.Logger.Info().
		Str("port", s.Config.Server.Port).
		Str("env", s.Config.App.Env).
		Msg("starting server")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then stops the scheduler and worker
// and closes the backends in dependency order.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown HTTP server: %w", err))
		}
	}
	s.Scheduler.Stop(ctx)
	if s.Jobs != nil {
		s.Jobs.Stop()
	}
	errs = append(errs, s.closeBackends(ctx)...)
	return errors.Join(errs...)
}

func (s *Server) closeBackends(ctx context.Context) []error {
	var errs []error
	if s.Events != nil {
		if err := s.Events.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close event writer: %w", err))
		}
	}
	if s.Analytics != nil {
		if err := s.Analytics.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to close analytics store: %w", err))
		}
	}
	if s.Cache != nil {
		if err := s.Cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close cache: %w", err))
		}
	}
	if sqlDB, err := s.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database connection: %w", err))
		}
	}
	return errs
}
