package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/YashVG/techprep-sub000/api/swagger"
	"github.com/YashVG/techprep-sub000/internal/dto"
	"github.com/YashVG/techprep-sub000/internal/handler"
	"github.com/YashVG/techprep-sub000/internal/repository"
	"github.com/YashVG/techprep-sub000/internal/service"
	"github.com/YashVG/techprep-sub000/pkg/cache"
	"github.com/YashVG/techprep-sub000/pkg/config"
	"github.com/YashVG/techprep-sub000/pkg/database"
	"github.com/YashVG/techprep-sub000/pkg/logger"
	"github.com/YashVG/techprep-sub000/pkg/ratelimit"
)

var version = "dev"

// @title Study Blog API
// @version 1.0.0
// @description Study notes, comments, courses and private study groups
// @BasePath /
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.IsProduction() || !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()
	repository.SetQueryTimeout(cfg.Database.QueryTimeout)

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db, logr); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}

	metrics := service.NewMetricsService()

	var (
		cacheRepo    service.CacheRepository
		limiterStore ratelimit.Store
	)
	if redisClient != nil {
		defer redisClient.Close()
		cacheRepo = repository.NewCacheRepository(redisClient)
		limiterStore = repository.NewRateLimitRepository(redisClient)
	} else {
		logr.Info("redis disabled; using in-process rate limit counters and no listing cache")
		limiterStore = ratelimit.NewMemoryStore(nil)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cacheRepo != nil)

	users := repository.NewUserRepository(db)
	courses := repository.NewCourseRepository(db)
	posts := repository.NewPostRepository(db)
	comments := repository.NewCommentRepository(db)
	groups := repository.NewGroupRepository(db)

	security := service.NewSecurityService(repository.NewSecurityEventRepository(db), metrics, logr, cfg.Security.EventWorkers)
	security.Start(ctx)
	defer security.Stop()

	validate := dto.NewValidator()
	auth, err := service.NewAuthService(users, validate, logr, security, service.AuthConfig{
		TokenSecret:  cfg.JWT.Secret,
		TokenExpiry:  cfg.JWT.Expiration,
		Issuer:       cfg.JWT.Issuer,
		EmailPattern: cfg.Email.DomainPattern,
		Password:     cfg.Password,
	})
	if err != nil {
		return fmt.Errorf("init auth: %w", err)
	}

	router := handler.NewRouter(handler.RouterDeps{
		Config:   cfg,
		Logger:   logr,
		Version:  version,
		DB:       db,
		Limiter:  ratelimit.New(limiterStore, ratelimit.WithPrefix("studyblog:ratelimit")),
		Metrics:  metrics,
		Security: security,
		Auth:     auth,
		Users:    service.NewUserService(users, posts, groups),
		Courses:  service.NewCourseService(courses, cacheSvc, validate, logr),
		Posts:    service.NewPostService(posts, groups, comments, validate, logr),
		Comments: service.NewCommentService(comments, posts, groups, validate, logr),
		Groups:   service.NewGroupService(groups, users, posts, cacheSvc, validate, logr),
	})

	srv := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
