package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	_ "github.com/noah-isme/siapptn-tryout-api/api/swagger"
	"github.com/noah-isme/siapptn-tryout-api/internal/handler"
	internalmiddleware "github.com/noah-isme/siapptn-tryout-api/internal/middleware"
	"github.com/noah-isme/siapptn-tryout-api/internal/models"
	"github.com/noah-isme/siapptn-tryout-api/internal/repository"
	"github.com/noah-isme/siapptn-tryout-api/internal/service"
	"github.com/noah-isme/siapptn-tryout-api/pkg/cache"
	"github.com/noah-isme/siapptn-tryout-api/pkg/config"
	"github.com/noah-isme/siapptn-tryout-api/pkg/database"
	"github.com/noah-isme/siapptn-tryout-api/pkg/export"
	"github.com/noah-isme/siapptn-tryout-api/pkg/jobs"
	"github.com/noah-isme/siapptn-tryout-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/siapptn-tryout-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/siapptn-tryout-api/pkg/middleware/requestid"
)

const shutdownTimeout = 10 * time.Second

// @title SIAPPTN Tryout API
// @version 1.0.0
// @description Answer ingestion, score aggregation and ranking for SIAPPTN tryouts
// @BasePath /
// @schemes http
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
		logr.Fatal("server stopped with error", zap.Error(err))
	}
	logr.Info("server exited")
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(cfg.Database, logr); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
	}

	metrics := service.NewMetricsService()
	cacheSvc := newCacheService(ctx, cfg, metrics, logr)

	answers := repository.NewAnswerRepository(db, cfg.Scoring.InsertBatchSize)
	rankings := repository.NewRankingRepository(db, cfg.Scoring.InsertBatchSize)

	ingestion := service.NewIngestionService(answers, validator.New(), metrics, logr)
	ranking := service.NewRankingService(rankings, cacheSvc, metrics, logr, service.RankingServiceConfig{
		Scoring: models.ScoreParams{
			CorrectStatus:   models.AnswerStatus(cfg.Scoring.CorrectStatus),
			PointMultiplier: cfg.Scoring.PointMultiplier,
			SubjectDivisor:  cfg.Scoring.SubjectDivisor,
		},
		Year:         cfg.Scoring.Year,
		AdvisoryLock: cfg.Ranking.AdvisoryLock,
		CacheTTL:     cfg.Ranking.CacheTTL,
	})
	exporter := service.NewExportService(ranking, export.NewCSVExporter(), export.NewPDFExporter(), logr)
	worker := service.NewProcessWorker(ranking, jobs.QueueConfig{
		Workers:    cfg.Queue.Workers,
		BufferSize: cfg.Queue.BufferSize,
		MaxRetries: cfg.Queue.MaxRetries,
		RetryDelay: cfg.Queue.RetryDelay,
		Logger:     logr,
	}, metrics, logr)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))

	var protect []gin.HandlerFunc
	if cfg.JWT.Enabled {
		auth := service.NewAuthService(service.AuthConfig{
			Secret: cfg.JWT.Secret,
			Issuer: cfg.JWT.Issuer,
			Expiry: cfg.JWT.Expiration,
		}, logr)
		protect = append(protect,
			internalmiddleware.JWT(auth),
			internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleOperator),
		)
	} else {
		logr.Warn("authentication disabled; mutating routes are open")
	}

	handler.Routes{
		Tryout:  handler.NewTryoutHandler(ingestion, ranking, worker),
		Ranking: handler.NewRankingHandler(ranking, exporter),
		Metrics: handler.NewMetricsHandler(metrics, db),
		Logger:  logr,
	}.Register(r, cfg.APIPrefix, protect...)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	worker.Start(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logr.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		worker.Stop()
		if err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

// newCacheService connects Redis when ranking caching is enabled. Connection failures
// disable caching rather than aborting startup.
func newCacheService(ctx context.Context, cfg *config.Config, metrics *service.MetricsService, logr *zap.Logger) *service.CacheService {
	if !cfg.Ranking.CacheEnabled {
		return service.NewCacheService(nil, metrics, cfg.Ranking.CacheTTL, logr, false)
	}
	client, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable; ranking cache disabled", zap.Error(err))
		return service.NewCacheService(nil, metrics, cfg.Ranking.CacheTTL, logr, false)
	}
	return service.NewCacheService(repository.NewCacheRepository(client), metrics, cfg.Ranking.CacheTTL, logr, true)
}
