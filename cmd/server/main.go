package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"btc-news-timeline/internal/cache"
	"btc-news-timeline/internal/config"
	"btc-news-timeline/internal/db"
	"btc-news-timeline/internal/handler"
	"btc-news-timeline/internal/ingest"
	"btc-news-timeline/internal/job"
	"btc-news-timeline/internal/repository"
	"btc-news-timeline/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/trace"

	_ "btc-news-timeline/docs"
)

var (
	loadEnvFunc         = godotenv.Load
	loadConfigFunc      = config.Load
	initPostgresFunc    = db.InitPostgres
	initRedisFunc       = cache.InitRedis
	initTracerFunc      = tracing.InitTracer
	newOrchestratorFunc = func(tracer trace.Tracer, cfg *config.Config) *ingest.Orchestrator {
		if db.Pool == nil {
			return nil
		}
		return ingest.NewFromConfig(tracer, cfg,
			repository.NewPriceRepository(db.Pool, tracer),
			repository.NewNewsRepository(db.Pool, tracer),
		)
	}
	newIngestionJobFunc    = job.NewIngestionJob
	startJobFunc           = func(j *job.IngestionJob, ctx context.Context) { go j.Start(ctx) }
	newHandlerFunc         = handler.New
	newRouterFunc          = gin.Default
	setupSignalNotify      = signal.Notify
	waitForSignalFunc      = func(quit <-chan os.Signal) { <-quit }
	startHTTPServerFunc    = func(srv *http.Server) error { return srv.ListenAndServe() }
	shutdownHTTPServerFunc = func(srv *http.Server, ctx context.Context) error { return srv.Shutdown(ctx) }
)

// @title           BTC News Timeline API
// @version         1.0
// @description     Daily Bitcoin price snapshots with the news that moved them.

// @host      localhost:8080
// @BasePath  /
func main() {
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init Postgres and Redis
	os.Setenv("DATABASE_URL", cfg.DatabaseURL)
	os.Setenv("REDIS_URL", cfg.RedisURL)
	initPostgresFunc(ctx)
	defer db.Close()
	initRedisFunc(ctx)

	// Init tracing
	tp, tracer, err := initTracerFunc(ctx, "server")
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	h := newHandlerFunc(tracer, cfg.IngestTriggerTimeout())

	// Wire the ingestion cycle; without a database the job and trigger stay disabled.
	orchestrator := newOrchestratorFunc(tracer, cfg)
	var runner job.IngestionRunner
	if orchestrator != nil {
		if cache.Client != nil {
			orchestrator.SetRunLock(cache.NewRunLock(cache.Client, tracer, cfg.IngestLockTTL()))
			orchestrator.SetResultCache(cache.NewResultStore(cache.Client, tracer))
		}
		h.SetIngestionService(orchestrator)
		runner = orchestrator
	} else {
		log.Println("Warning: ingestion disabled, no database configured")
	}

	ingestionJob := newIngestionJobFunc(tracer, runner, cfg.IngestInterval())
	startJobFunc(ingestionJob, ctx)

	r := newRouterFunc()
	r.Use(otelgin.Middleware(tracing.ServiceName))

	h.RegisterRoutes(r)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: r,
	}

	go func() {
		if err := startHTTPServerFunc(srv); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	setupSignalNotify(quit, syscall.SIGINT, syscall.SIGTERM)
	waitForSignalFunc(quit)
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := shutdownHTTPServerFunc(srv, shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
