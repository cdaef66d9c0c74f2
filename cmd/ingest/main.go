package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"btc-news-timeline/internal/cache"
	"btc-news-timeline/internal/config"
	"btc-news-timeline/internal/db"
	"btc-news-timeline/internal/domain"
	"btc-news-timeline/internal/ingest"
	"btc-news-timeline/internal/job"
	"btc-news-timeline/internal/repository"
	"btc-news-timeline/pkg/tracing"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel/trace"
)

const (
	usage             = "usage: ingest [report [days]]"
	defaultReportDays = 7
)

type cycleRunner interface {
	RunIngestion(ctx context.Context) (domain.IngestionResult, error)
}

type repositoryTimeline struct {
	*repository.PriceRepository
	*repository.NewsRepository
}

var (
	loadEnvFunc      = godotenv.Load
	loadConfigFunc   = config.Load
	initPostgresFunc = db.InitPostgres
	initRedisFunc    = cache.InitRedis
	initTracerFunc   = tracing.InitTracer
	newRunnerFunc    = func(tracer trace.Tracer, cfg *config.Config) cycleRunner {
		if db.Pool == nil {
			return nil
		}
		o := ingest.NewFromConfig(tracer, cfg,
			repository.NewPriceRepository(db.Pool, tracer),
			repository.NewNewsRepository(db.Pool, tracer),
		)
		if cache.Client != nil {
			o.SetRunLock(cache.NewRunLock(cache.Client, tracer, cfg.IngestLockTTL()))
			o.SetResultCache(cache.NewResultStore(cache.Client, tracer))
		}
		return o
	}
	newReaderFunc = func(tracer trace.Tracer) ingest.TimelineReader {
		if db.Pool == nil {
			return nil
		}
		return repositoryTimeline{
			PriceRepository: repository.NewPriceRepository(db.Pool, tracer),
			NewsRepository:  repository.NewNewsRepository(db.Pool, tracer),
		}
	}
	notifyContextFunc = signal.NotifyContext
	argsFunc          = func() []string { return os.Args[1:] }
	nowFunc           = time.Now
	stdout            = os.Stdout
	exitFunc          = os.Exit
)

// main runs exactly one ingestion cycle, for use from cron. "report [days]" prints the stored
// timeline of the last days instead.
func main() {
	exitFunc(run())
}

func run() int {
	args := argsFunc()
	reportDays := 0
	if len(args) > 0 {
		if args[0] != "report" {
			log.Printf("unknown command %q. %s", args[0], usage)
			return 2
		}
		reportDays = defaultReportDays
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n <= 0 {
				log.Printf("invalid report days %q. %s", args[1], usage)
				return 2
			}
			reportDays = n
		}
	}

	loadEnvFunc()
	cfg := loadConfigFunc()

	ctx, stop := notifyContextFunc(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	os.Setenv("DATABASE_URL", cfg.DatabaseURL)
	os.Setenv("REDIS_URL", cfg.RedisURL)
	initPostgresFunc(ctx)
	defer db.Close()
	initRedisFunc(ctx)

	tp, tracer, err := initTracerFunc(ctx, "ingest")
	if err != nil {
		log.Printf("failed to initialize tracer: %v", err)
		return 1
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	if reportDays > 0 {
		return report(ctx, tracer, reportDays)
	}

	runner := newRunnerFunc(tracer, cfg)
	if runner == nil {
		log.Println("ingestion requires DATABASE_URL")
		return 1
	}

	result, err := runner.RunIngestion(ctx)
	if encErr := json.NewEncoder(stdout).Encode(result); encErr != nil {
		log.Printf("write result: %v", encErr)
	}
	if err != nil {
		log.Printf("Ingestion cycle error: %v", err)
		return 1
	}
	log.Println(job.Summary(result))
	return 0
}

func report(ctx context.Context, tracer trace.Tracer, days int) int {
	reader := newReaderFunc(tracer)
	if reader == nil {
		log.Println("report requires DATABASE_URL")
		return 1
	}
	to := nowFunc().UTC()
	from := domain.UTCDate(to).AddDate(0, 0, -(days - 1))
	timeline, err := ingest.BuildTimeline(ctx, tracer, reader, from, to)
	if err != nil {
		log.Printf("Timeline report error: %v", err)
		return 1
	}
	if err := json.NewEncoder(stdout).Encode(timeline); err != nil {
		log.Printf("write report: %v", err)
		return 1
	}
	return 0
}
