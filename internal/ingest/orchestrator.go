package ingest

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"btc-news-timeline/internal/domain"
	"btc-news-timeline/internal/provider"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

type PriceFetcher interface {
	FetchBitcoinQuote(ctx context.Context) (*provider.PriceQuote, error)
}

type PriceStore interface {
	LatestSnapshot(ctx context.Context) (*domain.PriceSnapshot, error)
	// InsertSnapshotIfNewDay inserts unless a snapshot already exists on the same UTC date,
	// reporting whether a row was written.
	InsertSnapshotIfNewDay(ctx context.Context, snapshot domain.PriceSnapshot) (*domain.PriceSnapshot, bool, error)
}

type NewsStore interface {
	LatestNews(ctx context.Context) (*domain.NewsRecord, error)
	ListTitles(ctx context.Context) ([]string, error)
	// InsertNews skips records whose title is already stored and returns the inserted rows.
	InsertNews(ctx context.Context, records []domain.NewsRecord) ([]domain.NewsRecord, int, error)
}

// RunLock guards against overlapping cycles across processes.
type RunLock interface {
	TryAcquire(ctx context.Context) (release func(), acquired bool, err error)
}

type ResultCache interface {
	StoreResult(ctx context.Context, result domain.IngestionResult) error
	LoadResult(ctx context.Context) (*domain.IngestionResult, error)
}

// Orchestrator runs one ingestion cycle: price, daily snapshot, news collection, persistence.
type Orchestrator struct {
	tracer     trace.Tracer
	prices     PriceFetcher
	priceStore PriceStore
	newsStore  NewsStore
	sources    []NewsSource
	collector  *Collector
	policy     Policy

	lock    RunLock
	results ResultCache

	running atomic.Bool
	mu      sync.Mutex
	last    *domain.IngestionResult
	now     func() time.Time
}

func NewOrchestrator(
	tracer trace.Tracer,
	prices PriceFetcher,
	priceStore PriceStore,
	newsStore NewsStore,
	sources []NewsSource,
	collector *Collector,
	policy Policy,
) *Orchestrator {
	if collector == nil {
		collector = NewCollector(tracer, 0, 0)
	}
	return &Orchestrator{
		tracer:     tracer,
		prices:     prices,
		priceStore: priceStore,
		newsStore:  newsStore,
		sources:    sources,
		collector:  collector,
		policy:     policy,
		now:        time.Now,
	}
}

// SetRunLock installs a cross-process guard in addition to the in-process one.
func (o *Orchestrator) SetRunLock(lock RunLock) { o.lock = lock }

// SetResultCache installs a shared store for the last cycle result.
func (o *Orchestrator) SetResultCache(cache ResultCache) { o.results = cache }

// RunIngestion satisfies the job and handler runner interfaces.
func (o *Orchestrator) RunIngestion(ctx context.Context) (domain.IngestionResult, error) {
	return o.RunCycle(ctx)
}

// RunCycle executes one cycle. A non-nil error is always a *domain.IngestionError of kind
// price_fetch or persistence; news failures are reported per source in the result.
func (o *Orchestrator) RunCycle(ctx context.Context) (domain.IngestionResult, error) {
	ctx, span := o.tracer.Start(ctx, "ingest.run-cycle")
	defer span.End()

	started := o.now().UTC()
	if !o.running.CompareAndSwap(false, true) {
		log.Println("ingestion cycle already running in this process, skipping")
		return domain.IngestionResult{Status: domain.RunSkippedInProgress, StartedAt: started, FinishedAt: started}, nil
	}
	defer o.running.Store(false)

	if o.lock != nil {
		release, acquired, err := o.lock.TryAcquire(ctx)
		switch {
		case err != nil:
			log.Printf("ingestion lock unavailable, continuing with in-process guard only: %v", err)
		case !acquired:
			log.Println("ingestion cycle already running elsewhere, skipping")
			return domain.IngestionResult{Status: domain.RunSkippedInProgress, StartedAt: started, FinishedAt: o.now().UTC()}, nil
		default:
			defer release()
		}
	}

	result := domain.IngestionResult{StartedAt: started}
	err := o.run(ctx, &result)
	result.FinishedAt = o.now().UTC()
	if err != nil {
		result.Status = domain.RunFailed
		result.Error = err
		span.RecordError(err)
	}
	span.SetAttributes(attribute.String("status", string(result.Status)), attribute.Int("news_inserted", result.NewsInserted()))

	o.remember(ctx, result)
	if err != nil {
		return result, err
	}
	return result, nil
}

func (o *Orchestrator) run(ctx context.Context, result *domain.IngestionResult) *domain.IngestionError {
	quote, err := o.prices.FetchBitcoinQuote(ctx)
	if err != nil {
		return asIngestionError(err, domain.KindPriceFetch, "fetch bitcoin price")
	}
	result.Price = quote.Price
	result.PercentChange = quote.PercentChange

	lastSnapshot, err := o.priceStore.LatestSnapshot(ctx)
	if err != nil {
		return domain.NewIngestionError(domain.KindPersistence, "read latest price snapshot", err)
	}
	lastNews, err := o.newsStore.LatestNews(ctx)
	if err != nil {
		return domain.NewIngestionError(domain.KindPersistence, "read latest news record", err)
	}

	now := o.now().UTC()
	if lastSnapshot != nil && domain.SameUTCDate(now, lastSnapshot.Timestamp) {
		result.Status = domain.RunSkippedSameDay
		result.PriceID = lastSnapshot.ID
		return nil
	}

	snapshot, inserted, err := o.priceStore.InsertSnapshotIfNewDay(ctx, domain.PriceSnapshot{
		Price:         quote.Price,
		PercentChange: quote.PercentChange,
		Timestamp:     now,
	})
	if err != nil {
		return domain.NewIngestionError(domain.KindPersistence, "insert price snapshot", err)
	}
	if !inserted {
		log.Println("price snapshot for today was recorded concurrently, skipping")
		result.Status = domain.RunSkippedSameDay
		if snapshot != nil {
			result.PriceID = snapshot.ID
		}
		return nil
	}
	result.Status = domain.RunRecorded
	result.PriceID = snapshot.ID
	log.Printf("recorded price snapshot id=%d price=%s change=%.2f%%", snapshot.ID, snapshot.Price, snapshot.PercentChange)

	var lastNewsAt *time.Time
	if lastNews != nil {
		ts := lastNews.Timestamp
		lastNewsAt = &ts
	}
	decision := o.policy.Decide(quote.PercentChange, lastNewsAt, now)
	result.Decision = &decision

	titles, err := o.loadTitles(ctx, decision)
	if err != nil {
		log.Printf("load existing news titles: %v", err)
	}

	collections := o.collect(ctx, decision, titles, snapshot.ID)
	result.Sources = o.persist(ctx, decision, collections)
	return nil
}

func (o *Orchestrator) loadTitles(ctx context.Context, decision domain.IngestionDecision) (domain.TitleSet, error) {
	needed := false
	for _, n := range decision.Required {
		if n > 0 {
			needed = true
			break
		}
	}
	if !needed {
		return domain.TitleSet{}, nil
	}
	titles, err := o.newsStore.ListTitles(ctx)
	if err != nil {
		return domain.TitleSet{}, err
	}
	return domain.NewTitleSet(titles), nil
}

// collect runs every source with a non-zero requirement concurrently. existing is shared read-only.
func (o *Orchestrator) collect(ctx context.Context, decision domain.IngestionDecision, existing domain.TitleSet, priceID int64) []Collection {
	collections := make([]Collection, len(o.sources))

	var g errgroup.Group
	for i, src := range o.sources {
		required := decision.Required[src.SourceType()]
		if required <= 0 {
			continue
		}
		g.Go(func() error {
			collections[i] = o.collector.Collect(ctx, src, required, existing, priceID)
			return nil
		})
	}
	_ = g.Wait()
	return collections
}

// persist writes each source's records in source order. Titles already taken by an earlier source
// in this cycle are dropped; a failed insert is recorded and does not affect other sources.
func (o *Orchestrator) persist(ctx context.Context, decision domain.IngestionDecision, collections []Collection) []domain.SourceOutcome {
	outcomes := make([]domain.SourceOutcome, 0, len(o.sources))
	claimed := make(map[string]struct{})

	for i, src := range o.sources {
		col := collections[i]
		outcome := domain.SourceOutcome{
			SourceType: src.SourceType(),
			Required:   decision.Required[src.SourceType()],
			Collected:  len(col.Records),
		}
		if col.Err != nil {
			outcome.Error = col.Err.Error()
		}

		records := make([]domain.NewsRecord, 0, len(col.Records))
		for _, rec := range col.Records {
			if _, dup := claimed[rec.Title]; dup {
				outcome.Duplicates++
				continue
			}
			claimed[rec.Title] = struct{}{}
			records = append(records, rec)
		}

		if len(records) > 0 {
			inserted, dups, err := o.newsStore.InsertNews(ctx, records)
			if err != nil {
				perr := domain.NewIngestionError(domain.KindPersistence, "insert "+string(src.SourceType())+" news", err)
				log.Printf("%v", perr)
				outcome.Error = perr.Error()
			}
			outcome.Inserted = len(inserted)
			outcome.Duplicates += dups
			log.Printf("inserted %d %s news articles (%d duplicates skipped)", outcome.Inserted, src.SourceType(), outcome.Duplicates)
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

func (o *Orchestrator) remember(ctx context.Context, result domain.IngestionResult) {
	o.mu.Lock()
	o.last = &result
	o.mu.Unlock()

	if o.results != nil {
		if err := o.results.StoreResult(ctx, result); err != nil {
			log.Printf("cache ingestion result: %v", err)
		}
	}
}

// LastResult returns the most recent cycle result, preferring the shared cache.
func (o *Orchestrator) LastResult(ctx context.Context) (*domain.IngestionResult, error) {
	if o.results != nil {
		cached, err := o.results.LoadResult(ctx)
		if err != nil {
			log.Printf("read cached ingestion result: %v", err)
		}
		if cached != nil {
			return cached, nil
		}
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.last == nil {
		return nil, nil
	}
	cp := *o.last
	return &cp, nil
}

func asIngestionError(err error, kind domain.ErrorKind, message string) *domain.IngestionError {
	var ie *domain.IngestionError
	if errors.As(err, &ie) {
		return ie
	}
	return domain.NewIngestionError(kind, message, err)
}
