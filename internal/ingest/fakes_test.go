package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"btc-news-timeline/internal/domain"
	"btc-news-timeline/internal/provider"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

type fakeSource struct {
	st   domain.SourceType
	page func(call, pageSize int) ([]domain.NewsRecord, error)

	mu        sync.Mutex
	pageSizes []int
}

func (f *fakeSource) SourceType() domain.SourceType { return f.st }

func (f *fakeSource) Endpoint() string { return "fake://" + string(f.st) }

// FetchPage mirrors the adapter contract: titles in existing are filtered, records are tagged.
func (f *fakeSource) FetchPage(ctx context.Context, pageSize int, existing domain.TitleSet, priceID int64) ([]domain.NewsRecord, error) {
	f.mu.Lock()
	f.pageSizes = append(f.pageSizes, pageSize)
	call := len(f.pageSizes)
	f.mu.Unlock()

	page, err := f.page(call, pageSize)
	if err != nil {
		return nil, err
	}
	out := make([]domain.NewsRecord, 0, len(page))
	for _, rec := range page {
		if existing.Contains(rec.Title) {
			continue
		}
		rec.PriceID = priceID
		rec.SourceType = f.st
		out = append(out, rec)
	}
	return out, nil
}

func (f *fakeSource) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pageSizes)
}

// infiniteSource returns pageSize never-repeating titles per call.
func infiniteSource(st domain.SourceType) *fakeSource {
	return &fakeSource{st: st, page: func(call, pageSize int) ([]domain.NewsRecord, error) {
		out := make([]domain.NewsRecord, pageSize)
		for i := range out {
			out[i] = domain.NewsRecord{Title: fmt.Sprintf("%s-%d-%d", st, call, i), Timestamp: time.Now()}
		}
		return out, nil
	}}
}

// fixedSource returns the first pageSize titles of a fixed list, so pages overlap.
func fixedSource(st domain.SourceType, titles ...string) *fakeSource {
	return &fakeSource{st: st, page: func(call, pageSize int) ([]domain.NewsRecord, error) {
		n := min(pageSize, len(titles))
		out := make([]domain.NewsRecord, n)
		for i := 0; i < n; i++ {
			out[i] = domain.NewsRecord{Title: titles[i]}
		}
		return out, nil
	}}
}

func failingSource(st domain.SourceType, err error) *fakeSource {
	return &fakeSource{st: st, page: func(int, int) ([]domain.NewsRecord, error) { return nil, err }}
}

type fakePrices struct {
	quote *provider.PriceQuote
	err   error
	calls int
}

func (f *fakePrices) FetchBitcoinQuote(ctx context.Context) (*provider.PriceQuote, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	q := *f.quote
	return &q, nil
}

func quote(price string, change float64) *fakePrices {
	return &fakePrices{quote: &provider.PriceQuote{Price: decimal.RequireFromString(price), PercentChange: change}}
}

type memPriceStore struct {
	mu        sync.Mutex
	snapshots []domain.PriceSnapshot
	latestErr error
	insertErr error
}

func (m *memPriceStore) LatestSnapshot(ctx context.Context) (*domain.PriceSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.latestErr != nil {
		return nil, m.latestErr
	}
	var latest *domain.PriceSnapshot
	for i := range m.snapshots {
		if latest == nil || m.snapshots[i].Timestamp.After(latest.Timestamp) {
			s := m.snapshots[i]
			latest = &s
		}
	}
	return latest, nil
}

func (m *memPriceStore) InsertSnapshotIfNewDay(ctx context.Context, snap domain.PriceSnapshot) (*domain.PriceSnapshot, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return nil, false, m.insertErr
	}
	for _, existing := range m.snapshots {
		if domain.SameUTCDate(existing.Timestamp, snap.Timestamp) {
			e := existing
			return &e, false, nil
		}
	}
	snap.ID = int64(len(m.snapshots) + 1)
	m.snapshots = append(m.snapshots, snap)
	return &snap, true, nil
}

type memNewsStore struct {
	mu        sync.Mutex
	records   []domain.NewsRecord
	insertErr error
	inserts   int
}

func (m *memNewsStore) LatestNews(ctx context.Context) (*domain.NewsRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *domain.NewsRecord
	for i := range m.records {
		if latest == nil || m.records[i].Timestamp.After(latest.Timestamp) {
			r := m.records[i]
			latest = &r
		}
	}
	return latest, nil
}

func (m *memNewsStore) ListTitles(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	titles := make([]string, 0, len(m.records))
	for _, r := range m.records {
		titles = append(titles, r.Title)
	}
	return titles, nil
}

func (m *memNewsStore) InsertNews(ctx context.Context, records []domain.NewsRecord) ([]domain.NewsRecord, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserts++
	if m.insertErr != nil {
		return nil, 0, m.insertErr
	}
	var inserted []domain.NewsRecord
	dups := 0
	for _, rec := range records {
		exists := false
		for _, r := range m.records {
			if r.Title == rec.Title {
				exists = true
				break
			}
		}
		if exists {
			dups++
			continue
		}
		rec.ID = int64(len(m.records) + 1)
		m.records = append(m.records, rec)
		inserted = append(inserted, rec)
	}
	return inserted, dups, nil
}

func (m *memNewsStore) titlesByPrice(priceID int64) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, r := range m.records {
		if r.PriceID == priceID {
			out = append(out, r.Title)
		}
	}
	return out
}

type stubLock struct {
	acquired bool
	err      error
	released int
}

func (s *stubLock) TryAcquire(ctx context.Context) (func(), bool, error) {
	if s.err != nil {
		return nil, false, s.err
	}
	if !s.acquired {
		return nil, false, nil
	}
	return func() { s.released++ }, true, nil
}

type memResultCache struct {
	stored *domain.IngestionResult
	err    error
}

func (m *memResultCache) StoreResult(ctx context.Context, result domain.IngestionResult) error {
	if m.err != nil {
		return m.err
	}
	m.stored = &result
	return nil
}

func (m *memResultCache) LoadResult(ctx context.Context) (*domain.IngestionResult, error) {
	return m.stored, m.err
}

var errBoom = errors.New("boom")
