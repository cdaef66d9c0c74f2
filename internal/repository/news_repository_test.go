package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"btc-news-timeline/internal/domain"

	"github.com/jackc/pgx/v5"
)

func TestLatestNewsEmptyTable(t *testing.T) {
	repo := NewNewsRepository(&fakePool{}, testTracer)

	rec, err := repo.LatestNews(context.Background())
	if err != nil || rec != nil {
		t.Fatalf("expected nil record and no error, got %+v / %v", rec, err)
	}
}

func TestLatestNewsMapsLabels(t *testing.T) {
	at := time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC)
	pool := &fakePool{rows: []fakeRow{{values: []any{
		int64(9), int64(2), "Bitcoin surges", "body", "desc", "Reuters", "https://example.com/a", at, "mystery", "crypto",
	}}}}
	repo := NewNewsRepository(pool, testTracer)

	rec, err := repo.LatestNews(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.ID != 9 || rec.PriceID != 2 || rec.Title != "Bitcoin surges" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.Sentiment != domain.SentimentNone || rec.SourceType != domain.SourceCrypto {
		t.Fatalf("unexpected labels: %s / %s", rec.Sentiment, rec.SourceType)
	}
}

func TestListTitles(t *testing.T) {
	pool := &fakePool{queryRows: [][]any{{"A"}, {"B"}}}
	repo := NewNewsRepository(pool, testTracer)

	titles, err := repo.ListTitles(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(titles) != 2 || titles[0] != "A" || titles[1] != "B" {
		t.Fatalf("unexpected titles: %v", titles)
	}
}

func TestInsertNewsCountsDuplicates(t *testing.T) {
	pool := &fakePool{batch: []fakeRow{
		{values: []any{int64(11)}},
		{err: pgx.ErrNoRows},
		{values: []any{int64(12)}},
	}}
	repo := NewNewsRepository(pool, testTracer)

	records := []domain.NewsRecord{
		{PriceID: 4, Title: "one", Sentiment: domain.SentimentPositive, SourceType: domain.SourceGlobal},
		{PriceID: 4, Title: "already stored", SourceType: domain.SourceGlobal},
		{PriceID: 4, Title: "three", SourceType: domain.SourceGlobal},
	}
	inserted, dups, err := repo.InsertNews(context.Background(), records)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dups != 1 || len(inserted) != 2 {
		t.Fatalf("expected 2 inserted and 1 duplicate, got %d / %d", len(inserted), dups)
	}
	if inserted[0].ID != 11 || inserted[1].ID != 12 || inserted[1].Title != "three" {
		t.Fatalf("unexpected inserted rows: %+v", inserted)
	}
	if pool.batches[0].Len() != 3 {
		t.Fatalf("expected one queued statement per record, got %d", pool.batches[0].Len())
	}
}

func TestInsertNewsStopsOnError(t *testing.T) {
	pool := &fakePool{batch: []fakeRow{
		{values: []any{int64(1)}},
		{err: errors.New("fk violation")},
	}}
	repo := NewNewsRepository(pool, testTracer)

	inserted, _, err := repo.InsertNews(context.Background(), []domain.NewsRecord{
		{Title: "a", SourceType: domain.SourceCrypto},
		{Title: "b", SourceType: domain.SourceCrypto},
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(inserted) != 1 {
		t.Fatalf("expected rows written before the failure to be reported, got %d", len(inserted))
	}
}

func TestInsertNewsRejectsUnknownSourceType(t *testing.T) {
	pool := &fakePool{}
	repo := NewNewsRepository(pool, testTracer)

	_, _, err := repo.InsertNews(context.Background(), []domain.NewsRecord{
		{Title: "a", SourceType: domain.SourceGlobal},
		{Title: "b", SourceType: "sports"},
	})
	if err == nil {
		t.Fatal("expected error for unknown source type")
	}
	if len(pool.batches) != 0 {
		t.Fatal("nothing should be written when a record is invalid")
	}
}

func TestInsertNewsEmptyIsNoop(t *testing.T) {
	pool := &fakePool{}
	repo := NewNewsRepository(pool, testTracer)

	if _, _, err := repo.InsertNews(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pool.batches) != 0 {
		t.Fatal("expected no batch for empty input")
	}
}

func TestListNewsByPriceID(t *testing.T) {
	at := time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC)
	pool := &fakePool{queryRows: [][]any{
		{int64(1), int64(5), "t", "c", "d", "s", "u", at, "negative", "global"},
	}}
	repo := NewNewsRepository(pool, testTracer)

	records, err := repo.ListNewsByPriceID(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 || records[0].Sentiment != domain.SentimentNegative || pool.queries[0].args[0] != int64(5) {
		t.Fatalf("unexpected result: %+v", records)
	}
}
