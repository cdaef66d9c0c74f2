package repository

import (
	"context"
	"errors"
	"fmt"

	"btc-news-timeline/internal/domain"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const newsColumns = `id, price_id, title, content, description, source, url, published_at, sentiment, source_type`

type NewsRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewNewsRepository(pool PgxPool, tracer trace.Tracer) *NewsRepository {
	return &NewsRepository{pool: pool, tracer: tracer}
}

// LatestNews returns the most recently published record, or nil when the table is empty.
func (r *NewsRepository) LatestNews(ctx context.Context) (*domain.NewsRecord, error) {
	ctx, span := r.tracer.Start(ctx, "news-repo.latest-news")
	defer span.End()

	row := r.pool.QueryRow(ctx,
		`SELECT `+newsColumns+`
		 FROM news_events
		 ORDER BY published_at DESC, id DESC
		 LIMIT 1`)
	rec, err := scanNews(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select latest news: %w", err)
	}
	return rec, nil
}

func (r *NewsRepository) ListTitles(ctx context.Context) ([]string, error) {
	ctx, span := r.tracer.Start(ctx, "news-repo.list-titles")
	defer span.End()

	rows, err := r.pool.Query(ctx, `SELECT DISTINCT title FROM news_events`)
	if err != nil {
		return nil, fmt.Errorf("list news titles: %w", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, err
		}
		titles = append(titles, title)
	}
	span.SetAttributes(attribute.Int("titles", len(titles)))
	return titles, rows.Err()
}

// InsertNews writes records in order, skipping any whose title is already stored.
// It returns the written rows with their ids and the number skipped.
func (r *NewsRepository) InsertNews(ctx context.Context, records []domain.NewsRecord) ([]domain.NewsRecord, int, error) {
	if len(records) == 0 {
		return nil, 0, nil
	}
	for _, rec := range records {
		if !rec.SourceType.IsValid() {
			return nil, 0, fmt.Errorf("insert news %q: unknown source type %q", rec.Title, rec.SourceType)
		}
	}
	ctx, span := r.tracer.Start(ctx, "news-repo.insert-news")
	defer span.End()

	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(`
INSERT INTO news_events (price_id, title, content, description, source, url, published_at, sentiment, source_type)
SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9
WHERE NOT EXISTS (SELECT 1 FROM news_events WHERE title = $2)
RETURNING id`,
			rec.PriceID, rec.Title, rec.Content, rec.Description, rec.Source, rec.URL,
			rec.Timestamp, string(rec.Sentiment), string(rec.SourceType),
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	inserted := make([]domain.NewsRecord, 0, len(records))
	duplicates := 0
	for _, rec := range records {
		var id int64
		err := br.QueryRow().Scan(&id)
		if errors.Is(err, pgx.ErrNoRows) {
			duplicates++
			continue
		}
		if err != nil {
			return inserted, duplicates, fmt.Errorf("insert news %q: %w", rec.Title, err)
		}
		rec.ID = id
		inserted = append(inserted, rec)
	}
	span.SetAttributes(attribute.Int("inserted", len(inserted)), attribute.Int("duplicates", duplicates))
	return inserted, duplicates, nil
}

// ListNewsByPriceID returns the records attached to one snapshot, newest first.
func (r *NewsRepository) ListNewsByPriceID(ctx context.Context, priceID int64) ([]domain.NewsRecord, error) {
	ctx, span := r.tracer.Start(ctx, "news-repo.list-by-price-id")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT `+newsColumns+`
		 FROM news_events
		 WHERE price_id = $1
		 ORDER BY published_at DESC, id DESC`,
		priceID,
	)
	if err != nil {
		return nil, fmt.Errorf("list news for price %d: %w", priceID, err)
	}
	defer rows.Close()

	var records []domain.NewsRecord
	for rows.Next() {
		rec, err := scanNews(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func scanNews(row pgx.Row) (*domain.NewsRecord, error) {
	var (
		rec        domain.NewsRecord
		sentiment  string
		sourceType string
	)
	if err := row.Scan(&rec.ID, &rec.PriceID, &rec.Title, &rec.Content, &rec.Description,
		&rec.Source, &rec.URL, &rec.Timestamp, &sentiment, &sourceType); err != nil {
		return nil, err
	}
	rec.Timestamp = rec.Timestamp.UTC()
	rec.Sentiment = domain.ParseSentiment(sentiment)
	rec.SourceType = domain.SourceType(sourceType)
	return &rec, nil
}
