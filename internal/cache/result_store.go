package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"btc-news-timeline/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

const (
	LastResultKey = "ingest:last_result"
	lastResultTTL = 7 * 24 * time.Hour
)

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// ResultStore keeps the most recent ingestion result so any replica can report it.
type ResultStore struct {
	client RedisClient
	tracer trace.Tracer
}

func NewResultStore(client RedisClient, tracer trace.Tracer) *ResultStore {
	return &ResultStore{client: client, tracer: tracer}
}

func (s *ResultStore) StoreResult(ctx context.Context, result domain.IngestionResult) error {
	ctx, span := s.tracer.Start(ctx, "cache.result-store.store")
	defer span.End()

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal ingestion result: %w", err)
	}
	return s.client.Set(ctx, LastResultKey, data, lastResultTTL).Err()
}

// LoadResult returns nil without error when nothing has been stored.
func (s *ResultStore) LoadResult(ctx context.Context) (*domain.IngestionResult, error) {
	ctx, span := s.tracer.Start(ctx, "cache.result-store.load")
	defer span.End()

	data, err := s.client.Get(ctx, LastResultKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var result domain.IngestionResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode cached ingestion result: %w", err)
	}
	return &result, nil
}
