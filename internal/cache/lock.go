package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
)

const (
	IngestLockKey        = "ingest:lock"
	DefaultIngestLockTTL = 10 * time.Minute
	releaseTimeout       = 5 * time.Second
)

// releaseScript deletes the key only if it still holds our token.
const releaseScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

type LockClient interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// RunLock is a best-effort cross-process mutex held for at most ttl.
type RunLock struct {
	client LockClient
	tracer trace.Tracer
	key    string
	ttl    time.Duration
	token  func() string
}

func NewRunLock(client LockClient, tracer trace.Tracer, ttl time.Duration) *RunLock {
	if ttl <= 0 {
		ttl = DefaultIngestLockTTL
	}
	return &RunLock{
		client: client,
		tracer: tracer,
		key:    IngestLockKey,
		ttl:    ttl,
		token:  func() string { return uuid.NewString() },
	}
}

func (l *RunLock) TryAcquire(ctx context.Context) (func(), bool, error) {
	ctx, span := l.tracer.Start(ctx, "cache.run-lock.acquire")
	defer span.End()

	token := l.token()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire %s: %w", l.key, err)
	}
	if !ok {
		return nil, false, nil
	}

	release := func() {
		rctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
		defer cancel()
		if err := l.client.Eval(rctx, releaseScript, []string{l.key}, token).Err(); err != nil {
			log.Printf("release %s: %v", l.key, err)
		}
	}
	return release, true, nil
}
