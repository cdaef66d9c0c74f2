package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"btc-news-timeline/internal/domain"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const snapshotColumns = `id, price, percent_change, recorded_at`

type PriceRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewPriceRepository(pool PgxPool, tracer trace.Tracer) *PriceRepository {
	return &PriceRepository{pool: pool, tracer: tracer}
}

// LatestSnapshot returns nil when no snapshot has been recorded yet.
func (r *PriceRepository) LatestSnapshot(ctx context.Context) (*domain.PriceSnapshot, error) {
	ctx, span := r.tracer.Start(ctx, "price-repo.latest-snapshot")
	defer span.End()

	row := r.pool.QueryRow(ctx,
		`SELECT `+snapshotColumns+`
		 FROM bitcoin_prices
		 ORDER BY recorded_at DESC, id DESC
		 LIMIT 1`)
	snap, err := scanSnapshot(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select latest price snapshot: %w", err)
	}
	return snap, nil
}

// InsertSnapshotIfNewDay writes the snapshot unless one already exists for the same UTC date.
// When it does not write, it returns the existing snapshot for that date and false.
func (r *PriceRepository) InsertSnapshotIfNewDay(ctx context.Context, snapshot domain.PriceSnapshot) (*domain.PriceSnapshot, bool, error) {
	ctx, span := r.tracer.Start(ctx, "price-repo.insert-snapshot")
	defer span.End()

	recordedAt := snapshot.Timestamp.UTC()
	row := r.pool.QueryRow(ctx,
		`INSERT INTO bitcoin_prices (price, percent_change, recorded_at)
		 SELECT $1, $2, $3
		 WHERE NOT EXISTS (
		     SELECT 1 FROM bitcoin_prices
		     WHERE (recorded_at AT TIME ZONE 'UTC')::date = $4::date
		 )
		 RETURNING `+snapshotColumns,
		snapshot.Price, snapshot.PercentChange, recordedAt, snapshot.Date().Format(time.DateOnly),
	)
	inserted, err := scanSnapshot(row)
	switch {
	case err == nil:
		span.SetAttributes(attribute.Int64("price_id", inserted.ID))
		return inserted, true, nil
	case errors.Is(err, pgx.ErrNoRows), isUniqueViolation(err):
		existing, lookupErr := r.SnapshotOn(ctx, recordedAt)
		if lookupErr != nil {
			return nil, false, lookupErr
		}
		return existing, false, nil
	default:
		return nil, false, fmt.Errorf("insert price snapshot: %w", err)
	}
}

// SnapshotOn returns the snapshot recorded on the UTC date of day, or nil.
func (r *PriceRepository) SnapshotOn(ctx context.Context, day time.Time) (*domain.PriceSnapshot, error) {
	ctx, span := r.tracer.Start(ctx, "price-repo.snapshot-on")
	defer span.End()

	row := r.pool.QueryRow(ctx,
		`SELECT `+snapshotColumns+`
		 FROM bitcoin_prices
		 WHERE (recorded_at AT TIME ZONE 'UTC')::date = $1::date
		 ORDER BY recorded_at ASC
		 LIMIT 1`,
		day.UTC().Format(time.DateOnly),
	)
	snap, err := scanSnapshot(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select price snapshot for %s: %w", day.UTC().Format(time.DateOnly), err)
	}
	return snap, nil
}

// ListSnapshots returns snapshots recorded within [from, to], newest first.
func (r *PriceRepository) ListSnapshots(ctx context.Context, from, to time.Time) ([]domain.PriceSnapshot, error) {
	ctx, span := r.tracer.Start(ctx, "price-repo.list-snapshots")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT `+snapshotColumns+`
		 FROM bitcoin_prices
		 WHERE recorded_at >= $1 AND recorded_at <= $2
		 ORDER BY recorded_at DESC`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("list price snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []domain.PriceSnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, *snap)
	}
	return snapshots, rows.Err()
}

func scanSnapshot(row pgx.Row) (*domain.PriceSnapshot, error) {
	s := &domain.PriceSnapshot{}
	if err := row.Scan(&s.ID, &s.Price, &s.PercentChange, &s.Timestamp); err != nil {
		return nil, err
	}
	s.Timestamp = s.Timestamp.UTC()
	return s, nil
}
