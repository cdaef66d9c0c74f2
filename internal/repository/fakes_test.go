package repository

import (
	"context"
	"fmt"
	"reflect"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

type queryCall struct {
	sql  string
	args []any
}

type fakePool struct {
	rows      []fakeRow
	queryRows [][]any
	batch     []fakeRow

	queries []queryCall
	batches []*pgx.Batch
}

func (p *fakePool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (p *fakePool) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	p.batches = append(p.batches, b)
	return &fakeBatchResults{rows: p.batch}
}

func (p *fakePool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	p.queries = append(p.queries, queryCall{sql: sql, args: args})
	return &fakeRows{values: p.queryRows, idx: -1}, nil
}

func (p *fakePool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	p.queries = append(p.queries, queryCall{sql: sql, args: args})
	if len(p.rows) == 0 {
		return fakeRow{err: pgx.ErrNoRows}
	}
	row := p.rows[0]
	p.rows = p.rows[1:]
	return row
}

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(r.values, dest)
}

func assign(values, dest []any) error {
	if len(values) != len(dest) {
		return fmt.Errorf("scan: %d values into %d targets", len(values), len(dest))
	}
	for i, v := range values {
		reflect.ValueOf(dest[i]).Elem().Set(reflect.ValueOf(v))
	}
	return nil
}

type fakeBatchResults struct {
	rows []fakeRow
}

func (b *fakeBatchResults) Exec() (pgconn.CommandTag, error) { return pgconn.CommandTag{}, nil }

func (b *fakeBatchResults) Query() (pgx.Rows, error) { return nil, fmt.Errorf("not implemented") }

func (b *fakeBatchResults) QueryRow() pgx.Row {
	if len(b.rows) == 0 {
		return fakeRow{err: fmt.Errorf("no more batch results")}
	}
	row := b.rows[0]
	b.rows = b.rows[1:]
	return row
}

func (b *fakeBatchResults) Close() error { return nil }

type fakeRows struct {
	values [][]any
	idx    int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return r.values[r.idx], nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	r.idx++
	return r.idx < len(r.values)
}

func (r *fakeRows) Scan(dest ...any) error {
	return assign(r.values[r.idx], dest)
}
