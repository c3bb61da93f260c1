package database

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/uptrace/bun"
)

// QueryHook logs bun queries. Failures are errors, queries slower than
// SlowThreshold are warnings and the rest go to debug.
type QueryHook struct {
	SlowThreshold time.Duration
}

var _ bun.QueryHook = (*QueryHook)(nil)

func (h *QueryHook) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *QueryHook) AfterQuery(_ context.Context, event *bun.QueryEvent) {
	took := time.Since(event.StartTime)
	attrs := []any{
		slog.String("type", "db"),
		slog.String("operation", event.Operation()),
		slog.String("query", event.Query),
		slog.Duration("took", took),
	}

	switch {
	case event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows):
		slog.Error("Query failed", append(attrs, slog.Any("error", event.Err))...)
	case h.SlowThreshold > 0 && took > h.SlowThreshold:
		slog.Warn("Slow query", attrs...)
	default:
		if event.Result != nil {
			if n, err := event.Result.RowsAffected(); err == nil {
				attrs = append(attrs, slog.Int64("affected_rows", n))
			}
		}
		slog.Debug("Query executed", attrs...)
	}
}
