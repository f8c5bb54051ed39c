package health

import (
	"context"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolPing probes the PostgreSQL pool. Wired as the readiness check: when
// the database is gone the API cannot serve a single request.
func PoolPing(pool *pgxpool.Pool) CheckFunc {
	return pool.Ping
}

// GoroutineCount fails once the process holds more goroutines than limit.
// Catches leaks in the poller and per-request goroutines.
func GoroutineCount(limit int) CheckFunc {
	return func(_ context.Context) error {
		if n := runtime.NumGoroutine(); n > limit {
			return errors.Errorf("%d goroutines, limit %d", n, limit)
		}
		return nil
	}
}

// GCMaxPause fails when any observed stop-the-world pause exceeded limit,
// a sign the heap has grown past what the pod can serve from.
func GCMaxPause(limit time.Duration) CheckFunc {
	return func(_ context.Context) error {
		var stats debug.GCStats
		debug.ReadGCStats(&stats)
		for _, pause := range stats.Pause {
			if pause > limit {
				return errors.Errorf("GC pause %s, limit %s", pause, limit)
			}
		}
		return nil
	}
}
