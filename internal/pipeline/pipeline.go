// Package pipeline drives dataset refreshes: an initial load at startup,
// periodic reloads, and on-demand refreshes triggered over HTTP.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/hydroviz/hydro-data-prep/internal/domain"
	"github.com/hydroviz/hydro-data-prep/internal/observability"
)

// Store is the cached table store a refresher drives. Invalidate forces the
// next Load to re-read the source.
type Store interface {
	Load(ctx context.Context, source string) (domain.Table, error)
	Invalidate(source string)
}

// Sink receives the cleaned rows of a freshly loaded table. Implementations
// must tolerate repeated delivery of the same rows across refreshes.
type Sink interface {
	Publish(ctx context.Context, table domain.Table) error
}

// Refresher keeps the dataset warm. Each cycle invalidates the cache entry
// for the configured source, reloads it, and hands the fresh table to the
// sink when one is configured.
type Refresher struct {
	store    Store
	sink     Sink
	source   string
	interval time.Duration
	logger   *slog.Logger
	metrics  *observability.Metrics
	ready    atomic.Bool
}

// New creates a Refresher. A nil sink disables publishing. An interval of
// zero loads once at startup and then refreshes only on demand.
func New(store Store, sink Sink, source string, interval time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Refresher {
	return &Refresher{
		store:    store,
		sink:     sink,
		source:   source,
		interval: interval,
		logger:   logger,
		metrics:  metrics,
	}
}

// CheckReadiness returns nil once at least one load has succeeded, or an
// error describing why the service is not yet ready.
func (r *Refresher) CheckReadiness(_ context.Context) error {
	if !r.ready.Load() {
		return errors.New("dataset has not been loaded yet")
	}
	return nil
}

// Refresh runs one refresh cycle: invalidate, reload, publish. Publishing
// failures are reported through logs and metrics but do not fail the
// refresh; the reloaded table is already live for readers.
func (r *Refresher) Refresh(ctx context.Context) (domain.Table, error) {
	start := time.Now()

	r.store.Invalidate(r.source)
	table, err := r.store.Load(ctx, r.source)
	if err != nil {
		return domain.Table{}, err
	}

	r.ready.Store(true)
	r.metrics.RefreshDuration.Observe(time.Since(start).Seconds())

	if r.sink != nil {
		if err := r.sink.Publish(ctx, table); err != nil {
			r.logger.Warn("publish failed", "error", err, "refresh_id", table.RefreshID)
			r.metrics.PublishErrors.Inc()
		} else {
			r.metrics.RecordsPublished.Add(float64(len(table.Rows)))
		}
	}

	return table, nil
}

// Exponential backoff: start at 500ms, double each retry, cap at 30s.
// Avoids hammering the dataset host while it is unavailable.
const (
	baseBackoff = 500 * time.Millisecond
	maxBackoff  = 30 * time.Second
)

// Run executes the refresh loop until the context is cancelled.
func (r *Refresher) Run(ctx context.Context) error {
	r.logger.Info("refresher started", "source", r.source, "interval", r.interval)
	r.metrics.RefreshRunning.Set(1)
	defer r.metrics.RefreshRunning.Set(0)

	backoff := baseBackoff
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("refresher stopping", "reason", ctx.Err())
			return nil
		default:
		}

		if !r.refreshOrBackoff(ctx, &backoff) {
			r.logger.Info("refresher stopping", "reason", ctx.Err())
			return nil
		}
	}
}

// refreshOrBackoff runs one cycle and waits for the next: the backoff delay
// after a failure, the configured interval after a success. Returns false if
// the refresher should stop.
func (r *Refresher) refreshOrBackoff(ctx context.Context, backoff *time.Duration) bool {
	if _, err := r.Refresh(ctx); err != nil {
		if ctx.Err() != nil {
			return false
		}
		r.logger.Error("refresh failed", "error", err, "retry_in", *backoff)
		if !sleepWithContext(ctx, *backoff) {
			return false
		}
		*backoff = nextBackoff(*backoff, maxBackoff)
		return true
	}
	*backoff = baseBackoff

	if r.interval <= 0 {
		<-ctx.Done()
		return false
	}
	return sleepWithContext(ctx, r.interval)
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
