// Package dedup removes already persisted URLs from a discovery result.
package dedup

import (
	"context"
	"log/slog"
)

// DefaultBatchSize bounds the number of URLs in one existence query.
const DefaultBatchSize = 50

// Store answers which of a batch of URLs are already persisted.
type Store interface {
	Existing(ctx context.Context, urls []string) (map[string]struct{}, error)
}

// Deduplicator filters URLs against a Store in bounded batches.
type Deduplicator struct {
	store     Store
	batchSize int
	logger    *slog.Logger
}

// Option configures a Deduplicator.
type Option func(*Deduplicator)

// WithBatchSize sets the batch size. Values below 1 are ignored.
func WithBatchSize(n int) Option {
	return func(d *Deduplicator) {
		if n >= 1 {
			d.batchSize = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Deduplicator) {
		d.logger = logger
	}
}

// New creates a Deduplicator backed by store.
func New(store Store, opts ...Option) *Deduplicator {
	d := &Deduplicator{
		store:     store,
		batchSize: DefaultBatchSize,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// FilterNew returns the URLs of urls that are not yet persisted, in input
// order. Repeated URLs are kept only at their first position.
//
// A batch whose query fails is logged and skipped: none of its URLs are
// marked as existing, so they are returned as new. The store's uniqueness
// constraint rejects the duplicate insert if one of them was persisted after all.
// Only cancellation of ctx is returned as an error.
func (d *Deduplicator) FilterNew(ctx context.Context, urls []string) ([]string, error) {
	if len(urls) == 0 {
		return []string{}, nil
	}

	existing := make(map[string]struct{}, len(urls))
	failedBatches := 0

	for start := 0; start < len(urls); start += d.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := min(start+d.batchSize, len(urls))
		found, err := d.store.Existing(ctx, urls[start:end])
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			failedBatches++
			d.logger.Error("url existence check failed, batch skipped",
				"batch_start", start,
				"batch_size", end-start,
				"error", err,
			)
			continue
		}
		for u := range found {
			existing[u] = struct{}{}
		}
	}

	fresh := make([]string, 0, len(urls))
	seen := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		if _, ok := existing[u]; ok {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		fresh = append(fresh, u)
	}

	d.logger.Info("url existence check finished",
		"total", len(urls),
		"existing", len(existing),
		"new", len(fresh),
		"failed_batches", failedBatches,
	)

	return fresh, nil
}
