// Package dedup filters discovered leads against the leads already persisted,
// using one bulk membership check per batch.
package dedup

import (
	"context"
	"fmt"
	"log/slog"

	"autopress/internal/logging"
	"autopress/internal/store"
)

// URLSource provides the set of lead URLs already known to the store.
type URLSource interface {
	ExistingURLs(ctx context.Context) (map[string]struct{}, error)
}

// Deduplicator removes already-seen and repeated URLs from a discovery batch.
type Deduplicator struct {
	source URLSource
	logger *slog.Logger
}

// New constructs a Deduplicator backed by the given URL source.
func New(source URLSource, logger *slog.Logger) *Deduplicator {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Deduplicator{
		source: source,
		logger: logger.With(logging.String(logging.FieldComponent, "dedup")),
	}
}

// FilterNew returns the candidates whose URLs are neither persisted nor
// repeated earlier in the same batch. The store is queried exactly once;
// candidate order is preserved.
func (d *Deduplicator) FilterNew(ctx context.Context, candidates []*store.Lead) ([]*store.Lead, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	existing, err := d.source.ExistingURLs(ctx)
	if err != nil {
		return nil, fmt.Errorf("load existing urls: %w", err)
	}

	seen := make(map[string]struct{}, len(candidates))
	fresh := make([]*store.Lead, 0, len(candidates))
	skipped := 0
	for _, candidate := range candidates {
		if candidate == nil || candidate.URL == "" {
			continue
		}
		if _, known := existing[candidate.URL]; known {
			skipped++
			d.logger.Debug("skipping known lead", logging.String("url", candidate.URL))
			continue
		}
		if _, repeated := seen[candidate.URL]; repeated {
			skipped++
			d.logger.Debug("skipping repeated lead in batch", logging.String("url", candidate.URL))
			continue
		}
		seen[candidate.URL] = struct{}{}
		fresh = append(fresh, candidate)
	}

	d.logger.Info("deduplicated discovery batch",
		logging.Int("candidates", len(candidates)),
		logging.Int("fresh", len(fresh)),
		logging.Int("skipped", skipped))
	return fresh, nil
}
