// Package discovery polls configured feeds and turns their newest entries
// into lead candidates.
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"autopress/internal/config"
	"autopress/internal/logging"
	"autopress/internal/store"
)

// Discoverer fetches configured feeds and maps entries to lead candidates.
type Discoverer struct {
	cfg    *config.Config
	client *resty.Client
	logger *slog.Logger
}

// New constructs a Discoverer from the discovery configuration.
func New(cfg *config.Config, logger *slog.Logger) *Discoverer {
	if logger == nil {
		logger = logging.NewNop()
	}
	timeout := time.Duration(cfg.Discovery.FetchTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Discoverer{
		cfg: cfg,
		client: resty.New().
			SetTimeout(timeout).
			SetRetryCount(2).
			SetRetryWaitTime(2 * time.Second).
			SetHeader("User-Agent", "autopress/1.0"),
		logger: logger.With(logging.String(logging.FieldComponent, "discovery")),
	}
}

// Discover fetches every configured feed and returns lead candidates, newest
// entry first per feed, capped at max_leads_per_batch. A failing feed is
// logged and skipped; only a fully empty run with errors returns an error.
func (d *Discoverer) Discover(ctx context.Context) ([]*store.Lead, error) {
	feeds := d.cfg.Discovery.Feeds
	if len(feeds) == 0 {
		d.logger.Warn("no feeds configured")
		return nil, nil
	}

	limit := d.cfg.Discovery.MaxLeadsPerBatch
	if limit <= 0 {
		limit = len(feeds)
	}

	var (
		candidates []*store.Lead
		lastErr    error
	)
	for _, feed := range feeds {
		entry, err := d.newestEntry(ctx, feed)
		if err != nil {
			lastErr = err
			d.logger.Warn("feed fetch failed",
				logging.String("feed", feed.Name),
				logging.Error(err))
			continue
		}
		if entry == nil {
			d.logger.Debug("feed had no entries", logging.String("feed", feed.Name))
			continue
		}

		candidates = append(candidates, &store.Lead{
			URL:         entry.URL,
			Title:       entry.Title,
			Source:      feed.Name,
			Summary:     entry.Summary,
			PublishedAt: entry.Published,
			Score:       feed.Score,
			Status:      store.StatusDiscovered,
		})
		if len(candidates) >= limit {
			break
		}
	}

	if len(candidates) == 0 && lastErr != nil {
		return nil, fmt.Errorf("all feeds failed: %w", lastErr)
	}

	d.logger.Info("discovery complete",
		logging.Int("feeds", len(feeds)),
		logging.Int("candidates", len(candidates)))
	return candidates, nil
}

// newestEntry fetches one feed and picks the entry with the latest published
// time, falling back to the first entry when timestamps are absent.
func (d *Discoverer) newestEntry(ctx context.Context, feed config.FeedSource) (*feedEntry, error) {
	resp, err := d.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml").
		Get(feed.URL)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", feed.URL, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("feed %s returned status %d", feed.URL, resp.StatusCode())
	}

	entries, err := parseFeed(resp.Body())
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feed.URL, err)
	}

	var newest *feedEntry
	for i := range entries {
		entry := &entries[i]
		if entry.URL == "" || entry.Title == "" {
			continue
		}
		if newest == nil {
			newest = entry
			continue
		}
		if entry.Published != nil && (newest.Published == nil || entry.Published.After(*newest.Published)) {
			newest = entry
		}
	}
	return newest, nil
}
