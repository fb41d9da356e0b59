// Package taxonomy maps category and tag names to WordPress term ids, backed
// by a JSON cache file so steady-state runs never touch the network.
package taxonomy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"autopress/internal/config"
	"autopress/internal/logging"
	"autopress/internal/services/wordpress"
)

// Map holds name → term id for both taxonomies. A zero id means the term is
// known by name but has no remote counterpart yet.
type Map struct {
	Categories map[string]int `json:"categories"`
	Tags       map[string]int `json:"tags"`
}

func defaultMap() *Map {
	return &Map{
		Categories: map[string]int{
			"Airline":      0,
			"Card":         0,
			"Hotel":        0,
			"Points":       0,
			"Travel":       0,
			"Status Match": 0,
		},
		Tags: map[string]int{
			"Aeroplan": 0,
			"United":   0,
			"Marriott": 0,
			"Hyatt":    0,
			"里程":       0,
			"积分":       0,
		},
	}
}

// Resolver loads the taxonomy map, fetching from WordPress only on a cold
// cache.
type Resolver struct {
	cfg       *config.Config
	cachePath string
	remote    *wordpress.Client
	logger    *slog.Logger
}

// NewResolver constructs a Resolver. The remote client is only used when the
// cache is cold and remote credentials are configured.
func NewResolver(cfg *config.Config, remote *wordpress.Client, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Resolver{
		cfg:       cfg,
		cachePath: cfg.TaxonomyCachePath(),
		remote:    remote,
		logger:    logger.With(logging.String(logging.FieldComponent, "taxonomy")),
	}
}

// Resolve returns the taxonomy map. Priority: warm cache verbatim with zero
// remote calls; else remote fetch merged over defaults and persisted; any
// network failure degrades silently to the defaults. Resolve never returns an
// error for remote problems, only for a corrupt cache file.
func (r *Resolver) Resolve(ctx context.Context) (*Map, error) {
	cached, err := r.loadCache()
	if err != nil {
		return nil, err
	}
	if cached != nil {
		return cached, nil
	}

	result := defaultMap()
	if r.cfg.RemoteConfigured() && r.remote != nil {
		if err := r.fetchInto(ctx, result); err != nil {
			r.logger.Warn("taxonomy fetch failed, using defaults", logging.Error(err))
			return result, nil
		}
	}

	if err := r.saveCache(result); err != nil {
		r.logger.Warn("could not persist taxonomy cache", logging.Error(err))
	}
	return result, nil
}

// Sync forces a remote refresh, replacing the cache. Used by the CLI.
func (r *Resolver) Sync(ctx context.Context) (*Map, error) {
	if !r.cfg.RemoteConfigured() || r.remote == nil {
		return nil, errors.New("wordpress credentials not configured")
	}
	result := defaultMap()
	if err := r.fetchInto(ctx, result); err != nil {
		return nil, err
	}
	if err := r.saveCache(result); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *Resolver) loadCache() (*Map, error) {
	data, err := os.ReadFile(r.cachePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read taxonomy cache: %w", err)
	}
	var m Map
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse taxonomy cache %s: %w", r.cachePath, err)
	}
	if m.Categories == nil {
		m.Categories = map[string]int{}
	}
	if m.Tags == nil {
		m.Tags = map[string]int{}
	}
	return &m, nil
}

func (r *Resolver) saveCache(m *Map) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode taxonomy cache: %w", err)
	}
	if err := os.WriteFile(r.cachePath, data, 0o644); err != nil {
		return fmt.Errorf("write taxonomy cache: %w", err)
	}
	return nil
}

func (r *Resolver) fetchInto(ctx context.Context, m *Map) error {
	categories, err := r.remote.Categories(ctx)
	if err != nil {
		return err
	}
	for _, t := range categories {
		if t.Name != "" {
			m.Categories[t.Name] = t.ID
		}
	}

	tags, err := r.remote.Tags(ctx)
	if err != nil {
		return err
	}
	for _, t := range tags {
		if t.Name != "" {
			m.Tags[t.Name] = t.ID
		}
	}
	return nil
}
