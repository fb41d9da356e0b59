package taxonomy_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"autopress/internal/services/wordpress"
	"autopress/internal/taxonomy"
	"autopress/internal/testsupport"
)

func newCMS(t *testing.T, calls *atomic.Int64) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/wp-json/wp/v2/categories":
			_ = json.NewEncoder(w).Encode([]map[string]any{
				{"id": 11, "name": "Airline"},
				{"id": 12, "name": "Deals"},
			})
		case "/wp-json/wp/v2/tags":
			_ = json.NewEncoder(w).Encode([]map[string]any{
				{"id": 21, "name": "Aeroplan"},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestResolveFetchesAndMergesOverDefaults(t *testing.T) {
	var calls atomic.Int64
	server := newCMS(t, &calls)
	cfg := testsupport.NewConfig(t, testsupport.WithWordPress(server.URL, "bot", "secret"))
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}

	r := taxonomy.NewResolver(cfg, wordpress.NewClient(cfg), nil)
	m, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if m.Categories["Airline"] != 11 {
		t.Fatalf("expected fetched id over default, got %d", m.Categories["Airline"])
	}
	if m.Categories["Deals"] != 12 {
		t.Fatal("expected new remote category merged in")
	}
	if _, ok := m.Categories["Travel"]; !ok {
		t.Fatal("expected default category retained")
	}
	if m.Tags["Aeroplan"] != 21 {
		t.Fatalf("expected fetched tag id, got %d", m.Tags["Aeroplan"])
	}

	if _, err := os.Stat(cfg.TaxonomyCachePath()); err != nil {
		t.Fatalf("expected cache file persisted: %v", err)
	}
}

func TestResolveWarmCacheSkipsRemote(t *testing.T) {
	var calls atomic.Int64
	server := newCMS(t, &calls)
	cfg := testsupport.NewConfig(t, testsupport.WithWordPress(server.URL, "bot", "secret"))
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}

	r := taxonomy.NewResolver(cfg, wordpress.NewClient(cfg), nil)
	if _, err := r.Resolve(context.Background()); err != nil {
		t.Fatalf("cold Resolve failed: %v", err)
	}
	coldCalls := calls.Load()
	if coldCalls == 0 {
		t.Fatal("expected remote calls on cold cache")
	}

	warm, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("warm Resolve failed: %v", err)
	}
	if calls.Load() != coldCalls {
		t.Fatalf("expected zero remote calls on warm cache, got %d extra", calls.Load()-coldCalls)
	}
	if warm.Categories["Airline"] != 11 {
		t.Fatalf("expected cached value returned verbatim, got %d", warm.Categories["Airline"])
	}
}

func TestResolveNetworkFailureFallsBackToDefaults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	cfg := testsupport.NewConfig(t, testsupport.WithWordPress(server.URL, "bot", "secret"))
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}

	r := taxonomy.NewResolver(cfg, wordpress.NewClient(cfg), nil)
	m, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("expected silent degradation, got error: %v", err)
	}
	if _, ok := m.Categories["Travel"]; !ok {
		t.Fatal("expected default categories on network failure")
	}
	if m.Categories["Travel"] != 0 {
		t.Fatalf("expected zero ids in defaults, got %d", m.Categories["Travel"])
	}
}

func TestResolveWithoutCredentialsUsesDefaults(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}

	r := taxonomy.NewResolver(cfg, wordpress.NewClient(cfg), nil)
	m, err := r.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(m.Categories) == 0 || len(m.Tags) == 0 {
		t.Fatal("expected default map without credentials")
	}
}

func TestSyncRequiresCredentials(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	r := taxonomy.NewResolver(cfg, wordpress.NewClient(cfg), nil)
	if _, err := r.Sync(context.Background()); err == nil {
		t.Fatal("expected error syncing without credentials")
	}
}
