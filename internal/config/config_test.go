package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.toml")

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if resolved != path {
		t.Fatalf("expected resolved path %q, got %q", path, resolved)
	}
	if cfg.Discovery.MaxLeadsPerBatch != 1 {
		t.Fatalf("expected default batch size 1, got %d", cfg.Discovery.MaxLeadsPerBatch)
	}
	if len(cfg.Schedule.Windows) != 2 {
		t.Fatalf("expected two default windows, got %v", cfg.Schedule.Windows)
	}
	if cfg.RemoteConfigured() {
		t.Fatal("expected defaults to leave WordPress unconfigured")
	}
}

func TestLoadAppliesOverridesAndNormalizes(t *testing.T) {
	path := writeConfig(t, `
[paths]
data_dir = "~/autopress-data"

[wordpress]
base_url = "https://cms.example.com/"
username = " editor "
app_password = " secret "

[discovery]
max_leads_per_batch = 3

[[discovery.feeds]]
name = "Feed A"
url = "https://a.example.com/feed"

[[discovery.feeds]]
name = "Empty"
url = "   "
`)

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	if strings.HasPrefix(cfg.Paths.DataDir, "~") {
		t.Fatalf("expected expanded data dir, got %q", cfg.Paths.DataDir)
	}
	if cfg.WordPress.BaseURL != "https://cms.example.com" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.WordPress.BaseURL)
	}
	if cfg.WordPress.Username != "editor" || cfg.WordPress.AppPassword != "secret" {
		t.Fatalf("expected trimmed credentials, got %q/%q", cfg.WordPress.Username, cfg.WordPress.AppPassword)
	}
	if !cfg.RemoteConfigured() {
		t.Fatal("expected remote to be configured")
	}
	if cfg.Discovery.MaxLeadsPerBatch != 3 {
		t.Fatalf("expected batch size override, got %d", cfg.Discovery.MaxLeadsPerBatch)
	}
	if len(cfg.Discovery.Feeds) != 1 || cfg.Discovery.Feeds[0].Name != "Feed A" {
		t.Fatalf("expected blank feed URL dropped, got %v", cfg.Discovery.Feeds)
	}
	if cfg.Discovery.Feeds[0].Score != 1.0 {
		t.Fatalf("expected missing score to default to 1.0, got %v", cfg.Discovery.Feeds[0].Score)
	}
}

func TestLoadRejectsPartialCredentials(t *testing.T) {
	path := writeConfig(t, `
[wordpress]
base_url = "https://cms.example.com"
username = "editor"
`)

	if _, _, _, err := Load(path); err == nil {
		t.Fatal("expected error for username without app password")
	}
}

func TestLoadRejectsMalformedWindow(t *testing.T) {
	path := writeConfig(t, `
[schedule]
windows = ["8am"]
`)

	if _, _, _, err := Load(path); err == nil {
		t.Fatal("expected error for non HH:MM window")
	}
}

func TestLoadRejectsUnknownLogFormat(t *testing.T) {
	path := writeConfig(t, `
[logging]
format = "xml"
`)

	if _, _, _, err := Load(path); err == nil {
		t.Fatal("expected error for unsupported log format")
	}
}

func TestDerivedPaths(t *testing.T) {
	cfg := Default()
	cfg.Paths.DataDir = "/tmp/autopress"

	if got := cfg.DatabasePath(); got != "/tmp/autopress/autopress.db" {
		t.Fatalf("unexpected database path %q", got)
	}
	if got := cfg.TaxonomyCachePath(); got != "/tmp/autopress/taxonomy_map.json" {
		t.Fatalf("unexpected taxonomy cache path %q", got)
	}
	if got := cfg.LockPath(); got != "/tmp/autopress/autopress.lock" {
		t.Fatalf("unexpected lock path %q", got)
	}
}
