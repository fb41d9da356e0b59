package testsupport

import (
	"path/filepath"
	"testing"

	"autopress/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Remote credentials are left empty so nothing reaches the network unless a
// test opts in.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.AssetsDir = filepath.Join(base, "assets")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.WordPress.BaseURL = ""
	cfgVal.WordPress.Username = ""
	cfgVal.WordPress.AppPassword = ""
	cfgVal.Discovery.Feeds = nil

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithWordPress points the test config at a WordPress endpoint, usually an
// httptest server.
func WithWordPress(baseURL, username, appPassword string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.WordPress.BaseURL = baseURL
		b.cfg.WordPress.Username = username
		b.cfg.WordPress.AppPassword = appPassword
	}
}

// WithFeeds replaces the discovery feed list on the test config.
func WithFeeds(feeds ...config.FeedSource) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Discovery.Feeds = feeds
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
