package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration for pipeline artifacts.
type Paths struct {
	DataDir   string `toml:"data_dir"`
	OutputDir string `toml:"output_dir"`
	AssetsDir string `toml:"assets_dir"`
	LogDir    string `toml:"log_dir"`
}

// WordPress contains the remote CMS connection settings.
type WordPress struct {
	BaseURL        string `toml:"base_url"`
	Username       string `toml:"username"`
	AppPassword    string `toml:"app_password"`
	RequestTimeout int    `toml:"request_timeout"`
}

// FeedSource describes one discovery feed.
type FeedSource struct {
	Name  string  `toml:"name"`
	URL   string  `toml:"url"`
	Score float64 `toml:"score"`
}

// Discovery contains lead discovery settings.
type Discovery struct {
	Feeds            []FeedSource `toml:"feeds"`
	MaxLeadsPerBatch int          `toml:"max_leads_per_batch"`
	FetchTimeout     int          `toml:"fetch_timeout"`
}

// Schedule contains the batch window configuration.
type Schedule struct {
	Windows []string `toml:"windows"`
}

// Workflow contains batch timing settings.
type Workflow struct {
	ErrorRetryInterval int `toml:"error_retry_interval"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Publishing contains site identity used for structured data and local drafts.
type Publishing struct {
	SiteName string `toml:"site_name"`
	SiteLogo string `toml:"site_logo"`
	Language string `toml:"language"`
}

// Config encapsulates all configuration values for autopress.
//
// Configuration sections by subsystem:
//   - Paths: data, output, asset and log directories
//   - WordPress: remote CMS credentials and endpoint
//   - Discovery: feed list and batch limits
//   - Publishing: site identity for JSON-LD and drafts
//   - Schedule: daily batch windows
//   - Workflow: retry timing
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	WordPress  WordPress  `toml:"wordpress"`
	Discovery  Discovery  `toml:"discovery"`
	Publishing Publishing `toml:"publishing"`
	Schedule   Schedule   `toml:"schedule"`
	Workflow   Workflow   `toml:"workflow"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/autopress/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("autopress.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for batch operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.OutputDir, c.Paths.AssetsDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// RemoteConfigured reports whether WordPress credentials are present. Without
// them the publisher only produces local drafts.
func (c *Config) RemoteConfigured() bool {
	return strings.TrimSpace(c.WordPress.Username) != "" &&
		strings.TrimSpace(c.WordPress.AppPassword) != ""
}

// DatabasePath returns the location of the pipeline SQLite database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "autopress.db")
}

// TaxonomyCachePath returns the location of the persisted taxonomy mapping.
func (c *Config) TaxonomyCachePath() string {
	return filepath.Join(c.Paths.DataDir, "taxonomy_map.json")
}

// LockPath returns the file lock guarding against overlapping batch runs.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "autopress.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
