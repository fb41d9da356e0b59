package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeWordPress()
	c.normalizeDiscovery()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.Paths.AssetsDir, err = expandPath(c.Paths.AssetsDir); err != nil {
		return fmt.Errorf("paths.assets_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeWordPress() {
	c.WordPress.BaseURL = strings.TrimRight(strings.TrimSpace(c.WordPress.BaseURL), "/")
	c.WordPress.Username = strings.TrimSpace(c.WordPress.Username)
	c.WordPress.AppPassword = strings.TrimSpace(c.WordPress.AppPassword)
	if c.WordPress.RequestTimeout <= 0 {
		c.WordPress.RequestTimeout = defaultRequestTimeout
	}
}

func (c *Config) normalizeDiscovery() {
	if c.Discovery.MaxLeadsPerBatch <= 0 {
		c.Discovery.MaxLeadsPerBatch = defaultMaxLeadsPerBatch
	}
	if c.Discovery.FetchTimeout <= 0 {
		c.Discovery.FetchTimeout = defaultFetchTimeout
	}
	feeds := c.Discovery.Feeds[:0]
	for _, feed := range c.Discovery.Feeds {
		feed.Name = strings.TrimSpace(feed.Name)
		feed.URL = strings.TrimSpace(feed.URL)
		if feed.URL == "" {
			continue
		}
		if feed.Score <= 0 {
			feed.Score = 1.0
		}
		feeds = append(feeds, feed)
	}
	c.Discovery.Feeds = feeds
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
