package main

import (
	"log/slog"
	"strings"
	"sync"

	"autopress/internal/config"
	"autopress/internal/dedup"
	"autopress/internal/discovery"
	"autopress/internal/imaging"
	"autopress/internal/logging"
	"autopress/internal/pipeline"
	"autopress/internal/publisher"
	"autopress/internal/seo"
	"autopress/internal/services/wordpress"
	"autopress/internal/store"
	"autopress/internal/taxonomy"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.logger, c.loggerErr
}

// withStore opens the store for one command invocation and closes it after.
func (c *commandContext) withStore(fn func(*config.Config, *store.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(cfg, st)
}

func (c *commandContext) buildOrchestrator(cfg *config.Config, st *store.Store) (*pipeline.Orchestrator, error) {
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}

	remote := wordpress.NewClient(cfg)
	resolver := taxonomy.NewResolver(cfg, remote, logger)
	pub := publisher.New(cfg, resolver, remote, logger)

	return pipeline.New(
		cfg,
		st,
		discovery.New(cfg, logger),
		dedup.New(st, logger),
		imaging.New(cfg),
		seo.New(cfg),
		pub,
		logger,
	), nil
}
