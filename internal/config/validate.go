package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateWordPress(); err != nil {
		return err
	}
	if err := c.validateSchedule(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateWordPress() error {
	if c.WordPress.BaseURL == "" {
		return errors.New("wordpress.base_url must be set")
	}
	hasUser := c.WordPress.Username != ""
	hasPass := c.WordPress.AppPassword != ""
	if hasUser != hasPass {
		return errors.New("wordpress.username and wordpress.app_password must be set together")
	}
	return nil
}

func (c *Config) validateSchedule() error {
	for _, window := range c.Schedule.Windows {
		if _, err := time.Parse("15:04", strings.TrimSpace(window)); err != nil {
			return fmt.Errorf("schedule.windows entry %q is not HH:MM", window)
		}
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.ErrorRetryInterval <= 0 {
		return errors.New("workflow.error_retry_interval must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}
