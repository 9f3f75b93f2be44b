package config

import (
	"fmt"
	"strings"
)

func validate(c *Config) error {
	if err := c.App.validate(); err != nil {
		return err
	}
	if err := c.Storage.validate(); err != nil {
		return err
	}
	if err := c.Signals.validate(); err != nil {
		return err
	}
	if err := c.Content.validate(); err != nil {
		return err
	}
	if err := c.Generative.validate(); err != nil {
		return err
	}
	if err := c.Pipeline.validate(); err != nil {
		return err
	}
	return nil
}

func (a *AppConfig) validate() error {
	switch strings.ToLower(strings.TrimSpace(a.LogLevel)) {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("app.log_level must be one of debug/info/warn/error, got %s", a.LogLevel)
	}
}

func (s *StorageConfig) validate() error {
	if strings.TrimSpace(s.Path) == "" {
		return fmt.Errorf("storage.path cannot be empty")
	}
	if strings.TrimSpace(s.AuditPath) == "" {
		return fmt.Errorf("storage.audit_path cannot be empty")
	}
	return nil
}

func (s *SignalsConfig) validate() error {
	if s.SubscriptionMinGapDays > 0 && s.SubscriptionMaxGapDays > 0 &&
		s.SubscriptionMinGapDays > s.SubscriptionMaxGapDays {
		return fmt.Errorf("signals.subscription_min_gap_days must be <= subscription_max_gap_days")
	}
	return nil
}

func (c *ContentConfig) validate() error {
	if c.MinItems > c.MaxItems {
		return fmt.Errorf("content.min_items must be <= content.max_items")
	}
	return nil
}

func (g *GenerativeConfig) validate() error {
	if !g.Enabled {
		return nil
	}
	if strings.TrimSpace(g.APIURL) == "" {
		return fmt.Errorf("generative.api_url cannot be empty when enabled")
	}
	if strings.TrimSpace(g.Model) == "" {
		return fmt.Errorf("generative.model cannot be empty when enabled")
	}
	return nil
}

func (p *PipelineConfig) validate() error {
	if p.Workers <= 0 {
		return fmt.Errorf("pipeline.workers must be > 0")
	}
	return nil
}
