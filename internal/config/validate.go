package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/rotisserie/eris"
)

// Validate checks that the fields required by mode are present and sane.
// Modes: "serve", "store", "seed". All problems are reported together.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "serve":
		errs = append(errs, c.validateStore()...)
		errs = append(errs, c.validateServer()...)
		errs = append(errs, c.validateNotify()...)
		errs = append(errs, c.validateMonitoring()...)
	case "store", "seed":
		errs = append(errs, c.validateStore()...)
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed for %s: %s", mode, strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateStore() []string {
	var errs []string
	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Sprintf("store.driver must be sqlite or postgres, got %q", c.Store.Driver))
	}
	if c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required")
	}
	if c.Store.Driver == "postgres" {
		if c.Store.MaxConns < 1 {
			errs = append(errs, "store.max_conns must be >= 1")
		}
		if c.Store.MinConns < 0 || c.Store.MinConns > c.Store.MaxConns {
			errs = append(errs, "store.min_conns must be between 0 and store.max_conns")
		}
	}
	return errs
}

func (c *Config) validateServer() []string {
	var errs []string
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be > 0 and <= 65535")
	}
	if c.Server.RateLimitRPS < 0 {
		errs = append(errs, "server.rate_limit_rps must be >= 0")
	}
	if c.Server.RateLimitRPS > 0 && c.Server.RateLimitBurst < 1 {
		errs = append(errs, "server.rate_limit_burst must be >= 1 when rate limiting is enabled")
	}
	return errs
}

func (c *Config) validateNotify() []string {
	var errs []string
	switch c.Notify.Driver {
	case "memory":
	case "redis":
		if c.Notify.RedisAddr == "" {
			errs = append(errs, "notify.redis_addr is required for the redis driver")
		}
		if c.Notify.Channel == "" {
			errs = append(errs, "notify.channel is required for the redis driver")
		}
	default:
		errs = append(errs, fmt.Sprintf("notify.driver must be memory or redis, got %q", c.Notify.Driver))
	}
	return errs
}

func (c *Config) validateMonitoring() []string {
	var errs []string
	if c.Monitoring.Schedule != "" {
		if _, err := cron.ParseStandard(c.Monitoring.Schedule); err != nil {
			errs = append(errs, fmt.Sprintf("monitoring.schedule is invalid: %v", err))
		}
	}
	if c.Monitoring.HighRiskThreshold < 0 {
		errs = append(errs, "monitoring.high_risk_threshold must be >= 0")
	}
	return errs
}
