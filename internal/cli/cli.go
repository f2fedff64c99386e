// Package cli implements the kgviz command-line interface.
package cli

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/kgviz/pkg/cache"
	"github.com/matzehuels/kgviz/pkg/command"
	"github.com/matzehuels/kgviz/pkg/config"
	"github.com/matzehuels/kgviz/pkg/graph"
	"github.com/matzehuels/kgviz/pkg/integrations"
	"github.com/matzehuels/kgviz/pkg/integrations/kg"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "kgviz"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Global flag values. Empty values leave the configuration untouched.
	configPath string
	baseURL    string
	domain     string
	timeout    time.Duration
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// =============================================================================
// Configuration
// =============================================================================

// loadConfig resolves file and environment settings, then applies flags.
func (c *CLI) loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return config.Config{}, err
	}
	flags := cmd.Flags()
	if c.baseURL != "" {
		cfg.BaseURL = strings.TrimRight(c.baseURL, "/")
	}
	if flags.Changed("domain") {
		cfg.Domain = c.domain
	}
	if flags.Changed("timeout") {
		cfg.Timeout = config.Duration{Duration: c.timeout}
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	c.Logger.Debug("config loaded", "base_url", cfg.BaseURL, "domain", cfg.Domain, "timeout", cfg.Timeout.Duration)
	return cfg, nil
}

// =============================================================================
// Factories
// =============================================================================

// newClient creates a backend client for cfg.
func (c *CLI) newClient(cfg config.Config) *kg.Client {
	return kg.NewClient(cfg.BaseURL, integrations.Options{
		Timeout: cfg.Timeout.Duration,
		Logger:  c.Logger,
	})
}

// newCommands wires a client and a fresh store behind the command layer.
// Notifications print as status lines.
func (c *CLI) newCommands(cfg config.Config) *command.Commands {
	return command.New(c.newClient(cfg), graph.NewStore(), command.Options{
		Domain:   cfg.Domain,
		Notifier: command.NotifierFunc(printNotification),
		Logger:   c.Logger,
	})
}

// setup loads configuration and builds the command layer in one step.
func (c *CLI) setup(cmd *cobra.Command) (config.Config, *command.Commands, error) {
	cfg, err := c.loadConfig(cmd)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, c.newCommands(cfg), nil
}

// newCache opens the render cache selected by cfg. An unavailable cache
// degrades to no caching.
func (c *CLI) newCache(ctx context.Context, cfg config.Config, noCache bool) cache.Cache {
	if noCache {
		return c.cacheOff("no-cache flag")
	}
	switch cfg.Cache.Backend {
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr: cfg.Cache.RedisAddr,
			DB:   cfg.Cache.RedisDB,
		})
		if err != nil {
			c.Logger.Warn("redis cache unavailable, rendering without cache", "addr", cfg.Cache.RedisAddr, "err", err)
			return c.cacheOff("redis unavailable: " + err.Error())
		}
		return cache.NewScoped(rc, appName+":"+cfg.BaseURL+":")
	case config.CacheNone:
		return c.cacheOff("cache backend none")
	default:
		dir, err := cfg.CacheDir()
		if err != nil {
			return c.cacheOff("no cache directory: " + err.Error())
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			c.Logger.Warn("file cache unavailable, rendering without cache", "dir", dir, "err", err)
			return c.cacheOff("file cache unavailable: " + err.Error())
		}
		return fc
	}
}

func (c *CLI) cacheOff(reason string) cache.Cache {
	nc := cache.Disabled(reason)
	c.Logger.Debug("render cache off", "cache", nc)
	return nc
}
