// Package config loads kgviz settings.
//
// Settings are resolved in three layers, later layers winning:
//
//  1. Defaults ([Default])
//  2. A TOML file, $XDG_CONFIG_HOME/kgviz/config.toml or ~/.config/kgviz/config.toml
//  3. KGVIZ_* environment variables
//
// Command-line flags are applied on top by the CLI.
//
// Example file:
//
//	base_url = "http://localhost:8000"
//	domain   = "history"
//
//	[render]
//	engine = "fdp"
//
//	[cache]
//	backend    = "redis"
//	redis_addr = "localhost:6379"
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/kgviz/pkg/errors"
)

const appName = "kgviz"

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Config holds all settings.
type Config struct {
	BaseURL   string   `toml:"base_url"`
	Domain    string   `toml:"domain"`
	Timeout   Duration `toml:"timeout"`
	ExportDir string   `toml:"export_dir"`

	Render RenderConfig `toml:"render"`
	Cache  CacheConfig  `toml:"cache"`
	Serve  ServeConfig  `toml:"serve"`
}

// RenderConfig selects the layout engine and output format.
type RenderConfig struct {
	Engine string `toml:"engine"` // neato or fdp
	Format string `toml:"format"` // svg, png or dot
}

// CacheConfig selects where rendered diagrams are cached.
type CacheConfig struct {
	Backend   string   `toml:"backend"`
	Dir       string   `toml:"dir"`
	TTL       Duration `toml:"ttl"`
	RedisAddr string   `toml:"redis_addr"`
	RedisDB   int      `toml:"redis_db"`
}

// ServeConfig configures the local viewer server.
type ServeConfig struct {
	Addr string `toml:"addr"`
}

// Duration is a time.Duration that decodes from TOML strings such as "30s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in settings. A zero timeout means requests
// wait until the backend answers or the command is interrupted.
func Default() Config {
	return Config{
		BaseURL:   "http://localhost:8000",
		ExportDir: ".",
		Render: RenderConfig{
			Engine: "neato",
			Format: "svg",
		},
		Cache: CacheConfig{
			Backend:   CacheFile,
			TTL:       Duration{24 * time.Hour},
			RedisAddr: "localhost:6379",
		},
		Serve: ServeConfig{
			Addr: "127.0.0.1:8787",
		},
	}
}

// Load resolves defaults, the file at path and the environment.
// An empty path means [DefaultPath]; a missing default file is not an error,
// a missing explicit file is.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err == nil {
			path = p
		}
	}
	if path != "" {
		if err := cfg.mergeFile(path, explicit); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.mergeEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string, explicit bool) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) && !explicit {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "parse config %s", path)
	}
	return nil
}

func (c *Config) mergeEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("KGVIZ_BASE_URL", &c.BaseURL)
	str("KGVIZ_DOMAIN", &c.Domain)
	str("KGVIZ_EXPORT_DIR", &c.ExportDir)
	str("KGVIZ_RENDER_ENGINE", &c.Render.Engine)
	str("KGVIZ_CACHE_BACKEND", &c.Cache.Backend)
	str("KGVIZ_CACHE_DIR", &c.Cache.Dir)
	str("KGVIZ_REDIS_ADDR", &c.Cache.RedisAddr)
	str("KGVIZ_SERVE_ADDR", &c.Serve.Addr)

	if v, ok := lookup("KGVIZ_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "KGVIZ_TIMEOUT")
		}
		c.Timeout = Duration{d}
	}
	if v, ok := lookup("KGVIZ_REDIS_DB"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidInput, err, "KGVIZ_REDIS_DB")
		}
		c.Cache.RedisDB = n
	}
	return nil
}

// Validate checks enumerated fields and the base URL.
func (c Config) Validate() error {
	if err := errors.ValidateURL(c.BaseURL); err != nil {
		return err
	}
	switch c.Render.Engine {
	case "neato", "fdp":
	default:
		return errors.New(errors.ErrCodeInvalidInput, "render engine must be neato or fdp, got %q", c.Render.Engine)
	}
	switch c.Render.Format {
	case "svg", "png", "dot":
	default:
		return errors.New(errors.ErrCodeInvalidInput, "render format must be svg, png or dot, got %q", c.Render.Format)
	}
	switch c.Cache.Backend {
	case CacheFile, CacheRedis, CacheNone:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "cache backend must be file, redis or none, got %q", c.Cache.Backend)
	}
	if c.Timeout.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "timeout cannot be negative")
	}
	return nil
}

// DefaultPath returns the config file location using the XDG convention.
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// CacheDir returns the render cache directory: the configured one, else
// $XDG_CACHE_HOME/kgviz, else ~/.cache/kgviz.
func (c Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
