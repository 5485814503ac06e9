// Package config loads the filtergraph configuration file.
//
// The file is TOML with three sections:
//
//	[layout]
//	routing_width = 60
//	max_attempts  = 128
//
//	[cache]
//	backend = "redis"
//	url     = "redis://localhost:6379/0"
//	ttl     = "24h"
//
//	[server]
//	addr = ":8080"
//
// Missing keys keep their defaults. Command-line flags override file values;
// that merge happens in the CLI.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/cache"
	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/layout"
	"github.com/ngscopeclient/scopehal-apps-sub003/pkg/render/svg"
)

const appName = "filtergraph"

// Config is the whole configuration file.
type Config struct {
	Layout layout.Options `toml:"layout"`
	Cache  cache.Config   `toml:"cache"`
	Server Server         `toml:"server"`
	Render Render         `toml:"render"`
}

// Server configures `filtergraph serve`.
type Server struct {
	Addr string `toml:"addr"`
	// MaxBodyBytes limits request bodies.
	MaxBodyBytes int64         `toml:"max_body_bytes"`
	ReadTimeout  time.Duration `toml:"read_timeout"`
	WriteTimeout time.Duration `toml:"write_timeout"`
}

// Render holds render defaults.
type Render struct {
	Theme string  `toml:"theme"`
	Scale float64 `toml:"scale"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	c := Config{
		Layout: layout.DefaultOptions(),
		Cache:  cache.Config{Backend: cache.BackendFile, Dir: cache.DefaultDir()},
	}
	c.setDefaults()
	return c
}

func (c *Config) setDefaults() {
	c.Layout.SetDefaults()
	if c.Cache.Backend == "" {
		c.Cache.Backend = cache.BackendFile
	}
	if c.Cache.Backend == cache.BackendFile && c.Cache.Dir == "" {
		c.Cache.Dir = cache.DefaultDir()
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.MaxBodyBytes <= 0 {
		c.Server.MaxBodyBytes = 4 << 20
	}
	if c.Server.ReadTimeout <= 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout <= 0 {
		c.Server.WriteTimeout = 60 * time.Second
	}
	if c.Render.Theme == "" {
		c.Render.Theme = svg.Light.Name
	}
	if c.Render.Scale <= 0 {
		c.Render.Scale = 1
	}
}

// Validate reports values that are set but unusable.
func (c *Config) Validate() error {
	if err := c.Layout.Validate(); err != nil {
		return fmt.Errorf("layout: %w", err)
	}
	switch c.Cache.Backend {
	case cache.BackendNone, cache.BackendFile:
	case cache.BackendRedis, cache.BackendMongo:
		if c.Cache.URL == "" {
			return fmt.Errorf("cache: backend %q needs a url", c.Cache.Backend)
		}
	default:
		return fmt.Errorf("cache: %w: %q", cache.ErrUnknownBackend, c.Cache.Backend)
	}
	if _, ok := svg.ThemeByName(c.Render.Theme); !ok {
		return fmt.Errorf("render: unknown theme %q", c.Render.Theme)
	}
	return nil
}

// DefaultPath returns $XDG_CONFIG_HOME/filtergraph/config.toml, falling
// back to ~/.config when XDG_CONFIG_HOME is unset.
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, appName, "config.toml")
}

// Load reads the file at path. An empty path means [DefaultPath], and a
// missing default file yields [Default]; a missing explicit file is an error.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path == "" {
		return Default(), nil
	}

	f, err := os.Open(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	c, err := Decode(f)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Decode parses a configuration from r, applies defaults and validates it.
// Unknown keys are rejected so typos do not silently fall back to defaults.
func Decode(r io.Reader) (Config, error) {
	var c Config
	md, err := toml.NewDecoder(r).Decode(&c)
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("parse config: unknown key %q", undecoded[0].String())
	}
	c.setDefaults()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Encode writes c as TOML.
func Encode(w io.Writer, c Config) error {
	return toml.NewEncoder(w).Encode(c)
}
