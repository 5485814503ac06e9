package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Backend names accepted by [Open].
const (
	BackendNone  = "none"
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
)

// Config selects and configures a cache backend. It is the [cache] section
// of the configuration file.
type Config struct {
	Backend string        `toml:"backend"`
	Dir     string        `toml:"dir"`
	URL     string        `toml:"url"`
	Prefix  string        `toml:"prefix"`
	TTL     time.Duration `toml:"ttl"`

	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// DefaultDir returns the default file cache directory.
func DefaultDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "filtergraph")
	}
	return filepath.Join(os.TempDir(), "filtergraph-cache")
}

// Open creates the cache described by cfg. An empty backend means "file".
func Open(ctx context.Context, cfg Config) (Cache, error) {
	switch cfg.Backend {
	case BackendNone:
		return NewNullCache(), nil
	case "", BackendFile:
		dir := cfg.Dir
		if dir == "" {
			dir = DefaultDir()
		}
		c, err := NewFileCache(dir)
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendRedis:
		c, err := NewRedisCache(ctx, RedisConfig{URL: cfg.URL, Prefix: cfg.Prefix})
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendMongo:
		c, err := NewMongoCache(ctx, MongoConfig{URI: cfg.URL, Database: cfg.Database, Collection: cfg.Collection})
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

// BackendName reports which backend c is, for logs and metrics.
func BackendName(c Cache) string {
	switch c.(type) {
	case *NullCache:
		return BackendNone
	case *FileCache:
		return BackendFile
	case *RedisCache:
		return BackendRedis
	case *MongoCache:
		return BackendMongo
	default:
		return fmt.Sprintf("%T", c)
	}
}
