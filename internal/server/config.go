package server

import (
	"context"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/geodetic-io/cartograph/pkg/cache"
	"github.com/geodetic-io/cartograph/pkg/errors"
)

// Config holds the preview server's environment configuration.
type Config struct {
	Addr          string        `envconfig:"CARTOGRAPH_ADDR" default:":8080"`
	CacheBackend  string        `envconfig:"CARTOGRAPH_CACHE" default:"null"`
	CacheDir      string        `envconfig:"CARTOGRAPH_CACHE_DIR" default:".cartograph/cache"`
	CacheTTL      time.Duration `envconfig:"CARTOGRAPH_CACHE_TTL" default:"10m"`
	RedisAddr     string        `envconfig:"CARTOGRAPH_REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string        `envconfig:"CARTOGRAPH_REDIS_PASSWORD" default:""`
	RedisDB       int           `envconfig:"CARTOGRAPH_REDIS_DB" default:"0"`
}

// LoadConfig reads configuration from the environment.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// OpenCache constructs the configured cache backend.
func (c *Config) OpenCache(ctx context.Context) (cache.Cache, error) {
	switch c.CacheBackend {
	case "", "null":
		return cache.NewNullCache(), nil
	case "file":
		return cache.NewFileCache(c.CacheDir)
	case "redis":
		return cache.NewRedisCache(ctx, c.RedisAddr, c.RedisPassword, c.RedisDB)
	default:
		return nil, errors.New(errors.ErrCodeUnsupportedVariant,
			"unknown cache backend %q (supported: null, file, redis)", c.CacheBackend)
	}
}
