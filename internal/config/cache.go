package config

import (
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// CacheConfig defines settings for the response cache middleware.
// When Enabled is false or no Redis client is configured, caching is
// disabled. Methods lists the HTTP methods to cache, KeyStrategy decides
// which request parts form the key.
type CacheConfig struct {
	Enabled      bool            `envconfig:"ENABLED" default:"true"`
	Methods      map[string]bool `ignored:"true"`
	MethodList   []string        `envconfig:"METHODS" default:"GET"`
	TTL          time.Duration   `envconfig:"TTL" default:"30s"`
	KeyStrategy  string          `envconfig:"KEY_STRATEGY" default:"route_query"`
	Prefix       string          `envconfig:"PREFIX" default:"cache"`
	MaxBodyBytes int             `envconfig:"MAX_BODY_BYTES" default:"1048576"`
}

// LoadCacheConfig reads CACHE_* variables. Methods are upper-cased.
func LoadCacheConfig() (CacheConfig, error) {
	var cfg CacheConfig
	if err := envconfig.Process("CACHE", &cfg); err != nil {
		return CacheConfig{}, err
	}
	cfg.Methods = parseMethods(cfg.MethodList)
	return cfg, nil
}

func parseMethods(list []string) map[string]bool {
	m := map[string]bool{}
	for _, p := range list {
		p = strings.TrimSpace(strings.ToUpper(p))
		if p != "" {
			m[p] = true
		}
	}
	return m
}
