package cache

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/mreshnaan/subtitle-harvester/internal/config"
)

// zerologAdapter bridges the store Logger interface to zerolog.
type zerologAdapter struct {
	logger zerolog.Logger
}

func (a zerologAdapter) Error(msg string, err error) {
	a.logger.Error().Err(err).Msg(msg)
}

// NewFromConfig builds the run's page store from application configuration,
// instrumented with the page_cache_* metrics.
func NewFromConfig(cfg *config.Config) (PageStore, error) {
	ttl := time.Hour
	if cfg.Cache.TTL != "" {
		parsed, err := time.ParseDuration(cfg.Cache.TTL)
		if err != nil {
			return nil, fmt.Errorf("invalid cache ttl %q: %w", cfg.Cache.TTL, err)
		}
		ttl = parsed
	}

	backend := cfg.Cache.Provider
	if backend == "" {
		backend = "memory"
	}

	return Open(backend, Options{
		MaxPages:      cfg.Cache.Size,
		TTL:           ttl,
		Logger:        zerologAdapter{logger: config.GetLogger()},
		Instrument:    true,
		RedisAddress:  cfg.Cache.RedisAddress,
		RedisPassword: cfg.Cache.RedisPassword,
		RedisDB:       cfg.Cache.RedisDB,
	})
}
