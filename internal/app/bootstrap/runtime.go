// Package bootstrap turns loaded configuration into the runtime pieces the
// commands share: the Redis client, the session store and the portal client.
package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/Raheemullah8/hms-portal/internal/config"
	"github.com/Raheemullah8/hms-portal/internal/observability/metrics"
	"github.com/Raheemullah8/hms-portal/internal/portal"
	"github.com/Raheemullah8/hms-portal/internal/session"
	"github.com/Raheemullah8/hms-portal/pkg/logging"
)

// Session storage backends.
const (
	SessionFile   = "file"
	SessionRedis  = "redis"
	SessionMemory = "memory"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildSessionStorage picks the persistence backend named by
// cfg.SessionBackend. The redis backend falls back to the file backend when
// Redis cannot be reached.
func BuildSessionStorage(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (session.Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	switch cfg.SessionBackend {
	case SessionMemory:
		return session.NewMemoryStorage(), nil
	case SessionRedis:
		if client := BuildRedisClient(ctx, cfg, logger, true); client != nil {
			logger.Info("session persisted in redis", "addr", cfg.RedisAddr)
			return session.NewRedisStorage(client, 0), nil
		}
		logger.Warn("redis session backend unavailable; using file storage", "dir", cfg.SessionDir)
		return session.NewFileStorage(cfg.SessionDir), nil
	case SessionFile, "":
		return session.NewFileStorage(cfg.SessionDir), nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown session backend %q", cfg.SessionBackend)
	}
}

// BuildSessionStore wraps storage in a session store configured from cfg. It
// does not rehydrate.
func BuildSessionStore(cfg *appconfig.Config, storage session.Storage, logger *logging.Logger) *session.Store {
	opts := []session.Option{session.WithLogger(logger)}
	if cfg != nil {
		if key := strings.TrimSpace(cfg.SessionKey); key != "" {
			opts = append(opts, session.WithKey(key))
		}
		if cfg.SoftLogout {
			opts = append(opts, session.WithReducer(session.SoftLogoutReduce))
		}
	}
	return session.NewStore(storage, opts...)
}

// BuildPortal wires the portal client. A nil registry skips cache metrics.
func BuildPortal(cfg *appconfig.Config, store *session.Store, logger *logging.Logger, reg prometheus.Registerer) *portal.Client {
	opts := portal.Options{Logger: logger}
	if cfg != nil {
		opts.BaseURL = cfg.APIBaseURL
		opts.HTTPTimeout = cfg.HTTPTimeout
		opts.KeepUnusedFor = cfg.CacheKeepUnused
		// A configured zero means "drop as soon as unused", which the cache
		// spells as a negative duration.
		if opts.KeepUnusedFor == 0 {
			opts.KeepUnusedFor = -1
		}
	}
	if reg != nil {
		opts.Metrics = metrics.NewCacheMetrics(reg)
	}
	return portal.New(store, opts)
}
