package cache

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/inkhub/inkhub/internal/config"
)

// Open 按配置选择后端并包装为 Layer。Redis 启动时不可达会降级为 Noop，
// 服务在无缓存状态下依旧正确。
func Open(ctx context.Context, cfg config.CacheConfig, logger *logrus.Logger) (*Layer, error) {
	timeout := cfg.Timeout.DurationValue()

	switch cfg.Backend {
	case "redis":
		backend, err := NewRedisBackend(cfg.RedisURL, cfg.KeyPrefix)
		if err != nil {
			return nil, err
		}
		pingCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := backend.Ping(pingCtx); err != nil {
			_ = backend.Close()
			if logger != nil {
				logger.WithError(err).
					WithFields(logrus.Fields{"action": "cache", "backend": "redis"}).
					Warn("cache_backend_degraded")
			}
			return NewLayer(Noop{}, timeout, logger), nil
		}
		return NewLayer(backend, timeout, logger), nil
	case "disk":
		backend, err := NewDiskStore(cfg.StoragePath)
		if err != nil {
			return nil, err
		}
		return NewLayer(backend, timeout, logger), nil
	case "", "none":
		return NewLayer(Noop{}, timeout, logger), nil
	default:
		return nil, fmt.Errorf("unsupported cache backend: %s", cfg.Backend)
	}
}
