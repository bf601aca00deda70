package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const defaultTimeout = 2 * time.Second

// Layer 包装 Backend，使缓存失败永远不会影响请求结果：
// 读失败视为未命中，写与失效失败只记录日志。
type Layer struct {
	backend Backend
	timeout time.Duration
	logger  *logrus.Logger
}

// NewLayer 构造缓存层。backend 为空时退化为 Noop。
func NewLayer(backend Backend, timeout time.Duration, logger *logrus.Logger) *Layer {
	if backend == nil {
		backend = Noop{}
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Layer{backend: backend, timeout: timeout, logger: logger}
}

// Backend 返回底层后端名称。
func (l *Layer) Backend() string {
	return l.backend.Name()
}

// Get 读取 key，任何错误都按未命中处理。
func (l *Layer) Get(ctx context.Context, key string) (string, bool) {
	ctx, cancel := l.bound(ctx)
	defer cancel()

	value, err := l.backend.Get(ctx, key)
	switch {
	case err == nil:
		return value, true
	case errors.Is(err, ErrNotFound):
	default:
		l.warn(err, key, "cache_get_failed")
	}
	return "", false
}

// Set 尽力写入，失败只记录日志。
func (l *Layer) Set(ctx context.Context, key, value string, ttl time.Duration) {
	ctx, cancel := l.bound(ctx)
	defer cancel()

	if err := l.backend.Set(ctx, key, value, ttl); err != nil {
		l.warn(err, key, "cache_set_failed")
	}
}

// Invalidate 删除给定 key；以 "*" 结尾的参数按前缀删除。
// 远端写入成功后调用，不随请求取消而中断。
func (l *Layer) Invalidate(ctx context.Context, keys ...string) {
	ctx, cancel := l.bound(context.WithoutCancel(ctx))
	defer cancel()

	exact := make([]string, 0, len(keys))
	for _, key := range keys {
		if prefix, ok := strings.CutSuffix(key, "*"); ok {
			if err := l.backend.DeletePrefix(ctx, prefix); err != nil {
				l.warn(err, key, "cache_invalidate_failed")
			}
			continue
		}
		exact = append(exact, key)
	}
	if len(exact) == 0 {
		return
	}
	if err := l.backend.Delete(ctx, exact...); err != nil {
		l.warn(err, strings.Join(exact, ","), "cache_invalidate_failed")
	}
}

// Close 关闭底层后端。
func (l *Layer) Close() error {
	return l.backend.Close()
}

func (l *Layer) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, l.timeout)
}

func (l *Layer) warn(err error, key, event string) {
	l.logger.WithError(err).
		WithFields(logrus.Fields{"action": "cache", "backend": l.backend.Name(), "cache_key": key}).
		Warn(event)
}
