package cache

import (
	"context"
	"errors"
	"time"
)

// Backend 是缓存后端需要实现的最小接口。值统一为字符串（JSON 文本），
// 调用方自行负责编解码。
type Backend interface {
	// Name 返回后端名称，用于日志字段。
	Name() string

	// Get 返回 key 对应的值。不存在或已过期时返回 ErrNotFound。
	Get(ctx context.Context, key string) (string, error)

	// Set 写入 key，ttl <= 0 表示不过期。
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete 删除一个或多个 key，不存在的 key 不视为错误。
	Delete(ctx context.Context, keys ...string) error

	// DeletePrefix 删除所有以 prefix 开头的 key。
	DeletePrefix(ctx context.Context, prefix string) error

	// Close 释放连接或文件句柄。
	Close() error
}

// ErrNotFound 表示缓存不存在。
var ErrNotFound = errors.New("cache entry not found")

// Noop 丢弃所有写入，所有读取均未命中。
type Noop struct{}

func (Noop) Name() string { return "none" }

func (Noop) Get(context.Context, string) (string, error) { return "", ErrNotFound }

func (Noop) Set(context.Context, string, string, time.Duration) error { return nil }

func (Noop) Delete(context.Context, ...string) error { return nil }

func (Noop) DeletePrefix(context.Context, string) error { return nil }

func (Noop) Close() error { return nil }
