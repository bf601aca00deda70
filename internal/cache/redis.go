package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const scanBatch = 200

// RedisBackend 以 keyPrefix 为命名空间存储条目，多实例部署可共享同一 Redis。
type RedisBackend struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisBackend 解析 redis:// 或 rediss:// URL 创建客户端，不在此处探活。
func NewRedisBackend(rawURL, keyPrefix string) (*RedisBackend, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &RedisBackend{client: redis.NewClient(opts), keyPrefix: keyPrefix}, nil
}

// NewRedisBackendFromClient 复用已有客户端。
func NewRedisBackendFromClient(client *redis.Client, keyPrefix string) *RedisBackend {
	return &RedisBackend{client: client, keyPrefix: keyPrefix}
}

func (r *RedisBackend) Name() string { return "redis" }

// Ping 检查连接是否可用。
func (r *RedisBackend) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisBackend) Get(ctx context.Context, key string) (string, error) {
	value, err := r.client.Get(ctx, r.keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (r *RedisBackend) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return r.client.Set(ctx, r.keyPrefix+key, value, ttl).Err()
}

func (r *RedisBackend) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, key := range keys {
		full[i] = r.keyPrefix + key
	}
	return r.client.Del(ctx, full...).Err()
}

// DeletePrefix 通过 SCAN 遍历匹配项并分批 DEL，避免 KEYS 阻塞服务端。
func (r *RedisBackend) DeletePrefix(ctx context.Context, prefix string) error {
	pattern := escapeGlob(r.keyPrefix+prefix) + "*"
	iter := r.client.Scan(ctx, 0, pattern, scanBatch).Iterator()

	batch := make([]string, 0, scanBatch)
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := r.client.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return r.client.Del(ctx, batch...).Err()
	}
	return nil
}

func (r *RedisBackend) Close() error {
	return r.client.Close()
}

// escapeGlob 转义 Redis MATCH 模式中的特殊字符，文章路径可能包含 [ ] * ?。
func escapeGlob(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\', '^', '-':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
