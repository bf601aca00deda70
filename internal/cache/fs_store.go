package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// 无 TTL 的条目以一个足够远的时间作为过期点。
const noExpiry = 100 * 365 * 24 * time.Hour

const entrySuffix = ".body"

// NewDiskStore 以 basePath 为根目录构建磁盘缓存。磁盘布局遵循：
//
//	<StoragePath>/<PathEscape(key)>.body
//
// 条目的过期时间记录在文件 ModTime 上，读取时过期即视为未命中并顺带清理。
func NewDiskStore(basePath string) (Backend, error) {
	if basePath == "" {
		return nil, errors.New("storage path required")
	}

	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("resolve storage path: %w", err)
	}

	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage path: %w", err)
	}

	return &fileStore{
		basePath: abs,
		locks:    make(map[string]*entryLock),
		now:      time.Now,
	}, nil
}

// fileStore 通过 entryLock 避免同一 key 并发写入，同时复用 basePath。
type fileStore struct {
	basePath string
	now      func() time.Time

	mu    sync.Mutex
	locks map[string]*entryLock
}

type entryLock struct {
	mu   sync.Mutex
	refs int
}

func (s *fileStore) Name() string { return "disk" }

func (s *fileStore) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	filePath, err := s.entryPath(key)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", err
	}
	if info.IsDir() {
		return "", ErrNotFound
	}
	if !s.now().Before(info.ModTime()) {
		_ = s.remove(key)
		return "", ErrNotFound
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", err
	}
	return string(data), nil
}

func (s *fileStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	unlock := s.lockEntry(key)
	defer unlock()

	filePath, err := s.entryPath(key)
	if err != nil {
		return err
	}

	tempFile, err := os.CreateTemp(s.basePath, ".cache-*")
	if err != nil {
		return err
	}
	tempName := tempFile.Name()

	_, err = tempFile.WriteString(value)
	closeErr := tempFile.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempName)
		return err
	}

	if ttl <= 0 {
		ttl = noExpiry
	}
	expireAt := s.now().Add(ttl)
	if err := os.Chtimes(tempName, expireAt, expireAt); err != nil {
		os.Remove(tempName)
		return err
	}

	if err := os.Rename(tempName, filePath); err != nil {
		os.Remove(tempName)
		return err
	}
	return nil
}

func (s *fileStore) Delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.remove(key); err != nil {
			return err
		}
	}
	return nil
}

func (s *fileStore) DeletePrefix(ctx context.Context, prefix string) error {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, entrySuffix) {
			continue
		}
		key, err := url.PathUnescape(strings.TrimSuffix(name, entrySuffix))
		if err != nil || !strings.HasPrefix(key, prefix) {
			continue
		}
		if err := s.remove(key); err != nil {
			return err
		}
	}
	return nil
}

func (s *fileStore) Close() error { return nil }

func (s *fileStore) remove(key string) error {
	unlock := s.lockEntry(key)
	defer unlock()

	filePath, err := s.entryPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(filePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *fileStore) lockEntry(key string) func() {
	s.mu.Lock()
	lock := s.locks[key]
	if lock == nil {
		lock = &entryLock{}
		s.locks[key] = lock
	}
	lock.refs++
	s.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		s.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(s.locks, key)
		}
		s.mu.Unlock()
	}
}

// entryPath 将 key 转义为单层文件名，"/" 会被编码，不会逃逸出 basePath。
func (s *fileStore) entryPath(key string) (string, error) {
	if key == "" {
		return "", errors.New("cache key required")
	}
	name := url.PathEscape(key) + entrySuffix
	if len(name) > 255 {
		return "", fmt.Errorf("cache key too long: %d bytes", len(name))
	}
	return filepath.Join(s.basePath, name), nil
}
