// Package remotetest 提供 remote.Store 的内存实现与 GitHub API 测试桩，
// 供 article、server 等包在不访问网络的情况下验证远端语义。
package remotetest

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/inkhub/inkhub/internal/remote"
)

// 操作名，用于调用计数与故障注入。
const (
	OpListTree     = "list_tree"
	OpReadFile     = "read_file"
	OpWriteFile    = "write_file"
	OpDeleteFile   = "delete_file"
	OpLatestCommit = "latest_commit"
)

// Memory 是线程安全的内存仓库，SHA 按 git blob 规则由内容计算。
type Memory struct {
	mu       sync.Mutex
	files    map[string][]byte
	commits  int
	head     string
	calls    map[string]int
	failures map[string][]error
	messages []string
}

var _ remote.Store = (*Memory)(nil)

// NewMemory 创建空仓库。
func NewMemory() *Memory {
	return &Memory{
		files:    make(map[string][]byte),
		calls:    make(map[string]int),
		failures: make(map[string][]error),
		head:     commitID(0),
	}
}

// BlobSHA 按 git 的 blob 对象格式计算内容哈希。
func BlobSHA(content []byte) string {
	h := sha1.New()
	fmt.Fprintf(h, "blob %d\x00", len(content))
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

// Seed 直接写入文件并推进提交，返回该文件的 SHA。
func (m *Memory) Seed(path, content string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = []byte(content)
	m.commitLocked()
	return BlobSHA([]byte(content))
}

// Content 返回文件当前内容。
func (m *Memory) Content(path string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[path]
	return string(data), ok
}

// SHA 返回文件当前 SHA，文件不存在时为空串。
func (m *Memory) SHA(path string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[path]
	if !ok {
		return ""
	}
	return BlobSHA(data)
}

// Calls 返回某个操作被调用的次数。
func (m *Memory) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// ResetCalls 清空调用计数。
func (m *Memory) ResetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = make(map[string]int)
}

// FailNext 让指定操作的下一次调用返回 err，可多次排队。
func (m *Memory) FailNext(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[op] = append(m.failures[op], err)
}

// Messages 返回所有成功写入/删除的提交信息。
func (m *Memory) Messages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.messages...)
}

// Head 返回当前提交 ID。
func (m *Memory) Head() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.head
}

func (m *Memory) ListTree(ctx context.Context) ([]remote.TreeEntry, error) {
	if err := m.begin(ctx, OpListTree); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	dirs := make(map[string]struct{})
	entries := make([]remote.TreeEntry, 0, len(m.files))
	for path, data := range m.files {
		entries = append(entries, remote.TreeEntry{Path: path, SHA: BlobSHA(data), Type: remote.EntryBlob})
		parts := strings.Split(path, "/")
		for i := 1; i < len(parts); i++ {
			dirs[strings.Join(parts[:i], "/")] = struct{}{}
		}
	}
	for dir := range dirs {
		entries = append(entries, remote.TreeEntry{Path: dir, SHA: BlobSHA([]byte(dir)), Type: remote.EntryTree})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

func (m *Memory) ReadFile(ctx context.Context, path string) (*remote.File, error) {
	if err := m.begin(ctx, OpReadFile); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("read_file %s: %w", path, remote.ErrNotFound)
	}
	return &remote.File{Path: path, Content: append([]byte(nil), data...), SHA: BlobSHA(data)}, nil
}

func (m *Memory) WriteFile(ctx context.Context, req remote.WriteRequest) (string, error) {
	if err := m.begin(ctx, OpWriteFile); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	current, exists := m.files[req.Path]
	switch {
	case req.Creating() && exists:
		return "", &remote.ConflictError{Path: req.Path, AlreadyExists: true}
	case !req.Creating() && !exists:
		return "", &remote.ConflictError{Path: req.Path, ExpectedSHA: req.SHA}
	case !req.Creating() && BlobSHA(current) != req.SHA:
		return "", &remote.ConflictError{Path: req.Path, ExpectedSHA: req.SHA, CurrentSHA: BlobSHA(current)}
	}

	m.files[req.Path] = append([]byte(nil), req.Content...)
	m.messages = append(m.messages, req.Message)
	m.commitLocked()
	return BlobSHA(req.Content), nil
}

func (m *Memory) DeleteFile(ctx context.Context, req remote.DeleteRequest) error {
	if err := m.begin(ctx, OpDeleteFile); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	current, exists := m.files[req.Path]
	if !exists {
		return fmt.Errorf("delete_file %s: %w", req.Path, remote.ErrNotFound)
	}
	if BlobSHA(current) != req.SHA {
		return &remote.ConflictError{Path: req.Path, ExpectedSHA: req.SHA, CurrentSHA: BlobSHA(current)}
	}
	delete(m.files, req.Path)
	m.messages = append(m.messages, req.Message)
	m.commitLocked()
	return nil
}

func (m *Memory) LatestCommitID(ctx context.Context) (string, error) {
	if err := m.begin(ctx, OpLatestCommit); err != nil {
		return "", err
	}
	return m.Head(), nil
}

// begin 记录调用并弹出排队的注入错误。
func (m *Memory) begin(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[op]++
	if queue := m.failures[op]; len(queue) > 0 {
		err := queue[0]
		m.failures[op] = queue[1:]
		return err
	}
	return nil
}

func (m *Memory) commitLocked() {
	m.commits++
	m.head = commitID(m.commits)
}

func commitID(n int) string {
	sum := sha1.Sum([]byte(fmt.Sprintf("commit %d", n)))
	return hex.EncodeToString(sum[:])
}
