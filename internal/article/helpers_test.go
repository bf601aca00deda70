package article

import (
	"testing"
	"time"

	"github.com/inkhub/inkhub/internal/cache"
	"github.com/inkhub/inkhub/internal/logging"
	"github.com/inkhub/inkhub/internal/remote/remotetest"
)

var testTTLs = TTLs{List: time.Minute, Detail: time.Minute, Version: time.Minute}

// newTestService 返回使用磁盘缓存与内存仓库的 Service。
func newTestService(t *testing.T) (*Service, *remotetest.Memory) {
	t.Helper()
	backend, err := cache.NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("disk store: %v", err)
	}
	return newServiceWithBackend(t, backend)
}

func newServiceWithBackend(t *testing.T, backend cache.Backend) (*Service, *remotetest.Memory) {
	t.Helper()
	logger := logging.Discard()
	mem := remotetest.NewMemory()
	svc, err := NewService(Options{
		Store:  mem,
		Cache:  cache.NewLayer(backend, time.Second, logger),
		Logger: logger,
		Layout: Layout{PostsRoot: "posts", DraftsRoot: "drafts", Extension: ".md"},
		TTLs:   testTTLs,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, mem
}

func paths(nodes []Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Path
	}
	return out
}

func findNode(nodes []Node, p string) (Node, bool) {
	for _, n := range nodes {
		if n.Path == p {
			return n, true
		}
	}
	return Node{}, false
}
