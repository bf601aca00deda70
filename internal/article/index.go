package article

import (
	"context"
	"encoding/json"
	"path"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inkhub/inkhub/internal/cache"
	"github.com/inkhub/inkhub/internal/remote"
)

// Index 从远端文件树构建文章目录，结果以扁平列表缓存在 "articles" 下。
type Index struct {
	store  remote.Store
	cache  *cache.Layer
	layout Layout
	ttl    time.Duration
	logger *logrus.Logger
}

// NewIndex 构造目录索引，cacheLayer 为空时不使用缓存。
func NewIndex(store remote.Store, cacheLayer *cache.Layer, layout Layout, ttl time.Duration, logger *logrus.Logger) *Index {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if cacheLayer == nil {
		cacheLayer = cache.NewLayer(cache.Noop{}, 0, logger)
	}
	return &Index{
		store:  store,
		cache:  cacheLayer,
		layout: layout.withDefaults(),
		ttl:    ttl,
		logger: logger,
	}
}

// List 返回扁平的文章列表：先发布目录后草稿目录，只含文件，顺序与远端一致。
func (x *Index) List(ctx context.Context, force bool) (Listing, error) {
	if !force {
		if raw, ok := x.cache.Get(ctx, cache.KeyArticles); ok {
			var nodes []Node
			if err := json.Unmarshal([]byte(raw), &nodes); err == nil {
				if nodes == nil {
					nodes = []Node{}
				}
				return Listing{Articles: nodes, CacheHit: true}, nil
			}
			x.logger.WithFields(logrus.Fields{"action": "list_articles", "cache_key": cache.KeyArticles}).
				Warn("cache_decode_failed")
		}
	}

	entries, err := x.store.ListTree(ctx)
	if err != nil {
		return Listing{}, err
	}

	b := newTreeBuilder(x.layout)
	for _, entry := range entries {
		switch entry.Type {
		case remote.EntryTree:
			b.folder(entry.Path)
		case remote.EntryBlob:
			isDraft, ok := x.layout.Classify(entry.Path)
			if !ok {
				continue
			}
			b.file(Node{
				Name:    path.Base(entry.Path),
				Path:    entry.Path,
				Type:    NodeFile,
				SHA:     entry.SHA,
				IsDraft: isDraft,
			})
		}
	}
	nodes := b.flatten()

	if payload, err := json.Marshal(nodes); err == nil {
		x.cache.Set(ctx, cache.KeyArticles, string(payload), x.ttl)
	}
	return Listing{Articles: nodes, CacheHit: false}, nil
}

// Tree 返回嵌套视图：发布与草稿两个根目录节点，子节点由扁平列表重建。
func (x *Index) Tree(ctx context.Context, force bool) ([]*Node, bool, error) {
	listing, err := x.List(ctx, force)
	if err != nil {
		return nil, false, err
	}
	b := newTreeBuilder(x.layout)
	for _, node := range listing.Articles {
		b.file(node)
	}
	return b.roots(), listing.CacheHit, nil
}

// treeBuilder 维护 path -> node 索引，父目录在首次引用时惰性创建，
// 子节点按加入顺序挂到父节点上。
type treeBuilder struct {
	layout Layout
	nodes  map[string]*Node
	posts  *Node
	drafts *Node
}

func newTreeBuilder(layout Layout) *treeBuilder {
	b := &treeBuilder{layout: layout, nodes: make(map[string]*Node)}
	b.posts = b.newFolder(layout.PostsRoot, false)
	b.drafts = b.newFolder(layout.DraftsRoot, true)
	return b
}

func (b *treeBuilder) newFolder(dir string, isDraft bool) *Node {
	node := &Node{Name: path.Base(dir), Path: dir, Type: NodeFolder, IsDraft: isDraft, Children: []*Node{}}
	b.nodes[dir] = node
	return node
}

// folder 返回 dir 对应的目录节点，不在任一根目录下时返回 nil。
func (b *treeBuilder) folder(dir string) *Node {
	if node, ok := b.nodes[dir]; ok {
		return node
	}
	if _, isDraft, ok := b.layout.rootOf(dir); ok {
		parent := b.folder(path.Dir(dir))
		node := b.newFolder(dir, isDraft)
		parent.Children = append(parent.Children, node)
		return node
	}
	return nil
}

func (b *treeBuilder) file(n Node) {
	parent := b.folder(path.Dir(n.Path))
	if parent == nil {
		return
	}
	if _, dup := b.nodes[n.Path]; dup {
		return
	}
	node := n
	node.Children = nil
	b.nodes[n.Path] = &node
	parent.Children = append(parent.Children, &node)
}

func (b *treeBuilder) roots() []*Node {
	return []*Node{b.posts, b.drafts}
}

func (b *treeBuilder) flatten() []Node {
	out := make([]Node, 0, len(b.nodes))
	var walk func(*Node)
	walk = func(n *Node) {
		for _, child := range n.Children {
			if child.Type == NodeFile {
				out = append(out, *child)
				continue
			}
			walk(child)
		}
	}
	walk(b.posts)
	walk(b.drafts)
	return out
}
