package article

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/inkhub/inkhub/internal/remote"
	"github.com/inkhub/inkhub/internal/remote/remotetest"
)

func TestListFiltersToArticleRoots(t *testing.T) {
	svc, mem := newTestService(t)
	mem.Seed("posts/b.md", "b")
	mem.Seed("posts/2024/a.md", "a")
	mem.Seed("posts/image.png", "png")
	mem.Seed("drafts/x.md", "x")
	mem.Seed("notes/readme.txt", "notes")
	mem.Seed("notes/other.md", "other")
	mem.Seed("README.md", "readme")

	listing, err := svc.List(context.Background(), false)
	if err != nil {
		t.Fatalf("list error: %v", err)
	}
	want := []string{"posts/2024/a.md", "posts/b.md", "drafts/x.md"}
	if got := paths(listing.Articles); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected listing:\nwant %v\ngot  %v", want, got)
	}
	for _, node := range listing.Articles {
		if node.Type != NodeFile || node.SHA == "" {
			t.Fatalf("listing should only contain files with sha: %+v", node)
		}
		if node.IsDraft != (node.Path == "drafts/x.md") {
			t.Fatalf("is_draft mismatch for %s", node.Path)
		}
	}
	if node, _ := findNode(listing.Articles, "posts/b.md"); node.Name != "b.md" || node.SHA != mem.SHA("posts/b.md") {
		t.Fatalf("node fields mismatch: %+v", node)
	}
}

func TestListEmptyWhenRootsAbsent(t *testing.T) {
	svc, mem := newTestService(t)
	mem.Seed("README.md", "readme")

	listing, err := svc.List(context.Background(), false)
	if err != nil {
		t.Fatalf("list error: %v", err)
	}
	if listing.Articles == nil || len(listing.Articles) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", listing.Articles)
	}
}

func TestListCacheHitAndForceRefresh(t *testing.T) {
	svc, mem := newTestService(t)
	mem.Seed("posts/a.md", "a")
	ctx := context.Background()

	first, err := svc.List(ctx, false)
	if err != nil || first.CacheHit {
		t.Fatalf("first list should miss: hit=%v err=%v", first.CacheHit, err)
	}
	second, err := svc.List(ctx, false)
	if err != nil || !second.CacheHit {
		t.Fatalf("second list should hit: hit=%v err=%v", second.CacheHit, err)
	}
	if !reflect.DeepEqual(first.Articles, second.Articles) {
		t.Fatalf("cached listing differs: %v vs %v", first.Articles, second.Articles)
	}
	if mem.Calls(remotetest.OpListTree) != 1 {
		t.Fatalf("cache hit should not touch remote, calls=%d", mem.Calls(remotetest.OpListTree))
	}

	forced, err := svc.List(ctx, true)
	if err != nil || forced.CacheHit {
		t.Fatalf("forced list should miss: hit=%v err=%v", forced.CacheHit, err)
	}
	if mem.Calls(remotetest.OpListTree) != 2 {
		t.Fatalf("forced list should reach remote")
	}
}

func TestListPropagatesRemoteFailure(t *testing.T) {
	svc, mem := newTestService(t)
	mem.FailNext(remotetest.OpListTree, remote.ErrUnavailable)

	if _, err := svc.List(context.Background(), false); !errors.Is(err, remote.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestTreeRebuildsFolders(t *testing.T) {
	svc, mem := newTestService(t)
	mem.Seed("posts/2024/01/a.md", "a")
	mem.Seed("posts/b.md", "b")
	mem.Seed("drafts/c.md", "c")

	roots, hit, err := svc.Index().Tree(context.Background(), false)
	if err != nil {
		t.Fatalf("tree error: %v", err)
	}
	if hit {
		t.Fatalf("first tree should miss cache")
	}
	if len(roots) != 2 || roots[0].Path != "posts" || roots[1].Path != "drafts" {
		t.Fatalf("unexpected roots: %+v", roots)
	}
	if !roots[1].IsDraft || roots[0].IsDraft {
		t.Fatalf("root draft flags wrong")
	}

	posts := roots[0]
	if len(posts.Children) != 2 || posts.Children[0].Path != "posts/2024" || posts.Children[0].Type != NodeFolder {
		t.Fatalf("unexpected posts children: %+v", posts.Children)
	}
	nested := posts.Children[0].Children
	if len(nested) != 1 || nested[0].Path != "posts/2024/01" || nested[0].Children[0].Path != "posts/2024/01/a.md" {
		t.Fatalf("nested folders not rebuilt: %+v", nested)
	}
	if posts.Children[1].Path != "posts/b.md" || posts.Children[1].Type != NodeFile {
		t.Fatalf("file order not preserved: %+v", posts.Children[1])
	}
}

func TestTreeBuilderInsertsParentsLazily(t *testing.T) {
	layout := Layout{PostsRoot: "posts", DraftsRoot: "drafts", Extension: ".md"}
	b := newTreeBuilder(layout)
	b.file(Node{Path: "drafts/z/y.md", Name: "y.md", Type: NodeFile, IsDraft: true})
	b.file(Node{Path: "drafts/a.md", Name: "a.md", Type: NodeFile, IsDraft: true})
	b.file(Node{Path: "elsewhere/a.md", Name: "a.md", Type: NodeFile})
	b.file(Node{Path: "drafts/a.md", Name: "a.md", Type: NodeFile, IsDraft: true})

	got := paths(b.flatten())
	want := []string{"drafts/z/y.md", "drafts/a.md"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("want %v got %v", want, got)
	}
	if folder := b.nodes["drafts/z"]; folder == nil || !folder.IsDraft {
		t.Fatalf("lazily created folder should inherit draft flag")
	}
}
