package markdown

import (
	"strings"
	"testing"
)

func TestRenderHTML(t *testing.T) {
	html, err := RenderHTML("# Title\n\n- [x] done\n\n| a | b |\n|---|---|\n| 1 | 2 |\n")
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	if !strings.Contains(html, `<h1 id="title">Title</h1>`) {
		t.Fatalf("heading id missing: %s", html)
	}
	if !strings.Contains(html, "<table>") {
		t.Fatalf("gfm table missing: %s", html)
	}
	if !strings.Contains(html, `type="checkbox"`) {
		t.Fatalf("task list missing: %s", html)
	}
}
