package markdown

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestParseYAMLHeader(t *testing.T) {
	raw := "---\ntitle: Hello\ntags:\n  - go\n  - cms\ndate: 2024-03-01\n---\n# Heading\n\nBody text.\n"

	doc, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if doc.Format != FormatYAML {
		t.Fatalf("expected yaml format, got %q", doc.Format)
	}
	if doc.Metadata["title"] != "Hello" {
		t.Fatalf("title mismatch: %#v", doc.Metadata)
	}
	if doc.Metadata["date"] != "2024-03-01" {
		t.Fatalf("date should stay a string, got %#v", doc.Metadata["date"])
	}
	tags, ok := doc.Metadata["tags"].([]any)
	if !ok || len(tags) != 2 || tags[0] != "go" {
		t.Fatalf("tags mismatch: %#v", doc.Metadata["tags"])
	}
	if doc.Body != "# Heading\n\nBody text.\n" {
		t.Fatalf("body mismatch: %q", doc.Body)
	}
}

func TestParseTOMLHeader(t *testing.T) {
	raw := "+++\ntitle = \"Hello\"\nweight = 3\ndate = 2024-03-01\n+++\nbody"

	doc, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if doc.Format != FormatTOML {
		t.Fatalf("expected toml format, got %q", doc.Format)
	}
	if doc.Metadata["weight"] != 3 {
		t.Fatalf("toml integers should normalize to int, got %#v", doc.Metadata["weight"])
	}
	if doc.Metadata["date"] != "2024-03-01" {
		t.Fatalf("toml local date should become a string, got %#v", doc.Metadata["date"])
	}
	if doc.Body != "body" {
		t.Fatalf("body mismatch: %q", doc.Body)
	}
}

func TestParseWithoutHeader(t *testing.T) {
	raw := "# Just markdown\n\n---\n\nwith a rule"

	doc, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if doc.Metadata == nil || len(doc.Metadata) != 0 {
		t.Fatalf("metadata should be an empty map, got %#v", doc.Metadata)
	}
	if doc.Body != raw {
		t.Fatalf("body should be the full text, got %q", doc.Body)
	}
	if doc.Format != FormatNone {
		t.Fatalf("format should be none, got %q", doc.Format)
	}
}

func TestParseMalformedHeader(t *testing.T) {
	_, err := Parse("---\ntitle: [unclosed\n---\nbody")
	if !errors.Is(err, ErrMalformedDocument) {
		t.Fatalf("expected ErrMalformedDocument, got %v", err)
	}
}

func TestComposeKeepsFloatFromParse(t *testing.T) {
	doc, err := Parse("---\nratio: 1.0\n---\nbody")
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if _, ok := doc.Metadata["ratio"].(float64); !ok {
		t.Fatalf("ratio should decode as float64, got %T", doc.Metadata["ratio"])
	}
	raw, err := Compose(doc.Metadata, doc.Body, doc.Format)
	if err != nil {
		t.Fatalf("compose error: %v", err)
	}
	if raw != "---\nratio: 1.0\n---\nbody" {
		t.Fatalf("unexpected output %q", raw)
	}
}

func TestComposeRoundTrip(t *testing.T) {
	cases := []struct {
		name   string
		meta   map[string]any
		body   string
		format Format
	}{
		{
			name:   "yaml scalars",
			meta:   map[string]any{"title": "A", "order": 2, "ratio": 1.5, "date": "2024-01-02", "draft": true},
			body:   "Body\n\nwith paragraphs\n",
			format: FormatYAML,
		},
		{
			name:   "yaml whole-number floats",
			meta:   map[string]any{"ratio": 1.0, "weight": float64(3), "neg": -2.0, "big": 1e21, "seo": map[string]any{"score": 10.0, "list": []any{4.0, 5}}},
			body:   "body",
			format: FormatYAML,
		},
		{
			name:   "yaml nested",
			meta:   map[string]any{"title": "B", "seo": map[string]any{"keywords": []any{"x", "y"}}},
			body:   "\n\nleading blank lines kept",
			format: FormatYAML,
		},
		{
			name:   "toml",
			meta:   map[string]any{"title": "C", "order": 7, "date": "2024-05-06T07:08:09Z"},
			body:   "toml body\n",
			format: FormatTOML,
		},
		{
			name:   "empty meta with rule-like body",
			meta:   map[string]any{},
			body:   "---\nnot a header\n",
			format: FormatYAML,
		},
		{
			name:   "empty meta and body",
			meta:   map[string]any{},
			body:   "",
			format: FormatYAML,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			raw, err := Compose(tc.meta, tc.body, tc.format)
			if err != nil {
				t.Fatalf("compose error: %v", err)
			}
			doc, err := Parse(raw)
			if err != nil {
				t.Fatalf("parse error: %v\n%s", err, raw)
			}
			if !reflect.DeepEqual(doc.Metadata, tc.meta) {
				t.Fatalf("metadata mismatch:\nwant %#v\ngot  %#v\nraw  %q", tc.meta, doc.Metadata, raw)
			}
			if doc.Body != tc.body {
				t.Fatalf("body mismatch: want %q got %q", tc.body, doc.Body)
			}
		})
	}
}

func TestComposeWithoutMetadataEmitsBody(t *testing.T) {
	raw, err := Compose(nil, "plain body", FormatYAML)
	if err != nil {
		t.Fatalf("compose error: %v", err)
	}
	if raw != "plain body" {
		t.Fatalf("expected bare body, got %q", raw)
	}
}

func TestComposeLayout(t *testing.T) {
	raw, err := Compose(map[string]any{"title": "T"}, "body", FormatYAML)
	if err != nil {
		t.Fatalf("compose error: %v", err)
	}
	if raw != "---\ntitle: T\n---\nbody" {
		t.Fatalf("unexpected layout: %q", raw)
	}

	raw, err = Compose(map[string]any{"title": "T", "gone": nil}, "body", FormatTOML)
	if err != nil {
		t.Fatalf("compose error: %v", err)
	}
	if !strings.HasPrefix(raw, "+++\n") || strings.Contains(raw, "gone") {
		t.Fatalf("unexpected toml layout: %q", raw)
	}
}

func TestParseFormat(t *testing.T) {
	if f, ok := ParseFormat("YML"); !ok || f != FormatYAML {
		t.Fatalf("yml should map to yaml")
	}
	if _, ok := ParseFormat("json"); ok {
		t.Fatalf("json should not be accepted")
	}
}
