package docs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// writeTree creates files under a temporary directory and returns it.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func TestIndex(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"intro.md":                  "# Intro\n",
		"blueprints/index.md":       "# Blueprints\n",
		"infra/ai-ml/index.md":      "# Infra\n",
		"resources/intro.mdx":       "---\ntitle: Resources\n---\n# Resources\n",
		"guidance/README.md":        "# Guidance\n",
		"guides/setup.md":           "---\nid: getting-started\nslug: /start\n---\n",
		"guides/relative.md":        "---\nslug: moved\n---\n",
		"guides/guides.md":          "# Guides\n",
		"guides/draft.md":           "---\ndraft: true\n---\n",
		"_partials/snippet.md":      "shared text",
		"blueprints/_inline.mdx":    "shared text",
		"blueprints/diagram.png":    "png",
		"blueprints/notes.markdown": "not a doc",
	})

	tree, err := Index(root, "docs", "/ai-on-eks/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		id    string
		route string
	}{
		{id: "intro", route: "/ai-on-eks/docs/intro"},
		{id: "blueprints/index", route: "/ai-on-eks/docs/blueprints"},
		{id: "infra/ai-ml/index", route: "/ai-on-eks/docs/infra/ai-ml"},
		{id: "resources/intro", route: "/ai-on-eks/docs/resources/intro"},
		{id: "guidance/README", route: "/ai-on-eks/docs/guidance"},
		{id: "guides/getting-started", route: "/ai-on-eks/docs/start"},
		{id: "guides/relative", route: "/ai-on-eks/docs/guides/moved"},
		{id: "guides/guides", route: "/ai-on-eks/docs/guides"},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			t.Parallel()
			if !tree.Has(tt.id) {
				t.Fatalf("expected document %q", tt.id)
			}
			route, _ := tree.Route(tt.id)
			if route != tt.route {
				t.Errorf("expected route %q, got %q", tt.route, route)
			}
			if !tree.HasRoute(tt.route + "/") {
				t.Errorf("expected HasRoute to accept a trailing slash on %q", tt.route)
			}
		})
	}

	t.Run("drafts and partials are skipped", func(t *testing.T) {
		t.Parallel()
		for _, id := range []string{"guides/draft", "_partials/snippet", "blueprints/_inline", "guides/setup"} {
			if tree.Has(id) {
				t.Errorf("did not expect document %q", id)
			}
		}
		if tree.Len() != len(tests) {
			t.Errorf("expected %d documents, got %d", len(tests), tree.Len())
		}
	})

	t.Run("docs are ordered by source", func(t *testing.T) {
		t.Parallel()
		docs := tree.Docs()
		for i := 1; i < len(docs); i++ {
			if docs[i-1].Source > docs[i].Source {
				t.Errorf("docs out of order: %s before %s", docs[i-1].Source, docs[i].Source)
			}
		}
	})

	t.Run("unknown front matter keys are ignored", func(t *testing.T) {
		t.Parallel()
		if _, ok := tree.BySource("resources/intro.mdx"); !ok {
			t.Error("expected resources/intro.mdx to be indexed")
		}
	})
}

func TestIndex_RouteBaseAtRoot(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{"index.md": "# Home\n", "intro.md": "# Intro\n"})
	tree, err := Index(root, "/", "/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if route, _ := tree.Route("index"); route != "/" {
		t.Errorf("expected root route, got %q", route)
	}
	if route, _ := tree.Route("intro"); route != "/intro" {
		t.Errorf("expected /intro, got %q", route)
	}
}

func TestIndex_Errors(t *testing.T) {
	t.Parallel()

	t.Run("missing directory", func(t *testing.T) {
		t.Parallel()
		_, err := Index(filepath.Join(t.TempDir(), "nope"), "docs", "/")
		if !errors.Is(err, ErrDocsDirNotFound) {
			t.Errorf("expected ErrDocsDirNotFound, got %v", err)
		}
	})

	t.Run("duplicate ids", func(t *testing.T) {
		t.Parallel()
		root := writeTree(t, map[string]string{
			"a.md": "---\nid: same\n---\n",
			"b.md": "---\nid: same\n---\n",
		})
		_, err := Index(root, "docs", "/")
		var dup *DuplicateIDError
		if !errors.As(err, &dup) || dup.ID != "same" {
			t.Errorf("expected DuplicateIDError for 'same', got %v", err)
		}
	})

	t.Run("malformed front matter", func(t *testing.T) {
		t.Parallel()
		root := writeTree(t, map[string]string{"a.md": "---\nid: [unclosed\n---\n"})
		_, err := Index(root, "docs", "/")
		var fmErr *FrontMatterError
		if !errors.As(err, &fmErr) || fmErr.Source != "a.md" {
			t.Errorf("expected FrontMatterError for a.md, got %v", err)
		}
	})
}

func TestAddPages(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"docs/intro.md":            "# Intro\n",
		"pages/index.js":           "export default function Home() {}",
		"pages/community/index.md": "# Community\n",
		"pages/markdown-page.mdx":  "# Page\n",
		"pages/_components/x.js":   "",
		"pages/styles.module.css":  "",
	})
	tree, err := Index(filepath.Join(root, "docs"), "docs", "/ai-on-eks/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	n, err := tree.AddPages(filepath.Join(root, "pages"), "/ai-on-eks/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 pages, got %d", n)
	}
	for _, route := range []string{"/ai-on-eks/", "/ai-on-eks/community", "/ai-on-eks/markdown-page"} {
		if !tree.HasRoute(route) {
			t.Errorf("expected route %q", route)
		}
	}

	if n, err := tree.AddPages(filepath.Join(root, "missing"), "/"); err != nil || n != 0 {
		t.Errorf("expected missing pages dir to add nothing, got %d, %v", n, err)
	}
}

func TestSplitFrontMatter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		src       string
		wantID    string
		wantBody  string
		wantLines int
	}{
		{name: "no front matter", src: "# Title\n", wantBody: "# Title\n"},
		{name: "front matter", src: "---\nid: x\n---\nbody\n", wantID: "x", wantBody: "body\n", wantLines: 3},
		{name: "crlf fences", src: "---\r\nid: x\r\n---\r\nbody", wantID: "x", wantBody: "body", wantLines: 3},
		{name: "unterminated is body", src: "---\nid: x\n", wantBody: "---\nid: x\n"},
		{name: "thematic break later is body", src: "text\n---\n", wantBody: "text\n---\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fm, body, lines, err := splitFrontMatter([]byte(tt.src))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if fm.ID != tt.wantID {
				t.Errorf("expected id %q, got %q", tt.wantID, fm.ID)
			}
			if string(body) != tt.wantBody {
				t.Errorf("expected body %q, got %q", tt.wantBody, body)
			}
			if lines != tt.wantLines {
				t.Errorf("expected %d lines, got %d", tt.wantLines, lines)
			}
		})
	}
}
