package pubindex

import (
	"os"
	"path/filepath"
	"testing"
)

func post(slug, date string, tags ...string) Summary {
	s := Summary{Slug: slug, Title: slug, Tags: tags}
	if s.Tags == nil {
		s.Tags = []string{}
	}
	if date != "" {
		s.Date = &date
	}
	return s
}

func slugs(posts []Summary) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.Slug
	}
	return out
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

// writeSite creates the three-post collection used across tests.
func writeSite(t *testing.T, dir string) {
	t.Helper()
	writeFile(t, dir, "a.mdx", "---\ntitle: \"Post A\"\ndate: \"2024-01-01\"\ntags: [\"rag\"]\n---\n\nBody A\n")
	writeFile(t, dir, "b.mdx", "---\ntitle: \"Post B\"\ndate: \"2024-02-01\"\ntags: [\"ai\", \"rag\"]\nsummary: \"Second post\"\n---\n\nBody B\n")
	writeFile(t, dir, "c.mdx", "---\ntitle: \"Post C\"\ndate: \"2024-03-01\"\ntags: [\"ai\"]\n---\n\nBody C\n")
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
