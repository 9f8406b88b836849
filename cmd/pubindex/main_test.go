package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T) (string, string) {
	t.Helper()
	root := t.TempDir()
	posts := filepath.Join(root, "posts")
	if err := os.MkdirAll(posts, 0o755); err != nil {
		t.Fatal(err)
	}
	cfg := fmt.Sprintf(`site:
  url: https://example.com
content:
  posts_dir: %q
  notes_dir: %q
build:
  output_dir: %q
  manifest_path: %q
`, posts, filepath.Join(root, "notes"), filepath.Join(root, "public"), filepath.Join(root, "state", "manifest.db"))
	path := filepath.Join(root, "pubindex.yaml")
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}
	return path, root
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestNewThenBuild(t *testing.T) {
	for _, k := range []string{"SITE_URL", "CONTENT_DIR", "OUTPUT_DIR", "ENV", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	cfg, root := writeConfig(t)

	out, err := run(t, "new", "Hello World", "--config", cfg)
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	if !strings.Contains(out, filepath.Join(root, "posts", "hello-world.mdx")) {
		t.Fatalf("unexpected output %q", out)
	}

	if _, err := run(t, "build", "--config", cfg, "--log-level", "error"); err != nil {
		t.Fatalf("build failed: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(root, "public", "blog-data.json"))
	if err != nil {
		t.Fatalf("artifact not written: %v", err)
	}
	if !strings.Contains(string(data), `"hello-world"`) {
		t.Fatalf("artifact missing the new post:\n%s", data)
	}
}

func TestBuildFailsOnBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("content:\n  on_error: explode\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, "build", "--config", path); err == nil {
		t.Fatalf("expected build to fail on an invalid config")
	}
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	if err != nil || !strings.Contains(out, "pubindex dev") {
		t.Fatalf("unexpected version output %q (%v)", out, err)
	}
}
