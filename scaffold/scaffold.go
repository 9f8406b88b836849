// Package scaffold creates new content documents from embedded templates.
package scaffold

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
	"time"

	"github.com/eringen/pubindex"
)

// Templates contains all scaffold template files.
// Files use Go text/template syntax and have a .tmpl suffix.
//
//go:embed all:templates
var Templates embed.FS

// ErrExists is returned when the target document already exists.
var ErrExists = errors.New("file already exists")

// postData holds the template variables for a new post.
type postData struct {
	Title string
	Slug  string
	Date  string
}

var postTemplate = template.Must(template.ParseFS(Templates, "templates/post.mdx.tmpl"))

// NewPost writes dir/<slug>.mdx for title, dated now, and returns its path.
// It never overwrites an existing document.
func NewPost(dir, title string, now time.Time) (string, error) {
	slug := pubindex.Slugify(title)
	if slug == "" {
		return "", fmt.Errorf("title %q has no characters usable in a slug", title)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, slug+".mdx")

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("%w: %s", ErrExists, path)
		}
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	data := postData{Title: title, Slug: slug, Date: now.Format("2006-01-02")}
	if err := postTemplate.Execute(f, data); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("execute template: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}
