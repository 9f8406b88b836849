package pubindex

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// BuildArtifact computes navigation and related posts for every post in
// the already-loaded collection, which must be ordered newest first.
// Neighbours come from each post's position, so navigation costs O(n) for
// the whole collection. An entry whose computation panics is logged and
// left out; the others are still produced.
func BuildArtifact(posts []Summary, limit int, log *zap.Logger) Artifact {
	if log == nil {
		log = zap.NewNop()
	}
	out := make(Artifact, len(posts))
	for i, p := range posts {
		entry, err := safely(func() Entry {
			return Entry{
				Navigation: navigationAt(i, posts),
				Related:    Related(p.Slug, p.Tags, posts, limit),
			}
		})
		if err != nil {
			log.Error("relationship computation failed", zap.String("slug", p.Slug), zap.Error(err))
			continue
		}
		out[p.Slug] = entry
	}
	return out
}

// BuildNotesArtifact computes related notes for every note.
func BuildNotesArtifact(notes []Summary, limit int, log *zap.Logger) NotesArtifact {
	if log == nil {
		log = zap.NewNop()
	}
	out := make(NotesArtifact, len(notes))
	for _, n := range notes {
		entry, err := safely(func() NoteEntry {
			return NoteEntry{Meta: n, Related: Related(n.Slug, n.Tags, notes, limit)}
		})
		if err != nil {
			log.Error("note relationship computation failed", zap.String("slug", n.Slug), zap.Error(err))
			continue
		}
		out[n.Slug] = entry
	}
	return out
}

func safely[T any](fn func() T) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(), nil
}

// WriteJSON encodes v with two-space indentation and replaces path
// atomically, creating the parent directory if needed.
func WriteJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return writeFileAtomic(path, buf.Bytes())
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// ReadArtifact loads a previously written relationship artifact.
func ReadArtifact(path string) (Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return a, nil
}
