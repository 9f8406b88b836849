package client

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/eringen/pubindex"
)

// errNotObject is returned when the artifact's top level is valid JSON but
// not an object.
var errNotObject = errors.New("artifact is not a JSON object")

// document is the undecoded artifact: slug -> raw entry.
type document map[string]json.RawMessage

func decodeDocument(body []byte) (document, error) {
	var doc document
	if err := json.Unmarshal(body, &doc); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, errNotObject
		}
		return nil, err
	}
	if doc == nil {
		return nil, errNotObject
	}
	return doc, nil
}

// DecodeEntry extracts the entry for slug from a raw artifact. Every shape
// problem degrades to the empty default for the affected field; ok reports
// whether the artifact held an object entry for slug at all.
func DecodeEntry(body []byte, slug string) (entry pubindex.Entry, ok bool) {
	doc, err := decodeDocument(body)
	if err != nil {
		return pubindex.EmptyEntry(), false
	}
	return doc.entry(slug)
}

func (d document) entry(slug string) (pubindex.Entry, bool) {
	raw, found := d[slug]
	if !found {
		return pubindex.EmptyEntry(), false
	}
	obj, isObj := object(raw)
	if !isObj {
		return pubindex.EmptyEntry(), false
	}

	entry := pubindex.EmptyEntry()
	if nav, isObj := object(obj["navigation"]); isObj {
		entry.Navigation.Prev = decodeSummary(nav["prev"])
		entry.Navigation.Next = decodeSummary(nav["next"])
	}
	related, found := obj["related"]
	if !found {
		related = obj["relatedPosts"] // artifacts written before the rename
	}
	var items []json.RawMessage
	if err := json.Unmarshal(related, &items); err == nil {
		for _, item := range items {
			if s := decodeSummary(item); s != nil {
				entry.Related = append(entry.Related, *s)
			}
		}
	}
	return entry, true
}

// decodeSummary accepts an object with a non-empty string slug. Other
// fields are taken when they have the expected type and ignored otherwise.
func decodeSummary(raw json.RawMessage) *pubindex.Summary {
	obj, ok := object(raw)
	if !ok {
		return nil
	}
	slug, ok := stringField(obj, "slug")
	if !ok || slug == "" {
		return nil
	}
	s := pubindex.Summary{Slug: slug, Tags: []string{}}
	if title, ok := stringField(obj, "title"); ok && title != "" {
		s.Title = title
	} else {
		s.Title = pubindex.HumanizeSlug(slug)
	}
	if date, ok := stringField(obj, "date"); ok && date != "" {
		s.Date = &date
	}
	var tags []json.RawMessage
	if err := json.Unmarshal(obj["tags"], &tags); err == nil {
		for _, t := range tags {
			var tag string
			if json.Unmarshal(t, &tag) == nil && tag != "" {
				s.Tags = append(s.Tags, tag)
			}
		}
	}
	s.Summary, _ = stringField(obj, "summary")
	s.Dek, _ = stringField(obj, "dek")
	s.Series, _ = stringField(obj, "series")
	s.Thumbnail, _ = stringField(obj, "thumbnail")
	s.Updated, _ = stringField(obj, "updated")
	s.Status, _ = stringField(obj, "status")
	return &s
}

func object(raw json.RawMessage) (map[string]json.RawMessage, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, false
	}
	return obj, true
}

func stringField(obj map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := obj[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}
