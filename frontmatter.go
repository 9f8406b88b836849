package pubindex

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

// yamlFormat splits a "---" delimited header and decodes it with yaml.v3,
// so TagList's node-aware decoding applies.
var yamlFormat = frontmatter.NewFormat("---", "---", yaml.Unmarshal)

// Frontmatter is the typed metadata header of a content document.
type Frontmatter struct {
	Title     string  `yaml:"title"`
	Date      string  `yaml:"date"`
	Updated   string  `yaml:"updated"`
	Tags      TagList `yaml:"tags"`
	Summary   string  `yaml:"summary"`
	Dek       string  `yaml:"dek"`
	Series    string  `yaml:"series"`
	Thumbnail string  `yaml:"thumbnail"`
	Status    string  `yaml:"status"`
	Draft     bool    `yaml:"draft"`
}

// TagList accepts either a YAML sequence or a comma separated string.
type TagList []string

// UnmarshalYAML implements yaml.Unmarshaler.
func (t *TagList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		var raw []string
		if err := value.Decode(&raw); err != nil {
			return fmt.Errorf("tags: %w", err)
		}
		*t = FilterEmpty(raw)
	case yaml.ScalarNode:
		if value.ShortTag() == "!!null" {
			*t = nil
			return nil
		}
		*t = FilterEmpty(strings.Split(value.Value, ","))
	default:
		return fmt.Errorf("tags: line %d: expected a list or a string", value.Line)
	}
	return nil
}

// ParseFrontmatter reads the metadata header from r and returns it with the
// remaining body. A document without a header yields a zero Frontmatter.
func ParseFrontmatter(r io.Reader) (Frontmatter, []byte, error) {
	var fm Frontmatter
	body, err := frontmatter.Parse(r, &fm, yamlFormat)
	if err != nil {
		return Frontmatter{}, nil, err
	}
	return fm, body, nil
}

// ParseDocument builds the Summary for slug from a document's raw bytes.
// dateField selects which header key ("date" or "updated") becomes the
// ordering date.
func ParseDocument(slug string, raw []byte, dateField string) (Summary, Frontmatter, error) {
	fm, _, err := ParseFrontmatter(bytes.NewReader(raw))
	if err != nil {
		return Summary{}, Frontmatter{}, err
	}
	return summaryFrom(slug, fm, dateField), fm, nil
}

func summaryFrom(slug string, fm Frontmatter, dateField string) Summary {
	title := strings.TrimSpace(fm.Title)
	if title == "" {
		title = HumanizeSlug(slug)
	}
	date := fm.Date
	if dateField == DateFieldUpdated {
		date = fm.Updated
	}
	tags := []string(fm.Tags)
	if tags == nil {
		tags = []string{}
	}
	return Summary{
		Slug:      slug,
		Title:     title,
		Date:      optionalString(date),
		Tags:      tags,
		Summary:   strings.TrimSpace(fm.Summary),
		Dek:       strings.TrimSpace(fm.Dek),
		Series:    strings.TrimSpace(fm.Series),
		Thumbnail: strings.TrimSpace(fm.Thumbnail),
		Updated:   strings.TrimSpace(fm.Updated),
		Status:    strings.TrimSpace(fm.Status),
	}
}

// fallbackSummary is the minimal record used for a document whose header
// could not be parsed.
func fallbackSummary(slug string) Summary {
	return Summary{Slug: slug, Title: HumanizeSlug(slug), Tags: []string{}}
}

func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
