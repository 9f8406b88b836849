package pubindex

import (
	"bytes"
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testSite() SiteConfig {
	return SiteConfig{
		Name:        "Writing",
		URL:         "https://example.com",
		Description: "Essays",
		Section:     "writing",
		StaticPages: []string{"/about"},
	}
}

func TestRenderRSS(t *testing.T) {
	posts := exampleCollection()
	posts[1].Summary = "Retrieval & generation"

	var buf bytes.Buffer
	if err := RenderRSS(&buf, testSite(), posts); err != nil {
		t.Fatalf("RenderRSS failed: %v", err)
	}
	var feed rssXML
	if err := xml.Unmarshal(buf.Bytes(), &feed); err != nil {
		t.Fatalf("feed is not valid XML: %v\n%s", err, buf.String())
	}
	if feed.Version != "2.0" || feed.Channel.Title != "Writing" {
		t.Fatalf("unexpected channel %+v", feed.Channel)
	}
	if len(feed.Channel.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(feed.Channel.Items))
	}
	item := feed.Channel.Items[1]
	if item.Link != "https://example.com/writing/b/" || item.GUID != item.Link {
		t.Fatalf("unexpected link %q", item.Link)
	}
	if item.PubDate != "Thu, 01 Feb 2024 00:00:00 +0000" {
		t.Fatalf("unexpected pubDate %q", item.PubDate)
	}
	if item.Description != "Retrieval & generation" || len(item.Categories) != 2 {
		t.Fatalf("unexpected item %+v", item)
	}
}

func TestRenderRSSUndatedPost(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderRSS(&buf, testSite(), []Summary{post("undated", "")}); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "<pubDate>") {
		t.Fatalf("undated post should omit pubDate:\n%s", buf.String())
	}
}

func TestRenderSitemap(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderSitemap(&buf, testSite(), exampleCollection()); err != nil {
		t.Fatalf("RenderSitemap failed: %v", err)
	}
	var set sitemapURLSet
	if err := xml.Unmarshal(buf.Bytes(), &set); err != nil {
		t.Fatalf("sitemap is not valid XML: %v", err)
	}
	want := []string{
		"https://example.com",
		"https://example.com/about/",
		"https://example.com/writing/c/",
		"https://example.com/writing/b/",
		"https://example.com/writing/a/",
	}
	if len(set.URLs) != len(want) {
		t.Fatalf("expected %d urls, got %d", len(want), len(set.URLs))
	}
	for i, u := range set.URLs {
		if u.Loc != want[i] {
			t.Fatalf("url %d: got %q, want %q", i, u.Loc, want[i])
		}
	}
	if set.URLs[2].LastMod != "2024-03-01" {
		t.Fatalf("expected lastmod from the post date, got %q", set.URLs[2].LastMod)
	}
}

func TestWriteSitemapKeepsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sitemap.xml")
	if err := os.WriteFile(path, []byte("hand written"), 0o644); err != nil {
		t.Fatal(err)
	}

	written, err := WriteSitemap(path, testSite(), exampleCollection(), false)
	if err != nil || written {
		t.Fatalf("expected existing sitemap kept, got written=%v err=%v", written, err)
	}
	if data, _ := os.ReadFile(path); string(data) != "hand written" {
		t.Fatalf("existing sitemap was modified")
	}

	written, err = WriteSitemap(path, testSite(), exampleCollection(), true)
	if err != nil || !written {
		t.Fatalf("expected overwrite, got written=%v err=%v", written, err)
	}
	if data, _ := os.ReadFile(path); !bytes.Contains(data, []byte("<urlset")) {
		t.Fatalf("sitemap not regenerated")
	}
}
