package pubindex

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"io/fs"
	"os"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// RenderSitemap writes a sitemap with the site root, the configured static
// pages and one URL per post.
func RenderSitemap(w io.Writer, site SiteConfig, posts []Summary) error {
	base := site.URL
	urls := []sitemapURL{
		{Loc: BuildURL(base)},
	}
	for _, page := range site.StaticPages {
		urls = append(urls, sitemapURL{Loc: BuildURL(base, page)})
	}
	for _, p := range posts {
		urls = append(urls, sitemapURL{
			Loc:     BuildURL(base, site.Section, p.Slug),
			LastMod: p.DateString(),
		})
	}
	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	return enc.Encode(sitemap)
}

// WriteSitemap renders the sitemap to path. Unless overwrite is set, an
// existing file is kept as is and written reports false.
func WriteSitemap(path string, site SiteConfig, posts []Summary, overwrite bool) (written bool, err error) {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return false, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return false, err
		}
	}
	var buf bytes.Buffer
	if err := RenderSitemap(&buf, site, posts); err != nil {
		return false, err
	}
	if err := writeFileAtomic(path, buf.Bytes()); err != nil {
		return false, err
	}
	return true, nil
}
