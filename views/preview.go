package views

import (
	"context"
	"html"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"
)

// Preview lists every post with the navigation and related links the
// artifact holds for it.
func Preview(site Site, posts []Post) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString("<!DOCTYPE html><html lang=\"en\"><head><meta charset=\"utf-8\">")
		b.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">")
		b.WriteString("<title>" + html.EscapeString(site.Name) + " · relationships</title></head><body>")
		b.WriteString("<header><h1>" + html.EscapeString(site.Name) + "</h1>")
		b.WriteString("<p>" + strconv.Itoa(len(posts)) + " posts</p></header><main>")
		if len(posts) == 0 {
			b.WriteString("<p class=\"empty\">No posts indexed.</p>")
		}
		for _, p := range posts {
			writePost(&b, p)
		}
		b.WriteString("</main></body></html>")
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func writePost(b *strings.Builder, p Post) {
	b.WriteString("<article id=\"" + html.EscapeString(p.Slug) + "\">")
	b.WriteString("<h2>" + html.EscapeString(p.Title) + "</h2>")
	if p.Date != "" {
		b.WriteString("<time>" + html.EscapeString(p.Date) + "</time>")
	}
	if len(p.Tags) > 0 {
		b.WriteString("<ul class=\"tags\">")
		for _, t := range p.Tags {
			b.WriteString("<li>" + html.EscapeString(t) + "</li>")
		}
		b.WriteString("</ul>")
	}
	if p.Missing {
		b.WriteString("<p class=\"warning\">Not in the artifact. Rebuild to include it.</p></article>")
		return
	}
	b.WriteString("<nav>")
	writeLink(b, "prev", "Newer", p.Prev)
	writeLink(b, "next", "Older", p.Next)
	b.WriteString("</nav>")
	if len(p.Related) > 0 {
		b.WriteString("<section class=\"related\"><h3>Related</h3><ul>")
		for i := range p.Related {
			b.WriteString("<li>")
			writeAnchor(b, &p.Related[i])
			b.WriteString("</li>")
		}
		b.WriteString("</ul></section>")
	}
	b.WriteString("</article>")
}

func writeLink(b *strings.Builder, class, label string, l *Link) {
	b.WriteString("<span class=\"" + class + "\">" + label + ": ")
	if l == nil {
		b.WriteString("none")
	} else {
		writeAnchor(b, l)
	}
	b.WriteString("</span>")
}

func writeAnchor(b *strings.Builder, l *Link) {
	b.WriteString("<a href=\"" + html.EscapeString(string(templ.URL(l.Href))) + "\">" + html.EscapeString(l.Title) + "</a>")
}
